package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/txn"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/types"
)

var deleteFlags struct {
	cascade bool
}

var deleteCmd = &cobra.Command{
	Use:   "delete <epic|story|sprint|run> <id>",
	Short: "Delete a work item",
	Long: `Delete a work item from the store. Items with children are refused
unless --cascade is given, which removes the whole subtree. Paired documents
and their sync baselines are removed in the same commit, so a later sync
cannot resurrect the item. Audit history is kept either way.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		itemType := types.ItemType(args[0])
		if !itemType.IsValid() {
			return fmt.Errorf("unknown item type %q", args[0])
		}

		p, err := openProject(cmd.Context())
		if err != nil {
			return err
		}
		defer p.Close()

		op := fmt.Sprintf("delete %s %s", itemType, args[1])
		return p.runner.Run(cmd.Context(), op, func(tx *txn.Tx) error {
			removed, err := tx.DeleteItem(itemType, args[1], deleteFlags.cascade)
			if err != nil {
				return err
			}
			for _, item := range removed {
				if item.SourcePath == "" {
					continue
				}
				if err := tx.RemoveDocument(item.SourcePath); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteFlags.cascade, "cascade", false,
		"also delete all descendant items")
	rootCmd.AddCommand(deleteCmd)
}
