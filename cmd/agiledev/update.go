package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/txn"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/types"
)

var updateFlags struct {
	status string
	title  string
	owner  string
	points int
	parent string
}

var updateCmd = &cobra.Command{
	Use:   "update <epic|story|sprint|run> <id>",
	Short: "Update item fields and regenerate its document, as one commit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		itemType := types.ItemType(args[0])
		if !itemType.IsValid() {
			return fmt.Errorf("unknown item type %q", args[0])
		}
		id := args[1]

		changes := map[string]interface{}{}
		if cmd.Flags().Changed("status") {
			changes["status"] = updateFlags.status
		}
		if cmd.Flags().Changed("title") {
			changes["title"] = updateFlags.title
		}
		if cmd.Flags().Changed("owner") {
			changes["owner"] = updateFlags.owner
		}
		if cmd.Flags().Changed("points") {
			changes["points"] = updateFlags.points
		}
		if cmd.Flags().Changed("parent") {
			changes["parent"] = updateFlags.parent
		}
		if len(changes) == 0 {
			return fmt.Errorf("nothing to update: pass at least one field flag")
		}

		p, err := openProject(cmd.Context())
		if err != nil {
			return err
		}
		defer p.Close()

		return p.runner.Run(cmd.Context(), "update "+string(itemType)+" "+id, func(tx *txn.Tx) error {
			updated, err := tx.UpdateItem(itemType, id, changes)
			if err != nil {
				return err
			}

			// Keep the paired document's header in step with the store.
			relPath := updated.SourcePath
			if relPath == "" {
				relPath = filepath.Join(p.cfg.DocsDir, id+".md")
			}
			var existing []byte
			if data, err := os.ReadFile(filepath.Join(p.root, relPath)); err == nil {
				existing = data
			}
			doc, err := p.engine.SyncToDocument(cmd.Context(), itemType, id, existing)
			if err != nil {
				return err
			}
			return tx.WriteDocument(relPath, doc)
		})
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateFlags.status, "status", "", "new status")
	updateCmd.Flags().StringVar(&updateFlags.title, "title", "", "new title")
	updateCmd.Flags().StringVar(&updateFlags.owner, "owner", "", "new owner")
	updateCmd.Flags().IntVar(&updateFlags.points, "points", 0, "new story points")
	updateCmd.Flags().StringVar(&updateFlags.parent, "parent", "", "new parent id")
	rootCmd.AddCommand(updateCmd)
}
