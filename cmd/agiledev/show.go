package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/types"
)

var showFlags struct {
	audit int
}

var showCmd = &cobra.Command{
	Use:   "show <epic|story|sprint|run> <id>",
	Short: "Show one work item, its progress and history",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		itemType := types.ItemType(args[0])
		if !itemType.IsValid() {
			return fmt.Errorf("unknown item type %q", args[0])
		}
		id := args[1]

		p, err := openProject(cmd.Context())
		if err != nil {
			return err
		}
		defer p.Close()

		ctx := cmd.Context()
		item, err := p.store.GetItem(ctx, itemType, id)
		if err != nil {
			return err
		}

		fmt.Printf("%s %s: %s\n", item.ItemType, item.ID, item.Title)
		fmt.Printf("  status: %s\n", item.Status)
		if item.ParentID != "" {
			fmt.Printf("  parent: %s\n", item.ParentID)
		}
		if item.Owner != "" {
			fmt.Printf("  owner: %s\n", item.Owner)
		}
		if item.Points > 0 {
			fmt.Printf("  points: %d\n", item.Points)
		}
		if item.SourcePath != "" {
			fmt.Printf("  document: %s\n", item.SourcePath)
		}

		if itemType == types.TypeEpic {
			progress, err := p.store.EpicProgress(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("  progress: %d/%d stories done, %d/%d points\n",
				progress.DoneChildren, progress.TotalChildren,
				progress.CompletedPoints, progress.TotalPoints)
		}
		if itemType == types.TypeSprint {
			stories, err := p.store.SprintStories(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("  stories (%d):\n", len(stories))
			for _, s := range stories {
				fmt.Printf("    %s [%s] %s\n", s.ID, s.Status, s.Title)
			}
		}

		if showFlags.audit != 0 {
			entries, err := p.store.AuditLog(ctx, itemType, id, showFlags.audit)
			if err != nil {
				return err
			}
			fmt.Println("  history:")
			for _, e := range entries {
				fmt.Printf("    %s %s: %q -> %q (%s)\n",
					e.CreatedAt.Format("2006-01-02 15:04"), e.Field,
					e.OldValue, e.NewValue, e.Actor)
			}
		}
		return nil
	},
}

func init() {
	showCmd.Flags().IntVar(&showFlags.audit, "audit", 0,
		"show the last N audit entries (-1 for all)")
	rootCmd.AddCommand(showCmd)
}
