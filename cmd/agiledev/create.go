package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/docsync"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/txn"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/types"
)

var createFlags struct {
	title  string
	points int
	epic   string
	story  string
	owner  string
}

var createCmd = &cobra.Command{
	Use:   "create <epic|story|sprint|run> <id>",
	Short: "Create a work item with its document, as one commit",
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

		title := createFlags.title
		if title == "" {
			title = id
		}
		item := &types.WorkItem{
			ID:       id,
			ItemType: itemType,
			Title:    title,
			Points:   createFlags.points,
			Owner:    createFlags.owner,
		}
		switch itemType {
		case types.TypeStory:
			item.ParentID = createFlags.epic
		case types.TypeRun:
			item.ParentID = createFlags.story
		}
		item.SetDefaults()

		relPath := filepath.Join(p.cfg.DocsDir, id+".md")
		return p.runner.Run(cmd.Context(), "create "+string(itemType)+" "+id, func(tx *txn.Tx) error {
			header, err := docsync.RenderHeader(item)
			if err != nil {
				return err
			}
			doc := append(header, []byte(fmt.Sprintf("\n# %s\n", item.Title))...)
			item.SourcePath = relPath
			item.ContentFingerprint = docsync.Fingerprint(doc)
			if err := tx.WriteDocument(relPath, doc); err != nil {
				return err
			}
			return tx.CreateItem(item)
		})
	},
}

func init() {
	createCmd.Flags().StringVar(&createFlags.title, "title", "", "item title")
	createCmd.Flags().IntVar(&createFlags.points, "points", 0, "story points")
	createCmd.Flags().StringVar(&createFlags.epic, "epic", "", "parent epic id (stories)")
	createCmd.Flags().StringVar(&createFlags.story, "story", "", "parent story id (runs)")
	createCmd.Flags().StringVar(&createFlags.owner, "owner", "", "item owner")
	rootCmd.AddCommand(createCmd)
}
