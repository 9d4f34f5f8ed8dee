package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/docsync"
)

var syncFlags struct {
	recursive bool
}

var syncCmd = &cobra.Command{
	Use:   "sync [path]",
	Short: "Reconcile documents with the store",
	Long: `Sync a single document, or without arguments the whole docs
directory. Conflicts are resolved per the configured policy; under the
manual policy conflicting documents are reported and skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(cmd.Context())
		if err != nil {
			return err
		}
		defer p.Close()

		if len(args) == 1 {
			doc, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			result, err := p.engine.SyncFromDocument(cmd.Context(), doc, args[0])
			if err != nil {
				var ce *docsync.ConflictError
				if errors.As(err, &ce) {
					printConflict(ce)
				}
				return err
			}
			fmt.Printf("%s: %s\n", result.Path, result.Outcome)
			return nil
		}

		report, err := p.engine.SyncDirectory(cmd.Context(), p.docsDir(), syncFlags.recursive)
		if err != nil {
			return err
		}
		fmt.Printf("processed %d: %d created, %d updated, %d unchanged, %d failed\n",
			report.Processed, report.Created, report.Updated, report.Unchanged, len(report.Errors))
		for _, se := range report.Errors {
			rel, relErr := filepath.Rel(p.root, se.Path)
			if relErr != nil {
				rel = se.Path
			}
			fmt.Printf("  %s: %v\n", rel, se.Err)
		}
		if len(report.Errors) > 0 {
			return fmt.Errorf("%d documents failed to sync", len(report.Errors))
		}
		return nil
	},
}

func printConflict(ce *docsync.ConflictError) {
	fmt.Printf("conflicts on %s:\n", ce.ID)
	for _, c := range ce.Conflicts {
		fmt.Printf("  %s: database=%q document=%q (base=%q)\n",
			c.Field, c.Database, c.Document, c.Base)
	}
}

func init() {
	syncCmd.Flags().BoolVarP(&syncFlags.recursive, "recursive", "r", false,
		"descend into subdirectories")
	rootCmd.AddCommand(syncCmd)
}
