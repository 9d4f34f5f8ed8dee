package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/types"
)

var listFlags struct {
	status string
	owner  string
	parent string
	limit  int
	offset int
	order  string
}

var listCmd = &cobra.Command{
	Use:   "list <epic|story|sprint|run>",
	Short: "List work items",
	Args:  cobra.ExactArgs(1),
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

		filter := types.ItemFilter{
			Limit:   listFlags.limit,
			Offset:  listFlags.offset,
			OrderBy: types.OrderBy(listFlags.order),
		}
		if listFlags.status != "" {
			status := types.Status(listFlags.status)
			filter.Status = &status
		}
		if listFlags.owner != "" {
			filter.Owner = &listFlags.owner
		}
		if listFlags.parent != "" {
			filter.ParentID = &listFlags.parent
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tPOINTS\tOWNER\tTITLE")
		err = p.store.EachItem(cmd.Context(), itemType, filter, func(item *types.WorkItem) error {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				item.ID, item.Status, item.Points, item.Owner, item.Title)
			return nil
		})
		if err != nil {
			return err
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().StringVar(&listFlags.status, "status", "", "filter by status")
	listCmd.Flags().StringVar(&listFlags.owner, "owner", "", "filter by owner")
	listCmd.Flags().StringVar(&listFlags.parent, "parent", "", "filter by parent id")
	listCmd.Flags().IntVar(&listFlags.limit, "limit", 0, "maximum rows")
	listCmd.Flags().IntVar(&listFlags.offset, "offset", 0, "rows to skip")
	listCmd.Flags().StringVar(&listFlags.order, "order", "", "order: created, updated, id")
	rootCmd.AddCommand(listCmd)
}
