package main

import (
	"github.com/spf13/cobra"
)

var sprintCmd = &cobra.Command{
	Use:   "sprint",
	Short: "Manage sprint membership",
}

var sprintAssignCmd = &cobra.Command{
	Use:   "assign <sprint-id> <story-id>",
	Short: "Assign a story to a sprint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(cmd.Context())
		if err != nil {
			return err
		}
		defer p.Close()
		return p.store.AssignToSprint(cmd.Context(), args[0], args[1], p.actor)
	},
}

var sprintRemoveCmd = &cobra.Command{
	Use:   "remove <sprint-id> <story-id>",
	Short: "Remove a story from a sprint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(cmd.Context())
		if err != nil {
			return err
		}
		defer p.Close()
		return p.store.RemoveFromSprint(cmd.Context(), args[0], args[1], p.actor)
	},
}

func init() {
	sprintCmd.AddCommand(sprintAssignCmd, sprintRemoveCmd)
	rootCmd.AddCommand(sprintCmd)
}
