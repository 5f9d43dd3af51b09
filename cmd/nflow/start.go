package main

import (
	"github.com/spf13/cobra"

	"github.com/nflow-dev/nflow/internal/debug"
)

var startCmd = &cobra.Command{
	Use:     "start",
	GroupID: "workflow",
	Short:   "Pick a ticket and switch to its branch",
	Long: `Lists the tickets in Backlog or In Progress and puts the working copy on the
chosen ticket's branch. An existing branch is checked out and pulled; otherwise
a new branch named {category}/{ID}_{description} is created from the
development branch and pushed. The ticket then moves to In Progress.

Running start again for the same ticket only switches and pulls.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := getRootContext()

		s, err := loadSession(ctx)
		exitOnError(err)
		wf, err := s.newWorkflow(ctx, false)
		exitOnError(err)

		res, err := wf.Start(ctx)
		exitOnError(err)
		if res.Cancelled {
			debug.PrintlnNormal("Cancelled.")
		}
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
