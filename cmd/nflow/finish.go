package main

import (
	"github.com/spf13/cobra"

	"github.com/nflow-dev/nflow/internal/debug"
)

var finishCmd = &cobra.Command{
	Use:     "finish",
	Aliases: []string{"merge"},
	GroupID: "workflow",
	Short:   "Squash-merge the pull request and close the ticket",
	Long: `Squash-merges the open pull request of the current branch after checking that
it is mergeable and its checks have not failed. Pending checks only warn.

After the merge nflow switches to the development branch, deletes the merged
branch on origin and locally, and moves the ticket to Done. These cleanup steps
only warn when they fail; rerun or finish them by hand.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := getRootContext()

		s, err := loadSession(ctx)
		exitOnError(err)
		wf, err := s.newWorkflow(ctx, true)
		exitOnError(err)

		res, err := wf.Finish(ctx)
		exitOnError(err)
		if res.Cancelled {
			debug.PrintlnNormal("Merge cancelled. Nothing was changed.")
		}
	},
}

func init() {
	rootCmd.AddCommand(finishCmd)
}
