package main

import (
	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:     "review",
	Aliases: []string{"pr"},
	GroupID: "workflow",
	Short:   "Push the branch and open its pull request",
	Long: `Pushes the current ticket branch and opens a pull request into the development
branch, labelled with the ticket type and assigned to you. The pull request is
linked on the ticket, which moves to In Review.

When the pull request is already open only the ticket status is updated.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := getRootContext()

		s, err := loadSession(ctx)
		exitOnError(err)
		wf, err := s.newWorkflow(ctx, true)
		exitOnError(err)

		_, err = wf.Review(ctx)
		exitOnError(err)
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}
