package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nflow-dev/nflow/internal/github"
	"github.com/nflow-dev/nflow/internal/review"
	"github.com/nflow-dev/nflow/internal/ui"
	"github.com/nflow-dev/nflow/internal/workflow"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "workflow",
	Short:   "Show the ticket, branch and pull request of the current branch",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := getRootContext()

		s, err := loadSession(ctx)
		exitOnError(err)
		wf, err := s.newWorkflow(ctx, true)
		exitOnError(err)

		snap, err := wf.Status(ctx)
		exitOnError(err)
		renderSnapshot(os.Stdout, snap)

		if access := repoAccess(ctx, s); access != nil {
			fmt.Println(ui.RenderKeyValue("Repo", accessText(access)))
		}
	},
}

// repoAccess reads push permission; failures only warn.
func repoAccess(ctx context.Context, s *session) *github.RepoAccess {
	gh, err := s.githubClient(ctx)
	if err != nil {
		WarnError("%v", err)
		return nil
	}
	access, err := gh.CheckAccess(ctx)
	if err != nil {
		WarnError("%v", err)
		return nil
	}
	return access
}

func accessText(a *github.RepoAccess) string {
	text := a.FullName
	if a.IsFork {
		text += " (fork)"
	}
	if a.CanPush {
		return text + ", " + ui.RenderPass("push access")
	}
	return text + ", " + ui.RenderFail("no push access")
}

func renderSnapshot(w io.Writer, snap *workflow.Snapshot) {
	if snap.Branch == "" {
		fmt.Fprintln(w, ui.RenderKeyValue("Branch", ui.RenderMuted("(detached HEAD)")))
		return
	}
	fmt.Fprintln(w, ui.RenderKeyValue("Branch", snap.Branch+" "+ui.RenderMuted("("+snap.BranchState.String()+")")))

	if snap.TicketID == "" {
		fmt.Fprintln(w, ui.RenderKeyValue("Ticket", ui.RenderMuted("none (not a ticket branch)")))
		return
	}
	if snap.Ticket == nil {
		fmt.Fprintln(w, ui.RenderKeyValue("Ticket", snap.TicketID+" "+ui.RenderFail("not found")))
	} else {
		t := snap.Ticket
		fmt.Fprintln(w, ui.RenderKeyValue("Ticket", t.ID+" "+ui.Truncate(t.Title, 60)))
		fmt.Fprintln(w, ui.RenderKeyValue("Status", ui.RenderState(string(t.Status))))
		if t.Type != "" {
			fmt.Fprintln(w, ui.RenderKeyValue("Type", t.Type))
		}
	}

	pr := snap.PullRequest
	if pr == nil {
		fmt.Fprintln(w, ui.RenderKeyValue("PR", ui.RenderMuted("none")))
		return
	}
	state := "open"
	if pr.Merged {
		state = "merged"
	}
	fmt.Fprintln(w, ui.RenderKeyValue("PR", fmt.Sprintf("#%d %s (%s)", pr.Number, pr.URL, state)))
	fmt.Fprintln(w, ui.RenderKeyValue("Checks", ui.RenderState(string(snap.Checks))))
	fmt.Fprintln(w, ui.RenderKeyValue("Mergeable", mergeableText(pr.Mergeable)))
	if snap.Checks.Blocking() {
		fmt.Fprintln(w, ui.RenderWarn("Checks are failing; 'nflow finish' will refuse to merge."))
	} else if snap.Checks == review.CheckPending {
		fmt.Fprintln(w, ui.RenderMuted("Checks are still running."))
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
