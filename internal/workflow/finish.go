package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/nflow-dev/nflow/internal/review"
	"github.com/nflow-dev/nflow/internal/tickets"
)

// NoCommitsBody is the squash body offered when the pull request has no
// usable commit messages.
const NoCommitsBody = "No commit messages."

// Finish squash-merges the pull request of the current branch after the
// merge gate passes and the user confirms. The merge is the only step
// that can fail the transition; switching back to the development
// branch, deleting the merged branch and closing the ticket are cleanup
// that is reported and can be completed by hand.
func (w *Workflow) Finish(ctx context.Context) (res *Result, err error) {
	ctx, res, end := begin(ctx, "finish")
	defer func() { end(err) }()

	head, ticket, err := w.currentTicket(ctx)
	if err != nil {
		return nil, err
	}
	res.Ticket = ticket
	res.Branch = head

	found, err := w.Reviews.FindExisting(ctx, head, w.DevBranch)
	if err != nil {
		return nil, fmt.Errorf("look up pull request: %w", err)
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s -> %s", ErrNoPullRequest, head, w.DevBranch)
	}

	pr, err := w.Reviews.Details(ctx, found.Number)
	if err != nil {
		return nil, fmt.Errorf("read pull request #%d: %w", found.Number, err)
	}
	res.PullRequest = pr
	if pr.Merged {
		return nil, fmt.Errorf("%w: #%d", ErrAlreadyMerged, pr.Number)
	}
	// nil means the host is still computing; only an explicit false blocks.
	if pr.Mergeable != nil && !*pr.Mergeable {
		return nil, fmt.Errorf("%w: #%d has conflicts or is blocked", ErrNotMergeable, pr.Number)
	}

	checks, err := w.Reviews.AggregatedStatus(ctx, pr.HeadSHA)
	if err != nil {
		return nil, fmt.Errorf("read checks of #%d: %w", pr.Number, err)
	}
	if checks.Blocking() {
		return nil, fmt.Errorf("%w: #%d reports %s", ErrChecksFailed, pr.Number, checks)
	}
	if checks == review.CheckPending {
		w.Report.Warn("Checks are still pending")
	}

	w.Report.Summary(pr, checks)
	ok, err := w.Prompt.Confirm(ctx, fmt.Sprintf("Squash-merge #%d into %s?", pr.Number, w.DevBranch))
	if cancelled(err) || (err == nil && !ok) {
		res.Cancelled = true
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	messages, err := w.Reviews.CommitMessages(ctx, pr.Number)
	if err != nil {
		return nil, fmt.Errorf("list commits of #%d: %w", pr.Number, err)
	}
	body, err := w.Prompt.Edit(ctx, "Squash commit message", SquashBody(messages))
	if cancelled(err) {
		res.Cancelled = true
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	if err := w.run(ctx, res, Step{
		Name:  fmt.Sprintf("Merge #%d", pr.Number),
		Fatal: true,
		Run: func(ctx context.Context) error {
			if err := w.Reviews.Merge(ctx, pr.Number, SquashTitle(pr), body); err != nil {
				return err
			}
			pr.Merged = true
			return nil
		},
	}); err != nil {
		return res, err
	}

	w.cleanup(ctx, res, head, ticket)

	if failed := res.Failed(); len(failed) > 0 {
		w.Report.Warn(fmt.Sprintf("Merged #%d; %d cleanup step(s) need attention", pr.Number, len(failed)))
	} else {
		w.Report.Success(fmt.Sprintf("Merged #%d and closed %s", pr.Number, ticket.ID))
	}
	return res, nil
}

// cleanup runs the post-merge steps. None of them is fatal.
func (w *Workflow) cleanup(ctx context.Context, res *Result, head string, ticket *tickets.Ticket) {
	_ = w.run(ctx, res, Step{
		Name: "Switch to " + w.DevBranch,
		Run: func(ctx context.Context) error {
			if err := w.Branches.SwitchTo(ctx, w.DevBranch); err != nil {
				return err
			}
			return w.Branches.Pull(ctx)
		},
	})
	_ = w.run(ctx, res, Step{
		Name: "Delete " + head,
		Run: func(ctx context.Context) error {
			return w.Branches.DeleteEverywhere(ctx, head).Err()
		},
	})
	_ = w.run(ctx, res, Step{
		Name: "Move " + ticket.ID + " to " + string(tickets.StatusDone),
		Run: func(ctx context.Context) error {
			return w.Tickets.SetStatus(ctx, ticket, tickets.StatusDone)
		},
	})
}

// SquashTitle is "{title} (#{number})".
func SquashTitle(pr *review.PullRequest) string {
	return fmt.Sprintf("%s (#%d)", pr.Title, pr.Number)
}

// SquashBody lists commit subjects as "* subject" lines, or NoCommitsBody.
func SquashBody(messages []string) string {
	if len(messages) == 0 {
		return NoCommitsBody
	}
	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = "* " + m
	}
	return strings.Join(lines, "\n")
}
