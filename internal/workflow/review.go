package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/nflow-dev/nflow/internal/tickets"
)

// Review pushes the current branch and opens its pull request against
// the development branch, then moves the ticket to In Review. When the
// pull request already exists only the status is brought in line.
func (w *Workflow) Review(ctx context.Context) (res *Result, err error) {
	ctx, res, end := begin(ctx, "review")
	defer func() { end(err) }()

	head, ticket, err := w.currentTicket(ctx)
	if err != nil {
		return nil, err
	}
	res.Ticket = ticket
	res.Branch = head

	if err := w.run(ctx, res, Step{
		Name:  "Push " + head,
		Fatal: true,
		Run:   w.Branches.PushCurrent,
	}); err != nil {
		return res, err
	}

	existing, err := w.Reviews.FindExisting(ctx, head, w.DevBranch)
	if err != nil {
		return res, fmt.Errorf("look up pull request: %w", err)
	}
	if existing != nil {
		res.PullRequest = existing
		w.Report.Info(fmt.Sprintf("Pull request #%d is already open: %s", existing.Number, existing.URL))
		if err := w.ensureStatus(ctx, res, ticket, tickets.StatusInReview); err != nil {
			return res, err
		}
		return res, nil
	}

	if err := w.run(ctx, res, Step{
		Name:  fmt.Sprintf("Open pull request %s -> %s", head, w.DevBranch),
		Fatal: true,
		Run: func(ctx context.Context) error {
			pr, err := w.Reviews.Create(ctx, head, w.DevBranch, PullRequestTitle(ticket), PullRequestBody(ticket))
			if err != nil {
				return err
			}
			res.PullRequest = pr
			return nil
		},
	}); err != nil {
		return res, err
	}
	pr := res.PullRequest

	if ticket.Type != "" {
		_ = w.run(ctx, res, Step{
			Name: "Label pull request " + ticket.Type,
			Run: func(ctx context.Context) error {
				if err := w.Reviews.EnsureLabel(ctx, ticket.Type, ticket.TypeColor); err != nil {
					return err
				}
				return w.Reviews.AddLabels(ctx, pr.Number, ticket.Type)
			},
		})
	}

	_ = w.run(ctx, res, Step{
		Name: "Assign pull request",
		Run: func(ctx context.Context) error {
			_, err := w.Reviews.AssignSelf(ctx, pr.Number)
			return err
		},
	})

	_ = w.run(ctx, res, Step{
		Name: "Link pull request on " + ticket.ID,
		Run: func(ctx context.Context) error {
			return w.Tickets.SetPullRequest(ctx, ticket, pr.URL)
		},
	})

	if err := w.ensureStatus(ctx, res, ticket, tickets.StatusInReview); err != nil {
		return res, err
	}

	w.Report.Success(fmt.Sprintf("Opened pull request #%d: %s", pr.Number, pr.URL))
	return res, nil
}

// ensureStatus writes status only when the ticket is not there yet.
func (w *Workflow) ensureStatus(ctx context.Context, res *Result, t *tickets.Ticket, status tickets.Status) error {
	if t.Status == status {
		return nil
	}
	return w.run(ctx, res, Step{
		Name:  "Move " + t.ID + " to " + string(status),
		Fatal: true,
		Run: func(ctx context.Context) error {
			return w.Tickets.SetStatus(ctx, t, status)
		},
	})
}

// PullRequestTitle is "{ID}: {Title}".
func PullRequestTitle(t *tickets.Ticket) string {
	return t.ID + ": " + t.Title
}

// PullRequestBody links the ticket from the pull request description.
func PullRequestBody(t *tickets.Ticket) string {
	var b strings.Builder
	if t.URL != "" {
		fmt.Fprintf(&b, "Ticket: [%s](%s)\n", t.ID, t.URL)
	} else {
		fmt.Fprintf(&b, "Ticket: %s\n", t.ID)
	}
	if t.Type != "" {
		fmt.Fprintf(&b, "Type: %s\n", t.Type)
	}
	return b.String()
}
