package workflow

import (
	"context"
	"fmt"

	"github.com/nflow-dev/nflow/internal/branch"
	"github.com/nflow-dev/nflow/internal/ident"
	"github.com/nflow-dev/nflow/internal/review"
	"github.com/nflow-dev/nflow/internal/tickets"
)

// Snapshot is the read-only view of the current unit of work. Fields the
// current branch does not lead to stay zero.
type Snapshot struct {
	Branch      string
	TicketID    string
	Ticket      *tickets.Ticket
	BranchState branch.State
	PullRequest *review.PullRequest
	Checks      review.CheckState
}

// Status gathers what each system knows about the current branch. It
// never mutates anything.
func (w *Workflow) Status(ctx context.Context) (snap *Snapshot, err error) {
	ctx, _, end := begin(ctx, "status")
	defer func() { end(err) }()

	snap = &Snapshot{}
	snap.Branch, err = w.Branches.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("read current branch: %w", err)
	}
	if snap.Branch == "" {
		return snap, nil
	}

	snap.BranchState, err = w.Branches.StateOf(ctx, snap.Branch)
	if err != nil {
		return nil, fmt.Errorf("inspect branch %s: %w", snap.Branch, err)
	}

	id, ok := ident.ExtractTicketID(snap.Branch)
	if !ok {
		return snap, nil
	}
	snap.TicketID = id

	snap.Ticket, err = w.Tickets.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("look up ticket %s: %w", id, err)
	}

	if w.Reviews == nil {
		return snap, nil
	}
	found, err := w.Reviews.FindExisting(ctx, snap.Branch, w.DevBranch)
	if err != nil {
		return nil, fmt.Errorf("look up pull request: %w", err)
	}
	if found == nil {
		return snap, nil
	}
	snap.PullRequest, err = w.Reviews.Details(ctx, found.Number)
	if err != nil {
		return nil, fmt.Errorf("read pull request #%d: %w", found.Number, err)
	}
	snap.Checks, err = w.Reviews.AggregatedStatus(ctx, snap.PullRequest.HeadSHA)
	if err != nil {
		return nil, fmt.Errorf("read checks of #%d: %w", found.Number, err)
	}
	return snap, nil
}
