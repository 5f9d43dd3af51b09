package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/nflow-dev/nflow/internal/branch"
	"github.com/nflow-dev/nflow/internal/ident"
	"github.com/nflow-dev/nflow/internal/prompt"
	"github.com/nflow-dev/nflow/internal/tickets"
)

// Start lets the user pick a ticket and puts the working copy on its
// branch, creating and publishing the branch when none exists yet. The
// ticket then moves to In Progress. Rerunning it for the same ticket
// only switches and pulls.
func (w *Workflow) Start(ctx context.Context) (res *Result, err error) {
	ctx, res, end := begin(ctx, "start")
	defer func() { end(err) }()

	candidates, err := w.Tickets.Candidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch tickets: %w", err)
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	options := make([]prompt.Option, len(candidates))
	for i, t := range candidates {
		options[i] = prompt.Option{
			Label: fmt.Sprintf("%s  %s  [%s]", t.ID, t.Title, t.Status),
			Value: t.ID,
		}
	}
	chosen, err := w.Prompt.Select(ctx, "Which ticket do you want to work on?", options)
	if cancelled(err) {
		res.Cancelled = true
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	var ticket *tickets.Ticket
	for i := range candidates {
		if candidates[i].ID == chosen {
			ticket = &candidates[i]
			break
		}
	}
	if ticket == nil {
		return nil, fmt.Errorf("%w: %s", ErrTicketNotFound, chosen)
	}
	res.Ticket = ticket

	name, found, err := w.Branches.FindByTicketID(ctx, ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("look up branch for %s: %w", ticket.ID, err)
	}

	if found {
		res.Branch = name
		if err := w.resume(ctx, res, name); err != nil {
			return res, err
		}
	} else {
		name, err = w.askBranchName(ctx, ticket)
		if cancelled(err) {
			res.Cancelled = true
			return res, nil
		}
		if err != nil {
			return nil, err
		}
		res.Branch = name
		if err := w.create(ctx, res, name); err != nil {
			return res, err
		}
	}

	if ticket.Status != tickets.StatusInProgress {
		if err := w.run(ctx, res, Step{
			Name:  "Move " + ticket.ID + " to " + string(tickets.StatusInProgress),
			Fatal: true,
			Run: func(ctx context.Context) error {
				return w.Tickets.SetStatus(ctx, ticket, tickets.StatusInProgress)
			},
		}); err != nil {
			return res, err
		}
	}

	if w.UserID != "" && !ticket.IsAssignedTo(w.UserID) {
		_ = w.run(ctx, res, Step{
			Name: "Assign " + ticket.ID,
			Run: func(ctx context.Context) error {
				return w.Tickets.Assign(ctx, ticket, w.UserID)
			},
		})
	}

	w.Report.Success(fmt.Sprintf("Working on %s on branch %s", ticket.ID, res.Branch))
	return res, nil
}

// resume switches to an existing branch and brings it up to date. A
// branch that never reached the remote is published instead of pulled.
func (w *Workflow) resume(ctx context.Context, res *Result, name string) error {
	w.Report.Info("Found existing branch " + name)
	if err := w.run(ctx, res, Step{
		Name:  "Switch to " + name,
		Fatal: true,
		Run:   func(ctx context.Context) error { return w.Branches.SwitchTo(ctx, name) },
	}); err != nil {
		return err
	}

	state, err := w.Branches.StateOf(ctx, name)
	if err != nil {
		return fmt.Errorf("inspect branch %s: %w", name, err)
	}
	if state == branch.LocalOnly {
		return w.run(ctx, res, Step{
			Name:  "Publish " + name,
			Fatal: true,
			Run:   func(ctx context.Context) error { return w.Branches.Publish(ctx, name) },
		})
	}

	// A branch with diverged history can still be worked on; pulling is
	// an update, not a requirement.
	return w.run(ctx, res, Step{
		Name: "Pull " + name,
		Run:  w.Branches.Pull,
	})
}

// create forks name from the development branch and publishes it.
func (w *Workflow) create(ctx context.Context, res *Result, name string) error {
	if err := w.run(ctx, res, Step{
		Name:  fmt.Sprintf("Create %s from %s", name, w.DevBranch),
		Fatal: true,
		Run:   func(ctx context.Context) error { return w.Branches.CreateFrom(ctx, name, w.DevBranch) },
	}); err != nil {
		return err
	}
	return w.run(ctx, res, Step{
		Name:  "Publish " + name,
		Fatal: true,
		Run:   func(ctx context.Context) error { return w.Branches.Publish(ctx, name) },
	})
}

// askBranchName composes {category}/{id}_{description} with a description
// the user confirms or edits.
func (w *Workflow) askBranchName(ctx context.Context, t *tickets.Ticket) (string, error) {
	category := ident.DerivePrefix(t.Type)
	desc, err := w.Prompt.Input(ctx,
		fmt.Sprintf("Branch description (%s/%s_...)", category, t.ID),
		ident.Suggest(t.Title),
		validateDescription,
	)
	if err != nil {
		return "", err
	}
	return ident.BranchName(category, t.ID, ident.Sanitize(desc, ident.MaxDescriptionLen)), nil
}

var errEmptyDescription = errors.New("description must contain letters or digits")

func validateDescription(s string) error {
	if ident.Sanitize(s, ident.MaxDescriptionLen) == "" {
		return errEmptyDescription
	}
	return nil
}
