// Package workflow ties tickets, branches and pull requests together for
// the three transitions of a unit of work: start, review and finish.
//
// Nothing is stored locally. Every call re-derives the state from git,
// the ticket tracker and the code host, so an interrupted transition is
// resumed by running it again.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/nflow-dev/nflow/internal/branch"
	"github.com/nflow-dev/nflow/internal/ident"
	"github.com/nflow-dev/nflow/internal/prompt"
	"github.com/nflow-dev/nflow/internal/review"
	"github.com/nflow-dev/nflow/internal/telemetry"
	"github.com/nflow-dev/nflow/internal/tickets"
)

// Precondition failures. None of them is returned after a mutation.
var (
	ErrNotWorkingCopy = errors.New("not inside a git working copy")
	ErrNotConfigured  = errors.New("nflow is not configured for this repository (run 'nflow init')")
	ErrNoCandidates   = errors.New("no tickets in Backlog or In Progress")
	ErrNoTicketID     = errors.New("current branch does not name a ticket")
	ErrTicketNotFound = errors.New("ticket not found")
	ErrNoPullRequest  = errors.New("no open pull request for the current branch")
	ErrAlreadyMerged  = errors.New("pull request is already merged")
	ErrNotMergeable   = errors.New("pull request is not mergeable")
	ErrChecksFailed   = errors.New("checks failed")
)

// Branches is the branch resolver as the workflow uses it.
type Branches interface {
	Current(ctx context.Context) (string, error)
	FindByTicketID(ctx context.Context, id string) (string, bool, error)
	StateOf(ctx context.Context, name string) (branch.State, error)
	SwitchTo(ctx context.Context, name string) error
	CreateFrom(ctx context.Context, newName, base string) error
	Publish(ctx context.Context, name string) error
	Pull(ctx context.Context) error
	PushCurrent(ctx context.Context) error
	DeleteEverywhere(ctx context.Context, name string) branch.DeleteResult
}

// Tickets is the ticket lifecycle gateway.
type Tickets interface {
	Candidates(ctx context.Context) ([]tickets.Ticket, error)
	Find(ctx context.Context, id string) (*tickets.Ticket, error)
	SetStatus(ctx context.Context, t *tickets.Ticket, status tickets.Status) error
	SetPullRequest(ctx context.Context, t *tickets.Ticket, url string) error
	Assign(ctx context.Context, t *tickets.Ticket, userID string) error
}

// Reviews is the review gateway.
type Reviews interface {
	FindExisting(ctx context.Context, head, base string) (*review.PullRequest, error)
	Create(ctx context.Context, head, base, title, body string) (*review.PullRequest, error)
	Details(ctx context.Context, number int) (*review.PullRequest, error)
	AggregatedStatus(ctx context.Context, sha string) (review.CheckState, error)
	Merge(ctx context.Context, number int, title, body string) error
	CommitMessages(ctx context.Context, number int) ([]string, error)
	EnsureLabel(ctx context.Context, name, trackerColor string) error
	AddLabels(ctx context.Context, number int, labels ...string) error
	AssignSelf(ctx context.Context, number int) (string, error)
}

// Prompter asks the user. Implementations return prompt.ErrAborted when
// the user cancels.
type Prompter interface {
	Select(ctx context.Context, title string, options []prompt.Option) (string, error)
	Input(ctx context.Context, title, def string, validate func(string) error) (string, error)
	Confirm(ctx context.Context, title string) (bool, error)
	Edit(ctx context.Context, title, def string) (string, error)
}

// Reporter shows progress to the user.
type Reporter interface {
	Step(name string)
	Info(msg string)
	Warn(msg string)
	Success(msg string)
	Summary(pr *review.PullRequest, checks review.CheckState)
}

// Workflow runs transitions for one repository. It is built per
// invocation and holds no state between calls.
type Workflow struct {
	Branches Branches
	Tickets  Tickets
	Reviews  Reviews // nil for transitions that never touch the code host
	Prompt   Prompter
	Report   Reporter

	DevBranch string // Integration branch work forks from and merges into
	UserID    string // Tracker user assigned on start; "" disables assignment
}

// Result describes what a transition did.
type Result struct {
	Transition  string
	Ticket      *tickets.Ticket
	Branch      string
	PullRequest *review.PullRequest
	Steps       []Outcome
	Cancelled   bool // User declined or aborted; nothing was changed
}

// Failed returns the outcomes of steps that did not succeed.
func (r *Result) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Steps {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Step is one mutation of a transition. A failing fatal step ends the
// transition; a failing non-fatal step is reported and skipped.
type Step struct {
	Name  string
	Fatal bool
	Run   func(ctx context.Context) error
}

// Outcome records how a step went.
type Outcome struct {
	Name  string
	Fatal bool
	Err   error
}

// OK reports whether the step succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

func (o Outcome) label() string {
	switch {
	case o.Err == nil:
		return "ok"
	case o.Fatal:
		return "failed"
	default:
		return "warned"
	}
}

// run executes s, records its outcome on res and returns an error only
// when a fatal step fails.
func (w *Workflow) run(ctx context.Context, res *Result, s Step) error {
	w.Report.Step(s.Name)
	ctx, span := telemetry.StartSpan(ctx, "workflow.step",
		attribute.String("nflow.transition", res.Transition),
		attribute.String("nflow.step", s.Name),
		attribute.Bool("nflow.fatal", s.Fatal),
	)
	err := s.Run(ctx)
	telemetry.EndSpan(span, err)

	out := Outcome{Name: s.Name, Fatal: s.Fatal, Err: err}
	res.Steps = append(res.Steps, out)
	telemetry.RecordStep(ctx, res.Transition, s.Name, out.label())

	if err == nil {
		return nil
	}
	if s.Fatal {
		return fmt.Errorf("%s: %w", s.Name, err)
	}
	w.Report.Warn(fmt.Sprintf("%s: %v", s.Name, err))
	return nil
}

// begin opens the transition span and result.
func begin(ctx context.Context, transition string) (context.Context, *Result, func(error)) {
	ctx, span := telemetry.StartSpan(ctx, "workflow."+transition)
	res := &Result{Transition: transition}
	return ctx, res, func(err error) { telemetry.EndSpan(span, err) }
}

// cancelled reports whether err means the user backed out of a prompt.
func cancelled(err error) bool {
	return errors.Is(err, prompt.ErrAborted)
}

// currentTicket recovers the ticket the checked-out branch belongs to.
func (w *Workflow) currentTicket(ctx context.Context) (string, *tickets.Ticket, error) {
	cur, err := w.Branches.Current(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("read current branch: %w", err)
	}
	if cur == "" {
		return "", nil, fmt.Errorf("%w: HEAD is detached", ErrNoTicketID)
	}
	id, ok := ident.ExtractTicketID(cur)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrNoTicketID, cur)
	}
	t, err := w.Tickets.Find(ctx, id)
	if err != nil {
		return "", nil, fmt.Errorf("look up ticket %s: %w", id, err)
	}
	if t == nil {
		return "", nil, fmt.Errorf("%w: %s", ErrTicketNotFound, id)
	}
	return cur, t, nil
}
