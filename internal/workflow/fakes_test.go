package workflow

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/nflow-dev/nflow/internal/branch"
	"github.com/nflow-dev/nflow/internal/prompt"
	"github.com/nflow-dev/nflow/internal/review"
	"github.com/nflow-dev/nflow/internal/tickets"
)

var errRemote = errors.New("remote unavailable")

// fakeBranches keeps a set of local and remote branches in memory.
type fakeBranches struct {
	current string
	local   []string
	remote  []string
	calls   []string

	pullErr    error
	pushErr    error
	publishErr error
	deleteErr  branch.DeleteResult
	switchErr  map[string]error
}

func (f *fakeBranches) record(call string) { f.calls = append(f.calls, call) }

func (f *fakeBranches) called(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeBranches) Current(ctx context.Context) (string, error) { return f.current, nil }

func (f *fakeBranches) FindByTicketID(ctx context.Context, id string) (string, bool, error) {
	for _, name := range append(append([]string(nil), f.local...), f.remote...) {
		if strings.Contains(name, id+"_") {
			return name, true, nil
		}
	}
	return "", false, nil
}

func (f *fakeBranches) StateOf(ctx context.Context, name string) (branch.State, error) {
	l, r := slices.Contains(f.local, name), slices.Contains(f.remote, name)
	switch {
	case l && r:
		return branch.LocalAndRemote, nil
	case l:
		return branch.LocalOnly, nil
	case r:
		return branch.RemoteOnly, nil
	}
	return branch.Absent, nil
}

func (f *fakeBranches) SwitchTo(ctx context.Context, name string) error {
	f.record("switch " + name)
	if err := f.switchErr[name]; err != nil {
		return err
	}
	if !slices.Contains(f.local, name) && !slices.Contains(f.remote, name) {
		return branch.ErrBranchNotFound
	}
	if !slices.Contains(f.local, name) {
		f.local = append(f.local, name)
	}
	f.current = name
	return nil
}

func (f *fakeBranches) CreateFrom(ctx context.Context, newName, base string) error {
	f.record("create " + newName + " from " + base)
	f.local = append(f.local, newName)
	f.current = newName
	return nil
}

func (f *fakeBranches) Publish(ctx context.Context, name string) error {
	f.record("publish " + name)
	if f.publishErr != nil {
		return f.publishErr
	}
	f.remote = append(f.remote, name)
	return nil
}

func (f *fakeBranches) Pull(ctx context.Context) error {
	f.record("pull")
	return f.pullErr
}

func (f *fakeBranches) PushCurrent(ctx context.Context) error {
	f.record("push " + f.current)
	return f.pushErr
}

func (f *fakeBranches) DeleteEverywhere(ctx context.Context, name string) branch.DeleteResult {
	f.record("delete " + name)
	return f.deleteErr
}

// fakeTickets is an in-memory tracker.
type fakeTickets struct {
	tickets     []tickets.Ticket
	statusCalls []tickets.Status
	linked      string
	assigned    []string

	statusErr error
}

func (f *fakeTickets) Candidates(ctx context.Context) ([]tickets.Ticket, error) {
	var out []tickets.Ticket
	for _, t := range f.tickets {
		if t.Status == tickets.StatusBacklog || t.Status == tickets.StatusInProgress {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTickets) Find(ctx context.Context, id string) (*tickets.Ticket, error) {
	for i := range f.tickets {
		if f.tickets[i].ID == id {
			t := f.tickets[i]
			return &t, nil
		}
	}
	return nil, nil
}

// store writes t back so later lookups see the change.
func (f *fakeTickets) store(t *tickets.Ticket) {
	for i := range f.tickets {
		if f.tickets[i].ID == t.ID {
			f.tickets[i] = *t
		}
	}
}

func (f *fakeTickets) SetStatus(ctx context.Context, t *tickets.Ticket, status tickets.Status) error {
	f.statusCalls = append(f.statusCalls, status)
	if f.statusErr != nil {
		return f.statusErr
	}
	t.Status = status
	f.store(t)
	return nil
}

func (f *fakeTickets) SetPullRequest(ctx context.Context, t *tickets.Ticket, url string) error {
	f.linked = url
	t.PullRequest = url
	f.store(t)
	return nil
}

func (f *fakeTickets) Assign(ctx context.Context, t *tickets.Ticket, userID string) error {
	f.assigned = append(f.assigned, userID)
	t.AssigneeIDs = append(t.AssigneeIDs, userID)
	f.store(t)
	return nil
}

// fakeReviews is an in-memory code host.
type fakeReviews struct {
	pulls   []*review.PullRequest
	checks  review.CheckState
	commits []string

	created   int
	merged    []string // "title|body"
	labels    []string
	assigned  int
	labelErr  error
	mergeErr  error
	findErr   error
	createErr error
}

func (f *fakeReviews) FindExisting(ctx context.Context, head, base string) (*review.PullRequest, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, pr := range f.pulls {
		if pr.Head == head && pr.Base == base {
			return pr, nil
		}
	}
	return nil, nil
}

func (f *fakeReviews) Create(ctx context.Context, head, base, title, body string) (*review.PullRequest, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created++
	pr := &review.PullRequest{
		Number: 40 + f.created,
		Title:  title,
		Body:   body,
		Head:   head,
		Base:   base,
		URL:    "https://github.com/acme/app/pull/41",
	}
	f.pulls = append(f.pulls, pr)
	return pr, nil
}

func (f *fakeReviews) Details(ctx context.Context, number int) (*review.PullRequest, error) {
	for _, pr := range f.pulls {
		if pr.Number == number {
			cp := *pr
			return &cp, nil
		}
	}
	return nil, errRemote
}

func (f *fakeReviews) AggregatedStatus(ctx context.Context, sha string) (review.CheckState, error) {
	if f.checks == "" {
		return review.CheckSuccess, nil
	}
	return f.checks, nil
}

func (f *fakeReviews) Merge(ctx context.Context, number int, title, body string) error {
	if f.mergeErr != nil {
		return f.mergeErr
	}
	f.merged = append(f.merged, title+"|"+body)
	return nil
}

func (f *fakeReviews) CommitMessages(ctx context.Context, number int) ([]string, error) {
	return f.commits, nil
}

func (f *fakeReviews) EnsureLabel(ctx context.Context, name, trackerColor string) error {
	return f.labelErr
}

func (f *fakeReviews) AddLabels(ctx context.Context, number int, labels ...string) error {
	f.labels = append(f.labels, labels...)
	return nil
}

func (f *fakeReviews) AssignSelf(ctx context.Context, number int) (string, error) {
	f.assigned++
	return "octocat", nil
}

// fakePrompt answers with canned values.
type fakePrompt struct {
	selectValue string
	inputValue  string // "" accepts the default
	confirm     bool
	editValue   string // "" accepts the default
	err         error

	inputDefault string
	editDefault  string
	confirmed    int
}

func (f *fakePrompt) Select(ctx context.Context, title string, options []prompt.Option) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.selectValue, nil
}

func (f *fakePrompt) Input(ctx context.Context, title, def string, validate func(string) error) (string, error) {
	f.inputDefault = def
	if f.err != nil {
		return "", f.err
	}
	v := f.inputValue
	if v == "" {
		v = def
	}
	if err := validate(v); err != nil {
		return "", err
	}
	return v, nil
}

func (f *fakePrompt) Confirm(ctx context.Context, title string) (bool, error) {
	f.confirmed++
	if f.err != nil {
		return false, f.err
	}
	return f.confirm, nil
}

func (f *fakePrompt) Edit(ctx context.Context, title, def string) (string, error) {
	f.editDefault = def
	if f.editValue == "" {
		return def, nil
	}
	return f.editValue, nil
}

// fakeReporter collects messages.
type fakeReporter struct {
	steps     []string
	infos     []string
	warnings  []string
	successes []string
	summaries int
}

func (f *fakeReporter) Step(name string)   { f.steps = append(f.steps, name) }
func (f *fakeReporter) Info(msg string)    { f.infos = append(f.infos, msg) }
func (f *fakeReporter) Warn(msg string)    { f.warnings = append(f.warnings, msg) }
func (f *fakeReporter) Success(msg string) { f.successes = append(f.successes, msg) }
func (f *fakeReporter) Summary(pr *review.PullRequest, checks review.CheckState) {
	f.summaries++
}

type harness struct {
	branches *fakeBranches
	tickets  *fakeTickets
	reviews  *fakeReviews
	prompt   *fakePrompt
	report   *fakeReporter
	wf       *Workflow
}

func newHarness() *harness {
	h := &harness{
		branches: &fakeBranches{current: "develop", local: []string{"develop"}, remote: []string{"develop"}},
		tickets:  &fakeTickets{},
		reviews:  &fakeReviews{},
		prompt:   &fakePrompt{},
		report:   &fakeReporter{},
	}
	h.wf = &Workflow{
		Branches:  h.branches,
		Tickets:   h.tickets,
		Reviews:   h.reviews,
		Prompt:    h.prompt,
		Report:    h.report,
		DevBranch: "develop",
	}
	return h
}

func ptr[T any](v T) *T { return &v }
