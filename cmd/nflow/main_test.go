package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nflow-dev/nflow/internal/branch"
	"github.com/nflow-dev/nflow/internal/config"
	"github.com/nflow-dev/nflow/internal/debug"
	"github.com/nflow-dev/nflow/internal/review"
	"github.com/nflow-dev/nflow/internal/tickets"
	"github.com/nflow-dev/nflow/internal/workflow"
)

func TestMain(m *testing.M) {
	// Plain output keeps assertions independent of the terminal.
	_ = os.Setenv("NO_COLOR", "1")
	os.Exit(m.Run())
}

func TestHintFor(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: missing", workflow.ErrNotConfigured), "nflow init"},
		{fmt.Errorf("wrapped: %w", workflow.ErrNoTicketID), "nflow start"},
		{fmt.Errorf("%w: #3", workflow.ErrChecksFailed), "failing checks"},
		{branch.ErrDetachedHead, "Check out a branch"},
		{fmt.Errorf("%w: x", review.ErrUnsupportedRemote), "origin remote"},
		{fmt.Errorf("%w: %w", workflow.ErrNotConfigured, config.ErrIncomplete), "nflow init"},
		{errors.New("network down"), ""},
	}
	for _, tt := range tests {
		got := hintFor(tt.err)
		if tt.want == "" {
			assert.Empty(t, got, "hintFor(%v)", tt.err)
			continue
		}
		assert.Contains(t, got, tt.want, "hintFor(%v)", tt.err)
	}
}

func TestParseDatabaseID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0123456789abcdef0123456789abcdef", "0123456789abcdef0123456789abcdef"},
		{"01234567-89ab-cdef-0123-456789abcdef", "0123456789abcdef0123456789abcdef"},
		{"https://www.notion.so/acme/Tickets-0123456789abcdef0123456789abcdef?v=fedcba9876543210fedcba9876543210", "0123456789abcdef0123456789abcdef"},
		{"  not-an-id  ", "not-an-id"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseDatabaseID(tt.in), "parseDatabaseID(%q)", tt.in)
	}
}

func TestInitValidators(t *testing.T) {
	assert.NoError(t, validatePrefix("ABC"))
	assert.Error(t, validatePrefix("AB1"))
	assert.Error(t, validatePrefix(""))
	assert.NoError(t, validateDatabaseRef("0123456789abcdef0123456789abcdef"))
	assert.Error(t, validateDatabaseRef("tickets"))
	assert.Error(t, requireValue("   "))
}

func TestReporterQuietMode(t *testing.T) {
	var out, errOut bytes.Buffer
	r := &terminalReporter{out: &out, errOut: &errOut}

	debug.SetQuiet(true)
	t.Cleanup(func() { debug.SetQuiet(false) })

	r.Step("Push branch")
	r.Info("already open")
	r.Warn("pull failed")
	r.Success("done")

	assert.NotContains(t, out.String(), "Push branch")
	assert.NotContains(t, out.String(), "already open")
	assert.Contains(t, out.String(), "done")
	assert.Contains(t, errOut.String(), "pull failed")
}

func TestReporterSummary(t *testing.T) {
	var out bytes.Buffer
	r := &terminalReporter{out: &out, errOut: &out}

	r.Summary(&review.PullRequest{
		Number: 7,
		Title:  "ABC-12: Fix login",
		Head:   "feature/ABC-12_fix_login",
		Base:   "develop",
		Body:   "Ticket: ABC-12",
	}, review.CheckPending)

	got := out.String()
	assert.Contains(t, got, "#7 ABC-12: Fix login")
	assert.Contains(t, got, "feature/ABC-12_fix_login → develop")
	assert.Contains(t, got, "pending")
	assert.Contains(t, got, "unknown")
	assert.Contains(t, got, "Ticket: ABC-12")
}

func TestRenderSnapshot(t *testing.T) {
	mergeable := true
	var out bytes.Buffer
	renderSnapshot(&out, &workflow.Snapshot{
		Branch:      "feature/ABC-12_fix_login",
		TicketID:    "ABC-12",
		BranchState: branch.LocalAndRemote,
		Ticket:      &tickets.Ticket{ID: "ABC-12", Title: "Fix login", Status: tickets.StatusInReview, Type: "Bug"},
		PullRequest: &review.PullRequest{Number: 7, URL: "https://github.com/acme/app/pull/7", Mergeable: &mergeable},
		Checks:      review.CheckFailure,
	})

	got := out.String()
	for _, want := range []string{"local and remote", "ABC-12 Fix login", "In Review", "Bug", "#7", "failure", "yes", "refuse to merge"} {
		assert.Contains(t, got, want)
	}
}

func TestRenderSnapshotWithoutTicket(t *testing.T) {
	var out bytes.Buffer
	renderSnapshot(&out, &workflow.Snapshot{Branch: "develop", BranchState: branch.LocalOnly})
	assert.Contains(t, out.String(), "not a ticket branch")

	out.Reset()
	renderSnapshot(&out, &workflow.Snapshot{})
	assert.Contains(t, out.String(), "detached")
}

func TestShowConfigMasksTokens(t *testing.T) {
	var out bytes.Buffer
	showConfig(&out, "/home/u/.config/nflow/config.yaml",
		&config.Global{NotionToken: "secret_abcdefgh1234", GitHubToken: "ghp_zzzzzzzz9876", UserID: "u1", UserName: "Ada"},
		"/repo/.nflow/config.yaml",
		&config.Project{Project: "app", DatabaseID: "db1", TicketPrefix: "ABC", DevBranch: "develop"},
	)

	got := out.String()
	require.NotContains(t, got, "secret_abcdefgh1234")
	require.NotContains(t, got, "ghp_zzzzzzzz9876")
	assert.Contains(t, got, "1234")
	assert.Contains(t, got, "9876")
	assert.Contains(t, got, "Ada (u1)")
	assert.Contains(t, got, "db1")
	assert.True(t, strings.Contains(got, "develop"))
}

func TestShowConfigOutsideRepository(t *testing.T) {
	var out bytes.Buffer
	showConfig(&out, "/cfg", &config.Global{}, "", nil)
	assert.Contains(t, out.String(), "not in a git repository")
	assert.Contains(t, out.String(), "(not set)")
}
