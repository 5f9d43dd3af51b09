package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nflow-dev/nflow/internal/branch"
	"github.com/nflow-dev/nflow/internal/config"
	"github.com/nflow-dev/nflow/internal/prompt"
	"github.com/nflow-dev/nflow/internal/review"
	"github.com/nflow-dev/nflow/internal/workflow"
)

// FatalError writes an error message to stderr and exits with code 1.
// Use this for failures that prevent the command from completing.
func FatalError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	shutdown()
	os.Exit(1)
}

// FatalErrorWithHint writes an error message with a hint to stderr and exits.
//
// Example:
//
//	FatalErrorWithHint("not configured", "Run 'nflow init' in the repository")
func FatalErrorWithHint(message, hint string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	shutdown()
	os.Exit(1)
}

// WarnError writes a warning message to stderr and returns.
// Use this for best-effort steps whose failure the user should know about.
func WarnError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}

// hints maps precondition failures to the action that resolves them.
var hints = []struct {
	target error
	hint   string
}{
	{workflow.ErrNotWorkingCopy, "Run nflow inside a git repository"},
	{workflow.ErrNotConfigured, "Run 'nflow init' in the repository root"},
	{config.ErrIncomplete, "Run 'nflow init' or set NFLOW_NOTION_TOKEN and NFLOW_GITHUB_TOKEN"},
	{workflow.ErrNoTicketID, "Check out a ticket branch such as feature/ABC-12_description, or run 'nflow start'"},
	{workflow.ErrNoPullRequest, "Run 'nflow review' to open the pull request first"},
	{workflow.ErrNotMergeable, "Resolve conflicts or branch protection requirements on GitHub, then retry"},
	{workflow.ErrChecksFailed, "Fix the failing checks, push, and run 'nflow finish' again"},
	{workflow.ErrNoCandidates, "Move a ticket to Backlog or In Progress in Notion"},
	{branch.ErrDetachedHead, "Check out a branch before running this command"},
	{review.ErrUnsupportedRemote, "Point the origin remote at a GitHub owner/repo URL"},
	{prompt.ErrNoTerminal, "Run the command from an interactive terminal"},
}

// hintFor returns the hint for err, or "" when none applies.
func hintFor(err error) string {
	for _, h := range hints {
		if errors.Is(err, h.target) {
			return h.hint
		}
	}
	return ""
}

// exitOnError reports err and exits; it returns when err is nil.
func exitOnError(err error) {
	if err == nil {
		return
	}
	if hint := hintFor(err); hint != "" {
		FatalErrorWithHint(err.Error(), hint)
	}
	FatalError("%v", err)
}
