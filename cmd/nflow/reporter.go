package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nflow-dev/nflow/internal/debug"
	"github.com/nflow-dev/nflow/internal/review"
	"github.com/nflow-dev/nflow/internal/ui"
)

// terminalReporter prints workflow progress. Steps and info lines are
// dropped in quiet mode; warnings always go to stderr.
type terminalReporter struct {
	out    io.Writer
	errOut io.Writer
}

func newTerminalReporter() *terminalReporter {
	return &terminalReporter{out: os.Stdout, errOut: os.Stderr}
}

func (r *terminalReporter) Step(name string) {
	if debug.IsQuiet() {
		return
	}
	fmt.Fprintf(r.out, "%s %s\n", ui.RenderStepIcon(), name)
}

func (r *terminalReporter) Info(msg string) {
	if debug.IsQuiet() {
		return
	}
	fmt.Fprintf(r.out, "%s %s\n", ui.RenderInfoIcon(), msg)
}

func (r *terminalReporter) Warn(msg string) {
	fmt.Fprintf(r.errOut, "%s %s\n", ui.RenderWarnIcon(), ui.RenderWarn(msg))
}

func (r *terminalReporter) Success(msg string) {
	fmt.Fprintf(r.out, "%s %s\n", ui.RenderPassIcon(), msg)
}

// Summary shows the pull request about to be merged.
func (r *terminalReporter) Summary(pr *review.PullRequest, checks review.CheckState) {
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "%s\n", ui.RenderAccent(fmt.Sprintf("#%d %s", pr.Number, pr.Title)))
	fmt.Fprintln(r.out, ui.RenderKeyValue("Branch", pr.Head+" → "+pr.Base))
	fmt.Fprintln(r.out, ui.RenderKeyValue("Checks", ui.RenderState(string(checks))))
	fmt.Fprintln(r.out, ui.RenderKeyValue("Mergeable", mergeableText(pr.Mergeable)))
	if pr.URL != "" {
		fmt.Fprintln(r.out, ui.RenderKeyValue("URL", pr.URL))
	}
	if body := strings.TrimSpace(pr.Body); body != "" {
		fmt.Fprintln(r.out, ui.RenderSeparator())
		rendered := ui.RenderMarkdown(body)
		fmt.Fprint(r.out, rendered)
		if !strings.HasSuffix(rendered, "\n") {
			fmt.Fprintln(r.out)
		}
	}
	fmt.Fprintln(r.out)
}

func mergeableText(m *bool) string {
	switch {
	case m == nil:
		return ui.RenderMuted("unknown (still computing)")
	case *m:
		return ui.RenderPass("yes")
	default:
		return ui.RenderFail("no")
	}
}
