package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nflow-dev/nflow/internal/debug"
	"github.com/nflow-dev/nflow/internal/github"
)

// ErrNotMerged is returned when the host accepts a merge request but
// reports the pull request as still unmerged.
var ErrNotMerged = errors.New("pull request was not merged")

// Client is the subset of the GitHub client the gateway uses.
// *github.Client satisfies it.
type Client interface {
	ListPulls(ctx context.Context, head, base string) ([]github.PullRequest, error)
	CreatePull(ctx context.Context, pr github.NewPullRequest) (*github.PullRequest, error)
	GetPull(ctx context.Context, number int) (*github.PullRequest, error)
	MergePull(ctx context.Context, number int, title, message, method string) (*github.MergeResult, error)
	ListPullCommits(ctx context.Context, number int) ([]github.Commit, error)
	CombinedStatus(ctx context.Context, ref string) (*github.CombinedStatus, error)
	CheckRuns(ctx context.Context, ref string) ([]github.CheckRun, error)
	GetLabel(ctx context.Context, name string) (*github.Label, error)
	CreateLabel(ctx context.Context, label github.Label) (*github.Label, error)
	AddLabels(ctx context.Context, number int, labels []string) ([]github.Label, error)
	AddAssignees(ctx context.Context, number int, logins []string) error
	AuthenticatedUser(ctx context.Context) (*github.User, error)
}

// Gateway handles pull requests of one repository for a single command
// invocation.
type Gateway struct {
	client Client
	owner  string
}

// NewGateway creates a gateway. owner qualifies head branches in lookups.
func NewGateway(client Client, owner string) *Gateway {
	return &Gateway{client: client, owner: owner}
}

// FindExisting returns the open pull request from head into base, or nil
// when there is none.
func (g *Gateway) FindExisting(ctx context.Context, head, base string) (*PullRequest, error) {
	pulls, err := g.client.ListPulls(ctx, g.owner+":"+head, base)
	if err != nil {
		return nil, fmt.Errorf("look up pull request for %s: %w", head, err)
	}
	for i := range pulls {
		if pulls[i].Head.Ref == head && pulls[i].Base.Ref == base {
			return fromGitHub(&pulls[i]), nil
		}
	}
	return nil, nil
}

// Create opens a pull request from head into base.
func (g *Gateway) Create(ctx context.Context, head, base, title, body string) (*PullRequest, error) {
	pr, err := g.client.CreatePull(ctx, github.NewPullRequest{
		Title: title,
		Head:  head,
		Base:  base,
		Body:  body,
	})
	if err != nil {
		return nil, fmt.Errorf("open pull request %s -> %s: %w", head, base, err)
	}
	return fromGitHub(pr), nil
}

// Details re-reads a pull request. Mergeable stays nil while the host is
// still computing it.
func (g *Gateway) Details(ctx context.Context, number int) (*PullRequest, error) {
	pr, err := g.client.GetPull(ctx, number)
	if err != nil {
		return nil, err
	}
	return fromGitHub(pr), nil
}

// AggregatedStatus combines check runs and legacy commit statuses of sha
// into one verdict. Check runs take precedence; the legacy rollup is only
// consulted when no check run exists.
func (g *Gateway) AggregatedStatus(ctx context.Context, sha string) (CheckState, error) {
	runs, err := g.client.CheckRuns(ctx, sha)
	if err != nil {
		return "", fmt.Errorf("read checks of %s: %w", sha, err)
	}
	if len(runs) > 0 {
		return aggregateRuns(runs), nil
	}

	combined, err := g.client.CombinedStatus(ctx, sha)
	if err != nil {
		return "", fmt.Errorf("read status of %s: %w", sha, err)
	}
	return legacyState(combined), nil
}

func aggregateRuns(runs []github.CheckRun) CheckState {
	pending := false
	for _, r := range runs {
		switch r.Conclusion {
		case "failure", "cancelled", "timed_out":
			return CheckFailure
		case "":
			pending = true
		}
		if r.Status == "queued" || r.Status == "in_progress" {
			pending = true
		}
	}
	if pending {
		return CheckPending
	}
	return CheckSuccess
}

func legacyState(s *github.CombinedStatus) CheckState {
	if s == nil || (s.TotalCount == 0 && len(s.Statuses) == 0) {
		return CheckSuccess
	}
	switch s.State {
	case "success":
		return CheckSuccess
	case "failure":
		return CheckFailure
	case "error":
		return CheckError
	default:
		return CheckPending
	}
}

// Merge squash-merges a pull request with the given commit title and body.
func (g *Gateway) Merge(ctx context.Context, number int, title, body string) error {
	result, err := g.client.MergePull(ctx, number, title, body, github.MergeMethodSquash)
	if err != nil {
		return fmt.Errorf("merge #%d: %w", number, err)
	}
	if !result.Merged {
		return fmt.Errorf("merge #%d: %w: %s", number, ErrNotMerged, result.Message)
	}
	return nil
}

// CommitMessages returns the subject line of every commit of a pull
// request, skipping commits with a blank message.
func (g *Gateway) CommitMessages(ctx context.Context, number int) ([]string, error) {
	commits, err := g.client.ListPullCommits(ctx, number)
	if err != nil {
		return nil, err
	}
	var msgs []string
	for _, c := range commits {
		subject, _, _ := strings.Cut(strings.TrimSpace(c.Commit.Message), "\n")
		if subject = strings.TrimSpace(subject); subject != "" {
			msgs = append(msgs, subject)
		}
	}
	return msgs, nil
}

// EnsureLabel creates the label name unless it already exists. The color
// is translated from the tracker color of the matching option.
func (g *Gateway) EnsureLabel(ctx context.Context, name, trackerColor string) error {
	_, err := g.client.GetLabel(ctx, name)
	if err == nil {
		return nil
	}
	if !github.IsNotFound(err) {
		return err
	}
	_, err = g.client.CreateLabel(ctx, github.Label{Name: name, Color: LabelColor(trackerColor)})
	return err
}

// AddLabels attaches labels to a pull request.
func (g *Gateway) AddLabels(ctx context.Context, number int, labels ...string) error {
	applied, err := g.client.AddLabels(ctx, number, labels)
	if err != nil {
		return fmt.Errorf("label #%d: %w", number, err)
	}
	debug.Logf("labels on #%d: %v\n", number, github.LabelNames(applied))
	return nil
}

// AssignSelf assigns the pull request to the authenticated user and
// returns their login.
func (g *Gateway) AssignSelf(ctx context.Context, number int) (string, error) {
	user, err := g.client.AuthenticatedUser(ctx)
	if err != nil {
		return "", err
	}
	if err := g.client.AddAssignees(ctx, number, []string{user.Login}); err != nil {
		return "", err
	}
	return user.Login, nil
}
