package main

import (
	"context"
	"fmt"

	"github.com/nflow-dev/nflow/internal/branch"
	"github.com/nflow-dev/nflow/internal/config"
	"github.com/nflow-dev/nflow/internal/debug"
	"github.com/nflow-dev/nflow/internal/git"
	"github.com/nflow-dev/nflow/internal/github"
	"github.com/nflow-dev/nflow/internal/notion"
	"github.com/nflow-dev/nflow/internal/prompt"
	"github.com/nflow-dev/nflow/internal/review"
	"github.com/nflow-dev/nflow/internal/tickets"
	"github.com/nflow-dev/nflow/internal/workflow"
)

// session is what one command invocation needs: the working copy and
// both configuration scopes. Clients and gateways built from it live only
// as long as the command.
type session struct {
	repo    *git.Repo
	root    string
	global  *config.Global
	project *config.Project
}

// openRepo checks that the process runs inside a working copy.
func openRepo(ctx context.Context) (*git.Repo, string, error) {
	repo := git.Open("")
	if !repo.IsWorkingCopy(ctx) {
		return nil, "", workflow.ErrNotWorkingCopy
	}
	root, err := repo.Root(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", workflow.ErrNotWorkingCopy, err)
	}
	return repo, root, nil
}

// loadSession runs the shared preconditions: working copy, then both
// configuration scopes loaded and complete.
func loadSession(ctx context.Context) (*session, error) {
	repo, root, err := openRepo(ctx)
	if err != nil {
		return nil, err
	}

	global, err := config.LoadGlobal()
	if err != nil {
		return nil, fmt.Errorf("load global configuration: %w", err)
	}
	if err := global.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", workflow.ErrNotConfigured, err)
	}

	project, err := config.LoadProject(root)
	if err != nil {
		return nil, fmt.Errorf("load project configuration: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("%w: %s not found", workflow.ErrNotConfigured, config.ProjectPath(root))
	}
	if err := project.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", workflow.ErrNotConfigured, err)
	}

	debug.Logf("session: root=%s database=%s dev_branch=%s\n", root, project.DatabaseID, project.DevBranch)
	return &session{repo: repo, root: root, global: global, project: project}, nil
}

// githubClient binds a GitHub client to the repository behind origin.
func (s *session) githubClient(ctx context.Context) (*github.Client, error) {
	return githubClientFor(ctx, s.repo, s.global.GitHubToken)
}

func githubClientFor(ctx context.Context, repo *git.Repo, token string) (*github.Client, error) {
	remoteURL, err := repo.RemoteURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("read origin URL: %w", err)
	}
	owner, name, err := review.ParseRemote(remoteURL)
	if err != nil {
		return nil, err
	}
	debug.Logf("github: %s/%s\n", owner, name)
	return github.NewClient(token, owner, name), nil
}

// newWorkflow builds the orchestrator. The review gateway is only wired when
// withReviews is set, so start never needs a GitHub remote.
func (s *session) newWorkflow(ctx context.Context, withReviews bool) (*workflow.Workflow, error) {
	wf := &workflow.Workflow{
		Branches:  branch.NewResolver(s.repo),
		Tickets:   tickets.NewGateway(notion.NewClient(s.global.NotionToken), s.project.DatabaseID).WithPrefix(s.project.TicketPrefix),
		Prompt:    prompt.New(),
		Report:    newTerminalReporter(),
		DevBranch: s.project.DevBranch,
		UserID:    s.global.UserID,
	}
	if withReviews {
		gh, err := s.githubClient(ctx)
		if err != nil {
			return nil, err
		}
		wf.Reviews = review.NewGateway(gh, gh.Owner)
	}
	return wf, nil
}
