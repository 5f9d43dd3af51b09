// Package branch resolves work branches for tickets and applies the
// create/switch/sync/delete policy on top of a git working copy.
package branch

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/nflow-dev/nflow/internal/debug"
)

var (
	// ErrBranchNotFound means the branch exists neither locally nor on the remote.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrDetachedHead means no branch is checked out.
	ErrDetachedHead = errors.New("no branch checked out (detached HEAD)")
)

// State is where a branch exists.
type State int

const (
	Absent State = iota
	LocalOnly
	RemoteOnly
	LocalAndRemote
)

func (s State) String() string {
	switch s {
	case LocalOnly:
		return "local only"
	case RemoteOnly:
		return "remote only"
	case LocalAndRemote:
		return "local and remote"
	default:
		return "absent"
	}
}

// Git is the subset of the version-control wrapper the resolver drives.
// *git.Repo satisfies it.
type Git interface {
	CurrentBranch(ctx context.Context) (string, error)
	LocalBranches(ctx context.Context) ([]string, error)
	RemoteBranches(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context) error
	Checkout(ctx context.Context, name string) error
	CheckoutNew(ctx context.Context, name string) error
	CheckoutTracking(ctx context.Context, name string) error
	Pull(ctx context.Context) error
	PushUpstream(ctx context.Context, name string) error
	DeleteLocal(ctx context.Context, name string) error
	DeleteRemote(ctx context.Context, name string) error
}

// Resolver answers branch questions by asking git every time.
type Resolver struct {
	git Git
}

// NewResolver creates a resolver over g.
func NewResolver(g Git) *Resolver {
	return &Resolver{git: g}
}

// Current returns the checked-out branch or "" when detached.
func (r *Resolver) Current(ctx context.Context) (string, error) {
	return r.git.CurrentBranch(ctx)
}

// names lists local then remote branch names, deduplicated in
// first-seen order.
func (r *Resolver) names(ctx context.Context) (local, remote map[string]bool, ordered []string, err error) {
	localNames, err := r.git.LocalBranches(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list local branches: %w", err)
	}
	remoteNames, err := r.git.RemoteBranches(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list remote branches: %w", err)
	}

	local = make(map[string]bool, len(localNames))
	remote = make(map[string]bool, len(remoteNames))
	seen := make(map[string]bool, len(localNames)+len(remoteNames))
	for _, n := range localNames {
		local[n] = true
		if !seen[n] {
			seen[n] = true
			ordered = append(ordered, n)
		}
	}
	for _, n := range remoteNames {
		remote[n] = true
		if !seen[n] {
			seen[n] = true
			ordered = append(ordered, n)
		}
	}
	return local, remote, ordered, nil
}

// FindByTicketID returns the first branch whose name contains "{id}_".
// Several matching branches are not disambiguated: the first local one
// wins, then the first remote one.
func (r *Resolver) FindByTicketID(ctx context.Context, id string) (string, bool, error) {
	if err := r.git.Fetch(ctx); err != nil {
		// Remote-only branches may be missed; local lookup still works.
		debug.Logf("fetch before branch lookup failed: %v\n", err)
	}

	_, _, ordered, err := r.names(ctx)
	if err != nil {
		return "", false, err
	}

	pattern, err := regexp.Compile(regexp.QuoteMeta(id) + "_")
	if err != nil {
		return "", false, fmt.Errorf("invalid ticket id %q: %w", id, err)
	}
	for _, name := range ordered {
		if pattern.MatchString(name) {
			return name, true, nil
		}
	}
	return "", false, nil
}

// StateOf reports where name exists.
func (r *Resolver) StateOf(ctx context.Context, name string) (State, error) {
	local, remote, _, err := r.names(ctx)
	if err != nil {
		return Absent, err
	}
	switch {
	case local[name] && remote[name]:
		return LocalAndRemote, nil
	case local[name]:
		return LocalOnly, nil
	case remote[name]:
		return RemoteOnly, nil
	default:
		return Absent, nil
	}
}

// SwitchTo checks out name, creating a tracking branch when it only
// exists on the remote.
func (r *Resolver) SwitchTo(ctx context.Context, name string) error {
	state, err := r.StateOf(ctx, name)
	if err != nil {
		return err
	}
	switch state {
	case LocalOnly, LocalAndRemote:
		if err := r.git.Checkout(ctx, name); err != nil {
			return fmt.Errorf("checkout %s: %w", name, err)
		}
	case RemoteOnly:
		if err := r.git.CheckoutTracking(ctx, name); err != nil {
			return fmt.Errorf("track remote branch %s: %w", name, err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrBranchNotFound, name)
	}
	return nil
}

// CreateFrom forks newName from the freshly pulled base and checks it out.
func (r *Resolver) CreateFrom(ctx context.Context, newName, base string) error {
	if err := r.SwitchTo(ctx, base); err != nil {
		return fmt.Errorf("switch to base branch %s: %w", base, err)
	}
	if err := r.git.Pull(ctx); err != nil {
		return fmt.Errorf("pull base branch %s: %w", base, err)
	}
	if err := r.git.CheckoutNew(ctx, newName); err != nil {
		return fmt.Errorf("create branch %s: %w", newName, err)
	}
	return nil
}

// Publish pushes name and sets its upstream.
func (r *Resolver) Publish(ctx context.Context, name string) error {
	if err := r.git.PushUpstream(ctx, name); err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}
	return nil
}

// Pull updates the current branch from its upstream.
func (r *Resolver) Pull(ctx context.Context) error {
	if err := r.git.Pull(ctx); err != nil {
		return fmt.Errorf("pull: %w", err)
	}
	return nil
}

// PushCurrent pushes the checked-out branch. A branch without upstream
// is published with upstream tracking.
func (r *Resolver) PushCurrent(ctx context.Context) error {
	cur, err := r.git.CurrentBranch(ctx)
	if err != nil {
		return fmt.Errorf("read current branch: %w", err)
	}
	if cur == "" {
		return ErrDetachedHead
	}
	if err := r.git.PushUpstream(ctx, cur); err != nil {
		return fmt.Errorf("push %s: %w", cur, err)
	}
	return nil
}

// DeleteResult carries the outcome of each half of DeleteEverywhere.
type DeleteResult struct {
	Remote error
	Local  error
}

// Err joins both halves; nil when both succeeded.
func (d DeleteResult) Err() error {
	return errors.Join(d.Remote, d.Local)
}

// DeleteEverywhere deletes name on the remote, then force-deletes it
// locally. The local half runs regardless of the remote outcome.
func (r *Resolver) DeleteEverywhere(ctx context.Context, name string) DeleteResult {
	var res DeleteResult
	if err := r.git.DeleteRemote(ctx, name); err != nil {
		res.Remote = fmt.Errorf("delete remote branch %s: %w", name, err)
	}
	if err := r.git.DeleteLocal(ctx, name); err != nil {
		res.Local = fmt.Errorf("delete local branch %s: %w", name, err)
	}
	return res
}
