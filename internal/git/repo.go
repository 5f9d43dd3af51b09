// Package git wraps the git command line for a single working copy.
//
// Every method shells out to git and returns the trimmed output. Nothing is
// cached: branch lists and the current branch are read fresh on each call.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/nflow-dev/nflow/internal/debug"
)

// DefaultRemote is the remote all remote operations target.
const DefaultRemote = "origin"

// ErrNotRepository is returned when the directory is not inside a working copy.
var ErrNotRepository = errors.New("not a git repository")

// Repo is a git working copy rooted at (or below) Dir.
type Repo struct {
	Dir    string // Working directory for git commands; "" means the process cwd
	Remote string // Remote name (default: origin)
}

// Open returns a Repo for dir using the default remote.
func Open(dir string) *Repo {
	return &Repo{Dir: dir, Remote: DefaultRemote}
}

func (r *Repo) remote() string {
	if r.Remote == "" {
		return DefaultRemote
	}
	return r.Remote
}

// run executes git with args and returns trimmed stdout. On failure the
// error carries git's stderr so callers can surface it as-is.
func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := debug.Timed("git "+strings.Join(args, " "), cmd.Run); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", args[0], msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// IsWorkingCopy reports whether Dir is inside a git working tree.
func (r *Repo) IsWorkingCopy(ctx context.Context) bool {
	out, err := r.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Root returns the top-level directory of the working copy.
func (r *Repo) Root(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotRepository, err)
	}
	return out, nil
}

// CurrentBranch returns the checked-out branch, or "" when HEAD is detached.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	return r.run(ctx, "branch", "--show-current")
}

// LocalBranches lists the short names of all local branches.
func (r *Repo) LocalBranches(ctx context.Context) ([]string, error) {
	out, err := r.run(ctx, "for-each-ref", "--format=%(refname:short)", "refs/heads")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// RemoteBranches lists the branches known for the remote, without the
// "origin/" prefix. The symbolic HEAD ref is skipped.
func (r *Repo) RemoteBranches(ctx context.Context) ([]string, error) {
	remote := r.remote()
	out, err := r.run(ctx, "for-each-ref", "--format=%(refname:short)", "refs/remotes/"+remote)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, ref := range splitLines(out) {
		name := strings.TrimPrefix(ref, remote+"/")
		if name == "HEAD" || name == remote {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Fetch updates remote-tracking refs and prunes deleted ones.
func (r *Repo) Fetch(ctx context.Context) error {
	_, err := r.run(ctx, "fetch", "--prune", r.remote())
	return err
}

// Checkout switches to an existing local branch.
func (r *Repo) Checkout(ctx context.Context, name string) error {
	_, err := r.run(ctx, "checkout", name)
	return err
}

// CheckoutNew creates name at HEAD and switches to it.
func (r *Repo) CheckoutNew(ctx context.Context, name string) error {
	_, err := r.run(ctx, "checkout", "-b", name)
	return err
}

// CheckoutTracking creates a local branch tracking the remote branch of
// the same name and switches to it.
func (r *Repo) CheckoutTracking(ctx context.Context, name string) error {
	_, err := r.run(ctx, "checkout", "--track", "-b", name, r.remote()+"/"+name)
	return err
}

// Pull fetches and integrates the upstream of the current branch.
func (r *Repo) Pull(ctx context.Context) error {
	_, err := r.run(ctx, "pull")
	return err
}

// PushUpstream pushes name to the remote and sets it as upstream.
func (r *Repo) PushUpstream(ctx context.Context, name string) error {
	_, err := r.run(ctx, "push", "--set-upstream", r.remote(), name)
	return err
}

// DeleteLocal force-deletes a local branch.
func (r *Repo) DeleteLocal(ctx context.Context, name string) error {
	_, err := r.run(ctx, "branch", "-D", name)
	return err
}

// DeleteRemote deletes name on the remote.
func (r *Repo) DeleteRemote(ctx context.Context, name string) error {
	_, err := r.run(ctx, "push", r.remote(), "--delete", name)
	return err
}

// RemoteURL returns the fetch URL of the remote.
func (r *Repo) RemoteURL(ctx context.Context) (string, error) {
	return r.run(ctx, "remote", "get-url", r.remote())
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
