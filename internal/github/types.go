// Package github provides client and data types for the GitHub REST API.
//
// The client covers the pull request side of the workflow: opening,
// inspecting and squash-merging pull requests, reading commit statuses and
// check runs, and labelling and assigning the resulting issue.
package github

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// API configuration constants.
const (
	// DefaultAPIEndpoint is the GitHub REST API base URL.
	DefaultAPIEndpoint = "https://api.github.com"

	// APIVersion is sent as X-GitHub-Api-Version.
	APIVersion = "2022-11-28"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxPageSize is the maximum number of items to fetch per page.
	MaxPageSize = 100

	// MaxPages is the maximum number of pages to fetch before stopping.
	// This prevents infinite loops from malformed Link headers.
	MaxPages = 1000
)

// Merge methods accepted by the merge endpoint.
const (
	MergeMethodMerge  = "merge"
	MergeMethodSquash = "squash"
	MergeMethodRebase = "rebase"
)

// Client provides methods to interact with the GitHub REST API.
type Client struct {
	Token      string       // GitHub personal access token
	Owner      string       // Repository owner (user or org)
	Repo       string       // Repository name
	BaseURL    string       // API base URL (default: https://api.github.com)
	HTTPClient *http.Client // Optional custom HTTP client
}

// APIError is a non-2xx response from GitHub.
type APIError struct {
	StatusCode int
	Message    string // "message" field of the error payload, or the raw body
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s (status %d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether err is a GitHub 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// PullRequest represents a pull request from the GitHub API.
type PullRequest struct {
	ID             int        `json:"id"`
	Number         int        `json:"number"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	State          string     `json:"state"` // "open" or "closed"
	HTMLURL        string     `json:"html_url"`
	Head           Ref        `json:"head"`
	Base           Ref        `json:"base"`
	Merged         bool       `json:"merged"`
	Mergeable      *bool      `json:"mergeable"` // null while GitHub computes it
	MergeableState string     `json:"mergeable_state,omitempty"`
	User           *User      `json:"user,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	MergedAt       *time.Time `json:"merged_at,omitempty"`
}

// Ref is one end of a pull request.
type Ref struct {
	Label string `json:"label"` // "owner:branch"
	Ref   string `json:"ref"`
	SHA   string `json:"sha"`
}

// NewPullRequest is the payload for creating a pull request.
type NewPullRequest struct {
	Title string `json:"title"`
	Head  string `json:"head"`
	Base  string `json:"base"`
	Body  string `json:"body,omitempty"`
}

// MergeResult is the response of a successful merge.
type MergeResult struct {
	SHA     string `json:"sha"`
	Merged  bool   `json:"merged"`
	Message string `json:"message"`
}

// Commit is an entry of a pull request's commit list.
type Commit struct {
	SHA    string       `json:"sha"`
	Commit CommitDetail `json:"commit"`
}

// CommitDetail holds the git-level data of a commit.
type CommitDetail struct {
	Message string `json:"message"`
}

// CombinedStatus is the legacy commit status rollup for a ref.
type CombinedStatus struct {
	State      string         `json:"state"` // "success", "pending", "failure" or "error"
	TotalCount int            `json:"total_count"`
	Statuses   []CommitStatus `json:"statuses"`
}

// CommitStatus is one legacy status context.
type CommitStatus struct {
	Context     string `json:"context"`
	State       string `json:"state"`
	Description string `json:"description,omitempty"`
}

// CheckRun is one check of the checks API.
type CheckRun struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`     // "queued", "in_progress" or "completed"
	Conclusion string `json:"conclusion"` // empty until completed
}

// checkRunList is the envelope of the check-runs endpoint.
type checkRunList struct {
	TotalCount int        `json:"total_count"`
	CheckRuns  []CheckRun `json:"check_runs"`
}

// User represents a GitHub user.
type User struct {
	ID      int    `json:"id"`
	Login   string `json:"login"`
	Name    string `json:"name,omitempty"`
	HTMLURL string `json:"html_url,omitempty"`
}

// Label represents a GitHub label.
type Label struct {
	ID          int    `json:"id,omitempty"`
	Name        string `json:"name"`
	Color       string `json:"color"` // six hex digits without "#"
	Description string `json:"description,omitempty"`
}

// LabelNames extracts label name strings from a slice of Label structs.
func LabelNames(labels []Label) []string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}
	return names
}
