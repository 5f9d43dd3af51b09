// Package review maps the pull request side of a unit of work onto the
// code host: finding or opening the pull request for a branch, reading
// its mergeability and aggregated checks, squash-merging it, and the
// labelling and assignment that go with opening it.
package review

import "github.com/nflow-dev/nflow/internal/github"

// CheckState is the aggregated verdict of all checks on a commit.
type CheckState string

// CheckState values.
const (
	CheckSuccess CheckState = "success"
	CheckPending CheckState = "pending"
	CheckFailure CheckState = "failure"
	CheckError   CheckState = "error"
)

// Blocking reports whether the state forbids merging.
func (s CheckState) Blocking() bool {
	return s == CheckFailure || s == CheckError
}

// PullRequest is the part of a code-host pull request the workflow uses.
type PullRequest struct {
	Number    int
	Title     string
	Body      string
	Head      string
	Base      string
	HeadSHA   string
	URL       string
	Mergeable *bool // nil while the host has not computed it yet
	Merged    bool
}

func fromGitHub(pr *github.PullRequest) *PullRequest {
	return &PullRequest{
		Number:    pr.Number,
		Title:     pr.Title,
		Body:      pr.Body,
		Head:      pr.Head.Ref,
		Base:      pr.Base.Ref,
		HeadSHA:   pr.Head.SHA,
		URL:       pr.HTMLURL,
		Mergeable: pr.Mergeable,
		Merged:    pr.Merged,
	}
}

// labelColors translates Notion option colors to GitHub label colors.
var labelColors = map[string]string{
	"default": "ededed",
	"gray":    "9b9a97",
	"brown":   "937264",
	"orange":  "ffa344",
	"yellow":  "ffdc49",
	"green":   "4dab9a",
	"blue":    "529cca",
	"purple":  "9a6dd7",
	"pink":    "e255a1",
	"red":     "ff7369",
}

// DefaultLabelColor is used for unknown or missing tracker colors.
const DefaultLabelColor = "ededed"

// LabelColor returns the hex label color for a tracker color name.
func LabelColor(trackerColor string) string {
	if c, ok := labelColors[trackerColor]; ok {
		return c
	}
	return DefaultLabelColor
}
