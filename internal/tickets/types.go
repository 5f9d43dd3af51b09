// Package tickets is the ticket lifecycle gateway: it reads and
// transitions tickets stored in a Notion database, correlated by their
// external identifier (PREFIX-NUMBER).
package tickets

import (
	"errors"
	"strings"
)

// Status is the lifecycle state of a ticket. The set is closed; values
// the tracker reports outside it read as StatusUnknown.
type Status string

const (
	StatusBacklog    Status = "Backlog"
	StatusInProgress Status = "In Progress"
	StatusInReview   Status = "In Review"
	StatusDone       Status = "Done"
	StatusUnknown    Status = "Unknown"
)

// knownStatuses lists the writable statuses.
var knownStatuses = []Status{StatusBacklog, StatusInProgress, StatusInReview, StatusDone}

// ParseStatus maps a tracker option name onto a Status, ignoring case and
// surrounding whitespace.
func ParseStatus(name string) Status {
	name = strings.TrimSpace(name)
	for _, s := range knownStatuses {
		if strings.EqualFold(name, string(s)) {
			return s
		}
	}
	return StatusUnknown
}

// UntitledTitle is used for pages without a title.
const UntitledTitle = "Untitled"

// Ticket is one unit of work as seen by the workflow.
type Ticket struct {
	ID          string   // External identifier, e.g. "ABC-12"
	PageID      string   // Tracker-internal page id used for writes
	Title       string   // Never empty; UntitledTitle when missing
	Status      Status   // StatusUnknown for unrecognized values
	Type        string   // Free-text category, "" when unset
	TypeColor   string   // Tracker color of the type option, "" when unset
	PullRequest string   // Linked pull request URL, "" when unset
	AssigneeIDs []string // Tracker user ids
	URL         string   // Link to the ticket page
}

// IsAssignedTo reports whether userID is among the assignees.
func (t *Ticket) IsAssignedTo(userID string) bool {
	for _, id := range t.AssigneeIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// User is a human workspace member.
type User struct {
	ID    string
	Name  string
	Email string
}

var (
	// ErrFieldMissing means the database has no property for a logical field.
	ErrFieldMissing = errors.New("database has no matching property")

	// ErrUnsupportedField means the property exists but has a type that
	// cannot hold the value.
	ErrUnsupportedField = errors.New("property type not supported")

	// ErrNotApplied means a write was accepted but the page does not read
	// back with the written value.
	ErrNotApplied = errors.New("change not applied")
)
