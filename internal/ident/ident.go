// Package ident maps between ticket identifiers, branch names and the
// sanitized descriptions embedded in them. Everything here is pure.
package ident

import (
	"regexp"
	"strings"
)

// Category is the leading path segment of a work branch.
type Category string

// Branch categories.
const (
	Feature Category = "feature"
	Bugfix  Category = "bugfix"
	Doc     Category = "doc"
)

// Length limits for Sanitize.
const (
	// MaxDescriptionLen bounds descriptions typed by the user.
	MaxDescriptionLen = 50

	// MaxSuggestionLen bounds descriptions derived from a ticket title.
	MaxSuggestionLen = 30
)

// categoryKeywords is matched case-insensitively as a substring of the
// ticket type. Order only matters for readability; a type matching more
// than one category falls back to Feature.
var categoryKeywords = []struct {
	keyword  string
	category Category
}{
	{"bug", Bugfix},
	{"documentation", Doc},
	{"dokumentation", Doc},
}

// DerivePrefix maps a free-text ticket type onto a branch category.
// Unknown, empty and ambiguous types map to Feature.
func DerivePrefix(ticketType string) Category {
	lower := strings.ToLower(ticketType)
	if lower == "" {
		return Feature
	}

	var found Category
	for _, kw := range categoryKeywords {
		if !strings.Contains(lower, kw.keyword) {
			continue
		}
		if found != "" && found != kw.category {
			return Feature
		}
		found = kw.category
	}
	if found == "" {
		return Feature
	}
	return found
}

var (
	// disallowedRegex matches everything that may not appear in a token.
	// Underscore is kept so that sanitizing a token is a no-op.
	disallowedRegex = regexp.MustCompile(`[^a-z0-9 _]+`)

	// separatorRegex matches runs of spaces and underscores.
	separatorRegex = regexp.MustCompile(`[ _]+`)
)

// Sanitize turns free text into a branch-safe token of at most max bytes:
// lower case, [a-z0-9_] only, no leading, trailing or doubled underscores.
func Sanitize(text string, max int) string {
	s := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	s = disallowedRegex.ReplaceAllString(s, "")
	s = separatorRegex.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if max >= 0 && len(s) > max {
		s = strings.TrimRight(s[:max], "_")
	}
	return s
}

// Suggest derives a default branch description from a ticket title.
func Suggest(title string) string {
	return Sanitize(title, MaxSuggestionLen)
}

// BranchName composes "{category}/{ticketID}_{description}".
func BranchName(cat Category, ticketID, description string) string {
	return string(cat) + "/" + ticketID + "_" + description
}

// ticketIDRegex requires the identifier to sit directly between a slash
// and the next underscore.
var ticketIDRegex = regexp.MustCompile(`/([A-Za-z]+-[0-9]+)_`)

// ExtractTicketID recovers the ticket identifier embedded in a branch
// name such as "feature/ABC-12_fix_login".
func ExtractTicketID(branch string) (string, bool) {
	m := ticketIDRegex.FindStringSubmatch(branch)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsTicketID reports whether s has the PREFIX-NUMBER shape.
func IsTicketID(s string) bool {
	return ticketIDShape.MatchString(s)
}

var ticketIDShape = regexp.MustCompile(`^[A-Za-z]+-[0-9]+$`)
