package tickets

import (
	"strings"

	"github.com/nflow-dev/nflow/internal/notion"
)

// field is a logical ticket field stored under a localizable property name.
type field int

const (
	fieldStatus field = iota
	fieldType
	fieldPullRequest
	fieldAssignee
)

func (f field) String() string {
	switch f {
	case fieldStatus:
		return "status"
	case fieldType:
		return "type"
	case fieldPullRequest:
		return "pull request"
	case fieldAssignee:
		return "assignee"
	default:
		return "unknown"
	}
}

// fieldAliases lists accepted property names per logical field, in
// preference order. Matching ignores case.
var fieldAliases = map[field][]string{
	fieldStatus:      {"Status", "Stand", "Zustand"},
	fieldType:        {"Type", "Typ", "Category", "Kategorie", "Art"},
	fieldPullRequest: {"Pull Request", "PR", "GitHub PR", "Development", "Entwicklung"},
	fieldAssignee:    {"Assignee", "Assignees", "Assigned", "Zugewiesen", "Zuständig", "Person"},
}

// fieldTypes lists the property types each field can be read from and
// written to.
var fieldTypes = map[field][]string{
	fieldStatus:      {notion.TypeStatus, notion.TypeSelect},
	fieldType:        {notion.TypeSelect, notion.TypeStatus, notion.TypeRichText},
	fieldPullRequest: {notion.TypeURL, notion.TypeRichText},
	fieldAssignee:    {notion.TypePeople},
}

// column is a resolved database property.
type column struct {
	Name    string
	Type    string
	Options []notion.Option
}

func (c column) ok() bool { return c.Name != "" }

// optionFor returns the database's own spelling of status, or the
// canonical name when the column lists no matching option.
func (c column) optionFor(status Status) string {
	for _, o := range c.Options {
		if ParseStatus(o.Name) == status {
			return o.Name
		}
	}
	return string(status)
}

// schema is the database layout resolved once per gateway.
type schema struct {
	columns map[field]column
	prefix  string // unique_id prefix, "" when the database has none
}

func resolveSchema(db *notion.Database) *schema {
	s := &schema{columns: make(map[field]column)}

	for _, p := range db.Properties {
		if p.Type == notion.TypeUniqueID {
			s.prefix = p.Prefix
			break
		}
	}

	for f, aliases := range fieldAliases {
		for _, alias := range aliases {
			if col, ok := lookupColumn(db, alias, fieldTypes[f]); ok {
				s.columns[f] = col
				break
			}
		}
	}
	return s
}

func lookupColumn(db *notion.Database, alias string, types []string) (column, bool) {
	for key, p := range db.Properties {
		if !strings.EqualFold(key, alias) {
			continue
		}
		for _, t := range types {
			if p.Type == t {
				return column{Name: key, Type: p.Type, Options: p.Options}, true
			}
		}
	}
	return column{}, false
}

// optionColor returns the tracker color of the named option of f.
func (s *schema) optionColor(f field, name string) string {
	for _, o := range s.columns[f].Options {
		if strings.EqualFold(o.Name, name) {
			return o.Color
		}
	}
	return ""
}

// ticketFromPage decodes the strongly typed ticket from a page. Missing
// data falls back to defaults rather than failing.
func ticketFromPage(page notion.Page, s *schema) Ticket {
	t := Ticket{
		PageID: page.ID,
		URL:    page.URL,
		Title:  UntitledTitle,
		Status: StatusUnknown,
	}

	for _, prop := range page.Properties {
		switch v := prop.(type) {
		case notion.Title:
			if text := strings.TrimSpace(v.Text); text != "" {
				t.Title = text
			}
		case notion.UniqueID:
			if t.ID == "" {
				id := v
				if id.Prefix == "" {
					id.Prefix = s.prefix
				}
				t.ID = id.String()
			}
		}
	}

	if col := s.columns[fieldStatus]; col.ok() {
		t.Status = ParseStatus(optionName(page.Properties[col.Name]))
	}
	if col := s.columns[fieldType]; col.ok() {
		switch v := page.Properties[col.Name].(type) {
		case notion.Select:
			t.Type, t.TypeColor = v.Name, v.Color
		case notion.Status:
			t.Type, t.TypeColor = v.Name, v.Color
		case notion.RichText:
			t.Type = strings.TrimSpace(v.Text)
		}
		if t.Type != "" && t.TypeColor == "" {
			t.TypeColor = s.optionColor(fieldType, t.Type)
		}
	}
	if col := s.columns[fieldPullRequest]; col.ok() {
		switch v := page.Properties[col.Name].(type) {
		case notion.URL:
			t.PullRequest = v.URL
		case notion.RichText:
			t.PullRequest = strings.TrimSpace(v.Text)
		}
	}
	if col := s.columns[fieldAssignee]; col.ok() {
		if v, ok := page.Properties[col.Name].(notion.People); ok {
			t.AssigneeIDs = v.UserIDs
		}
	}
	return t
}

func optionName(p notion.Property) string {
	switch v := p.(type) {
	case notion.Status:
		return v.Name
	case notion.Select:
		return v.Name
	default:
		return ""
	}
}
