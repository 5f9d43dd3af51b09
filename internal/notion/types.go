// Package notion provides a client and data types for the Notion REST API.
//
// Page properties arrive as a loosely typed map keyed by the property's
// display name. They are decoded once, at this boundary, into a closed set
// of variants (Title, Status, Select, UniqueID, Relation, URL, People,
// RichText) with Unrecognized as the fallback, so callers never touch raw
// JSON.
package notion

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// API configuration constants.
const (
	// DefaultAPIEndpoint is the Notion REST API base URL.
	DefaultAPIEndpoint = "https://api.notion.com/v1"

	// APIVersion is sent as the Notion-Version header.
	APIVersion = "2022-06-28"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxPageSize is the largest page_size Notion accepts.
	MaxPageSize = 100

	// MaxPages bounds cursor pagination.
	MaxPages = 1000
)

// Client provides methods to interact with the Notion REST API.
type Client struct {
	Token      string       // Internal integration token
	BaseURL    string       // API base URL (default: https://api.notion.com/v1)
	HTTPClient *http.Client // Optional custom HTTP client
}

// APIError is a non-2xx response from Notion.
type APIError struct {
	StatusCode int
	Code       string // Notion error code, e.g. "object_not_found"
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("notion API error: %s (status %d, %s)", e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("notion API error (status %d)", e.StatusCode)
}

// IsNotFound reports whether err is a Notion 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Property types as reported in the "type" field.
const (
	TypeTitle    = "title"
	TypeStatus   = "status"
	TypeSelect   = "select"
	TypeUniqueID = "unique_id"
	TypeRelation = "relation"
	TypeURL      = "url"
	TypePeople   = "people"
	TypeRichText = "rich_text"
)

// Property is one decoded page property value.
type Property interface {
	// Type returns the Notion property type name.
	Type() string
}

// Title is the page title.
type Title struct{ Text string }

// Status is a status property; Name is "" when unset.
type Status struct{ Name, Color string }

// Select is a single-select property; Name is "" when unset.
type Select struct{ Name, Color string }

// UniqueID is an auto-incremented id with an optional prefix.
type UniqueID struct {
	Prefix string
	Number int
}

// Relation lists related page ids.
type Relation struct{ PageIDs []string }

// URL is a url property; empty when unset.
type URL struct{ URL string }

// People lists user ids.
type People struct{ UserIDs []string }

// RichText is plain text flattened from rich text segments.
type RichText struct{ Text string }

// Unrecognized is any property type this package does not model.
type Unrecognized struct{ Kind string }

func (Title) Type() string          { return TypeTitle }
func (Status) Type() string         { return TypeStatus }
func (Select) Type() string         { return TypeSelect }
func (UniqueID) Type() string       { return TypeUniqueID }
func (Relation) Type() string       { return TypeRelation }
func (URL) Type() string            { return TypeURL }
func (People) Type() string         { return TypePeople }
func (RichText) Type() string       { return TypeRichText }
func (u Unrecognized) Type() string { return u.Kind }

// String renders the identifier as PREFIX-NUMBER, or just the number
// when the database defines no prefix.
func (u UniqueID) String() string {
	if u.Prefix == "" {
		return fmt.Sprintf("%d", u.Number)
	}
	return fmt.Sprintf("%s-%d", u.Prefix, u.Number)
}

// Page is a database row.
type Page struct {
	ID         string
	URL        string
	Archived   bool
	Properties map[string]Property
}

// Database is a database's schema.
type Database struct {
	ID         string
	Title      string
	Properties map[string]SchemaProperty
}

// SchemaProperty describes one database column.
type SchemaProperty struct {
	ID      string
	Name    string
	Type    string
	Options []Option // status and select options
	Prefix  string   // unique_id prefix
}

// Option is a status or select option.
type Option struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// User is a workspace member or bot.
type User struct {
	ID     string  `json:"id"`
	Type   string  `json:"type"` // "person" or "bot"
	Name   string  `json:"name"`
	Person *Person `json:"person,omitempty"`
}

// Person holds human-only user fields.
type Person struct {
	Email string `json:"email"`
}

// IsHuman reports whether u is a person rather than an integration.
func (u User) IsHuman() bool {
	return u.Type == "person"
}

// Wire representations.

type richTextSegment struct {
	PlainText string `json:"plain_text"`
}

func flatten(segments []richTextSegment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.PlainText)
	}
	return b.String()
}

type rawProperty struct {
	Type     string            `json:"type"`
	Title    []richTextSegment `json:"title"`
	RichText []richTextSegment `json:"rich_text"`
	Status   *Option           `json:"status"`
	Select   *Option           `json:"select"`
	UniqueID *struct {
		Prefix *string `json:"prefix"`
		Number *int    `json:"number"`
	} `json:"unique_id"`
	Relation []struct {
		ID string `json:"id"`
	} `json:"relation"`
	URL    *string `json:"url"`
	People []User  `json:"people"`
}

func decodeProperty(raw rawProperty) Property {
	switch raw.Type {
	case TypeTitle:
		return Title{Text: flatten(raw.Title)}
	case TypeRichText:
		return RichText{Text: flatten(raw.RichText)}
	case TypeStatus:
		if raw.Status == nil {
			return Status{}
		}
		return Status{Name: raw.Status.Name, Color: raw.Status.Color}
	case TypeSelect:
		if raw.Select == nil {
			return Select{}
		}
		return Select{Name: raw.Select.Name, Color: raw.Select.Color}
	case TypeUniqueID:
		var id UniqueID
		if raw.UniqueID != nil {
			if raw.UniqueID.Prefix != nil {
				id.Prefix = *raw.UniqueID.Prefix
			}
			if raw.UniqueID.Number != nil {
				id.Number = *raw.UniqueID.Number
			}
		}
		return id
	case TypeRelation:
		ids := make([]string, 0, len(raw.Relation))
		for _, r := range raw.Relation {
			ids = append(ids, r.ID)
		}
		return Relation{PageIDs: ids}
	case TypeURL:
		if raw.URL == nil {
			return URL{}
		}
		return URL{URL: *raw.URL}
	case TypePeople:
		ids := make([]string, 0, len(raw.People))
		for _, u := range raw.People {
			ids = append(ids, u.ID)
		}
		return People{UserIDs: ids}
	default:
		return Unrecognized{Kind: raw.Type}
	}
}

type rawPage struct {
	ID         string                 `json:"id"`
	URL        string                 `json:"url"`
	Archived   bool                   `json:"archived"`
	Properties map[string]rawProperty `json:"properties"`
}

// UnmarshalJSON decodes a page and its property variants.
func (p *Page) UnmarshalJSON(data []byte) error {
	var raw rawPage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.ID = raw.ID
	p.URL = raw.URL
	p.Archived = raw.Archived
	p.Properties = make(map[string]Property, len(raw.Properties))
	for name, prop := range raw.Properties {
		p.Properties[name] = decodeProperty(prop)
	}
	return nil
}

type rawSchemaProperty struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status *struct {
		Options []Option `json:"options"`
	} `json:"status"`
	Select *struct {
		Options []Option `json:"options"`
	} `json:"select"`
	UniqueID *struct {
		Prefix *string `json:"prefix"`
	} `json:"unique_id"`
}

type rawDatabase struct {
	ID         string                       `json:"id"`
	Title      []richTextSegment            `json:"title"`
	Properties map[string]rawSchemaProperty `json:"properties"`
}

// UnmarshalJSON decodes a database schema.
func (d *Database) UnmarshalJSON(data []byte) error {
	var raw rawDatabase
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.ID = raw.ID
	d.Title = flatten(raw.Title)
	d.Properties = make(map[string]SchemaProperty, len(raw.Properties))
	for key, p := range raw.Properties {
		sp := SchemaProperty{ID: p.ID, Name: p.Name, Type: p.Type}
		if sp.Name == "" {
			sp.Name = key
		}
		switch {
		case p.Status != nil:
			sp.Options = p.Status.Options
		case p.Select != nil:
			sp.Options = p.Select.Options
		}
		if p.UniqueID != nil && p.UniqueID.Prefix != nil {
			sp.Prefix = *p.UniqueID.Prefix
		}
		d.Properties[key] = sp
	}
	return nil
}

// Property value builders for UpdatePage.

// StatusValue sets a status property by option name.
func StatusValue(name string) map[string]interface{} {
	return map[string]interface{}{"status": map[string]string{"name": name}}
}

// SelectValue sets a select property by option name.
func SelectValue(name string) map[string]interface{} {
	return map[string]interface{}{"select": map[string]string{"name": name}}
}

// URLValue sets a url property.
func URLValue(u string) map[string]interface{} {
	return map[string]interface{}{"url": u}
}

// RichTextValue sets a rich_text property to a single plain text segment.
func RichTextValue(text string) map[string]interface{} {
	return map[string]interface{}{
		"rich_text": []map[string]interface{}{
			{"type": "text", "text": map[string]string{"content": text}},
		},
	}
}

// PeopleValue sets a people property.
func PeopleValue(userIDs ...string) map[string]interface{} {
	people := make([]map[string]string, 0, len(userIDs))
	for _, id := range userIDs {
		people = append(people, map[string]string{"object": "user", "id": id})
	}
	return map[string]interface{}{"people": people}
}

// Equals builds a property filter matching value exactly. kind is the
// property type ("status", "select", ...).
func Equals(property, kind, value string) map[string]interface{} {
	return map[string]interface{}{
		"property": property,
		kind:       map[string]string{"equals": value},
	}
}

// Or combines filters with a logical or.
func Or(filters ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"or": filters}
}
