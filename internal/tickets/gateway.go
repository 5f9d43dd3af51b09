package tickets

import (
	"context"
	"fmt"

	"github.com/nflow-dev/nflow/internal/notion"
)

// Client is the subset of the Notion client the gateway uses.
// *notion.Client satisfies it.
type Client interface {
	QueryDatabase(ctx context.Context, databaseID string, filter map[string]interface{}) ([]notion.Page, error)
	RetrievePage(ctx context.Context, pageID string) (*notion.Page, error)
	UpdatePage(ctx context.Context, pageID string, properties map[string]interface{}) (*notion.Page, error)
	RetrieveDatabase(ctx context.Context, databaseID string) (*notion.Database, error)
	ListUsers(ctx context.Context) ([]notion.User, error)
}

// Gateway reads and mutates tickets of one database. It is meant to live
// for a single command invocation; the schema is resolved on first use.
type Gateway struct {
	client     Client
	databaseID string
	prefix     string
	schema     *schema
}

// NewGateway creates a gateway for databaseID.
func NewGateway(client Client, databaseID string) *Gateway {
	return &Gateway{client: client, databaseID: databaseID}
}

// WithPrefix sets the ticket prefix used when neither the page nor the
// database's unique-id property carries one.
func (g *Gateway) WithPrefix(prefix string) *Gateway {
	g.prefix = prefix
	return g
}

func (g *Gateway) loadSchema(ctx context.Context) (*schema, error) {
	if g.schema != nil {
		return g.schema, nil
	}
	db, err := g.client.RetrieveDatabase(ctx, g.databaseID)
	if err != nil {
		return nil, fmt.Errorf("load tickets database schema: %w", err)
	}
	g.schema = resolveSchema(db)
	if g.schema.prefix == "" {
		g.schema.prefix = g.prefix
	}
	return g.schema, nil
}

func (g *Gateway) column(ctx context.Context, f field) (column, error) {
	s, err := g.loadSchema(ctx)
	if err != nil {
		return column{}, err
	}
	col := s.columns[f]
	if !col.ok() {
		return column{}, fmt.Errorf("%w for %s (accepted names: %v)", ErrFieldMissing, f, fieldAliases[f])
	}
	return col, nil
}

// TicketPrefix returns the unique-id prefix configured on the database,
// or the WithPrefix fallback when the database has none.
func (g *Gateway) TicketPrefix(ctx context.Context) (string, error) {
	s, err := g.loadSchema(ctx)
	if err != nil {
		return "", err
	}
	return s.prefix, nil
}

// Candidates returns tickets that can be started: Backlog or In Progress.
func (g *Gateway) Candidates(ctx context.Context) ([]Ticket, error) {
	col, err := g.column(ctx, fieldStatus)
	if err != nil {
		return nil, err
	}

	filter := notion.Or(
		notion.Equals(col.Name, col.Type, col.optionFor(StatusBacklog)),
		notion.Equals(col.Name, col.Type, col.optionFor(StatusInProgress)),
	)
	pages, err := g.client.QueryDatabase(ctx, g.databaseID, filter)
	if err != nil {
		return nil, fmt.Errorf("query candidate tickets: %w", err)
	}

	result := make([]Ticket, 0, len(pages))
	for _, p := range pages {
		if p.Archived {
			continue
		}
		result = append(result, ticketFromPage(p, g.schema))
	}
	return result, nil
}

// Find returns the ticket with external identifier id, or nil when no
// page carries it. The tracker has no index on the identifier, so this
// scans the whole database.
func (g *Gateway) Find(ctx context.Context, id string) (*Ticket, error) {
	s, err := g.loadSchema(ctx)
	if err != nil {
		return nil, err
	}

	pages, err := g.client.QueryDatabase(ctx, g.databaseID, nil)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	for _, p := range pages {
		t := ticketFromPage(p, s)
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, nil
}

// SetStatus transitions t to status and updates t once the page reads
// back with the new status.
func (g *Gateway) SetStatus(ctx context.Context, t *Ticket, status Status) error {
	col, err := g.column(ctx, fieldStatus)
	if err != nil {
		return err
	}

	name := col.optionFor(status)
	var value map[string]interface{}
	switch col.Type {
	case notion.TypeStatus:
		value = notion.StatusValue(name)
	case notion.TypeSelect:
		value = notion.SelectValue(name)
	default:
		return fmt.Errorf("%w: status property %q has type %s", ErrUnsupportedField, col.Name, col.Type)
	}

	if _, err := g.client.UpdatePage(ctx, t.PageID, map[string]interface{}{col.Name: value}); err != nil {
		return fmt.Errorf("set status of %s to %s: %w", t.ID, status, err)
	}

	page, err := g.client.RetrievePage(ctx, t.PageID)
	if err != nil {
		return fmt.Errorf("verify status of %s: %w", t.ID, err)
	}
	if got := ParseStatus(optionName(page.Properties[col.Name])); got != status {
		return fmt.Errorf("%w: %s reads %s, want %s", ErrNotApplied, t.ID, got, status)
	}
	t.Status = status
	return nil
}

// SetPullRequest stores the pull request URL on t.
func (g *Gateway) SetPullRequest(ctx context.Context, t *Ticket, url string) error {
	col, err := g.column(ctx, fieldPullRequest)
	if err != nil {
		return err
	}

	var value map[string]interface{}
	switch col.Type {
	case notion.TypeURL:
		value = notion.URLValue(url)
	case notion.TypeRichText:
		value = notion.RichTextValue(url)
	default:
		return fmt.Errorf("%w: pull request property %q has type %s", ErrUnsupportedField, col.Name, col.Type)
	}

	if _, err := g.client.UpdatePage(ctx, t.PageID, map[string]interface{}{col.Name: value}); err != nil {
		return fmt.Errorf("link pull request on %s: %w", t.ID, err)
	}
	t.PullRequest = url
	return nil
}

// Assign adds userID to the assignees of t, keeping existing ones.
func (g *Gateway) Assign(ctx context.Context, t *Ticket, userID string) error {
	col, err := g.column(ctx, fieldAssignee)
	if err != nil {
		return err
	}
	if t.IsAssignedTo(userID) {
		return nil
	}

	ids := append(append([]string(nil), t.AssigneeIDs...), userID)
	if _, err := g.client.UpdatePage(ctx, t.PageID, map[string]interface{}{col.Name: notion.PeopleValue(ids...)}); err != nil {
		return fmt.Errorf("assign %s: %w", t.ID, err)
	}
	t.AssigneeIDs = ids
	return nil
}

// Users lists the human members of the workspace.
func (g *Gateway) Users(ctx context.Context) ([]User, error) {
	all, err := g.client.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list workspace users: %w", err)
	}
	var users []User
	for _, u := range all {
		if !u.IsHuman() {
			continue
		}
		user := User{ID: u.ID, Name: u.Name}
		if u.Person != nil {
			user.Email = u.Person.Email
		}
		users = append(users, user)
	}
	return users, nil
}
