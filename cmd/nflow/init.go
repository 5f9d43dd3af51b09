package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nflow-dev/nflow/internal/config"
	"github.com/nflow-dev/nflow/internal/debug"
	"github.com/nflow-dev/nflow/internal/git"
	"github.com/nflow-dev/nflow/internal/github"
	"github.com/nflow-dev/nflow/internal/ident"
	"github.com/nflow-dev/nflow/internal/notion"
	"github.com/nflow-dev/nflow/internal/prompt"
	"github.com/nflow-dev/nflow/internal/tickets"
	"github.com/nflow-dev/nflow/internal/ui"
)

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: "setup",
	Short:   "Configure credentials and the tickets database for this repository",
	Long: `Interactive setup of both configuration scopes.

Global (~/.config/nflow/config.yaml): Notion integration token, GitHub token
and the Notion user that nflow assigns tickets to. A GitHub token is picked up
from GITHUB_TOKEN, GH_TOKEN or 'gh auth token' when available.

Project (.nflow/config.yaml at the repository root): project name, tickets
database, ticket prefix and development branch. The ticket prefix is read from
the database's unique ID property.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := getRootContext()
		err := runInit(ctx, prompt.New())
		if errors.Is(err, prompt.ErrAborted) {
			fmt.Println("Setup cancelled. Nothing was written.")
			return
		}
		exitOnError(err)
	},
}

func runInit(ctx context.Context, p *prompt.Prompter) error {
	repo, root, err := openRepo(ctx)
	if err != nil {
		return err
	}

	globalStore, err := config.GlobalStore()
	if err != nil {
		return err
	}
	global, err := config.ReadGlobalFile(globalStore)
	if err != nil {
		return fmt.Errorf("load global configuration: %w", err)
	}
	project, err := config.LoadProject(root)
	if err != nil {
		return fmt.Errorf("load project configuration: %w", err)
	}
	if project == nil {
		project = &config.Project{DevBranch: config.DefaultDevBranch}
	}

	if err := askCredentials(ctx, p, global); err != nil {
		return err
	}

	name := project.Project
	if name == "" {
		name = filepath.Base(root)
	}
	if project.Project, err = p.Input(ctx, "Project name", name, requireValue); err != nil {
		return err
	}

	dbInput, err := p.Input(ctx, "Notion tickets database (ID or URL)", project.DatabaseID, validateDatabaseRef)
	if err != nil {
		return err
	}
	project.DatabaseID = parseDatabaseID(dbInput)

	gateway := tickets.NewGateway(notion.NewClient(global.NotionToken), project.DatabaseID)
	prefix, err := gateway.TicketPrefix(ctx)
	if err != nil || prefix == "" {
		if err != nil {
			WarnError("could not read the ticket prefix: %v", err)
		}
		if prefix, err = p.Input(ctx, "Ticket prefix (e.g. ABC)", project.TicketPrefix, validatePrefix); err != nil {
			return err
		}
	}
	project.TicketPrefix = strings.ToUpper(prefix)

	if project.DevBranch, err = p.Input(ctx, "Development branch", project.DevBranch, requireValue); err != nil {
		return err
	}

	if err := askUser(ctx, p, gateway, global); err != nil {
		return err
	}

	checkRepoAccess(ctx, repo, global.GitHubToken)

	if err := globalStore.Write(global); err != nil {
		return err
	}
	if err := config.ProjectStore(root).Write(project); err != nil {
		return err
	}

	debug.PrintNormal("%s Wrote %s\n", ui.RenderPassIcon(), globalStore.Path)
	debug.PrintNormal("%s Wrote %s\n", ui.RenderPassIcon(), config.ProjectPath(root))
	debug.PrintNormal("\nRun %s to pick a ticket.\n", ui.RenderAccent("nflow start"))
	return nil
}

// askCredentials fills missing tokens, preferring ones already present in
// the environment or the gh CLI.
func askCredentials(ctx context.Context, p *prompt.Prompter, g *config.Global) error {
	var err error
	if g.NotionToken == "" {
		if g.NotionToken, err = p.Secret(ctx, "Notion integration token"); err != nil {
			return err
		}
	}
	if g.GitHubToken == "" {
		if token := github.NewTokenDiscoverer().DiscoverToken(); token != "" {
			fmt.Printf("%s Using GitHub token %s found in the environment\n", ui.RenderInfoIcon(), config.Mask(token))
			g.GitHubToken = token
		} else if g.GitHubToken, err = p.Secret(ctx, "GitHub token"); err != nil {
			return err
		}
	}
	return g.Validate()
}

// askUser selects the Notion user tickets get assigned to.
func askUser(ctx context.Context, p *prompt.Prompter, gateway *tickets.Gateway, g *config.Global) error {
	users, err := gateway.Users(ctx)
	if err != nil {
		WarnError("could not list Notion users, skipping assignment setup: %v", err)
		return nil
	}
	options := []prompt.Option{{Label: "Nobody (do not assign tickets)", Value: ""}}
	for _, u := range users {
		label := u.Name
		if u.Email != "" {
			label += " <" + u.Email + ">"
		}
		options = append(options, prompt.Option{Label: label, Value: u.ID})
	}

	id, err := p.Select(ctx, "Which Notion user are you?", options)
	if err != nil {
		return err
	}
	g.UserID, g.UserName = id, ""
	for _, u := range users {
		if u.ID == id {
			g.UserName = u.Name
		}
	}
	return nil
}

// checkRepoAccess warns when the token cannot push to origin's repository.
func checkRepoAccess(ctx context.Context, repo *git.Repo, token string) {
	gh, err := githubClientFor(ctx, repo, token)
	if err != nil {
		WarnError("%v", err)
		return
	}
	access, err := gh.CheckAccess(ctx)
	if err != nil {
		WarnError("could not verify GitHub access: %v", err)
		return
	}
	if !access.CanPush {
		WarnError("the GitHub token has no push access to %s", access.FullName)
		return
	}
	fmt.Printf("%s GitHub access to %s verified\n", ui.RenderPassIcon(), access.FullName)
}

// databaseIDPattern matches a Notion id, with or without dashes.
var databaseIDPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{12}`)

// parseDatabaseID extracts the database id from a pasted Notion URL such
// as https://www.notion.so/team/Tickets-0123...?v=...; plain ids pass
// through trimmed.
func parseDatabaseID(input string) string {
	input = strings.TrimSpace(input)
	path := input
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if m := databaseIDPattern.FindAllString(path, -1); len(m) > 0 {
		return strings.ReplaceAll(m[len(m)-1], "-", "")
	}
	return input
}

func requireValue(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("a value is required")
	}
	return nil
}

func validateDatabaseRef(s string) error {
	if err := requireValue(s); err != nil {
		return err
	}
	if !databaseIDPattern.MatchString(s) {
		return errors.New("not a Notion database ID or URL")
	}
	return nil
}

func validatePrefix(s string) error {
	if !ident.IsTicketID(strings.TrimSpace(s) + "-1") {
		return errors.New("the prefix may only contain letters")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}
