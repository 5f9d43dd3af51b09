package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nflow-dev/nflow/internal/config"
	"github.com/nflow-dev/nflow/internal/ui"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "setup",
	Short:   "Inspect nflow configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with tokens masked",
	Long: `Prints the global and project configuration as nflow sees it, including
values supplied through NFLOW_NOTION_TOKEN, NFLOW_GITHUB_TOKEN (or GITHUB_TOKEN)
and NFLOW_USER_ID. Tokens are masked.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := getRootContext()

		globalPath, err := config.GlobalPath()
		exitOnError(err)
		global, err := config.LoadGlobal()
		exitOnError(err)

		var project *config.Project
		projectPath := ""
		if _, root, err := openRepo(ctx); err == nil {
			projectPath = config.ProjectPath(root)
			project, err = config.LoadProject(root)
			exitOnError(err)
		}

		showConfig(os.Stdout, globalPath, global, projectPath, project)
	},
}

func showConfig(w io.Writer, globalPath string, g *config.Global, projectPath string, p *config.Project) {
	fmt.Fprintln(w, ui.RenderCategory("Global")+" "+ui.RenderMuted(globalPath))
	fmt.Fprintln(w, ui.RenderKeyValue("notion", config.Mask(g.NotionToken)))
	fmt.Fprintln(w, ui.RenderKeyValue("github", config.Mask(g.GitHubToken)))
	user := g.UserID
	if g.UserName != "" {
		user = g.UserName + " (" + g.UserID + ")"
	}
	if user == "" {
		user = ui.RenderMuted("(not set)")
	}
	fmt.Fprintln(w, ui.RenderKeyValue("user", user))
	fmt.Fprintln(w)

	if projectPath == "" {
		fmt.Fprintln(w, ui.RenderCategory("Project")+" "+ui.RenderMuted("(not in a git repository)"))
		return
	}
	fmt.Fprintln(w, ui.RenderCategory("Project")+" "+ui.RenderMuted(projectPath))
	if p == nil {
		fmt.Fprintln(w, ui.RenderMuted("not initialized; run 'nflow init'"))
		return
	}
	fmt.Fprintln(w, ui.RenderKeyValue("project", p.Project))
	fmt.Fprintln(w, ui.RenderKeyValue("database", p.DatabaseID))
	fmt.Fprintln(w, ui.RenderKeyValue("prefix", p.TicketPrefix))
	fmt.Fprintln(w, ui.RenderKeyValue("develop", p.DevBranch))
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
