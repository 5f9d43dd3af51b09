package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nflow-dev/nflow/internal/debug"
	"github.com/nflow-dev/nflow/internal/telemetry"
	"github.com/nflow-dev/nflow/internal/ui"
)

var (
	// Version is the current version of nflow (overridden by ldflags at build time).
	Version = "0.3.0"

	// Build is the build flavour (overridden by ldflags at build time).
	Build = "dev"
)

var (
	verboseFlag bool // Enable verbose/debug output
	quietFlag   bool // Suppress non-essential output

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "workflow", Title: "Workflow:"},
		&cobra.Group{ID: "setup", Title: "Setup & Configuration:"},
	)

	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")

	rootCmd.Flags().BoolP("version", "V", false, "Print version information")
}

var rootCmd = &cobra.Command{
	Use:   "nflow",
	Short: "nflow - Notion tickets, git branches and GitHub pull requests in step",
	Long: `nflow moves one unit of work through its lifecycle: pick a Notion ticket and
get a branch for it, open the pull request, and squash-merge it when checks
pass. Ticket status follows along at every step.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("nflow version %s (%s)\n", Version, Build)
			return
		}
		_ = cmd.Help()
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupSignalContext()
		applyVerbosityFlags()
		if err := telemetry.Init(rootCtx, "nflow", Version); err != nil {
			WarnError("telemetry disabled: %v", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shutdown()
	},
}

// setupSignalContext cancels rootCtx on Ctrl-C or SIGTERM.
func setupSignalContext() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// applyVerbosityFlags propagates --verbose and --quiet to the debug package.
func applyVerbosityFlags() {
	debug.SetVerbose(verboseFlag)
	debug.SetQuiet(quietFlag)
	ui.ApplyColorProfile()
}

// getRootContext returns the signal context, or a background context
// when called outside a command run (tests).
func getRootContext() context.Context {
	if rootCtx == nil {
		return context.Background()
	}
	return rootCtx
}

// shutdown flushes telemetry and releases the signal context. It is safe
// to call more than once.
func shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	telemetry.Shutdown(ctx)
	if rootCancel != nil {
		rootCancel()
		rootCancel = nil
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
