// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for dkr.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"dkr-cli/internal/config"
	"dkr-cli/internal/container"
	"dkr-cli/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// logger is the shared CLI logger.
	logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "dkr"})

	// appCfg is the loaded configuration, populated by initRootConfig.
	appCfg = config.DefaultConfig()

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "dkr",
		Short: "Disposable dev containers for large git repos",
		Long: TitleStyle.Render("dkr") + SubtitleStyle.Render(" - disposable dev containers for large git repos") + `

dkr builds branch-scoped container images that carry a full clone of a
local git repository, then starts throwaway work sessions from them.
Images are addressed purely by labels, so any branch of any repo gets
its own reusable, incrementally updatable environment.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Run 'dkr create-image' inside a git repository
  2. Start a session with 'dkr start-image'
  3. Keep the image current with 'dkr update-image'

` + SubtitleStyle.Render("Examples:") + `
  dkr create-image                  Build an image from the current branch
  dkr create-image . origin/main    Build from a remote-tracking branch
  dkr start-image -- make test      Start a session and run a command
  dkr list-images                   Show all dkr-managed images`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/dkr/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	cfg, _, err := config.LoadWithPath(context.Background(), config.LoadOptions{
		ConfigFilePath: cfgFile,
	})
	if err != nil {
		// Always surface config loading errors; the defaults still apply.
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		return
	}
	appCfg = cfg
}

// newEngine creates the configured container engine.
func newEngine() (container.Engine, error) {
	engine, err := container.NewEngine(container.EngineType(appCfg.ContainerEngine))
	if err != nil {
		renderIssue(issue.EngineNotFoundId)
	}
	return engine, err
}

// renderIssue prints a catalog issue page to stderr, best effort.
func renderIssue(id issue.Id) {
	is := issue.Lookup(id)
	if is == nil {
		return
	}
	if rendered, err := is.Render("dark"); err == nil {
		fmt.Fprint(os.Stderr, rendered)
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
