package main

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/holocron/internal/app"
	"github.com/mmcdole/holocron/internal/config"
	"github.com/mmcdole/holocron/internal/log"
	"github.com/mmcdole/holocron/internal/tui"
	"github.com/spf13/cobra"
)

// cli carries state shared by every subcommand
type cli struct {
	configPath string
	jsonOut    bool

	cfg *config.Config
	app *app.App
}

// RootCommand builds the holocron command tree. With no subcommand it runs
// the terminal UI. Callers release c with teardown once Execute returns.
func RootCommand(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "holocron",
		Short: "Browse the Star Wars catalog from the terminal",
		Long: `Holocron is a catalog explorer for the SWAPI-style REST archive.

Run without arguments for the interactive browser, or use the subcommands
for scripting:

  holocron login
  holocron list people --search luke
  holocron show planets 1
  holocron favorite films 1`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTUI()
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default is "+config.DefaultConfigDir()+"/config.yaml)")
	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "print machine-readable JSON")

	root.AddCommand(
		LoginCommand(c),
		LogoutCommand(c),
		WhoamiCommand(c),
		PasswdCommand(c),
		ListCommand(c),
		ShowCommand(c),
		FavoriteCommand(c),
		FavoritesCommand(c),
		RecentCommand(c),
		SortCommand(c),
		ViewCommand(c),
		VersionCommand(),
	)
	return root
}

// setup loads config and builds the application for commands that need it
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	if cmd.Annotations["bare"] == "true" {
		return nil
	}

	cfg, err := config.LoadConfig(c.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c.cfg = cfg

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)
	logger.Info("starting holocron", "version", Version, "command", cmd.Name())

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *cli) teardown() error {
	if c.app == nil {
		return nil
	}
	if stats, ok := c.app.ResolverStats(); ok {
		c.app.Logger.Info("resolver stats", "hits", stats.Hits, "fetches", stats.Fetches, "failed", stats.Failed, "cached", stats.Cached)
	}
	c.app.Logger.Info("shutting down")
	err := c.app.Close()
	c.app = nil
	return err
}

func (c *cli) runTUI() error {
	p := tea.NewProgram(
		tui.NewModel(c.app),
		tea.WithAltScreen(),
	)

	c.app.Logger.Info("starting TUI")
	if _, err := p.Run(); err != nil {
		c.app.Logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// VersionCommand prints the build version
func VersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"bare": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "holocron %s\n", Version)
			return nil
		},
	}
}
