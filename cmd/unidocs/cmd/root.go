// Package cmd provides the CLI commands for unidocs.
package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/unidocs/unidocs/internal/config"
	"github.com/unidocs/unidocs/internal/fetch"
	"github.com/unidocs/unidocs/internal/indexer"
	"github.com/unidocs/unidocs/internal/logging"
	"github.com/unidocs/unidocs/internal/search"
	"github.com/unidocs/unidocs/internal/store"
	"github.com/unidocs/unidocs/internal/ui"
	"github.com/unidocs/unidocs/pkg/version"
)

var loggingCleanup func()

// NewRootCmd creates the root command for the unidocs CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unidocs",
		Short: "Offline Unity documentation search over MCP",
		Long: `unidocs downloads the Unity documentation archive, indexes it into a
local full-text search database, and serves it to AI assistants over the
Model Context Protocol.

Typical first run:

  unidocs fetch          download and extract the documentation archive
  unidocs index          build the search index
  unidocs serve          start the MCP server (stdio)`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("unidocs version {{.Version}}\n")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = func(*cobra.Command, []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newPackagesCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setupLogging routes slog to a rotating file under the data directory.
// Stderr tee is disabled for serve: the MCP client owns the pipes.
func setupLogging(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logCfg := logging.Config{
		Level:         cfg.Server.LogLevel,
		FilePath:      filepath.Join(cfg.Paths.DataDir, "logs", "unidocs.log"),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: cmd.Name() != "serve",
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		ui.NewPrinter(os.Stderr).Errorf("%v", err)
	}
	return err
}

// appEnv bundles the dependencies most commands need.
type appEnv struct {
	cfg     *config.Config
	store   *store.Store
	engine  *search.Engine
	fetcher *fetch.Fetcher
	indexer *indexer.Indexer
	out     *ui.Printer
}

// openEnv loads configuration and opens the document store.
func openEnv(ctx context.Context) (*appEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.DatabasePath(), store.Options{
		Backend:       cfg.Search.Backend,
		SnippetTokens: cfg.Search.SnippetTokens,
		Logger:        slog.Default(),
	})
	if err != nil {
		return nil, err
	}

	return &appEnv{
		cfg:     cfg,
		store:   st,
		engine:  search.NewEngine(st, cfg.Search.MaxResults, slog.Default()),
		fetcher: fetch.New(cfg.Fetch.Timeout, slog.Default()),
		indexer: indexer.New(st, cfg.Paths.DataDir, slog.Default()),
		out:     ui.NewPrinter(os.Stdout),
	}, nil
}

func (e *appEnv) Close() {
	if err := e.store.Close(); err != nil {
		slog.Warn("failed to close store", slog.String("error", err.Error()))
	}
}

// resolveVersion picks the version argument to operate on: the flag value
// when set, otherwise the configured default.
func (e *appEnv) resolveVersion(flag string) string {
	if flag != "" {
		return flag
	}
	return e.cfg.Unity.DefaultVersion
}

// durationRound trims sub-100ms noise from user-facing durations.
func durationRound(d time.Duration) time.Duration {
	return d.Round(100 * time.Millisecond)
}
