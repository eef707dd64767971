package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"recordbook/internal/config"
	"recordbook/internal/paths"
	"recordbook/internal/records"
	"recordbook/internal/slogutil"
	"recordbook/internal/storage"
	"recordbook/internal/viewmodel"
)

// app wires one session and its view model for a single command.
type app struct {
	root     string
	config   *config.Config
	logger   *slog.Logger
	factory  *slogutil.LoggerFactory
	session  *storage.Session
	executor *storage.Executor
	repo     *records.Repository
	table    *viewmodel.Table
}

// loadConfig resolves the root and loads a validated configuration.
func loadConfig() (string, *config.Config, error) {
	root, err := paths.ResolveRoot(rootFlag)
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	cfg, err := config.LoadConfig(root)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return "", nil, err
	}
	return root, cfg, nil
}

// cliLevel returns the level requested by -v/--quiet, or nil when neither
// flag was given.
func cliLevel(cmd *cobra.Command) *slog.Level {
	flags := cmd.Root().PersistentFlags()
	if !flags.Changed("verbose") && !flags.Changed("quiet") {
		return nil
	}
	level := slogutil.LevelFromVerbosity(verbosity, quietFlag)
	return &level
}

// newApp builds the app without touching the database.
func newApp(cmd *cobra.Command) (*app, error) {
	root, cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	factory := slogutil.NewLoggerFactory(root, cfg, os.Stderr, cliLevel(cmd))
	logger := factory.Logger()

	dbCfg := cfg.Database
	dbCfg.Filename = paths.ResolveDatabasePath(root, dbCfg.Filename)

	session := storage.NewSession(dbCfg, logger.With("component", "storage"))
	executor := storage.NewExecutor(session, logger.With("component", "executor"))

	tag, err := language.Parse(cfg.Display.Locale)
	if err != nil {
		tag = language.English
	}
	repo := records.NewRepository(executor, logger.With("component", "records"),
		records.WithTable(dbCfg.Table),
		records.WithLocale(tag),
	)

	catalog, err := viewmodel.LoadCatalog(paths.GetExamplesPath(root), dbCfg.Table)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}

	return &app{
		root:     root,
		config:   cfg,
		logger:   logger,
		factory:  factory,
		session:  session,
		executor: executor,
		repo:     repo,
		table:    viewmodel.NewTable(repo, logger.With("component", "viewmodel"), catalog),
	}, nil
}

// openApp builds the app and initializes the view model, which opens the
// database and loads the items.
func openApp(cmd *cobra.Command) (*app, context.Context, func(), error) {
	a, err := newApp(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	if err := a.table.Initialize(ctx); err != nil {
		stop()
		a.close()
		return nil, nil, nil, err
	}

	return a, ctx, func() {
		stop()
		a.close()
	}, nil
}

func (a *app) close() {
	if err := a.session.Close(); err != nil {
		a.logger.Warn("Failed to close session", "error", err.Error())
	}
	_ = a.factory.Close()
}

// printResponse writes resp in the selected output format.
func printResponse(cmd *cobra.Command, resp interface{}) error {
	out, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// location resolves the display timezone, falling back to local time.
func (a *app) location() *time.Location {
	loc, err := records.LoadLocation(a.config.Display.Timezone)
	if err != nil {
		a.logger.Warn("Unknown timezone, using local time", "timezone", a.config.Display.Timezone)
		return time.Local
	}
	return loc
}
