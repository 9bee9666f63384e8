// Package cli implements the maturity command line.
//
// The root command is built by [NewRootCommand] from an [App], which carries
// every dependency a command needs. Production code builds the App from
// configuration with [NewApp]; tests build it directly around a file-backed
// or HTTP test store.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"maturity/internal/config"
	"maturity/internal/filestore"
	"maturity/internal/manifest"
	"maturity/internal/output"
	"maturity/internal/remote"
	"maturity/internal/session"
	"maturity/internal/transition"
)

// App holds the dependencies shared by all commands.
type App struct {
	Config  *config.Config
	Store   *session.Store
	Printer *output.Printer
	Logger  *slog.Logger

	// Registry serves /metrics while watching. Nil disables the endpoint.
	Registry *prometheus.Registry
}

// NewApp wires the product store backend, criteria table, logger and metrics
// selected by cfg.
func NewApp(cfg *config.Config) (*App, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))

	table := transition.Default()
	if cfg.Criteria.ManifestPath != "" {
		m, err := manifest.ReadFromFile(cfg.Criteria.ManifestPath)
		if err != nil {
			return nil, err
		}
		if table, err = transition.NewTableFromManifest(m); err != nil {
			return nil, fmt.Errorf("criteria manifest %s: %w", cfg.Criteria.ManifestPath, err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := session.NewMetrics(registry)

	var backend session.Remote
	if cfg.UsesFileStore() {
		fs := filestore.New(cfg.Remote.StoreFile)
		logger.Debug("using file product store", "path", fs.Path())
		backend = fs
	} else {
		client := remote.New(cfg.Remote.BaseURL,
			remote.WithTimeout(cfg.Remote.Timeout),
			remote.WithLogger(logger),
			remote.WithAttemptObserver(metrics.ObserveAttempt),
		)
		logger.Debug("using remote product store", "base_url", client.BaseURL())
		backend = client
	}

	store := session.New(backend,
		session.WithLogger(logger),
		session.WithRefreshInterval(cfg.Sync.RefreshInterval),
		session.WithStageMode(cfg.StageMode()),
		session.WithTable(table),
		session.WithMetrics(metrics),
	)

	return &App{
		Config:   cfg,
		Store:    store,
		Printer:  output.NewPrinter(),
		Logger:   logger,
		Registry: registry,
	}, nil
}

// ExecuteResult is the outcome of a CLI run.
type ExecuteResult struct {
	ExitCode int
	Err      error
}

// RunWithConfig builds the App from cfg and runs the root command with the
// process arguments. It never calls os.Exit.
func RunWithConfig(cfg *config.Config) ExecuteResult {
	app, err := NewApp(cfg)
	if err != nil {
		output.NewPrinter().Error(err)
		return ExecuteResult{ExitCode: ExitFailure, Err: err}
	}
	defer app.Store.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCommand(app)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if code, ok := IsExitError(err); ok {
			return ExecuteResult{ExitCode: code, Err: err}
		}
		// Commands only return ExitError; anything else is an argument or
		// flag error from cobra.
		app.Printer.Error(err)
		return ExecuteResult{ExitCode: ExitInvalid, Err: err}
	}
	return ExecuteResult{}
}

// Execute loads configuration, runs the CLI and exits with its code.
func Execute() {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		output.NewPrinter().Error(err)
		os.Exit(ExitFailure)
	}
	os.Exit(RunWithConfig(cfg).ExitCode)
}

// load fetches the product list once for one-shot commands.
func (a *App) load(ctx context.Context) error {
	if err := a.Store.Refresh(ctx); err != nil {
		return a.fail(err)
	}
	return nil
}

// fail prints err and converts it to an [ExitError].
func (a *App) fail(err error) error {
	a.Printer.Error(err)
	return NewExitError(exitCodeFor(err))
}

func (a *App) table() *transition.Table {
	return a.Store.Table()
}
