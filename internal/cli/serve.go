package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/runnerr0/shiftboard/internal/config"
	"github.com/runnerr0/shiftboard/internal/dashboard"
	"github.com/runnerr0/shiftboard/internal/metrics"
	"github.com/runnerr0/shiftboard/internal/server"
	"github.com/runnerr0/shiftboard/internal/storage"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}

	verbose := c.globals != nil && c.globals.Verbose
	logger := newLogger(os.Stderr, cfg.Logging, verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := c.buildServer(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "err", err)
		return err
	}
	return srv.Run(ctx)
}

// config applies the command-line overrides on top of file and environment.
func (c *ServeCommand) config() (*config.Config, error) {
	cfg, err := loadConfig(c.globals, c.DB)
	if err != nil {
		return nil, err
	}
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildServer performs the single startup read and prepares the server.
func (c *ServeCommand) buildServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*server.Server, error) {
	snap, err := storage.LoadSnapshot(ctx, cfg.Storage.SQLiteFile)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", cfg.Storage.SQLiteFile, err)
	}

	views, err := dashboard.New(snap)
	if err != nil {
		return nil, err
	}
	if !views.SingleEndpoint() {
		logger.Warn("sources table spans several endpoints", "endpoints", views.Endpoints())
	}
	logger.Info("snapshot loaded",
		"db", cfg.Storage.SQLiteFile,
		"events", len(snap.Events),
		"reasons", len(views.DistinctReasons()),
	)

	m := metrics.New()
	m.SetBuildInfo(c.version)
	m.SetSnapshotRows(len(snap.Events))

	return server.New(views, server.Options{
		Addr:            cfg.Server.Addr(),
		MetricsAddr:     cfg.Metrics.Addr,
		MetricsEnabled:  cfg.Metrics.Enabled,
		ShutdownTimeout: time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second,
		MaxRequestSize:  cfg.Server.MaxRequestSize,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		Logger:          logger,
		Metrics:         m,
	})
}
