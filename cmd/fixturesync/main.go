// Command fixturesync imports competitions, fixtures, broadcasters and live
// scores into the canonical store.
//
// Usage:
//
//	fixturesync import premier-league --season 2026
//	fixturesync import --all --fixtures-only --refresh-fixtures
//	fixturesync sync-livescores --interval 60
//	fixturesync sync-broadcasts --days 7
//	fixturesync link-live-ids --date 2026-08-15
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/fixture-sync/internal/app"
	"github.com/riskibarqy/fixture-sync/internal/config"
	"github.com/riskibarqy/fixture-sync/internal/observability"
	"github.com/riskibarqy/fixture-sync/internal/platform/logging"
)

type rootFlags struct {
	verbose bool
}

func main() {
	_ = godotenv.Load(".env")

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "fixturesync",
		Short:         "Football competition data sync",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Debug logging with a console encoder")

	root.AddCommand(importCmd(flags))
	root.AddCommand(liveScoresCmd(flags))
	root.AddCommand(broadcastsCmd(flags))
	root.AddCommand(linkLiveIDsCmd(flags))
	return root
}

func newLogger(cfg config.Config, verbose bool) *logging.Logger {
	opts := logging.Options{
		Level:  cfg.LogLevel,
		Format: logging.FormatJSON,
		Fields: []any{"service", cfg.ServiceName, "env", cfg.AppEnv},
	}
	if verbose {
		opts.Level = logging.LevelDebug
		opts.Format = logging.FormatConsole
	}
	return logging.New(opts)
}

// runWithApp loads configuration, starts telemetry and hands fn an App bound
// to a context cancelled on SIGINT or SIGTERM.
func runWithApp(flags *rootFlags, opts app.Options, fn func(ctx context.Context, a *app.App) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return err
	}
	logger := newLogger(cfg, flags.verbose)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Warn("uptrace disabled", "error", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				logger.Warn("uptrace shutdown failed", "error", err)
			}
		}()
	}

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Warn("pyroscope disabled", "error", err)
	} else {
		defer func() { _ = stopProfiler() }()
	}

	if opts.Metrics == nil {
		opts.Metrics = observability.NewSyncMetrics()
	}
	metricsSrv := observability.StartMetricsServer(cfg.MetricsAddr, opts.Metrics, logger)
	defer func() { _ = observability.StopMetricsServer(metricsSrv, logger, 5*time.Second) }()

	a, err := app.New(cfg, logger, opts)
	if err != nil {
		logger.Error("build app", "error", err)
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close app", "error", err)
		}
	}()

	if err := fn(ctx, a); err != nil {
		logger.Error("command failed", "error", err)
		return err
	}
	return nil
}
