package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/riskibarqy/fixture-sync/internal/platform/logging"
)

// LiveScoreRunner drives LiveScoreSyncService as a daemon: one pass right
// away, then one every interval. Passes never overlap.
type LiveScoreRunner struct {
	service  *LiveScoreSyncService
	interval time.Duration
	logger   *logging.Logger
}

func NewLiveScoreRunner(service *LiveScoreSyncService, interval time.Duration, logger *logging.Logger) *LiveScoreRunner {
	if logger == nil {
		logger = logging.Default()
	}
	return &LiveScoreRunner{service: service, interval: interval, logger: logger}
}

// Run blocks until ctx is done. A pass in flight when ctx ends runs to
// completion before Run returns.
func (r *LiveScoreRunner) Run(ctx context.Context) error {
	if !r.service.Active() {
		_, err := r.service.Run(ctx)
		return err
	}
	if r.interval <= 0 {
		return fmt.Errorf("%w: live score interval must be positive", ErrConfiguration)
	}

	passCtx := context.WithoutCancel(ctx)
	r.pass(passCtx)
	if ctx.Err() != nil {
		return nil
	}

	adapter := cronLogger{logger: r.logger}
	scheduler := cron.New(
		cron.WithLogger(adapter),
		cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
	)
	if _, err := scheduler.AddFunc(fmt.Sprintf("@every %s", r.interval), func() { r.pass(passCtx) }); err != nil {
		return fmt.Errorf("%w: schedule live score pass: %w", ErrConfiguration, err)
	}
	scheduler.Start()
	r.logger.InfoContext(ctx, "live score daemon started", "interval", r.interval.String())

	<-ctx.Done()
	r.logger.InfoContext(ctx, "live score daemon stopping, waiting for in-flight pass")
	<-scheduler.Stop().Done()
	return nil
}

func (r *LiveScoreRunner) pass(ctx context.Context) {
	if _, err := r.service.Run(ctx); err != nil {
		r.logger.ErrorContext(ctx, "live score pass failed", "error", err)
	}
}

// cronLogger routes scheduler diagnostics through the service logger.
type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
