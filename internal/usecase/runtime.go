package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/fixture-sync/internal/platform/id"
	"github.com/riskibarqy/fixture-sync/internal/platform/logging"
	"github.com/riskibarqy/fixture-sync/internal/platform/resilience"
)

// serviceRuntime holds the clock, pacing and metrics shared by the sync services.
type serviceRuntime struct {
	now     func() time.Time
	sleep   func(context.Context, time.Duration) error
	metrics Metrics
}

func newRuntime(opts []ServiceOption) serviceRuntime {
	rt := serviceRuntime{
		now:     time.Now,
		sleep:   resilience.Sleep,
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(&rt)
	}
	return rt
}

type ServiceOption func(*serviceRuntime)

func WithClock(now func() time.Time) ServiceOption {
	return func(rt *serviceRuntime) {
		if now != nil {
			rt.now = now
		}
	}
}

// WithSleep replaces the pause between units of work.
func WithSleep(sleep func(context.Context, time.Duration) error) ServiceOption {
	return func(rt *serviceRuntime) {
		if sleep != nil {
			rt.sleep = sleep
		}
	}
}

func WithMetrics(m Metrics) ServiceOption {
	return func(rt *serviceRuntime) {
		rt.metrics = metricsOrNop(m)
	}
}

// startRun tags ctx with a fresh run id unless one is already set.
func startRun(ctx context.Context) context.Context {
	if logging.RunIDFromContext(ctx) != "" {
		return ctx
	}
	return logging.WithRunID(ctx, id.NewRunID())
}
