package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/riskibarqy/fixture-sync/internal/platform/logging"
)

const metricsNamespace = "fixture_sync"

// SyncMetrics counts pipeline records and times job passes. It satisfies
// usecase.Metrics.
type SyncMetrics struct {
	registry *prometheus.Registry
	records  *prometheus.CounterVec
	passes   *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

func NewSyncMetrics() *SyncMetrics {
	registry := prometheus.NewRegistry()
	m := &SyncMetrics{
		registry: registry,
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_total",
			Help:      "Records handled by the upsert pipeline by table and outcome.",
		}, []string{"table", "outcome"}),
		passes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of one job pass.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"job"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pass_failures_total",
			Help:      "Job passes that returned an error.",
		}, []string{"job"}),
	}
	registry.MustRegister(
		m.records,
		m.passes,
		m.failures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *SyncMetrics) AddRecords(table, outcome string, n int) {
	if n <= 0 {
		return
	}
	m.records.WithLabelValues(table, outcome).Add(float64(n))
}

func (m *SyncMetrics) ObservePass(job string, d time.Duration, err error) {
	m.passes.WithLabelValues(job).Observe(d.Seconds())
	if err != nil {
		m.failures.WithLabelValues(job).Inc()
	}
}

func (m *SyncMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format together
// with the runtime pprof endpoints.
func (m *SyncMetrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

// StartMetricsServer exposes m on addr. An empty addr disables the server
// and returns nil.
func StartMetricsServer(addr string, m *SyncMetrics, logger *logging.Logger) *http.Server {
	if logger == nil {
		logger = logging.Default()
	}
	if addr == "" || m == nil {
		logger.Debug("metrics server disabled", "reason", "METRICS_ADDR empty")
		return nil
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}

func StopMetricsServer(srv *http.Server, logger *logging.Logger, timeout time.Duration) error {
	if srv == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("metrics server stopped")
	return nil
}
