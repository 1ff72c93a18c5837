package usecase

import "time"

// Record outcomes reported by the upsert pipeline.
const (
	OutcomeWritten = "written"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics receives sync counters. The daemon exports them for scraping.
type Metrics interface {
	AddRecords(table, outcome string, n int)
	ObservePass(job string, d time.Duration, err error)
}

type nopMetrics struct{}

func (nopMetrics) AddRecords(string, string, int)           {}
func (nopMetrics) ObservePass(string, time.Duration, error) {}

func metricsOrNop(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
