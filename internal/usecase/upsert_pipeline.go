package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fixture-sync/internal/domain/broadcast"
	"github.com/riskibarqy/fixture-sync/internal/domain/competition"
	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
	"github.com/riskibarqy/fixture-sync/internal/domain/team"
	"github.com/riskibarqy/fixture-sync/internal/platform/logging"
	"github.com/riskibarqy/fixture-sync/internal/platform/resilience"
	"github.com/riskibarqy/fixture-sync/internal/platform/storage"
)

// Default batch sizes per destination.
const (
	TeamChunkSize    = 50
	FixtureChunkSize = 100
)

var tableSpecs = map[string]storage.TableSpec{
	storage.TableTeams:              {Name: storage.TableTeams, Conflict: []string{"slug"}, Mode: storage.ConflictMerge},
	storage.TableFixtures:           {Name: storage.TableFixtures, Conflict: []string{"id"}, Mode: storage.ConflictReject},
	storage.TableCompetitions:       {Name: storage.TableCompetitions, Conflict: []string{"id"}, Mode: storage.ConflictMerge},
	storage.TableBroadcasts:         {Name: storage.TableBroadcasts, Conflict: []string{"fixture_id"}, Mode: storage.ConflictMerge},
	storage.TableBroadcastProviders: {Name: storage.TableBroadcastProviders, Conflict: []string{"id"}, Mode: storage.ConflictMerge},
}

// TableSpecFor returns the write spec of a destination table.
func TableSpecFor(table string) (storage.TableSpec, error) {
	spec, ok := tableSpecs[table]
	if !ok {
		return storage.TableSpec{}, fmt.Errorf("%w: unknown destination table %q", ErrConfiguration, table)
	}
	spec.Conflict = append([]string(nil), spec.Conflict...)
	return spec, nil
}

// UpsertResult counts records per outcome. Written+Skipped+Failed equals the
// number of records submitted.
type UpsertResult struct {
	Written int
	Skipped int
	Failed  int
}

func (r UpsertResult) Total() int {
	return r.Written + r.Skipped + r.Failed
}

func (r *UpsertResult) Add(other UpsertResult) {
	r.Written += other.Written
	r.Skipped += other.Skipped
	r.Failed += other.Failed
}

type UpsertOption func(*storage.TableSpec)

// MergeOnConflict turns a plain-insert table into an upsert, used when
// re-importing fixtures.
func MergeOnConflict() UpsertOption {
	return func(spec *storage.TableSpec) {
		spec.Mode = storage.ConflictMerge
	}
}

// UpsertPipeline writes records in fixed-size batches. A failed batch is
// retried per policy, then replayed row by row so one bad record does not
// sink the others.
type UpsertPipeline struct {
	writer  RecordWriter
	retry   resilience.RetryPolicy
	logger  *logging.Logger
	metrics Metrics
}

func NewUpsertPipeline(writer RecordWriter, retry resilience.RetryPolicy, logger *logging.Logger, metrics Metrics) *UpsertPipeline {
	if logger == nil {
		logger = logging.Default()
	}
	return &UpsertPipeline{
		writer:  writer,
		retry:   retry,
		logger:  logger,
		metrics: metricsOrNop(metrics),
	}
}

// UpsertAll writes records to table. Row-level failures are counted, not
// returned; the error is reserved for a misconfigured destination and for
// cancellation.
func (p *UpsertPipeline) UpsertAll(ctx context.Context, table string, records []any, chunkSize int, opts ...UpsertOption) (result UpsertResult, err error) {
	spec, err := TableSpecFor(table)
	if err != nil {
		return UpsertResult{}, err
	}
	for _, opt := range opts {
		opt(&spec)
	}
	if chunkSize <= 0 {
		return UpsertResult{}, fmt.Errorf("%w: chunk size for %s must be positive, got %d", ErrConfiguration, table, chunkSize)
	}
	if len(records) == 0 {
		return UpsertResult{}, nil
	}

	ctx, span := startUsecaseSpan(ctx, "usecase.UpsertPipeline.UpsertAll",
		attribute.String("table", spec.Name),
		attribute.String("mode", spec.Mode.String()),
		attribute.Int("records", len(records)),
	)
	defer func() { endSpan(span, err) }()

	for start := 0; start < len(records); start += chunkSize {
		end := min(start+chunkSize, len(records))
		batch, batchErr := p.writeBatch(ctx, spec, records[start:end])
		result.Add(batch)
		if batchErr != nil {
			p.record(spec.Name, result)
			return result, batchErr
		}
	}

	p.record(spec.Name, result)
	p.logger.InfoContext(ctx, "upsert finished",
		"table", spec.Name,
		"mode", spec.Mode.String(),
		"written", result.Written,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

func (p *UpsertPipeline) writeBatch(ctx context.Context, spec storage.TableSpec, batch []any) (UpsertResult, error) {
	err := p.retry.Do(ctx, func(ctx context.Context) error {
		return p.writer.WriteRecords(ctx, spec, batch)
	})
	if err == nil {
		return UpsertResult{Written: len(batch)}, nil
	}
	if fatal := p.fatal(ctx, spec, err); fatal != nil {
		return UpsertResult{}, fatal
	}

	p.logger.WarnContext(ctx, "batch write failed, retrying row by row",
		"table", spec.Name,
		"batch_size", len(batch),
		"error", err,
	)

	var result UpsertResult
	for _, record := range batch {
		rowErr := p.retry.Do(ctx, func(ctx context.Context) error {
			return p.writer.WriteRecords(ctx, spec, []any{record})
		})
		switch {
		case rowErr == nil:
			result.Written++
		case storage.IsDuplicate(rowErr):
			result.Skipped++
			p.logger.DebugContext(ctx, "duplicate record skipped", "table", spec.Name, "record", recordKey(record))
		default:
			if fatal := p.fatal(ctx, spec, rowErr); fatal != nil {
				return result, fatal
			}
			result.Failed++
			p.logger.WarnContext(ctx, "record write failed",
				"table", spec.Name,
				"record", recordKey(record),
				"error", rowErr,
			)
		}
	}
	return result, nil
}

// fatal reports the errors that stop the whole run instead of a single row.
func (p *UpsertPipeline) fatal(ctx context.Context, spec storage.TableSpec, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if storage.IsTableNotFound(err) {
		return fmt.Errorf("%w: table %s: %w", ErrConfiguration, spec.Name, err)
	}
	return nil
}

func (p *UpsertPipeline) record(table string, result UpsertResult) {
	p.metrics.AddRecords(table, OutcomeWritten, result.Written)
	p.metrics.AddRecords(table, OutcomeSkipped, result.Skipped)
	p.metrics.AddRecords(table, OutcomeFailed, result.Failed)
}

func recordKey(record any) string {
	switch v := record.(type) {
	case team.Team:
		return fmt.Sprintf("team id=%d slug=%s", v.ID, v.Slug)
	case fixture.Fixture:
		return fmt.Sprintf("fixture id=%d", v.ID)
	case competition.Competition:
		return fmt.Sprintf("competition id=%d", v.ID)
	case broadcast.Broadcast:
		return fmt.Sprintf("broadcast fixture_id=%d", v.FixtureID)
	case broadcast.Provider:
		return fmt.Sprintf("provider id=%d", v.ID)
	default:
		return fmt.Sprintf("%T", record)
	}
}

// Records converts a typed slice for the pipeline.
func Records[T any](items []T) []any {
	out := make([]any, len(items))
	for i := range items {
		out[i] = items[i]
	}
	return out
}
