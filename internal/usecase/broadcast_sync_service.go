package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fixture-sync/internal/domain/broadcast"
	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
	"github.com/riskibarqy/fixture-sync/internal/platform/logging"
	"github.com/riskibarqy/fixture-sync/internal/platform/storage"
)

const broadcastChunkSize = 100

type BroadcastSyncResult struct {
	Fixtures    int
	Televised   int
	Blackouts   int
	NoKey       int
	FetchErrors int
	Upsert      UpsertResult
}

// BroadcastSyncService assigns a UK broadcaster to every upcoming fixture.
type BroadcastSyncService struct {
	fixtureRepo fixture.Repository
	source      BroadcastSource
	resolver    *BroadcastResolver
	pipeline    *UpsertPipeline
	delay       time.Duration
	logger      *logging.Logger
	serviceRuntime
}

func NewBroadcastSyncService(
	fixtureRepo fixture.Repository,
	source BroadcastSource,
	resolver *BroadcastResolver,
	pipeline *UpsertPipeline,
	delay time.Duration,
	logger *logging.Logger,
	opts ...ServiceOption,
) *BroadcastSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &BroadcastSyncService{
		fixtureRepo:    fixtureRepo,
		source:         source,
		resolver:       resolver,
		pipeline:       pipeline,
		delay:          delay,
		logger:         logger,
		serviceRuntime: newRuntime(opts),
	}
}

// EnsureProviders writes the closed broadcaster set so broadcast rows can
// reference it.
func (s *BroadcastSyncService) EnsureProviders(ctx context.Context) (UpsertResult, error) {
	return s.pipeline.UpsertAll(ctx, storage.TableBroadcastProviders, Records(broadcast.Providers()), broadcastChunkSize)
}

// Sync resolves broadcasters for fixtures kicking off within window from
// now. Fetch failures are counted per fixture and never abort the run.
func (s *BroadcastSyncService) Sync(ctx context.Context, window time.Duration) (result BroadcastSyncResult, err error) {
	if window <= 0 {
		return BroadcastSyncResult{}, fmt.Errorf("%w: broadcast window must be positive", ErrInvalidInput)
	}
	if s.source == nil {
		return BroadcastSyncResult{}, fmt.Errorf("%w: broadcast source is not configured", ErrConfiguration)
	}

	ctx = startRun(ctx)
	started := s.now()
	ctx, span := startUsecaseSpan(ctx, "usecase.BroadcastSyncService.Sync", attribute.String("window", window.String()))
	defer func() {
		endSpan(span, err)
		s.metrics.ObservePass("broadcasts", s.now().Sub(started), err)
	}()

	if _, err := s.EnsureProviders(ctx); err != nil {
		return result, fmt.Errorf("ensure broadcast providers: %w", err)
	}

	from := started.UTC()
	fixtures, err := s.fixtureRepo.ListByKickoff(ctx, from, from.Add(window))
	if err != nil {
		return result, fmt.Errorf("list upcoming fixtures: %w", err)
	}
	result.Fixtures = len(fixtures)
	if len(fixtures) == 0 {
		s.logger.InfoContext(ctx, "no upcoming fixtures for broadcast sync", "from", from, "window", window.String())
		return result, nil
	}

	assignments := make([]broadcast.Broadcast, 0, len(fixtures))
	for i, item := range fixtures {
		if i > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				return result, err
			}
		}

		entries, fetchErr := s.source.ListBroadcasts(ctx, item)
		switch {
		case errors.Is(fetchErr, ErrNoBroadcastKey):
			result.NoKey++
			s.logger.DebugContext(ctx, "fixture has no broadcast key", "fixture_id", item.ID)
			continue
		case fetchErr != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			result.FetchErrors++
			s.logger.WarnContext(ctx, "fetch broadcasts failed", "fixture_id", item.ID, "error", fetchErr)
			continue
		}

		assignment := s.resolver.ResolveForFixture(item.ID, entries)
		if assignment.ProviderID == broadcast.ProviderBlackout {
			result.Blackouts++
		} else {
			result.Televised++
		}
		assignments = append(assignments, assignment)
	}

	result.Upsert, err = s.pipeline.UpsertAll(ctx, storage.TableBroadcasts, Records(assignments), broadcastChunkSize)
	if err != nil {
		return result, fmt.Errorf("upsert broadcasts: %w", err)
	}

	s.logger.InfoContext(ctx, "broadcast sync finished",
		"fixtures", result.Fixtures,
		"televised", result.Televised,
		"blackouts", result.Blackouts,
		"no_key", result.NoKey,
		"fetch_errors", result.FetchErrors,
		"written", result.Upsert.Written,
		"failed", result.Upsert.Failed,
	)
	return result, nil
}
