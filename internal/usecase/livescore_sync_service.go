package usecase

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
	"github.com/riskibarqy/fixture-sync/internal/platform/logging"
)

type LiveSyncResult struct {
	Tracked int
	InPlay  int
	Updated int
	Errors  int
	// Disabled is set when a switch kept the pass from running.
	Disabled bool
}

// LiveScoreSwitches are the two gates of the live-score loop: the data
// source and the feature itself.
type LiveScoreSwitches struct {
	SourceEnabled  bool
	FeatureEnabled bool
}

func (s LiveScoreSwitches) Active() bool {
	return s.SourceEnabled && s.FeatureEnabled
}

// LiveScoreSyncService copies in-play status and scores onto today's
// fixtures that carry a live-score provider ID.
type LiveScoreSyncService struct {
	fixtureRepo fixture.Repository
	live        LiveScoreProvider
	switches    LiveScoreSwitches
	delay       time.Duration
	logger      *logging.Logger
	serviceRuntime
}

func NewLiveScoreSyncService(
	fixtureRepo fixture.Repository,
	live LiveScoreProvider,
	switches LiveScoreSwitches,
	delay time.Duration,
	logger *logging.Logger,
	opts ...ServiceOption,
) *LiveScoreSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LiveScoreSyncService{
		fixtureRepo:    fixtureRepo,
		live:           live,
		switches:       switches,
		delay:          delay,
		logger:         logger,
		serviceRuntime: newRuntime(opts),
	}
}

func (s *LiveScoreSyncService) Active() bool {
	return s.switches.Active() && s.live != nil
}

// Run performs one pass. A failed in-play fetch fails the pass; a failed
// row update is counted and the pass goes on.
func (s *LiveScoreSyncService) Run(ctx context.Context) (result LiveSyncResult, err error) {
	if !s.Active() {
		s.logger.InfoContext(ctx, "live score sync disabled",
			"source_enabled", s.switches.SourceEnabled,
			"feature_enabled", s.switches.FeatureEnabled,
		)
		return LiveSyncResult{Disabled: true}, nil
	}

	ctx = startRun(ctx)
	started := s.now()
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveScoreSyncService.Run")
	defer func() {
		span.SetAttributes(attribute.Int("updated", result.Updated), attribute.Int("errors", result.Errors))
		endSpan(span, err)
		s.metrics.ObservePass("livescores", s.now().Sub(started), err)
	}()

	dayStart := started.UTC().Truncate(24 * time.Hour)
	tracked, err := s.fixtureRepo.ListLiveTracked(ctx, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return result, fmt.Errorf("list live tracked fixtures: %w", err)
	}
	result.Tracked = len(tracked)
	if len(tracked) == 0 {
		s.logger.DebugContext(ctx, "no live tracked fixtures today")
		return result, nil
	}

	inPlay, err := s.live.ListInPlay(ctx)
	if err != nil {
		return result, fmt.Errorf("%w: list in-play matches: %w", ErrDependencyUnavailable, err)
	}
	result.InPlay = len(inPlay)
	if len(inPlay) == 0 {
		s.logger.DebugContext(ctx, "no matches in play", "tracked", len(tracked))
		return result, nil
	}

	byLiveID := make(map[int64]LiveMatch, len(inPlay))
	for _, match := range inPlay {
		byLiveID[match.ProviderID] = match
	}

	for _, item := range tracked {
		if item.LiveProviderID == nil {
			continue
		}
		match, ok := byLiveID[*item.LiveProviderID]
		if !ok {
			continue
		}
		if result.Updated+result.Errors > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				return result, err
			}
		}

		update := fixture.LiveUpdate{
			Status:    match.Status,
			HomeScore: match.HomeScore,
			AwayScore: match.AwayScore,
			SyncedAt:  s.now().UTC(),
		}
		if err := s.fixtureRepo.UpdateLiveState(ctx, item.ID, update); err != nil {
			result.Errors++
			s.logger.WarnContext(ctx, "update live state failed", "fixture_id", item.ID, "live_id", match.ProviderID, "error", err)
			continue
		}
		result.Updated++
	}

	s.logger.InfoContext(ctx, "live score pass finished",
		"tracked", result.Tracked,
		"in_play", result.InPlay,
		"updated", result.Updated,
		"errors", result.Errors,
	)
	return result, nil
}
