package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
	"github.com/riskibarqy/fixture-sync/internal/domain/team"
	"github.com/riskibarqy/fixture-sync/internal/platform/logging"
)

type LiveLinkResult struct {
	Candidates int
	Remote     int
	Linked     int
	Unmatched  int
	Errors     int
}

// LiveLinkService stores the live-score provider's ID on local fixtures so
// the live-score loop can track them.
type LiveLinkService struct {
	fixtureRepo fixture.Repository
	teamRepo    team.Repository
	live        LiveScoreProvider
	logger      *logging.Logger
	serviceRuntime
}

func NewLiveLinkService(fixtureRepo fixture.Repository, teamRepo team.Repository, live LiveScoreProvider, logger *logging.Logger, opts ...ServiceOption) *LiveLinkService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LiveLinkService{
		fixtureRepo:    fixtureRepo,
		teamRepo:       teamRepo,
		live:           live,
		logger:         logger,
		serviceRuntime: newRuntime(opts),
	}
}

// Link matches the day's unlinked fixtures to live-score fixtures by kickoff
// day and alias-normalized team slugs.
func (s *LiveLinkService) Link(ctx context.Context, day time.Time) (result LiveLinkResult, err error) {
	if s.live == nil {
		return LiveLinkResult{}, fmt.Errorf("%w: live score provider is not configured", ErrConfiguration)
	}

	ctx = startRun(ctx)
	started := s.now()
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveLinkService.Link")
	defer func() {
		endSpan(span, err)
		s.metrics.ObservePass("link", s.now().Sub(started), err)
	}()

	dayStart := day.UTC().Truncate(24 * time.Hour)
	local, err := s.fixtureRepo.ListByKickoff(ctx, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return result, fmt.Errorf("list fixtures for %s: %w", dayStart.Format(time.DateOnly), err)
	}
	candidates := make([]fixture.Fixture, 0, len(local))
	for _, item := range local {
		if item.LiveProviderID == nil {
			candidates = append(candidates, item)
		}
	}
	result.Candidates = len(candidates)
	if len(candidates) == 0 {
		return result, nil
	}

	remote, err := s.live.ListByDate(ctx, dayStart)
	if err != nil {
		return result, fmt.Errorf("%w: list live fixtures for %s: %w", ErrDependencyUnavailable, dayStart.Format(time.DateOnly), err)
	}
	result.Remote = len(remote)

	byPair := make(map[string]int64, len(remote))
	ambiguous := make(map[string]struct{})
	for _, match := range remote {
		if !sameDay(match.KickoffUTC, dayStart) {
			continue
		}
		key := pairKey(TeamSlug(match.HomeName), TeamSlug(match.AwayName))
		if _, dup := byPair[key]; dup {
			ambiguous[key] = struct{}{}
			continue
		}
		byPair[key] = match.ProviderID
	}

	slugs, err := s.teamSlugs(ctx, candidates)
	if err != nil {
		return result, err
	}

	// A pair that repeats locally cannot tell its fixtures apart either.
	localPairs := make(map[string]int, len(candidates))
	for _, item := range candidates {
		localPairs[pairKey(slugs[item.HomeTeamID], slugs[item.AwayTeamID])]++
	}

	for _, item := range candidates {
		key := pairKey(slugs[item.HomeTeamID], slugs[item.AwayTeamID])
		liveID, ok := byPair[key]
		if _, amb := ambiguous[key]; !ok || amb || localPairs[key] > 1 {
			result.Unmatched++
			s.logger.DebugContext(ctx, "no live fixture for local fixture", "fixture_id", item.ID, "pair", key, "local_count", localPairs[key])
			continue
		}
		if err := s.fixtureRepo.SetLiveProviderID(ctx, item.ID, liveID); err != nil {
			result.Errors++
			s.logger.WarnContext(ctx, "set live provider id failed", "fixture_id", item.ID, "live_id", liveID, "error", err)
			continue
		}
		result.Linked++
	}

	s.logger.InfoContext(ctx, "live id linking finished",
		"day", dayStart.Format(time.DateOnly),
		"candidates", result.Candidates,
		"remote", result.Remote,
		"linked", result.Linked,
		"unmatched", result.Unmatched,
		"errors", result.Errors,
	)
	return result, nil
}

func (s *LiveLinkService) teamSlugs(ctx context.Context, items []fixture.Fixture) (map[int64]string, error) {
	ids := make([]int64, 0, len(items)*2)
	for _, item := range items {
		ids = append(ids, item.HomeTeamID, item.AwayTeamID)
	}
	teams, err := s.teamRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list fixture teams: %w", err)
	}
	out := make(map[int64]string, len(teams))
	for _, t := range teams {
		out[t.ID] = TeamSlug(t.Name)
	}
	return out, nil
}

func pairKey(home, away string) string {
	return home + "|" + away
}

func sameDay(t, dayStart time.Time) bool {
	if t.IsZero() {
		return true
	}
	u := t.UTC()
	return !u.Before(dayStart) && u.Before(dayStart.Add(24*time.Hour))
}
