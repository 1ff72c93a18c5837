package usecase

import (
	"strings"

	"github.com/riskibarqy/fixture-sync/internal/domain/competition"
	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
)

var providerStatuses = map[string]fixture.Status{
	"SCHEDULED": fixture.StatusScheduled,
	"TIMED":     fixture.StatusScheduled,
	"IN_PLAY":   fixture.StatusLive,
	"LIVE":      fixture.StatusLive,
	"PAUSED":    fixture.StatusLive, // half-time
	"FINISHED":  fixture.StatusFinished,
	"AWARDED":   fixture.StatusFinished,
	"POSTPONED": fixture.StatusPostponed,
	"SUSPENDED": fixture.StatusSuspended,
	"CANCELLED": fixture.StatusCanceled,
	"CANCELED":  fixture.StatusCanceled,
}

// NormalizeStatus maps a fixtures provider status onto the canonical set.
// Unknown values pass through lower-cased.
func NormalizeStatus(raw string) fixture.Status {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return fixture.StatusScheduled
	}
	if status, ok := providerStatuses[value]; ok {
		return status
	}
	return fixture.Status(strings.ToLower(value))
}

// TransformMatch builds the canonical fixture for match. ok is false when a
// team or the kickoff cannot be resolved, or when both sides resolve to the
// same team.
func TransformMatch(match ProviderMatch, cfg competition.Config, teams TeamIndex) (fixture.Fixture, bool) {
	homeID, ok := teams.Lookup(match.Home)
	if !ok {
		return fixture.Fixture{}, false
	}
	awayID, ok := teams.Lookup(match.Away)
	if !ok {
		return fixture.Fixture{}, false
	}

	out := fixture.Fixture{
		ID:            match.ProviderID,
		CompetitionID: cfg.ID,
		HomeTeamID:    homeID,
		AwayTeamID:    awayID,
		KickoffUTC:    match.KickoffUTC.UTC(),
		Status:        NormalizeStatus(match.Status),
		HomeScore:     match.HomeScore,
		AwayScore:     match.AwayScore,
	}

	switch cfg.Type {
	case competition.TypeLeague:
		out.Matchday = match.Matchday
	case competition.TypeCup:
		out.Stage = strings.TrimSpace(match.Stage)
		out.Round = strings.TrimSpace(match.Group)
		if out.Round == "" {
			out.Round = out.Stage
		}
	}

	if cfg.Hooks.Fixture != nil {
		cfg.Hooks.Fixture(&out)
	}
	if err := out.Validate(); err != nil {
		return fixture.Fixture{}, false
	}
	return out, true
}
