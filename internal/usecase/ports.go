package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/fixture-sync/internal/domain/broadcast"
	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
	"github.com/riskibarqy/fixture-sync/internal/domain/team"
	"github.com/riskibarqy/fixture-sync/internal/platform/storage"
)

// ProviderCompetition is the fixtures provider's view of a competition.
type ProviderCompetition struct {
	ProviderID int64
	Code       string
	Name       string
	Type       string
	Season     string
}

// ProviderTeam is a team as listed by the fixtures provider.
type ProviderTeam struct {
	ProviderID int64
	Name       string
	ShortName  string
	TLA        string
	CrestURL   string
	Venue      string
	Founded    int
	ClubColors string
	Website    string
}

// ProviderMatch is a match as listed by the fixtures provider. Status is the
// provider's raw value.
type ProviderMatch struct {
	ProviderID int64
	KickoffUTC time.Time
	Status     string
	Matchday   *int
	Stage      string
	Group      string
	Home       team.Ref
	Away       team.Ref
	HomeScore  *int
	AwayScore  *int
}

// LiveMatch is an in-play match from the live-score provider.
type LiveMatch struct {
	ProviderID int64
	Status     fixture.Status
	HomeScore  *int
	AwayScore  *int
}

// ScheduledLiveMatch is a live-score provider fixture used to link IDs.
type ScheduledLiveMatch struct {
	ProviderID int64
	KickoffUTC time.Time
	HomeName   string
	AwayName   string
}

type FixtureProvider interface {
	GetCompetition(ctx context.Context, providerID int64) (ProviderCompetition, error)
	ListTeams(ctx context.Context, providerID int64, season string) ([]ProviderTeam, error)
	ListMatches(ctx context.Context, providerID int64, season string) ([]ProviderMatch, error)
}

type LiveScoreProvider interface {
	ListInPlay(ctx context.Context) ([]LiveMatch, error)
	ListByDate(ctx context.Context, day time.Time) ([]ScheduledLiveMatch, error)
}

// BroadcastSource returns raw broadcaster listings for one fixture.
// Fixtures the source cannot key return ErrNoBroadcastKey.
type BroadcastSource interface {
	ListBroadcasts(ctx context.Context, f fixture.Fixture) ([]broadcast.Entry, error)
}

// RecordWriter writes a batch of domain records into one table in a single
// request. Backends map records to their own row models.
type RecordWriter interface {
	WriteRecords(ctx context.Context, spec storage.TableSpec, records []any) error
}
