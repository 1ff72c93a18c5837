// Package rowmodel maps domain records to the canonical store's row shapes.
// The same structs serve the SQL backend (db tags) and the REST backend
// (json tags).
package rowmodel

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/fixture-sync/internal/domain/broadcast"
	"github.com/riskibarqy/fixture-sync/internal/domain/competition"
	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
	"github.com/riskibarqy/fixture-sync/internal/domain/team"
	"github.com/riskibarqy/fixture-sync/internal/platform/storage"
)

type Competition struct {
	ID         int64  `db:"id" json:"id"`
	ProviderID int64  `db:"provider_id" json:"provider_id"`
	Code       string `db:"code" json:"code"`
	Name       string `db:"name" json:"name"`
	Slug       string `db:"slug" json:"slug"`
	Type       string `db:"type" json:"type"`
	Season     string `db:"season" json:"season"`
	IsActive   bool   `db:"is_active" json:"is_active"`
}

// Team is the written shape of a team. CompetitionID is nil for teams that
// must not be re-owned by the writing competition.
type Team struct {
	ID            int64   `db:"id" json:"id,omitempty"`
	Name          string  `db:"name" json:"name"`
	ShortName     *string `db:"short_name" json:"short_name"`
	TLA           *string `db:"tla" json:"tla"`
	Slug          string  `db:"slug" json:"slug"`
	CompetitionID *int64  `db:"competition_id" json:"competition_id,omitempty"`
	CrestURL      *string `db:"crest_url" json:"crest_url"`
	Venue         *string `db:"venue" json:"venue"`
	Founded       *int    `db:"founded" json:"founded"`
	ClubColors    *string `db:"club_colors" json:"club_colors"`
	Website       *string `db:"website" json:"website"`
}

// Fixture is the written shape of a fixture. Live-loop columns are not part
// of it so re-imports never clear them.
type Fixture struct {
	ID            int64     `db:"id" json:"id"`
	CompetitionID int64     `db:"competition_id" json:"competition_id"`
	HomeTeamID    int64     `db:"home_team_id" json:"home_team_id"`
	AwayTeamID    int64     `db:"away_team_id" json:"away_team_id"`
	KickoffUTC    time.Time `db:"kickoff_utc" json:"kickoff_utc"`
	Status        string    `db:"status" json:"status"`
	Matchday      *int      `db:"matchday" json:"matchday"`
	Stage         *string   `db:"stage" json:"stage"`
	Round         *string   `db:"round" json:"round"`
	HomeScore     *int      `db:"home_score" json:"home_score"`
	AwayScore     *int      `db:"away_score" json:"away_score"`
}

// FixtureState is a full fixture row as read back from the store.
type FixtureState struct {
	Fixture
	LiveProviderID *int64     `db:"live_provider_id" json:"live_provider_id"`
	LastSyncedAt   *time.Time `db:"last_synced_at" json:"last_synced_at"`
}

type Broadcast struct {
	FixtureID  int64 `db:"fixture_id" json:"fixture_id"`
	ProviderID int64 `db:"provider_id" json:"provider_id"`
}

type Provider struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	Slug       string `db:"slug" json:"slug"`
	BrandColor string `db:"brand_color" json:"brand_color"`
}

// Encode converts one domain record into the row written to table.
func Encode(table string, record any) (any, error) {
	switch table {
	case storage.TableCompetitions:
		if v, ok := record.(competition.Competition); ok {
			return FromCompetition(v), nil
		}
	case storage.TableTeams:
		if v, ok := record.(team.Team); ok {
			return FromTeam(v), nil
		}
	case storage.TableFixtures:
		if v, ok := record.(fixture.Fixture); ok {
			return FromFixture(v), nil
		}
	case storage.TableBroadcasts:
		if v, ok := record.(broadcast.Broadcast); ok {
			return Broadcast{FixtureID: v.FixtureID, ProviderID: v.ProviderID}, nil
		}
	case storage.TableBroadcastProviders:
		if v, ok := record.(broadcast.Provider); ok {
			return Provider{ID: v.ID, Name: v.Name, Slug: v.Slug, BrandColor: v.BrandColor}, nil
		}
	default:
		return nil, fmt.Errorf("%w: %s", storage.ErrTableNotFound, table)
	}
	return nil, fmt.Errorf("table %s does not accept %T", table, record)
}

// EncodeAll converts records in order; the first failure aborts.
func EncodeAll(table string, records []any) ([]any, error) {
	out := make([]any, 0, len(records))
	for i, record := range records {
		row, err := Encode(table, record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, row)
	}
	return out, nil
}

// Key returns a short identifier of record for logs.
func Key(record any) string {
	switch v := record.(type) {
	case competition.Competition:
		return fmt.Sprintf("competition:%d", v.ID)
	case team.Team:
		return "team:" + v.Slug
	case fixture.Fixture:
		return fmt.Sprintf("fixture:%d", v.ID)
	case broadcast.Broadcast:
		return fmt.Sprintf("broadcast:%d", v.FixtureID)
	case broadcast.Provider:
		return fmt.Sprintf("provider:%d", v.ID)
	default:
		return fmt.Sprintf("%T", record)
	}
}

func FromCompetition(c competition.Competition) Competition {
	return Competition{
		ID:         c.ID,
		ProviderID: c.ProviderID,
		Code:       c.Code,
		Name:       c.Name,
		Slug:       c.Slug,
		Type:       string(c.Type),
		Season:     c.Season,
		IsActive:   c.IsActive,
	}
}

func FromTeam(t team.Team) Team {
	row := Team{
		ID:         t.ID,
		Name:       t.Name,
		ShortName:  optionalString(t.ShortName),
		TLA:        optionalString(t.TLA),
		Slug:       t.Slug,
		CrestURL:   optionalString(t.CrestURL),
		Venue:      optionalString(t.Venue),
		ClubColors: optionalString(t.ClubColors),
		Website:    optionalString(t.Website),
	}
	if t.CompetitionID > 0 {
		id := t.CompetitionID
		row.CompetitionID = &id
	}
	if t.Founded > 0 {
		founded := t.Founded
		row.Founded = &founded
	}
	return row
}

func (r Team) ToDomain() team.Team {
	out := team.Team{
		ID:         r.ID,
		Name:       r.Name,
		ShortName:  deref(r.ShortName),
		TLA:        deref(r.TLA),
		Slug:       r.Slug,
		CrestURL:   deref(r.CrestURL),
		Venue:      deref(r.Venue),
		ClubColors: deref(r.ClubColors),
		Website:    deref(r.Website),
	}
	if r.CompetitionID != nil {
		out.CompetitionID = *r.CompetitionID
	}
	if r.Founded != nil {
		out.Founded = *r.Founded
	}
	return out
}

func FromFixture(f fixture.Fixture) Fixture {
	return Fixture{
		ID:            f.ID,
		CompetitionID: f.CompetitionID,
		HomeTeamID:    f.HomeTeamID,
		AwayTeamID:    f.AwayTeamID,
		KickoffUTC:    f.KickoffUTC.UTC(),
		Status:        string(f.Status),
		Matchday:      f.Matchday,
		Stage:         optionalString(f.Stage),
		Round:         optionalString(f.Round),
		HomeScore:     f.HomeScore,
		AwayScore:     f.AwayScore,
	}
}

func (r FixtureState) ToDomain() fixture.Fixture {
	return fixture.Fixture{
		ID:             r.ID,
		CompetitionID:  r.CompetitionID,
		HomeTeamID:     r.HomeTeamID,
		AwayTeamID:     r.AwayTeamID,
		KickoffUTC:     r.KickoffUTC.UTC(),
		Status:         fixture.Status(r.Status),
		Matchday:       r.Matchday,
		Stage:          deref(r.Stage),
		Round:          deref(r.Round),
		LiveProviderID: r.LiveProviderID,
		HomeScore:      r.HomeScore,
		AwayScore:      r.AwayScore,
		LastSyncedAt:   r.LastSyncedAt,
	}
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
