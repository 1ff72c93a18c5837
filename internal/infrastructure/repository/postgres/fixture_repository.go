package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
	"github.com/riskibarqy/fixture-sync/internal/infrastructure/repository/rowmodel"
	qb "github.com/riskibarqy/fixture-sync/internal/platform/querybuilder"
	"github.com/riskibarqy/fixture-sync/internal/platform/storage"
)

var fixtureColumns = []string{
	"id", "competition_id", "home_team_id", "away_team_id", "kickoff_utc", "status",
	"matchday", "stage", "round", "home_score", "away_score", "live_provider_id", "last_synced_at",
}

type FixtureRepository struct {
	db *sqlx.DB
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

func (r *FixtureRepository) ListByKickoff(ctx context.Context, from, to time.Time) ([]fixture.Fixture, error) {
	return r.list(ctx, qb.Gte("kickoff_utc", from.UTC()), qb.Lt("kickoff_utc", to.UTC()))
}

func (r *FixtureRepository) ListLiveTracked(ctx context.Context, from, to time.Time) ([]fixture.Fixture, error) {
	return r.list(ctx, qb.Gte("kickoff_utc", from.UTC()), qb.Lt("kickoff_utc", to.UTC()), qb.NotNull("live_provider_id"))
}

func (r *FixtureRepository) list(ctx context.Context, conditions ...qb.Condition) ([]fixture.Fixture, error) {
	query, args, err := qb.Select(fixtureColumns...).From(storage.TableFixtures).
		Where(conditions...).
		OrderBy("kickoff_utc", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select fixtures query: %w", err)
	}

	var rows []rowmodel.FixtureState
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapError(storage.TableFixtures, err)
	}
	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

func (r *FixtureRepository) UpdateLiveState(ctx context.Context, id int64, update fixture.LiveUpdate) error {
	query, args, err := qb.Update(storage.TableFixtures).
		Set("status", string(update.Status)).
		SetExpr("home_score", "COALESCE(?, home_score)", update.HomeScore).
		SetExpr("away_score", "COALESCE(?, away_score)", update.AwayScore).
		Set("last_synced_at", update.SyncedAt.UTC()).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update fixture live state query: %w", err)
	}
	return r.execOne(ctx, id, query, args)
}

func (r *FixtureRepository) SetLiveProviderID(ctx context.Context, id, liveProviderID int64) error {
	query, args, err := qb.Update(storage.TableFixtures).
		Set("live_provider_id", liveProviderID).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update fixture live id query: %w", err)
	}
	return r.execOne(ctx, id, query, args)
}

func (r *FixtureRepository) execOne(ctx context.Context, id int64, query string, args []any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(storage.TableFixtures, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("fixture id=%d rows affected: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("fixture id=%d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (r *FixtureRepository) CountByCompetition(ctx context.Context, competitionID int64) (int, error) {
	return count(ctx, r.db, storage.TableFixtures, qb.Eq("competition_id", competitionID))
}
