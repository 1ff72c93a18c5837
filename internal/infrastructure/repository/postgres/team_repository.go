package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fixture-sync/internal/domain/team"
	"github.com/riskibarqy/fixture-sync/internal/infrastructure/repository/rowmodel"
	qb "github.com/riskibarqy/fixture-sync/internal/platform/querybuilder"
	"github.com/riskibarqy/fixture-sync/internal/platform/storage"
)

var teamColumns = []string{
	"id", "name", "short_name", "tla", "slug", "competition_id",
	"crest_url", "venue", "founded", "club_colors", "website",
}

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) GetByName(ctx context.Context, name string) (team.Team, bool, error) {
	return r.getOne(ctx, qb.Eq("name", strings.TrimSpace(name)))
}

func (r *TeamRepository) GetBySlug(ctx context.Context, slug string) (team.Team, bool, error) {
	return r.getOne(ctx, qb.Eq("slug", slug))
}

func (r *TeamRepository) getOne(ctx context.Context, cond qb.Condition) (team.Team, bool, error) {
	query, args, err := qb.Select(teamColumns...).From(storage.TableTeams).
		Where(cond).
		OrderBy("id").
		Limit(1).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team query: %w", err)
	}

	var row rowmodel.Team
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, mapError(storage.TableTeams, err)
	}
	return row.ToDomain(), true, nil
}

func (r *TeamRepository) ListByIDs(ctx context.Context, ids []int64) ([]team.Team, error) {
	if len(ids) == 0 {
		return []team.Team{}, nil
	}
	values := make([]any, 0, len(ids))
	for _, id := range ids {
		values = append(values, id)
	}

	query, args, err := qb.Select(teamColumns...).From(storage.TableTeams).
		Where(qb.In("id", values)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams by ids query: %w", err)
	}

	var rows []rowmodel.Team
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapError(storage.TableTeams, err)
	}
	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

// Create inserts t and returns the stored row. On a slug conflict the
// no-op update makes RETURNING yield the existing row.
func (r *TeamRepository) Create(ctx context.Context, t team.Team) (team.Team, error) {
	row := rowmodel.FromTeam(t)
	insert := qb.InsertInto(storage.TableTeams)
	if row.ID > 0 {
		insert.Columns("id", "name", "short_name", "tla", "slug", "competition_id", "crest_url", "venue", "founded", "club_colors", "website").
			Values(row.ID, row.Name, row.ShortName, row.TLA, row.Slug, row.CompetitionID, row.CrestURL, row.Venue, row.Founded, row.ClubColors, row.Website)
	} else {
		insert.Columns("name", "short_name", "tla", "slug", "competition_id", "crest_url", "venue", "founded", "club_colors", "website").
			Values(row.Name, row.ShortName, row.TLA, row.Slug, row.CompetitionID, row.CrestURL, row.Venue, row.Founded, row.ClubColors, row.Website)
	}
	query, args, err := insert.
		Suffix("ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug RETURNING " + strings.Join(teamColumns, ", ")).
		ToSQL()
	if err != nil {
		return team.Team{}, fmt.Errorf("build insert team query: %w", err)
	}

	var stored rowmodel.Team
	if err := r.db.GetContext(ctx, &stored, query, args...); err != nil {
		return team.Team{}, mapError(storage.TableTeams, err)
	}
	return stored.ToDomain(), nil
}

func (r *TeamRepository) CountByCompetition(ctx context.Context, competitionID int64) (int, error) {
	return count(ctx, r.db, storage.TableTeams, qb.Eq("competition_id", competitionID))
}

func count(ctx context.Context, db *sqlx.DB, table string, conditions ...qb.Condition) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From(table).Where(conditions...).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count %s query: %w", table, err)
	}
	var n int
	if err := db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, mapError(table, err)
	}
	return n, nil
}
