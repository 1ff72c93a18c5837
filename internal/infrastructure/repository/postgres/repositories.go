package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fixture-sync/internal/domain/competition"
	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
	"github.com/riskibarqy/fixture-sync/internal/domain/team"
	"github.com/riskibarqy/fixture-sync/internal/platform/storage"
)

var (
	_ team.Repository        = (*TeamRepository)(nil)
	_ fixture.Repository     = (*FixtureRepository)(nil)
	_ competition.Repository = (*CompetitionRepository)(nil)
)

type CompetitionRepository struct {
	store *Store
}

func NewCompetitionRepository(db *sqlx.DB) *CompetitionRepository {
	return &CompetitionRepository{store: NewStore(db)}
}

func (r *CompetitionRepository) Upsert(ctx context.Context, c competition.Competition) error {
	return r.store.WriteRecords(ctx, storage.TableSpec{Name: storage.TableCompetitions, Conflict: []string{"id"}}, []any{c})
}
