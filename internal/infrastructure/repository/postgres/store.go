// Package postgres is the canonical store backed directly by Postgres
// through sqlx and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/riskibarqy/fixture-sync/internal/infrastructure/repository/rowmodel"
	qb "github.com/riskibarqy/fixture-sync/internal/platform/querybuilder"
	"github.com/riskibarqy/fixture-sync/internal/platform/storage"
)

// coalescedColumns keep the stored value when a merged row carries NULL.
var coalescedColumns = map[string][]string{
	storage.TableTeams:    {"competition_id"},
	storage.TableFixtures: {"home_score", "away_score"},
}

type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// WriteRecords inserts records into spec.Name with one multi-row statement.
func (s *Store) WriteRecords(ctx context.Context, spec storage.TableSpec, records []any) error {
	if len(records) == 0 {
		return nil
	}
	rows, err := rowmodel.EncodeAll(spec.Name, records)
	if err != nil {
		return err
	}
	if spec.Name == storage.TableTeams {
		for _, row := range rows {
			if row.(rowmodel.Team).ID <= 0 {
				return fmt.Errorf("teams: batch rows need an id, use Create for new teams")
			}
		}
	}

	suffix, err := conflictSuffix(spec, rows[0])
	if err != nil {
		return err
	}
	query, args, err := qb.InsertModels(spec.Name, rows, suffix)
	if err != nil {
		return fmt.Errorf("build insert %s query: %w", spec.Name, err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return mapError(spec.Name, err)
	}
	return nil
}

func conflictSuffix(spec storage.TableSpec, sample any) (string, error) {
	if spec.Mode == storage.ConflictReject || len(spec.Conflict) == 0 {
		return "", nil
	}
	columns, err := qb.ModelColumns(sample)
	if err != nil {
		return "", err
	}

	coalesced := coalescedColumns[spec.Name]
	update := make([]string, 0, len(columns))
	for _, col := range columns {
		if col == "id" || slices.Contains(spec.Conflict, col) || slices.Contains(coalesced, col) {
			continue
		}
		update = append(update, col)
	}

	suffix := qb.OnConflictDoUpdate(spec.Conflict, update)
	for _, col := range coalesced {
		suffix += fmt.Sprintf(", %s = COALESCE(EXCLUDED.%s, %s.%s)", col, col, spec.Name, col)
	}
	return suffix, nil
}

// mapError converts driver errors into storage errors carrying the SQLSTATE.
func mapError(table string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if crerr.As(err, &pqErr) {
		return storage.Classify(&storage.Error{
			Table:   table,
			Code:    string(pqErr.Code),
			Message: pqErr.Message,
		})
	}
	return fmt.Errorf("%s: %w", table, err)
}

func isNotFound(err error) bool {
	return crerr.Is(err, sql.ErrNoRows)
}
