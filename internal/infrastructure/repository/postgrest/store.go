package postgrest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/fixture-sync/internal/domain/competition"
	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
	"github.com/riskibarqy/fixture-sync/internal/domain/team"
	"github.com/riskibarqy/fixture-sync/internal/infrastructure/repository/rowmodel"
	qb "github.com/riskibarqy/fixture-sync/internal/platform/querybuilder"
	"github.com/riskibarqy/fixture-sync/internal/platform/storage"
)

var (
	_ team.Repository        = (*TeamRepository)(nil)
	_ fixture.Repository     = (*FixtureRepository)(nil)
	_ competition.Repository = (*CompetitionRepository)(nil)
)

var (
	teamSelect    = []string{"id", "name", "short_name", "tla", "slug", "competition_id", "crest_url", "venue", "founded", "club_colors", "website"}
	fixtureSelect = []string{"id", "competition_id", "home_team_id", "away_team_id", "kickoff_utc", "status", "matchday", "stage", "round", "home_score", "away_score", "live_provider_id", "last_synced_at"}
)

// WriteRecords POSTs records to spec.Name as one JSON array. Merge specs
// send on_conflict with merge-duplicates; reject specs are plain inserts.
func (c *Client) WriteRecords(ctx context.Context, spec storage.TableSpec, records []any) error {
	if len(records) == 0 {
		return nil
	}
	rows, err := rowmodel.EncodeAll(spec.Name, records)
	if err != nil {
		return err
	}

	req := request{
		method: http.MethodPost,
		table:  spec.Name,
		query:  url.Values{},
		prefer: []string{"return=minimal"},
		body:   rows,
	}
	if spec.Mode == storage.ConflictMerge && len(spec.Conflict) > 0 {
		req.query.Set("on_conflict", spec.OnConflict())
		req.prefer = append([]string{"resolution=merge-duplicates"}, req.prefer...)
		if spec.Name == storage.TableTeams && spec.OnConflict() == "slug" {
			if err := c.keepStoredTeamIDs(ctx, rows); err != nil {
				return err
			}
		}
	}
	_, err = c.do(ctx, req)
	return err
}

// keepStoredTeamIDs rewrites each row's id to the one already stored under
// its slug. A merge on slug sets every sent column, so sending a different
// id would move the primary key out from under referencing fixtures.
func (c *Client) keepStoredTeamIDs(ctx context.Context, rows []any) error {
	slugs := make([]any, 0, len(rows))
	for _, row := range rows {
		slugs = append(slugs, row.(rowmodel.Team).Slug)
	}
	var stored []struct {
		ID   int64  `json:"id"`
		Slug string `json:"slug"`
	}
	query := qb.Select("id", "slug").From(storage.TableTeams).Where(qb.In("slug", slugs))
	if err := c.selectRows(ctx, query, &stored); err != nil {
		return fmt.Errorf("look up stored team ids: %w", err)
	}
	if len(stored) == 0 {
		return nil
	}

	ids := make(map[string]int64, len(stored))
	for _, row := range stored {
		ids[row.Slug] = row.ID
	}
	for i, row := range rows {
		t := row.(rowmodel.Team)
		if id, ok := ids[t.Slug]; ok && id != t.ID {
			t.ID = id
			rows[i] = t
		}
	}
	return nil
}

func (c *Client) selectRows(ctx context.Context, builder *qb.SelectBuilder, target any) error {
	table, values, err := builder.ToREST()
	if err != nil {
		return fmt.Errorf("build select query: %w", err)
	}
	resp, err := c.do(ctx, request{method: http.MethodGet, table: table, query: values})
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(resp.body, target); err != nil {
		return fmt.Errorf("decode %s rows: %w", table, err)
	}
	return nil
}

// count asks for an exact count over a zero-width range so no rows are
// transferred.
func (c *Client) count(ctx context.Context, table string, conditions ...qb.Condition) (int, error) {
	_, values, err := qb.Select("id").From(table).Where(conditions...).ToREST()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		table:  table,
		query:  values,
		prefer: []string{"count=exact"},
		header: map[string]string{"Range-Unit": "items", "Range": "0-0"},
	})
	if err != nil {
		return 0, err
	}
	return parseContentRangeTotal(resp.header.Get("Content-Range"))
}

// patch updates the row with id and fails with storage.ErrNotFound when no
// row matched.
func (c *Client) patch(ctx context.Context, table string, id int64, changes map[string]any) error {
	_, values, err := qb.Select("id").From(table).Where(qb.Eq("id", id)).ToREST()
	if err != nil {
		return fmt.Errorf("build patch filter: %w", err)
	}
	resp, err := c.do(ctx, request{
		method: http.MethodPatch,
		table:  table,
		query:  values,
		prefer: []string{"return=representation"},
		body:   changes,
	})
	if err != nil {
		return err
	}
	var updated []struct {
		ID int64 `json:"id"`
	}
	if err := sonic.Unmarshal(resp.body, &updated); err != nil {
		return fmt.Errorf("decode %s patch response: %w", table, err)
	}
	if len(updated) == 0 {
		return fmt.Errorf("%s id=%d: %w", table, id, storage.ErrNotFound)
	}
	return nil
}

type TeamRepository struct {
	client *Client
}

func NewTeamRepository(client *Client) *TeamRepository {
	return &TeamRepository{client: client}
}

func (r *TeamRepository) GetByName(ctx context.Context, name string) (team.Team, bool, error) {
	return r.getOne(ctx, qb.Eq("name", strings.TrimSpace(name)))
}

func (r *TeamRepository) GetBySlug(ctx context.Context, slug string) (team.Team, bool, error) {
	return r.getOne(ctx, qb.Eq("slug", slug))
}

func (r *TeamRepository) getOne(ctx context.Context, cond qb.Condition) (team.Team, bool, error) {
	var rows []rowmodel.Team
	if err := r.client.selectRows(ctx, qb.Select(teamSelect...).From(storage.TableTeams).Where(cond).OrderBy("id").Limit(1), &rows); err != nil {
		return team.Team{}, false, err
	}
	if len(rows) == 0 {
		return team.Team{}, false, nil
	}
	return rows[0].ToDomain(), true, nil
}

func (r *TeamRepository) ListByIDs(ctx context.Context, ids []int64) ([]team.Team, error) {
	if len(ids) == 0 {
		return []team.Team{}, nil
	}
	values := make([]any, 0, len(ids))
	for _, id := range ids {
		values = append(values, id)
	}

	var rows []rowmodel.Team
	if err := r.client.selectRows(ctx, qb.Select(teamSelect...).From(storage.TableTeams).Where(qb.In("id", values)).OrderBy("id"), &rows); err != nil {
		return nil, err
	}
	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

// Create inserts t ignoring slug conflicts and reads the stored row back.
func (r *TeamRepository) Create(ctx context.Context, t team.Team) (team.Team, error) {
	_, err := r.client.do(ctx, request{
		method: http.MethodPost,
		table:  storage.TableTeams,
		query:  url.Values{"on_conflict": {"slug"}},
		prefer: []string{"resolution=ignore-duplicates", "return=minimal"},
		body:   []rowmodel.Team{rowmodel.FromTeam(t)},
	})
	if err != nil {
		return team.Team{}, err
	}

	stored, ok, err := r.GetBySlug(ctx, t.Slug)
	if err != nil {
		return team.Team{}, err
	}
	if !ok {
		return team.Team{}, fmt.Errorf("team slug=%s: %w", t.Slug, storage.ErrNotFound)
	}
	return stored, nil
}

func (r *TeamRepository) CountByCompetition(ctx context.Context, competitionID int64) (int, error) {
	return r.client.count(ctx, storage.TableTeams, qb.Eq("competition_id", competitionID))
}

type FixtureRepository struct {
	client *Client
}

func NewFixtureRepository(client *Client) *FixtureRepository {
	return &FixtureRepository{client: client}
}

func (r *FixtureRepository) ListByKickoff(ctx context.Context, from, to time.Time) ([]fixture.Fixture, error) {
	return r.list(ctx, qb.Gte("kickoff_utc", from.UTC()), qb.Lt("kickoff_utc", to.UTC()))
}

func (r *FixtureRepository) ListLiveTracked(ctx context.Context, from, to time.Time) ([]fixture.Fixture, error) {
	return r.list(ctx, qb.Gte("kickoff_utc", from.UTC()), qb.Lt("kickoff_utc", to.UTC()), qb.NotNull("live_provider_id"))
}

func (r *FixtureRepository) list(ctx context.Context, conditions ...qb.Condition) ([]fixture.Fixture, error) {
	var rows []rowmodel.FixtureState
	if err := r.client.selectRows(ctx, qb.Select(fixtureSelect...).From(storage.TableFixtures).Where(conditions...).OrderBy("kickoff_utc", "id"), &rows); err != nil {
		return nil, err
	}
	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

func (r *FixtureRepository) UpdateLiveState(ctx context.Context, id int64, update fixture.LiveUpdate) error {
	changes := map[string]any{
		"status":         string(update.Status),
		"last_synced_at": update.SyncedAt.UTC(),
	}
	if update.HomeScore != nil {
		changes["home_score"] = *update.HomeScore
	}
	if update.AwayScore != nil {
		changes["away_score"] = *update.AwayScore
	}
	return r.client.patch(ctx, storage.TableFixtures, id, changes)
}

func (r *FixtureRepository) SetLiveProviderID(ctx context.Context, id, liveProviderID int64) error {
	return r.client.patch(ctx, storage.TableFixtures, id, map[string]any{"live_provider_id": liveProviderID})
}

func (r *FixtureRepository) CountByCompetition(ctx context.Context, competitionID int64) (int, error) {
	return r.client.count(ctx, storage.TableFixtures, qb.Eq("competition_id", competitionID))
}

type CompetitionRepository struct {
	client *Client
}

func NewCompetitionRepository(client *Client) *CompetitionRepository {
	return &CompetitionRepository{client: client}
}

func (r *CompetitionRepository) Upsert(ctx context.Context, c competition.Competition) error {
	return r.client.WriteRecords(ctx, storage.TableSpec{Name: storage.TableCompetitions, Conflict: []string{"id"}}, []any{c})
}
