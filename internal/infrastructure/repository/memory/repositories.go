package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

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

type TeamRepository struct {
	store *Store
}

func (s *Store) TeamRepository() *TeamRepository {
	return &TeamRepository{store: s}
}

func (r *TeamRepository) GetByName(_ context.Context, name string) (team.Team, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if err := r.store.checkTable(storage.TableTeams); err != nil {
		return team.Team{}, false, err
	}

	name = strings.TrimSpace(name)
	for _, item := range sortedValues(r.store.teams, func(t team.Team) int64 { return t.ID }) {
		if item.Name == name {
			return item, true, nil
		}
	}
	return team.Team{}, false, nil
}

func (r *TeamRepository) GetBySlug(_ context.Context, slug string) (team.Team, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if err := r.store.checkTable(storage.TableTeams); err != nil {
		return team.Team{}, false, err
	}

	id, ok := r.store.teamSlugs[slug]
	if !ok {
		return team.Team{}, false, nil
	}
	return r.store.teams[id], true, nil
}

func (r *TeamRepository) ListByIDs(_ context.Context, ids []int64) ([]team.Team, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if err := r.store.checkTable(storage.TableTeams); err != nil {
		return nil, err
	}

	out := make([]team.Team, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if item, ok := r.store.teams[id]; ok {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TeamRepository) Create(_ context.Context, t team.Team) (team.Team, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.checkTable(storage.TableTeams); err != nil {
		return team.Team{}, err
	}
	if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Slug) == "" {
		return team.Team{}, violation(storage.TableTeams, storage.CodeNotNullViolation, "name and slug are required")
	}

	if id, ok := r.store.teamSlugs[t.Slug]; ok {
		return r.store.teams[id], nil
	}
	if t.ID > 0 {
		if _, taken := r.store.teams[t.ID]; taken {
			t.ID = 0
		}
	}
	return r.store.putTeam(t), nil
}

func (r *TeamRepository) CountByCompetition(_ context.Context, competitionID int64) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if err := r.store.checkTable(storage.TableTeams); err != nil {
		return 0, err
	}

	count := 0
	for _, item := range r.store.teams {
		if item.CompetitionID == competitionID {
			count++
		}
	}
	return count, nil
}

type FixtureRepository struct {
	store *Store
}

func (s *Store) FixtureRepository() *FixtureRepository {
	return &FixtureRepository{store: s}
}

func (r *FixtureRepository) ListByKickoff(_ context.Context, from, to time.Time) ([]fixture.Fixture, error) {
	return r.list(from, to, func(fixture.Fixture) bool { return true })
}

func (r *FixtureRepository) ListLiveTracked(_ context.Context, from, to time.Time) ([]fixture.Fixture, error) {
	return r.list(from, to, func(f fixture.Fixture) bool { return f.LiveProviderID != nil })
}

func (r *FixtureRepository) list(from, to time.Time, keep func(fixture.Fixture) bool) ([]fixture.Fixture, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if err := r.store.checkTable(storage.TableFixtures); err != nil {
		return nil, err
	}

	out := make([]fixture.Fixture, 0)
	for _, item := range r.store.fixtures {
		if item.KickoffUTC.Before(from) || !item.KickoffUTC.Before(to) || !keep(item) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].KickoffUTC.Equal(out[j].KickoffUTC) {
			return out[i].ID < out[j].ID
		}
		return out[i].KickoffUTC.Before(out[j].KickoffUTC)
	})
	return out, nil
}

func (r *FixtureRepository) UpdateLiveState(_ context.Context, id int64, update fixture.LiveUpdate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.checkTable(storage.TableFixtures); err != nil {
		return err
	}

	item, ok := r.store.fixtures[id]
	if !ok {
		return fmt.Errorf("fixture id=%d: %w", id, storage.ErrNotFound)
	}
	if update.Status != "" {
		item.Status = update.Status
	}
	if update.HomeScore != nil {
		item.HomeScore = update.HomeScore
	}
	if update.AwayScore != nil {
		item.AwayScore = update.AwayScore
	}
	syncedAt := update.SyncedAt.UTC()
	item.LastSyncedAt = &syncedAt
	r.store.fixtures[id] = item
	return nil
}

func (r *FixtureRepository) SetLiveProviderID(_ context.Context, id, liveProviderID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.checkTable(storage.TableFixtures); err != nil {
		return err
	}

	item, ok := r.store.fixtures[id]
	if !ok {
		return fmt.Errorf("fixture id=%d: %w", id, storage.ErrNotFound)
	}
	item.LiveProviderID = &liveProviderID
	r.store.fixtures[id] = item
	return nil
}

func (r *FixtureRepository) CountByCompetition(_ context.Context, competitionID int64) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if err := r.store.checkTable(storage.TableFixtures); err != nil {
		return 0, err
	}

	count := 0
	for _, item := range r.store.fixtures {
		if item.CompetitionID == competitionID {
			count++
		}
	}
	return count, nil
}

type CompetitionRepository struct {
	store *Store
}

func (s *Store) CompetitionRepository() *CompetitionRepository {
	return &CompetitionRepository{store: s}
}

func (r *CompetitionRepository) Upsert(ctx context.Context, c competition.Competition) error {
	return r.store.WriteRecords(ctx, storage.TableSpec{Name: storage.TableCompetitions, Conflict: []string{"id"}}, []any{c})
}
