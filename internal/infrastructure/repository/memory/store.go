// Package memory is an in-process canonical store. It enforces the same keys
// and constraints as the Postgres schema so pipeline behavior (duplicates,
// batch fallback, missing tables) is observable without a database. It backs
// --dry-run and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/riskibarqy/fixture-sync/internal/domain/broadcast"
	"github.com/riskibarqy/fixture-sync/internal/domain/competition"
	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
	"github.com/riskibarqy/fixture-sync/internal/domain/team"
	"github.com/riskibarqy/fixture-sync/internal/platform/storage"
)

// DefaultTeamIDStart matches the teams identity sequence in the schema.
const DefaultTeamIDStart int64 = 1_000_000

type Option func(*Store)

// WithMissingTable makes every access to table fail as if it was never
// migrated.
func WithMissingTable(table string) Option {
	return func(s *Store) {
		s.missing[table] = struct{}{}
	}
}

func WithTeamIDStart(start int64) Option {
	return func(s *Store) {
		if start > 0 {
			s.nextTeamID = start
		}
	}
}

type Store struct {
	mu           sync.RWMutex
	competitions map[int64]competition.Competition
	teams        map[int64]team.Team
	teamSlugs    map[string]int64
	fixtures     map[int64]fixture.Fixture
	broadcasts   map[int64]broadcast.Broadcast
	providers    map[int64]broadcast.Provider
	missing      map[string]struct{}
	nextTeamID   int64
	writeCalls   int
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		competitions: make(map[int64]competition.Competition),
		teams:        make(map[int64]team.Team),
		teamSlugs:    make(map[string]int64),
		fixtures:     make(map[int64]fixture.Fixture),
		broadcasts:   make(map[int64]broadcast.Broadcast),
		providers:    make(map[int64]broadcast.Provider),
		missing:      make(map[string]struct{}),
		nextTeamID:   DefaultTeamIDStart,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WriteRecords applies records to spec.Name atomically: either every record
// is written or none is.
func (s *Store) WriteRecords(ctx context.Context, spec storage.TableSpec, records []any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.writeCalls++
	if err := s.checkTable(spec.Name); err != nil {
		return err
	}

	switch spec.Name {
	case storage.TableTeams:
		return s.writeTeams(spec, records)
	case storage.TableFixtures:
		return s.writeFixtures(spec, records)
	case storage.TableCompetitions:
		return s.writeCompetitions(spec, records)
	case storage.TableBroadcasts:
		return s.writeBroadcasts(spec, records)
	case storage.TableBroadcastProviders:
		return s.writeProviders(spec, records)
	default:
		return violation(spec.Name, storage.CodeUndefinedTable, fmt.Sprintf("relation %q does not exist", spec.Name))
	}
}

// WriteCalls reports how many WriteRecords requests reached the store.
func (s *Store) WriteCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writeCalls
}

func (s *Store) writeTeams(spec storage.TableSpec, records []any) error {
	items, err := recordsOf[team.Team](spec.Name, records)
	if err != nil {
		return err
	}
	slugs := make([]string, 0, len(items))
	for _, item := range items {
		slugs = append(slugs, item.Slug)
	}
	if err := checkBatchKeys(spec, slugs); err != nil {
		return err
	}

	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" || strings.TrimSpace(item.Slug) == "" {
			return violation(spec.Name, storage.CodeNotNullViolation, "name and slug are required")
		}
		if _, exists := s.teamSlugs[item.Slug]; exists && spec.Mode == storage.ConflictReject {
			return duplicateKey(spec.Name, "slug", item.Slug)
		}
		if item.ID > 0 {
			if other, ok := s.teams[item.ID]; ok && other.Slug != item.Slug {
				return duplicateKey(spec.Name, "id", item.ID)
			}
		}
	}

	for _, item := range items {
		s.putTeam(item)
	}
	return nil
}

func (s *Store) putTeam(item team.Team) team.Team {
	if existingID, ok := s.teamSlugs[item.Slug]; ok {
		existing := s.teams[existingID]
		item.ID = existing.ID
		if item.CompetitionID == 0 {
			item.CompetitionID = existing.CompetitionID
		}
		s.teams[item.ID] = item
		return item
	}

	if item.ID <= 0 {
		item.ID = s.nextTeamID
		s.nextTeamID++
	}
	s.teams[item.ID] = item
	s.teamSlugs[item.Slug] = item.ID
	return item
}

func (s *Store) writeFixtures(spec storage.TableSpec, records []any) error {
	items, err := recordsOf[fixture.Fixture](spec.Name, records)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	if err := checkBatchKeys(spec, ids); err != nil {
		return err
	}

	for _, item := range items {
		if item.HomeTeamID == item.AwayTeamID {
			return violation(spec.Name, storage.CodeCheckViolation, fmt.Sprintf("fixture %d: home_team_id must differ from away_team_id", item.ID))
		}
		for _, teamID := range []int64{item.HomeTeamID, item.AwayTeamID} {
			if _, ok := s.teams[teamID]; !ok {
				return violation(spec.Name, storage.CodeForeignKeyViolation, fmt.Sprintf("fixture %d: team %d is not present in teams", item.ID, teamID))
			}
		}
		if _, exists := s.fixtures[item.ID]; exists && spec.Mode == storage.ConflictReject {
			return duplicateKey(spec.Name, "id", item.ID)
		}
	}

	for _, item := range items {
		if existing, ok := s.fixtures[item.ID]; ok {
			item.LiveProviderID = existing.LiveProviderID
			item.LastSyncedAt = existing.LastSyncedAt
			if item.HomeScore == nil {
				item.HomeScore = existing.HomeScore
			}
			if item.AwayScore == nil {
				item.AwayScore = existing.AwayScore
			}
		}
		s.fixtures[item.ID] = item
	}
	return nil
}

func (s *Store) writeCompetitions(spec storage.TableSpec, records []any) error {
	items, err := recordsOf[competition.Competition](spec.Name, records)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	if err := checkBatchKeys(spec, ids); err != nil {
		return err
	}
	for _, item := range items {
		if _, exists := s.competitions[item.ID]; exists && spec.Mode == storage.ConflictReject {
			return duplicateKey(spec.Name, "id", item.ID)
		}
	}
	for _, item := range items {
		s.competitions[item.ID] = item
	}
	return nil
}

func (s *Store) writeBroadcasts(spec storage.TableSpec, records []any) error {
	items, err := recordsOf[broadcast.Broadcast](spec.Name, records)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.FixtureID)
	}
	if err := checkBatchKeys(spec, ids); err != nil {
		return err
	}
	for _, item := range items {
		if _, ok := s.fixtures[item.FixtureID]; !ok {
			return violation(spec.Name, storage.CodeForeignKeyViolation, fmt.Sprintf("fixture %d is not present in fixtures", item.FixtureID))
		}
		if _, ok := s.providers[item.ProviderID]; !ok {
			return violation(spec.Name, storage.CodeForeignKeyViolation, fmt.Sprintf("provider %d is not present in broadcast_providers", item.ProviderID))
		}
		if _, exists := s.broadcasts[item.FixtureID]; exists && spec.Mode == storage.ConflictReject {
			return duplicateKey(spec.Name, "fixture_id", item.FixtureID)
		}
	}
	for _, item := range items {
		s.broadcasts[item.FixtureID] = item
	}
	return nil
}

func (s *Store) writeProviders(spec storage.TableSpec, records []any) error {
	items, err := recordsOf[broadcast.Provider](spec.Name, records)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	if err := checkBatchKeys(spec, ids); err != nil {
		return err
	}
	for _, item := range items {
		if _, exists := s.providers[item.ID]; exists && spec.Mode == storage.ConflictReject {
			return duplicateKey(spec.Name, "id", item.ID)
		}
	}
	for _, item := range items {
		s.providers[item.ID] = item
	}
	return nil
}

func (s *Store) checkTable(table string) error {
	if _, ok := s.missing[table]; ok {
		return violation(table, storage.CodeUndefinedTable, fmt.Sprintf("relation %q does not exist", table))
	}
	return nil
}

func recordsOf[T any](table string, records []any) ([]T, error) {
	out := make([]T, 0, len(records))
	for i, record := range records {
		item, ok := record.(T)
		if !ok {
			return nil, fmt.Errorf("memory store: table %s record %d has type %T", table, i, record)
		}
		out = append(out, item)
	}
	return out, nil
}

// checkBatchKeys mirrors Postgres: a merge batch may not touch one key twice,
// and a plain insert batch may not contain the same key twice.
func checkBatchKeys[K comparable](spec storage.TableSpec, keys []K) error {
	seen := make(map[K]struct{}, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			if spec.Mode == storage.ConflictMerge {
				return violation(spec.Name, storage.CodeCardinalityViolation, "ON CONFLICT DO UPDATE command cannot affect row a second time")
			}
			return duplicateKey(spec.Name, spec.OnConflict(), key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func violation(table, code, message string) error {
	return storage.Classify(&storage.Error{Table: table, Code: code, Message: message})
}

func duplicateKey(table, column string, value any) error {
	return violation(table, storage.CodeUniqueViolation, fmt.Sprintf("duplicate key value violates unique constraint: (%s)=(%v) already exists", column, value))
}

// Teams returns every stored team ordered by id.
func (s *Store) Teams() []team.Team {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.teams, func(t team.Team) int64 { return t.ID })
}

func (s *Store) Fixtures() []fixture.Fixture {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.fixtures, func(f fixture.Fixture) int64 { return f.ID })
}

func (s *Store) Competitions() []competition.Competition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.competitions, func(c competition.Competition) int64 { return c.ID })
}

func (s *Store) Broadcasts() []broadcast.Broadcast {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.broadcasts, func(b broadcast.Broadcast) int64 { return b.FixtureID })
}

func sortedValues[T any](items map[int64]T, key func(T) int64) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i]) < key(out[j]) })
	return out
}
