package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fixture-sync/external/provider"
	"github.com/riskibarqy/fixture-sync/internal/domain/competition"
	"github.com/riskibarqy/fixture-sync/internal/domain/team"
	"github.com/riskibarqy/fixture-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fixture-sync/internal/platform/logging"
	"github.com/riskibarqy/fixture-sync/internal/platform/resilience"
	"github.com/riskibarqy/fixture-sync/internal/platform/storage"
)

// providerByCompetition routes calls to a fake per provider competition id.
type providerByCompetition map[int64]FixtureProvider

func (p providerByCompetition) GetCompetition(ctx context.Context, id int64) (ProviderCompetition, error) {
	return p[id].GetCompetition(ctx, id)
}

func (p providerByCompetition) ListTeams(ctx context.Context, id int64, season string) ([]ProviderTeam, error) {
	return p[id].ListTeams(ctx, id, season)
}

func (p providerByCompetition) ListMatches(ctx context.Context, id int64, season string) ([]ProviderMatch, error) {
	return p[id].ListMatches(ctx, id, season)
}

func newImportService(store *memory.Store, source FixtureProvider, opts ...ServiceOption) *CompetitionImportService {
	logger := logging.NewNop()
	return NewCompetitionImportService(
		source,
		store.CompetitionRepository(),
		store.TeamRepository(),
		store.FixtureRepository(),
		NewTeamResolver(store.TeamRepository(), logger),
		NewUpsertPipeline(store, resilience.NoRetry(), logger, nil),
		DefaultImportSettings(),
		logger,
		opts...,
	)
}

func registryConfig(t *testing.T, slug string) competition.Config {
	t.Helper()
	cfg, ok := competition.MustDefaultRegistry().Get(slug)
	require.True(t, ok, slug)
	return cfg
}

func TestCompetitionImport_FullSeasonIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	teams, matches := leagueSeason(20, time.Date(2026, 8, 15, 11, 30, 0, 0, time.UTC))
	require.Len(t, matches, 380)

	store := memory.NewStore()
	recorder := &sleepRecorder{}
	svc := newImportService(store, &fakeFixtureProvider{teams: teams, matches: matches}, WithSleep(recorder.sleep))
	cfg := registryConfig(t, "premier-league")

	first, err := svc.Import(ctx, cfg, ImportOptions{Season: "2026"})
	require.NoError(t, err)
	require.Equal(t, UpsertResult{Written: 20}, first.Teams)
	require.Equal(t, UpsertResult{Written: 380}, first.Fixtures)
	require.Zero(t, first.DroppedFixtures)
	require.Equal(t, 20, first.StoredTeams)
	require.Equal(t, 380, first.StoredFixtures)
	require.Equal(t, "2026", first.Season)

	second, err := svc.Import(ctx, cfg, ImportOptions{Season: "2026"})
	require.NoError(t, err)
	require.Equal(t, UpsertResult{Skipped: 380}, second.Fixtures)
	require.Zero(t, second.Teams.Failed)
	require.Equal(t, 20, second.StoredTeams)
	require.Equal(t, 380, second.StoredFixtures)

	require.Len(t, store.Teams(), 20)
	require.Len(t, store.Fixtures(), 380)
	require.Len(t, store.Competitions(), 1)
	require.Equal(t, 2, recorder.count(10*time.Second), "one cooldown per import")

	for _, f := range store.Fixtures() {
		require.Less(t, f.HomeTeamID, ResolverTeamIDStart, "fixture %d uses provider team ids", f.ID)
		require.NotNil(t, f.Matchday)
	}
}

func TestCompetitionImport_ResolvesCurrentSeason(t *testing.T) {
	t.Parallel()

	teams, matches := leagueSeason(4, time.Date(2026, 8, 15, 11, 30, 0, 0, time.UTC))
	source := &fakeFixtureProvider{competition: ProviderCompetition{Season: "2026"}, teams: teams, matches: matches}
	svc := newImportService(memory.NewStore(), source, WithSleep(noSleep))

	res, err := svc.Import(context.Background(), registryConfig(t, "premier-league"), ImportOptions{})
	require.NoError(t, err)
	require.Equal(t, "2026", res.Season)
	require.Equal(t, 1, source.calls["GetCompetition"])

	_, err = svc.Import(context.Background(), registryConfig(t, "premier-league"), ImportOptions{Season: "2025"})
	require.NoError(t, err)
	require.Equal(t, 1, source.calls["GetCompetition"], "explicit season skips the lookup")
}

func TestCompetitionImport_PlanRestricted(t *testing.T) {
	t.Parallel()

	forbidden := &provider.HTTPError{Provider: "football-data", StatusCode: 403, Body: "restricted"}
	svc := newImportService(memory.NewStore(), &fakeFixtureProvider{err: forbidden}, WithSleep(noSleep))

	_, err := svc.Import(context.Background(), registryConfig(t, "fa-cup"), ImportOptions{Season: "2026"})
	require.ErrorIs(t, err, ErrPlanRestricted)
	require.NotErrorIs(t, err, ErrDependencyUnavailable)

	unavailable := &provider.HTTPError{Provider: "football-data", StatusCode: 502}
	svc = newImportService(memory.NewStore(), &fakeFixtureProvider{err: unavailable}, WithSleep(noSleep))
	_, err = svc.Import(context.Background(), registryConfig(t, "fa-cup"), ImportOptions{Season: "2026"})
	require.ErrorIs(t, err, ErrDependencyUnavailable)
}

func TestCompetitionImport_MissingCompetitionsTableOnlyWarns(t *testing.T) {
	t.Parallel()

	teams, matches := leagueSeason(4, time.Date(2026, 8, 15, 11, 30, 0, 0, time.UTC))
	store := memory.NewStore(memory.WithMissingTable(storage.TableCompetitions))
	svc := newImportService(store, &fakeFixtureProvider{teams: teams, matches: matches}, WithSleep(noSleep))

	res, err := svc.Import(context.Background(), registryConfig(t, "premier-league"), ImportOptions{Season: "2026"})
	require.NoError(t, err)
	require.Equal(t, 4, res.Teams.Written)
	require.Equal(t, 12, res.Fixtures.Written)
}

func TestCompetitionImport_MissingTeamsTableIsFatal(t *testing.T) {
	t.Parallel()

	teams, matches := leagueSeason(4, time.Date(2026, 8, 15, 11, 30, 0, 0, time.UTC))
	store := memory.NewStore(memory.WithMissingTable(storage.TableTeams))
	source := &fakeFixtureProvider{teams: teams, matches: matches}
	svc := newImportService(store, source, WithSleep(noSleep))

	_, err := svc.Import(context.Background(), registryConfig(t, "premier-league"), ImportOptions{Season: "2026"})
	require.ErrorIs(t, err, ErrConfiguration)
	require.True(t, storage.IsTableNotFound(err))
	require.Zero(t, source.calls["ListMatches"])
}

func TestCompetitionImport_CupTeamsKeepNoOwner(t *testing.T) {
	t.Parallel()

	teams, matches := leagueSeason(4, time.Date(2026, 9, 16, 19, 0, 0, 0, time.UTC))
	for i := range matches {
		matches[i].Stage = "LEAGUE_STAGE"
		matches[i].Group = "GROUP_B"
	}
	// One match only names its teams; the resolver must find them.
	matches[0].Home = team.Ref{Name: teams[0].Name}

	store := memory.NewStore()
	svc := newImportService(store, &fakeFixtureProvider{teams: teams, matches: matches}, WithSleep(noSleep))

	res, err := svc.Import(context.Background(), registryConfig(t, "champions-league"), ImportOptions{Season: "2026"})
	require.NoError(t, err)
	require.Equal(t, 12, res.Fixtures.Written)

	for _, tm := range store.Teams() {
		require.Zero(t, tm.CompetitionID, "cup entrant %s keeps no competition", tm.Name)
	}
	require.Len(t, store.Teams(), 4)
	for _, f := range store.Fixtures() {
		require.Nil(t, f.Matchday)
		require.Equal(t, "League Stage", f.Stage)
		require.Equal(t, "Group B", f.Round)
	}
}

func TestCompetitionImport_SlugCollisionIsSuffixed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	_, err := store.TeamRepository().Create(ctx, team.Team{ID: 500, Name: "St. Pauli", Slug: "st-pauli", CompetitionID: 2})
	require.NoError(t, err)

	source := &fakeFixtureProvider{teams: []ProviderTeam{
		{ProviderID: 77, Name: "St Pauli"},
		{ProviderID: 78, Name: "Hamburger SV"},
	}}
	svc := newImportService(store, source, WithSleep(noSleep))

	res, err := svc.Import(ctx, registryConfig(t, "championship"), ImportOptions{Season: "2026", TeamsOnly: true})
	require.NoError(t, err)
	require.Equal(t, 2, res.Teams.Written)

	got, found, err := store.TeamRepository().GetBySlug(ctx, "st-pauli-77")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(77), got.ID)

	original, found, err := store.TeamRepository().GetBySlug(ctx, "st-pauli")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(500), original.ID)
	require.Zero(t, source.calls["ListMatches"])
}

func TestCompetitionImport_ClaimsResolverCreatedTeam(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	created, err := NewTeamResolver(store.TeamRepository(), logging.NewNop()).Resolve(ctx, "Club 01", 1)
	require.NoError(t, err)
	require.GreaterOrEqual(t, created, ResolverTeamIDStart)

	teams, matches := leagueSeason(2, time.Date(2026, 8, 15, 11, 30, 0, 0, time.UTC))
	svc := newImportService(store, &fakeFixtureProvider{teams: teams, matches: matches}, WithSleep(noSleep))

	_, err = svc.Import(ctx, registryConfig(t, "premier-league"), ImportOptions{Season: "2026"})
	require.NoError(t, err)

	require.Len(t, store.Teams(), 2, "no suffixed duplicate for a resolver-created team")
	claimed, found, err := store.TeamRepository().GetBySlug(ctx, "club-01")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, created, claimed.ID)

	fixtures := store.Fixtures()
	require.Len(t, fixtures, 2)
	require.Equal(t, created, fixtures[0].HomeTeamID)
}

func TestCompetitionImport_OptionConflict(t *testing.T) {
	t.Parallel()

	source := &fakeFixtureProvider{}
	svc := newImportService(memory.NewStore(), source)
	_, err := svc.Import(context.Background(), registryConfig(t, "premier-league"), ImportOptions{TeamsOnly: true, FixturesOnly: true})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Empty(t, source.calls)
}

func TestCompetitionImport_FixturesOnlySkipsCooldown(t *testing.T) {
	t.Parallel()

	teams, matches := leagueSeason(4, time.Date(2026, 8, 15, 11, 30, 0, 0, time.UTC))
	store := memory.NewStore()
	recorder := &sleepRecorder{}
	svc := newImportService(store, &fakeFixtureProvider{teams: teams, matches: matches}, WithSleep(recorder.sleep))
	cfg := registryConfig(t, "premier-league")

	_, err := svc.Import(context.Background(), cfg, ImportOptions{Season: "2026", TeamsOnly: true, SkipCompetition: true})
	require.NoError(t, err)
	res, err := svc.Import(context.Background(), cfg, ImportOptions{Season: "2026", FixturesOnly: true, SkipCompetition: true})
	require.NoError(t, err)
	require.Zero(t, res.Teams.Total())
	require.Equal(t, 12, res.Fixtures.Written)
	require.Zero(t, recorder.count(10*time.Second))
	require.Empty(t, store.Competitions())
}

func TestCompetitionImport_ManyContinuesPastRestrictedCompetition(t *testing.T) {
	t.Parallel()

	teams, matches := leagueSeason(4, time.Date(2026, 8, 15, 11, 30, 0, 0, time.UTC))
	pl := registryConfig(t, "premier-league")
	facup := registryConfig(t, "fa-cup")
	championship := registryConfig(t, "championship")

	source := providerByCompetition{
		pl.ProviderID:           &fakeFixtureProvider{teams: teams, matches: matches},
		facup.ProviderID:        &fakeFixtureProvider{err: &provider.HTTPError{StatusCode: 403}},
		championship.ProviderID: &fakeFixtureProvider{err: &provider.HTTPError{StatusCode: 500}},
	}
	svc := newImportService(memory.NewStore(), source, WithSleep(noSleep))

	outcomes, err := svc.ImportMany(context.Background(), []competition.Config{facup, championship, pl}, ImportOptions{Season: "2026"})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	require.ErrorIs(t, outcomes[0].Err, ErrPlanRestricted)
	require.ErrorIs(t, outcomes[1].Err, ErrDependencyUnavailable)
	require.NoError(t, outcomes[2].Err)
	require.Equal(t, 12, outcomes[2].Result.Fixtures.Written)
}

func TestCompetitionImport_ManyStopsOnConfigurationError(t *testing.T) {
	t.Parallel()

	teams, matches := leagueSeason(4, time.Date(2026, 8, 15, 11, 30, 0, 0, time.UTC))
	pl := registryConfig(t, "premier-league")
	championship := registryConfig(t, "championship")
	source := &fakeFixtureProvider{teams: teams, matches: matches}
	svc := newImportService(memory.NewStore(memory.WithMissingTable(storage.TableFixtures)), source, WithSleep(noSleep))

	outcomes, err := svc.ImportMany(context.Background(), []competition.Config{pl, championship}, ImportOptions{Season: "2026"})
	require.ErrorIs(t, err, ErrConfiguration)
	require.Len(t, outcomes, 1)
}
