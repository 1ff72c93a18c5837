package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
	"github.com/riskibarqy/fixture-sync/internal/domain/team"
	"github.com/riskibarqy/fixture-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fixture-sync/internal/platform/logging"
	"github.com/riskibarqy/fixture-sync/internal/platform/resilience"
	"github.com/riskibarqy/fixture-sync/internal/platform/storage"
)

type countingMetrics struct {
	records map[string]int
	passes  []string
}

func (m *countingMetrics) AddRecords(table, outcome string, n int) {
	if m.records == nil {
		m.records = make(map[string]int)
	}
	m.records[table+"/"+outcome] += n
}

func (m *countingMetrics) ObservePass(job string, _ time.Duration, _ error) {
	m.passes = append(m.passes, job)
}

func seedPipelineTeams(t *testing.T, store *memory.Store) {
	t.Helper()
	p := NewUpsertPipeline(store, resilience.NoRetry(), logging.NewNop(), nil)
	teams := []team.Team{
		{ID: 57, Name: "Arsenal", Slug: "arsenal", CompetitionID: 1},
		{ID: 61, Name: "Chelsea", Slug: "chelsea", CompetitionID: 1},
	}
	res, err := p.UpsertAll(context.Background(), storage.TableTeams, Records(teams), TeamChunkSize)
	require.NoError(t, err)
	require.Equal(t, 2, res.Written)
}

func pipelineFixtures(ids ...int64) []fixture.Fixture {
	kickoff := time.Date(2026, 8, 15, 14, 0, 0, 0, time.UTC)
	out := make([]fixture.Fixture, 0, len(ids))
	for _, id := range ids {
		out = append(out, fixture.Fixture{
			ID:            id,
			CompetitionID: 1,
			HomeTeamID:    57,
			AwayTeamID:    61,
			KickoffUTC:    kickoff,
			Status:        fixture.StatusScheduled,
		})
	}
	return out
}

func TestUpsertPipeline_BatchFallbackSkipsDuplicates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	seedPipelineTeams(t, store)
	metrics := &countingMetrics{}
	p := NewUpsertPipeline(store, resilience.NoRetry(), logging.NewNop(), metrics)

	first, err := p.UpsertAll(ctx, storage.TableFixtures, Records(pipelineFixtures(1, 2)), 10)
	require.NoError(t, err)
	require.Equal(t, UpsertResult{Written: 2}, first)

	// Batch of 4 containing 2 existing ids: the batch fails, rows succeed
	// one by one and the duplicates are skipped.
	second, err := p.UpsertAll(ctx, storage.TableFixtures, Records(pipelineFixtures(1, 3, 2, 4)), 10)
	require.NoError(t, err)
	require.Equal(t, UpsertResult{Written: 2, Skipped: 2}, second)
	require.Equal(t, 4, second.Total())
	require.Len(t, store.Fixtures(), 4)
	require.Equal(t, 4, metrics.records["fixtures/written"])
	require.Equal(t, 2, metrics.records["fixtures/skipped"])
}

func TestUpsertPipeline_BadRowOnlyFailsItself(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	seedPipelineTeams(t, store)
	p := NewUpsertPipeline(store, resilience.NoRetry(), logging.NewNop(), nil)

	records := pipelineFixtures(10, 11, 12)
	records[1].AwayTeamID = 404 // unknown team: foreign key violation

	res, err := p.UpsertAll(ctx, storage.TableFixtures, Records(records), 2)
	require.NoError(t, err)
	require.Equal(t, UpsertResult{Written: 2, Failed: 1}, res)
	require.Len(t, store.Fixtures(), 2)
}

func TestUpsertPipeline_ChunksBySize(t *testing.T) {
	t.Parallel()

	writer := &scriptedWriter{}
	p := NewUpsertPipeline(writer, resilience.NoRetry(), logging.NewNop(), nil)

	res, err := p.UpsertAll(context.Background(), storage.TableFixtures, Records(pipelineFixtures(1, 2, 3, 4, 5)), 2)
	require.NoError(t, err)
	require.Equal(t, 5, res.Written)
	require.Equal(t, []int{2, 2, 1}, writer.calls)
}

func TestUpsertPipeline_RetriesTransientBatch(t *testing.T) {
	t.Parallel()

	writer := &scriptedWriter{errs: []error{resilience.MarkTransient(errors.New("status=503"))}}
	policy := resilience.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}.WithSleep(noSleep)
	p := NewUpsertPipeline(writer, policy, logging.NewNop(), nil)

	res, err := p.UpsertAll(context.Background(), storage.TableFixtures, Records(pipelineFixtures(1, 2, 3)), 100)
	require.NoError(t, err)
	require.Equal(t, UpsertResult{Written: 3}, res)
	require.Equal(t, []int{3, 3}, writer.calls, "transient failure retried as a batch, not row by row")
}

func TestUpsertPipeline_TerminalBatchErrorFallsBackWithoutRetry(t *testing.T) {
	t.Parallel()

	terminal := storage.Classify(&storage.Error{Table: storage.TableFixtures, Status: 400, Code: storage.CodeCheckViolation})
	writer := &scriptedWriter{errs: []error{terminal}}
	policy := resilience.RetryPolicy{MaxAttempts: 3}.WithSleep(noSleep)
	p := NewUpsertPipeline(writer, policy, logging.NewNop(), nil)

	res, err := p.UpsertAll(context.Background(), storage.TableFixtures, Records(pipelineFixtures(1, 2)), 100)
	require.NoError(t, err)
	require.Equal(t, UpsertResult{Written: 2}, res)
	require.Equal(t, []int{2, 1, 1}, writer.calls)
}

func TestUpsertPipeline_MergeOnConflictRefreshesFixtures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	seedPipelineTeams(t, store)
	p := NewUpsertPipeline(store, resilience.NoRetry(), logging.NewNop(), nil)

	_, err := p.UpsertAll(ctx, storage.TableFixtures, Records(pipelineFixtures(1)), 10)
	require.NoError(t, err)
	require.NoError(t, store.FixtureRepository().SetLiveProviderID(ctx, 1, 777))

	updated := pipelineFixtures(1)
	updated[0].Status = fixture.StatusPostponed
	res, err := p.UpsertAll(ctx, storage.TableFixtures, Records(updated), 10, MergeOnConflict())
	require.NoError(t, err)
	require.Equal(t, UpsertResult{Written: 1}, res)

	got := store.Fixtures()
	require.Len(t, got, 1)
	require.Equal(t, fixture.StatusPostponed, got[0].Status)
	require.NotNil(t, got[0].LiveProviderID)
	require.Equal(t, int64(777), *got[0].LiveProviderID)
}

func TestUpsertPipeline_ConfigurationErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := NewUpsertPipeline(memory.NewStore(memory.WithMissingTable(storage.TableCompetitions)), resilience.NoRetry(), logging.NewNop(), nil)

	_, err := p.UpsertAll(ctx, "players", []any{struct{}{}}, 10)
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = p.UpsertAll(ctx, storage.TableTeams, []any{team.Team{Name: "A", Slug: "a"}}, 0)
	require.ErrorIs(t, err, ErrConfiguration)

	res, err := p.UpsertAll(ctx, storage.TableTeams, nil, 10)
	require.NoError(t, err)
	require.Zero(t, res.Total())

	_, err = p.UpsertAll(ctx, storage.TableCompetitions, []any{competitionRecord()}, 10)
	require.ErrorIs(t, err, ErrConfiguration)
	require.True(t, storage.IsTableNotFound(err))
}

func TestTableSpecFor(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		conflict string
		mode     storage.ConflictMode
	}{
		storage.TableTeams:              {conflict: "slug", mode: storage.ConflictMerge},
		storage.TableFixtures:           {conflict: "id", mode: storage.ConflictReject},
		storage.TableCompetitions:       {conflict: "id", mode: storage.ConflictMerge},
		storage.TableBroadcasts:         {conflict: "fixture_id", mode: storage.ConflictMerge},
		storage.TableBroadcastProviders: {conflict: "id", mode: storage.ConflictMerge},
	}
	for table, want := range cases {
		spec, err := TableSpecFor(table)
		require.NoError(t, err)
		require.Equal(t, want.conflict, spec.OnConflict(), table)
		require.Equal(t, want.mode, spec.Mode, table)
	}
}
