package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
	fixturemock "github.com/riskibarqy/fixture-sync/internal/mocks/domain/fixture"
	"github.com/riskibarqy/fixture-sync/internal/platform/logging"
)

func TestLiveScoreRunner_CancelDuringFirstPassFinishesIt(t *testing.T) {
	t.Parallel()

	store := seedLiveStore(t, 1, 1)
	started := make(chan struct{})
	block := make(chan struct{})
	live := &fakeLiveProvider{
		inPlay:  []LiveMatch{{ProviderID: 9001, Status: fixture.StatusLive, HomeScore: intPtr(1), AwayScore: intPtr(0)}},
		started: started,
		block:   block,
	}
	svc := NewLiveScoreSyncService(store.FixtureRepository(), live, allOn, 0, logging.NewNop(), WithClock(liveClock))
	runner := NewLiveScoreRunner(svc, time.Minute, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	<-started
	cancel()
	close(block)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("runner did not stop after cancellation")
	}
	require.Equal(t, 1, live.inPlayN, "exactly one pass")
	require.Equal(t, fixture.StatusLive, store.Fixtures()[0].Status, "in-flight pass ran to completion")
}

func TestLiveScoreRunner_StopsWhenCancelledBetweenPasses(t *testing.T) {
	t.Parallel()

	live := &fakeLiveProvider{}
	svc := NewLiveScoreSyncService(seedLiveStore(t, 1, 1).FixtureRepository(), live, allOn, 0, logging.NewNop(), WithClock(liveClock))
	runner := NewLiveScoreRunner(svc, time.Hour, logging.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, runner.Run(ctx))
	require.Equal(t, 1, live.inPlayN)
}

func TestLiveScoreRunner_DisabledRunsOnceAndReturns(t *testing.T) {
	t.Parallel()

	svc := NewLiveScoreSyncService(fixturemock.NewRepository(t), &fakeLiveProvider{}, LiveScoreSwitches{SourceEnabled: true}, 0, logging.NewNop())
	runner := NewLiveScoreRunner(svc, time.Minute, logging.NewNop())

	require.NoError(t, runner.Run(context.Background()))
}

func TestLiveScoreRunner_RejectsNonPositiveInterval(t *testing.T) {
	t.Parallel()

	svc := NewLiveScoreSyncService(fixturemock.NewRepository(t), &fakeLiveProvider{}, allOn, 0, logging.NewNop())
	err := NewLiveScoreRunner(svc, 0, logging.NewNop()).Run(context.Background())
	require.ErrorIs(t, err, ErrConfiguration)
}
