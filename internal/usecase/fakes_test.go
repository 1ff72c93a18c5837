package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/fixture-sync/internal/domain/broadcast"
	"github.com/riskibarqy/fixture-sync/internal/domain/competition"
	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
	"github.com/riskibarqy/fixture-sync/internal/domain/team"
	"github.com/riskibarqy/fixture-sync/internal/platform/storage"
)

type fakeFixtureProvider struct {
	competition ProviderCompetition
	teams       []ProviderTeam
	matches     []ProviderMatch
	err         error

	mu    sync.Mutex
	calls map[string]int
}

func (p *fakeFixtureProvider) called(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = make(map[string]int)
	}
	p.calls[name]++
}

func (p *fakeFixtureProvider) GetCompetition(_ context.Context, _ int64) (ProviderCompetition, error) {
	p.called("GetCompetition")
	return p.competition, p.err
}

func (p *fakeFixtureProvider) ListTeams(_ context.Context, _ int64, _ string) ([]ProviderTeam, error) {
	p.called("ListTeams")
	if p.err != nil {
		return nil, p.err
	}
	return p.teams, nil
}

func (p *fakeFixtureProvider) ListMatches(_ context.Context, _ int64, _ string) ([]ProviderMatch, error) {
	p.called("ListMatches")
	if p.err != nil {
		return nil, p.err
	}
	return p.matches, nil
}

type fakeLiveProvider struct {
	inPlay    []LiveMatch
	scheduled []ScheduledLiveMatch
	err       error
	inPlayN   int
	block     chan struct{}
	started   chan struct{}
}

func (p *fakeLiveProvider) ListInPlay(ctx context.Context) ([]LiveMatch, error) {
	p.inPlayN++
	if p.started != nil {
		close(p.started)
		p.started = nil
	}
	if p.block != nil {
		<-p.block
	}
	return p.inPlay, p.err
}

func (p *fakeLiveProvider) ListByDate(_ context.Context, _ time.Time) ([]ScheduledLiveMatch, error) {
	return p.scheduled, p.err
}

type fakeBroadcastSource struct {
	entries map[int64][]broadcast.Entry
	errs    map[int64]error
}

func (s fakeBroadcastSource) ListBroadcasts(_ context.Context, f fixture.Fixture) ([]broadcast.Entry, error) {
	if err, ok := s.errs[f.ID]; ok {
		return nil, err
	}
	return s.entries[f.ID], nil
}

// scriptedWriter fails the first len(errs) calls with the given errors and
// then delegates.
type scriptedWriter struct {
	next  RecordWriter
	errs  []error
	calls []int
}

func (w *scriptedWriter) WriteRecords(ctx context.Context, spec storage.TableSpec, records []any) error {
	w.calls = append(w.calls, len(records))
	if len(w.errs) > 0 {
		err := w.errs[0]
		w.errs = w.errs[1:]
		if err != nil {
			return err
		}
	}
	if w.next == nil {
		return nil
	}
	return w.next.WriteRecords(ctx, spec, records)
}

type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.sleeps = append(r.sleeps, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) count(d time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sleeps {
		if s == d {
			n++
		}
	}
	return n
}

func noSleep(context.Context, time.Duration) error { return nil }

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }

// leagueSeason builds n provider teams and a double round robin between
// them, n*(n-1) matches.
func leagueSeason(n int, firstKickoff time.Time) ([]ProviderTeam, []ProviderMatch) {
	teams := make([]ProviderTeam, 0, n)
	for i := 1; i <= n; i++ {
		teams = append(teams, ProviderTeam{
			ProviderID: int64(i),
			Name:       fmt.Sprintf("Club %02d FC", i),
			ShortName:  fmt.Sprintf("Club %02d", i),
			TLA:        fmt.Sprintf("c%02d", i),
		})
	}

	matches := make([]ProviderMatch, 0, n*(n-1))
	id := int64(500000)
	for home := 1; home <= n; home++ {
		for away := 1; away <= n; away++ {
			if home == away {
				continue
			}
			id++
			matchday := (len(matches) / (n / 2)) + 1
			matches = append(matches, ProviderMatch{
				ProviderID: id,
				KickoffUTC: firstKickoff.Add(time.Duration(len(matches)) * time.Hour),
				Status:     "SCHEDULED",
				Matchday:   intPtr(matchday),
				Home:       team.Ref{ProviderID: int64(home), Name: teams[home-1].Name},
				Away:       team.Ref{ProviderID: int64(away), Name: teams[away-1].Name},
			})
		}
	}
	return teams, matches
}

func competitionRecord() competition.Competition {
	cfg, _ := competition.MustDefaultRegistry().Get("premier-league")
	return cfg.Competition()
}
