package postgrest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/fixture-sync/internal/domain/competition"
	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
	"github.com/riskibarqy/fixture-sync/internal/domain/team"
	"github.com/riskibarqy/fixture-sync/internal/platform/resilience"
	"github.com/riskibarqy/fixture-sync/internal/platform/storage"
)

type captured struct {
	method string
	path   string
	query  string
	prefer string
	body   string
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body string)) (*Client, *[]captured) {
	t.Helper()
	var (
		mu       sync.Mutex
		requests []captured
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "service-key" || r.Header.Get("Authorization") != "Bearer service-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, captured{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, prefer: r.Header.Get("Prefer"), body: string(raw)})
		mu.Unlock()
		handler(w, r, string(raw))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL + "/rest/v1/", ServiceKey: "service-key"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, &requests
}

func TestWriteRecords_MergeSendsOnConflict(t *testing.T) {
	t.Parallel()

	client, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	spec := storage.TableSpec{Name: storage.TableTeams, Conflict: []string{"slug"}}
	err := client.WriteRecords(context.Background(), spec, []any{
		team.Team{ID: 57, Name: "Arsenal FC", Slug: "arsenal", CompetitionID: 1},
		team.Team{ID: 65, Name: "Manchester City FC", Slug: "manchester-city", CompetitionID: 1},
	})
	if err != nil {
		t.Fatalf("write records: %v", err)
	}

	if len(*requests) != 2 || (*requests)[0].method != http.MethodGet {
		t.Fatalf("expected id lookup before merge, got %+v", *requests)
	}
	got := (*requests)[1]
	if got.method != http.MethodPost || got.path != "/rest/v1/teams" || got.query != "on_conflict=slug" {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.prefer != "resolution=merge-duplicates,return=minimal" {
		t.Fatalf("unexpected prefer header: %q", got.prefer)
	}
	var rows []map[string]any
	if err := sonic.UnmarshalString(got.body, &rows); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(rows) != 2 || rows[1]["slug"] != "manchester-city" {
		t.Fatalf("unexpected body: %s", got.body)
	}
}

func TestWriteRecords_TeamMergeKeepsStoredID(t *testing.T) {
	t.Parallel()

	client, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		if r.Method == http.MethodGet {
			// Arsenal was created earlier by name; Chelsea is new.
			_, _ = w.Write([]byte(`[{"id":1000003,"slug":"arsenal"}]`))
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	spec := storage.TableSpec{Name: storage.TableTeams, Conflict: []string{"slug"}, Mode: storage.ConflictMerge}
	err := client.WriteRecords(context.Background(), spec, []any{
		team.Team{ID: 57, Name: "Arsenal FC", Slug: "arsenal", CompetitionID: 1},
		team.Team{ID: 61, Name: "Chelsea FC", Slug: "chelsea", CompetitionID: 1},
	})
	if err != nil {
		t.Fatalf("write records: %v", err)
	}

	lookup := (*requests)[0]
	q, _ := url.ParseQuery(lookup.query)
	if lookup.method != http.MethodGet || lookup.path != "/rest/v1/teams" || q.Get("slug") != "in.(arsenal,chelsea)" || q.Get("select") != "id,slug" {
		t.Fatalf("unexpected lookup: %+v", lookup)
	}
	var rows []map[string]any
	if err := sonic.UnmarshalString((*requests)[1].body, &rows); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("unexpected body: %s", (*requests)[1].body)
	}
	if rows[0]["slug"] != "arsenal" || rows[0]["id"] != float64(1000003) {
		t.Fatalf("merge must keep the stored id, got %v", rows[0])
	}
	if rows[1]["id"] != float64(61) {
		t.Fatalf("new team keeps the provider id, got %v", rows[1])
	}
}

func TestWriteRecords_PlainInsertDuplicate(t *testing.T) {
	t.Parallel()

	client, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint \"fixtures_pkey\"","details":"Key (id)=(537785) already exists.","hint":null}`))
	})

	spec := storage.TableSpec{Name: storage.TableFixtures, Conflict: []string{"id"}, Mode: storage.ConflictReject}
	err := client.WriteRecords(context.Background(), spec, []any{fixture.Fixture{ID: 537785, HomeTeamID: 57, AwayTeamID: 65, KickoffUTC: time.Now(), Status: fixture.StatusScheduled}})
	if !storage.IsDuplicate(err) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if resilience.IsTransient(err) {
		t.Fatalf("duplicate must not be transient")
	}
	if (*requests)[0].query != "" || (*requests)[0].prefer != "return=minimal" {
		t.Fatalf("plain insert must not request merge: %+v", (*requests)[0])
	}
	var storeErr *storage.Error
	if !errors.As(err, &storeErr) || !strings.Contains(storeErr.Message, "537785") {
		t.Fatalf("expected details in message, got %v", err)
	}
}

func TestWriteRecords_ServerErrorIsTransient(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("upstream connect error"))
	})

	err := client.WriteRecords(context.Background(), storage.TableSpec{Name: storage.TableTeams, Conflict: []string{"slug"}}, []any{team.Team{Name: "Arsenal FC", Slug: "arsenal"}})
	if !resilience.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestCompetitionUpsert_MissingTable(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"PGRST205","message":"Could not find the table 'public.competitions' in the schema cache"}`))
	})

	err := NewCompetitionRepository(client).Upsert(context.Background(), competitionRow())
	if !storage.IsTableNotFound(err) {
		t.Fatalf("expected table not found, got %v", err)
	}
}

func TestTeamRepository_GetBySlug(t *testing.T) {
	t.Parallel()

	client, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		if r.URL.Query().Get("slug") == "eq.arsenal" {
			_, _ = w.Write([]byte(`[{"id":57,"name":"Arsenal FC","short_name":"Arsenal","tla":"ARS","slug":"arsenal","competition_id":1,"crest_url":null,"venue":null,"founded":1886,"club_colors":null,"website":null}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})
	repo := NewTeamRepository(client)

	got, ok, err := repo.GetBySlug(context.Background(), "arsenal")
	if err != nil || !ok {
		t.Fatalf("get by slug: ok=%v err=%v", ok, err)
	}
	if got.ID != 57 || got.Founded != 1886 || got.CompetitionID != 1 {
		t.Fatalf("unexpected team: %+v", got)
	}
	if !strings.Contains((*requests)[0].query, "limit=1") {
		t.Fatalf("expected limit in query: %s", (*requests)[0].query)
	}

	_, ok, err = repo.GetBySlug(context.Background(), "spurs")
	if err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
}

func TestFixtureRepository_CountUsesContentRange(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		if r.Header.Get("Range") != "0-0" || r.Header.Get("Prefer") != "count=exact" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Range", "0-0/380")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte(`[{"id":1}]`))
	})

	n, err := NewFixtureRepository(client).CountByCompetition(context.Background(), 1)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 380 {
		t.Fatalf("expected 380, got %d", n)
	}
}

func TestFixtureRepository_UpdateLiveStateNotFound(t *testing.T) {
	t.Parallel()

	client, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		_, _ = w.Write([]byte(`[]`))
	})

	home := 2
	err := NewFixtureRepository(client).UpdateLiveState(context.Background(), 404, fixture.LiveUpdate{Status: fixture.StatusLive, HomeScore: &home, SyncedAt: time.Now()})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got := (*requests)[0]
	if got.method != http.MethodPatch || !strings.Contains(got.query, "id=eq.404") {
		t.Fatalf("unexpected patch request: %+v", got)
	}
	if strings.Contains(got.body, "away_score") || !strings.Contains(got.body, `"home_score":2`) {
		t.Fatalf("patch must only carry known scores: %s", got.body)
	}
}

func TestParseContentRangeTotal(t *testing.T) {
	t.Parallel()

	cases := map[string]int{"0-0/20": 20, "*/0": 0, "0-24/3573": 3573}
	for in, want := range cases {
		got, err := parseContentRangeTotal(in)
		if err != nil || got != want {
			t.Fatalf("parseContentRangeTotal(%q)=%d,%v want %d", in, got, err, want)
		}
	}
	if _, err := parseContentRangeTotal("0-0/*"); err == nil {
		t.Fatalf("expected error for unknown total")
	}
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{BaseURL: "ftp://store", ServiceKey: "k"}); err == nil {
		t.Fatalf("expected scheme validation error")
	}
	if _, err := NewClient(Config{BaseURL: "https://store.example.com", ServiceKey: " "}); err == nil {
		t.Fatalf("expected service key error")
	}
}

func competitionRow() competition.Competition {
	return competition.Competition{ID: 1, ProviderID: 2021, Code: "PL", Name: "Premier League", Slug: "premier-league", Type: competition.TypeLeague, IsActive: true}
}
