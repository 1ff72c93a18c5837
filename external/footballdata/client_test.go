package footballdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/fixture-sync/external/provider"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{BaseURL: srv.URL, Token: "fd-token"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClient_RequiresToken(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(ClientConfig{Token: " "}); !errors.Is(err, provider.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestClient_ListTeams(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Auth-Token") != "fd-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/competitions/2021/teams" || r.URL.Query().Get("season") != "2025" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{
			"count": 3,
			"teams": [
				{"id": 65, "name": "Manchester City FC", "shortName": "Man City", "tla": "MCI", "crest": "https://crests.football-data.org/65.png", "founded": 1880, "clubColors": "Sky Blue / White", "venue": "Etihad Stadium"},
				{"id": 57, "name": "Arsenal FC", "shortName": "Arsenal", "tla": "ARS", "founded": null},
				{"id": 0, "name": "Broken"}
			]
		}`))
	})

	teams, err := client.ListTeams(context.Background(), 2021, "2025")
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	if len(teams) != 2 {
		t.Fatalf("expected 2 valid teams, got %d", len(teams))
	}
	if teams[0].ProviderID != 57 || teams[1].ProviderID != 65 {
		t.Fatalf("teams not sorted by provider id: %+v", teams)
	}
	if teams[1].Founded != 1880 || teams[1].Venue != "Etihad Stadium" || teams[1].ShortName != "Man City" {
		t.Fatalf("unexpected team mapping: %+v", teams[1])
	}
}

func TestClient_ListMatches(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/competitions/2001/matches" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Has("season") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{
			"matches": [
				{
					"id": 552001, "utcDate": "2026-09-16T19:00:00Z", "status": "TIMED", "matchday": 1,
					"stage": "LEAGUE_STAGE", "group": null,
					"homeTeam": {"id": 57, "name": "Arsenal FC", "shortName": "Arsenal"},
					"awayTeam": {"id": 86, "name": "Real Madrid CF", "shortName": "Real Madrid"},
					"score": {"fullTime": {"home": null, "away": null}}
				},
				{
					"id": 551999, "utcDate": "", "status": "SCHEDULED", "matchday": null, "stage": "LAST_16",
					"homeTeam": {"id": null, "name": null}, "awayTeam": {"id": null, "name": null},
					"score": {"fullTime": {"home": 2, "away": 1}}
				}
			]
		}`))
	})

	matches, err := client.ListMatches(context.Background(), 2001, "")
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}

	tbd := matches[0]
	if tbd.ProviderID != 551999 || !tbd.KickoffUTC.IsZero() || !tbd.Home.IsZero() {
		t.Fatalf("unexpected undetermined match: %+v", tbd)
	}
	if tbd.HomeScore == nil || *tbd.HomeScore != 2 {
		t.Fatalf("expected full-time score, got %+v", tbd.HomeScore)
	}

	m := matches[1]
	wantKickoff := time.Date(2026, 9, 16, 19, 0, 0, 0, time.UTC)
	if !m.KickoffUTC.Equal(wantKickoff) {
		t.Fatalf("unexpected kickoff: %s", m.KickoffUTC)
	}
	if m.Home.ProviderID != 57 || m.Away.Name != "Real Madrid CF" || m.Status != "TIMED" {
		t.Fatalf("unexpected match mapping: %+v", m)
	}
	if m.Matchday == nil || *m.Matchday != 1 || m.Stage != "LEAGUE_STAGE" {
		t.Fatalf("unexpected matchday/stage: %+v", m)
	}
}

func TestClient_ForbiddenCompetition(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"The resource you are looking for is restricted and apparently not within your permissions.","errorCode":403}`))
	})

	_, err := client.ListMatches(context.Background(), 2055, "2025")
	if !provider.IsForbidden(err) {
		t.Fatalf("expected 403 to surface, got %v", err)
	}
}

func TestClient_GetCompetition(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":2021,"name":"Premier League","code":"PL","type":"LEAGUE","currentSeason":{"id":2403,"startDate":"2025-08-15","endDate":"2026-05-24","currentMatchday":9}}`))
	})

	comp, err := client.GetCompetition(context.Background(), 2021)
	if err != nil {
		t.Fatalf("get competition: %v", err)
	}
	if comp.Code != "PL" || comp.Season != "2025" || comp.Type != "LEAGUE" {
		t.Fatalf("unexpected competition: %+v", comp)
	}
}
