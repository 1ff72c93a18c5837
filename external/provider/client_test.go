package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/riskibarqy/fixture-sync/internal/platform/resilience"
)

func TestNew_RequiresCredentials(t *testing.T) {
	t.Parallel()

	cases := map[string]Auth{
		"nil auth":         nil,
		"empty header":     HeaderToken{Header: "X-Auth-Token"},
		"empty query":      QueryToken{Param: "api_token"},
		"pair without user": HeaderPair{UserHeader: "X-Api-User", TokenHeader: "X-Api-Token", Token: "t"},
		"query pair blank": QueryPair{UserParam: "username", TokenParam: "token"},
	}
	for name, auth := range cases {
		_, err := New(Config{Name: "test", BaseURL: "http://example.com", Auth: auth})
		if !errors.Is(err, ErrAuth) {
			t.Fatalf("%s: expected ErrAuth, got %v", name, err)
		}
	}
}

func TestFetch_InjectsAuthAndUserAgent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		auth  Auth
		check func(r *http.Request) bool
	}{
		{
			name:  "header token",
			auth:  HeaderToken{Header: "X-Auth-Token", Token: "secret"},
			check: func(r *http.Request) bool { return r.Header.Get("X-Auth-Token") == "secret" },
		},
		{
			name:  "query token",
			auth:  QueryToken{Param: "api_token", Token: "secret"},
			check: func(r *http.Request) bool { return r.URL.Query().Get("api_token") == "secret" },
		},
		{
			name: "header pair",
			auth: HeaderPair{UserHeader: "X-Api-User", User: "svc", TokenHeader: "X-Api-Token", Token: "secret"},
			check: func(r *http.Request) bool {
				return r.Header.Get("X-Api-User") == "svc" && r.Header.Get("X-Api-Token") == "secret"
			},
		},
		{
			name: "query pair",
			auth: QueryPair{UserParam: "username", User: "svc", TokenParam: "token", Token: "secret"},
			check: func(r *http.Request) bool {
				return r.URL.Query().Get("username") == "svc" && r.URL.Query().Get("token") == "secret"
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !tc.check(r) {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				if r.Header.Get("User-Agent") != DefaultUserAgent {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				if r.URL.Path != "/v4/competitions/PL/teams" || r.URL.Query().Get("season") != "2025" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				_, _ = w.Write([]byte(`{"count":1,"teams":[{"id":57,"name":"Arsenal FC"}]}`))
			}))
			defer srv.Close()

			client, err := New(Config{Name: "test", BaseURL: srv.URL + "/v4/", Auth: tc.auth})
			if err != nil {
				t.Fatalf("new client: %v", err)
			}

			var payload struct {
				Count int `json:"count"`
				Teams []struct {
					ID   int64  `json:"id"`
					Name string `json:"name"`
				} `json:"teams"`
			}
			if _, err := client.Fetch(context.Background(), "/competitions/PL/teams", url.Values{"season": {"2025"}}, &payload); err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if payload.Count != 1 || payload.Teams[0].ID != 57 {
				t.Fatalf("unexpected payload: %+v", payload)
			}
		})
	}
}

func TestFetch_NonSuccessReturnsHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"The resource you are looking for is restricted. token=secret"}`))
	}))
	defer srv.Close()

	client, err := New(Config{Name: "football-data", BaseURL: srv.URL, Auth: QueryToken{Param: "api_token", Token: "secret"}})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Fetch(context.Background(), "/competitions/FAC/matches", nil, nil)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %T %v", err, err)
	}
	if httpErr.StatusCode != http.StatusForbidden || !IsForbidden(err) {
		t.Fatalf("unexpected status: %d", httpErr.StatusCode)
	}
	if resilience.IsTransient(err) {
		t.Fatalf("403 must not be transient")
	}
	if strings.Contains(err.Error(), "secret") {
		t.Fatalf("secret leaked into error: %s", err.Error())
	}
	if !strings.Contains(httpErr.URL, "api_token=REDACTED") {
		t.Fatalf("expected redacted token in url, got %s", httpErr.URL)
	}
}

func TestFetch_ServerErrorIsTransientAndTripsBreaker(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := New(Config{
		Name:    "sportmonks",
		BaseURL: srv.URL,
		Auth:    QueryToken{Param: "api_token", Token: "secret"},
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
		},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	for i := 0; i < 2; i++ {
		_, err := client.Fetch(context.Background(), "/livescores/inplay", nil, nil)
		if !resilience.IsTransient(err) || StatusCode(err) != http.StatusBadGateway {
			t.Fatalf("attempt %d: expected transient 502, got %v", i, err)
		}
	}

	_, err = client.Fetch(context.Background(), "/livescores/inplay", nil, nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected breaker to reject, got %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected 2 upstream hits, got %d", got)
	}
}

func TestFetch_DoesNotRetry(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := New(Config{Name: "test", BaseURL: srv.URL, Auth: HeaderToken{Header: "X-Auth-Token", Token: "t"}})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Fetch(context.Background(), "/x", nil, nil); StatusCode(err) != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("client must not retry, got %d hits", got)
	}
}
