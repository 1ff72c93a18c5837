// Package footballdata reads competitions, teams and matches from the
// football-data.org v4 API.
package footballdata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/fixture-sync/external/provider"
	"github.com/riskibarqy/fixture-sync/internal/domain/team"
	"github.com/riskibarqy/fixture-sync/internal/platform/logging"
	"github.com/riskibarqy/fixture-sync/internal/platform/resilience"
	"github.com/riskibarqy/fixture-sync/internal/usecase"
)

const (
	defaultBaseURL = "https://api.football-data.org/v4"
	authHeader     = "X-Auth-Token"
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	api *provider.Client
}

var _ usecase.FixtureProvider = (*Client)(nil)

func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	api, err := provider.New(provider.Config{
		Name:           "football-data",
		HTTPClient:     cfg.HTTPClient,
		BaseURL:        baseURL,
		Auth:           provider.HeaderToken{Header: authHeader, Token: strings.TrimSpace(cfg.Token)},
		Timeout:        cfg.Timeout,
		Logger:         cfg.Logger,
		CircuitBreaker: cfg.CircuitBreaker,
	})
	if err != nil {
		return nil, err
	}
	return &Client{api: api}, nil
}

func (c *Client) GetCompetition(ctx context.Context, providerID int64) (usecase.ProviderCompetition, error) {
	var payload competitionPayload
	if _, err := c.api.Fetch(ctx, competitionPath(providerID, ""), nil, &payload); err != nil {
		return usecase.ProviderCompetition{}, fmt.Errorf("fetch competition id=%d: %w", providerID, err)
	}

	out := usecase.ProviderCompetition{
		ProviderID: payload.ID,
		Code:       strings.TrimSpace(payload.Code),
		Name:       strings.TrimSpace(payload.Name),
		Type:       strings.TrimSpace(payload.Type),
	}
	if payload.CurrentSeason != nil {
		out.Season = seasonYear(payload.CurrentSeason.StartDate)
	}
	return out, nil
}

func (c *Client) ListTeams(ctx context.Context, providerID int64, season string) ([]usecase.ProviderTeam, error) {
	var payload teamsPayload
	if _, err := c.api.Fetch(ctx, competitionPath(providerID, "teams"), seasonQuery(season), &payload); err != nil {
		return nil, fmt.Errorf("fetch teams competition_id=%d season=%s: %w", providerID, season, err)
	}

	out := make([]usecase.ProviderTeam, 0, len(payload.Teams))
	for _, item := range payload.Teams {
		if item.ID <= 0 || strings.TrimSpace(item.Name) == "" {
			continue
		}
		founded := 0
		if item.Founded != nil {
			founded = *item.Founded
		}
		out = append(out, usecase.ProviderTeam{
			ProviderID: item.ID,
			Name:       strings.TrimSpace(item.Name),
			ShortName:  strings.TrimSpace(item.ShortName),
			TLA:        strings.TrimSpace(item.TLA),
			CrestURL:   strings.TrimSpace(item.Crest),
			Venue:      strings.TrimSpace(item.Venue),
			Founded:    founded,
			ClubColors: strings.TrimSpace(item.ClubColors),
			Website:    strings.TrimSpace(item.Website),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProviderID < out[j].ProviderID })
	return out, nil
}

func (c *Client) ListMatches(ctx context.Context, providerID int64, season string) ([]usecase.ProviderMatch, error) {
	var payload matchesPayload
	if _, err := c.api.Fetch(ctx, competitionPath(providerID, "matches"), seasonQuery(season), &payload); err != nil {
		return nil, fmt.Errorf("fetch matches competition_id=%d season=%s: %w", providerID, season, err)
	}

	out := make([]usecase.ProviderMatch, 0, len(payload.Matches))
	for _, item := range payload.Matches {
		if item.ID <= 0 {
			continue
		}
		match := usecase.ProviderMatch{
			ProviderID: item.ID,
			Status:     strings.TrimSpace(item.Status),
			Matchday:   item.Matchday,
			Stage:      strings.TrimSpace(item.Stage),
			Group:      strings.TrimSpace(item.Group),
			Home:       item.HomeTeam.ref(),
			Away:       item.AwayTeam.ref(),
			HomeScore:  item.Score.FullTime.Home,
			AwayScore:  item.Score.FullTime.Away,
		}
		if kickoff := parseUTCDate(item.UTCDate); kickoff != nil {
			match.KickoffUTC = *kickoff
		}
		out = append(out, match)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProviderID < out[j].ProviderID })
	return out, nil
}

func competitionPath(providerID int64, resource string) string {
	path := "/competitions/" + strconv.FormatInt(providerID, 10)
	if resource != "" {
		path += "/" + resource
	}
	return path
}

func seasonQuery(season string) url.Values {
	season = strings.TrimSpace(season)
	if season == "" {
		return nil
	}
	return url.Values{"season": {season}}
}

func parseUTCDate(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			v := parsed.UTC()
			return &v
		}
	}
	return nil
}

func seasonYear(startDate string) string {
	if len(startDate) >= 4 {
		return startDate[:4]
	}
	return ""
}

type competitionPayload struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Code          string         `json:"code"`
	Type          string         `json:"type"`
	CurrentSeason *seasonPayload `json:"currentSeason"`
}

type seasonPayload struct {
	ID              int64  `json:"id"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	CurrentMatchday *int   `json:"currentMatchday"`
}

type teamsPayload struct {
	Count int           `json:"count"`
	Teams []teamPayload `json:"teams"`
}

type teamPayload struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ShortName  string `json:"shortName"`
	TLA        string `json:"tla"`
	Crest      string `json:"crest"`
	Website    string `json:"website"`
	Founded    *int   `json:"founded"`
	ClubColors string `json:"clubColors"`
	Venue      string `json:"venue"`
}

type matchesPayload struct {
	Matches []matchPayload `json:"matches"`
}

type matchPayload struct {
	ID       int64          `json:"id"`
	UTCDate  string         `json:"utcDate"`
	Status   string         `json:"status"`
	Matchday *int           `json:"matchday"`
	Stage    string         `json:"stage"`
	Group    string         `json:"group"`
	HomeTeam matchTeam      `json:"homeTeam"`
	AwayTeam matchTeam      `json:"awayTeam"`
	Score    matchScoreBody `json:"score"`
}

type matchTeam struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

func (t matchTeam) ref() team.Ref {
	return team.Ref{
		ProviderID: t.ID,
		Name:       strings.TrimSpace(t.Name),
		ShortName:  strings.TrimSpace(t.ShortName),
	}
}

type matchScoreBody struct {
	FullTime struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"fullTime"`
}
