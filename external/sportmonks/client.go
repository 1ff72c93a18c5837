// Package sportmonks reads in-play scores, daily schedules and TV listings
// from the SportMonks v3 football API.
package sportmonks

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/fixture-sync/external/provider"
	"github.com/riskibarqy/fixture-sync/internal/domain/broadcast"
	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
	"github.com/riskibarqy/fixture-sync/internal/platform/logging"
	"github.com/riskibarqy/fixture-sync/internal/platform/resilience"
	"github.com/riskibarqy/fixture-sync/internal/usecase"
)

const (
	defaultBaseURL         = "https://api.sportmonks.com/v3/football"
	defaultIncludeInPlay   = "state;scores;participants"
	defaultIncludeSchedule = "participants"
	defaultIncludeTV       = "tvstations.tvstation"
	territoryName          = "United Kingdom"
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	// TerritoryCountryIDs are SportMonks country ids reported as the
	// broadcast territory.
	TerritoryCountryIDs []int64
}

type Client struct {
	api         *provider.Client
	logger      *logging.Logger
	territories map[int64]struct{}
}

var (
	_ usecase.LiveScoreProvider = (*Client)(nil)
	_ usecase.BroadcastSource   = (*Client)(nil)
)

func NewClient(cfg ClientConfig) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	api, err := provider.New(provider.Config{
		Name:           "sportmonks",
		HTTPClient:     cfg.HTTPClient,
		BaseURL:        baseURL,
		Auth:           provider.QueryToken{Param: "api_token", Token: strings.TrimSpace(cfg.Token)},
		Timeout:        cfg.Timeout,
		Logger:         logger,
		CircuitBreaker: cfg.CircuitBreaker,
	})
	if err != nil {
		return nil, err
	}

	territories := make(map[int64]struct{}, len(cfg.TerritoryCountryIDs))
	for _, id := range cfg.TerritoryCountryIDs {
		territories[id] = struct{}{}
	}
	return &Client{api: api, logger: logger, territories: territories}, nil
}

func (c *Client) ListInPlay(ctx context.Context) ([]usecase.LiveMatch, error) {
	var envelope fixturesEnvelope
	if _, err := c.api.Fetch(ctx, "/livescores/inplay", url.Values{"include": {defaultIncludeInPlay}}, &envelope); err != nil {
		return nil, fmt.Errorf("fetch in-play fixtures: %w", err)
	}

	out := make([]usecase.LiveMatch, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		if item.ID <= 0 {
			continue
		}
		home, away := resolveFixtureScores(item.Scores, item.Participants)
		out = append(out, usecase.LiveMatch{
			ProviderID: item.ID,
			Status:     mapFixtureStatus(item.StateID, item.ResultInfo),
			HomeScore:  home,
			AwayScore:  away,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProviderID < out[j].ProviderID })
	return out, nil
}

func (c *Client) ListByDate(ctx context.Context, day time.Time) ([]usecase.ScheduledLiveMatch, error) {
	date := day.UTC().Format("2006-01-02")
	var envelope fixturesEnvelope
	if _, err := c.api.Fetch(ctx, "/fixtures/date/"+date, url.Values{"include": {defaultIncludeSchedule}}, &envelope); err != nil {
		return nil, fmt.Errorf("fetch fixtures date=%s: %w", date, err)
	}

	out := make([]usecase.ScheduledLiveMatch, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		if item.ID <= 0 {
			continue
		}
		homeName, awayName, _, _ := resolveFixtureParticipants(item.Participants)
		if homeName == "" || awayName == "" {
			continue
		}
		match := usecase.ScheduledLiveMatch{
			ProviderID: item.ID,
			HomeName:   homeName,
			AwayName:   awayName,
		}
		if kickoff := parseProviderDateTime(item.StartingAt); kickoff != nil {
			match.KickoffUTC = *kickoff
		}
		out = append(out, match)
	}
	return out, nil
}

// ListBroadcasts returns TV listings for a fixture linked to a SportMonks id.
// Stations in a territory country are reported under the territory name.
func (c *Client) ListBroadcasts(ctx context.Context, f fixture.Fixture) ([]broadcast.Entry, error) {
	if f.LiveProviderID == nil || *f.LiveProviderID <= 0 {
		return nil, crerr.Wrapf(usecase.ErrNoBroadcastKey, "fixture_id=%d", f.ID)
	}

	path := "/fixtures/" + strconv.FormatInt(*f.LiveProviderID, 10)
	var envelope fixtureEnvelope
	if _, err := c.api.Fetch(ctx, path, url.Values{"include": {defaultIncludeTV}}, &envelope); err != nil {
		return nil, fmt.Errorf("fetch tv stations fixture_id=%d: %w", f.ID, err)
	}

	out := make([]broadcast.Entry, 0, len(envelope.Data.TVStations))
	for _, item := range envelope.Data.TVStations {
		name := strings.TrimSpace(item.TVStation.Data.Name)
		if name == "" {
			continue
		}
		out = append(out, broadcast.Entry{Name: name, Country: c.countryName(item.CountryID)})
	}
	return out, nil
}

func (c *Client) countryName(countryID int64) string {
	if _, ok := c.territories[countryID]; ok {
		return territoryName
	}
	if countryID <= 0 {
		return ""
	}
	return strconv.FormatInt(countryID, 10)
}

func parseProviderDateTime(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}

	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z07:00",
		time.RFC3339,
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			v := parsed.UTC()
			return &v
		}
	}
	return nil
}

func resolveFixtureParticipants(participants []fixtureParticipant) (string, string, int64, int64) {
	var homeName, awayName string
	var homeID, awayID int64
	for _, item := range participants {
		switch strings.ToLower(strings.TrimSpace(item.Meta.Location)) {
		case "home":
			homeName = strings.TrimSpace(item.Name)
			homeID = item.ID
		case "away":
			awayName = strings.TrimSpace(item.Name)
			awayID = item.ID
		}
	}
	return homeName, awayName, homeID, awayID
}

// resolveFixtureScores picks the most authoritative score description present
// ("current" beats period scores) and returns it per side.
func resolveFixtureScores(scores []fixtureScoreItem, participants []fixtureParticipant) (*int, *int) {
	if len(scores) == 0 {
		return nil, nil
	}
	_, _, homeParticipantID, awayParticipantID := resolveFixtureParticipants(participants)

	bestWeight := 0
	homeValues := map[int]int{}
	awayValues := map[int]int{}
	for _, score := range scores {
		value, ok := score.numericScore()
		if !ok {
			continue
		}

		weight := scoreDescriptionWeight(score.Description)
		if weight > bestWeight {
			bestWeight = weight
			homeValues = map[int]int{}
			awayValues = map[int]int{}
		}
		if weight < bestWeight {
			continue
		}

		participantID := score.ParticipantID
		if participantID == 0 {
			participantID = score.participantFromLocation(homeParticipantID, awayParticipantID)
		}
		if participantID == homeParticipantID && homeParticipantID > 0 {
			homeValues[weight] = value
		}
		if participantID == awayParticipantID && awayParticipantID > 0 {
			awayValues[weight] = value
		}
	}

	var home *int
	if value, ok := homeValues[bestWeight]; ok {
		home = &value
	}
	var away *int
	if value, ok := awayValues[bestWeight]; ok {
		away = &value
	}
	return home, away
}

func scoreDescriptionWeight(raw string) int {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case value == "current":
		return 6
	case strings.Contains(value, "normal_time"), strings.Contains(value, "90"):
		return 5
	case strings.Contains(value, "extra_time"):
		return 4
	case strings.Contains(value, "penalt"):
		return 3
	case value == "1st_half", value == "2nd_half":
		return 2
	default:
		return 1
	}
}

func mapFixtureStatus(stateID int64, resultInfo string) fixture.Status {
	switch stateID {
	// 3, 4 and 21 are half-time and breaks; the match is still in play.
	case 2, 3, 4, 6, 9, 21, 22, 25:
		return fixture.StatusLive
	case 5, 7, 8, 14:
		return fixture.StatusFinished
	case 10:
		return fixture.StatusPostponed
	case 11, 17:
		return fixture.StatusSuspended
	case 12, 15:
		return fixture.StatusCanceled
	case 1, 13:
		return fixture.StatusScheduled
	}

	info := strings.ToLower(strings.TrimSpace(resultInfo))
	switch {
	case strings.Contains(info, "postpon"):
		return fixture.StatusPostponed
	case strings.Contains(info, "cancel"), strings.Contains(info, "abandon"):
		return fixture.StatusCanceled
	case strings.Contains(info, "half time"), strings.Contains(info, "break"),
		strings.Contains(info, "live"), strings.Contains(info, "in play"):
		return fixture.StatusLive
	case strings.Contains(info, "finish"), strings.Contains(info, "full time"), strings.Contains(info, "aet"), strings.Contains(info, "pen"):
		return fixture.StatusFinished
	default:
		return fixture.StatusLive
	}
}
