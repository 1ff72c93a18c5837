// Package rightsfeed reads per-fixture broadcaster listings from the
// broadcast-rights feed, keyed by the fixtures provider's match id.
package rightsfeed

import (
	"context"
	"fmt"
	"net/http"
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

// AuthMode places the credential pair in headers or query parameters.
type AuthMode string

const (
	AuthHeader AuthMode = "header"
	AuthQuery  AuthMode = "query"
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	User           string
	Token          string
	AuthMode       AuthMode
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	api *provider.Client
}

var _ usecase.BroadcastSource = (*Client)(nil)

func NewClient(cfg ClientConfig) (*Client, error) {
	user := strings.TrimSpace(cfg.User)
	token := strings.TrimSpace(cfg.Token)

	var auth provider.Auth
	switch cfg.AuthMode {
	case AuthQuery:
		auth = provider.QueryPair{UserParam: "username", User: user, TokenParam: "token", Token: token}
	case AuthHeader, "":
		auth = provider.HeaderPair{UserHeader: "X-Api-User", User: user, TokenHeader: "X-Api-Token", Token: token}
	default:
		return nil, fmt.Errorf("rights feed: unsupported auth mode %q", cfg.AuthMode)
	}

	api, err := provider.New(provider.Config{
		Name:           "rights-feed",
		HTTPClient:     cfg.HTTPClient,
		BaseURL:        cfg.BaseURL,
		Auth:           auth,
		Timeout:        cfg.Timeout,
		Logger:         cfg.Logger,
		CircuitBreaker: cfg.CircuitBreaker,
	})
	if err != nil {
		return nil, err
	}
	return &Client{api: api}, nil
}

func (c *Client) ListBroadcasts(ctx context.Context, f fixture.Fixture) ([]broadcast.Entry, error) {
	if f.ID <= 0 {
		return nil, crerr.Wrapf(usecase.ErrNoBroadcastKey, "fixture_id=%d", f.ID)
	}

	var payload listingPayload
	path := "/fixtures/" + strconv.FormatInt(f.ID, 10) + "/broadcasts"
	if _, err := c.api.Fetch(ctx, path, nil, &payload); err != nil {
		return nil, fmt.Errorf("fetch broadcasts fixture_id=%d: %w", f.ID, err)
	}

	out := make([]broadcast.Entry, 0, len(payload.Data))
	for _, item := range payload.Data {
		out = append(out, broadcast.Entry{
			Name:    strings.TrimSpace(item.Name),
			Country: strings.TrimSpace(item.Country),
		})
	}
	return out, nil
}

type listingPayload struct {
	Data []listingItem `json:"data"`
}

type listingItem struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}
