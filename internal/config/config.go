package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/fixture-sync/internal/platform/logging"
	"github.com/riskibarqy/fixture-sync/internal/platform/resilience"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Canonical store backends.
const (
	StoreBackendREST     = "postgrest"
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// Sources of raw broadcaster entries.
const (
	BroadcastSourceRightsFeed = "rightsfeed"
	BroadcastSourceSportMonks = "sportmonks"
)

// Policies for broadcaster names that match no known provider.
const (
	UnmatchedPolicySky     = "sky"
	UnmatchedPolicyUnknown = "unknown"
)

// Rights feed credential placement.
const (
	RightsAuthHeader = "header"
	RightsAuthQuery  = "query"
)

// Config stores runtime configuration for every job. It is built once by
// Load and passed down explicitly.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	LogLevel       logging.Level

	StoreBackend            string
	StoreRESTURL            string
	StoreServiceKey         string
	StoreTimeout            time.Duration
	DBURL                   string
	DBDisablePreparedBinary bool

	FootballDataBaseURL string
	FootballDataToken   string
	FootballDataTimeout time.Duration

	// SportMonksEnabled gates the live-score data source; LiveScoresEnabled
	// gates the live-score feature. Both must be true for the loop to run.
	SportMonksEnabled      bool
	SportMonksBaseURL      string
	SportMonksToken        string
	SportMonksTimeout      time.Duration
	SportMonksTerritoryIDs []int64
	LiveScoresEnabled      bool
	LiveScoreInterval      time.Duration
	LiveUpdateDelay        time.Duration

	RightsFeedBaseURL  string
	RightsFeedUser     string
	RightsFeedToken    string
	RightsFeedAuthMode string
	RightsFeedTimeout  time.Duration

	BroadcastSource          string
	BroadcastTerritories     []string
	BroadcastUnmatchedPolicy string
	BroadcastWindow          time.Duration
	BroadcastDelay           time.Duration

	TeamImportCooldown time.Duration
	TeamChunkSize      int
	FixtureChunkSize   int
	DefaultSeason      string

	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	ProviderCircuit  resilience.CircuitBreakerConfig

	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	MetricsAddr                string
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	storeBackend := strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", StoreBackendREST)))
	switch storeBackend {
	case StoreBackendREST, StoreBackendPostgres, StoreBackendMemory:
	default:
		return Config{}, fmt.Errorf("invalid STORE_BACKEND %q: valid values are %s, %s, %s", storeBackend, StoreBackendREST, StoreBackendPostgres, StoreBackendMemory)
	}
	storeRESTURL := strings.TrimRight(strings.TrimSpace(getEnv("STORE_REST_URL", "")), "/")
	storeServiceKey := strings.TrimSpace(getEnv("STORE_SERVICE_KEY", ""))
	if storeBackend == StoreBackendREST {
		if storeRESTURL == "" {
			return Config{}, fmt.Errorf("STORE_REST_URL is required when STORE_BACKEND=%s", StoreBackendREST)
		}
		if storeServiceKey == "" {
			return Config{}, fmt.Errorf("STORE_SERVICE_KEY is required when STORE_BACKEND=%s", StoreBackendREST)
		}
	}
	storeTimeout, err := positiveDuration("STORE_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}
	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if storeBackend == StoreBackendPostgres && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when STORE_BACKEND=%s", StoreBackendPostgres)
	}
	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	footballDataTimeout, err := positiveDuration("FOOTBALL_DATA_TIMEOUT", "20s")
	if err != nil {
		return Config{}, err
	}

	sportMonksEnabled, err := strconv.ParseBool(getEnv("SPORTMONKS_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTMONKS_ENABLED: %w", err)
	}
	liveScoresEnabled, err := strconv.ParseBool(getEnv("LIVE_SCORES_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LIVE_SCORES_ENABLED: %w", err)
	}
	sportMonksTimeout, err := positiveDuration("SPORTMONKS_TIMEOUT", "20s")
	if err != nil {
		return Config{}, err
	}
	territoryIDs, err := parseIDList(getEnv("SPORTMONKS_TERRITORY_COUNTRY_IDS", "462"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTMONKS_TERRITORY_COUNTRY_IDS: %w", err)
	}
	liveScoreInterval, err := positiveDuration("LIVE_SCORE_INTERVAL", "60s")
	if err != nil {
		return Config{}, err
	}
	liveUpdateDelay, err := nonNegativeDuration("LIVE_UPDATE_DELAY", "100ms")
	if err != nil {
		return Config{}, err
	}

	rightsAuthMode := strings.ToLower(strings.TrimSpace(getEnv("RIGHTS_FEED_AUTH_MODE", RightsAuthHeader)))
	if rightsAuthMode != RightsAuthHeader && rightsAuthMode != RightsAuthQuery {
		return Config{}, fmt.Errorf("invalid RIGHTS_FEED_AUTH_MODE %q: valid values are %s, %s", rightsAuthMode, RightsAuthHeader, RightsAuthQuery)
	}

	rightsFeedTimeout, err := positiveDuration("RIGHTS_FEED_TIMEOUT", "20s")
	if err != nil {
		return Config{}, err
	}

	broadcastSource := strings.ToLower(strings.TrimSpace(getEnv("BROADCAST_SOURCE", BroadcastSourceRightsFeed)))
	if broadcastSource != BroadcastSourceRightsFeed && broadcastSource != BroadcastSourceSportMonks {
		return Config{}, fmt.Errorf("invalid BROADCAST_SOURCE %q: valid values are %s, %s", broadcastSource, BroadcastSourceRightsFeed, BroadcastSourceSportMonks)
	}
	unmatchedPolicy := strings.ToLower(strings.TrimSpace(getEnv("BROADCAST_UNMATCHED_POLICY", UnmatchedPolicySky)))
	if unmatchedPolicy != UnmatchedPolicySky && unmatchedPolicy != UnmatchedPolicyUnknown {
		return Config{}, fmt.Errorf("invalid BROADCAST_UNMATCHED_POLICY %q: valid values are %s, %s", unmatchedPolicy, UnmatchedPolicySky, UnmatchedPolicyUnknown)
	}
	territories := splitCSV(getEnv("BROADCAST_TERRITORIES", "united kingdom,uk,england,great britain,gb"))
	if len(territories) == 0 {
		return Config{}, fmt.Errorf("BROADCAST_TERRITORIES cannot be empty")
	}
	broadcastWindow, err := positiveDuration("BROADCAST_WINDOW", "336h")
	if err != nil {
		return Config{}, err
	}
	broadcastDelay, err := nonNegativeDuration("BROADCAST_DELAY", "350ms")
	if err != nil {
		return Config{}, err
	}

	teamImportCooldown, err := nonNegativeDuration("TEAM_IMPORT_COOLDOWN", "10s")
	if err != nil {
		return Config{}, err
	}
	teamChunkSize, err := positiveInt("TEAM_CHUNK_SIZE", 50)
	if err != nil {
		return Config{}, err
	}
	fixtureChunkSize, err := positiveInt("FIXTURE_CHUNK_SIZE", 100)
	if err != nil {
		return Config{}, err
	}

	retryMaxAttempts, err := positiveInt("RETRY_MAX_ATTEMPTS", 3)
	if err != nil {
		return Config{}, err
	}
	retryBaseDelay, err := nonNegativeDuration("RETRY_BASE_DELAY", "1s")
	if err != nil {
		return Config{}, err
	}

	circuitEnabled, err := strconv.ParseBool(getEnv("PROVIDER_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PROVIDER_CIRCUIT_ENABLED: %w", err)
	}
	circuitFailureCount, err := positiveInt("PROVIDER_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, err
	}
	circuitOpenTimeout, err := positiveDuration("PROVIDER_CIRCUIT_OPEN_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}
	circuitHalfOpenMaxReq, err := positiveInt("PROVIDER_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := positiveDuration("PYROSCOPE_UPLOAD_RATE", "15s")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                   appEnv,
		ServiceName:              getEnv("APP_SERVICE_NAME", "fixture-sync"),
		ServiceVersion:           getEnv("APP_SERVICE_VERSION", "dev"),
		LogLevel:                 logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		StoreBackend:             storeBackend,
		StoreRESTURL:             storeRESTURL,
		StoreServiceKey:          storeServiceKey,
		StoreTimeout:             storeTimeout,
		DBURL:                    dbURL,
		DBDisablePreparedBinary:  dbDisablePreparedBinary,
		FootballDataBaseURL:      strings.TrimSpace(getEnv("FOOTBALL_DATA_BASE_URL", "https://api.football-data.org/v4")),
		FootballDataToken:        strings.TrimSpace(getEnv("FOOTBALL_DATA_TOKEN", "")),
		FootballDataTimeout:      footballDataTimeout,
		SportMonksEnabled:        sportMonksEnabled,
		SportMonksBaseURL:        strings.TrimSpace(getEnv("SPORTMONKS_BASE_URL", "https://api.sportmonks.com/v3/football")),
		SportMonksToken:          strings.TrimSpace(getEnv("SPORTMONKS_TOKEN", "")),
		SportMonksTimeout:        sportMonksTimeout,
		SportMonksTerritoryIDs:   territoryIDs,
		LiveScoresEnabled:        liveScoresEnabled,
		LiveScoreInterval:        liveScoreInterval,
		LiveUpdateDelay:          liveUpdateDelay,
		RightsFeedBaseURL:        strings.TrimSpace(getEnv("RIGHTS_FEED_BASE_URL", "")),
		RightsFeedUser:           strings.TrimSpace(getEnv("RIGHTS_FEED_USER", "")),
		RightsFeedToken:          strings.TrimSpace(getEnv("RIGHTS_FEED_TOKEN", "")),
		RightsFeedAuthMode:       rightsAuthMode,
		RightsFeedTimeout:        rightsFeedTimeout,
		BroadcastSource:          broadcastSource,
		BroadcastTerritories:     territories,
		BroadcastUnmatchedPolicy: unmatchedPolicy,
		BroadcastWindow:          broadcastWindow,
		BroadcastDelay:           broadcastDelay,
		TeamImportCooldown:       teamImportCooldown,
		TeamChunkSize:            teamChunkSize,
		FixtureChunkSize:         fixtureChunkSize,
		DefaultSeason:            strings.TrimSpace(getEnv("DEFAULT_SEASON", "")),
		RetryMaxAttempts:         retryMaxAttempts,
		RetryBaseDelay:           retryBaseDelay,
		ProviderCircuit: resilience.CircuitBreakerConfig{
			Enabled:          circuitEnabled,
			FailureThreshold: circuitFailureCount,
			OpenTimeout:      circuitOpenTimeout,
			HalfOpenMaxReq:   circuitHalfOpenMaxReq,
		},
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
		MetricsAddr:                strings.TrimSpace(getEnv("METRICS_ADDR", "")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}

	return cfg, nil
}

// LiveScoresActive reports whether both live-score switches are on.
func (c Config) LiveScoresActive() bool {
	return c.SportMonksEnabled && c.LiveScoresEnabled
}

func (c Config) RetryPolicy() resilience.RetryPolicy {
	return resilience.RetryPolicy{
		MaxAttempts: c.RetryMaxAttempts,
		BaseDelay:   c.RetryBaseDelay,
		MaxDelay:    10 * c.RetryBaseDelay,
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func positiveInt(key string, fallback int) (int, error) {
	value, err := getEnvAsInt(key, fallback)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if value < 1 {
		return 0, fmt.Errorf("%s must be >= 1", key)
	}
	return value, nil
}

func positiveDuration(key, fallback string) (time.Duration, error) {
	value, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return value, nil
}

func nonNegativeDuration(key, fallback string) (time.Duration, error) {
	value, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("%s must be >= 0", key)
	}
	return value, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseIDList(raw string) ([]int64, error) {
	items := splitCSV(raw)
	out := make([]int64, 0, len(items))
	for _, item := range items {
		value, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", item, err)
		}
		if value <= 0 {
			return nil, fmt.Errorf("id must be > 0, got %d", value)
		}
		out = append(out, value)
	}
	return out, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
