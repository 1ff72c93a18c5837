// Package app builds the stores, provider clients and services every command
// needs from one config.Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/riskibarqy/fixture-sync/external/footballdata"
	"github.com/riskibarqy/fixture-sync/external/rightsfeed"
	"github.com/riskibarqy/fixture-sync/external/sportmonks"
	"github.com/riskibarqy/fixture-sync/internal/config"
	"github.com/riskibarqy/fixture-sync/internal/domain/broadcast"
	"github.com/riskibarqy/fixture-sync/internal/domain/competition"
	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
	"github.com/riskibarqy/fixture-sync/internal/domain/team"
	"github.com/riskibarqy/fixture-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fixture-sync/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/fixture-sync/internal/infrastructure/repository/postgrest"
	"github.com/riskibarqy/fixture-sync/internal/observability"
	"github.com/riskibarqy/fixture-sync/internal/platform/logging"
	"github.com/riskibarqy/fixture-sync/internal/usecase"
)

type Options struct {
	// DryRun swaps the configured store for an empty in-memory one.
	DryRun bool
	// Metrics receives pipeline and pass counters; nil disables them.
	Metrics *observability.SyncMetrics
}

// Store groups one backend's writer and repositories.
type Store struct {
	Backend      string
	Writer       usecase.RecordWriter
	Teams        team.Repository
	Fixtures     fixture.Repository
	Competitions competition.Repository
}

type App struct {
	Config   config.Config
	Logger   *logging.Logger
	Registry *competition.Registry
	Store    Store

	metrics  usecase.Metrics
	resolver *usecase.TeamResolver
	pipeline *usecase.UpsertPipeline
	live     *sportmonks.Client
	liveErr  error
	closers  []func() error
}

func New(cfg config.Config, logger *logging.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: competition.MustDefaultRegistry(),
	}
	if opts.Metrics != nil {
		a.metrics = opts.Metrics
	}

	backend := cfg.StoreBackend
	if opts.DryRun {
		backend = config.StoreBackendMemory
	}
	store, err := a.openStore(backend)
	if err != nil {
		return nil, err
	}
	a.Store = store
	logger.Debug("store ready", "backend", store.Backend, "dry_run", opts.DryRun)

	a.resolver = usecase.NewTeamResolver(store.Teams, logger.Named("resolver"))
	a.pipeline = usecase.NewUpsertPipeline(store.Writer, cfg.RetryPolicy(), logger.Named("pipeline"), a.metrics)
	return a, nil
}

func (a *App) openStore(backend string) (Store, error) {
	switch backend {
	case config.StoreBackendMemory:
		s := memory.NewStore()
		return Store{
			Backend:      backend,
			Writer:       s,
			Teams:        s.TeamRepository(),
			Fixtures:     s.FixtureRepository(),
			Competitions: s.CompetitionRepository(),
		}, nil
	case config.StoreBackendPostgres:
		db, err := openDB(a.Config)
		if err != nil {
			return Store{}, fmt.Errorf("%w: %w", usecase.ErrConfiguration, err)
		}
		a.closers = append(a.closers, db.Close)
		return Store{
			Backend:      backend,
			Writer:       postgres.NewStore(db),
			Teams:        postgres.NewTeamRepository(db),
			Fixtures:     postgres.NewFixtureRepository(db),
			Competitions: postgres.NewCompetitionRepository(db),
		}, nil
	case config.StoreBackendREST:
		client, err := postgrest.NewClient(postgrest.Config{
			BaseURL:    a.Config.StoreRESTURL,
			ServiceKey: a.Config.StoreServiceKey,
			Timeout:    a.Config.StoreTimeout,
			Logger:     a.Logger,
		})
		if err != nil {
			return Store{}, fmt.Errorf("%w: %w", usecase.ErrConfiguration, err)
		}
		return Store{
			Backend:      backend,
			Writer:       client,
			Teams:        postgrest.NewTeamRepository(client),
			Fixtures:     postgrest.NewFixtureRepository(client),
			Competitions: postgrest.NewCompetitionRepository(client),
		}, nil
	default:
		return Store{}, fmt.Errorf("%w: unknown store backend %q", usecase.ErrConfiguration, backend)
	}
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := postgresDSN(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(postgresDBName(dsn)),
		otelsql.WithQueryFormatter(traceStatement),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// ImportService needs the fixtures provider token.
func (a *App) ImportService(opts ...usecase.ServiceOption) (*usecase.CompetitionImportService, error) {
	client, err := footballdata.NewClient(footballdata.ClientConfig{
		BaseURL:        a.Config.FootballDataBaseURL,
		Token:          a.Config.FootballDataToken,
		Timeout:        a.Config.FootballDataTimeout,
		Logger:         a.Logger,
		CircuitBreaker: a.Config.ProviderCircuit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: football-data client: %w", usecase.ErrConfiguration, err)
	}

	settings := usecase.ImportSettings{
		TeamChunkSize:    a.Config.TeamChunkSize,
		FixtureChunkSize: a.Config.FixtureChunkSize,
		Cooldown:         a.Config.TeamImportCooldown,
	}
	return usecase.NewCompetitionImportService(
		client,
		a.Store.Competitions,
		a.Store.Teams,
		a.Store.Fixtures,
		a.resolver,
		a.pipeline,
		settings,
		a.Logger.Named("import"),
		a.serviceOptions(opts)...,
	), nil
}

// LiveScoreService reports itself disabled when either switch is off. With
// both switches on, missing live-score credentials are a configuration error.
func (a *App) LiveScoreService(opts ...usecase.ServiceOption) (*usecase.LiveScoreSyncService, error) {
	var live usecase.LiveScoreProvider
	if a.Config.LiveScoresActive() {
		client := a.liveClient()
		if client == nil {
			return nil, fmt.Errorf("%w: sportmonks client: %w", usecase.ErrConfiguration, a.liveErr)
		}
		live = client
	}
	switches := usecase.LiveScoreSwitches{
		SourceEnabled:  a.Config.SportMonksEnabled,
		FeatureEnabled: a.Config.LiveScoresEnabled,
	}
	return usecase.NewLiveScoreSyncService(
		a.Store.Fixtures,
		live,
		switches,
		a.Config.LiveUpdateDelay,
		a.Logger.Named("livescores"),
		a.serviceOptions(opts)...,
	), nil
}

func (a *App) LiveScoreRunner(interval time.Duration, opts ...usecase.ServiceOption) (*usecase.LiveScoreRunner, error) {
	if interval <= 0 {
		interval = a.Config.LiveScoreInterval
	}
	svc, err := a.LiveScoreService(opts...)
	if err != nil {
		return nil, err
	}
	return usecase.NewLiveScoreRunner(svc, interval, a.Logger.Named("livescores")), nil
}

func (a *App) LiveLinkService(opts ...usecase.ServiceOption) (*usecase.LiveLinkService, error) {
	client := a.liveClient()
	if client == nil {
		return nil, fmt.Errorf("%w: sportmonks client: %w", usecase.ErrConfiguration, a.liveErr)
	}
	return usecase.NewLiveLinkService(a.Store.Fixtures, a.Store.Teams, client, a.Logger.Named("link"), a.serviceOptions(opts)...), nil
}

func (a *App) BroadcastService(opts ...usecase.ServiceOption) (*usecase.BroadcastSyncService, error) {
	source, err := a.broadcastSource()
	if err != nil {
		return nil, err
	}
	unmatched := broadcast.ProviderSky
	if a.Config.BroadcastUnmatchedPolicy == config.UnmatchedPolicyUnknown {
		unmatched = broadcast.ProviderUnknown
	}
	return usecase.NewBroadcastSyncService(
		a.Store.Fixtures,
		source,
		usecase.NewBroadcastResolver(a.Config.BroadcastTerritories, unmatched),
		a.pipeline,
		a.Config.BroadcastDelay,
		a.Logger.Named("broadcasts"),
		a.serviceOptions(opts)...,
	), nil
}

func (a *App) broadcastSource() (usecase.BroadcastSource, error) {
	switch a.Config.BroadcastSource {
	case config.BroadcastSourceSportMonks:
		client := a.liveClient()
		if client == nil {
			return nil, fmt.Errorf("%w: sportmonks client: %w", usecase.ErrConfiguration, a.liveErr)
		}
		return client, nil
	default:
		client, err := rightsfeed.NewClient(rightsfeed.ClientConfig{
			BaseURL:        a.Config.RightsFeedBaseURL,
			User:           a.Config.RightsFeedUser,
			Token:          a.Config.RightsFeedToken,
			AuthMode:       rightsfeed.AuthMode(a.Config.RightsFeedAuthMode),
			Timeout:        a.Config.RightsFeedTimeout,
			Logger:         a.Logger,
			CircuitBreaker: a.Config.ProviderCircuit,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: rights feed client: %w", usecase.ErrConfiguration, err)
		}
		return client, nil
	}
}

func (a *App) liveClient() *sportmonks.Client {
	if a.live != nil || a.liveErr != nil {
		return a.live
	}
	a.live, a.liveErr = sportmonks.NewClient(sportmonks.ClientConfig{
		BaseURL:             a.Config.SportMonksBaseURL,
		Token:               a.Config.SportMonksToken,
		Timeout:             a.Config.SportMonksTimeout,
		Logger:              a.Logger,
		CircuitBreaker:      a.Config.ProviderCircuit,
		TerritoryCountryIDs: a.Config.SportMonksTerritoryIDs,
	})
	if a.liveErr != nil {
		a.Logger.Debug("sportmonks client unavailable", "error", a.liveErr)
	}
	return a.live
}

func (a *App) serviceOptions(extra []usecase.ServiceOption) []usecase.ServiceOption {
	return append([]usecase.ServiceOption{usecase.WithMetrics(a.metrics)}, extra...)
}

// Close releases database handles.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
