package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fixture-sync/internal/domain/competition"
	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
	"github.com/riskibarqy/fixture-sync/internal/domain/team"
	"github.com/riskibarqy/fixture-sync/internal/platform/logging"
	"github.com/riskibarqy/fixture-sync/internal/platform/storage"
)

// ResolverTeamIDStart is where store-assigned team IDs begin. Lower IDs
// come from the fixtures provider.
const ResolverTeamIDStart int64 = 1_000_000

type ImportOptions struct {
	Season          string
	TeamsOnly       bool
	FixturesOnly    bool
	SkipCompetition bool
	// RefreshFixtures merges fixture rows instead of skipping existing ones.
	RefreshFixtures bool
}

func (o ImportOptions) validate() error {
	if o.TeamsOnly && o.FixturesOnly {
		return fmt.Errorf("%w: teams-only and fixtures-only are mutually exclusive", ErrInvalidInput)
	}
	return nil
}

type ImportResult struct {
	Competition     string
	Season          string
	Teams           UpsertResult
	Fixtures        UpsertResult
	DroppedFixtures int
	StoredTeams     int
	StoredFixtures  int
}

// ImportOutcome is one competition of a multi-competition import.
type ImportOutcome struct {
	Slug   string
	Result ImportResult
	Err    error
}

type ImportSettings struct {
	TeamChunkSize    int
	FixtureChunkSize int
	// Cooldown is the pause between the team and fixture passes.
	Cooldown time.Duration
}

func DefaultImportSettings() ImportSettings {
	return ImportSettings{
		TeamChunkSize:    TeamChunkSize,
		FixtureChunkSize: FixtureChunkSize,
		Cooldown:         10 * time.Second,
	}
}

// CompetitionImportService pulls one competition's teams and fixtures from
// the fixtures provider into the canonical store.
type CompetitionImportService struct {
	provider        FixtureProvider
	competitionRepo competition.Repository
	teamRepo        team.Repository
	fixtureRepo     fixture.Repository
	resolver        *TeamResolver
	pipeline        *UpsertPipeline
	settings        ImportSettings
	logger          *logging.Logger
	serviceRuntime
}

func NewCompetitionImportService(
	provider FixtureProvider,
	competitionRepo competition.Repository,
	teamRepo team.Repository,
	fixtureRepo fixture.Repository,
	resolver *TeamResolver,
	pipeline *UpsertPipeline,
	settings ImportSettings,
	logger *logging.Logger,
	opts ...ServiceOption,
) *CompetitionImportService {
	if logger == nil {
		logger = logging.Default()
	}
	return &CompetitionImportService{
		provider:        provider,
		competitionRepo: competitionRepo,
		teamRepo:        teamRepo,
		fixtureRepo:     fixtureRepo,
		resolver:        resolver,
		pipeline:        pipeline,
		settings:        settings,
		logger:          logger,
		serviceRuntime:  newRuntime(opts),
	}
}

func (s *CompetitionImportService) Import(ctx context.Context, cfg competition.Config, opts ImportOptions) (result ImportResult, err error) {
	if err := opts.validate(); err != nil {
		return ImportResult{}, err
	}

	ctx = startRun(ctx)
	started := s.now()
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionImportService.Import",
		attribute.String("competition", cfg.Slug),
		attribute.Int64("competition.provider_id", cfg.ProviderID),
	)
	defer func() {
		endSpan(span, err)
		s.metrics.ObservePass("import", s.now().Sub(started), err)
	}()

	cfg, err = s.resolveSeason(ctx, cfg.WithSeason(opts.Season))
	if err != nil {
		return ImportResult{}, err
	}
	result = ImportResult{Competition: cfg.Slug, Season: cfg.Season}
	logger := s.logger.With("competition", cfg.Slug, "season", cfg.Season)
	logger.InfoContext(ctx, "import started",
		"teams_only", opts.TeamsOnly,
		"fixtures_only", opts.FixturesOnly,
		"refresh_fixtures", opts.RefreshFixtures,
	)

	if !opts.SkipCompetition {
		if err := s.ensureCompetition(ctx, logger, cfg); err != nil {
			return result, err
		}
	}

	if !opts.FixturesOnly {
		result.Teams, err = s.importTeams(ctx, cfg)
		if err != nil {
			return result, err
		}
		if !opts.TeamsOnly && s.settings.Cooldown > 0 {
			logger.DebugContext(ctx, "cooling down before fixtures", "cooldown", s.settings.Cooldown.String())
			if err := s.sleep(ctx, s.settings.Cooldown); err != nil {
				return result, err
			}
		}
	}

	if !opts.TeamsOnly {
		result.Fixtures, result.DroppedFixtures, err = s.importFixtures(ctx, cfg, opts.RefreshFixtures)
		if err != nil {
			return result, err
		}
	}

	result.StoredTeams, result.StoredFixtures = s.storedCounts(ctx, logger, cfg.ID)
	logger.InfoContext(ctx, "import finished",
		"teams_written", result.Teams.Written,
		"teams_failed", result.Teams.Failed,
		"fixtures_written", result.Fixtures.Written,
		"fixtures_skipped", result.Fixtures.Skipped,
		"fixtures_failed", result.Fixtures.Failed,
		"fixtures_dropped", result.DroppedFixtures,
		"stored_teams", result.StoredTeams,
		"stored_fixtures", result.StoredFixtures,
	)
	return result, nil
}

// ImportMany imports each competition in turn. Per-competition failures are
// reported in the outcomes; only configuration errors and cancellation stop
// the loop.
func (s *CompetitionImportService) ImportMany(ctx context.Context, cfgs []competition.Config, opts ImportOptions) ([]ImportOutcome, error) {
	ctx = startRun(ctx)
	outcomes := make([]ImportOutcome, 0, len(cfgs))
	for _, cfg := range cfgs {
		result, err := s.Import(ctx, cfg, opts)
		outcomes = append(outcomes, ImportOutcome{Slug: cfg.Slug, Result: result, Err: err})
		if err == nil {
			continue
		}
		if errors.Is(err, ErrConfiguration) || ctx.Err() != nil {
			return outcomes, err
		}
		if errors.Is(err, ErrPlanRestricted) {
			s.logger.WarnContext(ctx, "competition skipped: not in provider plan", "competition", cfg.Slug)
			continue
		}
		s.logger.ErrorContext(ctx, "competition import failed", "competition", cfg.Slug, "error", err)
	}
	return outcomes, nil
}

func (s *CompetitionImportService) resolveSeason(ctx context.Context, cfg competition.Config) (competition.Config, error) {
	if strings.TrimSpace(cfg.Season) != "" {
		return cfg, nil
	}
	remote, err := s.provider.GetCompetition(ctx, cfg.ProviderID)
	if err != nil {
		return cfg, s.upstreamError(err, cfg, "get competition")
	}
	if remote.Season == "" {
		return cfg, fmt.Errorf("%w: provider reports no current season for %s", ErrInvalidInput, cfg.Slug)
	}
	cfg.Season = remote.Season
	return cfg, nil
}

func (s *CompetitionImportService) ensureCompetition(ctx context.Context, logger *logging.Logger, cfg competition.Config) error {
	err := s.competitionRepo.Upsert(ctx, cfg.Competition())
	switch {
	case err == nil:
		return nil
	case storage.IsTableNotFound(err):
		logger.WarnContext(ctx, "competitions table missing, continuing without it", "error", err)
		return nil
	default:
		return fmt.Errorf("upsert competition %s: %w", cfg.Slug, err)
	}
}

func (s *CompetitionImportService) importTeams(ctx context.Context, cfg competition.Config) (UpsertResult, error) {
	remote, err := s.provider.ListTeams(ctx, cfg.ProviderID, cfg.Season)
	if err != nil {
		return UpsertResult{}, s.upstreamError(err, cfg, "list teams")
	}

	items := make([]team.Team, 0, len(remote))
	for _, t := range remote {
		item, ok := teamFromProvider(t, cfg)
		if !ok {
			s.logger.WarnContext(ctx, "skip provider team without name", "provider_team_id", t.ProviderID)
			continue
		}
		items = append(items, item)
	}
	if err := s.disambiguateSlugs(ctx, items); err != nil {
		return UpsertResult{}, err
	}

	result, err := s.pipeline.UpsertAll(ctx, storage.TableTeams, Records(items), s.settings.TeamChunkSize)
	if err != nil {
		return result, fmt.Errorf("upsert teams for %s: %w", cfg.Slug, err)
	}
	if skipped := len(remote) - len(items); skipped > 0 {
		result.Failed += skipped
	}
	return result, nil
}

func teamFromProvider(t ProviderTeam, cfg competition.Config) (team.Team, bool) {
	name := CanonicalTeamName(t.Name)
	slug := team.Slugify(name)
	if name == "" || slug == "" {
		return team.Team{}, false
	}
	item := team.Team{
		ID:            t.ProviderID,
		Name:          name,
		ShortName:     strings.TrimSpace(t.ShortName),
		TLA:           strings.ToUpper(strings.TrimSpace(t.TLA)),
		Slug:          slug,
		CompetitionID: cfg.ID,
		CrestURL:      strings.TrimSpace(t.CrestURL),
		Venue:         strings.TrimSpace(t.Venue),
		Founded:       t.Founded,
		ClubColors:    strings.TrimSpace(t.ClubColors),
		Website:       strings.TrimSpace(t.Website),
	}
	if cfg.Hooks.Team != nil {
		cfg.Hooks.Team(&item)
	}
	return item, true
}

// disambiguateSlugs suffixes the provider team ID onto a slug already held
// by a different provider team. Teams created by the resolver are claimed,
// not suffixed.
func (s *CompetitionImportService) disambiguateSlugs(ctx context.Context, items []team.Team) error {
	owners := make(map[string]int64, len(items))
	for i := range items {
		item := &items[i]
		collides := false
		if owner, ok := owners[item.Slug]; ok && owner != item.ID {
			collides = true
		} else if !ok {
			existing, found, err := s.teamRepo.GetBySlug(ctx, item.Slug)
			if err != nil {
				if storage.IsTableNotFound(err) {
					return fmt.Errorf("%w: table %s: %w", ErrConfiguration, storage.TableTeams, err)
				}
				return fmt.Errorf("get team by slug=%s: %w", item.Slug, err)
			}
			collides = found && existing.ID != item.ID && existing.ID < ResolverTeamIDStart && existing.Name != item.Name
		}
		if collides {
			suffixed := fmt.Sprintf("%s-%d", item.Slug, item.ID)
			s.logger.WarnContext(ctx, "team slug collision, suffixing", "slug", item.Slug, "team_id", item.ID, "new_slug", suffixed)
			item.Slug = suffixed
		}
		owners[item.Slug] = item.ID
	}
	return nil
}

func (s *CompetitionImportService) importFixtures(ctx context.Context, cfg competition.Config, refresh bool) (UpsertResult, int, error) {
	matches, err := s.provider.ListMatches(ctx, cfg.ProviderID, cfg.Season)
	if err != nil {
		return UpsertResult{}, 0, s.upstreamError(err, cfg, "list matches")
	}

	index, err := s.resolver.BuildIndex(ctx, matches, ownerCompetitionID(cfg))
	if err != nil {
		return UpsertResult{}, 0, fmt.Errorf("resolve teams for %s: %w", cfg.Slug, err)
	}

	items := make([]fixture.Fixture, 0, len(matches))
	dropped := 0
	for _, match := range matches {
		item, ok := TransformMatch(match, cfg, index)
		if !ok {
			dropped++
			s.logger.DebugContext(ctx, "drop untransformable match",
				"match_id", match.ProviderID,
				"home", match.Home.Name,
				"away", match.Away.Name,
				"status", match.Status,
			)
			continue
		}
		items = append(items, item)
	}

	var upsertOpts []UpsertOption
	if refresh {
		upsertOpts = append(upsertOpts, MergeOnConflict())
	}
	result, err := s.pipeline.UpsertAll(ctx, storage.TableFixtures, Records(items), s.settings.FixtureChunkSize, upsertOpts...)
	if err != nil {
		return result, dropped, fmt.Errorf("upsert fixtures for %s: %w", cfg.Slug, err)
	}
	return result, dropped, nil
}

func (s *CompetitionImportService) storedCounts(ctx context.Context, logger *logging.Logger, competitionID int64) (int, int) {
	teams, err := s.teamRepo.CountByCompetition(ctx, competitionID)
	if err != nil {
		logger.WarnContext(ctx, "count stored teams failed", "error", err)
	}
	fixtures, err := s.fixtureRepo.CountByCompetition(ctx, competitionID)
	if err != nil {
		logger.WarnContext(ctx, "count stored fixtures failed", "error", err)
	}
	return teams, fixtures
}

func (s *CompetitionImportService) upstreamError(err error, cfg competition.Config, op string) error {
	if upstreamStatus(err) == http.StatusForbidden {
		return fmt.Errorf("%w: %s %s: %w", ErrPlanRestricted, op, cfg.Slug, err)
	}
	return fmt.Errorf("%w: %s %s: %w", ErrDependencyUnavailable, op, cfg.Slug, err)
}

// ownerCompetitionID is the competition a team created during this import
// belongs to, after the competition's team hook.
func ownerCompetitionID(cfg competition.Config) int64 {
	probe := team.Team{CompetitionID: cfg.ID}
	if cfg.Hooks.Team != nil {
		cfg.Hooks.Team(&probe)
	}
	return probe.CompetitionID
}
