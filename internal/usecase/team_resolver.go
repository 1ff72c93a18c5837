package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fixture-sync/internal/domain/team"
	"github.com/riskibarqy/fixture-sync/internal/platform/cache"
	"github.com/riskibarqy/fixture-sync/internal/platform/logging"
)

const teamCacheTTL = 30 * time.Minute

// TeamResolver maps provider team references onto canonical team IDs,
// creating teams the store has never seen.
type TeamResolver struct {
	teamRepo team.Repository
	ids      *cache.Store[int64]
	logger   *logging.Logger
}

func NewTeamResolver(teamRepo team.Repository, logger *logging.Logger) *TeamResolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &TeamResolver{
		teamRepo: teamRepo,
		ids:      cache.NewStore[int64](teamCacheTTL),
		logger:   logger,
	}
}

// CanonicalTeamName cleans name and applies the alias table.
func CanonicalTeamName(name string) string {
	cleaned := team.CleanName(name)
	if canonical, ok := team.CanonicalName(cleaned); ok {
		return canonical
	}
	return cleaned
}

// TeamSlug is the identity key two provider spellings of one club share.
func TeamSlug(name string) string {
	return team.Slugify(CanonicalTeamName(name))
}

// Resolve returns the canonical team ID for a provider team name: alias
// table, then exact name, then slug, then an idempotent create.
func (r *TeamResolver) Resolve(ctx context.Context, name string, competitionID int64) (int64, error) {
	canonical := CanonicalTeamName(name)
	slug := team.Slugify(canonical)
	if slug == "" {
		return 0, fmt.Errorf("%w: team name %q has no usable characters", ErrInvalidInput, name)
	}

	return r.ids.GetOrLoad(ctx, "slug:"+slug, func(ctx context.Context) (int64, error) {
		ctx, span := startUsecaseSpan(ctx, "usecase.TeamResolver.Resolve", attribute.String("team.slug", slug))
		id, err := r.lookupOrCreate(ctx, canonical, slug, competitionID)
		endSpan(span, err)
		return id, err
	})
}

func (r *TeamResolver) lookupOrCreate(ctx context.Context, canonical, slug string, competitionID int64) (int64, error) {
	if item, ok, err := r.teamRepo.GetByName(ctx, canonical); err != nil {
		return 0, fmt.Errorf("get team by name=%s: %w", canonical, err)
	} else if ok {
		return item.ID, nil
	}

	if item, ok, err := r.teamRepo.GetBySlug(ctx, slug); err != nil {
		return 0, fmt.Errorf("get team by slug=%s: %w", slug, err)
	} else if ok {
		return item.ID, nil
	}

	created, err := r.teamRepo.Create(ctx, team.Team{
		Name:          canonical,
		Slug:          slug,
		CompetitionID: competitionID,
	})
	if err != nil {
		return 0, fmt.Errorf("create team slug=%s: %w", slug, err)
	}
	r.logger.InfoContext(ctx, "team created by resolver", "team_id", created.ID, "name", canonical, "slug", slug)
	return created.ID, nil
}

// ResolveRef prefers a provider team ID already present in the store and
// falls back to the name algorithm.
func (r *TeamResolver) ResolveRef(ctx context.Context, ref team.Ref, competitionID int64) (int64, error) {
	if ref.IsZero() {
		return 0, fmt.Errorf("%w: empty team reference", ErrInvalidInput)
	}

	if ref.ProviderID > 0 {
		key := "provider:" + strconv.FormatInt(ref.ProviderID, 10)
		id, err := r.ids.GetOrLoad(ctx, key, func(ctx context.Context) (int64, error) {
			items, err := r.teamRepo.ListByIDs(ctx, []int64{ref.ProviderID})
			if err != nil {
				return 0, fmt.Errorf("list teams by id=%d: %w", ref.ProviderID, err)
			}
			if len(items) == 0 {
				return 0, ErrNotFound
			}
			return items[0].ID, nil
		})
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return 0, err
		}
	}

	name := strings.TrimSpace(ref.Name)
	if name == "" {
		name = ref.ShortName
	}
	return r.Resolve(ctx, name, competitionID)
}

// Forget drops every cached mapping, e.g. between daemon passes.
func (r *TeamResolver) Forget(ctx context.Context) {
	r.ids.DeletePrefix(ctx, "slug:")
	r.ids.DeletePrefix(ctx, "provider:")
}

// TeamIndex maps the team references of one import onto canonical IDs.
type TeamIndex struct {
	byProvider map[int64]int64
	byName     map[string]int64
}

func NewTeamIndex() TeamIndex {
	return TeamIndex{byProvider: make(map[int64]int64), byName: make(map[string]int64)}
}

func (ix TeamIndex) Add(ref team.Ref, id int64) {
	if ref.ProviderID > 0 {
		ix.byProvider[ref.ProviderID] = id
	}
	if slug := TeamSlug(ref.Name); slug != "" {
		ix.byName[slug] = id
	}
}

func (ix TeamIndex) Lookup(ref team.Ref) (int64, bool) {
	if ref.ProviderID > 0 {
		if id, ok := ix.byProvider[ref.ProviderID]; ok {
			return id, true
		}
	}
	for _, name := range []string{ref.Name, ref.ShortName} {
		if slug := TeamSlug(name); slug != "" {
			if id, ok := ix.byName[slug]; ok {
				return id, true
			}
		}
	}
	return 0, false
}

// BuildIndex resolves every distinct team reference in matches. Refs that
// cannot be resolved are left out; the transformer then drops their matches.
func (r *TeamResolver) BuildIndex(ctx context.Context, matches []ProviderMatch, competitionID int64) (TeamIndex, error) {
	index := NewTeamIndex()
	for _, match := range matches {
		for _, ref := range []team.Ref{match.Home, match.Away} {
			if ref.IsZero() {
				continue
			}
			if _, ok := index.Lookup(ref); ok {
				continue
			}
			id, err := r.ResolveRef(ctx, ref, competitionID)
			if err != nil {
				if errors.Is(err, ErrInvalidInput) {
					r.logger.WarnContext(ctx, "skip unresolvable team reference", "provider_team_id", ref.ProviderID, "name", ref.Name, "error", err)
					continue
				}
				return index, err
			}
			index.Add(ref, id)
		}
	}
	return index, nil
}
