package competition

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
	"github.com/riskibarqy/fixture-sync/internal/domain/team"
)

// Registry is the static, in-process list of supported competitions.
type Registry struct {
	bySlug       map[string]Config
	byProviderID map[int64]Config
	byID         map[int64]Config
	ordered      []Config
}

func NewRegistry(configs ...Config) (*Registry, error) {
	validate := validator.New()
	r := &Registry{
		bySlug:       make(map[string]Config, len(configs)),
		byProviderID: make(map[int64]Config, len(configs)),
		byID:         make(map[int64]Config, len(configs)),
		ordered:      make([]Config, 0, len(configs)),
	}
	for _, cfg := range configs {
		if err := validate.Struct(cfg); err != nil {
			return nil, fmt.Errorf("competition %q: %w", cfg.Slug, err)
		}
		if _, ok := r.bySlug[cfg.Slug]; ok {
			return nil, fmt.Errorf("duplicate competition slug %q", cfg.Slug)
		}
		if _, ok := r.byProviderID[cfg.ProviderID]; ok {
			return nil, fmt.Errorf("duplicate provider competition id %d", cfg.ProviderID)
		}
		if _, ok := r.byID[cfg.ID]; ok {
			return nil, fmt.Errorf("duplicate competition id %d", cfg.ID)
		}
		r.bySlug[cfg.Slug] = cfg
		r.byProviderID[cfg.ProviderID] = cfg
		r.byID[cfg.ID] = cfg
		r.ordered = append(r.ordered, cfg)
	}
	sort.SliceStable(r.ordered, func(i, j int) bool { return r.ordered[i].ID < r.ordered[j].ID })
	return r, nil
}

// MustDefaultRegistry returns the built-in competition list.
func MustDefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultConfigs()...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Get(slug string) (Config, bool) {
	cfg, ok := r.bySlug[strings.ToLower(strings.TrimSpace(slug))]
	return cfg, ok
}

func (r *Registry) GetByProviderID(id int64) (Config, bool) {
	cfg, ok := r.byProviderID[id]
	return cfg, ok
}

func (r *Registry) GetByID(id int64) (Config, bool) {
	cfg, ok := r.byID[id]
	return cfg, ok
}

func (r *Registry) ListActive() []Config {
	out := make([]Config, 0, len(r.ordered))
	for _, cfg := range r.ordered {
		if cfg.IsActive {
			out = append(out, cfg)
		}
	}
	return out
}

func (r *Registry) List() []Config {
	return append([]Config(nil), r.ordered...)
}

func DefaultConfigs() []Config {
	return []Config{
		{ID: 1, ProviderID: 2021, Code: "PL", Name: "Premier League", Slug: "premier-league", Type: TypeLeague, IsActive: true},
		{ID: 2, ProviderID: 2016, Code: "ELC", Name: "Championship", Slug: "championship", Type: TypeLeague, IsActive: true},
		{
			ID: 3, ProviderID: 2001, Code: "CL", Name: "UEFA Champions League", Slug: "champions-league", Type: TypeCup, IsActive: true,
			Hooks: Hooks{Team: detachFromCompetition, Fixture: humanizeCupLabels},
		},
		{
			ID: 4, ProviderID: 2055, Code: "FAC", Name: "FA Cup", Slug: "fa-cup", Type: TypeCup, IsActive: true,
			Hooks: Hooks{Team: detachFromCompetition, Fixture: humanizeCupLabels},
		},
		{
			ID: 5, ProviderID: 2146, Code: "EL", Name: "UEFA Europa League", Slug: "europa-league", Type: TypeCup, IsActive: false,
			Hooks: Hooks{Team: detachFromCompetition, Fixture: humanizeCupLabels},
		},
	}
}

// Cup entrants keep the competition of their domestic league.
func detachFromCompetition(t *team.Team) {
	t.CompetitionID = 0
}

func humanizeCupLabels(f *fixture.Fixture) {
	f.Stage = fixture.HumanizeLabel(f.Stage)
	f.Round = fixture.HumanizeLabel(f.Round)
}
