package competition

import (
	"testing"

	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
	"github.com/riskibarqy/fixture-sync/internal/domain/team"
)

func TestDefaultRegistry_Lookups(t *testing.T) {
	t.Parallel()

	r := MustDefaultRegistry()

	pl, ok := r.Get("premier-league")
	if !ok || pl.ProviderID != 2021 || pl.Type != TypeLeague {
		t.Fatalf("unexpected premier league entry: %+v ok=%t", pl, ok)
	}
	if _, ok := r.Get(" Premier-League "); !ok {
		t.Fatalf("slug lookup should be case-insensitive")
	}

	cl, ok := r.GetByProviderID(2001)
	if !ok || cl.Slug != "champions-league" || !cl.IsCup() {
		t.Fatalf("unexpected provider lookup: %+v ok=%t", cl, ok)
	}

	if cfg, ok := r.GetByID(2); !ok || cfg.Slug != "championship" {
		t.Fatalf("unexpected id lookup: %+v ok=%t", cfg, ok)
	}

	if _, ok := r.Get("serie-a"); ok {
		t.Fatalf("expected unknown slug to miss")
	}
}

func TestRegistry_ListActiveIsOrderedAndFiltered(t *testing.T) {
	t.Parallel()

	active := MustDefaultRegistry().ListActive()
	if len(active) != 4 {
		t.Fatalf("expected 4 active competitions, got %d", len(active))
	}
	for i := 1; i < len(active); i++ {
		if active[i-1].ID >= active[i].ID {
			t.Fatalf("active list not ordered by id: %+v", active)
		}
	}
	for _, cfg := range active {
		if cfg.Slug == "europa-league" {
			t.Fatalf("inactive competition returned")
		}
	}
}

func TestNewRegistry_Validation(t *testing.T) {
	t.Parallel()

	valid := Config{ID: 9, ProviderID: 9000, Code: "X", Name: "X Cup", Slug: "x-cup", Type: TypeCup}

	cases := map[string][]Config{
		"missing name":       {{ID: 9, ProviderID: 9000, Code: "X", Slug: "x", Type: TypeCup}},
		"bad type":           {{ID: 9, ProviderID: 9000, Code: "X", Name: "X", Slug: "x", Type: "FRIENDLY"}},
		"upper slug":         {{ID: 9, ProviderID: 9000, Code: "X", Name: "X", Slug: "X-Cup", Type: TypeCup}},
		"duplicate slug":     {valid, {ID: 10, ProviderID: 9001, Code: "Y", Name: "Y", Slug: "x-cup", Type: TypeCup}},
		"duplicate provider": {valid, {ID: 10, ProviderID: 9000, Code: "Y", Name: "Y", Slug: "y-cup", Type: TypeCup}},
		"duplicate internal": {valid, {ID: 9, ProviderID: 9001, Code: "Y", Name: "Y", Slug: "y-cup", Type: TypeCup}},
	}
	for name, configs := range cases {
		if _, err := NewRegistry(configs...); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}

	if _, err := NewRegistry(valid); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestCupHooks(t *testing.T) {
	t.Parallel()

	cfg, _ := MustDefaultRegistry().Get("champions-league")

	tm := team.Team{Name: "Arsenal", CompetitionID: 3}
	cfg.Hooks.Team(&tm)
	if tm.CompetitionID != 0 {
		t.Fatalf("cup team hook should detach competition, got %d", tm.CompetitionID)
	}

	f := fixture.Fixture{Stage: "LAST_16", Round: "GROUP_A"}
	cfg.Hooks.Fixture(&f)
	if f.Stage != "Last 16" || f.Round != "Group A" {
		t.Fatalf("unexpected humanized labels: stage=%q round=%q", f.Stage, f.Round)
	}
}

func TestConfig_WithSeason(t *testing.T) {
	t.Parallel()

	cfg := Config{Season: "2025"}
	if got := cfg.WithSeason(" ").Season; got != "2025" {
		t.Fatalf("blank season should keep configured, got %q", got)
	}
	if got := cfg.WithSeason("2026").Season; got != "2026" {
		t.Fatalf("unexpected season: %q", got)
	}
}
