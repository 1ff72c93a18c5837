package main

import (
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/fixture-sync/internal/domain/competition"
	"github.com/riskibarqy/fixture-sync/internal/usecase"
)

func TestSelectCompetitions(t *testing.T) {
	reg := competition.MustDefaultRegistry()

	cases := []struct {
		name  string
		slug  string
		flags importFlags
		want  []string
	}{
		{name: "slug", slug: "Premier-League", want: []string{"premier-league"}},
		{name: "provider id", flags: importFlags{providerID: 2001}, want: []string{"champions-league"}},
		{name: "internal id", flags: importFlags{internalID: 2}, want: []string{"championship"}},
		{name: "all active", flags: importFlags{all: true}, want: []string{"premier-league", "championship", "champions-league", "fa-cup"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := selectCompetitions(reg, tc.slug, &tc.flags)
			if err != nil {
				t.Fatalf("select: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d competitions, got %d", len(tc.want), len(got))
			}
			for i, slug := range tc.want {
				if got[i].Slug != slug {
					t.Fatalf("competition %d: expected %s, got %s", i, slug, got[i].Slug)
				}
			}
		})
	}
}

func TestSelectCompetitions_Rejects(t *testing.T) {
	reg := competition.MustDefaultRegistry()

	cases := map[string]struct {
		slug  string
		flags importFlags
	}{
		"no selector":         {},
		"two selectors":       {slug: "premier-league", flags: importFlags{all: true}},
		"unknown slug":        {slug: "serie-a"},
		"unknown comp id":     {flags: importFlags{providerID: 9999}},
		"unknown internal id": {flags: importFlags{internalID: 42}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := selectCompetitions(reg, tc.slug, &tc.flags)
			if !errors.Is(err, usecase.ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestImportFlags_SeasonFallsBackToDefault(t *testing.T) {
	f := importFlags{fixturesOnly: true, refreshFixtures: true}
	opts := f.options("2026")
	if opts.Season != "2026" || !opts.FixturesOnly || !opts.RefreshFixtures {
		t.Fatalf("unexpected options: %+v", opts)
	}

	f.season = " 2025 "
	if got := f.options("2026").Season; got != "2025" {
		t.Fatalf("expected explicit season, got %q", got)
	}
}

func TestParseDay(t *testing.T) {
	now := time.Date(2026, 8, 15, 17, 30, 0, 0, time.FixedZone("BST", 3600))

	got, err := parseDay("", now)
	if err != nil || !got.Equal(time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected today at midnight UTC, got %v err=%v", got, err)
	}

	got, err = parseDay("2026-09-01", now)
	if err != nil || !got.Equal(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected 2026-09-01, got %v err=%v", got, err)
	}

	if _, err := parseDay("15/08/2026", now); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"import", "sync-livescores", "sync-broadcasts", "link-live-ids"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("expected subcommand %s, got %v err=%v", name, cmd, err)
		}
	}
	if root.PersistentFlags().Lookup("verbose") == nil {
		t.Fatalf("expected persistent --verbose flag")
	}
}
