package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/fixture-sync/internal/app"
	"github.com/riskibarqy/fixture-sync/internal/domain/competition"
	"github.com/riskibarqy/fixture-sync/internal/usecase"
)

type importFlags struct {
	providerID      int64
	internalID      int64
	season          string
	teamsOnly       bool
	fixturesOnly    bool
	skipCompetition bool
	all             bool
	refreshFixtures bool
	dryRun          bool
}

func importCmd(root *rootFlags) *cobra.Command {
	f := &importFlags{}
	cmd := &cobra.Command{
		Use:   "import [slug]",
		Short: "Import teams and fixtures for one competition or every active one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug := ""
			if len(args) == 1 {
				slug = args[0]
			}
			return runWithApp(root, app.Options{DryRun: f.dryRun}, func(ctx context.Context, a *app.App) error {
				targets, err := selectCompetitions(a.Registry, slug, f)
				if err != nil {
					return err
				}
				svc, err := a.ImportService()
				if err != nil {
					return err
				}
				opts := f.options(a.Config.DefaultSeason)
				if len(targets) == 1 {
					result, err := svc.Import(ctx, targets[0], opts)
					printImportResult(cmd, targets[0].Slug, result, err)
					return err
				}
				outcomes, err := svc.ImportMany(ctx, targets, opts)
				failed := 0
				for _, o := range outcomes {
					printImportResult(cmd, o.Slug, o.Result, o.Err)
					if o.Err != nil {
						failed++
					}
				}
				if err != nil {
					return err
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d competitions failed", failed, len(outcomes))
				}
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&f.providerID, "comp-id", 0, "Fixtures provider competition ID")
	cmd.Flags().Int64Var(&f.internalID, "internal-id", 0, "Canonical competition ID")
	cmd.Flags().StringVar(&f.season, "season", "", "Season start year; defaults to DEFAULT_SEASON or the provider's current season")
	cmd.Flags().BoolVar(&f.teamsOnly, "teams-only", false, "Import teams only")
	cmd.Flags().BoolVar(&f.fixturesOnly, "fixtures-only", false, "Import fixtures only")
	cmd.Flags().BoolVar(&f.skipCompetition, "skip-competition", false, "Do not upsert the competition row")
	cmd.Flags().BoolVar(&f.all, "all", false, "Import every active competition")
	cmd.Flags().BoolVar(&f.refreshFixtures, "refresh-fixtures", false, "Merge existing fixture rows instead of skipping them")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Write to an in-memory store")
	cmd.MarkFlagsMutuallyExclusive("teams-only", "fixtures-only")
	cmd.MarkFlagsMutuallyExclusive("comp-id", "internal-id", "all")
	return cmd
}

func (f *importFlags) options(defaultSeason string) usecase.ImportOptions {
	season := strings.TrimSpace(f.season)
	if season == "" {
		season = defaultSeason
	}
	return usecase.ImportOptions{
		Season:          season,
		TeamsOnly:       f.teamsOnly,
		FixturesOnly:    f.fixturesOnly,
		SkipCompetition: f.skipCompetition,
		RefreshFixtures: f.refreshFixtures,
	}
}

// selectCompetitions resolves exactly one selector: a slug argument,
// --comp-id, --internal-id or --all.
func selectCompetitions(reg *competition.Registry, slug string, f *importFlags) ([]competition.Config, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	selectors := 0
	for _, set := range []bool{slug != "", f.providerID != 0, f.internalID != 0, f.all} {
		if set {
			selectors++
		}
	}
	switch {
	case selectors == 0:
		return nil, fmt.Errorf("%w: pass a competition slug, --comp-id, --internal-id or --all", usecase.ErrInvalidInput)
	case selectors > 1:
		return nil, fmt.Errorf("%w: competition selectors are mutually exclusive", usecase.ErrInvalidInput)
	}

	var (
		cfg competition.Config
		ok  bool
	)
	switch {
	case f.all:
		active := reg.ListActive()
		if len(active) == 0 {
			return nil, fmt.Errorf("%w: no active competitions", usecase.ErrConfiguration)
		}
		return active, nil
	case f.providerID != 0:
		cfg, ok = reg.GetByProviderID(f.providerID)
		if !ok {
			return nil, fmt.Errorf("%w: unknown provider competition id %d", usecase.ErrInvalidInput, f.providerID)
		}
	case f.internalID != 0:
		cfg, ok = reg.GetByID(f.internalID)
		if !ok {
			return nil, fmt.Errorf("%w: unknown competition id %d", usecase.ErrInvalidInput, f.internalID)
		}
	default:
		cfg, ok = reg.Get(slug)
		if !ok {
			return nil, fmt.Errorf("%w: unknown competition %q", usecase.ErrInvalidInput, slug)
		}
	}
	return []competition.Config{cfg}, nil
}

func printImportResult(cmd *cobra.Command, slug string, r usecase.ImportResult, err error) {
	out := cmd.OutOrStdout()
	if err != nil {
		status := "failed"
		if errors.Is(err, usecase.ErrPlanRestricted) {
			status = "not in plan"
		}
		fmt.Fprintf(out, "%-20s %s: %v\n", slug, status, err)
		return
	}
	fmt.Fprintf(out, "%-20s season=%s teams=%d/%d/%d fixtures=%d/%d/%d dropped=%d stored_teams=%d stored_fixtures=%d\n",
		slug, r.Season,
		r.Teams.Written, r.Teams.Skipped, r.Teams.Failed,
		r.Fixtures.Written, r.Fixtures.Skipped, r.Fixtures.Failed,
		r.DroppedFixtures, r.StoredTeams, r.StoredFixtures,
	)
}
