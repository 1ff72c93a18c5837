package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/fixture-sync/internal/app"
	"github.com/riskibarqy/fixture-sync/internal/usecase"
)

func liveScoresCmd(root *rootFlags) *cobra.Command {
	var (
		intervalSeconds int
		once            bool
	)
	cmd := &cobra.Command{
		Use:   "sync-livescores",
		Short: "Update status and scores of tracked fixtures that are in play",
		RunE: func(cmd *cobra.Command, args []string) error {
			if intervalSeconds < 0 {
				return fmt.Errorf("%w: --interval must be positive", usecase.ErrInvalidInput)
			}
			return runWithApp(root, app.Options{}, func(ctx context.Context, a *app.App) error {
				if once {
					svc, err := a.LiveScoreService()
					if err != nil {
						return err
					}
					res, err := svc.Run(ctx)
					if err != nil {
						return err
					}
					if res.Disabled {
						fmt.Fprintln(cmd.OutOrStdout(), "live scores disabled")
						return nil
					}
					fmt.Fprintf(cmd.OutOrStdout(), "tracked=%d in_play=%d updated=%d errors=%d\n",
						res.Tracked, res.InPlay, res.Updated, res.Errors)
					return nil
				}
				runner, err := a.LiveScoreRunner(time.Duration(intervalSeconds) * time.Second)
				if err != nil {
					return err
				}
				return runner.Run(ctx)
			})
		},
	}
	cmd.Flags().IntVar(&intervalSeconds, "interval", 0, "Seconds between passes; defaults to LIVE_SCORE_INTERVAL")
	cmd.Flags().BoolVar(&once, "once", false, "Run a single pass and exit")
	return cmd
}

func broadcastsCmd(root *rootFlags) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "sync-broadcasts",
		Short: "Resolve the broadcaster of upcoming fixtures",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return fmt.Errorf("%w: --days must be positive", usecase.ErrInvalidInput)
			}
			return runWithApp(root, app.Options{}, func(ctx context.Context, a *app.App) error {
				svc, err := a.BroadcastService()
				if err != nil {
					return err
				}
				if _, err := svc.EnsureProviders(ctx); err != nil {
					return err
				}
				window := a.Config.BroadcastWindow
				if days > 0 {
					window = time.Duration(days) * 24 * time.Hour
				}
				res, err := svc.Sync(ctx, window)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "fixtures=%d televised=%d blackouts=%d no_key=%d fetch_errors=%d written=%d failed=%d\n",
					res.Fixtures, res.Televised, res.Blackouts, res.NoKey, res.FetchErrors, res.Upsert.Written, res.Upsert.Failed)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Days ahead to cover; defaults to BROADCAST_WINDOW")
	return cmd
}

func linkLiveIDsCmd(root *rootFlags) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "link-live-ids",
		Short: "Attach live-score provider IDs to one day's fixtures",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(date, time.Now())
			if err != nil {
				return err
			}
			return runWithApp(root, app.Options{}, func(ctx context.Context, a *app.App) error {
				svc, err := a.LiveLinkService()
				if err != nil {
					return err
				}
				res, err := svc.Link(ctx, day)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "date=%s candidates=%d remote=%d linked=%d unmatched=%d errors=%d\n",
					day.Format(time.DateOnly), res.Candidates, res.Remote, res.Linked, res.Unmatched, res.Errors)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "UTC day as YYYY-MM-DD; defaults to today")
	return cmd
}

// parseDay returns midnight UTC of raw, or of now when raw is blank.
func parseDay(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.UTC().Truncate(24 * time.Hour), nil
	}
	day, err := time.ParseInLocation(time.DateOnly, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --date %q: %w", usecase.ErrInvalidInput, raw, err)
	}
	return day, nil
}
