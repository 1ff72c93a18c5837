package fixture

import (
	"context"
	"time"
)

// Repository exposes fixture reads and the in-place mutations done by the
// sync jobs. Bulk inserts go through the upsert pipeline.
type Repository interface {
	ListByKickoff(ctx context.Context, from, to time.Time) ([]Fixture, error)
	// ListLiveTracked returns fixtures in [from, to) that carry a live-score
	// provider ID.
	ListLiveTracked(ctx context.Context, from, to time.Time) ([]Fixture, error)
	UpdateLiveState(ctx context.Context, id int64, update LiveUpdate) error
	SetLiveProviderID(ctx context.Context, id, liveProviderID int64) error
	CountByCompetition(ctx context.Context, competitionID int64) (int, error)
}
