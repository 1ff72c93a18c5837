package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	GetByName(ctx context.Context, name string) (Team, bool, error)
	GetBySlug(ctx context.Context, slug string) (Team, bool, error)
	ListByIDs(ctx context.Context, ids []int64) ([]Team, error)
	// Create inserts t keyed on slug and returns the stored row. Creating a
	// slug that already exists returns the existing row.
	Create(ctx context.Context, t Team) (Team, error)
	CountByCompetition(ctx context.Context, competitionID int64) (int, error)
}
