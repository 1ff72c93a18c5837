package competition

import "context"

// Repository persists competition rows. The competitions table is optional
// in some deployments; implementations report a missing table with
// storage.ErrTableNotFound.
type Repository interface {
	Upsert(ctx context.Context, c Competition) error
}
