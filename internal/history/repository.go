package history

import (
	"context"
	"time"
)

// Repository defines the interface for sample persistence.
type Repository interface {
	// Insert stores a collected sample.
	Insert(ctx context.Context, sample *Sample) error

	// Recent retrieves up to limit samples for a target, newest first.
	Recent(ctx context.Context, target string, limit int) ([]*Sample, error)

	// Latest retrieves the most recent sample for a target.
	// Returns ErrSampleNotFound if the target has no samples.
	Latest(ctx context.Context, target string) (*Sample, error)

	// Prune deletes samples recorded before the cutoff and reports how
	// many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}
