package featureflags

import (
	"context"
	"errors"
)

// ErrFlagNotFound is returned when a feature flag is not found.
var ErrFlagNotFound = errors.New("feature flag not found")

// Repository defines the interface for feature flag persistence. Two
// implementations exist: PostgresRepository for deployments with a database
// and InMemoryRepository for tests and standalone runs.
type Repository interface {
	// GetFlag returns the stored flag for key, or ErrFlagNotFound.
	GetFlag(ctx context.Context, key string) (*Flag, error)

	// GetAllFlags returns every stored flag keyed by name.
	GetAllFlags(ctx context.Context) (map[string]*Flag, error)

	// SetFlag stores one flag, inserting or overwriting.
	SetFlag(ctx context.Context, flag *Flag) error

	// SetFlags stores a batch of flags in a single transaction.
	SetFlags(ctx context.Context, flags []*Flag) error

	// DeleteFlag removes the stored value for key.
	DeleteFlag(ctx context.Context, key string) error
}
