package history

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and single-node deployments without a
// database. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	samples map[string][]*Sample
}

// NewInMemoryRepository creates a new in-memory sample repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		samples: make(map[string][]*Sample),
	}
}

// Insert stores a collected sample.
func (r *InMemoryRepository) Insert(_ context.Context, sample *Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *sample
	r.samples[sample.Target] = append(r.samples[sample.Target], &cpy)
	return nil
}

// Recent retrieves up to limit samples for a target, newest first.
func (r *InMemoryRepository) Recent(_ context.Context, target string, limit int) ([]*Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.samples[target]

	// Return copies, newest first
	result := make([]*Sample, 0, len(stored))
	for _, s := range stored {
		cpy := *s
		result = append(result, &cpy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RecordedAt.After(result[j].RecordedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// Latest retrieves the most recent sample for a target.
func (r *InMemoryRepository) Latest(ctx context.Context, target string) (*Sample, error) {
	samples, err := r.Recent(ctx, target, 1)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, ErrSampleNotFound
	}
	return samples[0], nil
}

// Prune deletes samples recorded before the cutoff.
func (r *InMemoryRepository) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for target, stored := range r.samples {
		kept := stored[:0]
		for _, s := range stored {
			if s.RecordedAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, s)
		}
		r.samples[target] = kept
	}

	return removed, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
