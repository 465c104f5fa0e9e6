package featureflags

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// upsertFlagSQL inserts a flag or overwrites its value and timestamp.
const upsertFlagSQL = `
	INSERT INTO feature_flags (key, value, updated_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (key) DO UPDATE SET
		value = EXCLUDED.value,
		updated_at = EXCLUDED.updated_at
`

// PostgresRepository stores feature flags in the feature_flags table,
// with values serialized as JSON.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetFlag loads the stored flag for key, or ErrFlagNotFound when nothing
// is stored under it.
func (r *PostgresRepository) GetFlag(ctx context.Context, key string) (*Flag, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT key, value, updated_at FROM feature_flags WHERE key = $1`, key)

	flag, err := scanFlag(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFlagNotFound
	}
	return flag, err
}

// GetAllFlags loads every stored flag keyed by name.
func (r *PostgresRepository) GetAllFlags(ctx context.Context) (map[string]*Flag, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT key, value, updated_at FROM feature_flags ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flags := make(map[string]*Flag)
	for rows.Next() {
		flag, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		flags[flag.Key] = flag
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return flags, nil
}

// SetFlag stores one flag. The stored timestamp is the flag's UpdatedAt,
// so service and database agree on when a value changed.
func (r *PostgresRepository) SetFlag(ctx context.Context, flag *Flag) error {
	raw, err := json.Marshal(flag.Value)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, upsertFlagSQL, flag.Key, raw, flagTimestamp(flag))
	return err
}

// SetFlags stores a batch of flags in a single transaction.
func (r *PostgresRepository) SetFlags(ctx context.Context, flags []*Flag) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback error is not critical

	for _, flag := range flags {
		raw, err := json.Marshal(flag.Value)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, upsertFlagSQL, flag.Key, raw, flagTimestamp(flag)); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// DeleteFlag drops the stored row for key.
func (r *PostgresRepository) DeleteFlag(ctx context.Context, key string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM feature_flags WHERE key = $1`, key)
	return err
}

// scanFlag decodes one feature_flags row.
func scanFlag(row pgx.Row) (*Flag, error) {
	var (
		flag Flag
		raw  []byte
	)
	if err := row.Scan(&flag.Key, &raw, &flag.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &flag.Value); err != nil {
		return nil, err
	}
	return &flag, nil
}

// flagTimestamp returns the flag's update time, stamping direct repository
// writes that bypassed the service.
func flagTimestamp(flag *Flag) time.Time {
	if flag.UpdatedAt.IsZero() {
		return time.Now()
	}
	return flag.UpdatedAt
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
