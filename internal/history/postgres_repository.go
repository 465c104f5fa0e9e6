package history

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL sample repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Insert stores a collected sample.
func (r *PostgresRepository) Insert(ctx context.Context, sample *Sample) error {
	query := `
		INSERT INTO observations (
			id, target, lat, lon, aqi,
			pm25, pm10, o3, no2, co, so2,
			temperature, humidity, pressure,
			wind_speed, wind_direction, precipitation,
			recorded_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := r.pool.Exec(ctx, query,
		sample.ID,
		sample.Target,
		sample.Lat,
		sample.Lon,
		sample.AQI,
		sample.PM25,
		sample.PM10,
		sample.O3,
		sample.NO2,
		sample.CO,
		sample.SO2,
		sample.Temperature,
		sample.Humidity,
		sample.Pressure,
		sample.WindSpeed,
		sample.WindDirection,
		sample.Precipitation,
		sample.RecordedAt,
		sample.CreatedAt,
	)
	return err
}

// Recent retrieves up to limit samples for a target, newest first.
func (r *PostgresRepository) Recent(ctx context.Context, target string, limit int) ([]*Sample, error) {
	query := `
		SELECT
			id, target, lat, lon, aqi,
			pm25, pm10, o3, no2, co, so2,
			temperature, humidity, pressure,
			wind_speed, wind_direction, precipitation,
			recorded_at, created_at
		FROM observations
		WHERE target = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, target, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []*Sample
	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// Latest retrieves the most recent sample for a target.
func (r *PostgresRepository) Latest(ctx context.Context, target string) (*Sample, error) {
	query := `
		SELECT
			id, target, lat, lon, aqi,
			pm25, pm10, o3, no2, co, so2,
			temperature, humidity, pressure,
			wind_speed, wind_direction, precipitation,
			recorded_at, created_at
		FROM observations
		WHERE target = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	sample, err := scanSample(r.pool.QueryRow(ctx, query, target))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSampleNotFound
		}
		return nil, err
	}

	return sample, nil
}

// Prune deletes samples recorded before the cutoff.
func (r *PostgresRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM observations WHERE recorded_at < $1`

	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

// scanSample scans one sample row.
func scanSample(row pgx.Row) (*Sample, error) {
	var sample Sample

	err := row.Scan(
		&sample.ID,
		&sample.Target,
		&sample.Lat,
		&sample.Lon,
		&sample.AQI,
		&sample.PM25,
		&sample.PM10,
		&sample.O3,
		&sample.NO2,
		&sample.CO,
		&sample.SO2,
		&sample.Temperature,
		&sample.Humidity,
		&sample.Pressure,
		&sample.WindSpeed,
		&sample.WindDirection,
		&sample.Precipitation,
		&sample.RecordedAt,
		&sample.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &sample, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
