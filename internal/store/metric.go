package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/orgpulse/apiserver/internal/db"
	"github.com/orgpulse/apiserver/types"
)

// MetricRepository handles persistence for metrics.
type MetricRepository struct {
	db *sql.DB
}

func NewMetricRepository(dbConn *sql.DB) *MetricRepository {
	return &MetricRepository{db: dbConn}
}

func (r *MetricRepository) List(ctx context.Context) ([]types.Metric, error) {
	const query = `SELECT id, name, description, target FROM metrics ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metrics := make([]types.Metric, 0)
	for rows.Next() {
		var metric types.Metric
		if err := rows.Scan(&metric.ID, &metric.Name, &metric.Description, &metric.Target); err != nil {
			return nil, err
		}
		metrics = append(metrics, metric)
	}
	return metrics, rows.Err()
}

func (r *MetricRepository) Get(ctx context.Context, id int) (types.Metric, error) {
	const query = `SELECT id, name, description, target FROM metrics WHERE id = $1`
	var metric types.Metric
	err := r.db.QueryRowContext(ctx, query, id).Scan(&metric.ID, &metric.Name, &metric.Description, &metric.Target)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Metric{}, ErrNotFound
		}
		return types.Metric{}, err
	}
	return metric, nil
}

// Create inserts a new metric. Name uniqueness rides on the database
// constraint.
func (r *MetricRepository) Create(ctx context.Context, metric types.Metric) (types.Metric, error) {
	const query = `
		INSERT INTO metrics (name, description, target)
		VALUES ($1, $2, $3)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, metric.Name, metric.Description, metric.Target).Scan(&metric.ID); err != nil {
		if db.IsUniqueViolation(err) {
			return types.Metric{}, ErrConflict
		}
		return types.Metric{}, err
	}
	return metric, nil
}

func (r *MetricRepository) Update(ctx context.Context, metric types.Metric) (types.Metric, error) {
	const query = `
		UPDATE metrics
		SET name = $1,
			description = $2,
			target = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, metric.Name, metric.Description, metric.Target, metric.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return types.Metric{}, ErrConflict
		}
		return types.Metric{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Metric{}, err
	}
	if affected == 0 {
		return types.Metric{}, ErrNotFound
	}
	return metric, nil
}

// Delete removes a metric and, via the cascade, its records.
func (r *MetricRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM metrics WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
