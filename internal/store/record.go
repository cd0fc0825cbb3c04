package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/orgpulse/apiserver/internal/db"
	"github.com/orgpulse/apiserver/types"
)

// RecordFilter narrows record listings. Zero values mean "no filter".
type RecordFilter struct {
	TeamID   int
	MetricID int
}

// RecordRepository handles persistence for records.
type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(dbConn *sql.DB) *RecordRepository {
	return &RecordRepository{db: dbConn}
}

const recordColumns = `
	r.id, r.metric_id, r.team_id, r.value, r.recorded_at, r.ingested_at,
	m.name, m.target, t.name`

const recordJoins = `
	FROM records r
	JOIN metrics m ON m.id = r.metric_id
	JOIN teams t ON t.id = r.team_id`

func scanRecord(scan func(dest ...any) error) (types.Record, error) {
	var record types.Record
	err := scan(
		&record.ID,
		&record.MetricID,
		&record.TeamID,
		&record.Value,
		&record.RecordedAt,
		&record.IngestedAt,
		&record.MetricName,
		&record.MetricTarget,
		&record.TeamName,
	)
	return record, err
}

func (r *RecordRepository) List(ctx context.Context, filter RecordFilter) ([]types.Record, error) {
	query := `SELECT` + recordColumns + recordJoins + `
	WHERE ($1 = 0 OR r.team_id = $1)
	  AND ($2 = 0 OR r.metric_id = $2)
	ORDER BY r.id`
	rows, err := r.db.QueryContext(ctx, query, filter.TeamID, filter.MetricID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]types.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *RecordRepository) Get(ctx context.Context, id int) (types.Record, error) {
	query := `SELECT` + recordColumns + recordJoins + ` WHERE r.id = $1`
	record, err := scanRecord(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Record{}, ErrNotFound
		}
		return types.Record{}, err
	}
	return record, nil
}

// Create inserts a new record. The ingestion timestamp is assigned here
// and never updated afterwards. A dangling metric or team reference
// surfaces as ErrInvalidReference.
func (r *RecordRepository) Create(ctx context.Context, record types.Record) (types.Record, error) {
	const query = `
		INSERT INTO records (metric_id, team_id, value, recorded_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, ingested_at`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		record.MetricID,
		record.TeamID,
		record.Value,
		record.RecordedAt,
	).Scan(&record.ID, &record.IngestedAt); err != nil {
		if db.IsForeignKeyViolation(err) {
			return types.Record{}, ErrInvalidReference
		}
		return types.Record{}, err
	}
	return r.Get(ctx, record.ID)
}

// Update rewrites the mutable fields of a record. ingested_at is
// deliberately left out.
func (r *RecordRepository) Update(ctx context.Context, record types.Record) (types.Record, error) {
	const query = `
		UPDATE records
		SET metric_id = $1,
			team_id = $2,
			value = $3,
			recorded_at = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(
		ctx,
		query,
		record.MetricID,
		record.TeamID,
		record.Value,
		record.RecordedAt,
		record.ID,
	)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return types.Record{}, ErrInvalidReference
		}
		return types.Record{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Record{}, err
	}
	if affected == 0 {
		return types.Record{}, ErrNotFound
	}
	return r.Get(ctx, record.ID)
}

func (r *RecordRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM records WHERE id = $1`
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

// Snapshot returns every record joined with its metric and team display
// names. The aggregation engine treats the result as an immutable read
// snapshot.
func (r *RecordRepository) Snapshot(ctx context.Context) ([]types.RecordSnapshot, error) {
	const query = `
		SELECT m.name, t.name, r.value, r.ingested_at
		FROM records r
		JOIN metrics m ON m.id = r.metric_id
		JOIN teams t ON t.id = r.team_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshot := make([]types.RecordSnapshot, 0)
	for rows.Next() {
		var row types.RecordSnapshot
		if err := rows.Scan(&row.MetricName, &row.TeamName, &row.Value, &row.IngestedAt); err != nil {
			return nil, err
		}
		snapshot = append(snapshot, row)
	}
	return snapshot, rows.Err()
}
