package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/orgpulse/apiserver/internal/db"
)

// RevokedTokenRepository is the denylist of consumed and revoked refresh
// token ids. Entries are append-only and never pruned; anything older
// than the refresh lifetime could safely be swept, but no sweep exists
// yet and growth is unbounded.
type RevokedTokenRepository struct {
	db *sql.DB
}

func NewRevokedTokenRepository(dbConn *sql.DB) *RevokedTokenRepository {
	return &RevokedTokenRepository{db: dbConn}
}

// Revoke inserts the token id into the denylist. The primary key on jti
// makes this the atomic check-and-insert refresh rotation depends on:
// of two concurrent attempts, exactly one insert succeeds and the other
// returns ErrConflict.
func (r *RevokedTokenRepository) Revoke(ctx context.Context, jti string) error {
	const query = `INSERT INTO revoked_tokens (jti, revoked_at) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, jti, time.Now()); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// IsRevoked reports whether the token id is present in the denylist.
func (r *RevokedTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	const query = `SELECT 1 FROM revoked_tokens WHERE jti = $1`
	var one int
	err := r.db.QueryRowContext(ctx, query, jti).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
