package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/orgpulse/apiserver/internal/db"
	"github.com/orgpulse/apiserver/types"
)

// TeamRepository handles persistence for teams.
type TeamRepository struct {
	db *sql.DB
}

func NewTeamRepository(dbConn *sql.DB) *TeamRepository {
	return &TeamRepository{db: dbConn}
}

func (r *TeamRepository) List(ctx context.Context) ([]types.Team, error) {
	const query = `SELECT id, name, description FROM teams ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]types.Team, 0)
	for rows.Next() {
		var team types.Team
		if err := rows.Scan(&team.ID, &team.Name, &team.Description); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *TeamRepository) Get(ctx context.Context, id int) (types.Team, error) {
	const query = `SELECT id, name, description FROM teams WHERE id = $1`
	var team types.Team
	err := r.db.QueryRowContext(ctx, query, id).Scan(&team.ID, &team.Name, &team.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Team{}, ErrNotFound
		}
		return types.Team{}, err
	}
	return team, nil
}

// Create inserts a new team. Name uniqueness is enforced by the database
// constraint, not a separate existence check, so concurrent creates of
// the same name cannot both succeed.
func (r *TeamRepository) Create(ctx context.Context, team types.Team) (types.Team, error) {
	const query = `
		INSERT INTO teams (name, description)
		VALUES ($1, $2)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, team.Name, team.Description).Scan(&team.ID); err != nil {
		if db.IsUniqueViolation(err) {
			return types.Team{}, ErrConflict
		}
		return types.Team{}, err
	}
	return team, nil
}

func (r *TeamRepository) Update(ctx context.Context, team types.Team) (types.Team, error) {
	const query = `
		UPDATE teams
		SET name = $1,
			description = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, team.Name, team.Description, team.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return types.Team{}, ErrConflict
		}
		return types.Team{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Team{}, err
	}
	if affected == 0 {
		return types.Team{}, ErrNotFound
	}
	return team, nil
}

// Delete removes a team. Dependent records are removed by the cascade on
// records.team_id.
func (r *TeamRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM teams WHERE id = $1`
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
