package services

import (
	"context"

	"github.com/orgpulse/apiserver/types"
)

// TeamRepository defines persistence operations for teams.
type TeamRepository interface {
	List(ctx context.Context) ([]types.Team, error)
	Get(ctx context.Context, id int) (types.Team, error)
	Create(ctx context.Context, team types.Team) (types.Team, error)
	Update(ctx context.Context, team types.Team) (types.Team, error)
	Delete(ctx context.Context, id int) error
}

// TeamService encapsulates team use-cases.
type TeamService struct {
	repo TeamRepository
}

func NewTeamService(repo TeamRepository) *TeamService {
	return &TeamService{repo: repo}
}

func (s *TeamService) List(ctx context.Context) ([]types.Team, error) {
	return s.repo.List(ctx)
}

func (s *TeamService) Get(ctx context.Context, id int) (types.Team, error) {
	return s.repo.Get(ctx, id)
}

func (s *TeamService) Create(ctx context.Context, team types.Team) (types.Team, error) {
	if team.Name == "" {
		return types.Team{}, NewValidationError("name", "This field is required.")
	}
	return s.repo.Create(ctx, team)
}

func (s *TeamService) Update(ctx context.Context, team types.Team) (types.Team, error) {
	if team.Name == "" {
		return types.Team{}, NewValidationError("name", "This field is required.")
	}
	return s.repo.Update(ctx, team)
}

func (s *TeamService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
