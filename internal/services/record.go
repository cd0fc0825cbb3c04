package services

import (
	"context"

	"github.com/orgpulse/apiserver/internal/store"
	"github.com/orgpulse/apiserver/types"
)

// RecordRepository defines persistence operations for records.
type RecordRepository interface {
	List(ctx context.Context, filter store.RecordFilter) ([]types.Record, error)
	Get(ctx context.Context, id int) (types.Record, error)
	Create(ctx context.Context, record types.Record) (types.Record, error)
	Update(ctx context.Context, record types.Record) (types.Record, error)
	Delete(ctx context.Context, id int) error
}

// RecordService encapsulates record use-cases.
type RecordService struct {
	repo RecordRepository
}

func NewRecordService(repo RecordRepository) *RecordService {
	return &RecordService{repo: repo}
}

func (s *RecordService) List(ctx context.Context, filter store.RecordFilter) ([]types.Record, error) {
	return s.repo.List(ctx, filter)
}

func (s *RecordService) Get(ctx context.Context, id int) (types.Record, error) {
	return s.repo.Get(ctx, id)
}

func (s *RecordService) Create(ctx context.Context, record types.Record) (types.Record, error) {
	if err := validateRecord(record); err != nil {
		return types.Record{}, err
	}
	return s.repo.Create(ctx, record)
}

func (s *RecordService) Update(ctx context.Context, record types.Record) (types.Record, error) {
	if err := validateRecord(record); err != nil {
		return types.Record{}, err
	}
	return s.repo.Update(ctx, record)
}

func (s *RecordService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func validateRecord(record types.Record) error {
	if record.MetricID < 1 {
		return NewValidationError("metric", "A valid metric is required.")
	}
	if record.TeamID < 1 {
		return NewValidationError("team", "A valid team is required.")
	}
	return nil
}
