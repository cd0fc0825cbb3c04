package services

import (
	"context"

	"github.com/orgpulse/apiserver/types"
)

// MetricRepository defines persistence operations for metrics.
type MetricRepository interface {
	List(ctx context.Context) ([]types.Metric, error)
	Get(ctx context.Context, id int) (types.Metric, error)
	Create(ctx context.Context, metric types.Metric) (types.Metric, error)
	Update(ctx context.Context, metric types.Metric) (types.Metric, error)
	Delete(ctx context.Context, id int) error
}

// MetricService encapsulates metric use-cases.
type MetricService struct {
	repo MetricRepository
}

func NewMetricService(repo MetricRepository) *MetricService {
	return &MetricService{repo: repo}
}

func (s *MetricService) List(ctx context.Context) ([]types.Metric, error) {
	return s.repo.List(ctx)
}

func (s *MetricService) Get(ctx context.Context, id int) (types.Metric, error) {
	return s.repo.Get(ctx, id)
}

func (s *MetricService) Create(ctx context.Context, metric types.Metric) (types.Metric, error) {
	if metric.Name == "" {
		return types.Metric{}, NewValidationError("name", "This field is required.")
	}
	return s.repo.Create(ctx, metric)
}

func (s *MetricService) Update(ctx context.Context, metric types.Metric) (types.Metric, error) {
	if metric.Name == "" {
		return types.Metric{}, NewValidationError("name", "This field is required.")
	}
	return s.repo.Update(ctx, metric)
}

func (s *MetricService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
