package services

import (
	"context"
	"sort"
	"sync"

	"github.com/orgpulse/apiserver/types"
)

// RecordSnapshotter provides the immutable record snapshot the
// aggregation views are computed over.
type RecordSnapshotter interface {
	Snapshot(ctx context.Context) ([]types.RecordSnapshot, error)
}

// SummaryService is the aggregation engine: four grouped views over one
// snapshot of the record set. Grouping keys are the display names,
// exact-match — "Ops" and "ops" are distinct groups, no normalization.
type SummaryService struct {
	records RecordSnapshotter
}

func NewSummaryService(records RecordSnapshotter) *SummaryService {
	return &SummaryService{records: records}
}

// Summarize computes the four views. They share only the snapshot, so
// they run in parallel. Empty input yields four empty slices.
func (s *SummaryService) Summarize(ctx context.Context) (types.Summary, error) {
	snapshot, err := s.records.Snapshot(ctx)
	if err != nil {
		return types.Summary{}, err
	}
	return ComputeSummary(snapshot), nil
}

// ComputeSummary aggregates a record snapshot into the four views.
func ComputeSummary(snapshot []types.RecordSnapshot) types.Summary {
	var summary types.Summary

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		summary.MetricTeamData = metricTeamTotals(snapshot)
	}()
	go func() {
		defer wg.Done()
		summary.RecordsByTeam = teamRecordCounts(snapshot)
	}()
	go func() {
		defer wg.Done()
		summary.RecordTrends = recordTrends(snapshot)
	}()
	go func() {
		defer wg.Done()
		summary.TeamContributions = teamContributions(snapshot)
	}()
	wg.Wait()

	return summary
}

type metricTeamKey struct {
	metric string
	team   string
}

func metricTeamTotals(snapshot []types.RecordSnapshot) []types.MetricTeamTotal {
	totals := make(map[metricTeamKey]float64)
	for _, row := range snapshot {
		totals[metricTeamKey{metric: row.MetricName, team: row.TeamName}] += row.Value
	}

	out := make([]types.MetricTeamTotal, 0, len(totals))
	for key, total := range totals {
		out = append(out, types.MetricTeamTotal{
			MetricName: key.metric,
			TeamName:   key.team,
			TotalValue: total,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MetricName != out[j].MetricName {
			return out[i].MetricName < out[j].MetricName
		}
		return out[i].TeamName < out[j].TeamName
	})
	return out
}

func teamRecordCounts(snapshot []types.RecordSnapshot) []types.TeamRecordCount {
	counts := make(map[string]int)
	for _, row := range snapshot {
		counts[row.TeamName]++
	}

	out := make([]types.TeamRecordCount, 0, len(counts))
	for team, count := range counts {
		out = append(out, types.TeamRecordCount{TeamName: team, TotalRecords: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamName < out[j].TeamName })
	return out
}

// recordTrends groups by the exact ingestion instant and orders the
// points ascending in time.
func recordTrends(snapshot []types.RecordSnapshot) []types.TrendPoint {
	totals := make(map[int64]types.TrendPoint)
	for _, row := range snapshot {
		key := row.IngestedAt.UnixNano()
		point := totals[key]
		point.Timestamp = row.IngestedAt
		point.TotalValue += row.Value
		totals[key] = point
	}

	out := make([]types.TrendPoint, 0, len(totals))
	for _, point := range totals {
		out = append(out, point)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func teamContributions(snapshot []types.RecordSnapshot) []types.TeamContribution {
	totals := make(map[string]float64)
	for _, row := range snapshot {
		totals[row.TeamName] += row.Value
	}

	out := make([]types.TeamContribution, 0, len(totals))
	for team, total := range totals {
		out = append(out, types.TeamContribution{TeamName: team, TotalValue: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamName < out[j].TeamName })
	return out
}
