package types

import "time"

// RecordSnapshot is a single record joined with the display names of its
// metric and team. The aggregation engine consumes an immutable slice of
// these; grouping keys are the names, not the ids.
type RecordSnapshot struct {
	MetricName string
	TeamName   string
	Value      float64
	IngestedAt time.Time
}

// MetricTeamTotal is one row of the metric x team totals view.
type MetricTeamTotal struct {
	MetricName string  `json:"metric_name"`
	TeamName   string  `json:"team_name"`
	TotalValue float64 `json:"total_value"`
}

// TeamRecordCount is one row of the per-team record count view.
type TeamRecordCount struct {
	TeamName     string `json:"team_name"`
	TotalRecords int    `json:"total_records"`
}

// TrendPoint is one row of the time-ordered trend view. Records sharing
// the exact same ingestion instant fold into a single point.
type TrendPoint struct {
	Timestamp  time.Time `json:"timestamp"`
	TotalValue float64   `json:"total_value"`
}

// TeamContribution is one row of the per-team value totals view.
type TeamContribution struct {
	TeamName   string  `json:"team_name"`
	TotalValue float64 `json:"total_value"`
}

// Summary bundles the four aggregated views computed over one snapshot
// of the record set.
type Summary struct {
	MetricTeamData    []MetricTeamTotal  `json:"metricTeamData"`
	RecordsByTeam     []TeamRecordCount  `json:"recordsByTeam"`
	RecordTrends      []TrendPoint       `json:"recordTrends"`
	TeamContributions []TeamContribution `json:"teamContributions"`
}
