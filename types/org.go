package types

import "time"

// Team represents a reporting group that records are attributed to.
type Team struct {
	// ID is the unique identifier of the team.
	ID int `json:"id" db:"id"`

	// Name is the unique display name of the team. Uniqueness is
	// exact-match: differently cased names are distinct teams.
	Name string `json:"name" db:"name"`

	// Description is free-form text describing the team.
	Description string `json:"description" db:"description"`
}

// Metric represents a named measurement that teams record values against.
type Metric struct {
	// ID is the unique identifier of the metric.
	ID int `json:"id" db:"id"`

	// Name is the unique display name of the metric.
	Name string `json:"name" db:"name"`

	// Description is free-form text describing what is measured.
	Description string `json:"description" db:"description"`

	// Target is the goal value for this metric.
	Target float64 `json:"target" db:"target"`
}

// Record is a single observation of a metric value by a team.
// A record belongs to exactly one metric and one team; deleting either
// parent cascades to its records.
type Record struct {
	// ID is the unique identifier of the record.
	ID int `json:"id" db:"id"`

	// MetricID identifies the metric this record measures.
	MetricID int `json:"metric" db:"metric_id"`

	// TeamID identifies the team the record is attributed to.
	TeamID int `json:"team" db:"team_id"`

	// Value is the observed numeric value.
	Value float64 `json:"value" db:"value"`

	// RecordedAt is when the observation occurred, as reported by the
	// client. Optional.
	RecordedAt *time.Time `json:"recorded_at" db:"recorded_at"`

	// IngestedAt is when the row was stored. Assigned by the server on
	// creation and immutable afterwards.
	IngestedAt time.Time `json:"timestamp" db:"ingested_at"`

	// MetricName, MetricTarget and TeamName are denormalized from the
	// referenced rows for list/detail responses. Read-only.
	MetricName   string  `json:"metric_name" db:"metric_name"`
	MetricTarget float64 `json:"metric_target" db:"metric_target"`
	TeamName     string  `json:"team_name" db:"team_name"`
}
