package history

import "time"

const SchemaVersion = 1

// Run is the summary of one lint invocation.
type Run struct {
	ID          string         `json:"id"`
	ProjectKey  string         `json:"project_key"`
	Timestamp   time.Time      `json:"timestamp"`
	Fingerprint string         `json:"config_fingerprint"`
	FileCount   int            `json:"file_count"`
	ErrorCount  int            `json:"error_count"`
	WarnCount   int            `json:"warning_count"`
	FixedCount  int            `json:"fixed_count"`
	FailedCount int            `json:"failed_count"`
	Duration    time.Duration  `json:"duration_ns"`
	RuleCounts  map[string]int `json:"rule_counts,omitempty"`
}

type TrendPoint struct {
	RunID         string         `json:"run_id"`
	Timestamp     time.Time      `json:"timestamp"`
	FileCount     int            `json:"file_count"`
	ErrorCount    int            `json:"error_count"`
	WarnCount     int            `json:"warning_count"`
	FixedCount    int            `json:"fixed_count"`
	DeltaErrors   int            `json:"delta_errors"`
	DeltaWarnings int            `json:"delta_warnings"`
	DeltaByRule   map[string]int `json:"delta_by_rule,omitempty"`
	// ConfigChanged marks runs whose rule configuration differs from the
	// previous run; their deltas compare different rule sets.
	ConfigChanged bool    `json:"config_changed,omitempty"`
	AvgErrors     float64 `json:"avg_errors"`
	WindowHours   float64 `json:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version"`
	ProjectKey    string       `json:"project_key"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	Window        string       `json:"window"`
	RunCount      int          `json:"run_count"`
	Points        []TrendPoint `json:"points"`
}
