package models

// TelemetrySnapshot is a point-in-time read of the Telemetry component's
// counters and derived rates, suitable for JSON encoding at /metrics.
type TelemetrySnapshot struct {
	JobsEnqueued        int64   `json:"jobs_enqueued"`
	JobsCompleted       int64   `json:"jobs_completed"`
	JobsFailed          int64   `json:"jobs_failed"`
	QuestionsGenerated  int64   `json:"questions_generated"`
	DuplicatesSkipped   int64   `json:"duplicates_skipped"`
	AutoTriggers        int64   `json:"auto_triggers"`
	ManualTriggers      int64   `json:"manual_triggers"`
	ActiveJobs          int     `json:"active_jobs"`
	ConcurrentStreams   int     `json:"concurrent_streams"`
	UptimeSeconds       float64 `json:"uptime_seconds"`
	SuccessRate         float64 `json:"success_rate"`
	QuestionsPerMinute  float64 `json:"questions_per_minute"`
	DuplicateRatio      float64 `json:"duplicate_ratio"`
}

// Alert is a single threshold-triggered warning or critical condition.
type Alert struct {
	Level   string `json:"level"` // "warning" | "critical"
	Message string `json:"message"`
}

// AlertThresholds configures the Telemetry component's alert rules.
// All fields have documented defaults and may be overridden by configuration.
type AlertThresholds struct {
	MaxActiveJobs          int     `toml:"max_active_jobs"`
	MinSuccessRate         float64 `toml:"min_success_rate"`
	MinCompletionsForRate  int     `toml:"min_completions_for_rate"`
	MaxDuplicateRatio      float64 `toml:"max_duplicate_ratio"`
	MaxConcurrentStreams   int     `toml:"max_concurrent_streams"`
}

// DefaultAlertThresholds returns the spec's documented default thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		MaxActiveJobs:         15,
		MinSuccessRate:        0.80,
		MinCompletionsForRate: 5,
		MaxDuplicateRatio:     0.50,
		MaxConcurrentStreams:  100,
	}
}
