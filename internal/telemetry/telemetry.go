// Package telemetry tracks the supply engine's monotonic counters and
// derives the rates and alerts an operator uses to judge system health.
package telemetry

import (
	"sync/atomic"
	"time"

	"github.com/bobmcallan/trivia/internal/interfaces"
	"github.com/bobmcallan/trivia/internal/models"
)

// Telemetry holds the process-wide counters as atomic.Int64s, grounded on
// the teacher's "monotonic counters, guarded writes" discipline and on
// the original Python's Metrics class
// (original_source/backend/main.py lines ~75-165), translated from
// mutable-dict bookkeeping to atomics.
type Telemetry struct {
	jobsEnqueued       atomic.Int64
	jobsCompleted      atomic.Int64
	jobsFailed         atomic.Int64
	questionsGenerated atomic.Int64
	duplicatesSkipped  atomic.Int64
	autoTriggers       atomic.Int64
	manualTriggers     atomic.Int64

	thresholds models.AlertThresholds
	startedAt  time.Time

	prom *prometheusMetrics
}

// New creates a Telemetry component with the given alert thresholds.
func New(thresholds models.AlertThresholds) *Telemetry {
	return &Telemetry{
		thresholds: thresholds,
		startedAt:  time.Now(),
		prom:       newPrometheusMetrics(),
	}
}

var _ interfaces.Telemetry = (*Telemetry)(nil)

func (t *Telemetry) IncJobsEnqueued(autoTriggered bool) {
	t.jobsEnqueued.Add(1)
	t.prom.jobsEnqueued.Inc()
	if autoTriggered {
		t.autoTriggers.Add(1)
		t.prom.autoTriggers.Inc()
	} else {
		t.manualTriggers.Add(1)
		t.prom.manualTriggers.Inc()
	}
}

func (t *Telemetry) IncJobsCompleted() {
	t.jobsCompleted.Add(1)
	t.prom.jobsCompleted.Inc()
}

func (t *Telemetry) IncJobsFailed() {
	t.jobsFailed.Add(1)
	t.prom.jobsFailed.Inc()
}

func (t *Telemetry) IncQuestionsGenerated() {
	t.questionsGenerated.Add(1)
	t.prom.questionsGenerated.Inc()
}

func (t *Telemetry) IncDuplicatesSkipped() {
	t.duplicatesSkipped.Add(1)
	t.prom.duplicatesSkipped.Inc()
}

// Snapshot returns a point-in-time read of counters and derived rates,
// exactly as spec §4.6: success_rate = jobs_completed / max(jobs_enqueued,
// 1); questions_per_minute = questions_generated / uptime_minutes;
// duplicate_ratio = duplicates_skipped / (questions_generated +
// duplicates_skipped).
func (t *Telemetry) Snapshot(activeJobs, concurrentStreams int) models.TelemetrySnapshot {
	enqueued := t.jobsEnqueued.Load()
	completed := t.jobsCompleted.Load()
	failed := t.jobsFailed.Load()
	generated := t.questionsGenerated.Load()
	duplicates := t.duplicatesSkipped.Load()
	autoTriggers := t.autoTriggers.Load()
	manualTriggers := t.manualTriggers.Load()

	uptime := time.Since(t.startedAt)
	uptimeMinutes := uptime.Minutes()

	denomEnqueued := enqueued
	if denomEnqueued < 1 {
		denomEnqueued = 1
	}
	successRate := float64(completed) / float64(denomEnqueued)

	var questionsPerMinute float64
	if uptimeMinutes > 0 {
		questionsPerMinute = float64(generated) / uptimeMinutes
	}

	var duplicateRatio float64
	if denom := generated + duplicates; denom > 0 {
		duplicateRatio = float64(duplicates) / float64(denom)
	}

	snapshot := models.TelemetrySnapshot{
		JobsEnqueued:       enqueued,
		JobsCompleted:      completed,
		JobsFailed:         failed,
		QuestionsGenerated: generated,
		DuplicatesSkipped:  duplicates,
		AutoTriggers:       autoTriggers,
		ManualTriggers:     manualTriggers,
		ActiveJobs:         activeJobs,
		ConcurrentStreams:  concurrentStreams,
		UptimeSeconds:      uptime.Seconds(),
		SuccessRate:        successRate,
		QuestionsPerMinute: questionsPerMinute,
		DuplicateRatio:     duplicateRatio,
	}

	t.prom.activeJobs.Set(float64(activeJobs))
	t.prom.concurrentStreams.Set(float64(concurrentStreams))

	return snapshot
}

// Alerts evaluates snapshot against the configured thresholds, exactly
// as spec §4.6's documented default rules.
func (t *Telemetry) Alerts(snapshot models.TelemetrySnapshot) []models.Alert {
	var alerts []models.Alert

	if snapshot.ActiveJobs > t.thresholds.MaxActiveJobs {
		alerts = append(alerts, models.Alert{
			Level:   "warning",
			Message: "active jobs exceed configured maximum",
		})
	}

	if snapshot.JobsCompleted >= int64(t.thresholds.MinCompletionsForRate) && snapshot.SuccessRate < t.thresholds.MinSuccessRate {
		alerts = append(alerts, models.Alert{
			Level:   "critical",
			Message: "success rate below configured minimum",
		})
	}

	if snapshot.DuplicateRatio > t.thresholds.MaxDuplicateRatio {
		alerts = append(alerts, models.Alert{
			Level:   "warning",
			Message: "duplicate ratio exceeds configured maximum",
		})
	}

	if snapshot.ConcurrentStreams > t.thresholds.MaxConcurrentStreams {
		alerts = append(alerts, models.Alert{
			Level:   "warning",
			Message: "concurrent push streams exceed configured maximum",
		})
	}

	return alerts
}
