package interfaces

import "github.com/bobmcallan/trivia/internal/models"

// Telemetry tracks the supply engine's monotonic counters and derives the
// rates and alerts an operator uses to judge system health.
type Telemetry interface {
	IncJobsEnqueued(autoTriggered bool)
	IncJobsCompleted()
	IncJobsFailed()
	IncQuestionsGenerated()
	IncDuplicatesSkipped()

	// Snapshot returns a point-in-time read of counters and derived rates.
	// activeJobs and concurrentStreams are supplied by the caller (the Job
	// Manager and Push Hub respectively) since Telemetry does not hold a
	// reference to either, per the no-cyclic-structures design rule.
	Snapshot(activeJobs, concurrentStreams int) models.TelemetrySnapshot

	// Alerts evaluates the current snapshot against the configured
	// thresholds and returns every triggered alert.
	Alerts(snapshot models.TelemetrySnapshot) []models.Alert
}
