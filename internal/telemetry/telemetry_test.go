package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bobmcallan/trivia/internal/models"
)

func TestTelemetry_SuccessRate_NoCompletionsYet(t *testing.T) {
	tel := New(models.DefaultAlertThresholds())
	snap := tel.Snapshot(0, 0)
	assert.Equal(t, 0.0, snap.SuccessRate)
}

func TestTelemetry_SuccessRate_Computed(t *testing.T) {
	tel := New(models.DefaultAlertThresholds())
	tel.IncJobsEnqueued(false)
	tel.IncJobsEnqueued(false)
	tel.IncJobsCompleted()

	snap := tel.Snapshot(0, 0)
	assert.InDelta(t, 0.5, snap.SuccessRate, 0.0001)
}

func TestTelemetry_DuplicateRatio(t *testing.T) {
	tel := New(models.DefaultAlertThresholds())
	tel.IncQuestionsGenerated()
	tel.IncQuestionsGenerated()
	tel.IncQuestionsGenerated()
	tel.IncDuplicatesSkipped()

	snap := tel.Snapshot(0, 0)
	assert.InDelta(t, 0.25, snap.DuplicateRatio, 0.0001)
}

func TestTelemetry_AutoAndManualTriggersTracked(t *testing.T) {
	tel := New(models.DefaultAlertThresholds())
	tel.IncJobsEnqueued(true)
	tel.IncJobsEnqueued(false)

	snap := tel.Snapshot(0, 0)
	assert.EqualValues(t, 1, snap.AutoTriggers)
	assert.EqualValues(t, 1, snap.ManualTriggers)
	assert.EqualValues(t, 2, snap.JobsEnqueued)
}

func TestAlerts_ActiveJobsExceedsMax(t *testing.T) {
	tel := New(models.DefaultAlertThresholds())
	snap := tel.Snapshot(16, 0)
	alerts := tel.Alerts(snap)
	assert.Contains(t, alertMessages(alerts), "active jobs exceed configured maximum")
}

func TestAlerts_SuccessRateBelowMinimum_OnlyAfterEnoughCompletions(t *testing.T) {
	tel := New(models.DefaultAlertThresholds())
	for i := 0; i < 4; i++ {
		tel.IncJobsEnqueued(false)
	}
	tel.IncJobsCompleted()
	tel.IncJobsFailed()
	tel.IncJobsFailed()
	tel.IncJobsFailed()

	snap := tel.Snapshot(0, 0)
	alerts := tel.Alerts(snap)
	assert.NotContains(t, alertMessages(alerts), "success rate below configured minimum")
}

func TestAlerts_ConcurrentStreamsExceedsMax(t *testing.T) {
	tel := New(models.DefaultAlertThresholds())
	snap := tel.Snapshot(0, 101)
	alerts := tel.Alerts(snap)
	assert.Contains(t, alertMessages(alerts), "concurrent push streams exceed configured maximum")
}

func alertMessages(alerts []models.Alert) []string {
	out := make([]string, len(alerts))
	for i, a := range alerts {
		out[i] = a.Message
	}
	return out
}
