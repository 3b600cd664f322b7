package jobmanager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/trivia/internal/models"
)

func newTestJob(owner string, autoTriggered bool) *models.Job {
	return &models.Job{
		ID:               owner + "-job",
		OwnerRecipientID: owner,
		TargetCount:      5,
		Status:           models.JobStatusPending,
		CreatedAt:        time.Now(),
		AutoTriggered:    autoTriggered,
	}
}

func TestJobQueue_PutGet(t *testing.T) {
	q := newJobQueue(4)
	job := newTestJob("alice", false)
	q.put(job)

	got := q.get(job.ID)
	require.NotNil(t, got)
	assert.Equal(t, job.ID, got.ID)

	select {
	case id := <-q.ready:
		assert.Equal(t, job.ID, id)
	default:
		t.Fatal("expected job ID on ready channel")
	}
}

func TestJobQueue_GetMissing(t *testing.T) {
	q := newJobQueue(4)
	assert.Nil(t, q.get("does-not-exist"))
}

func TestJobQueue_Update(t *testing.T) {
	q := newJobQueue(4)
	job := newTestJob("alice", false)
	q.put(job)

	updated := q.update(job.ID, func(j *models.Job) {
		j.Status = models.JobStatusRunning
	})
	require.NotNil(t, updated)
	assert.Equal(t, models.JobStatusRunning, updated.Status)
	assert.Equal(t, models.JobStatusRunning, q.get(job.ID).Status)
}

func TestJobQueue_UpdateMissingReturnsNil(t *testing.T) {
	q := newJobQueue(4)
	assert.Nil(t, q.update("ghost", func(j *models.Job) {}))
}

func TestJobQueue_OwnedBy(t *testing.T) {
	q := newJobQueue(4)
	q.put(newTestJob("alice", false))
	q.put(newTestJob("bob", false))

	owned := q.ownedBy("alice")
	require.Len(t, owned, 1)
	assert.Equal(t, "alice", owned[0].OwnerRecipientID)
}

func TestJobQueue_HasActiveAutoTriggered(t *testing.T) {
	q := newJobQueue(4)
	assert.False(t, q.hasActiveAutoTriggered("alice"))

	q.put(newTestJob("alice", true))
	assert.True(t, q.hasActiveAutoTriggered("alice"))

	q.update("alice-job", func(j *models.Job) {
		j.Status = models.JobStatusCompleted
	})
	assert.False(t, q.hasActiveAutoTriggered("alice"), "a completed job is no longer active")
}

func TestJobQueue_HasActiveAutoTriggered_IgnoresManual(t *testing.T) {
	q := newJobQueue(4)
	q.put(newTestJob("alice", false))
	assert.False(t, q.hasActiveAutoTriggered("alice"), "a manually-triggered job does not count")
}

func TestJobQueue_ActiveCount(t *testing.T) {
	q := newJobQueue(4)
	q.put(newTestJob("alice", false))
	q.put(newTestJob("bob", false))
	assert.Equal(t, 2, q.activeCount())

	q.update("alice-job", func(j *models.Job) {
		j.Status = models.JobStatusFailed
	})
	assert.Equal(t, 1, q.activeCount())
}

func TestJobQueue_GC(t *testing.T) {
	q := newJobQueue(4)
	old := newTestJob("alice", false)
	old.Status = models.JobStatusCompleted
	stale := time.Now().Add(-time.Hour)
	old.CompletedAt = &stale
	q.put(old)

	recent := newTestJob("bob", false)
	recent.Status = models.JobStatusCompleted
	now := time.Now()
	recent.CompletedAt = &now
	q.put(recent)

	removed := q.gc(func(j *models.Job) bool {
		return j.CompletedAt.Before(time.Now().Add(-time.Minute))
	})

	assert.Equal(t, 1, removed)
	assert.Nil(t, q.get(old.ID))
	assert.NotNil(t, q.get(recent.ID))
}

func TestJobQueue_GCSkipsActiveJobs(t *testing.T) {
	q := newJobQueue(4)
	q.put(newTestJob("alice", false))

	removed := q.gc(func(j *models.Job) bool { return true })
	assert.Equal(t, 0, removed, "active jobs are never collected regardless of the cutoff predicate")
}
