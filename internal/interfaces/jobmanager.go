package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/bobmcallan/trivia/internal/models"
)

// ErrJobNotFound and ErrJobForbidden are the typed outcomes of Status,
// distinguishing a missing job from one owned by a different recipient.
var (
	ErrJobNotFound  = errors.New("job not found")
	ErrJobForbidden = errors.New("job not owned by requester")
)

// JobManager tracks background generation jobs, runs them against a
// bounded worker pool, and garbage-collects terminal jobs past a TTL.
type JobManager interface {
	// Enqueue creates a Pending job and submits it to the worker pool.
	// autoTriggered distinguishes the Supply Controller's reactive jobs
	// from operator-submitted manual jobs for the purposes of the
	// one-active-job-per-recipient constraint, which applies to
	// auto-triggered jobs only.
	Enqueue(ctx context.Context, owner string, targetCount int, ageRange *models.AgeRange, topic string, autoTriggered bool) (string, error)

	// Status returns a snapshot of the job, or ErrJobNotFound / ErrJobForbidden.
	Status(jobID, requester string) (*models.Job, error)

	// Cleanup removes terminal jobs older than maxAge and returns the count removed.
	Cleanup(maxAge time.Duration) int

	// HasActiveFor reports whether any auto-triggered job owned by
	// recipientID is currently Pending or Running.
	HasActiveFor(recipientID string) bool

	// ListOwned returns snapshots of all jobs owned by recipientID,
	// used to answer a "jobs_status" push query.
	ListOwned(recipientID string) []*models.Job

	Start()
	Stop()
}
