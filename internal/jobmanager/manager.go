package jobmanager

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/trivia/internal/common"
	"github.com/bobmcallan/trivia/internal/interfaces"
	"github.com/bobmcallan/trivia/internal/models"
)

// Manager runs a bounded worker pool over an in-memory job queue,
// publishing lifecycle events to a PushHub as each job progresses.
//
// Unlike the teacher's jobmanager, which backs its queue with SurrealDB so
// jobs survive a crash, Job durability here is an explicit non-goal: the
// queue is a plain Go channel and map, and a process restart silently
// drops whatever was in flight.
type Manager struct {
	store     interfaces.Store
	generator interfaces.Generator
	hub       *PushHub
	telemetry interfaces.Telemetry
	logger    *common.Logger
	config    common.JobManagerConfig

	queue  *jobQueue
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a job manager wired to store, generator, hub and telemetry.
func New(store interfaces.Store, generator interfaces.Generator, hub *PushHub, telemetry interfaces.Telemetry, logger *common.Logger, config common.JobManagerConfig) *Manager {
	m := &Manager{
		store:     store,
		generator: generator,
		hub:       hub,
		telemetry: telemetry,
		logger:    logger,
		config:    config,
		queue:     newJobQueue(256),
	}
	hub.SetJobLister(m)
	return m
}

var _ interfaces.JobManager = (*Manager)(nil)

// safeGo launches fn as a goroutine with panic recovery and logging,
// grounded on the teacher's jobmanager.safeGo.
func (m *Manager) safeGo(name string, fn func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic in job manager goroutine")
			}
		}()
		fn()
	}()
}

// Start launches the push hub, the worker pool, and the GC loop. Calling
// it again stops the existing loops first and relaunches the workers and
// the GC loop; the push hub is not relaunched, because PushHub.Stop is
// final and a stopped hub's Run returns at once.
func (m *Manager) Start() {
	if m.cancel != nil {
		m.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	m.safeGo("push-hub", func() { m.hub.Run() })

	workers := m.config.MaxConcurrent
	if workers <= 0 {
		workers = 3
	}
	for i := 0; i < workers; i++ {
		name := fmt.Sprintf("worker-%d", i)
		m.safeGo(name, func() { m.workerLoop(ctx) })
	}

	m.safeGo("gc-loop", func() { m.gcLoop(ctx) })

	m.logger.Info().
		Int("workers", workers).
		Str("cleanup_interval", m.config.CleanupInterval).
		Msg("Job manager started")
}

// Stop cancels all loops and waits for them to exit.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.hub.Stop()
	m.wg.Wait()
	m.logger.Info().Msg("Job manager stopped")
}

// Enqueue creates a Pending job and submits it to the worker pool.
func (m *Manager) Enqueue(ctx context.Context, owner string, targetCount int, ageRange *models.AgeRange, topic string, autoTriggered bool) (string, error) {
	if targetCount <= 0 {
		targetCount = models.DefaultTargetCount
	}

	job := &models.Job{
		ID:               uuid.NewString(),
		OwnerRecipientID: owner,
		TargetCount:      targetCount,
		Status:           models.JobStatusPending,
		CreatedAt:        time.Now(),
		AutoTriggered:    autoTriggered,
		AgeRange:         ageRange,
		Topic:            topic,
	}

	m.queue.put(job)
	m.telemetry.IncJobsEnqueued(autoTriggered)

	m.hub.Publish(owner, models.JobEvent{
		Type:        models.EventJobUpdate,
		JobID:       job.ID,
		Status:      job.Status,
		TargetCount: job.TargetCount,
		Timestamp:   time.Now(),
	})

	return job.ID, nil
}

// Status returns a snapshot of the job, or ErrJobNotFound / ErrJobForbidden.
func (m *Manager) Status(jobID, requester string) (*models.Job, error) {
	job := m.queue.get(jobID)
	if job == nil {
		return nil, interfaces.ErrJobNotFound
	}
	if job.OwnerRecipientID != requester {
		return nil, interfaces.ErrJobForbidden
	}
	return job.Snapshot(), nil
}

// HasActiveFor reports whether recipientID owns a non-terminal
// auto-triggered job.
func (m *Manager) HasActiveFor(recipientID string) bool {
	return m.queue.hasActiveAutoTriggered(recipientID)
}

// ListOwned returns snapshots of every job owned by recipientID.
func (m *Manager) ListOwned(recipientID string) []*models.Job {
	return m.queue.ownedBy(recipientID)
}

// Cleanup removes terminal jobs completed more than maxAge ago.
func (m *Manager) Cleanup(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	return m.queue.gc(func(j *models.Job) bool {
		return j.CompletedAt != nil && j.CompletedAt.Before(cutoff)
	})
}

// ActiveCount returns the number of non-terminal jobs, for Telemetry.
func (m *Manager) ActiveCount() int {
	return m.queue.activeCount()
}

// Hub returns the push hub for external handler registration.
func (m *Manager) Hub() *PushHub {
	return m.hub
}
