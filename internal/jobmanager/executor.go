package jobmanager

import (
	"context"
	"time"

	"github.com/bobmcallan/trivia/internal/models"
)

// workerLoop continuously dequeues and executes jobs, grounded on the
// teacher's jobmanager.processLoop.
func (m *Manager) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case jobID, ok := <-m.queue.ready:
			if !ok {
				return
			}
			m.executeJob(ctx, jobID)
		}
	}
}

// executeJob runs the Generator Adapter target_count times, inserting
// each accepted question into the Store and publishing progress, exactly
// as the worker algorithm of spec §4.3 steps 1-5. A failed call or a
// duplicate uses up its attempt; the job completes once every attempt
// has been made.
func (m *Manager) executeJob(ctx context.Context, jobID string) {
	job := m.queue.update(jobID, func(j *models.Job) {
		j.Status = models.JobStatusRunning
	})
	if job == nil {
		return
	}

	m.hub.Publish(job.OwnerRecipientID, models.JobEvent{
		Type:      models.EventJobUpdate,
		JobID:     job.ID,
		Status:    models.JobStatusRunning,
		Timestamp: time.Now(),
	})

	minAge, maxAge := 0, 0
	if job.AgeRange != nil {
		minAge, maxAge = job.AgeRange.MinAge, job.AgeRange.MaxAge
	}

	generated := 0
	var lastErr error

	for attempt := 0; attempt < job.TargetCount; attempt++ {
		select {
		case <-ctx.Done():
			m.failJob(jobID, generated, "job manager shutting down")
			return
		default:
		}

		nonce, err := randomNonce()
		if err != nil {
			lastErr = err
			continue
		}

		gq, err := m.generator.Generate(ctx, job.Topic, minAge, maxAge, nonce)
		if err != nil {
			lastErr = err
			m.logger.Warn().Err(err).Str("job_id", jobID).Msg("Generator call failed, skipping")
			continue
		}

		q := &models.Question{
			Prompt:  gq.Prompt,
			Options: gq.Options,
			Answer:  gq.Answer,
			Topic:   job.Topic,
			MinAge:  minAge,
			MaxAge:  maxAge,
		}

		outcome, err := m.store.InsertQuestion(ctx, q)
		if err != nil {
			lastErr = err
			m.logger.Warn().Err(err).Str("job_id", jobID).Msg("Store insert failed, skipping")
			continue
		}

		switch outcome {
		case models.InsertOutcomeInserted:
			generated++
			m.telemetry.IncQuestionsGenerated()
			m.queue.update(jobID, func(j *models.Job) {
				j.GeneratedCount = generated
			})
			m.hub.Publish(job.OwnerRecipientID, models.JobEvent{
				Type:           models.EventJobProgress,
				JobID:          job.ID,
				Status:         models.JobStatusRunning,
				GeneratedCount: generated,
				TargetCount:    job.TargetCount,
				Progress:       progressPercent(generated, job.TargetCount),
				Timestamp:      time.Now(),
			})
		case models.InsertOutcomeDuplicate:
			m.telemetry.IncDuplicatesSkipped()
		case models.InsertOutcomeInvalid:
			m.logger.Warn().Str("job_id", jobID).Msg("Generator produced an invalid question, skipping")
		}
	}

	if generated < job.TargetCount && lastErr != nil {
		m.logger.Warn().Err(lastErr).Str("job_id", jobID).Int("generated", generated).Msg("Job finished short of its target")
	}
	m.completeJob(jobID, generated)
}

func (m *Manager) completeJob(jobID string, generated int) {
	now := time.Now()
	job := m.queue.update(jobID, func(j *models.Job) {
		j.Status = models.JobStatusCompleted
		j.GeneratedCount = generated
		j.CompletedAt = &now
	})
	if job == nil {
		return
	}
	m.telemetry.IncJobsCompleted()
	m.hub.Publish(job.OwnerRecipientID, models.JobEvent{
		Type:           models.EventJobCompleted,
		JobID:          job.ID,
		Status:         models.JobStatusCompleted,
		GeneratedCount: generated,
		TargetCount:    job.TargetCount,
		Progress:       100,
		Timestamp:      now,
	})
}

func (m *Manager) failJob(jobID string, generated int, message string) {
	now := time.Now()
	job := m.queue.update(jobID, func(j *models.Job) {
		j.Status = models.JobStatusFailed
		j.GeneratedCount = generated
		j.Message = message
		j.CompletedAt = &now
	})
	if job == nil {
		return
	}
	m.telemetry.IncJobsFailed()
	m.hub.Publish(job.OwnerRecipientID, models.JobEvent{
		Type:           models.EventJobFailed,
		JobID:          job.ID,
		Status:         models.JobStatusFailed,
		Message:        message,
		GeneratedCount: generated,
		TargetCount:    job.TargetCount,
		Timestamp:      now,
	})
}

func progressPercent(generated, target int) int {
	if target <= 0 {
		return 100
	}
	pct := generated * 100 / target
	if pct > 100 {
		pct = 100
	}
	return pct
}
