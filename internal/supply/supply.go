// Package supply implements the read path: filtered selection, atomic
// assignment, and the low-supply auto-trigger policy.
package supply

import (
	"context"
	"time"

	"github.com/bobmcallan/trivia/internal/interfaces"
	"github.com/bobmcallan/trivia/internal/models"
)

// Controller implements FetchQuestions exactly as spec §4.4. It has no
// teacher analogue — the teacher has no request-time auto-remediation
// policy — so it is built fresh in the teacher's handler-composition
// style (thin functions that call into one or two service methods and
// translate the typed outcome), grounded on the original Python's
// get_questions auto-trigger block.
type Controller struct {
	store interfaces.Store
	jobs  interfaces.JobManager
}

// New creates a Supply Controller wired to the Store and Job Manager.
func New(store interfaces.Store, jobs interfaces.JobManager) *Controller {
	return &Controller{store: store, jobs: jobs}
}

// FetchQuestions resolves recipientID (creating it on first use), selects
// and atomically assigns up to limit unassigned questions matching the
// filters, and — if supply falls short — asks the Job Manager to enqueue
// a replenishment job, unless one is already in flight for this
// recipient. The auto-trigger is strictly advisory: it never delays this
// call's return.
func (c *Controller) FetchQuestions(ctx context.Context, recipientID string, limit int, age *int, topic string) ([]*models.Question, error) {
	if err := c.store.EnsureRecipient(ctx, recipientID); err != nil {
		return nil, err
	}

	candidates, err := c.store.SelectUnassigned(ctx, recipientID, age, topic, limit)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		c.maybeAutoTrigger(ctx, recipientID, limit, 0, age, topic)
		return nil, nil
	}

	ids := make([]int64, len(candidates))
	byID := make(map[int64]*models.Question, len(candidates))
	for i, q := range candidates {
		ids[i] = q.ID
		byID[q.ID] = q
	}

	assigned, err := c.store.AssignMany(ctx, recipientID, ids, time.Now())
	if err != nil {
		return nil, err
	}

	selected := make([]*models.Question, 0, len(assigned))
	for _, id := range assigned {
		if q, ok := byID[id]; ok {
			selected = append(selected, q)
		}
	}

	c.maybeAutoTrigger(ctx, recipientID, limit, len(selected), age, topic)

	return selected, nil
}

// maybeAutoTrigger enqueues a replenishment job when the selection fell
// short of limit and no auto-triggered job is already active for
// recipientID, per spec §4.4 step 3.
func (c *Controller) maybeAutoTrigger(ctx context.Context, recipientID string, limit, selectedCount int, age *int, topic string) {
	if selectedCount >= limit {
		return
	}
	if c.jobs.HasActiveFor(recipientID) {
		return
	}

	shortfall := limit - selectedCount
	targetCount := shortfall
	if targetCount < models.DefaultTargetCount {
		targetCount = models.DefaultTargetCount
	}

	var ageRange *models.AgeRange
	if age != nil {
		ageRange = &models.AgeRange{MinAge: *age, MaxAge: *age}
	}

	// Best-effort: a failure to enqueue never fails the read path.
	_, _ = c.jobs.Enqueue(ctx, recipientID, targetCount, ageRange, topic, true)
}
