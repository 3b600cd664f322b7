package supply

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/trivia/internal/models"
)

type fakeStore struct {
	unassigned     []*models.Question
	assignedIDs    []int64
	ensureRecipCalled bool
}

func (f *fakeStore) InsertQuestion(ctx context.Context, q *models.Question) (models.InsertOutcome, error) {
	return models.InsertOutcomeInserted, nil
}
func (f *fakeStore) ImportBatch(ctx context.Context, qs []*models.Question) (int, int, error) {
	return 0, 0, nil
}
func (f *fakeStore) SelectUnassigned(ctx context.Context, recipientID string, age *int, topic string, limit int) ([]*models.Question, error) {
	if limit < len(f.unassigned) {
		return f.unassigned[:limit], nil
	}
	return f.unassigned, nil
}
func (f *fakeStore) AssignMany(ctx context.Context, recipientID string, questionIDs []int64, now time.Time) ([]int64, error) {
	f.assignedIDs = questionIDs
	return questionIDs, nil
}
func (f *fakeStore) CountMatching(ctx context.Context, age *int, topic string) (int, error) { return 0, nil }
func (f *fakeStore) EnsureRecipient(ctx context.Context, recipientID string) error {
	f.ensureRecipCalled = true
	return nil
}
func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                   { return nil }

type fakeJobManager struct {
	active       bool
	enqueueCalls int
	lastTarget   int
}

func (f *fakeJobManager) Enqueue(ctx context.Context, owner string, targetCount int, ageRange *models.AgeRange, topic string, autoTriggered bool) (string, error) {
	f.enqueueCalls++
	f.lastTarget = targetCount
	return "job-1", nil
}
func (f *fakeJobManager) Status(jobID, requester string) (*models.Job, error) { return nil, nil }
func (f *fakeJobManager) Cleanup(maxAge time.Duration) int                   { return 0 }
func (f *fakeJobManager) HasActiveFor(recipientID string) bool              { return f.active }
func (f *fakeJobManager) ListOwned(recipientID string) []*models.Job        { return nil }
func (f *fakeJobManager) Start()                                            {}
func (f *fakeJobManager) Stop()                                             {}

func questionsWithIDs(ids ...int64) []*models.Question {
	out := make([]*models.Question, len(ids))
	for i, id := range ids {
		out[i] = &models.Question{ID: id, Prompt: "p", Answer: "a", Options: []string{"a", "b", "c", "d"}}
	}
	return out
}

func TestFetchQuestions_FullSupply_NoAutoTrigger(t *testing.T) {
	store := &fakeStore{unassigned: questionsWithIDs(1, 2, 3)}
	jobs := &fakeJobManager{}
	ctrl := New(store, jobs)

	result, err := ctrl.FetchQuestions(context.Background(), "alice", 3, nil, "")
	require.NoError(t, err)
	assert.Len(t, result, 3)
	assert.True(t, store.ensureRecipCalled)
	assert.Equal(t, 0, jobs.enqueueCalls)
}

func TestFetchQuestions_ShortSupply_TriggersJob(t *testing.T) {
	store := &fakeStore{unassigned: questionsWithIDs(1)}
	jobs := &fakeJobManager{}
	ctrl := New(store, jobs)

	result, err := ctrl.FetchQuestions(context.Background(), "alice", 5, nil, "")
	require.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Equal(t, 1, jobs.enqueueCalls)
	assert.Equal(t, models.DefaultTargetCount, jobs.lastTarget)
}

func TestFetchQuestions_ShortSupply_SkipsWhenAlreadyActive(t *testing.T) {
	store := &fakeStore{unassigned: questionsWithIDs(1)}
	jobs := &fakeJobManager{active: true}
	ctrl := New(store, jobs)

	_, err := ctrl.FetchQuestions(context.Background(), "alice", 5, nil, "")
	require.NoError(t, err)
	assert.Equal(t, 0, jobs.enqueueCalls)
}

func TestFetchQuestions_NoSupply_StillCallsEnsureRecipient(t *testing.T) {
	store := &fakeStore{unassigned: nil}
	jobs := &fakeJobManager{}
	ctrl := New(store, jobs)

	result, err := ctrl.FetchQuestions(context.Background(), "alice", 5, nil, "")
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.True(t, store.ensureRecipCalled)
	assert.Equal(t, 1, jobs.enqueueCalls)
}
