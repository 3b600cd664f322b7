package surrealdb

import (
	"context"
	"testing"
	"time"

	"github.com/bobmcallan/trivia/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuestion(prompt, answer string, options []string, topic string, minAge, maxAge int) *models.Question {
	return &models.Question{
		Prompt:  prompt,
		Answer:  answer,
		Options: options,
		Topic:   topic,
		MinAge:  minAge,
		MaxAge:  maxAge,
	}
}

func TestStore_InsertQuestion_DuplicateByContentHash(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	q1 := sampleQuestion("What is 2+2?", "4", []string{"3", "4", "5", "6"}, "math", 5, 99)
	outcome, err := store.InsertQuestion(ctx, q1)
	require.NoError(t, err)
	assert.Equal(t, models.InsertOutcomeInserted, outcome)

	q2 := sampleQuestion("  what IS 2+2 ?  ", "4", []string{"5", "4", "6", "3"}, "math", 5, 99)
	outcome, err = store.InsertQuestion(ctx, q2)
	require.NoError(t, err)
	assert.Equal(t, models.InsertOutcomeDuplicate, outcome)
}

func TestStore_InsertQuestion_Invalid(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	bad := sampleQuestion("Only three options?", "a", []string{"a", "b", "c"}, "topic", 1, 10)
	outcome, err := store.InsertQuestion(ctx, bad)
	require.NoError(t, err)
	assert.Equal(t, models.InsertOutcomeInvalid, outcome)
}

func TestStore_ImportBatch_DuplicatesCounted(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	batch := []*models.Question{
		sampleQuestion("Q1?", "A", []string{"A", "B", "C", "D"}, "t", 1, 10),
		sampleQuestion("Q2?", "A", []string{"A", "B", "C", "D"}, "t", 1, 10),
		sampleQuestion("Q1?", "A", []string{"A", "B", "C", "D"}, "t", 1, 10),
		sampleQuestion("Q3?", "A", []string{"A", "B", "C", "D"}, "t", 1, 10),
	}
	imported, skipped, err := store.ImportBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, imported)
	assert.Equal(t, 1, skipped)
}

func TestStore_SelectUnassigned_And_AssignMany_PerRecipientDedup(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	for i, p := range []string{"Q1?", "Q2?", "Q3?"} {
		q := sampleQuestion(p, "A", []string{"A", "B", "C", "D"}, "geography", 5, 99)
		_, err := store.InsertQuestion(ctx, q)
		require.NoError(t, err)
		_ = i
	}

	recipient := "alice@example.com"
	require.NoError(t, store.EnsureRecipient(ctx, recipient))

	first, err := store.SelectUnassigned(ctx, recipient, nil, "", 2)
	require.NoError(t, err)
	require.Len(t, first, 2)

	ids := []int64{first[0].ID, first[1].ID}
	won, err := store.AssignMany(ctx, recipient, ids, time.Now())
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, won)

	second, err := store.SelectUnassigned(ctx, recipient, nil, "", 2)
	require.NoError(t, err)
	assert.Len(t, second, 1)

	third, err := store.SelectUnassigned(ctx, recipient, nil, "", 2)
	require.NoError(t, err)
	_ = third
}

func TestStore_CrossRecipientIndependence(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	q := sampleQuestion("Shared question?", "A", []string{"A", "B", "C", "D"}, "t", 1, 10)
	_, err := store.InsertQuestion(ctx, q)
	require.NoError(t, err)

	for _, recipient := range []string{"a@example.com", "b@example.com"} {
		require.NoError(t, store.EnsureRecipient(ctx, recipient))
		selected, err := store.SelectUnassigned(ctx, recipient, nil, "", 1)
		require.NoError(t, err)
		require.Len(t, selected, 1)
		_, err = store.AssignMany(ctx, recipient, []int64{selected[0].ID}, time.Now())
		require.NoError(t, err)
	}
}

func TestStore_TopicFilter_RandomSentinelDisablesFilter(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	_, err := store.InsertQuestion(ctx, sampleQuestion("Capital?", "Paris", []string{"Paris", "Lyon", "Nice", "Lille"}, "geography", 1, 99))
	require.NoError(t, err)

	count, err := store.CountMatching(ctx, nil, "Random")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 1)
}

func TestStore_AgeFilter_Boundaries(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	_, err := store.InsertQuestion(ctx, sampleQuestion("Boundary?", "Yes", []string{"Yes", "No", "Maybe", "N/A"}, "t", 10, 20))
	require.NoError(t, err)

	minAge, maxAge := 10, 20
	count, err := store.CountMatching(ctx, &minAge, "")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 1)

	count, err = store.CountMatching(ctx, &maxAge, "")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 1)
}
