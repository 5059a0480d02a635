package service

import (
	"context"
	"testing"

	"tailor-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.workers.CreateWorker(ctx, "", WorkerRequest{Name: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	zara := createWorker(t, env, "Zara")
	ali := createWorker(t, env, " Ali ")
	assert.Equal(t, "Ali", ali.Name)

	list, err := env.workers.ListWorkers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ali", list[0].Name)
	assert.Equal(t, "Zara", list[1].Name)

	renamed, err := env.workers.UpdateWorker(ctx, "", zara.ID, WorkerRequest{Name: "Zara B"})
	require.NoError(t, err)
	assert.Equal(t, "Zara B", renamed.Name)

	_, err = env.workers.UpdateWorker(ctx, "", 99, WorkerRequest{Name: "Ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.workers.UpdateWorker(ctx, "", zara.ID, WorkerRequest{Name: ""})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.workers.GetWorker(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.workers.DeleteWorker(ctx, "", 99), ErrNotFound)
}

func TestDeleteWorker_UnassignsSuits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	createCustomer(t, env, "1234")
	worker := createWorker(t, env, "Ali")

	s1, err := env.suits.CreateSuit(ctx, "", CreateSuitRequest{CustomerID: "1234", WorkerID: "1"}, nil)
	require.NoError(t, err)
	s2, err := env.suits.CreateSuit(ctx, "", CreateSuitRequest{CustomerID: "1234", WorkerID: "1"}, nil)
	require.NoError(t, err)

	got, err := env.workers.GetWorker(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.SuitsAssigned)
	assert.Len(t, got.Suits, 2)

	require.NoError(t, env.workers.DeleteWorker(ctx, "", worker.ID))

	_, ok := env.db.workers[worker.ID]
	assert.False(t, ok)
	for _, id := range []string{s1.ID, s2.ID} {
		suit, err := env.suits.GetSuit(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, suit.WorkerID)
		assert.Nil(t, suit.WorkerName)
	}

	last := env.db.audits[len(env.db.audits)-1]
	assert.Equal(t, model.ActionDeleteWorker, last.Action)
	assert.JSONEq(t, `{"suits_unassigned":2}`, last.Details)
}
