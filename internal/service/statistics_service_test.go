package service

import (
	"context"
	"testing"
	"time"

	"tailor-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatisticsRepo struct {
	byStatus []model.StatusCount
	dueSoon  []model.SuitView
	from, to time.Time
	closed   []string
}

func (r *fakeStatisticsRepo) CountCustomers(context.Context) (int64, error) { return 4, nil }
func (r *fakeStatisticsRepo) CountSuits(context.Context) (int64, error)     { return 9, nil }
func (r *fakeStatisticsRepo) CountWorkers(context.Context) (int64, error)   { return 2, nil }

func (r *fakeStatisticsRepo) CountSuitsByStatus(context.Context) ([]model.StatusCount, error) {
	return r.byStatus, nil
}

func (r *fakeStatisticsRepo) CountOverdue(_ context.Context, _ time.Time, closed []string) (int64, error) {
	r.closed = closed
	return 3, nil
}

func (r *fakeStatisticsRepo) ListDueBetween(_ context.Context, from, to time.Time, _ []string) ([]model.SuitView, error) {
	r.from, r.to = from, to
	return r.dueSoon, nil
}

func TestGetStatistics(t *testing.T) {
	repo := &fakeStatisticsRepo{byStatus: []model.StatusCount{
		{Status: model.SuitStatusWork, Count: 5},
		{Status: model.SuitStatusCompleted, Count: 3},
		{Status: model.SuitStatusDispatched, Count: 1},
	}}
	svc := NewStatisticsService(repo)

	stats, err := svc.GetStatistics(context.Background(), fixedNow)
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalCustomers)
	assert.Equal(t, int64(9), stats.TotalSuits)
	assert.Equal(t, int64(2), stats.TotalWorkers)
	assert.Equal(t, int64(5), stats.OpenSuits)
	assert.Equal(t, int64(3), stats.OverdueSuits)
	assert.Len(t, stats.SuitsByStatus, len(model.SuitStatuses))
	assert.Equal(t, int64(0), stats.SuitsByStatus[model.SuitStatusStitching])
	assert.Equal(t, int64(5), stats.SuitsByStatus[model.SuitStatusWork])
	assert.NotNil(t, stats.DueSoon)
	assert.ElementsMatch(t, []string{model.SuitStatusDispatched, model.SuitStatusCompleted}, repo.closed)

	today := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, today, repo.from)
	assert.Equal(t, today.AddDate(0, 0, 7), repo.to)
	assert.Equal(t, fixedNow, stats.GeneratedAt)
}
