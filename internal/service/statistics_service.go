package service

import (
	"context"
	"fmt"
	"time"

	"tailor-backend/internal/model"
	"tailor-backend/internal/repository"
)

// DueSoonWindow is how far ahead the dashboard looks for upcoming due dates.
const DueSoonWindow = 7 * 24 * time.Hour

// closedStatuses are suits no longer counted as open work.
var closedStatuses = []string{model.SuitStatusDispatched, model.SuitStatusCompleted}

type StatisticsService interface {
	GetStatistics(ctx context.Context, now time.Time) (model.DashboardStatistics, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo}
}

// GetStatistics summarizes the workload: totals, suits per status, overdue open
// suits and open suits due within DueSoonWindow.
func (s *statisticsService) GetStatistics(ctx context.Context, now time.Time) (model.DashboardStatistics, error) {
	var stats model.DashboardStatistics
	today := truncateDay(now)

	var err error
	if stats.TotalCustomers, err = s.repo.CountCustomers(ctx); err != nil {
		return stats, err
	}
	if stats.TotalSuits, err = s.repo.CountSuits(ctx); err != nil {
		return stats, err
	}
	if stats.TotalWorkers, err = s.repo.CountWorkers(ctx); err != nil {
		return stats, err
	}

	counts, err := s.repo.CountSuitsByStatus(ctx)
	if err != nil {
		return stats, err
	}
	stats.SuitsByStatus = make(map[string]int64, len(model.SuitStatuses))
	for _, status := range model.SuitStatuses {
		stats.SuitsByStatus[status] = 0
	}
	closed := int64(0)
	for _, c := range counts {
		stats.SuitsByStatus[c.Status] = c.Count
		for _, cs := range closedStatuses {
			if c.Status == cs {
				closed += c.Count
			}
		}
	}
	stats.OpenSuits = stats.TotalSuits - closed

	if stats.OverdueSuits, err = s.repo.CountOverdue(ctx, today, closedStatuses); err != nil {
		return stats, err
	}

	stats.DueSoonUntil = today.Add(DueSoonWindow)
	if stats.DueSoon, err = s.repo.ListDueBetween(ctx, today, stats.DueSoonUntil, closedStatuses); err != nil {
		return stats, fmt.Errorf("failed to build dashboard: %w", err)
	}
	if stats.DueSoon == nil {
		stats.DueSoon = []model.SuitView{}
	}
	stats.GeneratedAt = now

	return stats, nil
}
