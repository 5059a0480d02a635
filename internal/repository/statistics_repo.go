package repository

import (
	"context"
	"fmt"
	"time"

	"tailor-backend/internal/model"

	"gorm.io/gorm"
)

type StatisticsRepository interface {
	CountCustomers(ctx context.Context) (int64, error)
	CountSuits(ctx context.Context) (int64, error)
	CountWorkers(ctx context.Context) (int64, error)
	CountSuitsByStatus(ctx context.Context) ([]model.StatusCount, error)
	CountOverdue(ctx context.Context, today time.Time, closedStatuses []string) (int64, error)
	ListDueBetween(ctx context.Context, from, to time.Time, closedStatuses []string) ([]model.SuitView, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) count(ctx context.Context, m interface{}) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(m).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *statisticsRepository) CountCustomers(ctx context.Context) (int64, error) {
	return r.count(ctx, &model.Customer{})
}

func (r *statisticsRepository) CountSuits(ctx context.Context) (int64, error) {
	return r.count(ctx, &model.Suit{})
}

func (r *statisticsRepository) CountWorkers(ctx context.Context) (int64, error) {
	return r.count(ctx, &model.Worker{})
}

func (r *statisticsRepository) CountSuitsByStatus(ctx context.Context) ([]model.StatusCount, error) {
	var rows []model.StatusCount
	if err := r.db.WithContext(ctx).Model(&model.Suit{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count suits by status: %w", err)
	}
	return rows, nil
}

func (r *statisticsRepository) CountOverdue(ctx context.Context, today time.Time, closedStatuses []string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Suit{}).
		Where("due_date < ? AND status NOT IN ?", today, closedStatuses).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count overdue suits: %w", err)
	}
	return n, nil
}

func (r *statisticsRepository) ListDueBetween(ctx context.Context, from, to time.Time, closedStatuses []string) ([]model.SuitView, error) {
	var views []model.SuitView
	if err := r.db.WithContext(ctx).Table("suits").
		Select("suits.*, customers.name AS customer_name, workers.name AS worker_name").
		Joins("LEFT JOIN customers ON customers.customer_id = suits.customer_id").
		Joins("LEFT JOIN workers ON workers.worker_id = suits.worker_id").
		Where("suits.due_date >= ? AND suits.due_date <= ? AND suits.status NOT IN ?", from, to, closedStatuses).
		Order("suits.due_date ASC, suits.suit_id ASC").
		Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("failed to list suits due soon: %w", err)
	}
	return views, nil
}
