package repository

import (
	"context"
	"time"

	"tailor-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SuitRepository defines data access for suits and their joined display views
type SuitRepository interface {
	Create(ctx context.Context, suit *model.Suit) error
	Update(ctx context.Context, suit *model.Suit) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Suit, error)
	FindByIDForUpdate(ctx context.Context, id string) (*model.Suit, error)
	Exists(ctx context.Context, id string) (bool, error)
	FindViewByID(ctx context.Context, id string) (*model.SuitView, error)
	List(ctx context.Context) ([]model.SuitView, error)
	ListByCustomer(ctx context.Context, customerID string) ([]model.SuitView, error)
	ListByWorker(ctx context.Context, workerID uint) ([]model.SuitView, error)
	Search(ctx context.Context, term string) ([]model.SuitView, error)
	CountByCustomer(ctx context.Context, customerID string) (int64, error)
	MinDueDate(ctx context.Context, customerID string) (*time.Time, error)
	ClearWorker(ctx context.Context, workerID uint) (int64, error)
}

type suitRepository struct {
	db *gorm.DB
}

func NewSuitRepository(db *gorm.DB) SuitRepository {
	return &suitRepository{db: db}
}

func (r *suitRepository) Create(ctx context.Context, suit *model.Suit) error {
	return GetDB(ctx, r.db).Create(suit).Error
}

// Update writes every column, so a nil WorkerID or DueDate is persisted as NULL.
func (r *suitRepository) Update(ctx context.Context, suit *model.Suit) error {
	return GetDB(ctx, r.db).Save(suit).Error
}

func (r *suitRepository) Delete(ctx context.Context, id string) error {
	return GetDB(ctx, r.db).Where("suit_id = ?", id).Delete(&model.Suit{}).Error
}

func (r *suitRepository) FindByID(ctx context.Context, id string) (*model.Suit, error) {
	var suit model.Suit
	if err := GetDB(ctx, r.db).First(&suit, "suit_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &suit, nil
}

// FindByIDForUpdate locks the suit row. Callers lock the suit's worker rows first,
// matching the worker-then-suits order of a worker delete.
func (r *suitRepository) FindByIDForUpdate(ctx context.Context, id string) (*model.Suit, error) {
	var suit model.Suit
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&suit, "suit_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &suit, nil
}

func (r *suitRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Suit{}).Where("suit_id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *suitRepository) views(ctx context.Context) *gorm.DB {
	return GetDB(ctx, r.db).Table("suits").
		Select("suits.*, customers.name AS customer_name, customers.phone_number AS customer_phone, workers.name AS worker_name").
		Joins("LEFT JOIN customers ON customers.customer_id = suits.customer_id").
		Joins("LEFT JOIN workers ON workers.worker_id = suits.worker_id")
}

func (r *suitRepository) FindViewByID(ctx context.Context, id string) (*model.SuitView, error) {
	var views []model.SuitView
	if err := r.views(ctx).Where("suits.suit_id = ?", id).Limit(1).Scan(&views).Error; err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &views[0], nil
}

func (r *suitRepository) List(ctx context.Context) ([]model.SuitView, error) {
	return r.scanViews(r.views(ctx))
}

func (r *suitRepository) ListByCustomer(ctx context.Context, customerID string) ([]model.SuitView, error) {
	return r.scanViews(r.views(ctx).Where("suits.customer_id = ?", customerID))
}

func (r *suitRepository) ListByWorker(ctx context.Context, workerID uint) ([]model.SuitView, error) {
	return r.scanViews(r.views(ctx).Where("suits.worker_id = ?", workerID))
}

func (r *suitRepository) Search(ctx context.Context, term string) ([]model.SuitView, error) {
	pattern := likePattern(term)
	return r.scanViews(r.views(ctx).
		Where("suits.suit_id ILIKE ? OR customers.name ILIKE ? OR customers.phone_number ILIKE ?", pattern, pattern, pattern))
}

func (r *suitRepository) scanViews(query *gorm.DB) ([]model.SuitView, error) {
	var views []model.SuitView
	if err := query.Order("suits.due_date ASC NULLS LAST, suits.suit_id ASC").Scan(&views).Error; err != nil {
		return nil, err
	}
	return views, nil
}

func (r *suitRepository) CountByCustomer(ctx context.Context, customerID string) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Suit{}).Where("customer_id = ?", customerID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// MinDueDate returns the earliest due date among the customer's suits, or nil when none has one.
func (r *suitRepository) MinDueDate(ctx context.Context, customerID string) (*time.Time, error) {
	var row struct {
		MinDue *time.Time
	}
	err := GetDB(ctx, r.db).Model(&model.Suit{}).
		Select("MIN(due_date) AS min_due").
		Where("customer_id = ?", customerID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return row.MinDue, nil
}

// ClearWorker unassigns every suit referencing the worker and returns how many were touched.
func (r *suitRepository) ClearWorker(ctx context.Context, workerID uint) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Suit{}).
		Where("worker_id = ?", workerID).
		Update("worker_id", gorm.Expr("NULL"))
	return res.RowsAffected, res.Error
}
