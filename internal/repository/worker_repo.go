package repository

import (
	"context"

	"tailor-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockingStrengthKeyShare renders as FOR KEY SHARE; gorm only names UPDATE and SHARE.
const lockingStrengthKeyShare = "KEY SHARE"

type WorkerRepository interface {
	Create(ctx context.Context, worker *model.Worker) error
	Update(ctx context.Context, worker *model.Worker) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Worker, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Worker, error)
	FindByIDForKeyShare(ctx context.Context, id uint) (*model.Worker, error)
	List(ctx context.Context) ([]model.Worker, error)
	Search(ctx context.Context, term string) ([]model.Worker, error)
	AdjustAssigned(ctx context.Context, id uint, delta int) error
	ResetAssigned(ctx context.Context, id uint) error
}

type workerRepository struct {
	db *gorm.DB
}

func NewWorkerRepository(db *gorm.DB) WorkerRepository {
	return &workerRepository{db: db}
}

func (r *workerRepository) Create(ctx context.Context, worker *model.Worker) error {
	return GetDB(ctx, r.db).Create(worker).Error
}

func (r *workerRepository) Update(ctx context.Context, worker *model.Worker) error {
	return GetDB(ctx, r.db).Model(worker).Update("name", worker.Name).Error
}

func (r *workerRepository) Delete(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Where("worker_id = ?", id).Delete(&model.Worker{}).Error
}

func (r *workerRepository) FindByID(ctx context.Context, id uint) (*model.Worker, error) {
	var worker model.Worker
	if err := GetDB(ctx, r.db).First(&worker, "worker_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &worker, nil
}

// FindByIDForUpdate locks the worker row exclusively; deleting a worker takes it
// so no suit can be assigned to the worker until the delete commits.
func (r *workerRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Worker, error) {
	return r.findLocked(ctx, id, clause.LockingStrengthUpdate)
}

// FindByIDForKeyShare keeps the worker from being deleted while a suit is
// assigned to or released from it. The lock does not block AdjustAssigned, so
// concurrent assignments to one worker do not wait on each other.
func (r *workerRepository) FindByIDForKeyShare(ctx context.Context, id uint) (*model.Worker, error) {
	return r.findLocked(ctx, id, lockingStrengthKeyShare)
}

func (r *workerRepository) findLocked(ctx context.Context, id uint, strength string) (*model.Worker, error) {
	var worker model.Worker
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: strength}).
		First(&worker, "worker_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &worker, nil
}

func (r *workerRepository) List(ctx context.Context) ([]model.Worker, error) {
	var workers []model.Worker
	if err := GetDB(ctx, r.db).Order("name ASC, worker_id ASC").Find(&workers).Error; err != nil {
		return nil, err
	}
	return workers, nil
}

func (r *workerRepository) Search(ctx context.Context, term string) ([]model.Worker, error) {
	var workers []model.Worker
	if err := GetDB(ctx, r.db).Where("name ILIKE ?", likePattern(term)).
		Order("name ASC, worker_id ASC").Find(&workers).Error; err != nil {
		return nil, err
	}
	return workers, nil
}

// AdjustAssigned moves the counter in a single UPDATE so concurrent reassignments never lose increments.
func (r *workerRepository) AdjustAssigned(ctx context.Context, id uint, delta int) error {
	return GetDB(ctx, r.db).Model(&model.Worker{}).
		Where("worker_id = ?", id).
		UpdateColumn("suits_assigned", gorm.Expr("GREATEST(suits_assigned + ?, 0)", delta)).Error
}

func (r *workerRepository) ResetAssigned(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Model(&model.Worker{}).
		Where("worker_id = ?", id).
		UpdateColumn("suits_assigned", 0).Error
}
