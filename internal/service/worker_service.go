package service

import (
	"context"
	"fmt"
	"strings"

	"tailor-backend/internal/model"
	"tailor-backend/internal/repository"
)

// --- DTOs ---

type WorkerRequest struct {
	Name string `form:"name" json:"name"`
}

type WorkerResponse struct {
	model.Worker
	Suits []SuitResponse `json:"suits"`
}

// --- Interface ---

type WorkerService interface {
	CreateWorker(ctx context.Context, userID string, req WorkerRequest) (*model.Worker, error)
	GetWorker(ctx context.Context, id uint) (*WorkerResponse, error)
	ListWorkers(ctx context.Context) ([]model.Worker, error)
	UpdateWorker(ctx context.Context, userID string, id uint, req WorkerRequest) (*model.Worker, error)
	DeleteWorker(ctx context.Context, userID string, id uint) error
	SearchWorkers(ctx context.Context, term string) ([]model.Worker, error)
}

type workerService struct {
	workerRepo  repository.WorkerRepository
	suitRepo    repository.SuitRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	attachments AttachmentManager
}

func NewWorkerService(
	workerRepo repository.WorkerRepository,
	suitRepo repository.SuitRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	attachments AttachmentManager,
) WorkerService {
	return &workerService{
		workerRepo:  workerRepo,
		suitRepo:    suitRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		attachments: attachments,
	}
}

// --- Implementation ---

func (s *workerService) CreateWorker(ctx context.Context, userID string, req WorkerRequest) (*model.Worker, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("worker name is required")
	}

	worker := model.Worker{Name: name}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.workerRepo.Create(txCtx, &worker); err != nil {
			return writeError(err, "create worker")
		}
		return recordAudit(txCtx, s.auditRepo, userID, model.ActionCreateWorker, fmt.Sprint(worker.ID), name, req)
	})
	if err != nil {
		return nil, err
	}
	return &worker, nil
}

func (s *workerService) GetWorker(ctx context.Context, id uint) (*WorkerResponse, error) {
	worker, err := s.workerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "worker")
	}

	views, err := s.suitRepo.ListByWorker(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list suits: %w", err)
	}
	suits, err := withSuitImages(ctx, s.attachments, views)
	if err != nil {
		return nil, err
	}

	return &WorkerResponse{Worker: *worker, Suits: suits}, nil
}

func (s *workerService) ListWorkers(ctx context.Context) ([]model.Worker, error) {
	workers, err := s.workerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	return workers, nil
}

func (s *workerService) UpdateWorker(ctx context.Context, userID string, id uint, req WorkerRequest) (*model.Worker, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("worker name is required")
	}

	var worker *model.Worker
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		if worker, err = s.workerRepo.FindByID(txCtx, id); err != nil {
			return lookupError(err, "worker")
		}
		oldName := worker.Name
		worker.Name = name
		if err := s.workerRepo.Update(txCtx, worker); err != nil {
			return writeError(err, "update worker")
		}
		return recordAudit(txCtx, s.auditRepo, userID, model.ActionUpdateWorker, fmt.Sprint(id), name, map[string]string{
			"old_name": oldName,
			"new_name": name,
		})
	})
	if err != nil {
		return nil, err
	}
	return worker, nil
}

// DeleteWorker unassigns the worker's suits, zeroes its counter and removes it.
// The suits themselves are kept.
func (s *workerService) DeleteWorker(ctx context.Context, userID string, id uint) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Locking the row first waits out suits being assigned to this worker,
		// so ClearWorker sees them.
		worker, err := s.workerRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return lookupError(err, "worker")
		}

		unassigned, err := s.suitRepo.ClearWorker(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to unassign suits: %w", err)
		}
		if err := s.workerRepo.ResetAssigned(txCtx, id); err != nil {
			return fmt.Errorf("failed to reset worker counter: %w", err)
		}
		if err := s.workerRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete worker: %w", err)
		}

		return recordAudit(txCtx, s.auditRepo, userID, model.ActionDeleteWorker, fmt.Sprint(id), worker.Name, map[string]int64{
			"suits_unassigned": unassigned,
		})
	})
}

func (s *workerService) SearchWorkers(ctx context.Context, term string) ([]model.Worker, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, validationError("search term is required")
	}
	workers, err := s.workerRepo.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search workers: %w", err)
	}
	return workers, nil
}
