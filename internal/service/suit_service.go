package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tailor-backend/internal/model"
	"tailor-backend/internal/repository"

	"gorm.io/gorm"
)

// --- DTOs ---

type CreateSuitRequest struct {
	CustomerID string  `form:"customer_id" json:"customer_id"`
	Status     string  `form:"status" json:"status"`
	OrderDate  string  `form:"order_date" json:"order_date"`
	DueDate    string  `form:"due_date" json:"due_date"`
	WorkerID   IDField `form:"worker_id" json:"worker_id"`
}

// UpdateSuitRequest overwrites only the fields that are present. An empty or
// null due_date or worker_id clears the value.
type UpdateSuitRequest struct {
	CustomerID *string  `form:"customer_id" json:"customer_id"`
	Status     *string  `form:"status" json:"status"`
	OrderDate  *string  `form:"order_date" json:"order_date"`
	DueDate    *string  `form:"due_date" json:"due_date"`
	WorkerID   *IDField `form:"worker_id" json:"worker_id"`
}

// UnmarshalJSON keeps an explicit null distinct from an absent key: null
// due_date and worker_id become empty values, which clear them.
func (r *UpdateSuitRequest) UnmarshalJSON(data []byte) error {
	type plain UpdateSuitRequest
	if err := json.Unmarshal(data, (*plain)(r)); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if isJSONNull(fields["due_date"]) {
		cleared := ""
		r.DueDate = &cleared
	}
	if isJSONNull(fields["worker_id"]) {
		cleared := IDField("")
		r.WorkerID = &cleared
	}
	return nil
}

type SuitResponse struct {
	model.SuitView
	Images []ImageRecord `json:"images"`
}

// --- Interface ---

type SuitService interface {
	CreateSuit(ctx context.Context, userID string, req CreateSuitRequest, files []Upload) (*SuitResponse, error)
	GetSuit(ctx context.Context, id string) (*SuitResponse, error)
	ListSuits(ctx context.Context) ([]SuitResponse, error)
	UpdateSuit(ctx context.Context, userID, id string, req UpdateSuitRequest, files []Upload, deleteImageIDs []uint) (*SuitResponse, error)
	DeleteSuit(ctx context.Context, userID, id string) error
	SearchSuits(ctx context.Context, term string) ([]SuitResponse, error)
}

type suitService struct {
	suitRepo     repository.SuitRepository
	customerRepo repository.CustomerRepository
	workerRepo   repository.WorkerRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	ids          IdentityAssigner
	aggregates   AggregateMaintainer
	attachments  AttachmentManager
	now          func() time.Time
}

func NewSuitService(
	suitRepo repository.SuitRepository,
	customerRepo repository.CustomerRepository,
	workerRepo repository.WorkerRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	ids IdentityAssigner,
	aggregates AggregateMaintainer,
	attachments AttachmentManager,
) SuitService {
	return &suitService{
		suitRepo:     suitRepo,
		customerRepo: customerRepo,
		workerRepo:   workerRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		ids:          ids,
		aggregates:   aggregates,
		attachments:  attachments,
		now:          time.Now,
	}
}

// --- Implementation ---

func (s *suitService) CreateSuit(ctx context.Context, userID string, req CreateSuitRequest, files []Upload) (*SuitResponse, error) {
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		return nil, validationError("customer_id is required")
	}

	status := model.SuitStatusNoProgress
	if strings.TrimSpace(req.Status) != "" {
		normalized, ok := normalizeStatus(req.Status)
		if !ok {
			return nil, validationError("invalid status %q", req.Status)
		}
		status = normalized
	}

	orderDate, err := parseDate("order_date", req.OrderDate)
	if err != nil {
		return nil, err
	}
	if orderDate == nil {
		today := truncateDay(s.now())
		orderDate = &today
	}
	dueDate, err := parseDate("due_date", req.DueDate)
	if err != nil {
		return nil, err
	}

	var workerID *uint
	if id, ok, err := req.WorkerID.uint("worker_id"); err != nil {
		return nil, err
	} else if ok {
		workerID = &id
	}

	if err := s.attachments.Validate(files); err != nil {
		return nil, err
	}

	suit := model.Suit{
		CustomerID: customerID,
		Status:     status,
		OrderDate:  *orderDate,
		DueDate:    dueDate,
		WorkerID:   workerID,
	}

	var added []ImageRecord
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// The customer row lock serializes id assignment and aggregate updates.
		if _, err := s.customerRepo.FindByIDForUpdate(txCtx, customerID); err != nil {
			return lookupError(err, "customer")
		}
		if err := s.ensureWorker(txCtx, workerID); err != nil {
			return err
		}

		id, err := s.nextSuitID(txCtx, customerID)
		if err != nil {
			return err
		}
		suit.ID = id

		if err := s.suitRepo.Create(txCtx, &suit); err != nil {
			return writeError(err, "create suit")
		}
		if err := s.aggregates.OnSuitCreated(txCtx, &suit); err != nil {
			return err
		}
		if err := s.aggregates.OnSuitWorkerChanged(txCtx, nil, suit.WorkerID); err != nil {
			return err
		}

		if added, err = s.attachments.AddImages(txCtx, SuitOwner(suit.ID), files); err != nil {
			return err
		}

		return recordAudit(txCtx, s.auditRepo, userID, model.ActionCreateSuit, suit.ID, customerID, req)
	})
	if err != nil {
		s.attachments.Reclaim(ctx, imageURLs(added))
		return nil, err
	}

	return s.GetSuit(ctx, suit.ID)
}

// nextSuitID derives the id from the current suit count and steps forward past
// ids still taken after earlier deletions.
func (s *suitService) nextSuitID(ctx context.Context, customerID string) (string, error) {
	count, err := s.suitRepo.CountByCustomer(ctx, customerID)
	if err != nil {
		return "", fmt.Errorf("failed to count suits: %w", err)
	}
	for n := count; ; n++ {
		id := s.ids.AssignSuitID(customerID, n)
		exists, err := s.suitRepo.Exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to check suit id: %w", err)
		}
		if !exists {
			return id, nil
		}
	}
}

// ensureWorker locks the worker a suit is being assigned to so it cannot be
// deleted before the assignment commits.
func (s *suitService) ensureWorker(ctx context.Context, workerID *uint) error {
	if workerID == nil {
		return nil
	}
	if _, err := s.workerRepo.FindByIDForKeyShare(ctx, *workerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return validationError("worker %d does not exist", *workerID)
		}
		return lookupError(err, "worker")
	}
	return nil
}

// holdWorker locks the worker a suit is being released from. A worker that is
// already gone has had its suits cleared, so there is nothing to hold.
func (s *suitService) holdWorker(ctx context.Context, workerID *uint) error {
	if workerID == nil {
		return nil
	}
	if _, err := s.workerRepo.FindByIDForKeyShare(ctx, *workerID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return lookupError(err, "worker")
	}
	return nil
}

func (s *suitService) GetSuit(ctx context.Context, id string) (*SuitResponse, error) {
	view, err := s.suitRepo.FindViewByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "suit")
	}
	images, err := s.attachments.ListImages(ctx, SuitOwner(id))
	if err != nil {
		return nil, err
	}
	return &SuitResponse{SuitView: *view, Images: images}, nil
}

func (s *suitService) ListSuits(ctx context.Context) ([]SuitResponse, error) {
	views, err := s.suitRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list suits: %w", err)
	}
	return withSuitImages(ctx, s.attachments, views)
}

func (s *suitService) UpdateSuit(ctx context.Context, userID, id string, req UpdateSuitRequest, files []Upload, deleteImageIDs []uint) (*SuitResponse, error) {
	if err := s.attachments.Validate(files); err != nil {
		return nil, err
	}

	var added, removed []ImageRecord
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.suitRepo.FindByID(txCtx, id)
		if err != nil {
			return lookupError(err, "suit")
		}
		if _, err := s.customerRepo.FindByIDForUpdate(txCtx, current.CustomerID); err != nil {
			return lookupError(err, "customer")
		}
		// Re-read under the customer lock; only a worker delete can still change it.
		current, err = s.suitRepo.FindByID(txCtx, id)
		if err != nil {
			return lookupError(err, "suit")
		}

		var newWorker *uint
		if req.WorkerID != nil {
			workerID, ok, err := req.WorkerID.uint("worker_id")
			if err != nil {
				return err
			}
			if ok {
				newWorker = &workerID
			}
		}

		// Workers before the suit row, the order DeleteWorker takes them in.
		if err := s.holdWorker(txCtx, current.WorkerID); err != nil {
			return err
		}
		if err := s.ensureWorker(txCtx, newWorker); err != nil {
			return err
		}
		suit, err := s.suitRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return lookupError(err, "suit")
		}

		if v := trimPtr(req.CustomerID); v != nil && *v != "" && *v != suit.CustomerID {
			return validationError("a suit cannot be moved to another customer")
		}
		if req.Status != nil {
			status, ok := normalizeStatus(*req.Status)
			if !ok {
				return validationError("invalid status %q", *req.Status)
			}
			suit.Status = status
		}
		if req.OrderDate != nil {
			orderDate, err := parseDate("order_date", *req.OrderDate)
			if err != nil {
				return err
			}
			if orderDate != nil {
				suit.OrderDate = *orderDate
			}
		}
		if req.DueDate != nil {
			if suit.DueDate, err = parseDate("due_date", *req.DueDate); err != nil {
				return err
			}
		}
		oldWorker := suit.WorkerID
		if req.WorkerID != nil {
			suit.WorkerID = newWorker
		}

		if err := s.suitRepo.Update(txCtx, suit); err != nil {
			return writeError(err, "update suit")
		}
		if req.WorkerID != nil {
			if err := s.aggregates.OnSuitWorkerChanged(txCtx, oldWorker, suit.WorkerID); err != nil {
				return err
			}
		}
		if req.DueDate != nil {
			if err := s.aggregates.OnSuitDueDateChanged(txCtx, suit.CustomerID); err != nil {
				return err
			}
		}

		if removed, err = s.attachments.RemoveImages(txCtx, SuitOwner(id), deleteImageIDs); err != nil {
			return err
		}
		if added, err = s.attachments.AddImages(txCtx, SuitOwner(id), files); err != nil {
			return err
		}

		return recordAudit(txCtx, s.auditRepo, userID, model.ActionUpdateSuit, id, suit.CustomerID, map[string]interface{}{
			"changes":        req,
			"images_added":   len(added),
			"images_removed": len(removed),
		})
	})
	if err != nil {
		s.attachments.Reclaim(ctx, imageURLs(added))
		return nil, err
	}
	s.attachments.Reclaim(ctx, imageURLs(removed))

	return s.GetSuit(ctx, id)
}

func (s *suitService) DeleteSuit(ctx context.Context, userID, id string) error {
	var removed []ImageRecord
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		suit, err := s.suitRepo.FindByID(txCtx, id)
		if err != nil {
			return lookupError(err, "suit")
		}
		if _, err := s.customerRepo.FindByIDForUpdate(txCtx, suit.CustomerID); err != nil {
			return lookupError(err, "customer")
		}

		// Release the worker before touching the suit row, the order DeleteWorker uses.
		if err := s.holdWorker(txCtx, suit.WorkerID); err != nil {
			return err
		}
		if err := s.aggregates.OnSuitWorkerChanged(txCtx, suit.WorkerID, nil); err != nil {
			return err
		}

		if removed, err = s.attachments.RemoveAll(txCtx, model.ImageOwnerSuit, id); err != nil {
			return err
		}
		if err := s.suitRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete suit: %w", err)
		}
		if err := s.aggregates.OnSuitDeleted(txCtx, suit); err != nil {
			return err
		}

		return recordAudit(txCtx, s.auditRepo, userID, model.ActionDeleteSuit, id, suit.CustomerID, map[string]interface{}{
			"images_deleted": len(removed),
		})
	})
	if err != nil {
		return err
	}

	s.attachments.Reclaim(ctx, imageURLs(removed))
	return nil
}

func (s *suitService) SearchSuits(ctx context.Context, term string) ([]SuitResponse, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, validationError("search term is required")
	}
	views, err := s.suitRepo.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search suits: %w", err)
	}
	return withSuitImages(ctx, s.attachments, views)
}

// withSuitImages attaches each suit's images using one query for the whole batch.
func withSuitImages(ctx context.Context, attachments AttachmentManager, views []model.SuitView) ([]SuitResponse, error) {
	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	images, err := attachments.ListImagesFor(ctx, model.ImageOwnerSuit, ids...)
	if err != nil {
		return nil, err
	}

	suits := make([]SuitResponse, 0, len(views))
	for _, v := range views {
		imgs := images[v.ID]
		if imgs == nil {
			imgs = []ImageRecord{}
		}
		suits = append(suits, SuitResponse{SuitView: v, Images: imgs})
	}
	return suits, nil
}
