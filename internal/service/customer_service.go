package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tailor-backend/internal/model"
	"tailor-backend/internal/repository"

	"gorm.io/gorm"
)

// --- DTOs ---

type CreateCustomerRequest struct {
	Name           string `form:"name" json:"name"`
	PhoneNumber    string `form:"phone_number" json:"phone_number"`
	InstagramID    string `form:"instagram_id" json:"instagram_id"`
	OrderDate      string `form:"order_date" json:"order_date"`
	DueDate        string `form:"due_date" json:"due_date"`
	PendingAmount  string `form:"pending_amount" json:"pending_amount"`
	ReceivedAmount string `form:"received_amount" json:"received_amount"`
}

// UpdateCustomerRequest overwrites only the fields that are present.
// An empty due_date clears it.
type UpdateCustomerRequest struct {
	Name           *string `form:"name" json:"name"`
	PhoneNumber    *string `form:"phone_number" json:"phone_number"`
	InstagramID    *string `form:"instagram_id" json:"instagram_id"`
	OrderDate      *string `form:"order_date" json:"order_date"`
	DueDate        *string `form:"due_date" json:"due_date"`
	PendingAmount  *string `form:"pending_amount" json:"pending_amount"`
	ReceivedAmount *string `form:"received_amount" json:"received_amount"`
}

type CustomerResponse struct {
	model.Customer
	MeasurementImages []ImageRecord  `json:"measurement_images"`
	Suits             []SuitResponse `json:"suits"`
}

// --- Interface ---

type CustomerService interface {
	CreateCustomer(ctx context.Context, userID string, req CreateCustomerRequest, files []Upload) (*CustomerResponse, error)
	GetCustomer(ctx context.Context, id string) (*CustomerResponse, error)
	ListCustomers(ctx context.Context) ([]model.CustomerListItem, error)
	UpdateCustomer(ctx context.Context, userID, id string, req UpdateCustomerRequest, files []Upload, deleteImageIDs []uint) (*CustomerResponse, error)
	DeleteCustomer(ctx context.Context, userID, id string) error
	SearchCustomers(ctx context.Context, term string) ([]model.Customer, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
	suitRepo     repository.SuitRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	ids          IdentityAssigner
	aggregates   AggregateMaintainer
	attachments  AttachmentManager
	now          func() time.Time
}

func NewCustomerService(
	customerRepo repository.CustomerRepository,
	suitRepo repository.SuitRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	ids IdentityAssigner,
	aggregates AggregateMaintainer,
	attachments AttachmentManager,
) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		suitRepo:     suitRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		ids:          ids,
		aggregates:   aggregates,
		attachments:  attachments,
		now:          time.Now,
	}
}

// --- Implementation ---

func (s *customerService) CreateCustomer(ctx context.Context, userID string, req CreateCustomerRequest, files []Upload) (*CustomerResponse, error) {
	phone := strings.TrimSpace(req.PhoneNumber)
	handle := strings.TrimSpace(req.InstagramID)
	if phone == "" && handle == "" {
		return nil, validationError("phone number or instagram id is required")
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
	pending, err := parseAmount("pending_amount", req.PendingAmount)
	if err != nil {
		return nil, err
	}
	received, err := parseAmount("received_amount", req.ReceivedAmount)
	if err != nil {
		return nil, err
	}
	if err := s.attachments.Validate(files); err != nil {
		return nil, err
	}

	customer := model.Customer{
		ID:             s.ids.AssignCustomerID(phone, handle),
		Name:           strings.TrimSpace(req.Name),
		PhoneNumber:    phone,
		InstagramID:    handle,
		OrderDate:      *orderDate,
		DueDate:        dueDate,
		PendingAmount:  pending,
		ReceivedAmount: received,
	}

	var added []ImageRecord
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, findErr := s.customerRepo.FindByID(txCtx, customer.ID); findErr == nil {
			return conflictError("customer %s already exists", customer.ID)
		} else if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return lookupError(findErr, "customer")
		}

		if createErr := s.customerRepo.Create(txCtx, &customer); createErr != nil {
			return writeError(createErr, "create customer")
		}

		var addErr error
		added, addErr = s.attachments.AddImages(txCtx, CustomerOwner(customer.ID), files)
		if addErr != nil {
			return addErr
		}

		return recordAudit(txCtx, s.auditRepo, userID, model.ActionCreateCustomer, customer.ID, customer.Name, req)
	})
	if err != nil {
		s.attachments.Reclaim(ctx, imageURLs(added))
		return nil, err
	}

	return &CustomerResponse{Customer: customer, MeasurementImages: added, Suits: []SuitResponse{}}, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id string) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "customer")
	}

	images, err := s.attachments.ListImages(ctx, CustomerOwner(id))
	if err != nil {
		return nil, err
	}

	views, err := s.suitRepo.ListByCustomer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list suits: %w", err)
	}
	suits, err := withSuitImages(ctx, s.attachments, views)
	if err != nil {
		return nil, err
	}

	return &CustomerResponse{Customer: *customer, MeasurementImages: images, Suits: suits}, nil
}

func (s *customerService) ListCustomers(ctx context.Context) ([]model.CustomerListItem, error) {
	customers, err := s.customerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, userID, id string, req UpdateCustomerRequest, files []Upload, deleteImageIDs []uint) (*CustomerResponse, error) {
	if err := s.attachments.Validate(files); err != nil {
		return nil, err
	}

	var added, removed []ImageRecord
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		customer, err := s.customerRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return lookupError(err, "customer")
		}

		if err := applyCustomerUpdate(customer, req); err != nil {
			return err
		}
		if customer.PhoneNumber == "" && customer.InstagramID == "" {
			return validationError("phone number or instagram id is required")
		}

		if err := s.customerRepo.Update(txCtx, customer); err != nil {
			return writeError(err, "update customer")
		}

		if removed, err = s.attachments.RemoveImages(txCtx, CustomerOwner(id), deleteImageIDs); err != nil {
			return err
		}
		if added, err = s.attachments.AddImages(txCtx, CustomerOwner(id), files); err != nil {
			return err
		}

		return recordAudit(txCtx, s.auditRepo, userID, model.ActionUpdateCustomer, id, customer.Name, map[string]interface{}{
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

	return s.GetCustomer(ctx, id)
}

func applyCustomerUpdate(customer *model.Customer, req UpdateCustomerRequest) error {
	if v := trimPtr(req.Name); v != nil {
		customer.Name = *v
	}
	if v := trimPtr(req.PhoneNumber); v != nil {
		customer.PhoneNumber = *v
	}
	if v := trimPtr(req.InstagramID); v != nil {
		customer.InstagramID = *v
	}
	if req.OrderDate != nil {
		orderDate, err := parseDate("order_date", *req.OrderDate)
		if err != nil {
			return err
		}
		if orderDate != nil {
			customer.OrderDate = *orderDate
		}
	}
	if req.DueDate != nil {
		dueDate, err := parseDate("due_date", *req.DueDate)
		if err != nil {
			return err
		}
		customer.DueDate = dueDate
	}
	if req.PendingAmount != nil {
		amount, err := parseAmount("pending_amount", *req.PendingAmount)
		if err != nil {
			return err
		}
		customer.PendingAmount = amount
	}
	if req.ReceivedAmount != nil {
		amount, err := parseAmount("received_amount", *req.ReceivedAmount)
		if err != nil {
			return err
		}
		customer.ReceivedAmount = amount
	}
	return nil
}

// DeleteCustomer removes the customer with all of its suits and images. Worker
// counters are released before the suits go away.
func (s *customerService) DeleteCustomer(ctx context.Context, userID, id string) error {
	var removed []ImageRecord
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		customer, err := s.customerRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return lookupError(err, "customer")
		}

		suits, err := s.suitRepo.ListByCustomer(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to list suits: %w", err)
		}

		suitIDs := make([]string, 0, len(suits))
		for _, suit := range suits {
			suitIDs = append(suitIDs, suit.ID)
			if err := s.aggregates.OnSuitWorkerChanged(txCtx, suit.WorkerID, nil); err != nil {
				return err
			}
		}

		suitImages, err := s.attachments.RemoveAll(txCtx, model.ImageOwnerSuit, suitIDs...)
		if err != nil {
			return err
		}
		removed = append(removed, suitImages...)

		for _, suitID := range suitIDs {
			if err := s.suitRepo.Delete(txCtx, suitID); err != nil {
				return fmt.Errorf("failed to delete suit %s: %w", suitID, err)
			}
		}

		customerImages, err := s.attachments.RemoveAll(txCtx, model.ImageOwnerCustomer, id)
		if err != nil {
			return err
		}
		removed = append(removed, customerImages...)

		if err := s.customerRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete customer: %w", err)
		}

		return recordAudit(txCtx, s.auditRepo, userID, model.ActionDeleteCustomer, id, customer.Name, map[string]interface{}{
			"suits_deleted":  suitIDs,
			"images_deleted": len(removed),
		})
	})
	if err != nil {
		return err
	}

	s.attachments.Reclaim(ctx, imageURLs(removed))
	return nil
}

func (s *customerService) SearchCustomers(ctx context.Context, term string) ([]model.Customer, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, validationError("search term is required")
	}
	customers, err := s.customerRepo.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}
	return customers, nil
}
