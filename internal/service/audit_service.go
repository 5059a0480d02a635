package service

import (
	"context"
	"encoding/json"
	"fmt"

	"tailor-backend/internal/model"
	"tailor-backend/internal/repository"

	"github.com/google/uuid"
)

type AuditService interface {
	GetAuditLogs(ctx context.Context, entityID string, page, limit int) ([]model.AuditLog, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) GetAuditLogs(ctx context.Context, entityID string, page, limit int) ([]model.AuditLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	logs, total, err := s.auditRepo.List(ctx, entityID, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}

// recordAudit writes one audit row on the caller's transaction context.
func recordAudit(ctx context.Context, repo repository.AuditRepository, userID, action, entityID, entityName string, details interface{}) error {
	var userUUID *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		userUUID = &parsed
	}

	payload, _ := json.Marshal(details)
	if details == nil {
		payload = []byte("{}")
	}

	entry := &model.AuditLog{
		UserID:     userUUID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
