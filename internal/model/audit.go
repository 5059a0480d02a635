package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateCustomer = "CREATE_CUSTOMER"
	ActionUpdateCustomer = "UPDATE_CUSTOMER"
	ActionDeleteCustomer = "DELETE_CUSTOMER"
	ActionCreateSuit     = "CREATE_SUIT"
	ActionUpdateSuit     = "UPDATE_SUIT"
	ActionDeleteSuit     = "DELETE_SUIT"
	ActionCreateWorker   = "CREATE_WORKER"
	ActionUpdateWorker   = "UPDATE_WORKER"
	ActionDeleteWorker   = "DELETE_WORKER"
)

// AuditLog tracks who changed which customer, suit or worker and when
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for seeds and maintenance jobs
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(60);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"` // serialized request payload
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
