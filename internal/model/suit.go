package model

import "time"

// SuitStatus values. Any status may move to any other.
const (
	SuitStatusNoProgress = "no progress"
	SuitStatusWork       = "work"
	SuitStatusStitching  = "stitching"
	SuitStatusWarehouse  = "warehouse"
	SuitStatusDispatched = "dispatched"
	SuitStatusCompleted  = "completed"
)

// SuitStatuses lists every valid status in workshop order.
var SuitStatuses = []string{
	SuitStatusNoProgress,
	SuitStatusWork,
	SuitStatusStitching,
	SuitStatusWarehouse,
	SuitStatusDispatched,
	SuitStatusCompleted,
}

// Suit is a single tailoring order owned by a customer.
type Suit struct {
	ID         string     `gorm:"column:suit_id;type:varchar(60);primaryKey" json:"suit_id"`
	CustomerID string     `gorm:"type:varchar(50);not null;index" json:"customer_id"`
	Status     string     `gorm:"type:varchar(50);not null;default:'no progress';index" json:"status"`
	OrderDate  time.Time  `gorm:"type:date;not null" json:"order_date"`
	DueDate    *time.Time `gorm:"type:date;index" json:"due_date"`
	WorkerID   *uint      `gorm:"index" json:"worker_id"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// SuitView is a suit joined with the display names of its customer and worker.
type SuitView struct {
	Suit          `gorm:"embedded"`
	CustomerName  *string `json:"customer_name"`
	CustomerPhone *string `json:"customer_phone,omitempty"`
	WorkerName    *string `json:"worker_name"`
}

// StatusCount is one row of the suits-per-status aggregation.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}
