package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a client of the shop. Its ID is derived from the phone number or
// social handle, and TotalSuits / DueDate are maintained from its suits.
type Customer struct {
	ID             string          `gorm:"column:customer_id;type:varchar(50);primaryKey" json:"customer_id"`
	Name           string          `gorm:"type:varchar(100)" json:"name"`
	PhoneNumber    string          `gorm:"type:varchar(20);index" json:"phone_number"`
	InstagramID    string          `gorm:"type:varchar(100)" json:"instagram_id"`
	TotalSuits     int             `gorm:"type:int;not null;default:0" json:"total_suits"`
	OrderDate      time.Time       `gorm:"type:date;not null" json:"order_date"`
	DueDate        *time.Time      `gorm:"type:date;index" json:"due_date"`
	PendingAmount  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"pending_amount"`
	ReceivedAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"received_amount"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// CustomerListItem is a customer row with the number of measurement images attached.
type CustomerListItem struct {
	Customer               `gorm:"embedded"`
	MeasurementImagesCount int64 `json:"measurement_images_count"`
}
