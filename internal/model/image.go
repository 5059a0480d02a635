package model

import "time"

// ImageOwner enum constants
const (
	ImageOwnerCustomer = "customer"
	ImageOwnerSuit     = "suit"
)

// Image is an uploaded picture: a measurement sheet for a customer or a photo of a suit.
type Image struct {
	ID        uint      `gorm:"column:image_id;primaryKey;autoIncrement" json:"image_id"`
	OwnerKind string    `gorm:"type:varchar(20);not null;index:idx_images_owner,priority:1" json:"owner_kind"`
	OwnerID   string    `gorm:"type:varchar(60);not null;index:idx_images_owner,priority:2" json:"owner_id"`
	ImageURL  string    `gorm:"type:varchar(512);not null" json:"image_url"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
