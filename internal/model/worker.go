package model

import "time"

// Worker is a staff member that suits can be assigned to.
type Worker struct {
	ID            uint      `gorm:"column:worker_id;primaryKey;autoIncrement" json:"worker_id"`
	Name          string    `gorm:"type:varchar(100);not null;index" json:"name"`
	SuitsAssigned int       `gorm:"type:int;not null;default:0" json:"suits_assigned"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
