package model

import (
	"time"
)

// DashboardStatistics aggregates the shop's workload for the dashboard
type DashboardStatistics struct {
	TotalCustomers int64            `json:"total_customers"`
	TotalSuits     int64            `json:"total_suits"`
	TotalWorkers   int64            `json:"total_workers"`
	SuitsByStatus  map[string]int64 `json:"suits_by_status"`
	OpenSuits      int64            `json:"open_suits"`
	OverdueSuits   int64            `json:"overdue_suits"`
	DueSoon        []SuitView       `json:"due_soon"`
	DueSoonUntil   time.Time        `json:"due_soon_until"`
	GeneratedAt    time.Time        `json:"generated_at"`
}
