package service

import (
	"context"
	"fmt"

	"tailor-backend/internal/model"
	"tailor-backend/internal/repository"
)

// AggregateMaintainer keeps the derived counters and dates on customers and workers in
// step with suit mutations. Every method must run on the transaction context of the
// suit change that triggered it so both commit or roll back together.
type AggregateMaintainer interface {
	OnSuitCreated(ctx context.Context, suit *model.Suit) error
	OnSuitDeleted(ctx context.Context, suit *model.Suit) error
	OnSuitWorkerChanged(ctx context.Context, oldWorkerID, newWorkerID *uint) error
	OnSuitDueDateChanged(ctx context.Context, customerID string) error
}

type aggregateMaintainer struct {
	customers repository.CustomerRepository
	suits     repository.SuitRepository
	workers   repository.WorkerRepository
}

func NewAggregateMaintainer(
	customers repository.CustomerRepository,
	suits repository.SuitRepository,
	workers repository.WorkerRepository,
) AggregateMaintainer {
	return &aggregateMaintainer{customers: customers, suits: suits, workers: workers}
}

func (m *aggregateMaintainer) OnSuitCreated(ctx context.Context, suit *model.Suit) error {
	customer, err := m.customers.FindByIDForUpdate(ctx, suit.CustomerID)
	if err != nil {
		return lookupError(err, "customer")
	}

	due := customer.DueDate
	if suit.DueDate != nil && (due == nil || suit.DueDate.Before(*due)) {
		due = suit.DueDate
	}

	if err := m.customers.UpdateAggregates(ctx, customer.ID, customer.TotalSuits+1, due); err != nil {
		return fmt.Errorf("failed to update customer aggregates: %w", err)
	}
	return nil
}

// OnSuitDeleted expects the suit row to be gone already so the minimum covers remaining suits only.
func (m *aggregateMaintainer) OnSuitDeleted(ctx context.Context, suit *model.Suit) error {
	customer, err := m.customers.FindByIDForUpdate(ctx, suit.CustomerID)
	if err != nil {
		return lookupError(err, "customer")
	}

	due, err := m.suits.MinDueDate(ctx, customer.ID)
	if err != nil {
		return fmt.Errorf("failed to recompute due date: %w", err)
	}

	count := customer.TotalSuits - 1
	if count < 0 {
		count = 0
	}
	if err := m.customers.UpdateAggregates(ctx, customer.ID, count, due); err != nil {
		return fmt.Errorf("failed to update customer aggregates: %w", err)
	}
	return nil
}

func (m *aggregateMaintainer) OnSuitWorkerChanged(ctx context.Context, oldWorkerID, newWorkerID *uint) error {
	if sameWorker(oldWorkerID, newWorkerID) {
		return nil
	}
	if oldWorkerID != nil {
		if err := m.workers.AdjustAssigned(ctx, *oldWorkerID, -1); err != nil {
			return fmt.Errorf("failed to release worker %d: %w", *oldWorkerID, err)
		}
	}
	if newWorkerID != nil {
		if err := m.workers.AdjustAssigned(ctx, *newWorkerID, 1); err != nil {
			return fmt.Errorf("failed to assign worker %d: %w", *newWorkerID, err)
		}
	}
	return nil
}

func (m *aggregateMaintainer) OnSuitDueDateChanged(ctx context.Context, customerID string) error {
	customer, err := m.customers.FindByIDForUpdate(ctx, customerID)
	if err != nil {
		return lookupError(err, "customer")
	}

	due, err := m.suits.MinDueDate(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to recompute due date: %w", err)
	}

	if err := m.customers.UpdateAggregates(ctx, customerID, customer.TotalSuits, due); err != nil {
		return fmt.Errorf("failed to update customer aggregates: %w", err)
	}
	return nil
}

func sameWorker(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
