package service

import (
	"context"
	"strings"
)

// Search kinds accepted by SearchService.Search.
const (
	SearchCustomers = "customers"
	SearchSuits     = "suits"
	SearchWorkers   = "workers"
)

// SearchService runs a case-insensitive substring search over one entity kind.
type SearchService interface {
	Search(ctx context.Context, kind, term string) (interface{}, error)
}

type searchService struct {
	customers CustomerService
	suits     SuitService
	workers   WorkerService
}

func NewSearchService(customers CustomerService, suits SuitService, workers WorkerService) SearchService {
	return &searchService{customers: customers, suits: suits, workers: workers}
}

func (s *searchService) Search(ctx context.Context, kind, term string) (interface{}, error) {
	if strings.TrimSpace(term) == "" {
		return nil, validationError("search term is required")
	}

	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(kind)), "s") {
	case "customer":
		return s.customers.SearchCustomers(ctx, term)
	case "suit":
		return s.suits.SearchSuits(ctx, term)
	case "worker":
		return s.workers.SearchWorkers(ctx, term)
	default:
		return nil, validationError("unknown search kind %q", kind)
	}
}
