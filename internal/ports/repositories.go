package ports

import (
	"context"
	"crew-route-service/internal/domain"
)

type CustomerRepository interface {
	ListActiveCustomers(ctx context.Context, companyID string) ([]domain.Customer, error)
}

type CrewRepository interface {
	ListCrews(ctx context.Context, companyID string) ([]domain.CrewAvailability, error)
}

// DepotLocator resolves a company's configured base location.
// ok is false when the company has none.
type DepotLocator interface {
	BaseLocation(ctx context.Context, companyID string) (loc domain.Coordinates, ok bool, err error)
}
