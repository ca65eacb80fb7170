package ports

import (
	"context"
	"crew-route-service/internal/domain"
)

// RouteCache memoizes solved routes by (company, crew, date). It is never a
// source of truth; implementations may drop entries at any time.
type RouteCache interface {
	Get(ctx context.Context, companyID, crewID, date string) (domain.Route, bool, error)
	Put(ctx context.Context, route domain.Route) error
	Invalidate(ctx context.Context, companyID, date string) error
}
