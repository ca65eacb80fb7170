package services

import (
	"context"
	"crew-route-service/internal/domain"
	"crew-route-service/internal/platform/obs"
	"crew-route-service/internal/ports"
	"errors"
	"fmt"
	"log"
	"time"
)

// Planner runs the daily pipeline: prioritize, match, solve.
type Planner struct {
	Customers ports.CustomerRepository
	Crews     ports.CrewRepository
	Depots    ports.DepotLocator
	Solver    *RouteSolver
	Cache     ports.RouteCache

	// FallbackDepot is used when neither a company base nor a crew location is known.
	FallbackDepot domain.Coordinates
	Thresholds    Thresholds
}

// Plan is the full result of one planning cycle.
type Plan struct {
	CompanyID string         `json:"company_id"`
	Date      string         `json:"date"`
	Routes    []domain.Route `json:"routes"`
	// Deferred customers were eligible but fit no crew this cycle.
	Deferred []string `json:"deferred"`
	// FailedCrews could not be solved and were left out of Routes.
	FailedCrews []string `json:"failed_crews"`
}

// ComputeDailyRoutes returns one route per crew that received customers.
// Zero available crews or zero eligible customers yields an empty slice.
func (p *Planner) ComputeDailyRoutes(ctx context.Context, companyID string, date time.Time) ([]domain.Route, error) {
	plan, err := p.Plan(ctx, companyID, date, false)
	if err != nil {
		return nil, err
	}
	return plan.Routes, nil
}

// Plan runs the pipeline and reports deferred customers and failed crews.
// refresh drops memoized routes for the day before solving.
func (p *Planner) Plan(ctx context.Context, companyID string, date time.Time, refresh bool) (_ Plan, err error) {
	defer obs.Time(ctx, "planner.Plan")(&err)

	if companyID == "" {
		return Plan{}, errors.New("plan routes: company id must be non-empty")
	}
	if p.Customers == nil || p.Crews == nil {
		return Plan{}, errors.New("plan routes: customer and crew repositories are required")
	}

	day := date.Format(domain.DateLayout)
	plan := Plan{
		CompanyID:   companyID,
		Date:        day,
		Routes:      []domain.Route{},
		Deferred:    []string{},
		FailedCrews: []string{},
	}

	customers, err := p.Customers.ListActiveCustomers(ctx, companyID)
	if err != nil {
		return Plan{}, fmt.Errorf("plan routes: list customers: %w", err)
	}
	crews, err := p.Crews.ListCrews(ctx, companyID)
	if err != nil {
		return Plan{}, fmt.Errorf("plan routes: list crews: %w", err)
	}

	available := AvailableCrews(crews, date)
	if len(available) == 0 {
		log.Printf("planner: company=%s date=%s no available crews", companyID, day)
		return plan, nil
	}

	if refresh && p.Cache != nil {
		if err := p.Cache.Invalidate(ctx, companyID, day); err != nil {
			log.Printf("planner: route cache invalidate failed: %v", err)
		}
	}

	priorities := PrioritizeCustomers(customers, date, p.Thresholds)
	matched := MatchCrews(priorities, customers, available)
	plan.Deferred = append(plan.Deferred, matched.Deferred...)

	base, hasBase := p.baseLocation(ctx, companyID)

	for _, a := range matched.Assignments {
		if len(a.Customers) == 0 {
			continue
		}

		if r, ok := p.cached(ctx, companyID, a.Crew.CrewID, day, a.Customers); ok {
			plan.Routes = append(plan.Routes, r)
			continue
		}

		depot := p.FallbackDepot
		switch {
		case hasBase:
			depot = base
		case a.Crew.CurrentLocation != nil && a.Crew.CurrentLocation.Valid():
			depot = *a.Crew.CurrentLocation
		}

		route, err := p.solver().Solve(ctx, SolveRequest{
			CompanyID: companyID,
			CrewID:    a.Crew.CrewID,
			Date:      date,
			Depot:     depot,
			Customers: a.Customers,
		})
		if err != nil {
			obs.RoutesPlanned.WithLabelValues("error").Inc()
			log.Printf("planner: company=%s crew=%s skipped: %v", companyID, a.Crew.CrewID, err)
			plan.FailedCrews = append(plan.FailedCrews, a.Crew.CrewID)
			continue
		}
		obs.RoutesPlanned.WithLabelValues("ok").Inc()

		if p.Cache != nil {
			if err := p.Cache.Put(ctx, route); err != nil {
				log.Printf("planner: route cache write failed crew=%s: %v", a.Crew.CrewID, err)
			}
		}
		plan.Routes = append(plan.Routes, route)
	}

	return plan, nil
}

func (p *Planner) baseLocation(ctx context.Context, companyID string) (domain.Coordinates, bool) {
	if p.Depots == nil {
		return domain.Coordinates{}, false
	}
	loc, ok, err := p.Depots.BaseLocation(ctx, companyID)
	if err != nil {
		log.Printf("planner: base location lookup failed company=%s: %v", companyID, err)
		return domain.Coordinates{}, false
	}
	if !ok || !loc.Valid() {
		return domain.Coordinates{}, false
	}
	return loc, true
}

// cached returns a memoized route only if it covers exactly the customers
// assigned this cycle.
func (p *Planner) cached(ctx context.Context, companyID, crewID, day string, customers []domain.Customer) (domain.Route, bool) {
	if p.Cache == nil {
		return domain.Route{}, false
	}

	r, ok, err := p.Cache.Get(ctx, companyID, crewID, day)
	if err != nil {
		obs.RouteCacheLookups.WithLabelValues("error").Inc()
		log.Printf("planner: route cache read failed crew=%s: %v", crewID, err)
		return domain.Route{}, false
	}
	if !ok || !sameCustomers(r, customers) {
		obs.RouteCacheLookups.WithLabelValues("miss").Inc()
		return domain.Route{}, false
	}

	obs.RouteCacheLookups.WithLabelValues("hit").Inc()
	return r, true
}

func sameCustomers(r domain.Route, customers []domain.Customer) bool {
	if len(r.Stops) != len(customers) {
		return false
	}
	want := make(map[string]struct{}, len(customers))
	for _, c := range customers {
		want[c.ID] = struct{}{}
	}
	for _, s := range r.Stops {
		if _, ok := want[s.CustomerID]; !ok {
			return false
		}
	}
	return true
}

func (p *Planner) solver() *RouteSolver {
	if p.Solver != nil {
		return p.Solver
	}
	return &RouteSolver{Thresholds: p.Thresholds}
}
