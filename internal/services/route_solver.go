package services

import (
	"context"
	"crew-route-service/internal/domain"
	"crew-route-service/internal/geo"
	"crew-route-service/internal/platform/obs"
	"crew-route-service/internal/ports"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
)

const defaultDistanceTimeout = 5 * time.Second

// RouteSolver turns a crew's candidate customers into an ordered Route.
type RouteSolver struct {
	Distances  ports.DistanceMatrixProvider
	Timeout    time.Duration
	Thresholds Thresholds
	Clock      ports.Clock
	NewID      func() string
}

type SolveRequest struct {
	CompanyID string
	CrewID    string
	Date      time.Time
	Depot     domain.Coordinates
	Customers []domain.Customer
}

// Solve orders req.Customers into a closed tour from req.Depot.
//
// The distance matrix is fetched under a timeout; any failure falls back to
// great-circle distances and marks the route Degraded.
func (s *RouteSolver) Solve(ctx context.Context, req SolveRequest) (_ domain.Route, err error) {
	defer obs.Time(ctx, "solver.Solve")(&err)

	if !req.Depot.Valid() {
		return domain.Route{}, fmt.Errorf("solve route: crew %s: invalid depot %+v", req.CrewID, req.Depot)
	}
	for _, c := range req.Customers {
		if !c.Location.Valid() {
			return domain.Route{}, fmt.Errorf("solve route: customer %s: invalid location %+v", c.ID, c.Location)
		}
	}

	th := s.Thresholds.withDefaults()
	route := domain.Route{
		ID:        s.newID(),
		CompanyID: req.CompanyID,
		CrewID:    req.CrewID,
		Date:      req.Date.Format(domain.DateLayout),
		Depot:     req.Depot,
		Stops:     []domain.RouteStop{},
		CreatedAt: s.now(),
		Algorithm: AlgorithmNone,
	}

	if len(req.Customers) == 0 {
		return route, nil
	}

	points := make([]domain.Coordinates, 0, 1+len(req.Customers))
	points = append(points, req.Depot)
	for _, c := range req.Customers {
		points = append(points, c.Location)
	}

	matrix := s.matrix(ctx, req.CrewID, points, th)
	cost, unreachable := sanitizeCosts(matrix.Miles, th.UnreachablePenaltyMiles)
	if unreachable > 0 {
		log.Printf("solver: crew=%s unreachable_pairs=%d penalty_miles=%.0f", req.CrewID, unreachable, th.UnreachablePenaltyMiles)
	}

	start := time.Now()
	tour := SolveTour(cost, th.ExactSolverMaxStops, th.MaxTwoOptPasses)
	obs.SolverDuration.WithLabelValues(tour.Algorithm).Observe(time.Since(start).Seconds())

	route.Algorithm = tour.Algorithm
	route.DistanceSource = matrix.Source
	route.Degraded = matrix.Source != ports.SourceRoad
	route.Optimized = true

	var travelMinutes float64
	prev := 0
	for seq, node := range tour.Order {
		c := req.Customers[node-1]
		miles, minutes := legEstimate(matrix, points, prev, node, th)

		route.Stops = append(route.Stops, domain.RouteStop{
			Sequence:           seq + 1,
			CustomerID:         c.ID,
			CustomerName:       c.Name,
			Location:           c.Location,
			ServiceTypes:       c.ServiceTypes(),
			Status:             domain.StopPending,
			LegDistanceMiles:   miles,
			LegDurationMinutes: minutes,
		})
		route.TotalDistanceMiles += miles
		travelMinutes += minutes
		prev = node
	}

	backMiles, backMinutes := legEstimate(matrix, points, prev, 0, th)
	route.TotalDistanceMiles += backMiles
	travelMinutes += backMinutes

	route.TotalDurationMinutes = travelMinutes + th.ServiceMinutesPerStop*float64(len(route.Stops))

	return route, nil
}

// matrix fetches road distances, falling back to great-circle estimates.
func (s *RouteSolver) matrix(ctx context.Context, crewID string, points []domain.Coordinates, th Thresholds) ports.DistanceMatrix {
	if s.Distances == nil {
		return HaversineMatrix(points, th.MinutesPerMile)
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultDistanceTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	m, err := s.Distances.GetDistanceMatrix(ctx, points)
	if err == nil {
		err = checkMatrix(m, len(points))
	}
	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		obs.DistanceFallbacks.WithLabelValues(reason).Inc()
		log.Printf("solver: crew=%s distance matrix unavailable, using haversine: %v", crewID, err)
		return HaversineMatrix(points, th.MinutesPerMile)
	}

	if m.Source == "" {
		m.Source = ports.SourceRoad
	}
	return m
}

func checkMatrix(m ports.DistanceMatrix, n int) error {
	if len(m.Miles) != n {
		return fmt.Errorf("distance matrix: got %d rows, want %d", len(m.Miles), n)
	}
	for i, row := range m.Miles {
		if len(row) != n {
			return fmt.Errorf("distance matrix: row %d has %d columns, want %d", i, len(row), n)
		}
	}
	if m.Minutes != nil && len(m.Minutes) != n {
		return fmt.Errorf("distance matrix: got %d duration rows, want %d", len(m.Minutes), n)
	}
	return nil
}

// legEstimate reads one leg from the matrix, substituting the great-circle
// estimate for unreachable cells so reported totals stay meaningful.
func legEstimate(m ports.DistanceMatrix, points []domain.Coordinates, from, to int, th Thresholds) (float64, float64) {
	crow := geo.HaversineMiles(points[from].Point(), points[to].Point())

	miles := m.Miles[from][to]
	if !usable(miles) {
		miles = crow
	}

	minutes := math.NaN()
	if m.Minutes != nil && len(m.Minutes[from]) > to {
		minutes = m.Minutes[from][to]
	}
	if !usable(minutes) {
		minutes = geo.TravelMinutes(miles, th.MinutesPerMile)
	}

	return miles, minutes
}

func usable(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 }

// HaversineMatrix builds a great-circle matrix with durations at minutesPerMile.
func HaversineMatrix(points []domain.Coordinates, minutesPerMile float64) ports.DistanceMatrix {
	n := len(points)
	miles := make([][]float64, n)
	minutes := make([][]float64, n)
	for i := range points {
		miles[i] = make([]float64, n)
		minutes[i] = make([]float64, n)
		for j := range points {
			if i == j {
				continue
			}
			d := geo.HaversineMiles(points[i].Point(), points[j].Point())
			miles[i][j] = d
			minutes[i][j] = geo.TravelMinutes(d, minutesPerMile)
		}
	}
	return ports.DistanceMatrix{Miles: miles, Minutes: minutes, Source: ports.SourceHaversine}
}

func (s *RouteSolver) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *RouteSolver) newID() string {
	if s.NewID == nil {
		return uuid.NewString()
	}
	return s.NewID()
}
