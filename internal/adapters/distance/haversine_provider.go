package distance

import (
	"context"
	"crew-route-service/internal/domain"
	"crew-route-service/internal/geo"
	"crew-route-service/internal/ports"
)

// HaversineProvider estimates travel from great-circle distance at a fixed
// minutes-per-mile rate. It never fails and needs no network.
type HaversineProvider struct {
	MinutesPerMile float64
}

func NewHaversineProvider(minutesPerMile float64) *HaversineProvider {
	if minutesPerMile <= 0 {
		minutesPerMile = 2
	}
	return &HaversineProvider{MinutesPerMile: minutesPerMile}
}

func (h *HaversineProvider) GetDistance(ctx context.Context, origin, destination domain.Coordinates) (ports.DistanceResult, error) {
	miles := geo.HaversineMiles(origin.Point(), destination.Point())
	return ports.DistanceResult{
		DistanceMiles:   miles,
		DurationMinutes: geo.TravelMinutes(miles, h.MinutesPerMile),
	}, nil
}

func (h *HaversineProvider) GetDistanceMatrix(ctx context.Context, points []domain.Coordinates) (ports.DistanceMatrix, error) {
	m := newMatrix(len(points), ports.SourceHaversine)
	for i, a := range points {
		for j, b := range points {
			if i == j {
				continue
			}
			miles := geo.HaversineMiles(a.Point(), b.Point())
			m.Miles[i][j] = miles
			m.Minutes[i][j] = geo.TravelMinutes(miles, h.MinutesPerMile)
		}
	}
	return m, nil
}
