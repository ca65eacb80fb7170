package ports

import (
	"context"
	"crew-route-service/internal/domain"
)

// DistanceResult is a point-to-point travel estimate.
type DistanceResult struct {
	DistanceMiles   float64
	DurationMinutes float64
}

// DistanceProvider returns point-to-point distance/duration.
// Failure is reported as an error, never as a zero result.
type DistanceProvider interface {
	GetDistance(ctx context.Context, origin, destination domain.Coordinates) (DistanceResult, error)
}

// Distances answers both point-to-point and matrix queries.
type Distances interface {
	DistanceProvider
	DistanceMatrixProvider
}
