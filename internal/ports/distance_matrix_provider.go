package ports

import (
	"context"
	"crew-route-service/internal/domain"
)

const (
	SourceRoad      = "road"
	SourceHaversine = "haversine"
)

// DistanceMatrix holds pairwise travel estimates for an ordered list of points.
// A cell of +Inf or NaN marks an unreachable pair.
type DistanceMatrix struct {
	Miles   [][]float64
	Minutes [][]float64
	Source  string
}

// Size is the number of points the matrix covers.
func (m DistanceMatrix) Size() int { return len(m.Miles) }

// DistanceMatrixProvider returns a full pairwise matrix for the given points.
type DistanceMatrixProvider interface {
	GetDistanceMatrix(ctx context.Context, points []domain.Coordinates) (DistanceMatrix, error)
}

// DistanceCache stores road distances keyed by origin and destination coordinate keys.
type DistanceCache interface {
	GetMany(ctx context.Context, origin string, destinations []string) (map[string]DistanceResult, error)
	PutMany(ctx context.Context, origin string, results map[string]DistanceResult) error
}
