package distance

import (
	"context"
	"crew-route-service/internal/domain"
	"crew-route-service/internal/ports"
	"fmt"
	"sync"
	"time"
)

// MockPair is one directed leg for MockDistanceProvider.
type MockPair struct {
	From, To domain.Coordinates
	Miles    float64
	Minutes  float64
}

// MockDistanceProvider serves fixed legs keyed by coordinate, for tests.
// Err, when set, is returned from every call; Delay blocks each call until
// it elapses or ctx is done.
type MockDistanceProvider struct {
	m     map[string]ports.DistanceResult
	Err   error
	Delay time.Duration

	mu    sync.Mutex
	calls int
}

func NewMockDistanceProvider(pairs []MockPair) *MockDistanceProvider {
	m := make(map[string]ports.DistanceResult, len(pairs))
	for _, p := range pairs {
		m[p.From.Key()+"|"+p.To.Key()] = ports.DistanceResult{DistanceMiles: p.Miles, DurationMinutes: p.Minutes}
	}
	return &MockDistanceProvider{m: m}
}

func (p *MockDistanceProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *MockDistanceProvider) wait(ctx context.Context) error {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return p.Err
}

func (p *MockDistanceProvider) GetDistance(ctx context.Context, origin, destination domain.Coordinates) (ports.DistanceResult, error) {
	if err := p.wait(ctx); err != nil {
		return ports.DistanceResult{}, err
	}

	r, ok := p.m[origin.Key()+"|"+destination.Key()]
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("missing pair %s -> %s", origin.Key(), destination.Key())
	}
	return r, nil
}

// GetDistanceMatrix fills every off-diagonal cell from the configured legs.
// Missing legs are reported as an error.
func (p *MockDistanceProvider) GetDistanceMatrix(ctx context.Context, points []domain.Coordinates) (ports.DistanceMatrix, error) {
	if err := p.wait(ctx); err != nil {
		return ports.DistanceMatrix{}, err
	}

	m := newMatrix(len(points), ports.SourceRoad)
	for i, a := range points {
		for j, b := range points {
			if i == j {
				continue
			}
			r, ok := p.m[a.Key()+"|"+b.Key()]
			if !ok {
				return ports.DistanceMatrix{}, fmt.Errorf("missing pair %s -> %s", a.Key(), b.Key())
			}
			m.Miles[i][j] = r.DistanceMiles
			m.Minutes[i][j] = r.DurationMinutes
		}
	}
	return m, nil
}

func newMatrix(n int, source string) ports.DistanceMatrix {
	m := ports.DistanceMatrix{
		Miles:   make([][]float64, n),
		Minutes: make([][]float64, n),
		Source:  source,
	}
	for i := 0; i < n; i++ {
		m.Miles[i] = make([]float64, n)
		m.Minutes[i] = make([]float64, n)
	}
	return m
}
