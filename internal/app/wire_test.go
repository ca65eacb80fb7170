package app

import (
	"context"
	"crew-route-service/internal/adapters/archive"
	"crew-route-service/internal/adapters/cache"
	"crew-route-service/internal/adapters/distance"
	"crew-route-service/internal/adapters/events"
	"crew-route-service/internal/config"
	"crew-route-service/internal/services"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *config.Config {
	return &config.Config{
		DistanceTimeout: 3 * time.Second,
		RouteCacheTTL:   time.Hour,
		Thresholds:      services.DefaultThresholds(),
		ORS:             config.ORS{BaseURL: "http://ors.local", Profile: "driving-hgv", RateLimit: 2, Burst: 2},
	}
}

func TestDistanceProviderSelection(t *testing.T) {
	cfg := baseConfig()

	p, err := DistanceProvider(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &distance.HaversineProvider{}, p)

	cfg.ORS.APIKey = "key"
	p, err = DistanceProvider(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &distance.ORSMatrixProvider{}, p)
}

func TestSolverUsesConfig(t *testing.T) {
	cfg := baseConfig()
	s := Solver(cfg, distance.NewHaversineProvider(2), nil)

	assert.Equal(t, 3*time.Second, s.Timeout)
	assert.Equal(t, cfg.Thresholds, s.Thresholds)
}

func TestRouteCacheAndPublisherSelection(t *testing.T) {
	var closers Closers
	cfg := baseConfig()

	rc, err := RouteCache(cfg, &closers)
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryRouteCache{}, rc)

	pub, err := Publisher(cfg, &closers)
	require.NoError(t, err)
	assert.IsType(t, events.NopPublisher{}, pub)
	assert.Empty(t, closers)

	mr := miniredis.RunT(t)
	cfg.RedisURL = "redis://" + mr.Addr()

	rc, err = RouteCache(cfg, &closers)
	require.NoError(t, err)
	assert.IsType(t, &cache.RedisRouteCache{}, rc)

	pub, err = Publisher(cfg, &closers)
	require.NoError(t, err)
	assert.IsType(t, &events.RedisPublisher{}, pub)

	assert.Len(t, closers, 2)
	assert.NoError(t, closers.Close())

	cfg.RedisURL = "not a url"
	_, err = RouteCache(cfg, &closers)
	assert.Error(t, err)
}

func TestArchiveSelection(t *testing.T) {
	cfg := baseConfig()

	a, err := Archive(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, a)

	cfg.Archive.Dir = t.TempDir()
	a, err = Archive(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &archive.FileArchive{}, a)
}

func TestClosersJoinErrors(t *testing.T) {
	var order []int
	boom := errors.New("boom")
	c := Closers{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return boom },
	}

	assert.ErrorIs(t, c.Close(), boom)
	assert.Equal(t, []int{2, 1}, order)
}
