// Package app builds concrete adapters from configuration. It is shared by
// the HTTP server and the CLI.
package app

import (
	"context"
	"crew-route-service/internal/adapters/archive"
	"crew-route-service/internal/adapters/cache"
	"crew-route-service/internal/adapters/distance"
	"crew-route-service/internal/adapters/events"
	"crew-route-service/internal/config"
	"crew-route-service/internal/ports"
	"crew-route-service/internal/services"
	"errors"
	"log"
	"strings"
)

// Closers releases adapter resources in reverse order of acquisition.
type Closers []func() error

func (c *Closers) Add(fn func() error) { *c = append(*c, fn) }

func (c Closers) Close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		errs = append(errs, c[i]())
	}
	return errors.Join(errs...)
}

// DistanceProvider returns the ORS matrix provider when an API key is set and
// the great-circle estimator otherwise. dc may be nil.
func DistanceProvider(cfg *config.Config, dc ports.DistanceCache) (ports.Distances, error) {
	if strings.TrimSpace(cfg.ORS.APIKey) == "" {
		log.Println("ORS_API_KEY not set; using haversine distances")
		return distance.NewHaversineProvider(cfg.Thresholds.MinutesPerMile), nil
	}

	opts := []distance.ORSOption{
		distance.WithBaseURL(cfg.ORS.BaseURL),
		distance.WithProfile(cfg.ORS.Profile),
		distance.WithRateLimit(cfg.ORS.RateLimit, cfg.ORS.Burst),
	}
	if dc != nil {
		opts = append(opts, distance.WithCache(dc))
	}
	ors, err := distance.NewORSMatrixProvider(cfg.ORS.APIKey, opts...)
	if err != nil {
		return nil, err
	}
	return ors, nil
}

func Solver(cfg *config.Config, provider ports.DistanceMatrixProvider, clock ports.Clock) *services.RouteSolver {
	return &services.RouteSolver{
		Distances:  provider,
		Timeout:    cfg.DistanceTimeout,
		Thresholds: cfg.Thresholds,
		Clock:      clock,
	}
}

// RouteCache uses Redis when REDIS_URL is set, else an in-process cache.
func RouteCache(cfg *config.Config, closers *Closers) (ports.RouteCache, error) {
	if cfg.RedisURL == "" {
		return cache.NewMemoryRouteCache(cfg.RouteCacheTTL), nil
	}
	rc, err := cache.NewRedisRouteCacheFromURL(cfg.RedisURL, cfg.RouteCacheTTL)
	if err != nil {
		return nil, err
	}
	closers.Add(rc.Close)
	return rc, nil
}

// Publisher fans route events out to every configured sink.
func Publisher(cfg *config.Config, closers *Closers) (ports.RouteEventPublisher, error) {
	var sinks events.Multi

	if cfg.RedisURL != "" {
		rp, err := events.NewRedisPublisherFromURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		closers.Add(rp.Close)
		sinks = append(sinks, rp)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, err
		}
		closers.Add(kp.Close)
		sinks = append(sinks, kp)
	}

	switch len(sinks) {
	case 0:
		return events.NopPublisher{}, nil
	case 1:
		return sinks[0], nil
	}
	return sinks, nil
}

// Archive returns an S3 archive when a bucket is configured, a directory
// archive when a dir is, and nil when neither is.
func Archive(ctx context.Context, cfg *config.Config) (ports.ReportArchive, error) {
	switch {
	case cfg.Archive.Bucket != "":
		s3a, err := archive.NewS3Archive(ctx, cfg.Archive.Region, cfg.Archive.Bucket, cfg.Archive.Prefix)
		if err != nil {
			return nil, err
		}
		return s3a, nil
	case cfg.Archive.Dir != "":
		return archive.NewFileArchive(cfg.Archive.Dir), nil
	}
	return nil, nil
}
