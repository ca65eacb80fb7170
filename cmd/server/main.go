package main

import (
	"context"
	"crew-route-service/internal/adapters/cache"
	"crew-route-service/internal/adapters/repositories"
	"crew-route-service/internal/api"
	"crew-route-service/internal/app"
	"crew-route-service/internal/config"
	"crew-route-service/internal/platform/db"
	"crew-route-service/internal/platform/obs"
	"crew-route-service/internal/ports"
	"crew-route-service/internal/services"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, ORS, Redis, Kafka, S3) behind ports and starts the HTTP server.
func main() {
	configPath := flag.String("config", "", "optional config file (yaml, json or toml)")
	seed := flag.Bool("seed", false, "load SEED_PATH into the database on startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs.RegisterDefault()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := initAndSeed(ctx, conn, cfg.SeedPath, *seed); err != nil {
		log.Fatal(err)
	}

	var closers app.Closers
	defer func() {
		if err := closers.Close(); err != nil {
			log.Printf("shutdown: close adapters: %v", err)
		}
	}()

	// ORS provider uses the Postgres distance cache to avoid repeated matrix calls.
	provider, err := app.DistanceProvider(cfg, cache.NewSQLDistanceCache(conn))
	if err != nil {
		log.Fatal(err)
	}
	routeCache, err := app.RouteCache(cfg, &closers)
	if err != nil {
		log.Fatal(err)
	}
	publisher, err := app.Publisher(cfg, &closers)
	if err != nil {
		log.Fatal(err)
	}
	reports, err := app.Archive(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	clock := ports.SystemClock{}
	planner := &services.Planner{
		Customers:     repositories.NewPostgresCustomerRepository(conn),
		Crews:         repositories.NewPostgresCrewRepository(conn),
		Depots:        repositories.NewPostgresCompanyRepository(conn),
		Solver:        app.Solver(cfg, provider, clock),
		Cache:         routeCache,
		FallbackDepot: cfg.FallbackDepot(),
		Thresholds:    cfg.Thresholds,
	}

	router := api.NewRouter(api.Deps{
		Planner:   planner,
		Tracker:   services.NewTracker(clock, cfg.Thresholds),
		Publisher: publisher,
		Archive:   reports,
		Clock:     clock,
	})

	// Timeouts are tuned for cold-cache route planning (external API latency).
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("Server listening addr=:%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Println("Server stopped")
}

func initAndSeed(ctx context.Context, conn *sql.DB, seedPath string, seed bool) error {
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	if !seed {
		return nil
	}

	s, err := repositories.LoadSeed(seedPath)
	if err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	if err := repositories.SeedDatabase(ctx, conn, s); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	return nil
}
