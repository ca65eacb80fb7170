package api

import (
	"crew-route-service/internal/api/handlers"
	"crew-route-service/internal/platform/obs"
	"crew-route-service/internal/ports"
	"crew-route-service/internal/services"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP surface needs. Publisher and Archive
// may be nil.
type Deps struct {
	Planner   *services.Planner
	Tracker   *services.Tracker
	Publisher ports.RouteEventPublisher
	Archive   ports.ReportArchive
	Clock     ports.Clock
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	obs.RegisterDefault()

	mux := http.NewServeMux()

	planHandler := &handlers.PlanHandler{Planner: d.Planner, Clock: d.Clock}
	routeHandler := &handlers.RouteHandler{
		Tracker:   d.Tracker,
		Publisher: d.Publisher,
		Archive:   d.Archive,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/plans", planHandler.Plan)
	mux.HandleFunc("/routes/events", routeHandler.Event)
	mux.HandleFunc("/routes/progress", routeHandler.Progress)
	mux.HandleFunc("/routes/schedule", routeHandler.Schedule)
	mux.HandleFunc("/routes/time-breakdown", routeHandler.TimeBreakdown)
	mux.Handle("/metrics", promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{}))

	return requestIDMiddleware(loggingMiddleware(metricsMiddleware(mux)))
}
