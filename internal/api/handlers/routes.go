package handlers

import (
	"crew-route-service/internal/api/dto"
	"crew-route-service/internal/platform/obs"
	"crew-route-service/internal/ports"
	"crew-route-service/internal/services"
	"log"
	"net/http"
	"strings"
	"time"
)

// RouteHandler exposes the tracker. Routes travel in the request body; the
// service keeps no route state of its own.
type RouteHandler struct {
	Tracker   *services.Tracker
	Publisher ports.RouteEventPublisher
	Archive   ports.ReportArchive
}

// Event applies an arrival, departure, pause, resume or skip and returns the
// updated route.
func (h *RouteHandler) Event(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}

	var req dto.StopEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		writeError(w, r, http.StatusBadRequest, "customer_id is required")
		return
	}

	var at time.Time
	if req.At != nil {
		at = *req.At
	}

	route, evt, err := h.Tracker.Apply(req.Route, req.Type, customerID, req.Reason, at)
	if err != nil {
		writeTrackerError(w, r, err)
		return
	}
	obs.StopEvents.WithLabelValues(string(req.Type)).Inc()

	if h.Publisher != nil {
		// The transition already happened; a lost notification is not a client error.
		if err := h.Publisher.Publish(r.Context(), evt); err != nil {
			log.Printf("publish route event failed: route=%s type=%s err=%v", route.ID, evt.Type, err)
		}
	}

	writeJSON(w, r, http.StatusOK, dto.StopEventResponse{Route: route, Event: evt})
}

func (h *RouteHandler) Progress(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}

	var req dto.ProgressRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Location != nil && !req.Location.Valid() {
		writeError(w, r, http.StatusBadRequest, "location is out of range")
		return
	}

	p, err := h.Tracker.GetProgress(req.Route, req.Location)
	if err != nil {
		writeTrackerError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

func (h *RouteHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}

	var req dto.ScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var now time.Time
	if req.Now != nil {
		now = *req.Now
	}

	st, err := h.Tracker.GetScheduleStatus(req.Route, now)
	if err != nil {
		writeTrackerError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

// TimeBreakdown classifies recorded time. Finished routes are also archived
// when an archive is configured.
func (h *RouteHandler) TimeBreakdown(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}

	var req dto.TimeBreakdownRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tb, err := h.Tracker.GetTimeBreakdown(req.Route)
	if err != nil {
		writeTrackerError(w, r, err)
		return
	}

	res := dto.TimeBreakdownResponse{TimeBreakdown: tb}
	key, err := services.ArchiveBreakdown(r.Context(), h.Archive, req.Route, tb)
	if err != nil {
		log.Printf("archive breakdown failed: route=%s err=%v", req.Route.ID, err)
	}
	res.ArchivedKey = key

	writeJSON(w, r, http.StatusOK, res)
}
