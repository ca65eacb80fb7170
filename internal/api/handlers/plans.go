package handlers

import (
	"crew-route-service/internal/api/dto"
	"crew-route-service/internal/domain"
	"crew-route-service/internal/ports"
	"crew-route-service/internal/services"
	"log"
	"net/http"
	"strings"
	"time"
)

type PlanHandler struct {
	Planner *services.Planner
	Clock   ports.Clock
}

// Plan runs one planning cycle for a company and date.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}

	var req dto.PlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	companyID := strings.TrimSpace(req.CompanyID)
	if companyID == "" {
		writeError(w, r, http.StatusBadRequest, "company_id is required")
		return
	}

	date := h.now()
	if req.Date != "" {
		d, err := time.ParseInLocation(domain.DateLayout, req.Date, time.UTC)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = d
	}

	plan, err := h.Planner.Plan(r.Context(), companyID, date, req.Refresh)
	if err != nil {
		log.Printf("plan routes failed: company=%s err=%v", companyID, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.PlanResponse{
		CompanyID:   plan.CompanyID,
		Date:        plan.Date,
		Routes:      plan.Routes,
		Deferred:    plan.Deferred,
		FailedCrews: plan.FailedCrews,
	})
}

func (h *PlanHandler) now() time.Time {
	if h.Clock == nil {
		return time.Now()
	}
	return h.Clock.Now()
}
