package services

import (
	"context"
	"crew-route-service/internal/domain"
	"crew-route-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
)

// ReportKey names the breakdown document for one route.
func ReportKey(companyID, date, routeID string) string {
	return fmt.Sprintf("reports/%s/%s/%s.json", companyID, date, routeID)
}

// RouteFinished reports whether every stop is completed or skipped.
func RouteFinished(r domain.Route) bool {
	if len(r.Stops) == 0 {
		return false
	}
	for _, s := range r.Stops {
		if !s.Status.Finished() {
			return false
		}
	}
	return true
}

// ArchiveBreakdown stores tb for a finished route and returns its key.
// Unfinished routes are not archived and return an empty key.
func ArchiveBreakdown(ctx context.Context, a ports.ReportArchive, r domain.Route, tb domain.TimeBreakdown) (string, error) {
	if a == nil || !RouteFinished(r) {
		return "", nil
	}
	if r.CompanyID == "" || r.Date == "" || r.ID == "" {
		return "", errors.New("archive breakdown: route id, company and date are required")
	}

	body, err := json.Marshal(tb)
	if err != nil {
		return "", fmt.Errorf("archive breakdown: encode: %w", err)
	}
	key := ReportKey(r.CompanyID, r.Date, r.ID)
	if err := a.Put(ctx, key, body); err != nil {
		return "", fmt.Errorf("archive breakdown: %w", err)
	}
	return key, nil
}
