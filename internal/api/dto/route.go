package dto

import (
	"crew-route-service/internal/domain"
	"time"
)

// StopEventRequest applies one transition to the route carried in the body.
type StopEventRequest struct {
	Route      domain.Route          `json:"route"`
	Type       domain.RouteEventType `json:"type"`
	CustomerID string                `json:"customer_id"`
	At         *time.Time            `json:"at"`
	Reason     string                `json:"reason"`
}

type StopEventResponse struct {
	Route domain.Route      `json:"route"`
	Event domain.RouteEvent `json:"event"`
}

type ProgressRequest struct {
	Route    domain.Route        `json:"route"`
	Location *domain.Coordinates `json:"location"`
}

type ScheduleRequest struct {
	Route domain.Route `json:"route"`
	Now   *time.Time   `json:"now"`
}

type TimeBreakdownRequest struct {
	Route domain.Route `json:"route"`
}

type TimeBreakdownResponse struct {
	domain.TimeBreakdown
	ArchivedKey string `json:"archived_key,omitempty"`
}
