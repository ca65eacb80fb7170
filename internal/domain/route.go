package domain

import (
	"fmt"
	"time"
)

type StopStatus string

const (
	StopPending    StopStatus = "pending"
	StopInProgress StopStatus = "in_progress"
	StopCompleted  StopStatus = "completed"
	StopSkipped    StopStatus = "skipped"
)

// Finished is true for the terminal states.
func (s StopStatus) Finished() bool { return s == StopCompleted || s == StopSkipped }

// RouteStop is one customer visit within a Route.
type RouteStop struct {
	Sequence           int         `json:"sequence"`
	CustomerID         string      `json:"customer_id"`
	CustomerName       string      `json:"customer_name,omitempty"`
	Location           Coordinates `json:"location"`
	ServiceTypes       []string    `json:"service_types,omitempty"`
	Status             StopStatus  `json:"status"`
	LegDistanceMiles   float64     `json:"leg_distance_miles"`
	LegDurationMinutes float64     `json:"leg_duration_minutes"`

	ActualArrival   *time.Time `json:"actual_arrival,omitempty"`
	ActualDeparture *time.Time `json:"actual_departure,omitempty"`
	PausedAt        *time.Time `json:"paused_at,omitempty"`
	ResumedAt       *time.Time `json:"resumed_at,omitempty"`
	PausedMinutes   float64    `json:"paused_minutes,omitempty"`
	SkippedAt       *time.Time `json:"skipped_at,omitempty"`
	SkipReason      string     `json:"skip_reason,omitempty"`

	DriveTimeMinutes *float64 `json:"drive_time_minutes,omitempty"`
	WorkTimeMinutes  *float64 `json:"work_time_minutes,omitempty"`
}

// Paused reports an open pause (paused and not yet resumed).
func (s RouteStop) Paused() bool {
	return s.PausedAt != nil && (s.ResumedAt == nil || s.ResumedAt.Before(*s.PausedAt))
}

// Route is one crew's ordered visit plan for one day.
type Route struct {
	ID                   string      `json:"id"`
	CompanyID            string      `json:"company_id"`
	CrewID               string      `json:"crew_id"`
	Date                 string      `json:"date"`
	Depot                Coordinates `json:"depot"`
	Stops                []RouteStop `json:"stops"`
	TotalDistanceMiles   float64     `json:"total_distance_miles"`
	TotalDurationMinutes float64     `json:"total_duration_minutes"`
	ClockInAt            *time.Time  `json:"clock_in_at,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`

	Algorithm      string `json:"algorithm"`
	DistanceSource string `json:"distance_source"`
	Degraded       bool   `json:"degraded"`
	Optimized      bool   `json:"optimized"`
}

// DateLayout is the civil-date format used for Route.Date.
const DateLayout = "2006-01-02"

// Clone returns a copy whose Stops slice can be modified independently.
// Timestamp pointers are shared; they are never written through.
func (r Route) Clone() Route {
	out := r
	out.Stops = make([]RouteStop, len(r.Stops))
	for i, s := range r.Stops {
		if s.ServiceTypes != nil {
			s.ServiceTypes = append([]string(nil), s.ServiceTypes...)
		}
		out.Stops[i] = s
	}
	return out
}

// StopIndex finds a stop by customer id.
func (r Route) StopIndex(customerID string) (int, error) {
	for i := range r.Stops {
		if r.Stops[i].CustomerID == customerID {
			return i, nil
		}
	}
	return -1, fmt.Errorf("route %s: customer %q: %w", r.ID, customerID, ErrStopNotFound)
}

// Counts returns completed and skipped stop counts.
func (r Route) Counts() (completed, skipped int) {
	for _, s := range r.Stops {
		switch s.Status {
		case StopCompleted:
			completed++
		case StopSkipped:
			skipped++
		}
	}
	return completed, skipped
}

// ValidateStructure checks stop identity and status values only. Readers
// that tolerate bad timestamps use it in place of Validate.
func (r Route) ValidateStructure() error {
	seen := make(map[string]struct{}, len(r.Stops))
	for _, s := range r.Stops {
		if _, ok := seen[s.CustomerID]; ok {
			return fmt.Errorf("%w: duplicate stop for customer %q", ErrInconsistentRoute, s.CustomerID)
		}
		seen[s.CustomerID] = struct{}{}

		switch s.Status {
		case StopPending, StopInProgress, StopCompleted, StopSkipped:
		default:
			return fmt.Errorf("%w: stop %q has unknown status %q", ErrInconsistentRoute, s.CustomerID, s.Status)
		}
	}
	return nil
}

// Validate rejects routes whose stop state cannot have been produced by legal transitions.
func (r Route) Validate() error {
	if err := r.ValidateStructure(); err != nil {
		return err
	}

	inProgress := ""
	for _, s := range r.Stops {
		if err := s.validateTimestamps(); err != nil {
			return err
		}
		if s.Status == StopInProgress {
			if inProgress != "" {
				return fmt.Errorf("%w: stops %q and %q are both in progress", ErrInconsistentRoute, inProgress, s.CustomerID)
			}
			inProgress = s.CustomerID
		}
	}
	return nil
}

func (s RouteStop) validateTimestamps() error {
	bad := func(what string) error {
		return fmt.Errorf("%w: stop %q %s", ErrInconsistentRoute, s.CustomerID, what)
	}

	if s.ActualDeparture != nil && s.Status != StopCompleted {
		return bad("has a departure but is " + string(s.Status))
	}

	switch s.Status {
	case StopPending, StopSkipped:
		if s.ActualArrival != nil || s.PausedAt != nil || s.ResumedAt != nil {
			return bad("has visit timestamps but is " + string(s.Status))
		}
		if s.Status == StopPending && s.SkippedAt != nil {
			return bad("has a skip time but is pending")
		}
	case StopInProgress:
		if s.ActualArrival == nil {
			return bad("in progress without arrival")
		}
	case StopCompleted:
		if s.ActualArrival == nil {
			return bad("has departure without arrival")
		}
		if s.ActualDeparture == nil {
			return bad("completed without departure")
		}
		if s.ActualDeparture.Before(*s.ActualArrival) {
			return bad("departs before it arrives")
		}
	}
	return nil
}

type RouteEventType string

const (
	EventArrived  RouteEventType = "arrived"
	EventDeparted RouteEventType = "departed"
	EventPaused   RouteEventType = "paused"
	EventResumed  RouteEventType = "resumed"
	EventSkipped  RouteEventType = "skipped"
)

// RouteEvent describes one applied stop transition.
type RouteEvent struct {
	Type       RouteEventType `json:"type"`
	RouteID    string         `json:"route_id"`
	CompanyID  string         `json:"company_id"`
	CrewID     string         `json:"crew_id"`
	CustomerID string         `json:"customer_id"`
	Status     StopStatus     `json:"status"`
	At         time.Time      `json:"at"`
}
