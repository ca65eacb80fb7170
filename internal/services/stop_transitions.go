package services

import (
	"crew-route-service/internal/domain"
	"crew-route-service/internal/ports"
	"errors"
	"fmt"
	"time"
)

// Tracker applies stop transitions and derives live snapshots from a Route.
// Every method returns new values and leaves its input untouched.
type Tracker struct {
	Clock      ports.Clock
	Thresholds Thresholds
}

func NewTracker(clock ports.Clock, th Thresholds) *Tracker {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Tracker{Clock: clock, Thresholds: th.withDefaults()}
}

func (t *Tracker) now() time.Time {
	if t.Clock == nil {
		return time.Now()
	}
	return t.Clock.Now()
}

func (t *Tracker) resolve(at time.Time) time.Time {
	if at.IsZero() {
		return t.now()
	}
	return at
}

// begin validates route and returns a writable copy plus the target stop index.
func begin(route domain.Route, customerID string) (domain.Route, int, error) {
	if err := route.Validate(); err != nil {
		return domain.Route{}, -1, err
	}
	idx, err := route.StopIndex(customerID)
	if err != nil {
		return domain.Route{}, -1, err
	}
	return route.Clone(), idx, nil
}

func transitionError(op string, s domain.RouteStop) error {
	return fmt.Errorf("%s: customer %q is %s: %w", op, s.CustomerID, s.Status, domain.ErrInvalidTransition)
}

func timestampError(op string, s domain.RouteStop, what string) error {
	return fmt.Errorf("%s: customer %q: %s: %w", op, s.CustomerID, what, domain.ErrInvalidTimestamp)
}

// RecordArrival moves a pending stop to in_progress. The first arrival of the
// day also clocks the route in. A crew works one stop at a time, so arriving
// while another stop is in progress is rejected.
func (t *Tracker) RecordArrival(route domain.Route, customerID string, at time.Time) (domain.Route, error) {
	out, idx, err := begin(route, customerID)
	if err != nil {
		return domain.Route{}, fmt.Errorf("record arrival: %w", err)
	}
	at = t.resolve(at)

	stop := &out.Stops[idx]
	if stop.Status != domain.StopPending {
		return domain.Route{}, transitionError("record arrival", *stop)
	}
	for _, other := range out.Stops {
		if other.Status == domain.StopInProgress {
			return domain.Route{}, fmt.Errorf("record arrival: customer %q: stop %q still in progress: %w",
				customerID, other.CustomerID, domain.ErrInvalidTransition)
		}
	}

	stop.Status = domain.StopInProgress
	stop.ActualArrival = &at
	if out.ClockInAt == nil {
		clockIn := at
		out.ClockInAt = &clockIn
	}

	return out, nil
}

// RecordDeparture completes an in-progress stop and derives its work and
// drive times. An open pause is closed at the departure time.
func (t *Tracker) RecordDeparture(route domain.Route, customerID string, at time.Time) (domain.Route, error) {
	out, idx, err := begin(route, customerID)
	if err != nil {
		return domain.Route{}, fmt.Errorf("record departure: %w", err)
	}
	at = t.resolve(at)

	stop := &out.Stops[idx]
	if stop.Status != domain.StopInProgress {
		return domain.Route{}, transitionError("record departure", *stop)
	}
	arrival := *stop.ActualArrival
	if at.Before(arrival) {
		return domain.Route{}, timestampError("record departure", *stop, "departure before arrival")
	}

	if stop.Paused() {
		if at.Before(*stop.PausedAt) {
			return domain.Route{}, timestampError("record departure", *stop, "departure before pause")
		}
		resumed := at
		stop.ResumedAt = &resumed
		stop.PausedMinutes += at.Sub(*stop.PausedAt).Minutes()
	}

	work := max(0, at.Sub(arrival).Minutes()-stop.PausedMinutes)
	stop.WorkTimeMinutes = &work

	if prev, ok := previousDeparture(out.Stops, idx, arrival); ok {
		drive := arrival.Sub(prev).Minutes()
		stop.DriveTimeMinutes = &drive
	}

	stop.Status = domain.StopCompleted
	stop.ActualDeparture = &at

	return out, nil
}

// previousDeparture finds the latest departure of another stop that happened
// no later than arrival.
func previousDeparture(stops []domain.RouteStop, idx int, arrival time.Time) (time.Time, bool) {
	var best time.Time
	found := false
	for i, s := range stops {
		if i == idx || s.ActualDeparture == nil || s.ActualDeparture.After(arrival) {
			continue
		}
		if !found || s.ActualDeparture.After(best) {
			best = *s.ActualDeparture
			found = true
		}
	}
	return best, found
}

// PauseStop records the start of a pause on an in-progress stop.
func (t *Tracker) PauseStop(route domain.Route, customerID string, at time.Time) (domain.Route, error) {
	out, idx, err := begin(route, customerID)
	if err != nil {
		return domain.Route{}, fmt.Errorf("pause stop: %w", err)
	}
	at = t.resolve(at)

	stop := &out.Stops[idx]
	if stop.Status != domain.StopInProgress || stop.Paused() {
		return domain.Route{}, transitionError("pause stop", *stop)
	}
	if at.Before(*stop.ActualArrival) {
		return domain.Route{}, timestampError("pause stop", *stop, "pause before arrival")
	}
	if stop.ResumedAt != nil && at.Before(*stop.ResumedAt) {
		return domain.Route{}, timestampError("pause stop", *stop, "pause before last resume")
	}

	stop.PausedAt = &at
	stop.ResumedAt = nil
	return out, nil
}

// ResumeStop closes the open pause and accumulates its length.
func (t *Tracker) ResumeStop(route domain.Route, customerID string, at time.Time) (domain.Route, error) {
	out, idx, err := begin(route, customerID)
	if err != nil {
		return domain.Route{}, fmt.Errorf("resume stop: %w", err)
	}
	at = t.resolve(at)

	stop := &out.Stops[idx]
	if stop.Status != domain.StopInProgress || !stop.Paused() {
		return domain.Route{}, transitionError("resume stop", *stop)
	}
	if at.Before(*stop.PausedAt) {
		return domain.Route{}, timestampError("resume stop", *stop, "resume before pause")
	}

	stop.ResumedAt = &at
	stop.PausedMinutes += at.Sub(*stop.PausedAt).Minutes()
	return out, nil
}

// SkipStop marks a pending stop as skipped.
func (t *Tracker) SkipStop(route domain.Route, customerID, reason string, at time.Time) (domain.Route, error) {
	out, idx, err := begin(route, customerID)
	if err != nil {
		return domain.Route{}, fmt.Errorf("skip stop: %w", err)
	}
	at = t.resolve(at)

	stop := &out.Stops[idx]
	if stop.Status != domain.StopPending {
		return domain.Route{}, transitionError("skip stop", *stop)
	}

	stop.Status = domain.StopSkipped
	stop.SkippedAt = &at
	stop.SkipReason = reason
	return out, nil
}

// ErrUnknownEvent is returned by Apply for an unrecognized event type.
var ErrUnknownEvent = errors.New("unknown route event type")

// Apply dispatches one transition by event type and describes it as an event
// stamped with the time the tracker recorded.
func (t *Tracker) Apply(route domain.Route, typ domain.RouteEventType, customerID, reason string, at time.Time) (domain.Route, domain.RouteEvent, error) {
	var (
		out domain.Route
		err error
	)
	switch typ {
	case domain.EventArrived:
		out, err = t.RecordArrival(route, customerID, at)
	case domain.EventDeparted:
		out, err = t.RecordDeparture(route, customerID, at)
	case domain.EventPaused:
		out, err = t.PauseStop(route, customerID, at)
	case domain.EventResumed:
		out, err = t.ResumeStop(route, customerID, at)
	case domain.EventSkipped:
		out, err = t.SkipStop(route, customerID, reason, at)
	default:
		return domain.Route{}, domain.RouteEvent{}, fmt.Errorf("apply %q: %w", typ, ErrUnknownEvent)
	}
	if err != nil {
		return domain.Route{}, domain.RouteEvent{}, err
	}
	return out, Event(out, customerID, typ, recordedAt(out, customerID, typ)), nil
}

// recordedAt reads back the timestamp stored for typ on customerID's stop.
func recordedAt(route domain.Route, customerID string, typ domain.RouteEventType) time.Time {
	idx, err := route.StopIndex(customerID)
	if err != nil {
		return time.Time{}
	}
	s := route.Stops[idx]

	var ts *time.Time
	switch typ {
	case domain.EventArrived:
		ts = s.ActualArrival
	case domain.EventDeparted:
		ts = s.ActualDeparture
	case domain.EventPaused:
		ts = s.PausedAt
	case domain.EventResumed:
		ts = s.ResumedAt
	case domain.EventSkipped:
		ts = s.SkippedAt
	}
	if ts == nil {
		return time.Time{}
	}
	return *ts
}

// Event describes the transition just applied to customerID on route.
func Event(route domain.Route, customerID string, typ domain.RouteEventType, at time.Time) domain.RouteEvent {
	evt := domain.RouteEvent{
		Type:       typ,
		RouteID:    route.ID,
		CompanyID:  route.CompanyID,
		CrewID:     route.CrewID,
		CustomerID: customerID,
		At:         at,
	}
	if idx, err := route.StopIndex(customerID); err == nil {
		evt.Status = route.Stops[idx].Status
	}
	return evt
}
