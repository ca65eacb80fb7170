package services

import (
	"crew-route-service/internal/domain"
	"reflect"
	"testing"
	"time"
)

// completeStop marks stop i as visited between arr and dep and clocks the
// route in at the earliest arrival.
func completeStop(r *domain.Route, i int, arr, dep time.Time) {
	s := &r.Stops[i]
	a, d := arr, dep
	s.ActualArrival, s.ActualDeparture = &a, &d
	s.Status = domain.StopCompleted
	work := dep.Sub(arr).Minutes()
	s.WorkTimeMinutes = &work
	if r.ClockInAt == nil || arr.Before(*r.ClockInAt) {
		in := arr
		r.ClockInAt = &in
	}
}

func TestProgressNotStarted(t *testing.T) {
	p, err := newTestTracker(clockAt(8, 0)).GetProgress(plannedRoute(4, 120), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != domain.ProgressNotStarted || p.OverallProgress != 0 {
		t.Fatalf("progress = %+v", p)
	}
	if p.CurrentStop == nil || p.CurrentStop.CustomerID != "a" || p.NextStop.CustomerID != "b" {
		t.Fatalf("current/next = %+v / %+v", p.CurrentStop, p.NextStop)
	}
	if p.AverageMinutesPerStop != 30 {
		t.Fatalf("planned average = %v, want 30", p.AverageMinutesPerStop)
	}
}

func TestProgressIsIdempotent(t *testing.T) {
	r := plannedRoute(4, 120)
	completeStop(&r, 0, clockAt(8, 0), clockAt(8, 30))
	tr := newTestTracker(clockAt(9, 0))

	a, _ := tr.GetProgress(r, nil)
	b, _ := tr.GetProgress(r, nil)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("repeated calls differ:\n%+v\n%+v", a, b)
	}
}

func TestProgressIsMonotonicAcrossTransitions(t *testing.T) {
	r := plannedRoute(3, 180)
	last := -1.0

	steps := []struct {
		typ      domain.RouteEventType
		customer string
		at       time.Time
	}{
		{domain.EventArrived, "a", clockAt(8, 0)},
		{domain.EventDeparted, "a", clockAt(8, 40)},
		{domain.EventSkipped, "b", clockAt(8, 45)},
		{domain.EventArrived, "c", clockAt(9, 0)},
		{domain.EventDeparted, "c", clockAt(9, 30)},
	}

	for i, st := range steps {
		tr := newTestTracker(st.at)
		next, _, err := tr.Apply(r, st.typ, st.customer, "closed", st.at)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		r = next

		p, err := tr.GetProgress(r, nil)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if p.OverallProgress < last {
			t.Fatalf("step %d: progress fell from %.2f to %.2f", i, last, p.OverallProgress)
		}
		last = p.OverallProgress
	}

	p, _ := newTestTracker(clockAt(9, 30)).GetProgress(r, nil)
	if p.Status != domain.ProgressCompleted || p.StopProgress != 1 || p.SkippedStops != 1 {
		t.Fatalf("final progress = %+v", p)
	}
	if p.EstimatedCompletion == nil || !p.EstimatedCompletion.Equal(clockAt(9, 30)) {
		t.Fatalf("completion = %v, want last departure", p.EstimatedCompletion)
	}
}

func TestProgressCurrentPrefersInProgressStop(t *testing.T) {
	r := plannedRoute(4, 120)
	completeStop(&r, 0, clockAt(8, 0), clockAt(8, 20))
	arr := clockAt(8, 50)
	r.Stops[2].Status = domain.StopInProgress
	r.Stops[2].ActualArrival = &arr

	// Standing next to stop b, but c is the one being worked.
	loc := r.Stops[1].Location
	p, err := newTestTracker(clockAt(9, 0)).GetProgress(r, &loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.CurrentStop.CustomerID != "c" || p.NextStop.CustomerID != "d" {
		t.Fatalf("current/next = %s/%s, want c/d", p.CurrentStop.CustomerID, p.NextStop.CustomerID)
	}
}

func TestProgressNearestStopWhenIdle(t *testing.T) {
	r := plannedRoute(4, 120)
	completeStop(&r, 0, clockAt(8, 0), clockAt(8, 20))

	loc := r.Stops[3].Location
	p, _ := newTestTracker(clockAt(8, 30)).GetProgress(r, &loc)
	if p.CurrentStop.CustomerID != "d" || p.NextStop != nil {
		t.Fatalf("current = %+v next = %+v", p.CurrentStop, p.NextStop)
	}
	if p.DistanceTraveledMiles <= 1 {
		t.Fatalf("distance should include the leg to the crew location, got %v", p.DistanceTraveledMiles)
	}
}

func TestProgressDelayed(t *testing.T) {
	r := plannedRoute(4, 100)
	completeStop(&r, 0, clockAt(8, 0), clockAt(8, 30))

	p, _ := newTestTracker(clockAt(9, 30)).GetProgress(r, nil)
	// time 0.9 * 4 stops = 3.6 expected vs 1 done, at 90 min per stop.
	if p.Status != domain.ProgressDelayed || p.OnSchedule {
		t.Fatalf("status = %s on_schedule=%v", p.Status, p.OnSchedule)
	}
	if p.DelayMinutes < 233.9 || p.DelayMinutes > 234.1 {
		t.Fatalf("delay = %v, want 234", p.DelayMinutes)
	}
}

func TestProgressEmptyRoute(t *testing.T) {
	p, err := newTestTracker(clockAt(8, 0)).GetProgress(plannedRoute(0, 0), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.OverallProgress != 0 || p.CurrentStop != nil || p.DelayMinutes != 0 {
		t.Fatalf("progress = %+v", p)
	}
}

func TestProgressHeadingToCurrentStop(t *testing.T) {
	r := plannedRoute(4, 120)
	completeStop(&r, 0, clockAt(8, 0), clockAt(8, 20))

	// West of every stop on the same parallel, so b is nearest and due east.
	loc := domain.Coordinates{Lon: depot.Lon - 0.05, Lat: depot.Lat}
	p, _ := newTestTracker(clockAt(8, 30)).GetProgress(r, &loc)

	if p.CurrentStop.CustomerID != "b" {
		t.Fatalf("current = %s, want b", p.CurrentStop.CustomerID)
	}
	if p.HeadingToCurrentStop != "E" || p.MilesToCurrentStop <= 0 {
		t.Fatalf("heading = %q miles = %v", p.HeadingToCurrentStop, p.MilesToCurrentStop)
	}

	p, _ = newTestTracker(clockAt(8, 30)).GetProgress(r, nil)
	if p.HeadingToCurrentStop != "" || p.MilesToCurrentStop != 0 {
		t.Fatalf("no location should leave heading empty, got %q", p.HeadingToCurrentStop)
	}
}
