package services

import (
	"cmp"
	"crew-route-service/internal/domain"
	"crew-route-service/internal/geo"
	"fmt"
	"math"
	"slices"
)

// GetTimeBreakdown splits a route's recorded time into drive, work, break and
// idle buckets. Bad timestamps are counted as unclassified, not rejected.
func (t *Tracker) GetTimeBreakdown(route domain.Route) (domain.TimeBreakdown, error) {
	if err := route.ValidateStructure(); err != nil {
		return domain.TimeBreakdown{}, fmt.Errorf("get time breakdown: %w", err)
	}
	return TimeBreakdownFor(route, t.Thresholds), nil
}

// TimeBreakdownFor classifies time between and within completed stops.
//
// This is a heuristic: a gap between stops longer than BreakGapMinutes is
// split into expected drive plus break, a shorter gap longer than IdleFactor
// times the expected drive is split into drive plus idle, and anything else
// is drive. Intervals with missing or inverted timestamps count as zero.
func TimeBreakdownFor(route domain.Route, th Thresholds) domain.TimeBreakdown {
	th = th.withDefaults()

	done := make([]domain.RouteStop, 0, len(route.Stops))
	for _, s := range route.Stops {
		if s.Status == domain.StopCompleted {
			done = append(done, s)
		}
	}
	slices.SortStableFunc(done, func(a, b domain.RouteStop) int {
		if a.ActualArrival != nil && b.ActualArrival != nil {
			if c := a.ActualArrival.Compare(*b.ActualArrival); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.Sequence, b.Sequence)
	})

	tb := domain.TimeBreakdown{RouteID: route.ID, Legs: []domain.LegBreakdown{}}

	for i, s := range done {
		if w, ok := stopWorkMinutes(s); ok {
			tb.WorkMinutes += w
			tb.ClassifiedStops++
		} else {
			tb.UnclassifiedIntervals++
		}
		if s.PausedMinutes > 0 {
			tb.BreakMinutes += s.PausedMinutes
		}

		if i == 0 {
			continue
		}
		prev := done[i-1]
		leg, ok := classifyGap(prev, s, th)
		if !ok {
			tb.UnclassifiedIntervals++
			continue
		}
		tb.DriveMinutes += leg.DriveMinutes
		tb.BreakMinutes += leg.BreakMinutes
		tb.IdleMinutes += leg.IdleMinutes
		tb.Legs = append(tb.Legs, leg)
	}

	tb.TotalMinutes = tb.DriveMinutes + tb.WorkMinutes + tb.BreakMinutes + tb.IdleMinutes

	if len(done) > 0 {
		first, last := done[0], done[len(done)-1]
		if first.ActualArrival != nil && last.ActualDeparture != nil {
			tb.SpanMinutes = math.Max(0, last.ActualDeparture.Sub(*first.ActualArrival).Minutes())
		}
	}

	return tb
}

func classifyGap(prev, cur domain.RouteStop, th Thresholds) (domain.LegBreakdown, bool) {
	leg := domain.LegBreakdown{FromCustomerID: prev.CustomerID, ToCustomerID: cur.CustomerID}

	if prev.ActualDeparture == nil || cur.ActualArrival == nil {
		return leg, false
	}
	gap := cur.ActualArrival.Sub(*prev.ActualDeparture).Minutes()
	if gap < 0 || math.IsNaN(gap) {
		return leg, false
	}

	expected := geo.TravelMinutes(geo.HaversineMiles(prev.Location.Point(), cur.Location.Point()), th.MinutesPerMile)
	leg.GapMinutes = gap
	leg.ExpectedMinutes = expected

	switch {
	case gap > th.BreakGapMinutes:
		leg.BreakMinutes = math.Max(0, gap-expected)
		leg.DriveMinutes = gap - leg.BreakMinutes
	case gap > th.IdleFactor*expected:
		leg.IdleMinutes = gap - expected
		leg.DriveMinutes = expected
	default:
		leg.DriveMinutes = gap
	}

	return leg, true
}
