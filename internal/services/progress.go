package services

import (
	"crew-route-service/internal/domain"
	"crew-route-service/internal/geo"
	"fmt"
	"math"
	"time"
)

const (
	stopWeight     = 0.4
	distanceWeight = 0.3
	timeWeight     = 0.3
)

// GetProgress derives a live snapshot from route as of the tracker clock.
// loc, when non-nil, is the crew's current position.
func (t *Tracker) GetProgress(route domain.Route, loc *domain.Coordinates) (domain.RouteProgress, error) {
	if err := route.Validate(); err != nil {
		return domain.RouteProgress{}, fmt.Errorf("get progress: %w", err)
	}
	return progressAt(route, loc, t.now(), t.Thresholds.withDefaults()), nil
}

func progressAt(route domain.Route, loc *domain.Coordinates, now time.Time, th Thresholds) domain.RouteProgress {
	total := len(route.Stops)
	completed, skipped := route.Counts()
	finished := completed + skipped

	p := domain.RouteProgress{
		RouteID:        route.ID,
		CrewID:         route.CrewID,
		CompletedStops: completed,
		SkippedStops:   skipped,
		TotalStops:     total,
	}

	p.ElapsedMinutes = elapsedMinutes(route, now)
	p.StopProgress = ratio(float64(finished), float64(total))

	lastAt := route.Depot
	var lastDeparture *time.Time
	for _, s := range route.Stops {
		if s.Status != domain.StopCompleted {
			continue
		}
		p.DistanceTraveledMiles += s.LegDistanceMiles
		if lastDeparture == nil || s.ActualDeparture.After(*lastDeparture) {
			lastDeparture = s.ActualDeparture
			lastAt = s.Location
		}
	}
	if loc != nil && loc.Valid() {
		p.DistanceTraveledMiles += geo.HaversineMiles(lastAt.Point(), loc.Point())
	}

	switch {
	case route.TotalDistanceMiles > 0:
		p.DistanceProgress = ratio(p.DistanceTraveledMiles, route.TotalDistanceMiles)
	case total > 0 && finished == total:
		p.DistanceProgress = 1
	}
	p.TimeProgress = ratio(p.ElapsedMinutes, route.TotalDurationMinutes)

	p.OverallProgress = 100 * (stopWeight*p.StopProgress + distanceWeight*p.DistanceProgress + timeWeight*p.TimeProgress)

	cur, next := currentAndNext(route.Stops, loc)
	if cur >= 0 {
		p.CurrentStop = stopRef(route.Stops[cur])
		if loc != nil && loc.Valid() && route.Stops[cur].Status != domain.StopInProgress {
			to := route.Stops[cur].Location.Point()
			p.MilesToCurrentStop = geo.HaversineMiles(loc.Point(), to)
			if p.MilesToCurrentStop > 0 {
				p.HeadingToCurrentStop = geo.CompassPoint(geo.Bearing(loc.Point(), to))
			}
		}
	}
	if next >= 0 {
		p.NextStop = stopRef(route.Stops[next])
	}

	switch {
	case completed > 0 && p.ElapsedMinutes > 0:
		p.AverageMinutesPerStop = p.ElapsedMinutes / float64(completed)
	case total > 0:
		p.AverageMinutesPerStop = route.TotalDurationMinutes / float64(total)
	}

	remaining := total - finished
	switch {
	case remaining == 0 && lastDeparture != nil:
		eta := *lastDeparture
		p.EstimatedCompletion = &eta
	case remaining == 0:
		eta := now
		p.EstimatedCompletion = &eta
	default:
		eta := now.Add(minutes(float64(remaining) * p.AverageMinutesPerStop))
		p.EstimatedCompletion = &eta
	}

	expected := p.TimeProgress * float64(total)
	p.DelayMinutes = math.Max(0, (expected-float64(finished))*p.AverageMinutesPerStop)
	p.OnSchedule = p.DelayMinutes <= th.OnScheduleThresholdMinutes

	switch {
	case total > 0 && finished == total:
		p.Status = domain.ProgressCompleted
	case finished == 0:
		p.Status = domain.ProgressNotStarted
	case !p.OnSchedule:
		p.Status = domain.ProgressDelayed
	default:
		p.Status = domain.ProgressInProgress
	}

	return p
}

// currentAndNext picks the stop the crew is working on and the one after it.
// An in-progress stop always wins; otherwise the first incomplete stop, or the
// nearest one when the crew location is known.
func currentAndNext(stops []domain.RouteStop, loc *domain.Coordinates) (int, int) {
	cur := -1
	for i, s := range stops {
		if s.Status == domain.StopInProgress {
			cur = i
			break
		}
	}

	if cur == -1 {
		best := math.Inf(1)
		for i, s := range stops {
			if s.Status.Finished() {
				continue
			}
			if loc == nil || !loc.Valid() {
				cur = i
				break
			}
			d := geo.HaversineMiles(loc.Point(), s.Location.Point())
			if d < best {
				best, cur = d, i
			}
		}
	}

	if cur == -1 {
		return -1, -1
	}

	for i := cur + 1; i < len(stops); i++ {
		if !stops[i].Status.Finished() {
			return cur, i
		}
	}
	return cur, -1
}

func stopRef(s domain.RouteStop) *domain.StopRef {
	return &domain.StopRef{
		Sequence:     s.Sequence,
		CustomerID:   s.CustomerID,
		CustomerName: s.CustomerName,
		Location:     s.Location,
		Status:       s.Status,
	}
}

func elapsedMinutes(route domain.Route, now time.Time) float64 {
	if route.ClockInAt == nil {
		return 0
	}
	return math.Max(0, now.Sub(*route.ClockInAt).Minutes())
}

// ratio returns num/den clamped to [0,1], or 0 when den is not positive.
func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return math.Min(1, math.Max(0, num/den))
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}
