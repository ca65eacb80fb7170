package services

import (
	"crew-route-service/internal/domain"
	"fmt"
	"math"
	"time"
)

const scheduleNA = "N/A"

// GetScheduleStatus compares elapsed planned time against completed stops.
// A zero now uses the tracker clock.
func (t *Tracker) GetScheduleStatus(route domain.Route, now time.Time) (domain.ScheduleStatus, error) {
	if err := route.Validate(); err != nil {
		return domain.ScheduleStatus{}, fmt.Errorf("get schedule status: %w", err)
	}
	return scheduleAt(route, t.resolve(now), t.Thresholds.withDefaults()), nil
}

func scheduleAt(route domain.Route, now time.Time, th Thresholds) domain.ScheduleStatus {
	total := len(route.Stops)
	completed, skipped := route.Counts()
	finished := completed + skipped
	remaining := total - finished

	avgWork, avgDrive := observedAverages(route.Stops, th)
	finish := now.Add(minutes(float64(remaining) * (avgWork + avgDrive)))

	st := domain.ScheduleStatus{
		RouteID: route.ID,
		Status:  domain.OnSchedule,
		Message: scheduleNA,
		Breakdown: domain.ScheduleBreakdown{
			ElapsedMinutes:      elapsedMinutes(route, now),
			PlannedMinutes:      route.TotalDurationMinutes,
			RemainingStops:      remaining,
			AverageWorkMinutes:  avgWork,
			AverageDriveMinutes: avgDrive,
			EstimatedFinish:     &finish,
		},
	}

	if total == 0 || route.TotalDurationMinutes <= 0 || route.ClockInAt == nil {
		return st
	}

	planned := ratio(st.Breakdown.ElapsedMinutes, route.TotalDurationMinutes)
	actual := float64(finished) / float64(total)
	st.Breakdown.PlannedRatio = planned
	st.Breakdown.ActualRatio = actual

	gap := actual - planned
	switch {
	case math.Abs(gap) <= th.ScheduleToleranceRatio:
		st.Status = domain.OnSchedule
		st.MinutesDelta = 0
	case gap > 0:
		st.Status = domain.AheadSchedule
		st.MinutesDelta = int(math.Round(gap * route.TotalDurationMinutes))
	default:
		st.Status = domain.BehindSchedule
		st.MinutesDelta = int(math.Round(gap * route.TotalDurationMinutes))
	}
	st.Message = scheduleMessage(st.Status, st.MinutesDelta, th)

	return st
}

func scheduleMessage(status domain.ScheduleState, delta int, th Thresholds) string {
	mag := math.Abs(float64(delta))
	switch status {
	case domain.AheadSchedule:
		switch {
		case mag < th.SlightDeltaMinutes:
			return fmt.Sprintf("Slightly ahead of schedule (%d min)", int(mag))
		case mag > th.SignificantDeltaMinutes:
			return fmt.Sprintf("Significantly ahead of schedule (%d min)", int(mag))
		default:
			return fmt.Sprintf("Ahead of schedule (%d min)", int(mag))
		}
	case domain.BehindSchedule:
		switch {
		case mag < th.SlightDeltaMinutes:
			return fmt.Sprintf("Slightly behind schedule (%d min)", int(mag))
		case mag > th.SignificantDeltaMinutes:
			return fmt.Sprintf("Significantly delayed (%d min)", int(mag))
		default:
			return fmt.Sprintf("Behind schedule (%d min)", int(mag))
		}
	default:
		return "On schedule"
	}
}

// observedAverages returns mean work and drive minutes over completed stops,
// falling back to the configured defaults when nothing has been observed.
func observedAverages(stops []domain.RouteStop, th Thresholds) (float64, float64) {
	var work, drive float64
	var nWork, nDrive int
	for _, s := range stops {
		if s.Status != domain.StopCompleted {
			continue
		}
		if w, ok := stopWorkMinutes(s); ok {
			work += w
			nWork++
		}
		if s.DriveTimeMinutes != nil && *s.DriveTimeMinutes >= 0 {
			drive += *s.DriveTimeMinutes
			nDrive++
		}
	}

	avgWork, avgDrive := th.DefaultWorkMinutes, th.DefaultDriveMinutes
	if nWork > 0 {
		avgWork = work / float64(nWork)
	}
	if nDrive > 0 {
		avgDrive = drive / float64(nDrive)
	}
	return avgWork, avgDrive
}

// stopWorkMinutes prefers the recorded work time and otherwise recomputes it
// from the stop's timestamps. ok is false when neither is usable.
func stopWorkMinutes(s domain.RouteStop) (float64, bool) {
	if s.WorkTimeMinutes != nil && *s.WorkTimeMinutes >= 0 {
		return *s.WorkTimeMinutes, true
	}
	if s.ActualArrival == nil || s.ActualDeparture == nil {
		return 0, false
	}
	w := s.ActualDeparture.Sub(*s.ActualArrival).Minutes() - s.PausedMinutes
	if w < 0 {
		return 0, false
	}
	return w, true
}
