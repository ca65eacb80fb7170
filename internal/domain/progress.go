package domain

import "time"

type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
	ProgressDelayed    ProgressStatus = "delayed"
)

// StopRef identifies a stop inside a progress snapshot.
type StopRef struct {
	Sequence     int         `json:"sequence"`
	CustomerID   string      `json:"customer_id"`
	CustomerName string      `json:"customer_name,omitempty"`
	Location     Coordinates `json:"location"`
	Status       StopStatus  `json:"status"`
}

// RouteProgress is a snapshot derived from a Route; it has no lifecycle of its own.
type RouteProgress struct {
	RouteID               string         `json:"route_id"`
	CrewID                string         `json:"crew_id"`
	CompletedStops        int            `json:"completed_stops"`
	SkippedStops          int            `json:"skipped_stops"`
	TotalStops            int            `json:"total_stops"`
	StopProgress          float64        `json:"stop_progress"`
	DistanceProgress      float64        `json:"distance_progress"`
	TimeProgress          float64        `json:"time_progress"`
	OverallProgress       float64        `json:"overall_progress"`
	DistanceTraveledMiles float64        `json:"distance_traveled_miles"`
	ElapsedMinutes        float64        `json:"elapsed_minutes"`
	CurrentStop           *StopRef       `json:"current_stop,omitempty"`
	MilesToCurrentStop    float64        `json:"miles_to_current_stop,omitempty"`
	HeadingToCurrentStop  string         `json:"heading_to_current_stop,omitempty"`
	NextStop              *StopRef       `json:"next_stop,omitempty"`
	AverageMinutesPerStop float64        `json:"average_minutes_per_stop"`
	EstimatedCompletion   *time.Time     `json:"estimated_completion,omitempty"`
	DelayMinutes          float64        `json:"delay_minutes"`
	OnSchedule            bool           `json:"on_schedule"`
	Status                ProgressStatus `json:"status"`
}

type ScheduleState string

const (
	OnSchedule     ScheduleState = "on_schedule"
	AheadSchedule  ScheduleState = "ahead"
	BehindSchedule ScheduleState = "behind"
)

type ScheduleBreakdown struct {
	ElapsedMinutes      float64    `json:"elapsed_minutes"`
	PlannedMinutes      float64    `json:"planned_minutes"`
	PlannedRatio        float64    `json:"planned_ratio"`
	ActualRatio         float64    `json:"actual_ratio"`
	RemainingStops      int        `json:"remaining_stops"`
	AverageWorkMinutes  float64    `json:"average_work_minutes"`
	AverageDriveMinutes float64    `json:"average_drive_minutes"`
	EstimatedFinish     *time.Time `json:"estimated_finish,omitempty"`
}

type ScheduleStatus struct {
	RouteID      string            `json:"route_id"`
	Status       ScheduleState     `json:"status"`
	MinutesDelta int               `json:"minutes_delta"`
	Message      string            `json:"message"`
	Breakdown    ScheduleBreakdown `json:"breakdown"`
}

// LegBreakdown classifies the gap between two consecutive completed stops.
type LegBreakdown struct {
	FromCustomerID  string  `json:"from_customer_id"`
	ToCustomerID    string  `json:"to_customer_id"`
	GapMinutes      float64 `json:"gap_minutes"`
	ExpectedMinutes float64 `json:"expected_minutes"`
	DriveMinutes    float64 `json:"drive_minutes"`
	BreakMinutes    float64 `json:"break_minutes"`
	IdleMinutes     float64 `json:"idle_minutes"`
}

type TimeBreakdown struct {
	RouteID               string         `json:"route_id"`
	DriveMinutes          float64        `json:"drive_minutes"`
	WorkMinutes           float64        `json:"work_minutes"`
	BreakMinutes          float64        `json:"break_minutes"`
	IdleMinutes           float64        `json:"idle_minutes"`
	TotalMinutes          float64        `json:"total_minutes"`
	SpanMinutes           float64        `json:"span_minutes"`
	ClassifiedStops       int            `json:"classified_stops"`
	UnclassifiedIntervals int            `json:"unclassified_intervals"`
	Legs                  []LegBreakdown `json:"legs"`
}
