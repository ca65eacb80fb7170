package services

import (
	"fmt"
	"math"
)

// Thresholds collects the tuned constants used by planning and tracking.
// The zero value means DefaultThresholds. Otherwise bonuses, the minimum
// service gap and the schedule tolerances may be set to zero; every other
// field falls back to its default when not positive.
type Thresholds struct {
	// Prioritization.
	DaysWeight            float64 `mapstructure:"days_weight" yaml:"days_weight"`
	PreferenceBonus       float64 `mapstructure:"preference_bonus" yaml:"preference_bonus"`
	ServiceBonus          float64 `mapstructure:"service_bonus" yaml:"service_bonus"`
	MaxPriority           float64 `mapstructure:"max_priority" yaml:"max_priority"`
	NeverServicedDays     int     `mapstructure:"never_serviced_days" yaml:"never_serviced_days"`
	MinDaysBetweenService int     `mapstructure:"min_days_between_service" yaml:"min_days_between_service"`

	// Solver.
	ExactSolverMaxStops     int     `mapstructure:"exact_solver_max_stops" yaml:"exact_solver_max_stops"`
	MaxTwoOptPasses         int     `mapstructure:"max_two_opt_passes" yaml:"max_two_opt_passes"`
	UnreachablePenaltyMiles float64 `mapstructure:"unreachable_penalty_miles" yaml:"unreachable_penalty_miles"`
	MinutesPerMile          float64 `mapstructure:"minutes_per_mile" yaml:"minutes_per_mile"`
	ServiceMinutesPerStop   float64 `mapstructure:"service_minutes_per_stop" yaml:"service_minutes_per_stop"`

	// Progress and schedule.
	OnScheduleThresholdMinutes float64 `mapstructure:"on_schedule_threshold_minutes" yaml:"on_schedule_threshold_minutes"`
	ScheduleToleranceRatio     float64 `mapstructure:"schedule_tolerance_ratio" yaml:"schedule_tolerance_ratio"`
	SlightDeltaMinutes         float64 `mapstructure:"slight_delta_minutes" yaml:"slight_delta_minutes"`
	SignificantDeltaMinutes    float64 `mapstructure:"significant_delta_minutes" yaml:"significant_delta_minutes"`
	DefaultWorkMinutes         float64 `mapstructure:"default_work_minutes" yaml:"default_work_minutes"`
	DefaultDriveMinutes        float64 `mapstructure:"default_drive_minutes" yaml:"default_drive_minutes"`

	// Time classification.
	BreakGapMinutes float64 `mapstructure:"break_gap_minutes" yaml:"break_gap_minutes"`
	IdleFactor      float64 `mapstructure:"idle_factor" yaml:"idle_factor"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		DaysWeight:            10,
		PreferenceBonus:       20,
		ServiceBonus:          5,
		MaxPriority:           100,
		NeverServicedDays:     30,
		MinDaysBetweenService: 5,

		ExactSolverMaxStops:     15,
		MaxTwoOptPasses:         1000,
		UnreachablePenaltyMiles: 1e6,
		MinutesPerMile:          2,
		ServiceMinutesPerStop:   30,

		OnScheduleThresholdMinutes: 15,
		ScheduleToleranceRatio:     0.05,
		SlightDeltaMinutes:         10,
		SignificantDeltaMinutes:    30,
		DefaultWorkMinutes:         20,
		DefaultDriveMinutes:        10,

		BreakGapMinutes: 30,
		IdleFactor:      1.5,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t == (Thresholds{}) {
		t = d
	}

	// positive replaces zero or negative values.
	positive := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	positiveInt := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	// nonNegative keeps zero as a deliberate setting.
	nonNegative := func(v *float64, def float64) {
		if *v < 0 {
			*v = def
		}
	}

	positive(&t.DaysWeight, d.DaysWeight)
	nonNegative(&t.PreferenceBonus, d.PreferenceBonus)
	nonNegative(&t.ServiceBonus, d.ServiceBonus)
	positive(&t.MaxPriority, d.MaxPriority)
	positiveInt(&t.NeverServicedDays, d.NeverServicedDays)
	if t.MinDaysBetweenService < 0 {
		t.MinDaysBetweenService = d.MinDaysBetweenService
	}
	positiveInt(&t.ExactSolverMaxStops, d.ExactSolverMaxStops)
	positiveInt(&t.MaxTwoOptPasses, d.MaxTwoOptPasses)
	positive(&t.UnreachablePenaltyMiles, d.UnreachablePenaltyMiles)
	positive(&t.MinutesPerMile, d.MinutesPerMile)
	positive(&t.ServiceMinutesPerStop, d.ServiceMinutesPerStop)
	nonNegative(&t.OnScheduleThresholdMinutes, d.OnScheduleThresholdMinutes)
	nonNegative(&t.ScheduleToleranceRatio, d.ScheduleToleranceRatio)
	positive(&t.SlightDeltaMinutes, d.SlightDeltaMinutes)
	positive(&t.SignificantDeltaMinutes, d.SignificantDeltaMinutes)
	positive(&t.DefaultWorkMinutes, d.DefaultWorkMinutes)
	positive(&t.DefaultDriveMinutes, d.DefaultDriveMinutes)
	positive(&t.BreakGapMinutes, d.BreakGapMinutes)
	positive(&t.IdleFactor, d.IdleFactor)

	// Held-Karp table size is 2^n; keep n bounded.
	if t.ExactSolverMaxStops > 18 {
		t.ExactSolverMaxStops = 18
	}
	return t
}

// Validate rejects negative thresholds.
func (t Thresholds) Validate() error {
	floats := map[string]float64{
		"days_weight":                   t.DaysWeight,
		"preference_bonus":              t.PreferenceBonus,
		"service_bonus":                 t.ServiceBonus,
		"max_priority":                  t.MaxPriority,
		"unreachable_penalty_miles":     t.UnreachablePenaltyMiles,
		"minutes_per_mile":              t.MinutesPerMile,
		"service_minutes_per_stop":      t.ServiceMinutesPerStop,
		"on_schedule_threshold_minutes": t.OnScheduleThresholdMinutes,
		"schedule_tolerance_ratio":      t.ScheduleToleranceRatio,
		"slight_delta_minutes":          t.SlightDeltaMinutes,
		"significant_delta_minutes":     t.SignificantDeltaMinutes,
		"default_work_minutes":          t.DefaultWorkMinutes,
		"default_drive_minutes":         t.DefaultDriveMinutes,
		"break_gap_minutes":             t.BreakGapMinutes,
		"idle_factor":                   t.IdleFactor,
	}
	for name, v := range floats {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("threshold %s must not be negative, got %v", name, v)
		}
	}
	ints := map[string]int{
		"never_serviced_days":      t.NeverServicedDays,
		"min_days_between_service": t.MinDaysBetweenService,
		"exact_solver_max_stops":   t.ExactSolverMaxStops,
		"max_two_opt_passes":       t.MaxTwoOptPasses,
	}
	for name, v := range ints {
		if v < 0 {
			return fmt.Errorf("threshold %s must not be negative, got %d", name, v)
		}
	}
	return nil
}
