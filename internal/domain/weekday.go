package domain

import (
	"fmt"
	"strings"
	"time"
)

type Weekday string

const (
	Sunday    Weekday = "sunday"
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
)

// WeekdayOf returns the weekday of t in t's location.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(strings.ToLower(t.Weekday().String()))
}

// ParseWeekday accepts full or three-letter names in any case.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return Weekday(name), nil
		}
	}
	return "", fmt.Errorf("parse weekday: unknown day %q", s)
}

// TimeWindow is a wall-clock window expressed as "HH:MM" strings.
type TimeWindow struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// Minutes returns the window length in minutes, or 0 when either bound is malformed.
func (w TimeWindow) Minutes() float64 {
	start, err := time.Parse("15:04", w.Start)
	if err != nil {
		return 0
	}
	end, err := time.Parse("15:04", w.End)
	if err != nil || end.Before(start) {
		return 0
	}
	return end.Sub(start).Minutes()
}
