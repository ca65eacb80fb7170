package domain

import (
	"fmt"
	"slices"
	"time"
)

type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "active"
	CustomerInactive CustomerStatus = "inactive"
	CustomerPaused   CustomerStatus = "paused"
)

// Service is one requested service line on a customer account.
type Service struct {
	Type   string  `json:"type" yaml:"type"`
	Price  float64 `json:"price" yaml:"price"`
	Status string  `json:"status" yaml:"status"`
}

type ServicePreferences struct {
	PreferredDays       []Weekday  `json:"preferred_days" yaml:"preferred_days"`
	PreferredTimeWindow TimeWindow `json:"preferred_time_window" yaml:"preferred_time_window"`
	FrequencyDays       int        `json:"frequency_days" yaml:"frequency_days"`
}

type Customer struct {
	ID              string             `json:"id" yaml:"id"`
	CompanyID       string             `json:"company_id" yaml:"company_id"`
	Name            string             `json:"name" yaml:"name"`
	Location        Coordinates        `json:"location" yaml:"location"`
	Status          CustomerStatus     `json:"status" yaml:"status"`
	Services        []Service          `json:"services" yaml:"services"`
	Preferences     ServicePreferences `json:"preferences" yaml:"preferences"`
	LastServiceDate *time.Time         `json:"last_service_date,omitempty" yaml:"last_service_date,omitempty"`
}

// ServiceTypes returns the distinct requested service types in first-seen order.
func (c Customer) ServiceTypes() []string {
	out := make([]string, 0, len(c.Services))
	for _, s := range c.Services {
		if s.Type == "" || slices.Contains(out, s.Type) {
			continue
		}
		out = append(out, s.Type)
	}
	return out
}

// PrefersDay reports whether day is listed in the customer's preferred days.
func (c Customer) PrefersDay(day Weekday) bool {
	return slices.Contains(c.Preferences.PreferredDays, day)
}

// WantsServiceOn is true when day is preferred, or when no preference is set.
func (c Customer) WantsServiceOn(day Weekday) bool {
	return len(c.Preferences.PreferredDays) == 0 || c.PrefersDay(day)
}

// RecordService advances LastServiceDate; it never moves backwards.
func (c *Customer) RecordService(at time.Time) error {
	if c.LastServiceDate != nil && at.Before(*c.LastServiceDate) {
		return fmt.Errorf("record service: customer %s: %w: %s is before last service %s",
			c.ID, ErrInvalidTimestamp, at.Format(time.RFC3339), c.LastServiceDate.Format(time.RFC3339))
	}
	t := at
	c.LastServiceDate = &t
	return nil
}
