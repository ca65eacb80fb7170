package domain

import "slices"

const DefaultMaxCustomers = 12

type CrewAvailability struct {
	CrewID          string                 `json:"crew_id" yaml:"crew_id"`
	CompanyID       string                 `json:"company_id" yaml:"company_id"`
	Name            string                 `json:"name" yaml:"name"`
	EmployeeIDs     []string               `json:"employee_ids" yaml:"employee_ids"`
	Capabilities    []string               `json:"capabilities" yaml:"capabilities"`
	WorkingHours    map[Weekday]TimeWindow `json:"working_hours" yaml:"working_hours"`
	CurrentLocation *Coordinates           `json:"current_location,omitempty" yaml:"current_location,omitempty"`
	MaxCustomers    int                    `json:"max_customers" yaml:"max_customers"`
}

// EffectiveMaxCustomers falls back to DefaultMaxCustomers when unset.
func (c CrewAvailability) EffectiveMaxCustomers() int {
	if c.MaxCustomers <= 0 {
		return DefaultMaxCustomers
	}
	return c.MaxCustomers
}

// AvailableOn reports whether the crew is staffed and has hours on day.
func (c CrewAvailability) AvailableOn(day Weekday) bool {
	if len(c.EmployeeIDs) == 0 {
		return false
	}
	_, ok := c.WorkingHours[day]
	return ok
}

// CanPerformAny reports whether the crew covers at least one of serviceTypes.
// A customer with no typed services can be handled by any crew.
func (c CrewAvailability) CanPerformAny(serviceTypes []string) bool {
	if len(serviceTypes) == 0 {
		return true
	}
	for _, t := range serviceTypes {
		if slices.Contains(c.Capabilities, t) {
			return true
		}
	}
	return false
}
