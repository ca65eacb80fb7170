package domain

import (
	"errors"
	"testing"
	"time"
)

func TestCustomerRecordServiceIsMonotonic(t *testing.T) {
	first := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	c := Customer{ID: "c1"}

	if err := c.RecordService(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.RecordService(first.AddDate(0, 0, -1)); !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("err = %v, want ErrInvalidTimestamp", err)
	}
	if !c.LastServiceDate.Equal(first) {
		t.Fatalf("last service = %v, want %v", c.LastServiceDate, first)
	}
}

func TestCustomerWantsServiceOn(t *testing.T) {
	anyDay := Customer{}
	if !anyDay.WantsServiceOn(Tuesday) {
		t.Fatalf("customer without preferences should accept any day")
	}
	if anyDay.PrefersDay(Tuesday) {
		t.Fatalf("customer without preferences should not earn a preference match")
	}

	monOnly := Customer{Preferences: ServicePreferences{PreferredDays: []Weekday{Monday}}}
	if monOnly.WantsServiceOn(Tuesday) {
		t.Fatalf("monday-only customer should not want tuesday")
	}
	if !monOnly.WantsServiceOn(Monday) {
		t.Fatalf("monday-only customer should want monday")
	}
}

func TestCustomerServiceTypesDeduplicates(t *testing.T) {
	c := Customer{Services: []Service{{Type: "mow"}, {Type: "trim"}, {Type: "mow"}, {Type: ""}}}
	got := c.ServiceTypes()
	if len(got) != 2 || got[0] != "mow" || got[1] != "trim" {
		t.Fatalf("service types = %v", got)
	}
}

func TestCrewAvailability(t *testing.T) {
	crew := CrewAvailability{
		CrewID:       "k1",
		EmployeeIDs:  []string{"e1"},
		Capabilities: []string{"mow"},
		WorkingHours: map[Weekday]TimeWindow{Monday: {Start: "08:00", End: "16:00"}},
	}

	if !crew.AvailableOn(Monday) {
		t.Fatalf("crew should be available monday")
	}
	if crew.AvailableOn(Tuesday) {
		t.Fatalf("crew should not be available tuesday")
	}
	if crew.EffectiveMaxCustomers() != DefaultMaxCustomers {
		t.Fatalf("max customers = %d, want %d", crew.EffectiveMaxCustomers(), DefaultMaxCustomers)
	}
	if crew.CanPerformAny([]string{"trim"}) {
		t.Fatalf("crew should not perform trim")
	}

	unstaffed := crew
	unstaffed.EmployeeIDs = nil
	if unstaffed.AvailableOn(Monday) {
		t.Fatalf("crew without employees should not be available")
	}
}

func TestWeekdayOfAndParse(t *testing.T) {
	d := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	if WeekdayOf(d) != Monday {
		t.Fatalf("weekday = %q, want monday", WeekdayOf(d))
	}
	got, err := ParseWeekday("Tue")
	if err != nil || got != Tuesday {
		t.Fatalf("ParseWeekday(Tue) = %q, %v", got, err)
	}
	if _, err := ParseWeekday("someday"); err == nil {
		t.Fatalf("expected error for unknown day")
	}
}
