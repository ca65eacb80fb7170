package services

import (
	"crew-route-service/internal/domain"
	"testing"
	"time"
)

// 2026-10-19 is a Monday.
var monday = time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := monday.AddDate(0, 0, -n)
	return &t
}

func customer(id string, last *time.Time, services ...string) domain.Customer {
	c := domain.Customer{
		ID:              id,
		Name:            "Customer " + id,
		Status:          domain.CustomerActive,
		Location:        domain.Coordinates{Lon: -112.07, Lat: 33.45},
		LastServiceDate: last,
	}
	for _, s := range services {
		c.Services = append(c.Services, domain.Service{Type: s, Status: "active"})
	}
	return c
}

func TestPrioritizeScoring(t *testing.T) {
	prefers := customer("pref", daysAgo(6), "mow", "trim")
	prefers.Preferences.PreferredDays = []domain.Weekday{domain.Monday}

	got := PrioritizeCustomers([]domain.Customer{prefers, customer("never", nil, "mow")}, monday, Thresholds{})
	if len(got) != 2 {
		t.Fatalf("got %d priorities, want 2", len(got))
	}

	// never: 30*10 + 5 capped at 100; pref: 6*10 + 20 + 10 = 90.
	if got[0].CustomerID != "never" || got[0].Score != 100 {
		t.Fatalf("first = %+v, want never at 100", got[0])
	}
	if got[0].Factors.DaysSinceLastService != 30 {
		t.Fatalf("never-serviced baseline = %d, want 30", got[0].Factors.DaysSinceLastService)
	}
	if got[1].CustomerID != "pref" || got[1].Score != 90 {
		t.Fatalf("second = %+v, want pref at 90", got[1])
	}
	if !got[1].Factors.PreferenceMatch || got[1].Factors.ServiceComplexity != 2 {
		t.Fatalf("factors = %+v", got[1].Factors)
	}
}

func TestPrioritizeHonorsZeroBonuses(t *testing.T) {
	th := DefaultThresholds()
	th.PreferenceBonus = 0
	th.ServiceBonus = 0
	th.MinDaysBetweenService = 0

	prefers := customer("pref", daysAgo(6), "mow")
	prefers.Preferences.PreferredDays = []domain.Weekday{domain.Monday}
	today := customer("today", daysAgo(0), "mow")

	got := PrioritizeCustomers([]domain.Customer{prefers, today}, monday, th)
	if len(got) != 2 {
		t.Fatalf("got %d priorities, want 2 with no minimum gap", len(got))
	}
	if got[0].CustomerID != "pref" || got[0].Score != 60 {
		t.Fatalf("first = %+v, want pref at 60", got[0])
	}
	if got[1].Score != 0 {
		t.Fatalf("serviced today scored %v, want 0", got[1].Score)
	}
}

func TestThresholdsValidate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}
	th := DefaultThresholds()
	th.IdleFactor = -1
	if err := th.Validate(); err == nil {
		t.Fatalf("negative idle factor accepted")
	}
	th = DefaultThresholds()
	th.MaxTwoOptPasses = -3
	if err := th.Validate(); err == nil {
		t.Fatalf("negative pass count accepted")
	}
}

func TestPrioritizeEligibility(t *testing.T) {
	inactive := customer("inactive", nil, "mow")
	inactive.Status = domain.CustomerInactive

	wrongDay := customer("tuesday", nil, "mow")
	wrongDay.Preferences.PreferredDays = []domain.Weekday{domain.Tuesday}

	customers := []domain.Customer{
		inactive,
		wrongDay,
		customer("recent", daysAgo(4), "mow"),
		customer("due", daysAgo(5), "mow"),
	}

	got := PrioritizeCustomers(customers, monday, Thresholds{})
	if len(got) != 1 || got[0].CustomerID != "due" {
		t.Fatalf("eligible = %+v, want only due", got)
	}
	if got[0].Score != 55 {
		t.Fatalf("score = %v, want 55", got[0].Score)
	}
}

func TestPrioritizeTieBreaksByID(t *testing.T) {
	got := PrioritizeCustomers([]domain.Customer{
		customer("b", daysAgo(7), "mow"),
		customer("a", daysAgo(7), "mow"),
	}, monday, Thresholds{})

	if got[0].CustomerID != "a" || got[1].CustomerID != "b" {
		t.Fatalf("order = %s,%s want a,b", got[0].CustomerID, got[1].CustomerID)
	}
}

func crew(id string, max int, caps ...string) domain.CrewAvailability {
	return domain.CrewAvailability{
		CrewID:       id,
		EmployeeIDs:  []string{id + "-lead"},
		Capabilities: caps,
		WorkingHours: map[domain.Weekday]domain.TimeWindow{domain.Monday: {Start: "07:00", End: "17:00"}},
		MaxCustomers: max,
	}
}

func TestAvailableCrews(t *testing.T) {
	off := crew("off", 0, "mow")
	off.WorkingHours = map[domain.Weekday]domain.TimeWindow{domain.Friday: {Start: "07:00", End: "17:00"}}
	empty := crew("empty", 0, "mow")
	empty.EmployeeIDs = nil

	got := AvailableCrews([]domain.CrewAvailability{crew("z", 0), off, empty, crew("a", 0)}, monday)
	if len(got) != 2 || got[0].CrewID != "a" || got[1].CrewID != "z" {
		t.Fatalf("available = %+v", got)
	}
}

func TestMatchCrewsBalancesLoad(t *testing.T) {
	customers := []domain.Customer{
		customer("c1", nil, "mow"),
		customer("c2", nil, "mow"),
		customer("c3", nil, "mow"),
		customer("c4", nil, "mow"),
	}
	prios := PrioritizeCustomers(customers, monday, Thresholds{})

	res := MatchCrews(prios, customers, []domain.CrewAvailability{crew("k1", 0, "mow"), crew("k2", 0, "mow")})

	if len(res.Assignments[0].Customers) != 2 || len(res.Assignments[1].Customers) != 2 {
		t.Fatalf("unbalanced: %d vs %d", len(res.Assignments[0].Customers), len(res.Assignments[1].Customers))
	}
	if res.Assignments[0].Customers[0].ID != "c1" || res.Assignments[1].Customers[0].ID != "c2" {
		t.Fatalf("unexpected first picks: %s, %s", res.Assignments[0].Customers[0].ID, res.Assignments[1].Customers[0].ID)
	}
}

func TestMatchCrewsRespectsCapabilitiesAndCap(t *testing.T) {
	customers := []domain.Customer{
		customer("high", daysAgo(9), "mow"),
		customer("mid", daysAgo(8), "mow"),
		customer("low", daysAgo(7), "mow"),
		customer("pool", daysAgo(9), "pool"),
	}
	prios := PrioritizeCustomers(customers, monday, Thresholds{})

	res := MatchCrews(prios, customers, []domain.CrewAvailability{crew("k1", 2, "mow")})

	a := res.Assignments[0]
	if len(a.Customers) != 2 || a.Customers[0].ID != "high" || a.Customers[1].ID != "mid" {
		t.Fatalf("assigned = %+v, want high, mid", a.Customers)
	}
	if len(res.Deferred) != 2 || res.Deferred[0] != "pool" || res.Deferred[1] != "low" {
		t.Fatalf("deferred = %v, want [pool low]", res.Deferred)
	}
}

func TestMatchCrewsEmptyInputs(t *testing.T) {
	customers := []domain.Customer{customer("c1", nil, "mow")}
	prios := PrioritizeCustomers(customers, monday, Thresholds{})

	if res := MatchCrews(prios, customers, nil); len(res.Assignments) != 0 {
		t.Fatalf("zero crews should give no assignments, got %d", len(res.Assignments))
	}
	if res := MatchCrews(nil, nil, []domain.CrewAvailability{crew("k1", 0, "mow")}); len(res.Assignments) != 0 {
		t.Fatalf("zero customers should give no assignments, got %d", len(res.Assignments))
	}
}
