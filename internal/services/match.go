package services

import (
	"cmp"
	"crew-route-service/internal/domain"
	"slices"
	"time"
)

// CrewAssignment is one crew's candidate customer set for a day, in priority order.
type CrewAssignment struct {
	Crew       domain.CrewAvailability
	Customers  []domain.Customer
	Priorities []domain.CustomerPriority
}

// MatchResult is the outcome of one matching cycle.
type MatchResult struct {
	Assignments []CrewAssignment
	// Deferred lists eligible customers that no crew could take this cycle.
	Deferred []string
}

// AvailableCrews keeps crews that are staffed and have working hours on day,
// ordered by crew id.
func AvailableCrews(crews []domain.CrewAvailability, target time.Time) []domain.CrewAvailability {
	day := domain.WeekdayOf(target)

	out := make([]domain.CrewAvailability, 0, len(crews))
	for _, c := range crews {
		if c.AvailableOn(day) {
			out = append(out, c)
		}
	}

	slices.SortFunc(out, func(a, b domain.CrewAvailability) int {
		return cmp.Compare(a.CrewID, b.CrewID)
	})
	return out
}

// MatchCrews assigns prioritized customers to crews greedily.
//
// Customers are visited highest priority first. Each goes to the qualifying
// crew (capability overlap, spare capacity) with the fewest customers so far;
// ties go to the lower crew id. Because capacity is consumed in priority
// order, a full crew has always kept its highest-priority customers.
// Crews must already be filtered for availability.
func MatchCrews(
	priorities []domain.CustomerPriority,
	customers []domain.Customer,
	crews []domain.CrewAvailability,
) MatchResult {
	if len(crews) == 0 || len(priorities) == 0 {
		return MatchResult{Assignments: []CrewAssignment{}}
	}

	byID := make(map[string]domain.Customer, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
	}

	assignments := make([]CrewAssignment, len(crews))
	for i, c := range crews {
		assignments[i] = CrewAssignment{Crew: c}
	}

	var deferred []string
	for _, p := range priorities {
		cust, ok := byID[p.CustomerID]
		if !ok {
			continue
		}
		types := cust.ServiceTypes()

		best := -1
		for i := range assignments {
			a := &assignments[i]
			if len(a.Customers) >= a.Crew.EffectiveMaxCustomers() {
				continue
			}
			if !a.Crew.CanPerformAny(types) {
				continue
			}
			if best == -1 || len(a.Customers) < len(assignments[best].Customers) {
				best = i
			}
		}

		if best == -1 {
			deferred = append(deferred, p.CustomerID)
			continue
		}
		assignments[best].Customers = append(assignments[best].Customers, cust)
		assignments[best].Priorities = append(assignments[best].Priorities, p)
	}

	return MatchResult{Assignments: assignments, Deferred: deferred}
}
