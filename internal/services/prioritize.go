package services

import (
	"cmp"
	"crew-route-service/internal/domain"
	"math"
	"slices"
	"time"
)

// PrioritizeCustomers scores every customer eligible for service on target
// and returns them highest score first. Ties are broken by customer id so
// the result is stable across runs.
//
// A customer is eligible when it is active, wants service on the target
// weekday and has gone at least MinDaysBetweenService days without one.
func PrioritizeCustomers(customers []domain.Customer, target time.Time, th Thresholds) []domain.CustomerPriority {
	th = th.withDefaults()
	day := domain.WeekdayOf(target)

	out := make([]domain.CustomerPriority, 0, len(customers))
	for _, c := range customers {
		if c.Status != domain.CustomerActive {
			continue
		}
		if !c.WantsServiceOn(day) {
			continue
		}

		days := th.NeverServicedDays
		if c.LastServiceDate != nil {
			days = daysBetween(*c.LastServiceDate, target)
			if days < th.MinDaysBetweenService {
				continue
			}
		}

		match := c.PrefersDay(day)
		complexity := len(c.Services)

		score := float64(days) * th.DaysWeight
		if match {
			score += th.PreferenceBonus
		}
		score += float64(complexity) * th.ServiceBonus
		score = math.Min(th.MaxPriority, math.Max(0, score))

		out = append(out, domain.CustomerPriority{
			CustomerID: c.ID,
			Score:      score,
			Factors: domain.PriorityFactors{
				DaysSinceLastService: days,
				PreferenceMatch:      match,
				ServiceComplexity:    complexity,
			},
		})
	}

	slices.SortStableFunc(out, func(a, b domain.CustomerPriority) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.CustomerID, b.CustomerID)
	})

	return out
}

// daysBetween counts whole calendar days from a to b, using b's location.
func daysBetween(a, b time.Time) int {
	a = a.In(b.Location())
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
