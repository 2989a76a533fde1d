package services

import (
	"math"
	"time"
)

// CycleWeeks is the fixed length of an execution cycle.
const CycleWeeks = 12

// CycleDays is the calendar span of a cycle: 12 weeks of 7 days.
const CycleDays = CycleWeeks * 7

// CurrentWeek maps a moment within a cycle to its 1-based week index.
// Days 0-6 after the start date are week 1, days 7-13 are week 2, and so
// on, capped at week 12. A cycle that has not started yet is week 1.
//
// This is the single week rule for the whole application; callers must
// not reimplement it inline.
func CurrentWeek(startDate, now time.Time) int {
	if now.Before(startDate) {
		return 1
	}
	elapsedDays := int(now.Sub(startDate) / (24 * time.Hour))
	week := elapsedDays/7 + 1
	if week > CycleWeeks {
		return CycleWeeks
	}
	return week
}

// WeeksRemaining counts the whole weeks left until the cycle's end date,
// rounding partial weeks up and never going below zero.
func WeeksRemaining(endDate, now time.Time) int {
	if !now.Before(endDate) {
		return 0
	}
	days := endDate.Sub(now).Hours() / 24
	return int(math.Ceil(days / 7))
}
