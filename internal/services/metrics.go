package services

import (
	"time"

	"github.com/IADOZERO/weeks-focus/internal/models"
)

type DashboardMetrics struct {
	CycleID         string             `json:"cycleId"`
	CycleName       string             `json:"cycleName"`
	Status          models.CycleStatus `json:"status"`
	CurrentWeek     int                `json:"currentWeek"`
	WeeklyScore     float64            `json:"weeklyScore"`
	OverallProgress float64            `json:"overallProgress"`
	WeeksRemaining  int                `json:"weeksRemaining"`
	OnTarget        bool               `json:"onTarget"`
}

// Dashboard derives the headline metrics for the user's current cycle.
// Returns nil when the user has no cycles.
func Dashboard(cycles []models.Cycle, now time.Time) *DashboardMetrics {
	cycle := CurrentCycle(cycles)
	if cycle == nil {
		return nil
	}

	week := CurrentWeek(cycle.StartDate, now)
	weeklyScore := CompletionRate(ActionsForWeek(*cycle, week))

	return &DashboardMetrics{
		CycleID:         cycle.ID,
		CycleName:       cycle.Name,
		Status:          cycle.Status,
		CurrentWeek:     week,
		WeeklyScore:     weeklyScore,
		OverallProgress: CompletionRate(AllActions(*cycle)),
		WeeksRemaining:  WeeksRemaining(cycle.EndDate, now),
		OnTarget:        OnTarget(weeklyScore),
	}
}

type WeekScore struct {
	WeekNumber     int     `json:"weekNumber"`
	CompletionRate float64 `json:"completionRate"`
	Reviewed       bool    `json:"reviewed"`
}

// WeekScores lists weeks 1 through the current one. A week with a
// recorded review reports its frozen rate; otherwise the rate is computed
// live from that week's actions.
func WeekScores(cycle models.Cycle, now time.Time) []WeekScore {
	reviewed := make(map[int]float64, len(cycle.WeeklyReviews))
	for _, review := range cycle.WeeklyReviews {
		reviewed[review.WeekNumber] = review.CompletionRate
	}

	currentWeek := CurrentWeek(cycle.StartDate, now)
	scores := make([]WeekScore, 0, currentWeek)
	for week := 1; week <= currentWeek; week++ {
		score := WeekScore{WeekNumber: week}
		if rate, ok := reviewed[week]; ok {
			score.CompletionRate = rate
			score.Reviewed = true
		} else {
			score.CompletionRate = CompletionRate(ActionsForWeek(cycle, week))
		}
		scores = append(scores, score)
	}
	return scores
}

// AverageReviewRate is the mean of the cycle's recorded review rates,
// zero when no review exists yet.
func AverageReviewRate(cycle models.Cycle) float64 {
	if len(cycle.WeeklyReviews) == 0 {
		return 0
	}
	sum := 0.0
	for _, review := range cycle.WeeklyReviews {
		sum += review.CompletionRate
	}
	return sum / float64(len(cycle.WeeklyReviews))
}
