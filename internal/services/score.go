package services

import "github.com/IADOZERO/weeks-focus/internal/models"

// WeeklyTarget is the completion percentage a week must reach to count as
// on target. Consumed by presentation only; nothing here enforces it.
const WeeklyTarget = 85.0

// CompletionRate returns the percentage of completed actions in [0,100].
// An empty input scores 0. The function is week-agnostic; filtering to a
// week is the caller's job. Full precision is returned, rounding is a
// display concern.
func CompletionRate(actions []models.Action) float64 {
	if len(actions) == 0 {
		return 0
	}
	completed := 0
	for _, action := range actions {
		if action.Completed {
			completed++
		}
	}
	return float64(completed) / float64(len(actions)) * 100
}

// ObjectiveProgress scores a single objective over all of its actions.
func ObjectiveProgress(objective models.Objective) float64 {
	return CompletionRate(objective.Actions)
}

// OnTarget reports whether a weekly score meets the 85% execution target.
func OnTarget(rate float64) bool {
	return rate >= WeeklyTarget
}
