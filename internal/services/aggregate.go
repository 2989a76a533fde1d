package services

import (
	"sort"
	"sync"

	"github.com/IADOZERO/weeks-focus/internal/models"
)

// CurrentCycle picks the cycle with status active, falling back to the
// most recently created one. Returns nil for an empty set.
func CurrentCycle(cycles []models.Cycle) *models.Cycle {
	for i := range cycles {
		if cycles[i].Status == models.CycleStatusActive {
			cycle := cycles[i]
			return &cycle
		}
	}
	if len(cycles) == 0 {
		return nil
	}
	best := 0
	for i := range cycles {
		if cycles[i].CreatedAt.After(cycles[best].CreatedAt) {
			best = i
		}
	}
	cycle := cycles[best]
	return &cycle
}

// AllActions flattens every objective's actions in the cycle.
func AllActions(cycle models.Cycle) []models.Action {
	var actions []models.Action
	for _, objective := range cycle.Objectives {
		actions = append(actions, objective.Actions...)
	}
	return actions
}

// ActionsForWeek flattens all objectives' actions and keeps those
// assigned to the given week. Result order is unspecified.
func ActionsForWeek(cycle models.Cycle, weekNumber int) []models.Action {
	var actions []models.Action
	for _, objective := range cycle.Objectives {
		for _, action := range objective.Actions {
			if action.WeekNumber == weekNumber {
				actions = append(actions, action)
			}
		}
	}
	return actions
}

var priorityRank = map[models.Priority]int{
	models.PriorityHigh:   3,
	models.PriorityMedium: 2,
	models.PriorityLow:    1,
}

// SortActionsByPriority returns a copy sorted high > medium > low. The
// sort is stable: ties keep their relative input order.
func SortActionsByPriority(actions []models.Action) []models.Action {
	sorted := make([]models.Action, len(actions))
	copy(sorted, actions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return priorityRank[sorted[i].Priority] > priorityRank[sorted[j].Priority]
	})
	return sorted
}

// ObjectiveCount reports how many objectives the cycle holds, used to
// enforce the 3-objective limit before mutation.
func ObjectiveCount(cycle models.Cycle) int {
	return len(cycle.Objectives)
}

// ActionCountForWeek reports how many of the objective's actions sit in
// the given week, used to enforce the 5-action weekly limit.
func ActionCountForWeek(objective models.Objective, weekNumber int) int {
	count := 0
	for _, action := range objective.Actions {
		if action.WeekNumber == weekNumber {
			count++
		}
	}
	return count
}

// Aggregate holds one user's denormalized cycle tree in memory. Readers
// take snapshots; mutations clone the affected cycle and swap it in
// wholesale, so a snapshot never shows a half-applied change.
type Aggregate struct {
	mu      sync.RWMutex
	loaded  bool
	cycles  []models.Cycle
	visions []models.Vision
}

func NewAggregate() *Aggregate {
	return &Aggregate{}
}

func (aggregate *Aggregate) Loaded() bool {
	aggregate.mu.RLock()
	defer aggregate.mu.RUnlock()
	return aggregate.loaded
}

// Replace swaps in a freshly fetched tree, e.g. after a nested load.
func (aggregate *Aggregate) Replace(cycles []models.Cycle, visions []models.Vision) {
	aggregate.mu.Lock()
	defer aggregate.mu.Unlock()
	aggregate.cycles = cycles
	aggregate.visions = visions
	aggregate.loaded = true
}

// Cycles returns the current snapshot, newest cycle first.
func (aggregate *Aggregate) Cycles() []models.Cycle {
	aggregate.mu.RLock()
	defer aggregate.mu.RUnlock()
	return aggregate.cycles
}

func (aggregate *Aggregate) Visions() []models.Vision {
	aggregate.mu.RLock()
	defer aggregate.mu.RUnlock()
	return aggregate.visions
}

func (aggregate *Aggregate) Cycle(id string) (models.Cycle, bool) {
	aggregate.mu.RLock()
	defer aggregate.mu.RUnlock()
	for i := range aggregate.cycles {
		if aggregate.cycles[i].ID == id {
			return aggregate.cycles[i], true
		}
	}
	return models.Cycle{}, false
}

// InsertCycle prepends a cycle, keeping newest-first order.
func (aggregate *Aggregate) InsertCycle(cycle models.Cycle) {
	aggregate.mu.Lock()
	defer aggregate.mu.Unlock()
	next := make([]models.Cycle, 0, len(aggregate.cycles)+1)
	next = append(next, cycle)
	next = append(next, aggregate.cycles...)
	aggregate.cycles = next
}

// MergeCycle replaces the cycle with the same id, or prepends it when
// absent. Both the nested-fetch and single-entity update paths converge
// through this reducer.
func (aggregate *Aggregate) MergeCycle(cycle models.Cycle) {
	aggregate.mu.Lock()
	defer aggregate.mu.Unlock()
	for i := range aggregate.cycles {
		if aggregate.cycles[i].ID == cycle.ID {
			next := make([]models.Cycle, len(aggregate.cycles))
			copy(next, aggregate.cycles)
			next[i] = cycle
			aggregate.cycles = next
			return
		}
	}
	next := make([]models.Cycle, 0, len(aggregate.cycles)+1)
	next = append(next, cycle)
	next = append(next, aggregate.cycles...)
	aggregate.cycles = next
}

// UpdateCycle clones the cycle, applies patch to the clone, and swaps the
// result in. Reports whether the cycle was present.
func (aggregate *Aggregate) UpdateCycle(id string, patch func(models.Cycle) models.Cycle) bool {
	aggregate.mu.Lock()
	defer aggregate.mu.Unlock()
	for i := range aggregate.cycles {
		if aggregate.cycles[i].ID == id {
			next := make([]models.Cycle, len(aggregate.cycles))
			copy(next, aggregate.cycles)
			next[i] = patch(cloneCycle(aggregate.cycles[i]))
			aggregate.cycles = next
			return true
		}
	}
	return false
}

func (aggregate *Aggregate) RemoveCycle(id string) {
	aggregate.mu.Lock()
	defer aggregate.mu.Unlock()
	next := make([]models.Cycle, 0, len(aggregate.cycles))
	for _, cycle := range aggregate.cycles {
		if cycle.ID != id {
			next = append(next, cycle)
		}
	}
	aggregate.cycles = next
}

func (aggregate *Aggregate) InsertVision(vision models.Vision) {
	aggregate.mu.Lock()
	defer aggregate.mu.Unlock()
	next := make([]models.Vision, 0, len(aggregate.visions)+1)
	next = append(next, vision)
	next = append(next, aggregate.visions...)
	aggregate.visions = next
}

func (aggregate *Aggregate) MergeVision(vision models.Vision) {
	aggregate.mu.Lock()
	defer aggregate.mu.Unlock()
	for i := range aggregate.visions {
		if aggregate.visions[i].ID == vision.ID {
			next := make([]models.Vision, len(aggregate.visions))
			copy(next, aggregate.visions)
			next[i] = vision
			aggregate.visions = next
			return
		}
	}
	next := make([]models.Vision, 0, len(aggregate.visions)+1)
	next = append(next, vision)
	next = append(next, aggregate.visions...)
	aggregate.visions = next
}

func (aggregate *Aggregate) RemoveVision(id string) {
	aggregate.mu.Lock()
	defer aggregate.mu.Unlock()
	next := make([]models.Vision, 0, len(aggregate.visions))
	for _, vision := range aggregate.visions {
		if vision.ID != id {
			next = append(next, vision)
		}
	}
	aggregate.visions = next
}

// cloneCycle deep-copies the cycle's nested slices so a patch never
// mutates state a concurrent reader may hold.
func cloneCycle(cycle models.Cycle) models.Cycle {
	objectives := make([]models.Objective, len(cycle.Objectives))
	copy(objectives, cycle.Objectives)
	for i := range objectives {
		actions := make([]models.Action, len(objectives[i].Actions))
		copy(actions, objectives[i].Actions)
		objectives[i].Actions = actions
	}
	reviews := make([]models.WeeklyReview, len(cycle.WeeklyReviews))
	copy(reviews, cycle.WeeklyReviews)

	cycle.Objectives = objectives
	cycle.WeeklyReviews = reviews
	return cycle
}
