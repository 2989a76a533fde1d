package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IADOZERO/weeks-focus/internal/models"
	"github.com/IADOZERO/weeks-focus/internal/repository"
)

// Error kinds surfaced by planner mutations. Callers classify with
// errors.Is; everything else wraps the underlying cause.
var (
	ErrValidation  = errors.New("validation failed")
	ErrCapacity    = errors.New("capacity limit reached")
	ErrDuplicate   = errors.New("duplicate entry")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failure")
)

const (
	MaxObjectivesPerCycle = 3
	MaxActionsPerWeek     = 5
)

// PlannerService validates and applies every business mutation, keeping
// each user's in-memory aggregate consistent with the persisted store.
// Validation, capacity and duplicate checks run before any write; a
// failed write leaves the aggregate at its last confirmed state.
type PlannerService struct {
	cycleRepo     repository.CycleRepository
	objectiveRepo repository.ObjectiveRepository
	actionRepo    repository.ActionRepository
	reviewRepo    repository.WeeklyReviewRepository
	visionRepo    repository.VisionRepository

	mu         sync.Mutex
	aggregates map[string]*Aggregate

	locks *entityLocks
	now   func() time.Time
}

func NewPlannerService(
	cycleRepo repository.CycleRepository,
	objectiveRepo repository.ObjectiveRepository,
	actionRepo repository.ActionRepository,
	reviewRepo repository.WeeklyReviewRepository,
	visionRepo repository.VisionRepository,
) *PlannerService {
	return &PlannerService{
		cycleRepo:     cycleRepo,
		objectiveRepo: objectiveRepo,
		actionRepo:    actionRepo,
		reviewRepo:    reviewRepo,
		visionRepo:    visionRepo,
		aggregates:    make(map[string]*Aggregate),
		locks:         newEntityLocks(),
		now:           time.Now,
	}
}

func (service *PlannerService) aggregateFor(userID string) *Aggregate {
	service.mu.Lock()
	defer service.mu.Unlock()
	aggregate, ok := service.aggregates[userID]
	if !ok {
		aggregate = NewAggregate()
		service.aggregates[userID] = aggregate
	}
	return aggregate
}

// Refresh replaces the user's aggregate with a fresh nested fetch.
func (service *PlannerService) Refresh(ctx context.Context, userID string) error {
	cycles, err := service.cycleRepo.FindAllWithChildren(ctx, userID)
	if err != nil {
		return fmt.Errorf("refreshing cycles: %w: %w", ErrPersistence, err)
	}
	visions, err := service.visionRepo.FindAll(ctx, userID)
	if err != nil {
		return fmt.Errorf("refreshing visions: %w: %w", ErrPersistence, err)
	}
	service.aggregateFor(userID).Replace(cycles, visions)
	return nil
}

// Cycles returns the user's cycle tree, loading it on first access.
func (service *PlannerService) Cycles(ctx context.Context, userID string) ([]models.Cycle, error) {
	aggregate := service.aggregateFor(userID)
	if !aggregate.Loaded() {
		if err := service.Refresh(ctx, userID); err != nil {
			return nil, err
		}
	}
	return aggregate.Cycles(), nil
}

// Visions returns the user's visions, loading the aggregate on first access.
func (service *PlannerService) Visions(ctx context.Context, userID string) ([]models.Vision, error) {
	aggregate := service.aggregateFor(userID)
	if !aggregate.Loaded() {
		if err := service.Refresh(ctx, userID); err != nil {
			return nil, err
		}
	}
	return aggregate.Visions(), nil
}

func (service *PlannerService) CreateCycle(ctx context.Context, userID string, name string, startDate time.Time, status models.CycleStatus) (models.Cycle, error) {
	if name == "" {
		return models.Cycle{}, fmt.Errorf("%w: cycle name is required", ErrValidation)
	}
	if startDate.IsZero() {
		return models.Cycle{}, fmt.Errorf("%w: cycle start date is required", ErrValidation)
	}
	if status == "" {
		status = models.CycleStatusPlanning
	}
	if !validCycleStatus(status) {
		return models.Cycle{}, fmt.Errorf("%w: unknown cycle status %q", ErrValidation, status)
	}

	cycle := models.Cycle{
		UserID:    userID,
		Name:      name,
		StartDate: startDate,
		EndDate:   startDate.AddDate(0, 0, CycleDays),
		Status:    status,
	}

	created, err := service.cycleRepo.Create(ctx, cycle)
	if err != nil {
		return models.Cycle{}, fmt.Errorf("creating cycle: %w: %w", ErrPersistence, err)
	}
	created.Objectives = []models.Objective{}
	created.WeeklyReviews = []models.WeeklyReview{}
	service.aggregateFor(userID).InsertCycle(created)
	return created, nil
}

// CycleUpdate carries the fields a cycle update may change. Nil fields
// are left untouched.
type CycleUpdate struct {
	Name      *string
	StartDate *time.Time
	Status    *models.CycleStatus
}

func (service *PlannerService) UpdateCycle(ctx context.Context, userID string, id string, update CycleUpdate) (models.Cycle, error) {
	cycle, err := service.cycleRepo.FindByID(ctx, userID, id)
	if err != nil {
		return models.Cycle{}, classifyLookup("finding cycle", err)
	}

	if update.Name != nil {
		if *update.Name == "" {
			return models.Cycle{}, fmt.Errorf("%w: cycle name is required", ErrValidation)
		}
		cycle.Name = *update.Name
	}
	if update.StartDate != nil {
		if update.StartDate.IsZero() {
			return models.Cycle{}, fmt.Errorf("%w: cycle start date is required", ErrValidation)
		}
		cycle.StartDate = *update.StartDate
		cycle.EndDate = update.StartDate.AddDate(0, 0, CycleDays)
	}
	if update.Status != nil {
		if !validCycleStatus(*update.Status) {
			return models.Cycle{}, fmt.Errorf("%w: unknown cycle status %q", ErrValidation, *update.Status)
		}
		cycle.Status = *update.Status
	}

	if err := service.cycleRepo.Update(ctx, cycle); err != nil {
		return models.Cycle{}, classifyWrite("updating cycle", err)
	}

	service.aggregateFor(userID).UpdateCycle(id, func(current models.Cycle) models.Cycle {
		current.Name = cycle.Name
		current.StartDate = cycle.StartDate
		current.EndDate = cycle.EndDate
		current.Status = cycle.Status
		return current
	})
	return cycle, nil
}

func (service *PlannerService) DeleteCycle(ctx context.Context, userID string, id string) error {
	if err := service.cycleRepo.Delete(ctx, userID, id); err != nil {
		return classifyWrite("deleting cycle", err)
	}
	service.aggregateFor(userID).RemoveCycle(id)
	return nil
}

// ObjectiveInput carries the fields needed to create an objective.
type ObjectiveInput struct {
	Title       string
	Description string
	Measurable  string
	Deadline    time.Time
	VisionID    string
}

func (service *PlannerService) CreateObjective(ctx context.Context, userID string, cycleID string, input ObjectiveInput) (models.Objective, error) {
	if input.Title == "" {
		return models.Objective{}, fmt.Errorf("%w: objective title is required", ErrValidation)
	}
	if input.Measurable == "" {
		return models.Objective{}, fmt.Errorf("%w: objective success criterion is required", ErrValidation)
	}
	if input.Deadline.IsZero() {
		return models.Objective{}, fmt.Errorf("%w: objective deadline is required", ErrValidation)
	}
	if input.VisionID == "" {
		return models.Objective{}, fmt.Errorf("%w: objective vision is required", ErrValidation)
	}

	if _, err := service.cycleRepo.FindByID(ctx, userID, cycleID); err != nil {
		return models.Objective{}, classifyLookup("finding cycle", err)
	}
	if _, err := service.visionRepo.FindByID(ctx, userID, input.VisionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Objective{}, fmt.Errorf("%w: vision %s does not exist", ErrValidation, input.VisionID)
		}
		return models.Objective{}, fmt.Errorf("finding vision: %w: %w", ErrPersistence, err)
	}

	count, err := service.objectiveRepo.CountForCycle(ctx, cycleID)
	if err != nil {
		return models.Objective{}, fmt.Errorf("counting objectives: %w: %w", ErrPersistence, err)
	}
	if count >= MaxObjectivesPerCycle {
		return models.Objective{}, fmt.Errorf("%w: a cycle holds at most %d objectives", ErrCapacity, MaxObjectivesPerCycle)
	}

	objective := models.Objective{
		CycleID:     cycleID,
		VisionID:    input.VisionID,
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Measurable:  input.Measurable,
		Deadline:    input.Deadline,
	}

	created, err := service.objectiveRepo.Create(ctx, objective)
	if err != nil {
		return models.Objective{}, fmt.Errorf("creating objective: %w: %w", ErrPersistence, err)
	}
	created.Actions = []models.Action{}

	service.aggregateFor(userID).UpdateCycle(cycleID, func(cycle models.Cycle) models.Cycle {
		cycle.Objectives = append(cycle.Objectives, created)
		return cycle
	})
	return created, nil
}

// ToggleObjective flips completion; completed and completedAt change in
// the same persisted write.
func (service *PlannerService) ToggleObjective(ctx context.Context, userID string, id string) (models.Objective, error) {
	unlock := service.locks.lock(id)
	defer unlock()

	objective, err := service.objectiveRepo.FindByID(ctx, userID, id)
	if err != nil {
		return models.Objective{}, classifyLookup("finding objective", err)
	}

	objective.Completed = !objective.Completed
	if objective.Completed {
		completedAt := service.now()
		objective.CompletedAt = &completedAt
	} else {
		objective.CompletedAt = nil
	}

	if err := service.objectiveRepo.SetCompleted(ctx, userID, id, objective.Completed, objective.CompletedAt); err != nil {
		return models.Objective{}, classifyWrite("toggling objective", err)
	}

	service.aggregateFor(userID).UpdateCycle(objective.CycleID, func(cycle models.Cycle) models.Cycle {
		for i := range cycle.Objectives {
			if cycle.Objectives[i].ID == id {
				cycle.Objectives[i].Completed = objective.Completed
				cycle.Objectives[i].CompletedAt = objective.CompletedAt
			}
		}
		return cycle
	})
	return objective, nil
}

// DeleteObjective removes the objective and all of its actions. The
// store cascades the action rows; the aggregate drops the whole subtree
// in one swap so no orphaned action is ever visible.
func (service *PlannerService) DeleteObjective(ctx context.Context, userID string, id string) error {
	objective, err := service.objectiveRepo.FindByID(ctx, userID, id)
	if err != nil {
		return classifyLookup("finding objective", err)
	}
	if err := service.objectiveRepo.Delete(ctx, userID, id); err != nil {
		return classifyWrite("deleting objective", err)
	}

	service.aggregateFor(userID).UpdateCycle(objective.CycleID, func(cycle models.Cycle) models.Cycle {
		next := make([]models.Objective, 0, len(cycle.Objectives))
		for _, existing := range cycle.Objectives {
			if existing.ID != id {
				next = append(next, existing)
			}
		}
		cycle.Objectives = next
		return cycle
	})
	return nil
}

// ActionInput carries the fields needed to create an action.
type ActionInput struct {
	Title         string
	Description   string
	WeekNumber    int
	Priority      models.Priority
	EstimatedTime *float64
	Notes         string
}

func (service *PlannerService) CreateAction(ctx context.Context, userID string, objectiveID string, input ActionInput) (models.Action, error) {
	if input.Title == "" {
		return models.Action{}, fmt.Errorf("%w: action title is required", ErrValidation)
	}
	if input.WeekNumber < 1 || input.WeekNumber > CycleWeeks {
		return models.Action{}, fmt.Errorf("%w: week number must be between 1 and %d", ErrValidation, CycleWeeks)
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if !validPriority(input.Priority) {
		return models.Action{}, fmt.Errorf("%w: unknown priority %q", ErrValidation, input.Priority)
	}
	if input.EstimatedTime != nil && *input.EstimatedTime <= 0 {
		return models.Action{}, fmt.Errorf("%w: estimated time must be positive", ErrValidation)
	}

	objective, err := service.objectiveRepo.FindByID(ctx, userID, objectiveID)
	if err != nil {
		return models.Action{}, classifyLookup("finding objective", err)
	}

	count, err := service.actionRepo.CountForObjectiveWeek(ctx, objectiveID, input.WeekNumber)
	if err != nil {
		return models.Action{}, fmt.Errorf("counting actions: %w: %w", ErrPersistence, err)
	}
	if count >= MaxActionsPerWeek {
		return models.Action{}, fmt.Errorf("%w: an objective holds at most %d actions per week", ErrCapacity, MaxActionsPerWeek)
	}

	action := models.Action{
		ObjectiveID:   objectiveID,
		UserID:        userID,
		Title:         input.Title,
		Description:   input.Description,
		WeekNumber:    input.WeekNumber,
		Priority:      input.Priority,
		EstimatedTime: input.EstimatedTime,
		Notes:         input.Notes,
	}

	created, err := service.actionRepo.Create(ctx, action)
	if err != nil {
		return models.Action{}, fmt.Errorf("creating action: %w: %w", ErrPersistence, err)
	}

	service.aggregateFor(userID).UpdateCycle(objective.CycleID, func(cycle models.Cycle) models.Cycle {
		for i := range cycle.Objectives {
			if cycle.Objectives[i].ID == objectiveID {
				cycle.Objectives[i].Actions = append(cycle.Objectives[i].Actions, created)
			}
		}
		return cycle
	})
	return created, nil
}

// ToggleAction flips completion with an optimistic local update: the
// aggregate changes first so readers see the toggle immediately, and the
// previous state is restored if the persisted write fails. Overlapping
// toggles of the same action serialize on a per-id lock.
func (service *PlannerService) ToggleAction(ctx context.Context, userID string, id string) (models.Action, error) {
	unlock := service.locks.lock(id)
	defer unlock()

	aggregate := service.aggregateFor(userID)
	prior, cycleID, ok := findAction(aggregate.Cycles(), id)
	if !ok {
		// Aggregate may be stale or unloaded; fall back to the store.
		stored, err := service.actionRepo.FindByID(ctx, userID, id)
		if err != nil {
			return models.Action{}, classifyLookup("finding action", err)
		}
		prior = stored
		cycleID = ""
	}

	updated := prior
	updated.Completed = !prior.Completed
	if updated.Completed {
		completedAt := service.now()
		updated.CompletedAt = &completedAt
	} else {
		updated.CompletedAt = nil
	}

	if cycleID != "" {
		aggregate.UpdateCycle(cycleID, setAction(updated))
	}

	if err := service.actionRepo.SetCompleted(ctx, userID, id, updated.Completed, updated.CompletedAt); err != nil {
		if cycleID != "" {
			aggregate.UpdateCycle(cycleID, setAction(prior))
		}
		return models.Action{}, classifyWrite("toggling action", err)
	}
	return updated, nil
}

// ActionUpdate carries the editable fields of an action.
type ActionUpdate struct {
	Title         *string
	Description   *string
	WeekNumber    *int
	Priority      *models.Priority
	EstimatedTime *float64
	Notes         *string
}

func (service *PlannerService) UpdateAction(ctx context.Context, userID string, id string, update ActionUpdate) (models.Action, error) {
	action, err := service.actionRepo.FindByID(ctx, userID, id)
	if err != nil {
		return models.Action{}, classifyLookup("finding action", err)
	}

	if update.Title != nil {
		if *update.Title == "" {
			return models.Action{}, fmt.Errorf("%w: action title is required", ErrValidation)
		}
		action.Title = *update.Title
	}
	if update.Description != nil {
		action.Description = *update.Description
	}
	if update.WeekNumber != nil {
		if *update.WeekNumber < 1 || *update.WeekNumber > CycleWeeks {
			return models.Action{}, fmt.Errorf("%w: week number must be between 1 and %d", ErrValidation, CycleWeeks)
		}
		if *update.WeekNumber != action.WeekNumber {
			count, err := service.actionRepo.CountForObjectiveWeek(ctx, action.ObjectiveID, *update.WeekNumber)
			if err != nil {
				return models.Action{}, fmt.Errorf("counting actions: %w: %w", ErrPersistence, err)
			}
			if count >= MaxActionsPerWeek {
				return models.Action{}, fmt.Errorf("%w: an objective holds at most %d actions per week", ErrCapacity, MaxActionsPerWeek)
			}
		}
		action.WeekNumber = *update.WeekNumber
	}
	if update.Priority != nil {
		if !validPriority(*update.Priority) {
			return models.Action{}, fmt.Errorf("%w: unknown priority %q", ErrValidation, *update.Priority)
		}
		action.Priority = *update.Priority
	}
	if update.EstimatedTime != nil {
		if *update.EstimatedTime <= 0 {
			return models.Action{}, fmt.Errorf("%w: estimated time must be positive", ErrValidation)
		}
		action.EstimatedTime = update.EstimatedTime
	}
	if update.Notes != nil {
		action.Notes = *update.Notes
	}

	if err := service.actionRepo.Update(ctx, action); err != nil {
		return models.Action{}, classifyWrite("updating action", err)
	}

	objective, err := service.objectiveRepo.FindByID(ctx, userID, action.ObjectiveID)
	if err == nil {
		service.aggregateFor(userID).UpdateCycle(objective.CycleID, setAction(action))
	}
	return action, nil
}

func (service *PlannerService) DeleteAction(ctx context.Context, userID string, id string) error {
	action, err := service.actionRepo.FindByID(ctx, userID, id)
	if err != nil {
		return classifyLookup("finding action", err)
	}
	if err := service.actionRepo.Delete(ctx, userID, id); err != nil {
		return classifyWrite("deleting action", err)
	}

	objective, lookupErr := service.objectiveRepo.FindByID(ctx, userID, action.ObjectiveID)
	if lookupErr == nil {
		service.aggregateFor(userID).UpdateCycle(objective.CycleID, func(cycle models.Cycle) models.Cycle {
			for i := range cycle.Objectives {
				if cycle.Objectives[i].ID != action.ObjectiveID {
					continue
				}
				next := make([]models.Action, 0, len(cycle.Objectives[i].Actions))
				for _, existing := range cycle.Objectives[i].Actions {
					if existing.ID != id {
						next = append(next, existing)
					}
				}
				cycle.Objectives[i].Actions = next
			}
			return cycle
		})
	}
	return nil
}

// ReviewInput carries the fields needed to record a weekly review. The
// completion rate is captured as given and never recomputed.
type ReviewInput struct {
	WeekNumber     int
	CompletionRate float64
	Obstacles      []string
	Adjustments    []string
	Learnings      []string
}

func (service *PlannerService) CreateWeeklyReview(ctx context.Context, userID string, cycleID string, input ReviewInput) (models.WeeklyReview, error) {
	if input.WeekNumber < 1 || input.WeekNumber > CycleWeeks {
		return models.WeeklyReview{}, fmt.Errorf("%w: week number must be between 1 and %d", ErrValidation, CycleWeeks)
	}
	if input.CompletionRate < 0 || input.CompletionRate > 100 {
		return models.WeeklyReview{}, fmt.Errorf("%w: completion rate must be between 0 and 100", ErrValidation)
	}

	if _, err := service.cycleRepo.FindByID(ctx, userID, cycleID); err != nil {
		return models.WeeklyReview{}, classifyLookup("finding cycle", err)
	}

	exists, err := service.reviewRepo.ExistsForWeek(ctx, cycleID, input.WeekNumber)
	if err != nil {
		return models.WeeklyReview{}, fmt.Errorf("checking review: %w: %w", ErrPersistence, err)
	}
	if exists {
		return models.WeeklyReview{}, fmt.Errorf("%w: week %d already has a review", ErrDuplicate, input.WeekNumber)
	}

	review := models.WeeklyReview{
		CycleID:        cycleID,
		UserID:         userID,
		WeekNumber:     input.WeekNumber,
		CompletionRate: input.CompletionRate,
		Obstacles:      input.Obstacles,
		Adjustments:    input.Adjustments,
		Learnings:      input.Learnings,
	}

	created, err := service.reviewRepo.Create(ctx, review)
	if err != nil {
		return models.WeeklyReview{}, fmt.Errorf("creating weekly review: %w: %w", ErrPersistence, err)
	}

	service.aggregateFor(userID).UpdateCycle(cycleID, func(cycle models.Cycle) models.Cycle {
		cycle.WeeklyReviews = append(cycle.WeeklyReviews, created)
		return cycle
	})
	return created, nil
}

// VisionInput carries the fields needed to create or update a vision.
type VisionInput struct {
	Title       string
	Description string
	Category    models.VisionCategory
	Timeframe   models.VisionTimeframe
}

func (service *PlannerService) CreateVision(ctx context.Context, userID string, input VisionInput) (models.Vision, error) {
	if err := validateVisionInput(input); err != nil {
		return models.Vision{}, err
	}

	vision := models.Vision{
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Timeframe:   input.Timeframe,
	}

	created, err := service.visionRepo.Create(ctx, vision)
	if err != nil {
		return models.Vision{}, fmt.Errorf("creating vision: %w: %w", ErrPersistence, err)
	}
	service.aggregateFor(userID).InsertVision(created)
	return created, nil
}

func (service *PlannerService) UpdateVision(ctx context.Context, userID string, id string, input VisionInput) (models.Vision, error) {
	if err := validateVisionInput(input); err != nil {
		return models.Vision{}, err
	}

	vision, err := service.visionRepo.FindByID(ctx, userID, id)
	if err != nil {
		return models.Vision{}, classifyLookup("finding vision", err)
	}

	vision.Title = input.Title
	vision.Description = input.Description
	vision.Category = input.Category
	vision.Timeframe = input.Timeframe

	if err := service.visionRepo.Update(ctx, vision); err != nil {
		return models.Vision{}, classifyWrite("updating vision", err)
	}
	service.aggregateFor(userID).MergeVision(vision)
	return vision, nil
}

// DeleteVision refuses to remove a vision that objectives still point
// at; the user must delete or relink those objectives first.
func (service *PlannerService) DeleteVision(ctx context.Context, userID string, id string) error {
	references, err := service.visionRepo.CountObjectiveReferences(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("counting references: %w: %w", ErrPersistence, err)
	}
	if references > 0 {
		return fmt.Errorf("%w: vision is referenced by %d objectives", ErrValidation, references)
	}

	if err := service.visionRepo.Delete(ctx, userID, id); err != nil {
		return classifyWrite("deleting vision", err)
	}
	service.aggregateFor(userID).RemoveVision(id)
	return nil
}

func validateVisionInput(input VisionInput) error {
	if input.Title == "" {
		return fmt.Errorf("%w: vision title is required", ErrValidation)
	}
	switch input.Category {
	case models.VisionProfessional, models.VisionPersonal, models.VisionFinancial,
		models.VisionHealth, models.VisionRelationships:
	default:
		return fmt.Errorf("%w: unknown vision category %q", ErrValidation, input.Category)
	}
	switch input.Timeframe {
	case models.TimeframeTwoYears, models.TimeframeThreeYears:
	default:
		return fmt.Errorf("%w: unknown vision timeframe %q", ErrValidation, input.Timeframe)
	}
	return nil
}

func validCycleStatus(status models.CycleStatus) bool {
	switch status {
	case models.CycleStatusPlanning, models.CycleStatusActive,
		models.CycleStatusCompleted, models.CycleStatusPaused:
		return true
	}
	return false
}

func validPriority(priority models.Priority) bool {
	switch priority {
	case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
		return true
	}
	return false
}

func findAction(cycles []models.Cycle, actionID string) (models.Action, string, bool) {
	for _, cycle := range cycles {
		for _, objective := range cycle.Objectives {
			for _, action := range objective.Actions {
				if action.ID == actionID {
					return action, cycle.ID, true
				}
			}
		}
	}
	return models.Action{}, "", false
}

func setAction(action models.Action) func(models.Cycle) models.Cycle {
	return func(cycle models.Cycle) models.Cycle {
		for i := range cycle.Objectives {
			for j := range cycle.Objectives[i].Actions {
				if cycle.Objectives[i].Actions[j].ID == action.ID {
					cycle.Objectives[i].Actions[j] = action
				}
			}
		}
		return cycle
	}
}

func classifyLookup(operation string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", operation, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", operation, ErrPersistence, err)
}

func classifyWrite(operation string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", operation, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", operation, ErrPersistence, err)
}

// entityLocks hands out one mutex per entity id so writes against the
// same entity apply in issuance order.
type entityLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newEntityLocks() *entityLocks {
	return &entityLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *entityLocks) lock(id string) func() {
	l.mu.Lock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[id] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
