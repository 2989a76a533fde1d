package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/IADOZERO/weeks-focus/internal/models"
	"github.com/IADOZERO/weeks-focus/internal/repository"
	"github.com/IADOZERO/weeks-focus/internal/testutil"
)

func newTestPlanner(t *testing.T) (*PlannerService, string, string) {
	t.Helper()

	db := testutil.NewTestDatabase(t)
	ctx := context.Background()

	userRepo := repository.NewUserRepository(db)
	user, err := userRepo.Create(ctx, models.User{
		OIDCSubject: "test-subject",
		Email:       "test@example.com",
		Name:        "Test User",
		Role:        models.RoleMember,
	})
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}

	planner := NewPlannerService(
		repository.NewCycleRepository(db),
		repository.NewObjectiveRepository(db),
		repository.NewActionRepository(db),
		repository.NewWeeklyReviewRepository(db),
		repository.NewVisionRepository(db),
	)

	vision, err := planner.CreateVision(ctx, user.ID, VisionInput{
		Title:     "Run a marathon",
		Category:  models.VisionHealth,
		Timeframe: models.TimeframeThreeYears,
	})
	if err != nil {
		t.Fatalf("creating test vision: %v", err)
	}

	return planner, user.ID, vision.ID
}

func mustCreateCycle(t *testing.T, planner *PlannerService, userID string, start time.Time) models.Cycle {
	t.Helper()
	cycle, err := planner.CreateCycle(context.Background(), userID, "Q1", start, models.CycleStatusActive)
	if err != nil {
		t.Fatalf("creating cycle: %v", err)
	}
	return cycle
}

func mustCreateObjective(t *testing.T, planner *PlannerService, userID, cycleID, visionID string) models.Objective {
	t.Helper()
	objective, err := planner.CreateObjective(context.Background(), userID, cycleID, ObjectiveInput{
		Title:      "Build aerobic base",
		Measurable: "Run 300km total",
		Deadline:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		VisionID:   visionID,
	})
	if err != nil {
		t.Fatalf("creating objective: %v", err)
	}
	return objective
}

func TestPlannerService_CreateCycle(t *testing.T) {
	planner, userID, _ := newTestPlanner(t)
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	cycle := mustCreateCycle(t, planner, userID, start)

	if !cycle.EndDate.Equal(start.AddDate(0, 0, 84)) {
		t.Fatalf("expected end date 84 days after start, got %v", cycle.EndDate)
	}
	if cycle.Status != models.CycleStatusActive {
		t.Fatalf("expected active status, got %s", cycle.Status)
	}

	cycles, err := planner.Cycles(context.Background(), userID)
	if err != nil {
		t.Fatalf("loading cycles: %v", err)
	}
	if len(cycles) != 1 || cycles[0].ID != cycle.ID {
		t.Fatalf("expected the created cycle in the aggregate, got %v", cycles)
	}
}

func TestPlannerService_CreateCycle_Validation(t *testing.T) {
	planner, userID, _ := newTestPlanner(t)
	ctx := context.Background()

	if _, err := planner.CreateCycle(ctx, userID, "", time.Now(), ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
	if _, err := planner.CreateCycle(ctx, userID, "Q1", time.Time{}, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for zero start date, got %v", err)
	}
	if _, err := planner.CreateCycle(ctx, userID, "Q1", time.Now(), "archived"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}

func TestPlannerService_UpdateCycle_RecomputesEndDate(t *testing.T) {
	planner, userID, _ := newTestPlanner(t)
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	cycle := mustCreateCycle(t, planner, userID, start)

	newStart := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	updated, err := planner.UpdateCycle(context.Background(), userID, cycle.ID, CycleUpdate{StartDate: &newStart})
	if err != nil {
		t.Fatalf("updating cycle: %v", err)
	}
	if !updated.EndDate.Equal(newStart.AddDate(0, 0, 84)) {
		t.Fatalf("expected end date recomputed from new start, got %v", updated.EndDate)
	}
}

func TestPlannerService_ObjectiveCapacity(t *testing.T) {
	planner, userID, visionID := newTestPlanner(t)
	cycle := mustCreateCycle(t, planner, userID, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for i := 0; i < MaxObjectivesPerCycle; i++ {
		if _, err := planner.CreateObjective(ctx, userID, cycle.ID, ObjectiveInput{
			Title:      fmt.Sprintf("Objective %d", i+1),
			Measurable: "measurable",
			Deadline:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
			VisionID:   visionID,
		}); err != nil {
			t.Fatalf("creating objective %d: %v", i+1, err)
		}
	}

	_, err := planner.CreateObjective(ctx, userID, cycle.ID, ObjectiveInput{
		Title:      "One too many",
		Measurable: "measurable",
		Deadline:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		VisionID:   visionID,
	})
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("expected capacity error for fourth objective, got %v", err)
	}
}

func TestPlannerService_CreateObjective_UnknownVision(t *testing.T) {
	planner, userID, _ := newTestPlanner(t)
	cycle := mustCreateCycle(t, planner, userID, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))

	_, err := planner.CreateObjective(context.Background(), userID, cycle.ID, ObjectiveInput{
		Title:      "Orphan",
		Measurable: "measurable",
		Deadline:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		VisionID:   "does-not-exist",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for unknown vision, got %v", err)
	}
}

func TestPlannerService_ActionCapacity(t *testing.T) {
	planner, userID, visionID := newTestPlanner(t)
	cycle := mustCreateCycle(t, planner, userID, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	objective := mustCreateObjective(t, planner, userID, cycle.ID, visionID)
	ctx := context.Background()

	for i := 0; i < MaxActionsPerWeek; i++ {
		if _, err := planner.CreateAction(ctx, userID, objective.ID, ActionInput{
			Title:      fmt.Sprintf("Action %d", i+1),
			WeekNumber: 1,
		}); err != nil {
			t.Fatalf("creating action %d: %v", i+1, err)
		}
	}

	if _, err := planner.CreateAction(ctx, userID, objective.ID, ActionInput{
		Title:      "One too many",
		WeekNumber: 1,
	}); !errors.Is(err, ErrCapacity) {
		t.Fatalf("expected capacity error for sixth action in week 1, got %v", err)
	}

	// Other weeks still have room.
	if _, err := planner.CreateAction(ctx, userID, objective.ID, ActionInput{
		Title:      "Week two action",
		WeekNumber: 2,
	}); err != nil {
		t.Fatalf("creating action in another week: %v", err)
	}
}

func TestPlannerService_CreateAction_Validation(t *testing.T) {
	planner, userID, visionID := newTestPlanner(t)
	cycle := mustCreateCycle(t, planner, userID, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	objective := mustCreateObjective(t, planner, userID, cycle.ID, visionID)
	ctx := context.Background()

	if _, err := planner.CreateAction(ctx, userID, objective.ID, ActionInput{Title: "x", WeekNumber: 0}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for week 0, got %v", err)
	}
	if _, err := planner.CreateAction(ctx, userID, objective.ID, ActionInput{Title: "x", WeekNumber: 13}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for week 13, got %v", err)
	}
	negative := -1.5
	if _, err := planner.CreateAction(ctx, userID, objective.ID, ActionInput{Title: "x", WeekNumber: 1, EstimatedTime: &negative}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for negative estimate, got %v", err)
	}

	created, err := planner.CreateAction(ctx, userID, objective.ID, ActionInput{Title: "defaults", WeekNumber: 1})
	if err != nil {
		t.Fatalf("creating action: %v", err)
	}
	if created.Priority != models.PriorityMedium {
		t.Fatalf("expected default medium priority, got %s", created.Priority)
	}
}

func TestPlannerService_ToggleAction(t *testing.T) {
	planner, userID, visionID := newTestPlanner(t)
	cycle := mustCreateCycle(t, planner, userID, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	objective := mustCreateObjective(t, planner, userID, cycle.ID, visionID)
	ctx := context.Background()

	toggledAt := time.Date(2025, 1, 8, 15, 0, 0, 0, time.UTC)
	planner.now = func() time.Time { return toggledAt }

	action, err := planner.CreateAction(ctx, userID, objective.ID, ActionInput{Title: "Run 5km", WeekNumber: 1})
	if err != nil {
		t.Fatalf("creating action: %v", err)
	}

	completed, err := planner.ToggleAction(ctx, userID, action.ID)
	if err != nil {
		t.Fatalf("toggling action: %v", err)
	}
	if !completed.Completed {
		t.Fatal("expected action completed after toggle")
	}
	if completed.CompletedAt == nil || !completed.CompletedAt.Equal(toggledAt) {
		t.Fatalf("expected completedAt %v, got %v", toggledAt, completed.CompletedAt)
	}

	reverted, err := planner.ToggleAction(ctx, userID, action.ID)
	if err != nil {
		t.Fatalf("toggling action back: %v", err)
	}
	if reverted.Completed || reverted.CompletedAt != nil {
		t.Fatalf("expected cleared completion, got %+v", reverted)
	}
}

// failingActionRepository delegates everything to the real store but
// refuses completion writes, simulating a mid-flight persistence outage.
type failingActionRepository struct {
	repository.ActionRepository
}

func (repo *failingActionRepository) SetCompleted(ctx context.Context, userID string, id string, completed bool, completedAt *time.Time) error {
	return errors.New("disk on fire")
}

func TestPlannerService_ToggleActionRollsBackOnFailure(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()

	userRepo := repository.NewUserRepository(db)
	user, err := userRepo.Create(ctx, models.User{OIDCSubject: "s", Email: "e", Name: "n", Role: models.RoleMember})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}

	planner := NewPlannerService(
		repository.NewCycleRepository(db),
		repository.NewObjectiveRepository(db),
		&failingActionRepository{ActionRepository: repository.NewActionRepository(db)},
		repository.NewWeeklyReviewRepository(db),
		repository.NewVisionRepository(db),
	)

	vision, err := planner.CreateVision(ctx, user.ID, VisionInput{
		Title: "v", Category: models.VisionPersonal, Timeframe: models.TimeframeTwoYears,
	})
	if err != nil {
		t.Fatalf("creating vision: %v", err)
	}
	cycle := mustCreateCycle(t, planner, user.ID, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	objective := mustCreateObjective(t, planner, user.ID, cycle.ID, vision.ID)
	action, err := planner.CreateAction(ctx, user.ID, objective.ID, ActionInput{Title: "a", WeekNumber: 1})
	if err != nil {
		t.Fatalf("creating action: %v", err)
	}

	if _, err := planner.ToggleAction(ctx, user.ID, action.ID); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	// The optimistic update must have been rolled back.
	cycles, err := planner.Cycles(ctx, user.ID)
	if err != nil {
		t.Fatalf("loading cycles: %v", err)
	}
	stored, _, ok := findAction(cycles, action.ID)
	if !ok {
		t.Fatal("action missing from aggregate")
	}
	if stored.Completed || stored.CompletedAt != nil {
		t.Fatalf("expected rolled back action, got %+v", stored)
	}
}

func TestPlannerService_DeleteObjectiveRemovesActions(t *testing.T) {
	planner, userID, visionID := newTestPlanner(t)
	cycle := mustCreateCycle(t, planner, userID, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	objective := mustCreateObjective(t, planner, userID, cycle.ID, visionID)
	ctx := context.Background()

	action, err := planner.CreateAction(ctx, userID, objective.ID, ActionInput{Title: "doomed", WeekNumber: 1})
	if err != nil {
		t.Fatalf("creating action: %v", err)
	}

	if err := planner.DeleteObjective(ctx, userID, objective.ID); err != nil {
		t.Fatalf("deleting objective: %v", err)
	}

	cycles, err := planner.Cycles(ctx, userID)
	if err != nil {
		t.Fatalf("loading cycles: %v", err)
	}
	for _, cycle := range cycles {
		if len(ActionsForWeek(cycle, 1)) != 0 {
			t.Fatal("expected no actions left in week 1 after cascade")
		}
	}

	// The store cascaded the action rows too.
	if _, err := planner.ToggleAction(ctx, userID, action.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for cascaded action, got %v", err)
	}
}

func TestPlannerService_WeeklyReview(t *testing.T) {
	planner, userID, _ := newTestPlanner(t)
	cycle := mustCreateCycle(t, planner, userID, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	if _, err := planner.CreateWeeklyReview(ctx, userID, cycle.ID, ReviewInput{WeekNumber: 0, CompletionRate: 50}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for week 0, got %v", err)
	}
	if _, err := planner.CreateWeeklyReview(ctx, userID, cycle.ID, ReviewInput{WeekNumber: 1, CompletionRate: 101}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for rate above 100, got %v", err)
	}

	review, err := planner.CreateWeeklyReview(ctx, userID, cycle.ID, ReviewInput{
		WeekNumber:     1,
		CompletionRate: 66.67,
		Obstacles:      []string{"travel"},
		Learnings:      []string{"plan mornings"},
	})
	if err != nil {
		t.Fatalf("creating review: %v", err)
	}
	if review.CompletionRate != 66.67 {
		t.Fatalf("expected captured rate 66.67, got %v", review.CompletionRate)
	}

	if _, err := planner.CreateWeeklyReview(ctx, userID, cycle.ID, ReviewInput{WeekNumber: 1, CompletionRate: 80}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate error for second review of week 1, got %v", err)
	}
}

func TestPlannerService_DeleteVisionBlockedWhileReferenced(t *testing.T) {
	planner, userID, visionID := newTestPlanner(t)
	cycle := mustCreateCycle(t, planner, userID, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	mustCreateObjective(t, planner, userID, cycle.ID, visionID)
	ctx := context.Background()

	if err := planner.DeleteVision(ctx, userID, visionID); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error while referenced, got %v", err)
	}

	unreferenced, err := planner.CreateVision(ctx, userID, VisionInput{
		Title: "Spare", Category: models.VisionFinancial, Timeframe: models.TimeframeTwoYears,
	})
	if err != nil {
		t.Fatalf("creating vision: %v", err)
	}
	if err := planner.DeleteVision(ctx, userID, unreferenced.ID); err != nil {
		t.Fatalf("deleting unreferenced vision: %v", err)
	}
}

func TestPlannerService_ExecutionScenario(t *testing.T) {
	planner, userID, visionID := newTestPlanner(t)
	ctx := context.Background()

	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	cycle := mustCreateCycle(t, planner, userID, start)
	objective := mustCreateObjective(t, planner, userID, cycle.ID, visionID)

	var actions []models.Action
	for i := 0; i < 3; i++ {
		action, err := planner.CreateAction(ctx, userID, objective.ID, ActionInput{
			Title:      fmt.Sprintf("Session %d", i+1),
			WeekNumber: 1,
		})
		if err != nil {
			t.Fatalf("creating action %d: %v", i+1, err)
		}
		actions = append(actions, action)
	}

	for _, action := range actions[:2] {
		if _, err := planner.ToggleAction(ctx, userID, action.ID); err != nil {
			t.Fatalf("toggling action: %v", err)
		}
	}

	cycles, err := planner.Cycles(ctx, userID)
	if err != nil {
		t.Fatalf("loading cycles: %v", err)
	}

	midWeek := time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)
	metrics := Dashboard(cycles, midWeek)
	if metrics == nil {
		t.Fatal("expected dashboard metrics")
	}
	if metrics.CurrentWeek != 1 {
		t.Fatalf("expected week 1 on Jan 8, got %d", metrics.CurrentWeek)
	}
	expected := 100.0 * 2 / 3
	if metrics.WeeklyScore != expected {
		t.Fatalf("expected weekly score %v, got %v", expected, metrics.WeeklyScore)
	}
	if metrics.OnTarget {
		t.Fatal("two of three should be below the 85% target")
	}

	if _, err := planner.ToggleAction(ctx, userID, actions[2].ID); err != nil {
		t.Fatalf("toggling final action: %v", err)
	}
	cycles, _ = planner.Cycles(ctx, userID)
	metrics = Dashboard(cycles, midWeek)
	if metrics.WeeklyScore != 100 || !metrics.OnTarget {
		t.Fatalf("expected a perfect on-target week, got %+v", metrics)
	}

	// One calendar week later the cycle moves to week 2.
	nextMonday := time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC)
	metrics = Dashboard(cycles, nextMonday)
	if metrics.CurrentWeek != 2 {
		t.Fatalf("expected week 2 on Jan 13, got %d", metrics.CurrentWeek)
	}
	if metrics.WeeklyScore != 0 {
		t.Fatalf("expected empty week 2 to score 0, got %v", metrics.WeeklyScore)
	}

	// Week 1 keeps its perfect score when queried explicitly.
	current := CurrentCycle(cycles)
	if rate := CompletionRate(ActionsForWeek(*current, 1)); rate != 100 {
		t.Fatalf("expected week 1 to still score 100, got %v", rate)
	}
}
