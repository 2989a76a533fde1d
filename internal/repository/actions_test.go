package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/IADOZERO/weeks-focus/internal/models"
	"github.com/IADOZERO/weeks-focus/internal/repository"
	"github.com/IADOZERO/weeks-focus/internal/testutil"
)

type actionFixture struct {
	userID        string
	objectiveID   string
	actionRepo    repository.ActionRepository
	objectiveRepo repository.ObjectiveRepository
}

func newActionFixture(t *testing.T) actionFixture {
	t.Helper()

	db := testutil.NewTestDatabase(t)
	ctx := context.Background()

	userRepo := repository.NewUserRepository(db)
	visionRepo := repository.NewVisionRepository(db)
	cycleRepo := repository.NewCycleRepository(db)
	objectiveRepo := repository.NewObjectiveRepository(db)

	user := createTestUser(t, userRepo)
	vision := createTestVision(t, visionRepo, user.ID)
	cycle := createTestCycle(t, cycleRepo, user.ID)

	objective, err := objectiveRepo.Create(ctx, models.Objective{
		CycleID:    cycle.ID,
		VisionID:   vision.ID,
		UserID:     user.ID,
		Title:      "Objective",
		Measurable: "m",
		Deadline:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("creating objective: %v", err)
	}

	return actionFixture{
		userID:        user.ID,
		objectiveID:   objective.ID,
		actionRepo:    repository.NewActionRepository(db),
		objectiveRepo: objectiveRepo,
	}
}

func TestActionRepository_CreateDefaults(t *testing.T) {
	fixture := newActionFixture(t)
	ctx := context.Background()

	created, err := fixture.actionRepo.Create(ctx, models.Action{
		ObjectiveID: fixture.objectiveID,
		UserID:      fixture.userID,
		Title:       "Run 5km",
		WeekNumber:  1,
	})
	if err != nil {
		t.Fatalf("creating action: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected non-empty ID")
	}
	if created.Priority != models.PriorityMedium {
		t.Errorf("expected default medium priority, got %s", created.Priority)
	}

	found, err := fixture.actionRepo.FindByID(ctx, fixture.userID, created.ID)
	if err != nil {
		t.Fatalf("finding action: %v", err)
	}
	if found.Completed || found.CompletedAt != nil {
		t.Errorf("new action should not be completed: %+v", found)
	}
}

func TestActionRepository_SetCompleted(t *testing.T) {
	fixture := newActionFixture(t)
	ctx := context.Background()

	created, err := fixture.actionRepo.Create(ctx, models.Action{
		ObjectiveID: fixture.objectiveID,
		UserID:      fixture.userID,
		Title:       "Run 5km",
		WeekNumber:  1,
	})
	if err != nil {
		t.Fatalf("creating action: %v", err)
	}

	completedAt := time.Date(2025, 1, 8, 15, 0, 0, 0, time.UTC)
	if err := fixture.actionRepo.SetCompleted(ctx, fixture.userID, created.ID, true, &completedAt); err != nil {
		t.Fatalf("setting completed: %v", err)
	}

	found, err := fixture.actionRepo.FindByID(ctx, fixture.userID, created.ID)
	if err != nil {
		t.Fatalf("finding action: %v", err)
	}
	if !found.Completed || found.CompletedAt == nil {
		t.Fatalf("expected completed with timestamp, got %+v", found)
	}

	// Clearing completion also clears the timestamp in the same write.
	if err := fixture.actionRepo.SetCompleted(ctx, fixture.userID, created.ID, false, nil); err != nil {
		t.Fatalf("clearing completed: %v", err)
	}
	found, err = fixture.actionRepo.FindByID(ctx, fixture.userID, created.ID)
	if err != nil {
		t.Fatalf("finding action: %v", err)
	}
	if found.Completed || found.CompletedAt != nil {
		t.Fatalf("expected cleared completion, got %+v", found)
	}
}

func TestActionRepository_CountForObjectiveWeek(t *testing.T) {
	fixture := newActionFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := fixture.actionRepo.Create(ctx, models.Action{
			ObjectiveID: fixture.objectiveID,
			UserID:      fixture.userID,
			Title:       "Action",
			WeekNumber:  2,
		}); err != nil {
			t.Fatalf("creating action: %v", err)
		}
	}
	if _, err := fixture.actionRepo.Create(ctx, models.Action{
		ObjectiveID: fixture.objectiveID,
		UserID:      fixture.userID,
		Title:       "Other week",
		WeekNumber:  3,
	}); err != nil {
		t.Fatalf("creating action: %v", err)
	}

	count, err := fixture.actionRepo.CountForObjectiveWeek(ctx, fixture.objectiveID, 2)
	if err != nil {
		t.Fatalf("counting actions: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 actions in week 2, got %d", count)
	}
}

func TestObjectiveRepository_SetCompleted(t *testing.T) {
	fixture := newActionFixture(t)
	ctx := context.Background()

	completedAt := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	if err := fixture.objectiveRepo.SetCompleted(ctx, fixture.userID, fixture.objectiveID, true, &completedAt); err != nil {
		t.Fatalf("setting objective completed: %v", err)
	}

	found, err := fixture.objectiveRepo.FindByID(ctx, fixture.userID, fixture.objectiveID)
	if err != nil {
		t.Fatalf("finding objective: %v", err)
	}
	if !found.Completed || found.CompletedAt == nil {
		t.Fatalf("expected completed objective with timestamp, got %+v", found)
	}
}
