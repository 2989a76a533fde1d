package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/IADOZERO/weeks-focus/internal/models"
	"github.com/IADOZERO/weeks-focus/internal/repository"
	"github.com/IADOZERO/weeks-focus/internal/testutil"
)

func createTestVision(t *testing.T, visionRepo repository.VisionRepository, userID string) models.Vision {
	t.Helper()

	vision, err := visionRepo.Create(context.Background(), models.Vision{
		UserID:    userID,
		Title:     "Run a marathon",
		Category:  models.VisionHealth,
		Timeframe: models.TimeframeThreeYears,
	})
	if err != nil {
		t.Fatalf("creating test vision: %v", err)
	}
	return vision
}

func TestVisionRepository_CreateAndFind(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(db)
	visionRepo := repository.NewVisionRepository(db)
	ctx := context.Background()

	user := createTestUser(t, userRepo)
	vision := createTestVision(t, visionRepo, user.ID)
	if vision.ID == "" {
		t.Fatal("expected non-empty ID")
	}

	found, err := visionRepo.FindByID(ctx, user.ID, vision.ID)
	if err != nil {
		t.Fatalf("finding vision: %v", err)
	}
	if found.Category != models.VisionHealth || found.Timeframe != models.TimeframeThreeYears {
		t.Errorf("unexpected vision: %+v", found)
	}

	visions, err := visionRepo.FindAll(ctx, user.ID)
	if err != nil {
		t.Fatalf("finding visions: %v", err)
	}
	if len(visions) != 1 {
		t.Fatalf("expected 1 vision, got %d", len(visions))
	}
}

func TestVisionRepository_Update(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(db)
	visionRepo := repository.NewVisionRepository(db)
	ctx := context.Background()

	user := createTestUser(t, userRepo)
	vision := createTestVision(t, visionRepo, user.ID)

	vision.Title = "Run an ultra"
	vision.Timeframe = models.TimeframeTwoYears
	if err := visionRepo.Update(ctx, vision); err != nil {
		t.Fatalf("updating vision: %v", err)
	}

	found, err := visionRepo.FindByID(ctx, user.ID, vision.ID)
	if err != nil {
		t.Fatalf("finding vision: %v", err)
	}
	if found.Title != "Run an ultra" || found.Timeframe != models.TimeframeTwoYears {
		t.Errorf("update not persisted: %+v", found)
	}
}

func TestVisionRepository_CountObjectiveReferences(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(db)
	visionRepo := repository.NewVisionRepository(db)
	cycleRepo := repository.NewCycleRepository(db)
	objectiveRepo := repository.NewObjectiveRepository(db)
	ctx := context.Background()

	user := createTestUser(t, userRepo)
	vision := createTestVision(t, visionRepo, user.ID)
	cycle := createTestCycle(t, cycleRepo, user.ID)

	count, err := visionRepo.CountObjectiveReferences(ctx, user.ID, vision.ID)
	if err != nil {
		t.Fatalf("counting references: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 references, got %d", count)
	}

	if _, err := objectiveRepo.Create(ctx, models.Objective{
		CycleID:    cycle.ID,
		VisionID:   vision.ID,
		UserID:     user.ID,
		Title:      "Objective",
		Measurable: "m",
		Deadline:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("creating objective: %v", err)
	}

	count, err = visionRepo.CountObjectiveReferences(ctx, user.ID, vision.ID)
	if err != nil {
		t.Fatalf("counting references: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 reference, got %d", count)
	}
}

func TestVisionRepository_Delete(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(db)
	visionRepo := repository.NewVisionRepository(db)
	ctx := context.Background()

	user := createTestUser(t, userRepo)
	vision := createTestVision(t, visionRepo, user.ID)

	if err := visionRepo.Delete(ctx, user.ID, vision.ID); err != nil {
		t.Fatalf("deleting vision: %v", err)
	}
	if _, err := visionRepo.FindByID(ctx, user.ID, vision.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected no rows after delete, got %v", err)
	}
	if err := visionRepo.Delete(ctx, user.ID, vision.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected no rows deleting twice, got %v", err)
	}
}
