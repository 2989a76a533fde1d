package repository_test

import (
	"context"
	"testing"

	"github.com/IADOZERO/weeks-focus/internal/models"
	"github.com/IADOZERO/weeks-focus/internal/repository"
	"github.com/IADOZERO/weeks-focus/internal/testutil"
)

func createTestUser(t *testing.T, userRepo repository.UserRepository) models.User {
	t.Helper()

	user, err := userRepo.Create(context.Background(), models.User{
		OIDCSubject: "subject-" + t.Name(),
		Email:       "test@example.com",
		Name:        "Test User",
		Role:        models.RoleMember,
	})
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return user
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(db)
	ctx := context.Background()

	user := createTestUser(t, userRepo)
	if user.ID == "" {
		t.Fatal("expected non-empty ID")
	}

	found, err := userRepo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("finding user by id: %v", err)
	}
	if found.Email != "test@example.com" {
		t.Errorf("expected test@example.com, got %s", found.Email)
	}

	bySubject, err := userRepo.FindByOIDCSubject(ctx, user.OIDCSubject)
	if err != nil {
		t.Fatalf("finding user by subject: %v", err)
	}
	if bySubject.ID != user.ID {
		t.Errorf("expected id %s, got %s", user.ID, bySubject.ID)
	}
}

func TestUserRepository_Count(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(db)
	ctx := context.Background()

	count, err := userRepo.Count(ctx)
	if err != nil {
		t.Fatalf("counting users: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}

	createTestUser(t, userRepo)

	count, err = userRepo.Count(ctx)
	if err != nil {
		t.Fatalf("counting users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 user, got %d", count)
	}
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(db)
	ctx := context.Background()

	user := createTestUser(t, userRepo)

	if err := userRepo.UpdateProfile(ctx, user.ID, "New Name", "new@example.com", "https://example.com/a.png"); err != nil {
		t.Fatalf("updating profile: %v", err)
	}

	found, err := userRepo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("finding user: %v", err)
	}
	if found.Name != "New Name" || found.Email != "new@example.com" {
		t.Errorf("profile not updated: %+v", found)
	}
}
