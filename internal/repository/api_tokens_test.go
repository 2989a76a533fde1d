package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/IADOZERO/weeks-focus/internal/models"
	"github.com/IADOZERO/weeks-focus/internal/repository"
	"github.com/IADOZERO/weeks-focus/internal/testutil"
)

func TestAPITokenRepository_CreateAndFindByHash(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewAPITokenRepository(db)
	ctx := context.Background()

	user := createTestUser(t, userRepo)

	rawToken := "test-token-12345"
	created, err := tokenRepo.Create(ctx, models.APIToken{
		Name:            "Test Token",
		TokenHash:       repository.HashToken(rawToken),
		CreatedByUserID: user.ID,
	})
	if err != nil {
		t.Fatalf("creating token: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected non-empty ID")
	}
	if created.Scope != "api" {
		t.Errorf("expected default api scope, got %s", created.Scope)
	}

	found, err := tokenRepo.FindByTokenHash(ctx, repository.HashToken(rawToken))
	if err != nil {
		t.Fatalf("finding token by hash: %v", err)
	}
	if found.Name != "Test Token" {
		t.Errorf("expected 'Test Token', got '%s'", found.Name)
	}

	if _, err := tokenRepo.FindByTokenHash(ctx, repository.HashToken("wrong")); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected no rows for unknown hash, got %v", err)
	}
}

func TestAPITokenRepository_DeleteScopedToOwner(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewAPITokenRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, userRepo)
	other, err := userRepo.Create(ctx, models.User{
		OIDCSubject: "other-subject", Email: "o@example.com", Name: "Other", Role: models.RoleMember,
	})
	if err != nil {
		t.Fatalf("creating second user: %v", err)
	}

	created, err := tokenRepo.Create(ctx, models.APIToken{
		Name: "Owned", TokenHash: "hash-owned", CreatedByUserID: owner.ID,
	})
	if err != nil {
		t.Fatalf("creating token: %v", err)
	}

	if err := tokenRepo.Delete(ctx, other.ID, created.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected no rows deleting another user's token, got %v", err)
	}
	if err := tokenRepo.Delete(ctx, owner.ID, created.ID); err != nil {
		t.Fatalf("deleting own token: %v", err)
	}

	tokens, err := tokenRepo.FindAllForUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("listing tokens: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("expected 0 tokens after delete, got %d", len(tokens))
	}
}

func TestHashToken(t *testing.T) {
	hash1 := repository.HashToken("token1")
	hash2 := repository.HashToken("token2")

	if hash1 == hash2 {
		t.Error("different tokens should produce different hashes")
	}
	if hash1 != repository.HashToken("token1") {
		t.Error("same token should produce same hash")
	}
}
