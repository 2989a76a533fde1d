package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/IADOZERO/weeks-focus/internal/models"
	"github.com/google/uuid"
)

type VisionRepository interface {
	FindByID(ctx context.Context, userID string, id string) (models.Vision, error)
	FindAll(ctx context.Context, userID string) ([]models.Vision, error)
	Create(ctx context.Context, vision models.Vision) (models.Vision, error)
	Update(ctx context.Context, vision models.Vision) error
	Delete(ctx context.Context, userID string, id string) error
	CountObjectiveReferences(ctx context.Context, userID string, id string) (int, error)
}

type SQLiteVisionRepository struct {
	database *sql.DB
}

func NewVisionRepository(database *sql.DB) *SQLiteVisionRepository {
	return &SQLiteVisionRepository{database: database}
}

func (repository *SQLiteVisionRepository) FindByID(ctx context.Context, userID string, id string) (models.Vision, error) {
	var vision models.Vision
	err := repository.database.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, category, timeframe, created_at
		FROM visions WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&vision.ID, &vision.UserID, &vision.Title, &vision.Description, &vision.Category, &vision.Timeframe, &vision.CreatedAt)
	if err != nil {
		return models.Vision{}, fmt.Errorf("finding vision by id: %w", err)
	}
	return vision, nil
}

func (repository *SQLiteVisionRepository) FindAll(ctx context.Context, userID string) ([]models.Vision, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT id, user_id, title, description, category, timeframe, created_at
		FROM visions WHERE user_id = ? ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding visions: %w", err)
	}
	defer rows.Close()

	var visions []models.Vision
	for rows.Next() {
		var vision models.Vision
		if err := rows.Scan(&vision.ID, &vision.UserID, &vision.Title, &vision.Description, &vision.Category, &vision.Timeframe, &vision.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning vision: %w", err)
		}
		visions = append(visions, vision)
	}
	return visions, rows.Err()
}

func (repository *SQLiteVisionRepository) Create(ctx context.Context, vision models.Vision) (models.Vision, error) {
	if vision.ID == "" {
		vision.ID = uuid.New().String()
	}
	vision.CreatedAt = time.Now()

	_, err := repository.database.ExecContext(ctx,
		"INSERT INTO visions (id, user_id, title, description, category, timeframe, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		vision.ID, vision.UserID, vision.Title, vision.Description, vision.Category, vision.Timeframe, vision.CreatedAt,
	)
	if err != nil {
		return models.Vision{}, fmt.Errorf("creating vision: %w", err)
	}
	return vision, nil
}

func (repository *SQLiteVisionRepository) Update(ctx context.Context, vision models.Vision) error {
	result, err := repository.database.ExecContext(ctx,
		"UPDATE visions SET title = ?, description = ?, category = ?, timeframe = ? WHERE id = ? AND user_id = ?",
		vision.Title, vision.Description, vision.Category, vision.Timeframe, vision.ID, vision.UserID,
	)
	if err != nil {
		return fmt.Errorf("updating vision: %w", err)
	}
	return requireRowAffected(result, "updating vision")
}

func (repository *SQLiteVisionRepository) Delete(ctx context.Context, userID string, id string) error {
	result, err := repository.database.ExecContext(ctx,
		"DELETE FROM visions WHERE id = ? AND user_id = ?", id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting vision: %w", err)
	}
	return requireRowAffected(result, "deleting vision")
}

func (repository *SQLiteVisionRepository) CountObjectiveReferences(ctx context.Context, userID string, id string) (int, error) {
	var count int
	err := repository.database.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM objectives WHERE vision_id = ? AND user_id = ?", id, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting objective references: %w", err)
	}
	return count, nil
}

// requireRowAffected maps writes that matched no row to sql.ErrNoRows so
// callers can treat them like a failed lookup.
func requireRowAffected(result sql.Result, operation string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", operation, sql.ErrNoRows)
	}
	return nil
}
