package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/IADOZERO/weeks-focus/internal/models"
	"github.com/google/uuid"
)

type ActionRepository interface {
	FindByID(ctx context.Context, userID string, id string) (models.Action, error)
	Create(ctx context.Context, action models.Action) (models.Action, error)
	Update(ctx context.Context, action models.Action) error
	SetCompleted(ctx context.Context, userID string, id string, completed bool, completedAt *time.Time) error
	Delete(ctx context.Context, userID string, id string) error
	CountForObjectiveWeek(ctx context.Context, objectiveID string, weekNumber int) (int, error)
}

type SQLiteActionRepository struct {
	database *sql.DB
}

func NewActionRepository(database *sql.DB) *SQLiteActionRepository {
	return &SQLiteActionRepository{database: database}
}

func (repository *SQLiteActionRepository) FindByID(ctx context.Context, userID string, id string) (models.Action, error) {
	var action models.Action
	err := repository.database.QueryRowContext(ctx,
		`SELECT id, objective_id, user_id, title, description, week_number, priority,
			estimated_time, completed, completed_at, notes, created_at, updated_at
		FROM actions WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(
		&action.ID, &action.ObjectiveID, &action.UserID, &action.Title, &action.Description,
		&action.WeekNumber, &action.Priority, &action.EstimatedTime,
		&action.Completed, &action.CompletedAt, &action.Notes, &action.CreatedAt, &action.UpdatedAt,
	)
	if err != nil {
		return models.Action{}, fmt.Errorf("finding action by id: %w", err)
	}
	return action, nil
}

// findAllByUser loads every action the user owns keyed by objective id.
// Used by the nested cycle fetch.
func (repository *SQLiteActionRepository) findAllByUser(ctx context.Context, userID string) (map[string][]models.Action, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT id, objective_id, user_id, title, description, week_number, priority,
			estimated_time, completed, completed_at, notes, created_at, updated_at
		FROM actions WHERE user_id = ? ORDER BY created_at`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding actions: %w", err)
	}
	defer rows.Close()

	byObjective := make(map[string][]models.Action)
	for rows.Next() {
		var action models.Action
		if err := rows.Scan(
			&action.ID, &action.ObjectiveID, &action.UserID, &action.Title, &action.Description,
			&action.WeekNumber, &action.Priority, &action.EstimatedTime,
			&action.Completed, &action.CompletedAt, &action.Notes, &action.CreatedAt, &action.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning action: %w", err)
		}
		byObjective[action.ObjectiveID] = append(byObjective[action.ObjectiveID], action)
	}
	return byObjective, rows.Err()
}

func (repository *SQLiteActionRepository) Create(ctx context.Context, action models.Action) (models.Action, error) {
	if action.ID == "" {
		action.ID = uuid.New().String()
	}
	now := time.Now()
	action.CreatedAt = now
	action.UpdatedAt = now
	if action.Priority == "" {
		action.Priority = models.PriorityMedium
	}

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO actions (id, objective_id, user_id, title, description, week_number, priority,
			estimated_time, completed, completed_at, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		action.ID, action.ObjectiveID, action.UserID, action.Title, action.Description,
		action.WeekNumber, action.Priority, action.EstimatedTime,
		action.Completed, action.CompletedAt, action.Notes, action.CreatedAt, action.UpdatedAt,
	)
	if err != nil {
		return models.Action{}, fmt.Errorf("creating action: %w", err)
	}
	return action, nil
}

func (repository *SQLiteActionRepository) Update(ctx context.Context, action models.Action) error {
	action.UpdatedAt = time.Now()
	result, err := repository.database.ExecContext(ctx,
		`UPDATE actions SET title = ?, description = ?, week_number = ?, priority = ?,
			estimated_time = ?, notes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		action.Title, action.Description, action.WeekNumber, action.Priority,
		action.EstimatedTime, action.Notes, action.UpdatedAt,
		action.ID, action.UserID,
	)
	if err != nil {
		return fmt.Errorf("updating action: %w", err)
	}
	return requireRowAffected(result, "updating action")
}

// SetCompleted writes completed and completed_at in one statement so no
// reader can observe the pair out of sync.
func (repository *SQLiteActionRepository) SetCompleted(ctx context.Context, userID string, id string, completed bool, completedAt *time.Time) error {
	result, err := repository.database.ExecContext(ctx,
		"UPDATE actions SET completed = ?, completed_at = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		completed, completedAt, time.Now(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("setting action completion: %w", err)
	}
	return requireRowAffected(result, "setting action completion")
}

func (repository *SQLiteActionRepository) Delete(ctx context.Context, userID string, id string) error {
	result, err := repository.database.ExecContext(ctx,
		"DELETE FROM actions WHERE id = ? AND user_id = ?", id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting action: %w", err)
	}
	return requireRowAffected(result, "deleting action")
}

func (repository *SQLiteActionRepository) CountForObjectiveWeek(ctx context.Context, objectiveID string, weekNumber int) (int, error) {
	var count int
	err := repository.database.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM actions WHERE objective_id = ? AND week_number = ?",
		objectiveID, weekNumber,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting actions: %w", err)
	}
	return count, nil
}
