package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/IADOZERO/weeks-focus/internal/models"
	"github.com/google/uuid"
)

type ObjectiveRepository interface {
	FindByID(ctx context.Context, userID string, id string) (models.Objective, error)
	Create(ctx context.Context, objective models.Objective) (models.Objective, error)
	Update(ctx context.Context, objective models.Objective) error
	SetCompleted(ctx context.Context, userID string, id string, completed bool, completedAt *time.Time) error
	Delete(ctx context.Context, userID string, id string) error
	CountForCycle(ctx context.Context, cycleID string) (int, error)
}

type SQLiteObjectiveRepository struct {
	database   *sql.DB
	actionRepo *SQLiteActionRepository
}

func NewObjectiveRepository(database *sql.DB) *SQLiteObjectiveRepository {
	return &SQLiteObjectiveRepository{
		database:   database,
		actionRepo: NewActionRepository(database),
	}
}

func (repository *SQLiteObjectiveRepository) FindByID(ctx context.Context, userID string, id string) (models.Objective, error) {
	var objective models.Objective
	err := repository.database.QueryRowContext(ctx,
		`SELECT id, cycle_id, vision_id, user_id, title, description, measurable, deadline,
			completed, completed_at, created_at, updated_at
		FROM objectives WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(
		&objective.ID, &objective.CycleID, &objective.VisionID, &objective.UserID,
		&objective.Title, &objective.Description, &objective.Measurable, &objective.Deadline,
		&objective.Completed, &objective.CompletedAt, &objective.CreatedAt, &objective.UpdatedAt,
	)
	if err != nil {
		return models.Objective{}, fmt.Errorf("finding objective by id: %w", err)
	}
	return objective, nil
}

// findAllByUser loads every objective the user owns, actions attached,
// keyed by cycle id. Used by the nested cycle fetch.
func (repository *SQLiteObjectiveRepository) findAllByUser(ctx context.Context, userID string) (map[string][]models.Objective, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT id, cycle_id, vision_id, user_id, title, description, measurable, deadline,
			completed, completed_at, created_at, updated_at
		FROM objectives WHERE user_id = ? ORDER BY created_at`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding objectives: %w", err)
	}
	defer rows.Close()

	byCycle := make(map[string][]models.Objective)
	for rows.Next() {
		var objective models.Objective
		if err := rows.Scan(
			&objective.ID, &objective.CycleID, &objective.VisionID, &objective.UserID,
			&objective.Title, &objective.Description, &objective.Measurable, &objective.Deadline,
			&objective.Completed, &objective.CompletedAt, &objective.CreatedAt, &objective.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning objective: %w", err)
		}
		byCycle[objective.CycleID] = append(byCycle[objective.CycleID], objective)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	actionsByObjective, err := repository.actionRepo.findAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for cycleID, objectives := range byCycle {
		for i := range objectives {
			objectives[i].Actions = actionsByObjective[objectives[i].ID]
		}
		byCycle[cycleID] = objectives
	}
	return byCycle, nil
}

func (repository *SQLiteObjectiveRepository) Create(ctx context.Context, objective models.Objective) (models.Objective, error) {
	if objective.ID == "" {
		objective.ID = uuid.New().String()
	}
	now := time.Now()
	objective.CreatedAt = now
	objective.UpdatedAt = now

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO objectives (id, cycle_id, vision_id, user_id, title, description, measurable,
			deadline, completed, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		objective.ID, objective.CycleID, objective.VisionID, objective.UserID,
		objective.Title, objective.Description, objective.Measurable,
		objective.Deadline, objective.Completed, objective.CompletedAt,
		objective.CreatedAt, objective.UpdatedAt,
	)
	if err != nil {
		return models.Objective{}, fmt.Errorf("creating objective: %w", err)
	}
	return objective, nil
}

func (repository *SQLiteObjectiveRepository) Update(ctx context.Context, objective models.Objective) error {
	objective.UpdatedAt = time.Now()
	result, err := repository.database.ExecContext(ctx,
		`UPDATE objectives SET title = ?, description = ?, measurable = ?, deadline = ?,
			vision_id = ?, completed = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		objective.Title, objective.Description, objective.Measurable, objective.Deadline,
		objective.VisionID, objective.Completed, objective.CompletedAt, objective.UpdatedAt,
		objective.ID, objective.UserID,
	)
	if err != nil {
		return fmt.Errorf("updating objective: %w", err)
	}
	return requireRowAffected(result, "updating objective")
}

// SetCompleted writes completed and completed_at in one statement so no
// reader can observe the pair out of sync.
func (repository *SQLiteObjectiveRepository) SetCompleted(ctx context.Context, userID string, id string, completed bool, completedAt *time.Time) error {
	result, err := repository.database.ExecContext(ctx,
		"UPDATE objectives SET completed = ?, completed_at = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		completed, completedAt, time.Now(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("setting objective completion: %w", err)
	}
	return requireRowAffected(result, "setting objective completion")
}

func (repository *SQLiteObjectiveRepository) Delete(ctx context.Context, userID string, id string) error {
	result, err := repository.database.ExecContext(ctx,
		"DELETE FROM objectives WHERE id = ? AND user_id = ?", id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting objective: %w", err)
	}
	return requireRowAffected(result, "deleting objective")
}

func (repository *SQLiteObjectiveRepository) CountForCycle(ctx context.Context, cycleID string) (int, error) {
	var count int
	err := repository.database.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM objectives WHERE cycle_id = ?", cycleID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting objectives: %w", err)
	}
	return count, nil
}
