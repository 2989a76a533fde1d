package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/IADOZERO/weeks-focus/internal/models"
	"github.com/google/uuid"
)

type CycleRepository interface {
	FindByID(ctx context.Context, userID string, id string) (models.Cycle, error)
	FindAllWithChildren(ctx context.Context, userID string) ([]models.Cycle, error)
	Create(ctx context.Context, cycle models.Cycle) (models.Cycle, error)
	Update(ctx context.Context, cycle models.Cycle) error
	Delete(ctx context.Context, userID string, id string) error
}

type SQLiteCycleRepository struct {
	database      *sql.DB
	objectiveRepo *SQLiteObjectiveRepository
	reviewRepo    *SQLiteWeeklyReviewRepository
}

func NewCycleRepository(database *sql.DB) *SQLiteCycleRepository {
	return &SQLiteCycleRepository{
		database:      database,
		objectiveRepo: NewObjectiveRepository(database),
		reviewRepo:    NewWeeklyReviewRepository(database),
	}
}

func (repository *SQLiteCycleRepository) FindByID(ctx context.Context, userID string, id string) (models.Cycle, error) {
	var cycle models.Cycle
	err := repository.database.QueryRowContext(ctx,
		`SELECT id, user_id, name, start_date, end_date, status, created_at, updated_at
		FROM cycles WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&cycle.ID, &cycle.UserID, &cycle.Name, &cycle.StartDate, &cycle.EndDate, &cycle.Status, &cycle.CreatedAt, &cycle.UpdatedAt)
	if err != nil {
		return models.Cycle{}, fmt.Errorf("finding cycle by id: %w", err)
	}
	return cycle, nil
}

// FindAllWithChildren loads the user's cycles newest-first with their
// objectives, actions and weekly reviews attached.
func (repository *SQLiteCycleRepository) FindAllWithChildren(ctx context.Context, userID string) ([]models.Cycle, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT id, user_id, name, start_date, end_date, status, created_at, updated_at
		FROM cycles WHERE user_id = ? ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding cycles: %w", err)
	}
	defer rows.Close()

	var cycles []models.Cycle
	for rows.Next() {
		var cycle models.Cycle
		if err := rows.Scan(&cycle.ID, &cycle.UserID, &cycle.Name, &cycle.StartDate, &cycle.EndDate, &cycle.Status, &cycle.CreatedAt, &cycle.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning cycle: %w", err)
		}
		cycles = append(cycles, cycle)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	objectivesByCycle, err := repository.objectiveRepo.findAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	reviewsByCycle, err := repository.reviewRepo.findAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range cycles {
		cycles[i].Objectives = objectivesByCycle[cycles[i].ID]
		cycles[i].WeeklyReviews = reviewsByCycle[cycles[i].ID]
	}
	return cycles, nil
}

func (repository *SQLiteCycleRepository) Create(ctx context.Context, cycle models.Cycle) (models.Cycle, error) {
	if cycle.ID == "" {
		cycle.ID = uuid.New().String()
	}
	now := time.Now()
	cycle.CreatedAt = now
	cycle.UpdatedAt = now
	if cycle.Status == "" {
		cycle.Status = models.CycleStatusPlanning
	}

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO cycles (id, user_id, name, start_date, end_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cycle.ID, cycle.UserID, cycle.Name, cycle.StartDate, cycle.EndDate, cycle.Status, cycle.CreatedAt, cycle.UpdatedAt,
	)
	if err != nil {
		return models.Cycle{}, fmt.Errorf("creating cycle: %w", err)
	}
	return cycle, nil
}

func (repository *SQLiteCycleRepository) Update(ctx context.Context, cycle models.Cycle) error {
	cycle.UpdatedAt = time.Now()
	result, err := repository.database.ExecContext(ctx,
		`UPDATE cycles SET name = ?, start_date = ?, end_date = ?, status = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		cycle.Name, cycle.StartDate, cycle.EndDate, cycle.Status, cycle.UpdatedAt, cycle.ID, cycle.UserID,
	)
	if err != nil {
		return fmt.Errorf("updating cycle: %w", err)
	}
	return requireRowAffected(result, "updating cycle")
}

func (repository *SQLiteCycleRepository) Delete(ctx context.Context, userID string, id string) error {
	result, err := repository.database.ExecContext(ctx,
		"DELETE FROM cycles WHERE id = ? AND user_id = ?", id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting cycle: %w", err)
	}
	return requireRowAffected(result, "deleting cycle")
}
