package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IADOZERO/weeks-focus/internal/models"
	"github.com/google/uuid"
)

type WeeklyReviewRepository interface {
	FindByID(ctx context.Context, userID string, id string) (models.WeeklyReview, error)
	ExistsForWeek(ctx context.Context, cycleID string, weekNumber int) (bool, error)
	Create(ctx context.Context, review models.WeeklyReview) (models.WeeklyReview, error)
	Delete(ctx context.Context, userID string, id string) error
}

type SQLiteWeeklyReviewRepository struct {
	database *sql.DB
}

func NewWeeklyReviewRepository(database *sql.DB) *SQLiteWeeklyReviewRepository {
	return &SQLiteWeeklyReviewRepository{database: database}
}

func (repository *SQLiteWeeklyReviewRepository) FindByID(ctx context.Context, userID string, id string) (models.WeeklyReview, error) {
	row := repository.database.QueryRowContext(ctx,
		`SELECT id, cycle_id, user_id, week_number, completion_rate, obstacles, adjustments, learnings, created_at
		FROM weekly_reviews WHERE id = ? AND user_id = ?`, id, userID,
	)
	review, err := scanReview(row)
	if err != nil {
		return models.WeeklyReview{}, fmt.Errorf("finding weekly review by id: %w", err)
	}
	return review, nil
}

// findAllByUser loads every weekly review the user owns keyed by cycle id.
// Used by the nested cycle fetch.
func (repository *SQLiteWeeklyReviewRepository) findAllByUser(ctx context.Context, userID string) (map[string][]models.WeeklyReview, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT id, cycle_id, user_id, week_number, completion_rate, obstacles, adjustments, learnings, created_at
		FROM weekly_reviews WHERE user_id = ? ORDER BY week_number`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding weekly reviews: %w", err)
	}
	defer rows.Close()

	byCycle := make(map[string][]models.WeeklyReview)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning weekly review: %w", err)
		}
		byCycle[review.CycleID] = append(byCycle[review.CycleID], review)
	}
	return byCycle, rows.Err()
}

func (repository *SQLiteWeeklyReviewRepository) ExistsForWeek(ctx context.Context, cycleID string, weekNumber int) (bool, error) {
	var count int
	err := repository.database.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM weekly_reviews WHERE cycle_id = ? AND week_number = ?",
		cycleID, weekNumber,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking weekly review existence: %w", err)
	}
	return count > 0, nil
}

func (repository *SQLiteWeeklyReviewRepository) Create(ctx context.Context, review models.WeeklyReview) (models.WeeklyReview, error) {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	review.CreatedAt = time.Now()

	obstacles, err := marshalNotes(review.Obstacles)
	if err != nil {
		return models.WeeklyReview{}, err
	}
	adjustments, err := marshalNotes(review.Adjustments)
	if err != nil {
		return models.WeeklyReview{}, err
	}
	learnings, err := marshalNotes(review.Learnings)
	if err != nil {
		return models.WeeklyReview{}, err
	}

	_, err = repository.database.ExecContext(ctx,
		`INSERT INTO weekly_reviews (id, cycle_id, user_id, week_number, completion_rate,
			obstacles, adjustments, learnings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		review.ID, review.CycleID, review.UserID, review.WeekNumber, review.CompletionRate,
		obstacles, adjustments, learnings, review.CreatedAt,
	)
	if err != nil {
		return models.WeeklyReview{}, fmt.Errorf("creating weekly review: %w", err)
	}
	return review, nil
}

func (repository *SQLiteWeeklyReviewRepository) Delete(ctx context.Context, userID string, id string) error {
	result, err := repository.database.ExecContext(ctx,
		"DELETE FROM weekly_reviews WHERE id = ? AND user_id = ?", id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting weekly review: %w", err)
	}
	return requireRowAffected(result, "deleting weekly review")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(row rowScanner) (models.WeeklyReview, error) {
	var review models.WeeklyReview
	var obstacles, adjustments, learnings string
	if err := row.Scan(
		&review.ID, &review.CycleID, &review.UserID, &review.WeekNumber, &review.CompletionRate,
		&obstacles, &adjustments, &learnings, &review.CreatedAt,
	); err != nil {
		return models.WeeklyReview{}, err
	}
	if err := json.Unmarshal([]byte(obstacles), &review.Obstacles); err != nil {
		return models.WeeklyReview{}, fmt.Errorf("parsing obstacles: %w", err)
	}
	if err := json.Unmarshal([]byte(adjustments), &review.Adjustments); err != nil {
		return models.WeeklyReview{}, fmt.Errorf("parsing adjustments: %w", err)
	}
	if err := json.Unmarshal([]byte(learnings), &review.Learnings); err != nil {
		return models.WeeklyReview{}, fmt.Errorf("parsing learnings: %w", err)
	}
	return review, nil
}

func marshalNotes(notes []string) (string, error) {
	if notes == nil {
		notes = []string{}
	}
	data, err := json.Marshal(notes)
	if err != nil {
		return "", fmt.Errorf("marshaling review notes: %w", err)
	}
	return string(data), nil
}
