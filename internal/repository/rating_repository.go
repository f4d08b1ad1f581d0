package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-crm-api/internal/models"
)

// RatingRepository persists periodic ratings keyed by course, student and period.
type RatingRepository struct {
	db *sqlx.DB
}

// NewRatingRepository constructs the repository.
func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Save upserts a rating under the same lock-check-upsert transaction as grades.
func (r *RatingRepository) Save(ctx context.Context, rating *models.Rating, check EditCheck) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin save rating: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	var createdAt time.Time
	err = tx.GetContext(ctx, &createdAt, `SELECT created_at FROM ratings WHERE course_id = $1 AND student_id = $2 AND period = $3 FOR UPDATE`,
		rating.CourseID, rating.StudentID, rating.Period)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return false, fmt.Errorf("lock rating: %w", err)
	default:
		if err := check(createdAt); err != nil {
			return false, err
		}
	}

	now := time.Now().UTC()
	const query = `INSERT INTO ratings AS r (id, course_id, student_id, period, score, comment, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
ON CONFLICT (course_id, student_id, period) DO UPDATE SET score = EXCLUDED.score, comment = EXCLUDED.comment, updated_at = EXCLUDED.updated_at
RETURNING r.id, r.course_id, r.student_id, r.period, r.score, r.comment, r.created_by, r.created_at, r.updated_at, (r.xmax = 0) AS inserted`
	var row struct {
		models.Rating
		Inserted bool `db:"inserted"`
	}
	if err := tx.GetContext(ctx, &row, query, uuid.NewString(), rating.CourseID, rating.StudentID, rating.Period, rating.Score, rating.Comment, rating.CreatedBy, now); err != nil {
		return false, fmt.Errorf("upsert rating: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit save rating: %w", err)
	}
	commit = true
	*rating = row.Rating
	return row.Inserted, nil
}

// ListByCourse returns ratings recorded for a course.
func (r *RatingRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Rating, error) {
	var ratings []models.Rating
	const query = `SELECT id, course_id, student_id, period, score, comment, created_by, created_at, updated_at FROM ratings WHERE course_id = $1 ORDER BY student_id, period`
	if err := r.db.SelectContext(ctx, &ratings, query, courseID); err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return ratings, nil
}
