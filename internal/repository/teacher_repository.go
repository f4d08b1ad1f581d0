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

const teacherSelect = `SELECT t.id, t.user_id, t.department, t.position, t.created_at, u.email, u.first_name, u.last_name
	FROM teachers t JOIN users u ON u.id = t.user_id`

// TeacherRepository manages teacher profiles.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs the repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns all teachers with active accounts.
func (r *TeacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, teacherSelect+` WHERE u.active = TRUE ORDER BY u.last_name, u.first_name`); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// Count returns the number of teachers with active accounts.
func (r *TeacherRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM teachers t JOIN users u ON u.id = t.user_id WHERE u.active = TRUE`); err != nil {
		return 0, fmt.Errorf("count teachers: %w", err)
	}
	return total, nil
}

// FindByID returns a teacher profile.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, teacherSelect+` WHERE t.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher: %w", err)
	}
	return &teacher, nil
}

// TeacherIDByUser returns the teacher profile id owned by a user.
func (r *TeacherRepository) TeacherIDByUser(ctx context.Context, userID string) (string, error) {
	var id string
	if err := r.db.GetContext(ctx, &id, `SELECT id FROM teachers WHERE user_id = $1`, userID); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("find teacher by user: %w", err)
	}
	return id, nil
}

// TeacherGroupIDs returns the distinct groups taught by a teacher.
func (r *TeacherRepository) TeacherGroupIDs(ctx context.Context, teacherID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT DISTINCT group_id FROM courses WHERE teacher_id = $1`, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher groups: %w", err)
	}
	return ids, nil
}

// Create inserts the user account and the teacher profile in one transaction.
func (r *TeacherRepository) Create(ctx context.Context, user *models.User, teacher *models.Teacher) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create teacher: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	if err := insertUser(ctx, tx, user); err != nil {
		return err
	}
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	teacher.UserID = user.ID
	teacher.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO teachers (id, user_id, department, position, created_at) VALUES (:id, :user_id, :department, :position, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create teacher: %w", err)
	}
	commit = true
	teacher.Email = user.Email
	teacher.FirstName = user.FirstName
	teacher.LastName = user.LastName
	return nil
}
