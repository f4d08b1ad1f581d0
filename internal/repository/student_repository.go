package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
)

const studentSelect = `SELECT s.id, s.user_id, s.student_code, s.group_id, s.parent_id, s.status, s.enrollment_date, s.created_at, s.updated_at,
	u.email, u.first_name, u.last_name, g.name AS group_name, g.course_year
	FROM students s
	JOIN users u ON u.id = s.user_id
	JOIN groups g ON g.id = s.group_id`

// StudentRepository manages student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns the students visible to scope with the total count.
func (r *StudentRepository) List(ctx context.Context, scope access.Scope, filter models.StudentFilter) ([]models.Student, int, error) {
	where, args := studentConditions(scope, filter)
	_, pageSize, offset := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("%s WHERE %s ORDER BY u.last_name, u.first_name LIMIT %d OFFSET %d", studentSelect, where, pageSize, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM students s JOIN users u ON u.id = s.user_id JOIN groups g ON g.id = s.group_id WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// Search returns up to limit students visible to scope.
func (r *StudentRepository) Search(ctx context.Context, scope access.Scope, filter models.StudentFilter, limit int) ([]models.Student, error) {
	where, args := studentConditions(scope, filter)
	query := fmt.Sprintf("%s WHERE %s ORDER BY u.last_name, u.first_name LIMIT %d", studentSelect, where, limit)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return students, nil
}

// Count returns how many students scope can see.
func (r *StudentRepository) Count(ctx context.Context, scope access.Scope, filter models.StudentFilter) (int, error) {
	where, args := studentConditions(scope, filter)
	query := fmt.Sprintf("SELECT COUNT(*) FROM students s JOIN users u ON u.id = s.user_id JOIN groups g ON g.id = s.group_id WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// FindByID returns a student profile.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	if err := r.db.GetContext(ctx, &student, studentSelect+` WHERE s.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// StudentByUser returns the student profile owned by a user.
func (r *StudentRepository) StudentByUser(ctx context.Context, userID string) (*models.Student, error) {
	var student models.Student
	if err := r.db.GetContext(ctx, &student, studentSelect+` WHERE s.user_id = $1`, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by user: %w", err)
	}
	return &student, nil
}

// ChildrenOf returns the students linked to a parent user.
func (r *StudentRepository) ChildrenOf(ctx context.Context, parentUserID string) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, studentSelect+` WHERE s.parent_id = $1 ORDER BY u.first_name`, parentUserID); err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return students, nil
}

// ListActiveByGroup returns the active roster of a group.
func (r *StudentRepository) ListActiveByGroup(ctx context.Context, groupID string) ([]models.Student, error) {
	var students []models.Student
	query := studentSelect + ` WHERE s.group_id = $1 AND s.status = 'active' ORDER BY u.last_name, u.first_name`
	if err := r.db.SelectContext(ctx, &students, query, groupID); err != nil {
		return nil, fmt.Errorf("list group students: %w", err)
	}
	return students, nil
}

// Create inserts the user account and the student profile in one transaction.
func (r *StudentRepository) Create(ctx context.Context, user *models.User, student *models.Student) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create student: %w", err)
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
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.UserID = user.ID
	student.CreatedAt = now
	student.UpdatedAt = now
	if student.Status == "" {
		student.Status = models.StudentActive
	}
	if student.EnrollmentDate.IsZero() {
		student.EnrollmentDate = now
	}
	const query = `INSERT INTO students (id, user_id, student_code, group_id, parent_id, status, enrollment_date, created_at, updated_at)
VALUES (:id, :user_id, :student_code, :group_id, :parent_id, :status, :enrollment_date, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create student: %w", err)
	}
	commit = true
	student.Email = user.Email
	student.FirstName = user.FirstName
	student.LastName = user.LastName
	return nil
}

// Update writes profile and name changes in one transaction.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update student: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	student.UpdatedAt = now
	const profileQuery = `UPDATE students SET group_id = $2, parent_id = $3, status = $4, updated_at = $5 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, profileQuery, student.ID, student.GroupID, student.ParentID, student.Status, now); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	const userQuery = `UPDATE users SET first_name = $2, last_name = $3, active = $4, updated_at = $5 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, userQuery, student.UserID, student.FirstName, student.LastName, student.Status.CanLogin(), now); err != nil {
		return fmt.Errorf("update student user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update student: %w", err)
	}
	commit = true
	return nil
}

// SetStatus changes the lifecycle status and, in the same transaction, disables the login of a
// student who is no longer active (or re-enables it on return).
func (r *StudentRepository) SetStatus(ctx context.Context, id string, status models.StudentStatus) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set student status: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	var userID string
	const profileQuery = `UPDATE students SET status = $2, updated_at = $3 WHERE id = $1 RETURNING user_id`
	if err := tx.GetContext(ctx, &userID, profileQuery, id, status, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("set student status: %w", err)
	}
	const userQuery = `UPDATE users SET active = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, userQuery, userID, status.CanLogin(), now); err != nil {
		return fmt.Errorf("set student login state: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set student status: %w", err)
	}
	commit = true
	return nil
}

func studentConditions(scope access.Scope, filter models.StudentFilter) (string, []interface{}) {
	where := []string{"1=1"}
	var args []interface{}

	clause, args := scopeStudents(scope, "s", args)
	if clause != "" {
		where = append(where, clause)
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(LOWER(u.first_name) LIKE $%d OR LOWER(u.last_name) LIKE $%d OR LOWER(s.student_code) LIKE $%d)", n, n, n))
	}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		where = append(where, fmt.Sprintf("s.group_id = $%d", len(args)))
	}
	if filter.CourseYear > 0 {
		args = append(args, filter.CourseYear)
		where = append(where, fmt.Sprintf("g.course_year = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("s.status = $%d", len(args)))
	}
	return strings.Join(where, " AND "), args
}
