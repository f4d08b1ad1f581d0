package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
)

const gradeColumns = `g.id, g.course_id, g.student_id, g.grade_type, g.score, g.max_score, g.comment, g.created_by, g.created_at, g.updated_at`

// GradeRepository persists grades keyed by course, student and grade type.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// Save upserts a grade. An existing row is locked and passed through check first.
// The returned bool comes from the upsert itself (xmax is zero only for a freshly
// inserted tuple), so concurrent creators cannot both report a new row.
func (r *GradeRepository) Save(ctx context.Context, grade *models.Grade, check EditCheck) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin save grade: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	var createdAt time.Time
	err = tx.GetContext(ctx, &createdAt, `SELECT created_at FROM grades WHERE course_id = $1 AND student_id = $2 AND grade_type = $3 FOR UPDATE`,
		grade.CourseID, grade.StudentID, grade.GradeType)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return false, fmt.Errorf("lock grade: %w", err)
	default:
		if err := check(createdAt); err != nil {
			return false, err
		}
	}

	now := time.Now().UTC()
	const query = `INSERT INTO grades AS g (id, course_id, student_id, grade_type, score, max_score, comment, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
ON CONFLICT (course_id, student_id, grade_type) DO UPDATE SET score = EXCLUDED.score, max_score = EXCLUDED.max_score, comment = EXCLUDED.comment, updated_at = EXCLUDED.updated_at
RETURNING ` + gradeColumns + `, (g.xmax = 0) AS inserted`
	var row struct {
		models.Grade
		Inserted bool `db:"inserted"`
	}
	if err := tx.GetContext(ctx, &row, query, uuid.NewString(), grade.CourseID, grade.StudentID, grade.GradeType, grade.Score, grade.MaxScore, grade.Comment, grade.CreatedBy, now); err != nil {
		return false, fmt.Errorf("upsert grade: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit save grade: %w", err)
	}
	commit = true
	*grade = row.Grade
	return row.Inserted, nil
}

// List returns grades visible to scope.
func (r *GradeRepository) List(ctx context.Context, scope access.Scope, filter models.GradeFilter) ([]models.Grade, error) {
	where := []string{"1=1"}
	var args []interface{}
	courseClause, args := scopeCourses(scope, "c", args)
	if courseClause != "" {
		where = append(where, courseClause)
	}
	studentClause, args := scopeStudents(scope, "s", args)
	if studentClause != "" {
		where = append(where, studentClause)
	}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		where = append(where, fmt.Sprintf("g.course_id = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		where = append(where, fmt.Sprintf("g.student_id = $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s FROM grades g
	JOIN courses c ON c.id = g.course_id
	JOIN students s ON s.id = g.student_id
	WHERE %s ORDER BY g.course_id, g.student_id, g.grade_type`, gradeColumns, strings.Join(where, " AND "))
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// ByStudent returns every grade of a student across courses.
func (r *GradeRepository) ByStudent(ctx context.Context, studentID string) ([]models.CourseGradeRow, error) {
	var rows []models.CourseGradeRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT course_id, grade_type, score FROM grades WHERE student_id = $1`, studentID); err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	return rows, nil
}
