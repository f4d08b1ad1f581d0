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
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
)

const attendanceColumns = `a.id, a.course_id, a.student_id, a.date, a.status, a.activity_score, a.comment, a.created_by, a.created_at, a.updated_at`

// AttendanceRepository persists attendance rows keyed by course, student and date.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// List returns attendance rows visible to scope.
func (r *AttendanceRepository) List(ctx context.Context, scope access.Scope, filter models.AttendanceFilter) ([]models.Attendance, error) {
	where, args := attendanceConditions(scope, filter)
	query := fmt.Sprintf(`SELECT %s FROM attendance a
	JOIN courses c ON c.id = a.course_id
	JOIN students s ON s.id = a.student_id
	WHERE %s ORDER BY a.date DESC, a.student_id`, attendanceColumns, where)
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return rows, nil
}

// FindByID returns a single attendance row.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	var row models.Attendance
	if err := r.db.GetContext(ctx, &row, `SELECT `+attendanceColumns+` FROM attendance a WHERE a.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return &row, nil
}

// BulkUpsert saves a roster for one course and date in a single transaction.
// Existing rows are locked and passed through check; rejected rows are reported, not written.
func (r *AttendanceRepository) BulkUpsert(ctx context.Context, courseID string, date time.Time, items []models.BulkAttendanceItem, createdBy string, check EditCheck) (*models.BulkSaveResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk attendance: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	const lockQuery = `SELECT id, created_at FROM attendance WHERE course_id = $1 AND student_id = $2 AND date = $3 FOR UPDATE`
	const upsertQuery = `INSERT INTO attendance (id, course_id, student_id, date, status, activity_score, comment, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
ON CONFLICT (course_id, student_id, date) DO UPDATE SET status = EXCLUDED.status, activity_score = EXCLUDED.activity_score, comment = EXCLUDED.comment, updated_at = EXCLUDED.updated_at
RETURNING id`

	result := &models.BulkSaveResult{Skipped: []models.SkippedRecord{}}
	now := time.Now().UTC()
	for _, item := range items {
		var existing struct {
			ID        string    `db:"id"`
			CreatedAt time.Time `db:"created_at"`
		}
		err := tx.GetContext(ctx, &existing, lockQuery, courseID, item.StudentID, date)
		switch {
		case err == sql.ErrNoRows:
		case err != nil:
			return nil, fmt.Errorf("lock attendance: %w", err)
		default:
			if checkErr := check(existing.CreatedAt); checkErr != nil {
				result.Skipped = append(result.Skipped, models.SkippedRecord{
					StudentID: item.StudentID,
					Reason:    appErrors.FromError(checkErr).Code,
				})
				continue
			}
		}

		var id string
		if err := tx.QueryRowxContext(ctx, upsertQuery, uuid.NewString(), courseID, item.StudentID, date, item.Status, item.ActivityScore, item.Comment, createdBy, now).Scan(&id); err != nil {
			return nil, fmt.Errorf("upsert attendance: %w", err)
		}
		result.SavedCount++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk attendance: %w", err)
	}
	commit = true
	return result, nil
}

// Update edits one row after locking it and re-evaluating check.
func (r *AttendanceRepository) Update(ctx context.Context, id string, req models.UpdateAttendanceRequest, check EditCheck) (*models.Attendance, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update attendance: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	var createdAt time.Time
	if err := tx.GetContext(ctx, &createdAt, `SELECT created_at FROM attendance WHERE id = $1 FOR UPDATE`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock attendance: %w", err)
	}
	if err := check(createdAt); err != nil {
		return nil, err
	}

	const query = `UPDATE attendance a SET status = $2, activity_score = $3, comment = $4, updated_at = $5 WHERE a.id = $1 RETURNING ` + attendanceColumns
	var row models.Attendance
	if err := tx.GetContext(ctx, &row, query, id, req.Status, req.ActivityScore, req.Comment, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("update attendance: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update attendance: %w", err)
	}
	commit = true
	return &row, nil
}

// Tally counts attendance statuses matching filter, narrowed by scope.
func (r *AttendanceRepository) Tally(ctx context.Context, scope access.Scope, filter models.AttendanceFilter) (models.AttendanceTally, error) {
	where, args := attendanceConditions(scope, filter)
	query := fmt.Sprintf(`SELECT
	COUNT(*) FILTER (WHERE a.status = 'present') AS present,
	COUNT(*) FILTER (WHERE a.status = 'absent') AS absent,
	COUNT(*) FILTER (WHERE a.status = 'late') AS late,
	COUNT(*) AS total
	FROM attendance a
	JOIN courses c ON c.id = a.course_id
	JOIN students s ON s.id = a.student_id
	WHERE %s`, where)
	var tally models.AttendanceTally
	if err := r.db.GetContext(ctx, &tally, query, args...); err != nil {
		return models.AttendanceTally{}, fmt.Errorf("tally attendance: %w", err)
	}
	return tally, nil
}

// TallyByCourse returns one tally per course for a student.
func (r *AttendanceRepository) TallyByCourse(ctx context.Context, studentID string) ([]models.CourseTallyRow, error) {
	const query = `SELECT course_id,
	COUNT(*) FILTER (WHERE status = 'present') AS present,
	COUNT(*) FILTER (WHERE status = 'absent') AS absent,
	COUNT(*) FILTER (WHERE status = 'late') AS late,
	COUNT(*) AS total
	FROM attendance WHERE student_id = $1 GROUP BY course_id`
	var rows []models.CourseTallyRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("tally attendance by course: %w", err)
	}
	return rows, nil
}

// SummaryByGroup aggregates attendance per active student of a group over an inclusive date range.
func (r *AttendanceRepository) SummaryByGroup(ctx context.Context, groupID string, from, to time.Time, teacherID string) ([]models.AttendanceSummaryRow, error) {
	args := []interface{}{groupID, from, to}
	courseFilter := ""
	if teacherID != "" {
		args = append(args, teacherID)
		courseFilter = fmt.Sprintf(" AND a.course_id IN (SELECT id FROM courses WHERE teacher_id = $%d)", len(args))
	}
	query := fmt.Sprintf(`SELECT s.id AS student_id, s.student_code, u.first_name, u.last_name,
	COUNT(a.id) FILTER (WHERE a.status = 'present') AS present,
	COUNT(a.id) FILTER (WHERE a.status = 'absent') AS absent,
	COUNT(a.id) FILTER (WHERE a.status = 'late') AS late,
	COUNT(a.id) AS total
	FROM students s
	JOIN users u ON u.id = s.user_id
	LEFT JOIN attendance a ON a.student_id = s.id AND a.date BETWEEN $2 AND $3%s
	WHERE s.group_id = $1 AND s.status = 'active'
	GROUP BY s.id, s.student_code, u.first_name, u.last_name
	ORDER BY u.last_name, u.first_name`, courseFilter)
	var rows []models.AttendanceSummaryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("summarize attendance: %w", err)
	}
	return rows, nil
}

func attendanceConditions(scope access.Scope, filter models.AttendanceFilter) (string, []interface{}) {
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
		where = append(where, fmt.Sprintf("a.course_id = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		where = append(where, fmt.Sprintf("a.student_id = $%d", len(args)))
	}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		where = append(where, fmt.Sprintf("s.group_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where = append(where, fmt.Sprintf("a.date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where = append(where, fmt.Sprintf("a.date <= $%d", len(args)))
	}
	return strings.Join(where, " AND "), args
}
