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

const courseFrom = `FROM courses c
	JOIN subjects sub ON sub.id = c.subject_id
	JOIN teachers t ON t.id = c.teacher_id
	JOIN users tu ON tu.id = t.user_id
	JOIN groups g ON g.id = c.group_id`

const courseSelect = `SELECT c.id, c.subject_id, c.teacher_id, c.group_id, c.academic_year, c.semester, c.active, c.created_at,
	sub.name AS subject_name, sub.code AS subject_code, sub.credits,
	TRIM(tu.first_name || ' ' || tu.last_name) AS teacher_name, g.name AS group_name ` + courseFrom

// CourseRepository manages course offerings and their derived enrollments.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns the courses visible to scope.
func (r *CourseRepository) List(ctx context.Context, scope access.Scope, filter models.CourseFilter) ([]models.Course, error) {
	where, args := courseConditions(scope, filter)
	query := fmt.Sprintf("%s WHERE %s ORDER BY c.academic_year DESC, c.semester, sub.name", courseSelect, where)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// Count returns how many courses scope can see.
func (r *CourseRepository) Count(ctx context.Context, scope access.Scope, filter models.CourseFilter) (int, error) {
	where, args := courseConditions(scope, filter)
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", courseFrom, where), args...); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return total, nil
}

// FindByID returns a course with subject, teacher and group names.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := r.db.GetContext(ctx, &course, courseSelect+` WHERE c.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// ActiveByGroup returns the active courses taught to a group.
func (r *CourseRepository) ActiveByGroup(ctx context.Context, groupID string) ([]models.Course, error) {
	var courses []models.Course
	query := courseSelect + ` WHERE c.group_id = $1 AND c.active = TRUE ORDER BY c.academic_year, c.semester, sub.name`
	if err := r.db.SelectContext(ctx, &courses, query, groupID); err != nil {
		return nil, fmt.Errorf("list group courses: %w", err)
	}
	return courses, nil
}

// Create inserts a course offering.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	course.CreatedAt = time.Now().UTC()
	course.Active = true
	const query = `INSERT INTO courses (id, subject_id, teacher_id, group_id, academic_year, semester, active, created_at)
VALUES (:id, :subject_id, :teacher_id, :group_id, :academic_year, :semester, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Roster returns the active students of the course group joined with their attendance on date.
func (r *CourseRepository) Roster(ctx context.Context, course *models.Course, date time.Time) ([]models.RosterRow, error) {
	const query = `SELECT s.id AS student_id, s.student_code, u.first_name, u.last_name,
	a.id AS attendance_id, a.status, a.activity_score, a.comment, a.created_at
	FROM students s
	JOIN users u ON u.id = s.user_id
	LEFT JOIN attendance a ON a.student_id = s.id AND a.course_id = $2 AND a.date = $3
	WHERE s.group_id = $1 AND s.status = 'active'
	ORDER BY u.last_name, u.first_name`
	var rows []models.RosterRow
	if err := r.db.SelectContext(ctx, &rows, query, course.GroupID, course.ID, date); err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	return rows, nil
}

const enrollmentFrom = `FROM courses c
	JOIN subjects sub ON sub.id = c.subject_id
	JOIN students s ON s.group_id = c.group_id AND s.status = 'active'
	JOIN users u ON u.id = s.user_id`

// Enrollments returns the derived course x student pairs visible to scope.
func (r *CourseRepository) Enrollments(ctx context.Context, scope access.Scope, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	where, args := enrollmentConditions(scope, filter)
	_, pageSize, offset := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT c.id AS course_id, s.id AS student_id, s.student_code,
	TRIM(u.first_name || ' ' || u.last_name) AS student_name, sub.name AS subject_name,
	c.group_id, c.academic_year, c.semester
	%s WHERE %s ORDER BY sub.name, u.last_name LIMIT %d OFFSET %d`, enrollmentFrom, where, pageSize, offset)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	total, err := r.countEnrollments(ctx, where, args)
	if err != nil {
		return nil, 0, err
	}
	return enrollments, total, nil
}

// CountEnrollments returns how many derived enrollments scope can see.
func (r *CourseRepository) CountEnrollments(ctx context.Context, scope access.Scope) (int, error) {
	where, args := enrollmentConditions(scope, models.EnrollmentFilter{})
	return r.countEnrollments(ctx, where, args)
}

func (r *CourseRepository) countEnrollments(ctx context.Context, where string, args []interface{}) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", enrollmentFrom, where), args...); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return total, nil
}

func courseConditions(scope access.Scope, filter models.CourseFilter) (string, []interface{}) {
	where := []string{"1=1"}
	var args []interface{}

	clause, args := scopeCourses(scope, "c", args)
	if clause != "" {
		where = append(where, clause)
	}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		where = append(where, fmt.Sprintf("c.group_id = $%d", len(args)))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		where = append(where, fmt.Sprintf("c.teacher_id = $%d", len(args)))
	}
	if filter.AcademicYear != "" {
		args = append(args, filter.AcademicYear)
		where = append(where, fmt.Sprintf("c.academic_year = $%d", len(args)))
	}
	if filter.Semester > 0 {
		args = append(args, filter.Semester)
		where = append(where, fmt.Sprintf("c.semester = $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		where = append(where, fmt.Sprintf("c.active = $%d", len(args)))
	}
	return strings.Join(where, " AND "), args
}

func enrollmentConditions(scope access.Scope, filter models.EnrollmentFilter) (string, []interface{}) {
	where := []string{"c.active = TRUE"}
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
		where = append(where, fmt.Sprintf("c.id = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		where = append(where, fmt.Sprintf("s.id = $%d", len(args)))
	}
	return strings.Join(where, " AND "), args
}
