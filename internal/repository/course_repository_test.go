package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-crm-api/internal/models"
)

var courseRowColumns = []string{"id", "subject_id", "teacher_id", "group_id", "academic_year", "semester", "active", "created_at", "subject_name", "subject_code", "credits", "teacher_name", "group_name"}

func TestListCoursesScopedToTeacher(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND c.teacher_id = $1 ORDER BY")).
		WithArgs("teacher-1").
		WillReturnRows(sqlmock.NewRows(courseRowColumns).
			AddRow("course-1", "sub-1", "teacher-1", "group-1", "2024-2025", 1, true, now, "Algebra", "MATH101", 3, "Rustam Nazarov", "CS-21"))

	courses, err := repo.List(context.Background(), teacherScope, models.CourseFilter{})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, 3, courses[0].Credits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterJoinsAttendance(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	mock.ExpectQuery("LEFT JOIN attendance a ON a.student_id = s.id").
		WithArgs("group-1", "course-1", date).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "student_code", "first_name", "last_name", "attendance_id", "status", "activity_score", "comment", "created_at"}).
			AddRow("s-1", "S-001", "Ali", "Karimov", "a-1", "present", 8.5, "", now).
			AddRow("s-2", "S-002", "Zarina", "Rahimova", nil, nil, nil, nil, nil))

	rows, err := repo.Roster(context.Background(), &models.Course{ID: "course-1", GroupID: "group-1"}, date)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].Status)
	assert.Equal(t, models.AttendancePresent, *rows[0].Status)
	assert.Nil(t, rows[1].AttendanceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountEnrollmentsForParent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.active = TRUE AND c.group_id IN (SELECT group_id FROM students WHERE parent_id = $1) AND s.parent_id = $2")).
		WithArgs("parent-1", "parent-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

	total, err := repo.CountEnrollments(context.Background(), parentScope)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
}
