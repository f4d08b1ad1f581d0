package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reportRowColumns = []string{"id", "report_type", "student_id", "course_id", "period", "data", "created_by", "created_at"}

func TestListReportsScopedToTeacher(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows(reportRowColumns).
		AddRow("report-1", "transcript", "student-1", nil, "2024-06", []byte(`{"gpa":80}`), "user-t", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM reports r LEFT JOIN students s ON s.id = r.student_id")+
		".*"+regexp.QuoteMeta("WHERE 1=1 AND s.group_id IN (SELECT group_id FROM courses WHERE teacher_id = $1) AND r.student_id = $2 ORDER BY r.created_at DESC LIMIT 20")).
		WithArgs("teacher-1", "student-1").
		WillReturnRows(rows)

	reports, err := repo.ListByStudent(context.Background(), teacherScope, "student-1", 20)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "report-1", reports[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListReportsUnrestrictedClampsLimit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 ORDER BY r.created_at DESC LIMIT 50")).
		WillReturnRows(sqlmock.NewRows(reportRowColumns))

	reports, err := repo.ListByStudent(context.Background(), deanScope, "", 500)
	require.NoError(t, err)
	assert.NotNil(t, reports)
	assert.Empty(t, reports)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListReportsEmptyScopeDeniesAll(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	empty := teacherScope
	empty.TeacherID = ""
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND FALSE ORDER BY")).
		WillReturnRows(sqlmock.NewRows(reportRowColumns))

	_, err := repo.ListByStudent(context.Background(), empty, "", 10)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
