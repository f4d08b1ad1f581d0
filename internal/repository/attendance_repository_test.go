package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
)

const lockAttendance = "SELECT id, created_at FROM attendance WHERE course_id = $1 AND student_id = $2 AND date = $3 FOR UPDATE"

func TestBulkUpsertInsertsUpdatesAndSkips(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	fresh := time.Now().Add(-time.Hour)
	stale := time.Now().Add(-72 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockAttendance)).
		WithArgs("course-1", "s-new", date).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO attendance .* ON CONFLICT \\(course_id, student_id, date\\) DO UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a-1"))
	mock.ExpectQuery(regexp.QuoteMeta(lockAttendance)).
		WithArgs("course-1", "s-fresh", date).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("a-2", fresh))
	mock.ExpectQuery("INSERT INTO attendance").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a-2"))
	mock.ExpectQuery(regexp.QuoteMeta(lockAttendance)).
		WithArgs("course-1", "s-stale", date).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("a-3", stale))
	mock.ExpectCommit()

	policy := access.EditPolicy{TeacherAttendance: 24 * time.Hour}
	check := func(createdAt time.Time) error {
		return policy.Check(access.KindAttendance, models.RoleTeacher, createdAt, time.Now()).Err(access.KindAttendance)
	}
	items := []models.BulkAttendanceItem{
		{StudentID: "s-new", Status: models.AttendancePresent},
		{StudentID: "s-fresh", Status: models.AttendanceLate},
		{StudentID: "s-stale", Status: models.AttendanceAbsent},
	}

	result, err := repo.BulkUpsert(context.Background(), "course-1", date, items, "user-t", check)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SavedCount)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "s-stale", result.Skipped[0].StudentID)
	assert.Equal(t, appErrors.ErrEditWindowClosed.Code, result.Skipped[0].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsertSameKeyTwiceUpdatesOneRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	allow := func(time.Time) error { return nil }

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockAttendance)).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO attendance").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a-1"))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockAttendance)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("a-1", time.Now()))
	mock.ExpectQuery("INSERT INTO attendance").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a-1"))
	mock.ExpectCommit()

	items := []models.BulkAttendanceItem{{StudentID: "s-1", Status: models.AttendancePresent}}
	first, err := repo.BulkUpsert(context.Background(), "course-1", date, items, "u", allow)
	require.NoError(t, err)
	items[0].Status = models.AttendanceAbsent
	second, err := repo.BulkUpsert(context.Background(), "course-1", date, items, "u", allow)
	require.NoError(t, err)

	assert.Equal(t, 1, first.SavedCount)
	assert.Equal(t, 1, second.SavedCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsertRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockAttendance)).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO attendance").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := repo.BulkUpsert(context.Background(), "course-1", time.Now(), []models.BulkAttendanceItem{{StudentID: "s-1", Status: models.AttendancePresent}}, "u", func(time.Time) error { return nil })
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAttendanceWindowClosed(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at FROM attendance WHERE id = $1 FOR UPDATE")).
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().Add(-48 * time.Hour)))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), "a-1", models.UpdateAttendanceRequest{Status: models.AttendancePresent}, func(time.Time) error {
		return appErrors.ErrEditWindowClosed
	})
	assert.ErrorIs(t, err, appErrors.ErrEditWindowClosed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAttendanceNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT created_at FROM attendance").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), "missing", models.UpdateAttendanceRequest{}, func(time.Time) error { return nil })
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTallyScopedToStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("COUNT\\(\\*\\) FILTER \\(WHERE a.status = 'present'\\)").
		WithArgs("student-1", "student-1").
		WillReturnRows(sqlmock.NewRows([]string{"present", "absent", "late", "total"}).AddRow(8, 1, 1, 10))

	tally, err := repo.Tally(context.Background(), studentScope, models.AttendanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, 8, tally.Present)
	assert.Equal(t, 10, tally.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
