package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-crm-api/internal/models"
)

var studentRowColumns = []string{"id", "user_id", "student_code", "group_id", "parent_id", "status", "enrollment_date", "created_at", "updated_at", "email", "first_name", "last_name", "group_name", "course_year"}

func TestListStudentsScopedToTeacher(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(studentRowColumns).
		AddRow("student-1", "user-1", "S-001", "group-1", nil, "active", now, now, now, "s@x.tj", "Ali", "Karimov", "CS-21", 2)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND s.group_id IN (SELECT group_id FROM courses WHERE teacher_id = $1) AND (LOWER(u.first_name) LIKE $2")).
		WithArgs("teacher-1", "%ali%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students s")).
		WithArgs("teacher-1", "%ali%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), teacherScope, models.StudentFilter{Search: "Ali"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Ali Karimov", students[0].FullName())
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchStudentsEmptyScope(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	empty := teacherScope
	empty.TeacherID = ""
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND FALSE ORDER BY u.last_name, u.first_name LIMIT 20")).
		WillReturnRows(sqlmock.NewRows(studentRowColumns))

	students, err := repo.Search(context.Background(), empty, models.StudentFilter{}, 20)
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateStudentRollsBackOnProfileFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO students").WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	user := &models.User{Email: "s@x.tj", FirstName: "Ali", Role: models.RoleStudent, Active: true}
	err := repo.Create(context.Background(), user, &models.Student{StudentCode: "S-001", GroupID: "missing"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateStudentCommits(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	user := &models.User{Email: "s@x.tj", FirstName: "Ali", Role: models.RoleStudent, Active: true}
	student := &models.Student{StudentCode: "S-001", GroupID: "group-1"}
	require.NoError(t, repo.Create(context.Background(), user, student))
	assert.Equal(t, user.ID, student.UserID)
	assert.Equal(t, models.StudentActive, student.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusDeactivatesLogin(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE students SET status = $2, updated_at = $3 WHERE id = $1 RETURNING user_id")).
		WithArgs("student-1", models.StudentInactive, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("user-1"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET active = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("user-1", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetStatus(context.Background(), "student-1", models.StudentInactive))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusMissingStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE students SET status").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	mock.ExpectRollback()

	err := repo.SetStatus(context.Background(), "student-404", models.StudentGraduated)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
