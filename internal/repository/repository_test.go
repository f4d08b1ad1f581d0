package repository

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var (
	deanScope    = access.Scope{Role: models.RoleDean, UserID: "dean-1"}
	teacherScope = access.Scope{Role: models.RoleTeacher, UserID: "user-t", TeacherID: "teacher-1", GroupIDs: []string{"group-1"}}
	studentScope = access.Scope{Role: models.RoleStudent, UserID: "user-s", StudentID: "student-1", GroupIDs: []string{"group-1"}}
	parentScope  = access.Scope{Role: models.RoleParent, UserID: "parent-1", ChildIDs: []string{"student-1"}, GroupIDs: []string{"group-1"}}
)
