package access

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-crm-api/internal/models"
)

type profileStub struct {
	teacherID string
	groups    []string
	student   *models.Student
	children  []models.Student
	err       error
}

func (p profileStub) TeacherIDByUser(context.Context, string) (string, error) {
	if p.teacherID == "" {
		return "", sql.ErrNoRows
	}
	return p.teacherID, p.err
}

func (p profileStub) TeacherGroupIDs(context.Context, string) ([]string, error) {
	return p.groups, p.err
}

func (p profileStub) StudentByUser(context.Context, string) (*models.Student, error) {
	if p.student == nil {
		return nil, sql.ErrNoRows
	}
	return p.student, p.err
}

func (p profileStub) ChildrenOf(context.Context, string) ([]models.Student, error) {
	return p.children, p.err
}

func claims(role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Role: role}
}

func TestResolveTeacher(t *testing.T) {
	r := NewResolver(profileStub{teacherID: "t-1", groups: []string{"g-1"}})

	scope, err := r.Resolve(context.Background(), claims(models.RoleTeacher))
	require.NoError(t, err)
	assert.Equal(t, "t-1", scope.TeacherID)
	assert.False(t, scope.Empty())
	assert.True(t, scope.CanAccessCourse(&models.Course{TeacherID: "t-1"}))
	assert.False(t, scope.CanAccessCourse(&models.Course{TeacherID: "t-2", GroupID: "g-1"}))
	assert.True(t, scope.CanAccessStudent(&models.Student{ID: "s-1", GroupID: "g-1"}))
	assert.False(t, scope.CanAccessStudent(&models.Student{ID: "s-2", GroupID: "g-9"}))
}

func TestResolveTeacherWithoutProfileIsEmpty(t *testing.T) {
	scope, err := NewResolver(profileStub{}).Resolve(context.Background(), claims(models.RoleTeacher))
	require.NoError(t, err)
	assert.True(t, scope.Empty())
	assert.False(t, scope.CanAccessCourse(&models.Course{}))
	assert.False(t, scope.CanWriteCourse(&models.Course{}))
}

func TestResolveStudent(t *testing.T) {
	r := NewResolver(profileStub{student: &models.Student{ID: "s-1", GroupID: "g-1"}})

	scope, err := r.Resolve(context.Background(), claims(models.RoleStudent))
	require.NoError(t, err)
	assert.True(t, scope.CanAccessStudent(&models.Student{ID: "s-1"}))
	assert.False(t, scope.CanAccessStudent(&models.Student{ID: "s-2", GroupID: "g-1"}))
	assert.True(t, scope.CanAccessCourse(&models.Course{GroupID: "g-1"}))
	assert.False(t, scope.CanWriteCourse(&models.Course{GroupID: "g-1"}))
	assert.True(t, scope.CanAccessGroup("g-1"))
	assert.False(t, scope.CanAccessGroup("g-2"))
}

func TestResolveParent(t *testing.T) {
	parent := "user-1"
	r := NewResolver(profileStub{children: []models.Student{
		{ID: "s-1", GroupID: "g-1", ParentID: &parent},
		{ID: "s-2", GroupID: "g-1", ParentID: &parent},
	}})

	scope, err := r.Resolve(context.Background(), claims(models.RoleParent))
	require.NoError(t, err)
	assert.Equal(t, []string{"s-1", "s-2"}, scope.ChildIDs)
	assert.Equal(t, []string{"g-1"}, scope.GroupIDs)
	assert.True(t, scope.CanAccessStudent(&models.Student{ID: "s-1", ParentID: &parent}))
	assert.False(t, scope.CanAccessStudent(&models.Student{ID: "s-3"}))
}

func TestResolveUnknownRole(t *testing.T) {
	_, err := NewResolver(profileStub{}).Resolve(context.Background(), claims("admin"))
	assert.True(t, errors.Is(err, ErrUnknownRole))
}

func TestResolveLookupFailure(t *testing.T) {
	_, err := NewResolver(profileStub{teacherID: "t-1", err: errors.New("db down")}).
		Resolve(context.Background(), claims(models.RoleTeacher))
	assert.Error(t, err)
}

func TestStaffScopeUnrestricted(t *testing.T) {
	for _, role := range []models.UserRole{models.RoleDean, models.RoleViceDean} {
		scope, err := NewResolver(profileStub{}).Resolve(context.Background(), claims(role))
		require.NoError(t, err)
		assert.True(t, scope.Unrestricted())
		assert.True(t, scope.CanAccessCourse(&models.Course{TeacherID: "anyone"}))
		assert.True(t, scope.CanWriteCourse(&models.Course{TeacherID: "anyone"}))
		assert.True(t, scope.CanAccessStudent(&models.Student{ID: "x"}))
	}
}
