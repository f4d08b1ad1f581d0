// Package access holds the role-based visibility filter and the edit-window policy.
package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/noah-isme/edu-crm-api/internal/models"
)

// ErrUnknownRole is returned when claims carry a role outside the closed set.
var ErrUnknownRole = errors.New("unknown role")

// Scope is the visibility window of the acting user, resolved once per request.
type Scope struct {
	Role   models.UserRole
	UserID string
	// TeacherID is the teacher profile of a teacher user.
	TeacherID string
	// StudentID is the student profile of a student user.
	StudentID string
	// GroupIDs are the groups reachable by the user: a teacher's course groups,
	// a student's own group or a parent's children's groups.
	GroupIDs []string
	// ChildIDs are the student profiles linked to a parent.
	ChildIDs []string
}

// Unrestricted reports whether the scope sees every row.
func (s Scope) Unrestricted() bool {
	return s.Role == models.RoleDean || s.Role == models.RoleViceDean
}

// Empty reports whether the scope can see nothing at all, e.g. a teacher without a profile.
func (s Scope) Empty() bool {
	switch s.Role {
	case models.RoleDean, models.RoleViceDean:
		return false
	case models.RoleTeacher:
		return s.TeacherID == ""
	case models.RoleStudent:
		return s.StudentID == ""
	case models.RoleParent:
		return len(s.ChildIDs) == 0
	}
	return true
}

// CanAccessCourse answers single-record visibility for a course.
func (s Scope) CanAccessCourse(c *models.Course) bool {
	if c == nil {
		return false
	}
	switch s.Role {
	case models.RoleDean, models.RoleViceDean:
		return true
	case models.RoleTeacher:
		return s.TeacherID != "" && c.TeacherID == s.TeacherID
	case models.RoleStudent, models.RoleParent:
		return contains(s.GroupIDs, c.GroupID)
	}
	return false
}

// CanWriteCourse reports whether the user may record attendance or grades in the course.
func (s Scope) CanWriteCourse(c *models.Course) bool {
	if c == nil {
		return false
	}
	switch s.Role {
	case models.RoleDean, models.RoleViceDean:
		return true
	case models.RoleTeacher:
		return s.TeacherID != "" && c.TeacherID == s.TeacherID
	case models.RoleStudent, models.RoleParent:
		return false
	}
	return false
}

// CanAccessStudent answers single-record visibility for a student profile.
func (s Scope) CanAccessStudent(st *models.Student) bool {
	if st == nil {
		return false
	}
	switch s.Role {
	case models.RoleDean, models.RoleViceDean:
		return true
	case models.RoleTeacher:
		return contains(s.GroupIDs, st.GroupID)
	case models.RoleStudent:
		return s.StudentID != "" && st.ID == s.StudentID
	case models.RoleParent:
		return st.ParentID != nil && *st.ParentID == s.UserID
	}
	return false
}

// CanAccessGroup answers single-record visibility for a group.
func (s Scope) CanAccessGroup(groupID string) bool {
	switch s.Role {
	case models.RoleDean, models.RoleViceDean:
		return true
	case models.RoleTeacher, models.RoleStudent, models.RoleParent:
		return contains(s.GroupIDs, groupID)
	}
	return false
}

// ProfileLookup resolves the profile rows a scope depends on.
// Implementations return sql.ErrNoRows when the profile does not exist.
type ProfileLookup interface {
	TeacherIDByUser(ctx context.Context, userID string) (string, error)
	TeacherGroupIDs(ctx context.Context, teacherID string) ([]string, error)
	StudentByUser(ctx context.Context, userID string) (*models.Student, error)
	ChildrenOf(ctx context.Context, parentUserID string) ([]models.Student, error)
}

// Resolver builds scopes from JWT claims.
type Resolver struct {
	profiles ProfileLookup
}

// NewResolver constructs a Resolver.
func NewResolver(profiles ProfileLookup) *Resolver {
	return &Resolver{profiles: profiles}
}

// Resolve returns the scope of the authenticated user.
func (r *Resolver) Resolve(ctx context.Context, claims *models.JWTClaims) (Scope, error) {
	if claims == nil {
		return Scope{}, errors.New("missing claims")
	}
	scope := Scope{Role: claims.Role, UserID: claims.UserID}

	switch claims.Role {
	case models.RoleDean, models.RoleViceDean:
		return scope, nil
	case models.RoleTeacher:
		teacherID, err := r.profiles.TeacherIDByUser(ctx, claims.UserID)
		if errors.Is(err, sql.ErrNoRows) {
			return scope, nil
		}
		if err != nil {
			return Scope{}, fmt.Errorf("resolve teacher scope: %w", err)
		}
		groups, err := r.profiles.TeacherGroupIDs(ctx, teacherID)
		if err != nil {
			return Scope{}, fmt.Errorf("resolve teacher groups: %w", err)
		}
		scope.TeacherID = teacherID
		scope.GroupIDs = groups
		return scope, nil
	case models.RoleStudent:
		student, err := r.profiles.StudentByUser(ctx, claims.UserID)
		if errors.Is(err, sql.ErrNoRows) {
			return scope, nil
		}
		if err != nil {
			return Scope{}, fmt.Errorf("resolve student scope: %w", err)
		}
		scope.StudentID = student.ID
		scope.GroupIDs = []string{student.GroupID}
		return scope, nil
	case models.RoleParent:
		children, err := r.profiles.ChildrenOf(ctx, claims.UserID)
		if err != nil {
			return Scope{}, fmt.Errorf("resolve parent scope: %w", err)
		}
		for _, child := range children {
			scope.ChildIDs = append(scope.ChildIDs, child.ID)
			if !contains(scope.GroupIDs, child.GroupID) {
				scope.GroupIDs = append(scope.GroupIDs, child.GroupID)
			}
		}
		return scope, nil
	}
	return Scope{}, fmt.Errorf("%w: %q", ErrUnknownRole, claims.Role)
}

func contains(values []string, target string) bool {
	if target == "" {
		return false
	}
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
