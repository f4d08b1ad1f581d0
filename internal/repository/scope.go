package repository

import (
	"fmt"
	"time"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
)

// EditCheck is evaluated inside a write transaction against the created_at of an existing row.
// A non-nil error aborts the write for that row.
type EditCheck func(createdAt time.Time) error

const denyAll = "FALSE"

// scopeStudents narrows a students query aliased as alias. An empty string means unrestricted.
func scopeStudents(scope access.Scope, alias string, args []interface{}) (string, []interface{}) {
	if scope.Empty() {
		return denyAll, args
	}
	switch scope.Role {
	case models.RoleDean, models.RoleViceDean:
		return "", args
	case models.RoleTeacher:
		args = append(args, scope.TeacherID)
		return fmt.Sprintf("%s.group_id IN (SELECT group_id FROM courses WHERE teacher_id = $%d)", alias, len(args)), args
	case models.RoleStudent:
		args = append(args, scope.StudentID)
		return fmt.Sprintf("%s.id = $%d", alias, len(args)), args
	case models.RoleParent:
		args = append(args, scope.UserID)
		return fmt.Sprintf("%s.parent_id = $%d", alias, len(args)), args
	}
	return denyAll, args
}

// scopeCourses narrows a courses query aliased as alias.
func scopeCourses(scope access.Scope, alias string, args []interface{}) (string, []interface{}) {
	if scope.Empty() {
		return denyAll, args
	}
	switch scope.Role {
	case models.RoleDean, models.RoleViceDean:
		return "", args
	case models.RoleTeacher:
		args = append(args, scope.TeacherID)
		return fmt.Sprintf("%s.teacher_id = $%d", alias, len(args)), args
	case models.RoleStudent:
		args = append(args, scope.StudentID)
		return fmt.Sprintf("%s.group_id IN (SELECT group_id FROM students WHERE id = $%d)", alias, len(args)), args
	case models.RoleParent:
		args = append(args, scope.UserID)
		return fmt.Sprintf("%s.group_id IN (SELECT group_id FROM students WHERE parent_id = $%d)", alias, len(args)), args
	}
	return denyAll, args
}

// scopeGroups narrows a groups query aliased as alias.
func scopeGroups(scope access.Scope, alias string, args []interface{}) (string, []interface{}) {
	if scope.Empty() {
		return denyAll, args
	}
	switch scope.Role {
	case models.RoleDean, models.RoleViceDean:
		return "", args
	case models.RoleTeacher:
		args = append(args, scope.TeacherID)
		return fmt.Sprintf("%s.id IN (SELECT group_id FROM courses WHERE teacher_id = $%d)", alias, len(args)), args
	case models.RoleStudent:
		args = append(args, scope.StudentID)
		return fmt.Sprintf("%s.id IN (SELECT group_id FROM students WHERE id = $%d)", alias, len(args)), args
	case models.RoleParent:
		args = append(args, scope.UserID)
		return fmt.Sprintf("%s.id IN (SELECT group_id FROM students WHERE parent_id = $%d)", alias, len(args)), args
	}
	return denyAll, args
}

func normalizePage(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize, (page - 1) * pageSize
}
