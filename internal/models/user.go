package models

import (
	"strings"
	"time"
)

// UserRole represents the closed set of roles known to the access-control layer.
type UserRole string

const (
	RoleDean     UserRole = "dean"
	RoleViceDean UserRole = "vice_dean"
	RoleTeacher  UserRole = "teacher"
	RoleStudent  UserRole = "student"
	RoleParent   UserRole = "parent"
)

// AllRoles lists every valid role.
var AllRoles = []UserRole{RoleDean, RoleViceDean, RoleTeacher, RoleStudent, RoleParent}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleDean, RoleViceDean, RoleTeacher, RoleStudent, RoleParent:
		return true
	}
	return false
}

// IsStaff reports whether the role administers records (dean, vice dean or teacher).
func (r UserRole) IsStaff() bool {
	return r == RoleDean || r == RoleViceDean || r == RoleTeacher
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins the name parts.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CreateUserRequest is the admin payload for provisioning an account.
type CreateUserRequest struct {
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=6,max=72"`
	FirstName string   `json:"first_name" validate:"required"`
	LastName  string   `json:"last_name"`
	Role      UserRole `json:"role" validate:"required,role"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
