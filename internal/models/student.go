package models

import "time"

// StudentStatus is the lifecycle state of a student profile.
type StudentStatus string

const (
	StudentActive    StudentStatus = "active"
	StudentInactive  StudentStatus = "inactive"
	StudentGraduated StudentStatus = "graduated"
	StudentExpelled  StudentStatus = "expelled"
)

// CanLogin reports whether a student in this state keeps an active account.
func (s StudentStatus) CanLogin() bool {
	return s == StudentActive
}

// Student is the learner profile attached to a user account.
type Student struct {
	ID             string        `db:"id" json:"id"`
	UserID         string        `db:"user_id" json:"user_id"`
	StudentCode    string        `db:"student_code" json:"student_code"`
	GroupID        string        `db:"group_id" json:"group_id"`
	ParentID       *string       `db:"parent_id" json:"parent_id,omitempty"`
	Status         StudentStatus `db:"status" json:"status"`
	EnrollmentDate time.Time     `db:"enrollment_date" json:"enrollment_date"`
	Email          string        `db:"email" json:"email"`
	FirstName      string        `db:"first_name" json:"first_name"`
	LastName       string        `db:"last_name" json:"last_name"`
	GroupName      string        `db:"group_name" json:"group_name"`
	CourseYear     int           `db:"course_year" json:"course_year"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// FullName joins the name parts.
func (s Student) FullName() string {
	return User{FirstName: s.FirstName, LastName: s.LastName}.FullName()
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search     string
	GroupID    string
	CourseYear int
	Status     StudentStatus
	Page       int
	PageSize   int
}

// CreateStudentRequest provisions a student user together with the profile.
type CreateStudentRequest struct {
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"required,min=6,max=72"`
	FirstName      string  `json:"first_name" validate:"required"`
	LastName       string  `json:"last_name"`
	StudentCode    string  `json:"student_code" validate:"required"`
	GroupID        string  `json:"group_id" validate:"required"`
	ParentID       *string `json:"parent_id"`
	EnrollmentDate string  `json:"enrollment_date" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateStudentRequest carries optional profile changes.
type UpdateStudentRequest struct {
	FirstName *string        `json:"first_name" validate:"omitempty,min=1"`
	LastName  *string        `json:"last_name"`
	GroupID   *string        `json:"group_id" validate:"omitempty,min=1"`
	ParentID  *string        `json:"parent_id"`
	Status    *StudentStatus `json:"status" validate:"omitempty,oneof=active inactive graduated expelled"`
}

// ImportRowError reports a spreadsheet row that could not be imported.
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// StudentImportResult summarises a roster import.
type StudentImportResult struct {
	Imported int              `json:"imported"`
	Skipped  []ImportRowError `json:"skipped"`
}
