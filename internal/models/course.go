package models

import "time"

// Course binds a subject, a teacher and a group for one academic year and semester.
type Course struct {
	ID           string    `db:"id" json:"id"`
	SubjectID    string    `db:"subject_id" json:"subject_id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	GroupID      string    `db:"group_id" json:"group_id"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Semester     int       `db:"semester" json:"semester"`
	Active       bool      `db:"active" json:"active"`
	SubjectName  string    `db:"subject_name" json:"subject_name"`
	SubjectCode  string    `db:"subject_code" json:"subject_code"`
	Credits      int       `db:"credits" json:"credits"`
	TeacherName  string    `db:"teacher_name" json:"teacher_name"`
	GroupName    string    `db:"group_name" json:"group_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	GroupID      string
	TeacherID    string
	AcademicYear string
	Semester     int
	Active       *bool
}

// CreateCourseRequest payload for scheduling a course offering.
type CreateCourseRequest struct {
	SubjectID    string `json:"subject_id" validate:"required"`
	TeacherID    string `json:"teacher_id" validate:"required"`
	GroupID      string `json:"group_id" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
	Semester     int    `json:"semester" validate:"required,oneof=1 2"`
}

// RosterRow is one line of the attendance entry grid for a course and date.
type RosterRow struct {
	StudentID     string            `db:"student_id" json:"student_id"`
	StudentCode   string            `db:"student_code" json:"student_code"`
	FirstName     string            `db:"first_name" json:"first_name"`
	LastName      string            `db:"last_name" json:"last_name"`
	AttendanceID  *string           `db:"attendance_id" json:"attendance_id,omitempty"`
	Status        *AttendanceStatus `db:"status" json:"status,omitempty"`
	ActivityScore *float64          `db:"activity_score" json:"activity_score,omitempty"`
	Comment       *string           `db:"comment" json:"comment,omitempty"`
	CreatedAt     *time.Time        `db:"created_at" json:"-"`
	Editable      bool              `db:"-" json:"editable"`
}

// Roster is the attendance grid for a course on a date.
type Roster struct {
	Course Course      `json:"course"`
	Date   string      `json:"date"`
	Rows   []RosterRow `json:"rows"`
}
