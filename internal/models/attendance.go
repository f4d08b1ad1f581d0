package models

import "time"

// AttendanceStatus captures a student's presence on a date.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

// Valid reports whether s is a known status.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	}
	return false
}

// Attendance is one row per course, student and date.
type Attendance struct {
	ID            string           `db:"id" json:"id"`
	CourseID      string           `db:"course_id" json:"course_id"`
	StudentID     string           `db:"student_id" json:"student_id"`
	Date          time.Time        `db:"date" json:"date"`
	Status        AttendanceStatus `db:"status" json:"status"`
	ActivityScore *float64         `db:"activity_score" json:"activity_score,omitempty"`
	Comment       string           `db:"comment" json:"comment"`
	CreatedBy     string           `db:"created_by" json:"created_by"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceFilter narrows attendance listings.
type AttendanceFilter struct {
	CourseID  string
	StudentID string
	GroupID   string
	From      *time.Time
	To        *time.Time
}

// BulkAttendanceItem is one roster line in a bulk save.
type BulkAttendanceItem struct {
	StudentID     string           `json:"student_id" validate:"required"`
	Status        AttendanceStatus `json:"status" validate:"required,oneof=present absent late"`
	ActivityScore *float64         `json:"activity_score" validate:"omitempty,min=0,max=100"`
	Comment       string           `json:"comment"`
}

// BulkAttendanceRequest saves a whole roster for a course on one date.
type BulkAttendanceRequest struct {
	CourseID string               `json:"course_id" validate:"required"`
	Date     string               `json:"date" validate:"required,datetime=2006-01-02"`
	Records  []BulkAttendanceItem `json:"records" validate:"required,min=1,dive"`
}

// UpdateAttendanceRequest edits a single attendance row.
type UpdateAttendanceRequest struct {
	Status        AttendanceStatus `json:"status" validate:"required,oneof=present absent late"`
	ActivityScore *float64         `json:"activity_score" validate:"omitempty,min=0,max=100"`
	Comment       string           `json:"comment"`
}

// SkippedRecord explains why a row in a bulk write was not saved.
type SkippedRecord struct {
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}

// BulkSaveResult reports the outcome of a bulk write.
type BulkSaveResult struct {
	SavedCount int             `json:"saved_count"`
	Skipped    []SkippedRecord `json:"skipped"`
}

// AttendanceTally counts attendance rows for rate computations.
type AttendanceTally struct {
	Present int `db:"present" json:"present"`
	Absent  int `db:"absent" json:"absent"`
	Late    int `db:"late" json:"late"`
	Total   int `db:"total" json:"total"`
}
