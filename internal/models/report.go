package models

import (
	"encoding/json"
	"time"
)

// ReportType enumerates persisted snapshot kinds.
type ReportType string

const (
	ReportTranscript        ReportType = "transcript"
	ReportAttendanceSummary ReportType = "attendance_summary"
)

// Report is a persisted snapshot of generated report data.
type Report struct {
	ID         string          `db:"id" json:"id"`
	ReportType ReportType      `db:"report_type" json:"report_type"`
	StudentID  *string         `db:"student_id" json:"student_id,omitempty"`
	CourseID   *string         `db:"course_id" json:"course_id,omitempty"`
	Period     string          `db:"period" json:"period"`
	Data       json.RawMessage `db:"data" json:"data"`
	CreatedBy  string          `db:"created_by" json:"created_by"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// AttendanceSummaryRow aggregates one student's attendance over a range.
type AttendanceSummaryRow struct {
	StudentID   string  `db:"student_id" json:"student_id"`
	StudentCode string  `db:"student_code" json:"student_code"`
	FirstName   string  `db:"first_name" json:"first_name"`
	LastName    string  `db:"last_name" json:"last_name"`
	Present     int     `db:"present" json:"present"`
	Absent      int     `db:"absent" json:"absent"`
	Late        int     `db:"late" json:"late"`
	Total       int     `db:"total" json:"total"`
	Rate        float64 `db:"-" json:"rate"`
}

// AttendanceSummary is the attendance report for a group over a date range.
type AttendanceSummary struct {
	GroupID   string                 `json:"group_id"`
	GroupName string                 `json:"group_name"`
	StartDate string                 `json:"start_date"`
	EndDate   string                 `json:"end_date"`
	Rows      []AttendanceSummaryRow `json:"rows"`
}

// TranscriptCourse is one course line of a transcript.
type TranscriptCourse struct {
	CourseID       string                `json:"course_id"`
	SubjectName    string                `json:"subject_name"`
	SubjectCode    string                `json:"subject_code"`
	Credits        int                   `json:"credits"`
	AcademicYear   string                `json:"academic_year"`
	Semester       int                   `json:"semester"`
	AttendanceRate float64               `json:"attendance_rate"`
	Grades         map[GradeType]float64 `json:"grades"`
	FinalGrade     float64               `json:"final_grade"`
}

// Transcript is the per-student rollup of courses, final grades and GPA.
type Transcript struct {
	StudentID    string             `json:"student_id"`
	StudentCode  string             `json:"student_code"`
	StudentName  string             `json:"student_name"`
	GroupName    string             `json:"group_name"`
	Courses      []TranscriptCourse `json:"courses"`
	TotalCredits int                `json:"total_credits"`
	GPA          float64            `json:"gpa"`
	ScoringMode  string             `json:"scoring_mode"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

// CourseGradeRow is a flat grade row joined with course metadata, used to build transcripts.
type CourseGradeRow struct {
	CourseID  string    `db:"course_id"`
	GradeType GradeType `db:"grade_type"`
	Score     float64   `db:"score"`
}

// CourseTallyRow is an attendance tally for one course.
type CourseTallyRow struct {
	CourseID string `db:"course_id"`
	AttendanceTally
}
