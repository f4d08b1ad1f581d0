package models

import "time"

// GradeType identifies the assessment a grade belongs to.
type GradeType string

const (
	GradeActivity GradeType = "activity"
	GradeMidterm1 GradeType = "midterm_1"
	GradeMidterm2 GradeType = "midterm_2"
	GradeFinal    GradeType = "final"
)

// Valid reports whether t is a known grade type.
func (t GradeType) Valid() bool {
	switch t {
	case GradeActivity, GradeMidterm1, GradeMidterm2, GradeFinal:
		return true
	}
	return false
}

// IsExam reports whether t is recorded through the exam endpoint.
func (t GradeType) IsExam() bool {
	return t == GradeMidterm1 || t == GradeMidterm2 || t == GradeFinal
}

// Grade is one row per course, student and grade type.
type Grade struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	GradeType GradeType `db:"grade_type" json:"grade_type"`
	Score     float64   `db:"score" json:"score"`
	MaxScore  float64   `db:"max_score" json:"max_score"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// GradeFilter narrows grade listings.
type GradeFilter struct {
	CourseID  string
	StudentID string
}

// SaveGradeRequest upserts a grade for a student in a course.
type SaveGradeRequest struct {
	CourseID  string    `json:"course_id" validate:"required"`
	StudentID string    `json:"student_id" validate:"required"`
	GradeType GradeType `json:"grade_type" validate:"required,oneof=activity midterm_1 midterm_2 final"`
	Score     *float64  `json:"score" validate:"required,min=0"`
	MaxScore  *float64  `json:"max_score" validate:"omitempty,gt=0"`
	Comment   string    `json:"comment"`
}

// SaveExamRequest records an exam result as a grade of an exam type.
type SaveExamRequest struct {
	CourseID  string    `json:"course_id" validate:"required"`
	StudentID string    `json:"student_id" validate:"required"`
	ExamType  GradeType `json:"exam_type" validate:"required,oneof=midterm_1 midterm_2 final"`
	Score     *float64  `json:"score" validate:"required,min=0"`
	MaxScore  *float64  `json:"max_score" validate:"omitempty,gt=0"`
	Comment   string    `json:"comment"`
}
