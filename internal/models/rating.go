package models

import "time"

// RatingPeriod identifies a periodic assessment checkpoint.
type RatingPeriod string

const (
	RatingTwoMonth  RatingPeriod = "2m"
	RatingFourMonth RatingPeriod = "4m"
)

// Rating is one row per course, student and period.
type Rating struct {
	ID        string       `db:"id" json:"id"`
	CourseID  string       `db:"course_id" json:"course_id"`
	StudentID string       `db:"student_id" json:"student_id"`
	Period    RatingPeriod `db:"period" json:"period"`
	Score     float64      `db:"score" json:"score"`
	Comment   string       `db:"comment" json:"comment"`
	CreatedBy string       `db:"created_by" json:"created_by"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// SaveRatingRequest upserts a periodic rating.
type SaveRatingRequest struct {
	CourseID  string       `json:"course_id" validate:"required"`
	StudentID string       `json:"student_id" validate:"required"`
	Period    RatingPeriod `json:"period" validate:"required,oneof=2m 4m"`
	Score     *float64     `json:"score" validate:"required,min=0,max=100"`
	Comment   string       `json:"comment"`
}
