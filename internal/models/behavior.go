package models

import "time"

// BehaviorRecord is a disciplinary or positive note about a student.
type BehaviorRecord struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	CourseID     *string   `db:"course_id" json:"course_id,omitempty"`
	BehaviorType string    `db:"behavior_type" json:"behavior_type"`
	Description  string    `db:"description" json:"description"`
	Rating       int       `db:"rating" json:"rating"`
	RecordDate   time.Time `db:"record_date" json:"record_date"`
	CreatedBy    string    `db:"created_by" json:"created_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// BehaviorFilter allows listing notes.
type BehaviorFilter struct {
	StudentID    string
	CourseID     string
	BehaviorType string
	From         *time.Time
	To           *time.Time
}

// CreateBehaviorRequest records a behaviour note. RecordDate defaults to today.
// BehaviorType is free text such as "discipline" or "achievement".
type CreateBehaviorRequest struct {
	StudentID    string  `json:"student_id" validate:"required"`
	CourseID     *string `json:"course_id"`
	BehaviorType string  `json:"behavior_type" validate:"required,max=30"`
	Description  string  `json:"description" validate:"required"`
	Rating       int     `json:"rating" validate:"min=-5,max=5"`
	RecordDate   string  `json:"record_date" validate:"omitempty,datetime=2006-01-02"`
}
