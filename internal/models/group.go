package models

import "time"

// Group is a cohort of students sharing a course year.
type Group struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	CourseYear   int       `db:"course_year" json:"course_year"`
	Active       bool      `db:"active" json:"active"`
	StudentCount int       `db:"student_count" json:"student_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// GroupFilter narrows group listings.
type GroupFilter struct {
	CourseYear int
	Active     *bool
}

// CreateGroupRequest payload for creating a group.
type CreateGroupRequest struct {
	Name       string `json:"name" validate:"required"`
	CourseYear int    `json:"course_year" validate:"required,min=1,max=4"`
}
