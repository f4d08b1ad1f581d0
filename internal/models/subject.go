package models

import "time"

// Subject is a catalog entry taught through courses.
type Subject struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Code       string    `db:"code" json:"code"`
	Credits    int       `db:"credits" json:"credits"`
	Hours      int       `db:"hours" json:"hours"`
	CourseYear int       `db:"course_year" json:"course_year"`
	Semester   int       `db:"semester" json:"semester"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CreateSubjectRequest payload for adding a catalog subject.
type CreateSubjectRequest struct {
	Name       string `json:"name" validate:"required"`
	Code       string `json:"code" validate:"required"`
	Credits    int    `json:"credits" validate:"min=0,max=30"`
	Hours      int    `json:"hours" validate:"min=0"`
	CourseYear int    `json:"course_year" validate:"required,min=1,max=4"`
	Semester   int    `json:"semester" validate:"required,oneof=1 2"`
}
