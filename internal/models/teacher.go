package models

import "time"

// Teacher is the teaching profile attached to a user account.
type Teacher struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Department string    `db:"department" json:"department"`
	Position   string    `db:"position" json:"position"`
	Email      string    `db:"email" json:"email"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CreateTeacherRequest provisions a teacher user together with the profile.
type CreateTeacherRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6,max=72"`
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
	Position   string `json:"position"`
}
