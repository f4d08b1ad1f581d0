package repository

import (
	"context"

	"github.com/noah-isme/edu-crm-api/internal/models"
)

// ProfileLookup joins the teacher and student repositories behind access.ProfileLookup.
type ProfileLookup struct {
	teachers *TeacherRepository
	students *StudentRepository
}

// NewProfileLookup constructs a ProfileLookup.
func NewProfileLookup(teachers *TeacherRepository, students *StudentRepository) *ProfileLookup {
	return &ProfileLookup{teachers: teachers, students: students}
}

func (p *ProfileLookup) TeacherIDByUser(ctx context.Context, userID string) (string, error) {
	return p.teachers.TeacherIDByUser(ctx, userID)
}

func (p *ProfileLookup) TeacherGroupIDs(ctx context.Context, teacherID string) ([]string, error) {
	return p.teachers.TeacherGroupIDs(ctx, teacherID)
}

func (p *ProfileLookup) StudentByUser(ctx context.Context, userID string) (*models.Student, error) {
	return p.students.StudentByUser(ctx, userID)
}

func (p *ProfileLookup) ChildrenOf(ctx context.Context, parentUserID string) ([]models.Student, error) {
	return p.students.ChildrenOf(ctx, parentUserID)
}
