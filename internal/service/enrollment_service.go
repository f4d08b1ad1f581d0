package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
)

type enrollmentRepository interface {
	Enrollments(ctx context.Context, scope access.Scope, filter models.EnrollmentFilter) ([]models.Enrollment, int, error)
	CountEnrollments(ctx context.Context, scope access.Scope) (int, error)
	Count(ctx context.Context, scope access.Scope, filter models.CourseFilter) (int, error)
}

type studentCounter interface {
	Count(ctx context.Context, scope access.Scope, filter models.StudentFilter) (int, error)
}

type groupCounter interface {
	Count(ctx context.Context, scope access.Scope, filter models.GroupFilter) (int, error)
}

// EnrollmentService exposes the derived course x student view and per-scope visibility counts.
type EnrollmentService struct {
	courses  enrollmentRepository
	students studentCounter
	groups   groupCounter
	logger   *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(courses enrollmentRepository, students studentCounter, groups groupCounter, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{courses: courses, students: students, groups: groups, logger: logger}
}

// List returns the enrollments visible to scope.
func (s *EnrollmentService) List(ctx context.Context, scope access.Scope, filter models.EnrollmentFilter) ([]models.Enrollment, *models.Pagination, error) {
	enrollments, total, err := s.courses.Enrollments(ctx, scope, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list enrollments")
	}
	if enrollments == nil {
		enrollments = []models.Enrollment{}
	}
	return enrollments, paginate(filter.Page, filter.PageSize, total), nil
}

// Counts reports how many students, groups, courses and enrollments scope can see.
func (s *EnrollmentService) Counts(ctx context.Context, scope access.Scope) (*models.VisibilityCounts, error) {
	var counts models.VisibilityCounts
	var err error
	if counts.Students, err = s.students.Count(ctx, scope, models.StudentFilter{}); err != nil {
		return nil, internalError(err, "failed to count students")
	}
	if counts.Groups, err = s.groups.Count(ctx, scope, models.GroupFilter{}); err != nil {
		return nil, internalError(err, "failed to count groups")
	}
	if counts.Courses, err = s.courses.Count(ctx, scope, models.CourseFilter{}); err != nil {
		return nil, internalError(err, "failed to count courses")
	}
	if counts.Enrollments, err = s.courses.CountEnrollments(ctx, scope); err != nil {
		return nil, internalError(err, "failed to count enrollments")
	}
	return &counts, nil
}
