package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, scope access.Scope, filter models.CourseFilter) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Roster(ctx context.Context, course *models.Course, date time.Time) ([]models.RosterRow, error)
}

type subjectLookup interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type teacherLookup interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// CourseService manages course offerings and the attendance roster.
type CourseService struct {
	repo      courseRepository
	subjects  subjectLookup
	teachers  teacherLookup
	groups    groupLookup
	policy    access.EditPolicy
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, subjects subjectLookup, teachers teacherLookup, groups groupLookup, policy access.EditPolicy, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &CourseService{
		repo:      repo,
		subjects:  subjects,
		teachers:  teachers,
		groups:    groups,
		policy:    policy,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns the courses visible to scope.
func (s *CourseService) List(ctx context.Context, scope access.Scope, filter models.CourseFilter) ([]models.Course, error) {
	courses, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, internalError(err, "failed to list courses")
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}

// Get returns a course when it is visible to scope.
func (s *CourseService) Get(ctx context.Context, scope access.Scope, id string) (*models.Course, error) {
	course, err := loadCourse(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccessCourse(course) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course is outside your scope")
	}
	return course, nil
}

// Create schedules a course offering after checking its references.
func (s *CourseService) Create(ctx context.Context, req models.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid course payload")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		return nil, notFoundOr(err, "subject not found", "failed to load subject")
	}
	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		return nil, notFoundOr(err, "teacher not found", "failed to load teacher")
	}
	if _, err := s.groups.FindByID(ctx, req.GroupID); err != nil {
		return nil, notFoundOr(err, "group not found", "failed to load group")
	}

	course := &models.Course{
		SubjectID:    req.SubjectID,
		TeacherID:    req.TeacherID,
		GroupID:      req.GroupID,
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course already scheduled for this group and term")
		}
		return nil, internalError(err, "failed to create course")
	}
	created, err := s.repo.FindByID(ctx, course.ID)
	if err != nil {
		return nil, internalError(err, "failed to load course")
	}
	return created, nil
}

// Roster returns the attendance grid of a course on date. Each row carries whether the caller may still edit it.
func (s *CourseService) Roster(ctx context.Context, scope access.Scope, courseID, date string) (*models.Roster, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	course, err := loadCourse(ctx, s.repo, courseID)
	if err != nil {
		return nil, err
	}
	if !scope.CanWriteCourse(course) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course is outside your scope")
	}

	rows, err := s.repo.Roster(ctx, course, day)
	if err != nil {
		return nil, internalError(err, "failed to load roster")
	}
	now := s.now()
	for i := range rows {
		if rows[i].CreatedAt == nil {
			rows[i].Editable = true
			continue
		}
		rows[i].Editable = s.policy.Check(access.KindAttendance, scope.Role, *rows[i].CreatedAt, now) == access.Allowed
	}
	if rows == nil {
		rows = []models.RosterRow{}
	}
	return &models.Roster{Course: *course, Date: day.Format(dateLayout), Rows: rows}, nil
}

type courseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

func loadCourse(ctx context.Context, repo courseFinder, id string) (*models.Course, error) {
	course, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "course not found", "failed to load course")
	}
	return course, nil
}

func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return internalError(err, internal)
}
