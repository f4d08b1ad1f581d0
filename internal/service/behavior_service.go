package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
)

type behaviorRepository interface {
	Create(ctx context.Context, record *models.BehaviorRecord) error
	List(ctx context.Context, scope access.Scope, filter models.BehaviorFilter) ([]models.BehaviorRecord, error)
}

// BehaviorService records behaviour notes about students.
type BehaviorService struct {
	repo      behaviorRepository
	students  studentFinder
	courses   courseFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBehaviorService constructs a BehaviorService.
func NewBehaviorService(repo behaviorRepository, students studentFinder, courses courseFinder, validate *validator.Validate, logger *zap.Logger) *BehaviorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &BehaviorService{repo: repo, students: students, courses: courses, validator: validate, logger: logger}
}

// Create stores a note about a student visible to scope. A note tied to a course requires
// write access to that course, and the course must belong to the student's group.
func (s *BehaviorService) Create(ctx context.Context, scope access.Scope, req models.CreateBehaviorRequest) (*models.BehaviorRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid behavior payload")
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	if !scope.Role.IsStaff() || !scope.CanAccessStudent(student) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student is outside your scope")
	}
	if req.CourseID != nil && *req.CourseID == "" {
		req.CourseID = nil
	}
	if req.CourseID != nil {
		course, err := loadCourse(ctx, s.courses, *req.CourseID)
		if err != nil {
			return nil, err
		}
		if !scope.CanWriteCourse(course) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "course is outside your scope")
		}
		if course.GroupID != student.GroupID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student is not in the course group")
		}
	}

	record := &models.BehaviorRecord{
		StudentID:    req.StudentID,
		CourseID:     req.CourseID,
		BehaviorType: strings.TrimSpace(req.BehaviorType),
		Description:  req.Description,
		Rating:       req.Rating,
		CreatedBy:    scope.UserID,
	}
	if req.RecordDate != "" {
		d, err := parseDate(req.RecordDate)
		if err != nil {
			return nil, err
		}
		record.RecordDate = d
	} else {
		record.RecordDate = time.Now().UTC().Truncate(24 * time.Hour)
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, internalError(err, "failed to create behavior record")
	}
	return record, nil
}

// List returns notes visible to scope.
func (s *BehaviorService) List(ctx context.Context, scope access.Scope, filter models.BehaviorFilter) ([]models.BehaviorRecord, error) {
	records, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, internalError(err, "failed to list behavior records")
	}
	if records == nil {
		records = []models.BehaviorRecord{}
	}
	return records, nil
}
