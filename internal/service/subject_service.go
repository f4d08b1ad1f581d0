package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-crm-api/internal/models"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
}

// SubjectService manages the subject catalog.
type SubjectService struct {
	repo      subjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &SubjectService{repo: repo, validator: validate, logger: logger}
}

// List returns catalog subjects.
func (s *SubjectService) List(ctx context.Context, activeOnly bool) ([]models.Subject, error) {
	subjects, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, internalError(err, "failed to list subjects")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return subjects, nil
}

// Create adds a subject.
func (s *SubjectService) Create(ctx context.Context, req models.CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid subject payload")
	}
	subject := &models.Subject{
		Name:       req.Name,
		Code:       req.Code,
		Credits:    req.Credits,
		Hours:      req.Hours,
		CourseYear: req.CourseYear,
		Semester:   req.Semester,
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
		}
		return nil, internalError(err, "failed to create subject")
	}
	return subject, nil
}
