package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
	"github.com/noah-isme/edu-crm-api/internal/repository"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
)

const defaultMaxScore = 100

type gradeRepository interface {
	Save(ctx context.Context, grade *models.Grade, check repository.EditCheck) (bool, error)
	List(ctx context.Context, scope access.Scope, filter models.GradeFilter) ([]models.Grade, error)
}

type ratingRepository interface {
	Save(ctx context.Context, rating *models.Rating, check repository.EditCheck) (bool, error)
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// GradeService records grades, exam results and periodic ratings.
type GradeService struct {
	grades    gradeRepository
	ratings   ratingRepository
	courses   courseFinder
	students  studentFinder
	policy    access.EditPolicy
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	now       func() time.Time
}

// NewGradeService constructs a GradeService.
func NewGradeService(grades gradeRepository, ratings ratingRepository, courses courseFinder, students studentFinder, policy access.EditPolicy, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &GradeService{
		grades:    grades,
		ratings:   ratings,
		courses:   courses,
		students:  students,
		policy:    policy,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// List returns grades visible to scope.
func (s *GradeService) List(ctx context.Context, scope access.Scope, filter models.GradeFilter) ([]models.Grade, error) {
	grades, err := s.grades.List(ctx, scope, filter)
	if err != nil {
		return nil, internalError(err, "failed to list grades")
	}
	if grades == nil {
		grades = []models.Grade{}
	}
	return grades, nil
}

// SaveGrade upserts a grade. The bool reports whether a new row was created.
func (s *GradeService) SaveGrade(ctx context.Context, scope access.Scope, req models.SaveGradeRequest) (*models.Grade, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, validationError(err, "invalid grade payload")
	}
	if err := s.authorize(ctx, scope, req.CourseID, req.StudentID); err != nil {
		return nil, false, err
	}

	maxScore := float64(defaultMaxScore)
	if req.MaxScore != nil {
		maxScore = *req.MaxScore
	}
	if *req.Score > maxScore {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "score exceeds max_score")
	}

	grade := &models.Grade{
		CourseID:  req.CourseID,
		StudentID: req.StudentID,
		GradeType: req.GradeType,
		Score:     *req.Score,
		MaxScore:  maxScore,
		Comment:   req.Comment,
		CreatedBy: scope.UserID,
	}
	created, err := s.grades.Save(ctx, grade, editCheck(s.policy, access.KindGrade, scope.Role, s.now))
	if err != nil {
		return nil, false, s.writeError(err, "failed to save grade")
	}
	s.metrics.RecordWrites(access.KindGrade.String(), 1)
	return grade, created, nil
}

// SaveExam records an exam result as a grade of the exam type.
func (s *GradeService) SaveExam(ctx context.Context, scope access.Scope, req models.SaveExamRequest) (*models.Grade, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, validationError(err, "invalid exam payload")
	}
	return s.SaveGrade(ctx, scope, models.SaveGradeRequest{
		CourseID:  req.CourseID,
		StudentID: req.StudentID,
		GradeType: req.ExamType,
		Score:     req.Score,
		MaxScore:  req.MaxScore,
		Comment:   req.Comment,
	})
}

// SaveRating upserts a periodic rating under the grade edit window.
func (s *GradeService) SaveRating(ctx context.Context, scope access.Scope, req models.SaveRatingRequest) (*models.Rating, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, validationError(err, "invalid rating payload")
	}
	if err := s.authorize(ctx, scope, req.CourseID, req.StudentID); err != nil {
		return nil, false, err
	}

	rating := &models.Rating{
		CourseID:  req.CourseID,
		StudentID: req.StudentID,
		Period:    req.Period,
		Score:     *req.Score,
		Comment:   req.Comment,
		CreatedBy: scope.UserID,
	}
	created, err := s.ratings.Save(ctx, rating, editCheck(s.policy, access.KindGrade, scope.Role, s.now))
	if err != nil {
		return nil, false, s.writeError(err, "failed to save rating")
	}
	s.metrics.RecordWrites("rating", 1)
	return rating, created, nil
}

// authorize checks course ownership and that the student belongs to the course group.
func (s *GradeService) authorize(ctx context.Context, scope access.Scope, courseID, studentID string) error {
	course, err := loadCourse(ctx, s.courses, courseID)
	if err != nil {
		return err
	}
	if !scope.CanWriteCourse(course) {
		return appErrors.Clone(appErrors.ErrForbidden, "course is outside your scope")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return notFoundOr(err, "student not found", "failed to load student")
	}
	if student.GroupID != course.GroupID {
		return appErrors.Clone(appErrors.ErrValidation, "student is not enrolled in course")
	}
	return nil
}

func (s *GradeService) writeError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		s.metrics.RecordEditRejection(access.KindGrade.String(), appErr.Code)
		return appErr
	}
	return internalError(err, message)
}
