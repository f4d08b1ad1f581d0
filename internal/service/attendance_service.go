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
	"github.com/noah-isme/edu-crm-api/internal/repository"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
)

// ReasonNotInGroup marks bulk rows whose student is not an active member of the course group.
const ReasonNotInGroup = "NOT_IN_GROUP"

type attendanceRepository interface {
	List(ctx context.Context, scope access.Scope, filter models.AttendanceFilter) ([]models.Attendance, error)
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
	BulkUpsert(ctx context.Context, courseID string, date time.Time, items []models.BulkAttendanceItem, createdBy string, check repository.EditCheck) (*models.BulkSaveResult, error)
	Update(ctx context.Context, id string, req models.UpdateAttendanceRequest, check repository.EditCheck) (*models.Attendance, error)
}

type groupRoster interface {
	ListActiveByGroup(ctx context.Context, groupID string) ([]models.Student, error)
}

// AttendanceService records attendance under the ownership and edit-window rules.
type AttendanceService struct {
	repo      attendanceRepository
	courses   courseFinder
	roster    groupRoster
	policy    access.EditPolicy
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	now       func() time.Time
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceRepository, courses courseFinder, roster groupRoster, policy access.EditPolicy, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &AttendanceService{
		repo:      repo,
		courses:   courses,
		roster:    roster,
		policy:    policy,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// List returns attendance rows visible to scope, optionally narrowed to one course and date.
func (s *AttendanceService) List(ctx context.Context, scope access.Scope, courseID, date string) ([]models.Attendance, error) {
	filter := models.AttendanceFilter{CourseID: courseID}
	if date != "" {
		day, err := parseDate(date)
		if err != nil {
			return nil, err
		}
		filter.From = &day
		filter.To = &day
	}
	rows, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, internalError(err, "failed to list attendance")
	}
	if rows == nil {
		rows = []models.Attendance{}
	}
	return rows, nil
}

// BulkSave writes a roster for one course and date in a single transaction.
// Rows outside the course group or past the caller's edit window are skipped and reported.
func (s *AttendanceService) BulkSave(ctx context.Context, scope access.Scope, req models.BulkAttendanceRequest) (*models.BulkSaveResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attendance payload")
	}
	day, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	course, err := loadCourse(ctx, s.courses, req.CourseID)
	if err != nil {
		return nil, err
	}
	if !scope.CanWriteCourse(course) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course is outside your scope")
	}

	members, err := s.roster.ListActiveByGroup(ctx, course.GroupID)
	if err != nil {
		return nil, internalError(err, "failed to load course roster")
	}
	inGroup := make(map[string]struct{}, len(members))
	for _, m := range members {
		inGroup[m.ID] = struct{}{}
	}

	var skipped []models.SkippedRecord
	items := make([]models.BulkAttendanceItem, 0, len(req.Records))
	for _, item := range req.Records {
		if _, ok := inGroup[item.StudentID]; !ok {
			skipped = append(skipped, models.SkippedRecord{StudentID: item.StudentID, Reason: ReasonNotInGroup})
			continue
		}
		items = append(items, item)
	}

	result := &models.BulkSaveResult{Skipped: []models.SkippedRecord{}}
	if len(items) > 0 {
		check := editCheck(s.policy, access.KindAttendance, scope.Role, s.now)
		result, err = s.repo.BulkUpsert(ctx, course.ID, day, items, scope.UserID, check)
		if err != nil {
			return nil, internalError(err, "failed to save attendance")
		}
	}
	for _, sk := range result.Skipped {
		s.metrics.RecordEditRejection(access.KindAttendance.String(), sk.Reason)
	}
	result.Skipped = append(skipped, result.Skipped...)
	if result.Skipped == nil {
		result.Skipped = []models.SkippedRecord{}
	}
	s.metrics.RecordWrites(access.KindAttendance.String(), result.SavedCount)

	s.logger.Info("attendance saved",
		zap.String("course_id", course.ID),
		zap.String("date", req.Date),
		zap.Int("saved", result.SavedCount),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// Update edits one attendance row, re-evaluating the edit window inside the write transaction.
func (s *AttendanceService) Update(ctx context.Context, scope access.Scope, id string, req models.UpdateAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attendance payload")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "attendance not found", "failed to load attendance")
	}
	course, err := loadCourse(ctx, s.courses, existing.CourseID)
	if err != nil {
		return nil, err
	}
	if !scope.CanWriteCourse(course) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course is outside your scope")
	}

	row, err := s.repo.Update(ctx, id, req, editCheck(s.policy, access.KindAttendance, scope.Role, s.now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance not found")
		}
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			s.metrics.RecordEditRejection(access.KindAttendance.String(), appErr.Code)
			return nil, appErr
		}
		return nil, internalError(err, "failed to update attendance")
	}
	s.metrics.RecordWrites(access.KindAttendance.String(), 1)
	return row, nil
}
