package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
	"github.com/noah-isme/edu-crm-api/pkg/export"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

type studentRepository interface {
	List(ctx context.Context, scope access.Scope, filter models.StudentFilter) ([]models.Student, int, error)
	Search(ctx context.Context, scope access.Scope, filter models.StudentFilter, limit int) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, user *models.User, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	SetStatus(ctx context.Context, id string, status models.StudentStatus) error
}

type groupLookup interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

// StudentService handles student profile workflows.
type StudentService struct {
	repo      studentRepository
	groups    groupLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, groups groupLookup, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &StudentService{repo: repo, groups: groups, validator: validate, logger: logger}
}

// List returns paginated students visible to scope.
func (s *StudentService) List(ctx context.Context, scope access.Scope, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list students")
	}
	return students, paginate(filter.Page, filter.PageSize, total), nil
}

// Search returns at most limit students visible to scope. limit defaults to 20 and is capped at 100.
func (s *StudentService) Search(ctx context.Context, scope access.Scope, filter models.StudentFilter, limit int) ([]models.Student, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	students, err := s.repo.Search(ctx, scope, filter, limit)
	if err != nil {
		return nil, internalError(err, "failed to search students")
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// Get returns a student profile when it is visible to scope.
func (s *StudentService) Get(ctx context.Context, scope access.Scope, id string) (*models.Student, error) {
	student, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccessStudent(student) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student is outside your scope")
	}
	return student, nil
}

// Create provisions the student login and profile together.
func (s *StudentService) Create(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	if err := s.ensureGroup(ctx, req.GroupID); err != nil {
		return nil, err
	}

	student := &models.Student{
		StudentCode: req.StudentCode,
		GroupID:     req.GroupID,
		ParentID:    req.ParentID,
		Status:      models.StudentActive,
	}
	if req.EnrollmentDate != "" {
		d, err := parseDate(req.EnrollmentDate)
		if err != nil {
			return nil, err
		}
		student.EnrollmentDate = d
	}

	user, err := newAccount(req.Email, req.Password, req.FirstName, req.LastName, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, user, student); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email or student code already exists")
		}
		return nil, internalError(err, "failed to create student")
	}
	return student, nil
}

// Update applies partial profile changes.
func (s *StudentService) Update(ctx context.Context, id string, req models.UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	student, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		student.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		student.LastName = *req.LastName
	}
	if req.GroupID != nil && *req.GroupID != student.GroupID {
		if err := s.ensureGroup(ctx, *req.GroupID); err != nil {
			return nil, err
		}
		student.GroupID = *req.GroupID
	}
	if req.ParentID != nil {
		if *req.ParentID == "" {
			student.ParentID = nil
		} else {
			student.ParentID = req.ParentID
		}
	}
	if req.Status != nil {
		student.Status = *req.Status
	}

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, internalError(err, "failed to update student")
	}
	return student, nil
}

// Delete marks the student inactive; rows are never removed.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.SetStatus(ctx, id, models.StudentInactive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return internalError(err, "failed to deactivate student")
	}
	return nil
}

// Import creates students of groupID from an xlsx roster with columns
// email, first_name, last_name, student_code and password.
// Every row is validated and hashed before the first write, so a malformed row is reported and
// skipped and can never abort the import halfway. Duplicates found on insert are skipped too.
func (s *StudentService) Import(ctx context.Context, groupID string, r io.Reader) (*models.StudentImportResult, error) {
	if strings.TrimSpace(groupID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, appErrors.ErrValidation.Message)
	}
	if err := s.ensureGroup(ctx, groupID); err != nil {
		return nil, err
	}
	rows, err := export.ReadSheet(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable spreadsheet")
	}

	type pendingStudent struct {
		line    int
		user    *models.User
		student *models.Student
	}
	result := &models.StudentImportResult{Skipped: []models.ImportRowError{}}
	pending := make([]pendingStudent, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		req := models.CreateStudentRequest{
			Email:       row["email"],
			Password:    row["password"],
			FirstName:   row["first_name"],
			LastName:    row["last_name"],
			StudentCode: row["student_code"],
			GroupID:     groupID,
		}
		if err := s.validator.Struct(req); err != nil {
			result.Skipped = append(result.Skipped, models.ImportRowError{Row: line, Reason: appErrors.ErrValidation.Message})
			continue
		}
		user, err := newAccount(req.Email, req.Password, req.FirstName, req.LastName, models.RoleStudent)
		if err != nil {
			if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrValidation.Code {
				result.Skipped = append(result.Skipped, models.ImportRowError{Row: line, Reason: appErr.Message})
				continue
			}
			return nil, err
		}
		pending = append(pending, pendingStudent{
			line:    line,
			user:    user,
			student: &models.Student{StudentCode: req.StudentCode, GroupID: groupID, Status: models.StudentActive},
		})
	}

	for _, p := range pending {
		if err := s.repo.Create(ctx, p.user, p.student); err != nil {
			if appErrors.IsUniqueViolation(err) {
				result.Skipped = append(result.Skipped, models.ImportRowError{Row: p.line, Reason: "duplicate email or student code"})
				continue
			}
			return nil, internalError(err, "failed to import students")
		}
		result.Imported++
	}
	sort.SliceStable(result.Skipped, func(i, j int) bool { return result.Skipped[i].Row < result.Skipped[j].Row })

	s.logger.Info("student roster imported",
		zap.String("group_id", groupID),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

func (s *StudentService) load(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, internalError(err, "failed to load student")
	}
	return student, nil
}

func (s *StudentService) ensureGroup(ctx context.Context, groupID string) error {
	if _, err := s.groups.FindByID(ctx, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return internalError(err, "failed to load group")
	}
	return nil
}

func newAccount(email, password, firstName, lastName string, role models.UserRole) (*models.User, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	return &models.User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
		Active:       true,
	}, nil
}
