package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
)

type groupRepository interface {
	List(ctx context.Context, scope access.Scope, filter models.GroupFilter) ([]models.Group, error)
	FindByID(ctx context.Context, id string) (*models.Group, error)
	Create(ctx context.Context, group *models.Group) error
}

// GroupService manages student groups.
type GroupService struct {
	repo      groupRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService constructs a GroupService.
func NewGroupService(repo groupRepository, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &GroupService{repo: repo, validator: validate, logger: logger}
}

// List returns the groups visible to scope.
func (s *GroupService) List(ctx context.Context, scope access.Scope, filter models.GroupFilter) ([]models.Group, error) {
	groups, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, internalError(err, "failed to list groups")
	}
	if groups == nil {
		groups = []models.Group{}
	}
	return groups, nil
}

// Get returns one group when it is visible to scope.
func (s *GroupService) Get(ctx context.Context, scope access.Scope, id string) (*models.Group, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, internalError(err, "failed to load group")
	}
	if !scope.CanAccessGroup(group.ID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "group is outside your scope")
	}
	return group, nil
}

// Create adds a group.
func (s *GroupService) Create(ctx context.Context, req models.CreateGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid group payload")
	}
	group := &models.Group{Name: req.Name, CourseYear: req.CourseYear}
	if err := s.repo.Create(ctx, group); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "group name already exists")
		}
		return nil, internalError(err, "failed to create group")
	}
	return group, nil
}
