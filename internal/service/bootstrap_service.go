package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-crm-api/internal/models"
	"github.com/noah-isme/edu-crm-api/pkg/config"
)

type bootstrapUserRepository interface {
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
	Create(ctx context.Context, user *models.User) error
}

// BootstrapService seeds the first dean account so a fresh deployment can be administered.
type BootstrapService struct {
	users  bootstrapUserRepository
	config config.BootstrapConfig
	logger *zap.Logger
}

// NewBootstrapService constructs a BootstrapService.
func NewBootstrapService(users bootstrapUserRepository, cfg config.BootstrapConfig, logger *zap.Logger) *BootstrapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BootstrapService{users: users, config: cfg, logger: logger}
}

// EnsureDean creates the configured dean when seeding is enabled and no dean exists.
// It reports whether an account was created.
func (s *BootstrapService) EnsureDean(ctx context.Context) (bool, error) {
	if !s.config.Dean {
		return false, nil
	}
	count, err := s.users.CountByRole(ctx, models.RoleDean)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hash, err := hashPassword(s.config.DeanPassword)
	if err != nil {
		return false, err
	}
	dean := &models.User{
		Email:        strings.ToLower(s.config.DeanEmail),
		PasswordHash: hash,
		FirstName:    "Dean",
		Role:         models.RoleDean,
		Active:       true,
	}
	if err := s.users.Create(ctx, dean); err != nil {
		return false, err
	}
	s.logger.Warn("seeded initial dean account, change its password", zap.String("email", dean.Email))
	return true, nil
}
