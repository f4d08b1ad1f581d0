package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/edu-crm-api/internal/models"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
)

type mockAuthRepo struct {
	user              *models.User
	findErr           error
	auditLogs         []*models.AuditLog
	lastLoginUpdated  bool
	updatePasswordErr error
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.user == nil || m.user.Email != email {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if m.updatePasswordErr != nil {
		return m.updatePasswordErr
	}
	m.user.PasswordHash = passwordHash
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func newAuthFixture(t *testing.T, active bool) (*AuthService, *mockAuthRepo, *fakeDenylist) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockAuthRepo{user: &models.User{
		ID: "u1", Email: "dean@university.tj", PasswordHash: string(hash),
		FirstName: "Dilnoza", LastName: "Rahimova", Role: models.RoleDean, Active: active,
	}}
	denylist := &fakeDenylist{}
	svc := NewAuthService(repo, denylist, nil, zap.NewNop(), NewMetricsService(), AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "edu-crm-api",
	})
	return svc, repo, denylist
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	svc, repo, _ := newAuthFixture(t, true)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "dean@university.tj", Password: "password", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, "Dilnoza Rahimova", res.User.Name)
	assert.True(t, repo.lastLoginUpdated)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)

	claims, err := svc.ValidateToken(context.Background(), res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleDean, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestAuthServiceLoginRejections(t *testing.T) {
	tests := []struct {
		name     string
		active   bool
		email    string
		password string
		code     string
		message  string
	}{
		{name: "wrong password", active: true, email: "dean@university.tj", password: "nope", code: appErrors.ErrInvalidCredentials.Code},
		{name: "unknown email", active: true, email: "ghost@university.tj", password: "password", code: appErrors.ErrInvalidCredentials.Code},
		{name: "inactive", active: false, email: "dean@university.tj", password: "password", code: appErrors.ErrInactiveAccount.Code},
		{name: "wrong password on inactive account", active: false, email: "dean@university.tj", password: "nope", code: appErrors.ErrInvalidCredentials.Code},
		{name: "missing password", active: true, email: "dean@university.tj", code: appErrors.ErrValidation.Code, message: "incomplete data"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, _ := newAuthFixture(t, tc.active)
			_, err := svc.Login(context.Background(), models.LoginRequest{Email: tc.email, Password: tc.password})
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, tc.code, appErr.Code)
			if tc.message != "" {
				assert.Equal(t, tc.message, appErr.Message)
			}
			assert.False(t, repo.lastLoginUpdated)
		})
	}
}

func TestAuthServiceLogoutRevokesToken(t *testing.T) {
	svc, repo, denylist := newAuthFixture(t, true)
	ctx := context.Background()

	res, err := svc.Login(ctx, models.LoginRequest{Email: "dean@university.tj", Password: "password"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(ctx, res.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims, models.LoginRequest{}))
	ttl, ok := denylist.revoked[claims.ID]
	require.True(t, ok)
	assert.True(t, ttl > 0 && ttl <= time.Hour)
	assert.Equal(t, models.AuditActionLogout, repo.auditLogs[len(repo.auditLogs)-1].Action)

	_, err = svc.ValidateToken(ctx, res.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenFailsOpenOnDenylistError(t *testing.T) {
	svc, _, denylist := newAuthFixture(t, true)
	ctx := context.Background()
	res, err := svc.Login(ctx, models.LoginRequest{Email: "dean@university.tj", Password: "password"})
	require.NoError(t, err)

	denylist.err = errors.New("redis down")
	claims, err := svc.ValidateToken(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

func TestAuthServiceValidateTokenRejectsForeignSecret(t *testing.T) {
	svc, repo, _ := newAuthFixture(t, true)
	other := NewAuthService(repo, nil, nil, nil, nil, AuthConfig{AccessTokenSecret: "other", AccessTokenExpiry: time.Hour, Issuer: "edu-crm-api"})

	res, err := other.Login(context.Background(), models.LoginRequest{Email: "dean@university.tj", Password: "password"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), res.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceChangePassword(t *testing.T) {
	svc, repo, _ := newAuthFixture(t, true)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, "u1", models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpass1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.ChangePassword(ctx, "u1", models.ChangePasswordRequest{OldPassword: "password", NewPassword: "newpass1"}))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.user.PasswordHash), []byte("newpass1")))
}

func TestAuthServiceMe(t *testing.T) {
	svc, _, _ := newAuthFixture(t, true)

	info, err := svc.Me(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "dean@university.tj", info.Email)

	_, err = svc.Me(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
