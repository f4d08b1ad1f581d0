package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
	"github.com/noah-isme/edu-crm-api/internal/service"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
	"github.com/noah-isme/edu-crm-api/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator struct {
	claims *models.JWTClaims
	err    error
	token  string
}

func (s *stubValidator) ValidateToken(ctx context.Context, token string) (*models.JWTClaims, error) {
	s.token = token
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

type stubResolver struct {
	scope access.Scope
	err   error
}

func (s stubResolver) Resolve(ctx context.Context, claims *models.JWTClaims) (access.Scope, error) {
	return s.scope, s.err
}

type recordingAudit struct {
	logs []*models.AuditLog
}

func (r *recordingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error.Code
}

func TestJWTMiddleware(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleTeacher}
	tests := []struct {
		name      string
		header    string
		validator *stubValidator
		status    int
		code      string
	}{
		{name: "missing header", validator: &stubValidator{claims: claims}, status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "wrong scheme", header: "Basic abc", validator: &stubValidator{claims: claims}, status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "empty token", header: "Bearer ", validator: &stubValidator{claims: claims}, status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "revoked", header: "Bearer abc", validator: &stubValidator{err: appErrors.Clone(appErrors.ErrUnauthorized, "token has been revoked")}, status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "valid", header: "bearer abc", validator: &stubValidator{claims: claims}, status: http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/me", JWT(tc.validator), func(c *gin.Context) {
				got, ok := CurrentClaims(c)
				require.True(t, ok)
				assert.Equal(t, "u1", got.UserID)
				assert.Equal(t, "u1", c.GetString(logger.UserIDKey))
				c.Status(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.code != "" {
				assert.Equal(t, tc.code, errorCode(t, rec))
			} else {
				assert.Equal(t, "abc", tc.validator.token)
			}
		})
	}
}

func withClaims(claims *models.JWTClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		role   models.UserRole
		status int
	}{
		{models.RoleDean, http.StatusOK},
		{models.RoleViceDean, http.StatusOK},
		{models.RoleTeacher, http.StatusForbidden},
		{models.RoleParent, http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(string(tc.role), func(t *testing.T) {
			router := gin.New()
			router.POST("/groups", withClaims(&models.JWTClaims{UserID: "u", Role: tc.role}),
				RequireRoles(models.RoleDean, models.RoleViceDean),
				func(c *gin.Context) { c.Status(http.StatusOK) })
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/groups", nil))
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusForbidden {
				assert.Equal(t, "FORBIDDEN", errorCode(t, rec))
			}
		})
	}

	router := gin.New()
	router.GET("/x", RequireRoles(models.RoleDean), func(c *gin.Context) { c.Status(http.StatusOK) })
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestScopeMiddleware(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleTeacher}
	want := access.Scope{Role: models.RoleTeacher, UserID: "u1", TeacherID: "t1"}

	router := gin.New()
	router.GET("/ok", withClaims(claims), Scope(stubResolver{scope: want}, nil), func(c *gin.Context) {
		got, ok := CurrentScope(c)
		require.True(t, ok)
		assert.Equal(t, want, got)
		c.Status(http.StatusOK)
	})
	router.GET("/unknown", withClaims(claims), Scope(stubResolver{err: fmt.Errorf("%w: %q", access.ErrUnknownRole, "x")}, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/broken", withClaims(claims), Scope(stubResolver{err: errors.New("db down")}, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for path, status := range map[string]int{"/ok": 200, "/unknown": 403, "/broken": 500} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, status, rec.Code, path)
	}
}

func TestAuditMiddleware(t *testing.T) {
	repo := &recordingAudit{}
	router := gin.New()
	claims := &models.JWTClaims{UserID: "dean-1", Role: models.RoleDean}
	router.PUT("/students/:id", withClaims(claims), Audit(repo, nil, models.AuditActionUpdate, "students"), func(c *gin.Context) {
		if c.Param("id") == "bad" {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/students/s1", nil))
	require.Len(t, repo.logs, 1)
	assert.Equal(t, "dean-1", *repo.logs[0].UserID)
	assert.Equal(t, "s1", *repo.logs[0].ResourceID)
	assert.Equal(t, "students", repo.logs[0].Resource)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/students/bad", nil))
	assert.Len(t, repo.logs, 1)
}

func TestMetricsMiddleware(t *testing.T) {
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics))
	router.GET("/groups/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/groups/42", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	found := false
	for _, family := range families {
		if family.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "path" && label.GetValue() == "/groups/:id" {
					found = true
				}
			}
		}
	}
	assert.True(t, found)

	router = gin.New()
	router.Use(Metrics(nil))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
