package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
)

type fakeDashboardService struct {
	scope access.Scope
}

func (f *fakeDashboardService) Stats(ctx context.Context, scope access.Scope) (*models.DashboardStats, error) {
	f.scope = scope
	return &models.DashboardStats{Role: scope.Role, Teacher: &models.TeacherDashboard{}}, nil
}

func TestDashboardHandlerStats(t *testing.T) {
	svc := &fakeDashboardService{}
	h := NewDashboardHandler(svc)

	c, w := newGinContext(http.MethodGet, "/dashboard/statistics", nil)
	withScope(c, teacherScope)
	h.Stats(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "teacher-1", svc.scope.TeacherID)
	assert.Contains(t, w.Body.String(), `"role":"teacher"`)
}

type stubPinger struct{ err error }

func (s stubPinger) PingContext(ctx context.Context) error { return s.err }

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(stubPinger{}, nil)
	c, w := newGinContext(http.MethodGet, "/health", nil)
	h.Health(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	h = NewHealthHandler(stubPinger{err: errors.New("down")}, nil)
	c, w = newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
