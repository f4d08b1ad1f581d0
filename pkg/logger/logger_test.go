package logger

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/edu-crm-api/pkg/config"
)

func TestNewWithRotatedFile(t *testing.T) {
	cfg := &config.Config{Env: config.EnvDevelopment}
	cfg.Log.Level = "debug"
	cfg.Log.File = filepath.Join(t.TempDir(), "api.log")

	l, err := New(cfg)
	require.NoError(t, err)
	l.Info("hello")
	_ = l.Sync()

	assert.FileExists(t, cfg.Log.File)
}

func TestGinMiddlewareLogsUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(GinMiddleware(zap.New(core)))
	r.GET("/ping", func(c *gin.Context) {
		c.Set(UserIDKey, "user-1")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "http_request", entry.Message)
	assert.Equal(t, "user-1", entry.ContextMap()["user_id"])
	assert.Equal(t, int64(http.StatusOK), entry.ContextMap()["status"])
}
