package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/middleware"
	"github.com/noah-isme/edu-crm-api/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	deanScope    = access.Scope{Role: models.RoleDean, UserID: "dean-1"}
	teacherScope = access.Scope{Role: models.RoleTeacher, UserID: "user-t", TeacherID: "teacher-1", GroupIDs: []string{"group-1"}}
)

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func withScope(c *gin.Context, scope access.Scope) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: scope.UserID, Role: scope.Role})
	c.Set(middleware.ContextScopeKey, scope)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
	Message string          `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}
