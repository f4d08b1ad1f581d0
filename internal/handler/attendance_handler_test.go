package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
)

type fakeAttendanceService struct {
	bulk      models.BulkAttendanceRequest
	scope     access.Scope
	updateErr error
	courseID  string
	date      string
}

func (f *fakeAttendanceService) List(ctx context.Context, scope access.Scope, courseID, date string) ([]models.Attendance, error) {
	f.courseID, f.date = courseID, date
	return []models.Attendance{}, nil
}

func (f *fakeAttendanceService) BulkSave(ctx context.Context, scope access.Scope, req models.BulkAttendanceRequest) (*models.BulkSaveResult, error) {
	f.bulk = req
	f.scope = scope
	return &models.BulkSaveResult{
		SavedCount: len(req.Records) - 1,
		Skipped:    []models.SkippedRecord{{StudentID: req.Records[0].StudentID, Reason: "EDIT_WINDOW_CLOSED"}},
	}, nil
}

func (f *fakeAttendanceService) Update(ctx context.Context, scope access.Scope, id string, req models.UpdateAttendanceRequest) (*models.Attendance, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &models.Attendance{ID: id, Status: req.Status}, nil
}

func TestAttendanceHandlerBulkSave(t *testing.T) {
	svc := &fakeAttendanceService{}
	h := NewAttendanceHandler(svc)

	body := []byte(`{"course_id":"course-1","date":"2024-03-10","records":[{"student_id":"s1","status":"present"},{"student_id":"s2","status":"late"}]}`)
	c, w := newGinContext(http.MethodPost, "/attendance/bulk", body)
	withScope(c, teacherScope)
	h.BulkSave(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "course-1", svc.bulk.CourseID)
	assert.Len(t, svc.bulk.Records, 2)
	assert.Equal(t, "teacher-1", svc.scope.TeacherID)
	assert.Contains(t, w.Body.String(), `"saved_count":1`)
	assert.Contains(t, w.Body.String(), `"reason":"EDIT_WINDOW_CLOSED"`)
}

func TestAttendanceHandlerBulkSaveRejectsBadBody(t *testing.T) {
	h := NewAttendanceHandler(&fakeAttendanceService{})

	c, w := newGinContext(http.MethodPost, "/attendance/bulk", []byte(`{"records":`))
	withScope(c, teacherScope)
	h.BulkSave(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodPost, "/attendance/bulk", []byte(`{}`))
	h.BulkSave(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAttendanceHandlerUpdateWindowClosed(t *testing.T) {
	h := NewAttendanceHandler(&fakeAttendanceService{updateErr: appErrors.ErrEditWindowClosed})

	c, w := newGinContext(http.MethodPut, "/attendance/att-1", []byte(`{"status":"absent"}`))
	c.Params = gin.Params{{Key: "id", Value: "att-1"}}
	withScope(c, teacherScope)
	h.Update(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "EDIT_WINDOW_CLOSED", decode(t, w).Error.Code)
}

func TestAttendanceHandlerList(t *testing.T) {
	svc := &fakeAttendanceService{}
	h := NewAttendanceHandler(svc)

	c, w := newGinContext(http.MethodGet, "/attendance?course_id=course-1&date=2024-03-10", nil)
	withScope(c, deanScope)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "course-1", svc.courseID)
	assert.Equal(t, "2024-03-10", svc.date)
	assert.Equal(t, 0, *decode(t, w).Count)
}
