package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-crm-api/internal/models"
	"github.com/noah-isme/edu-crm-api/internal/service"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
	"github.com/noah-isme/edu-crm-api/pkg/response"
)

// BehaviorHandler exposes behaviour notes.
type BehaviorHandler struct {
	behavior *service.BehaviorService
}

// NewBehaviorHandler constructs BehaviorHandler.
func NewBehaviorHandler(behavior *service.BehaviorService) *BehaviorHandler {
	return &BehaviorHandler{behavior: behavior}
}

// Create godoc
// @Summary Record behaviour note
// @Tags Behavior
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateBehaviorRequest true "Behaviour payload"
// @Success 201 {object} response.Envelope
// @Router /behavior [post]
func (h *BehaviorHandler) Create(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	var req models.CreateBehaviorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid payload"))
		return
	}
	record, err := h.behavior.Create(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// List godoc
// @Summary List behaviour notes
// @Tags Behavior
// @Produce json
// @Security BearerAuth
// @Param student_id query string false "Student"
// @Param course_id query string false "Course"
// @Param behavior_type query string false "Behaviour type"
// @Param from query string false "From date YYYY-MM-DD"
// @Param to query string false "To date YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /behavior [get]
func (h *BehaviorHandler) List(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	filter := models.BehaviorFilter{
		StudentID:    c.Query("student_id"),
		CourseID:     c.Query("course_id"),
		BehaviorType: strings.TrimSpace(c.Query("behavior_type")),
	}
	var err error
	if filter.From, err = queryDate(c, "from"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.To, err = queryDate(c, "to"); err != nil {
		response.Error(c, err)
		return
	}
	records, err := h.behavior.List(c.Request.Context(), scope, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, records, len(records))
}

func queryDate(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, key+" must be YYYY-MM-DD")
	}
	return &t, nil
}
