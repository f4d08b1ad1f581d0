package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-crm-api/internal/models"
	"github.com/noah-isme/edu-crm-api/internal/service"
	"github.com/noah-isme/edu-crm-api/pkg/response"
)

// EnrollmentHandler exposes the derived enrollment view and visibility counts.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List godoc
// @Summary List enrollments
// @Description Course and student pairs derived from course groups
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param course_id query string false "Course"
// @Param student_id query string false "Student"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), scope, models.EnrollmentFilter{
		CourseID:  c.Query("course_id"),
		StudentID: c.Query("student_id"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Counts godoc
// @Summary Visibility counts
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /visibility/counts [get]
func (h *EnrollmentHandler) Counts(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	counts, err := h.enrollments.Counts(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}
