package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
	"github.com/noah-isme/edu-crm-api/pkg/response"
)

type gradeService interface {
	List(ctx context.Context, scope access.Scope, filter models.GradeFilter) ([]models.Grade, error)
	SaveGrade(ctx context.Context, scope access.Scope, req models.SaveGradeRequest) (*models.Grade, bool, error)
	SaveExam(ctx context.Context, scope access.Scope, req models.SaveExamRequest) (*models.Grade, bool, error)
	SaveRating(ctx context.Context, scope access.Scope, req models.SaveRatingRequest) (*models.Rating, bool, error)
}

// GradeHandler exposes grades, exams and period ratings.
type GradeHandler struct {
	grades gradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades gradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// List godoc
// @Summary List grades
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param course_id query string false "Course"
// @Param student_id query string false "Student"
// @Success 200 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	grades, err := h.grades.List(c.Request.Context(), scope, models.GradeFilter{
		CourseID:  c.Query("course_id"),
		StudentID: c.Query("student_id"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, grades, len(grades))
}

// SaveGrade godoc
// @Summary Save grade
// @Description Creates the grade or updates the existing one of the same type
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SaveGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) SaveGrade(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	var req models.SaveGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid payload"))
		return
	}
	grade, created, err := h.grades.SaveGrade(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondSaved(c, grade, created)
}

// SaveExam godoc
// @Summary Save exam result
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SaveExamRequest true "Exam payload"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Router /exams [post]
func (h *GradeHandler) SaveExam(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	var req models.SaveExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid payload"))
		return
	}
	grade, created, err := h.grades.SaveExam(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondSaved(c, grade, created)
}

// SaveRating godoc
// @Summary Save period rating
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SaveRatingRequest true "Rating payload"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Router /ratings [post]
func (h *GradeHandler) SaveRating(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	var req models.SaveRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid payload"))
		return
	}
	rating, created, err := h.grades.SaveRating(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondSaved(c, rating, created)
}
