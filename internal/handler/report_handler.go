package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
	"github.com/noah-isme/edu-crm-api/internal/service"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
	"github.com/noah-isme/edu-crm-api/pkg/export"
	"github.com/noah-isme/edu-crm-api/pkg/response"
)

type reportService interface {
	AttendanceSummary(ctx context.Context, scope access.Scope, groupID, start, end string) (*models.AttendanceSummary, error)
	Transcript(ctx context.Context, scope access.Scope, studentID string) (*models.Transcript, error)
	Snapshot(ctx context.Context, scope access.Scope, studentID string) (*models.Report, error)
	History(ctx context.Context, scope access.Scope, studentID string, limit int) ([]models.Report, error)
	Render(data export.Dataset, format export.Format) ([]byte, error)
}

// ReportHandler serves attendance summaries and transcripts.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func requestedFormat(c *gin.Context, allowed ...export.Format) (export.Format, error) {
	raw := strings.ToLower(strings.TrimSpace(c.Query("format")))
	if raw == "" {
		return export.FormatJSON, nil
	}
	for _, f := range allowed {
		if export.Format(raw) == f {
			return f, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", raw))
}

func (h *ReportHandler) download(c *gin.Context, data export.Dataset, format export.Format, filename string) {
	body, err := h.reports.Render(data, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.%s\"", filename, format))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, format.ContentType(), body)
}

// AttendanceSummary godoc
// @Summary Group attendance summary
// @Tags Reports
// @Produce json
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param group_id query string true "Group"
// @Param start_date query string true "Start date YYYY-MM-DD"
// @Param end_date query string true "End date YYYY-MM-DD"
// @Param format query string false "json, csv or xlsx"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/attendance-summary [get]
func (h *ReportHandler) AttendanceSummary(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	format, err := requestedFormat(c, export.FormatJSON, export.FormatCSV, export.FormatXLSX)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.reports.AttendanceSummary(c.Request.Context(), scope, c.Query("group_id"), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if format == export.FormatJSON {
		response.JSON(c, http.StatusOK, summary, nil)
		return
	}
	filename := fmt.Sprintf("attendance-%s-%s-%s", summary.GroupName, summary.StartDate, summary.EndDate)
	h.download(c, service.AttendanceSummaryDataset(summary), format, filename)
}

// Transcript godoc
// @Summary Student transcript
// @Tags Reports
// @Produce json
// @Produce application/pdf
// @Security BearerAuth
// @Param student_id path string true "Student"
// @Param format query string false "json or pdf"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/transcript/{student_id} [get]
func (h *ReportHandler) Transcript(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	format, err := requestedFormat(c, export.FormatJSON, export.FormatPDF)
	if err != nil {
		response.Error(c, err)
		return
	}
	transcript, err := h.reports.Transcript(c.Request.Context(), scope, c.Param("student_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if format == export.FormatJSON {
		response.JSON(c, http.StatusOK, transcript, nil)
		return
	}
	h.download(c, service.TranscriptDataset(transcript), format, "transcript-"+transcript.StudentCode)
}

// Snapshot godoc
// @Summary Persist transcript snapshot
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param student_id path string true "Student"
// @Success 201 {object} response.Envelope
// @Router /reports/transcript/{student_id}/snapshot [post]
func (h *ReportHandler) Snapshot(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	report, err := h.reports.Snapshot(c.Request.Context(), scope, c.Param("student_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// History godoc
// @Summary Saved report snapshots of a student
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param student_id query string false "Student, empty lists every snapshot visible to the caller"
// @Param limit query int false "Max results"
// @Success 200 {object} response.Envelope
// @Router /reports/history [get]
func (h *ReportHandler) History(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	studentID := strings.TrimSpace(c.Query("student_id"))
	reports, err := h.reports.History(c.Request.Context(), scope, studentID, queryInt(c, "limit", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, reports, len(reports))
}
