package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
	"github.com/noah-isme/edu-crm-api/pkg/response"
)

type dashboardService interface {
	Stats(ctx context.Context, scope access.Scope) (*models.DashboardStats, error)
}

// DashboardHandler serves role specific statistics.
type DashboardHandler struct {
	dashboard dashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard dashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Stats godoc
// @Summary Dashboard statistics
// @Description Shape depends on the caller role
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard/statistics [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	stats, err := h.dashboard.Stats(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
