package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/pawclinic-backend/internal/http/response"
	"github.com/yungbote/pawclinic-backend/internal/services"
)

type AdminHandler struct {
	dashboard services.DashboardService
}

func NewAdminHandler(dashboard services.DashboardService) *AdminHandler {
	return &AdminHandler{dashboard: dashboard}
}

// GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	d, err := h.dashboard.Dashboard(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, "dashboard_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"dashboard": d})
}
