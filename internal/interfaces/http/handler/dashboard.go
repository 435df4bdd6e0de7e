package handler

import (
	"github.com/gin-gonic/gin"
	ledgerapp "github.com/ledgerly/backend/internal/application/ledger"
)

// DashboardHandler serves the receivables overview
type DashboardHandler struct {
	BaseHandler
	dashboard *ledgerapp.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboard *ledgerapp.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary godoc
// @ID           getDashboardSummary
// @Summary      Receivables summary
// @Description  Pending and overdue totals, invoice counts per status, outstanding balance per retailer and the latest invoices
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} APIResponse[ledgerapp.DashboardSummaryResponse]
// @Security     BearerAuth
// @Router       /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	summary, err := h.dashboard.Summary(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
