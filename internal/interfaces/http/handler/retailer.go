package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	ledgerapp "github.com/ledgerly/backend/internal/application/ledger"
	"github.com/ledgerly/backend/internal/application/report"
	"github.com/ledgerly/backend/internal/domain/shared"
)

// RetailerHandler handles retailer endpoints and their statement exports
type RetailerHandler struct {
	BaseHandler
	retailers  *ledgerapp.RetailerService
	statements *report.StatementService
}

// NewRetailerHandler creates a new RetailerHandler
func NewRetailerHandler(retailers *ledgerapp.RetailerService, statements *report.StatementService) *RetailerHandler {
	return &RetailerHandler{retailers: retailers, statements: statements}
}

// page returns the pagination that the repositories will actually apply
func page(p, size int) (int, int) {
	f := shared.Filter{Page: p, PageSize: size}.Normalize()
	return f.Page, f.PageSize
}

// Create godoc
// @ID           createRetailer
// @Summary      Create a retailer
// @Tags         retailers
// @Accept       json
// @Produce      json
// @Param        request body ledgerapp.CreateRetailerRequest true "Retailer"
// @Success      201 {object} APIResponse[ledgerapp.RetailerResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /retailers [post]
func (h *RetailerHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req ledgerapp.CreateRetailerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.CreatedBy = userRef(c)

	retailer, err := h.retailers.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, retailer)
}

// GetByID godoc
// @ID           getRetailerById
// @Summary      Get a retailer
// @Tags         retailers
// @Produce      json
// @Param        id path string true "Retailer ID" format(uuid)
// @Success      200 {object} APIResponse[ledgerapp.RetailerResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /retailers/{id} [get]
func (h *RetailerHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "retailer")
	if !ok {
		return
	}
	retailer, err := h.retailers.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, retailer)
}

// List godoc
// @ID           listRetailers
// @Summary      List retailers
// @Description  Search matches name, email and phone
// @Tags         retailers
// @Produce      json
// @Param        search    query string false "Search term"
// @Param        order_by  query string false "Sort field" Enums(name, created_at, updated_at)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Param        page      query int    false "Page" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]ledgerapp.RetailerResponse]
// @Security     BearerAuth
// @Router       /retailers [get]
func (h *RetailerHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter ledgerapp.RetailerListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	retailers, total, err := h.retailers.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	p, size := page(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, retailers, total, p, size)
}

// Update godoc
// @ID           updateRetailer
// @Summary      Update a retailer
// @Description  Renaming also updates the retailer name carried by its invoices and payments
// @Tags         retailers
// @Accept       json
// @Produce      json
// @Param        id      path string                           true "Retailer ID" format(uuid)
// @Param        request body ledgerapp.UpdateRetailerRequest true "Retailer"
// @Success      200 {object} APIResponse[ledgerapp.RetailerResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /retailers/{id} [put]
func (h *RetailerHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "retailer")
	if !ok {
		return
	}
	var req ledgerapp.UpdateRetailerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	retailer, err := h.retailers.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, retailer)
}

// Delete godoc
// @ID           deleteRetailer
// @Summary      Delete a retailer
// @Description  Fails with RETAILER_HAS_INVOICES while invoices reference the retailer
// @Tags         retailers
// @Param        id path string true "Retailer ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /retailers/{id} [delete]
func (h *RetailerHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "retailer")
	if !ok {
		return
	}
	if err := h.retailers.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// StatementLink is returned when a statement was uploaded to object storage
// @Description Presigned download link of an exported statement
type StatementLink struct {
	Name        string     `json:"name" example:"statement-0b7c...-20240603.xlsx"`
	ContentType string     `json:"content_type"`
	Size        int        `json:"size"`
	URL         string     `json:"url"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// StatementXLSX godoc
// @ID           exportRetailerStatementXlsx
// @Summary      Export a retailer statement as XLSX
// @Description  Streams the workbook, or returns a presigned link when object storage is configured
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce      json
// @Param        id path string true "Retailer ID" format(uuid)
// @Success      200 {object} APIResponse[StatementLink]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /retailers/{id}/statement.xlsx [get]
func (h *RetailerHandler) StatementXLSX(c *gin.Context) {
	h.export(c, report.FormatXLSX)
}

// StatementPDF godoc
// @ID           exportRetailerStatementPdf
// @Summary      Export a retailer statement as PDF
// @Description  Fails with PDF_EXPORT_DISABLED unless PDF export is enabled
// @Tags         reports
// @Produce      application/pdf
// @Produce      json
// @Param        id path string true "Retailer ID" format(uuid)
// @Success      200 {object} APIResponse[StatementLink]
// @Failure      404 {object} ErrorResponse
// @Failure      501 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /retailers/{id}/statement.pdf [get]
func (h *RetailerHandler) StatementPDF(c *gin.Context) {
	h.export(c, report.FormatPDF)
}

func (h *RetailerHandler) export(c *gin.Context, format report.Format) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "retailer")
	if !ok {
		return
	}
	file, err := h.statements.Export(c.Request.Context(), tenantID, id, format)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if file.Uploaded() {
		h.Success(c, StatementLink{
			Name:        file.Name,
			ContentType: file.ContentType,
			Size:        file.Size,
			URL:         file.URL,
			ExpiresAt:   file.ExpiresAt,
		})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Header("Content-Length", strconv.Itoa(len(file.Data)))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
