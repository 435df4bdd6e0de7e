package handler

import (
	"github.com/gin-gonic/gin"
	ledgerapp "github.com/ledgerly/backend/internal/application/ledger"
)

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	BaseHandler
	invoices *ledgerapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices *ledgerapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// Create godoc
// @ID           createInvoice
// @Summary      Create an invoice
// @Description  The invoice starts unpaid; its status is derived from the due date
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body ledgerapp.CreateInvoiceRequest true "Invoice"
// @Success      201 {object} APIResponse[ledgerapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req ledgerapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.CreatedBy = userRef(c)

	invoice, err := h.invoices.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// GetByID godoc
// @ID           getInvoiceById
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[ledgerapp.InvoiceResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "invoice")
	if !ok {
		return
	}
	invoice, err := h.invoices.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// List godoc
// @ID           listInvoices
// @Summary      List invoices
// @Description  due_op with due_days filters on the signed days until due, e.g. due_op=lt&due_days=0 for overdue
// @Tags         invoices
// @Produce      json
// @Param        search      query string false "Search invoice or retailer name"
// @Param        retailer_id query string false "Retailer ID" format(uuid)
// @Param        status      query string false "Derived status" Enums(due, overdue, paid)
// @Param        from        query string false "Invoice date from" format(date)
// @Param        to          query string false "Invoice date to" format(date)
// @Param        due_op      query string false "Due-days comparison" Enums(gt, lt, eq)
// @Param        due_days    query int    false "Due-days operand"
// @Param        order_by    query string false "Sort field" Enums(invoice_name, amount, invoice_date, due_date, created_at)
// @Param        order_dir   query string false "Sort direction" Enums(asc, desc)
// @Param        page        query int    false "Page" default(1)
// @Param        page_size   query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]ledgerapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter ledgerapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	invoices, total, err := h.invoices.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	p, size := page(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, invoices, total, p, size)
}

// Update godoc
// @ID           updateInvoice
// @Summary      Update an invoice
// @Description  The amount cannot drop below what has already been paid
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id      path string                          true "Invoice ID" format(uuid)
// @Param        request body ledgerapp.UpdateInvoiceRequest true "Invoice"
// @Success      200 {object} APIResponse[ledgerapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "invoice")
	if !ok {
		return
	}
	var req ledgerapp.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	invoice, err := h.invoices.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// MarkPaid godoc
// @ID           markInvoicePaid
// @Summary      Settle an invoice
// @Description  Records a payment for the remaining amount and allocates it to this invoice only
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[ledgerapp.MarkPaidResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id}/mark-paid [post]
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "invoice")
	if !ok {
		return
	}
	result, err := h.invoices.MarkAsPaid(c.Request.Context(), tenantID, id, userRef(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Delete godoc
// @ID           deleteInvoice
// @Summary      Delete an invoice
// @Description  Fails with INVOICE_HAS_PAYMENTS while payments are allocated to it
// @Tags         invoices
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "invoice")
	if !ok {
		return
	}
	if err := h.invoices.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
