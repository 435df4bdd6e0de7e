package handler

import (
	"github.com/gin-gonic/gin"
	ledgerapp "github.com/ledgerly/backend/internal/application/ledger"
)

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	BaseHandler
	payments *ledgerapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *ledgerapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Allocate godoc
// @ID           allocatePayment
// @Summary      Allocate a lump-sum payment
// @Description  Applies the amount to the retailer's unpaid invoices, oldest due date first.
// @Description  Either the whole amount is applied or nothing is recorded.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body ledgerapp.AllocatePaymentRequest true "Payment"
// @Success      201 {object} APIResponse[ledgerapp.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/allocate [post]
func (h *PaymentHandler) Allocate(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req ledgerapp.AllocatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.CreatedBy = userRef(c)

	payment, err := h.payments.Allocate(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// Record godoc
// @ID           recordPayment
// @Summary      Record a payment with explicit allocations
// @Description  The allocations must sum to the amount and each must fit its invoice's remaining balance
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body ledgerapp.RecordPaymentRequest true "Payment"
// @Success      201 {object} APIResponse[ledgerapp.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments [post]
func (h *PaymentHandler) Record(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req ledgerapp.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.CreatedBy = userRef(c)

	payment, err := h.payments.Record(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// GetByID godoc
// @ID           getPaymentById
// @Summary      Get a payment
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} APIResponse[ledgerapp.PaymentResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/{id} [get]
func (h *PaymentHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "payment")
	if !ok {
		return
	}
	payment, err := h.payments.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// List godoc
// @ID           listPayments
// @Summary      List payments
// @Tags         payments
// @Produce      json
// @Param        retailer_id query string false "Retailer ID" format(uuid)
// @Param        invoice_id  query string false "Only payments allocated to this invoice" format(uuid)
// @Param        from        query string false "Payment date from" format(date)
// @Param        to          query string false "Payment date to" format(date)
// @Param        order_by    query string false "Sort field" Enums(payment_date, amount, created_at)
// @Param        order_dir   query string false "Sort direction" Enums(asc, desc)
// @Param        page        query int    false "Page" default(1)
// @Param        page_size   query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]ledgerapp.PaymentResponse]
// @Security     BearerAuth
// @Router       /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter ledgerapp.PaymentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	payments, total, err := h.payments.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	p, size := page(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, payments, total, p, size)
}

// Delete godoc
// @ID           deletePayment
// @Summary      Delete a payment
// @Description  Reverses the payment's allocations. Invoices that cannot be restored are reported as warnings.
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} APIResponse[ledgerapp.DeletePaymentResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/{id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "payment")
	if !ok {
		return
	}
	result, err := h.payments.Delete(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
