package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/interfaces/http/dto"
	"github.com/ledgerly/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setJWTContext simulates an authenticated request
func setJWTContext(c *gin.Context, tenantID, userID uuid.UUID) {
	c.Set(middleware.JWTTenantIDKey, tenantID.String())
	c.Set(middleware.JWTUserIDKey, userID.String())
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandlerTenant(t *testing.T) {
	h := &BaseHandler{}

	t.Run("from token", func(t *testing.T) {
		c, _ := newTestContext()
		tenantID, userID := uuid.New(), uuid.New()
		setJWTContext(c, tenantID, userID)

		got, ok := h.tenant(c)
		assert.True(t, ok)
		assert.Equal(t, tenantID, got)
		require.NotNil(t, userRef(c))
		assert.Equal(t, userID, *userRef(c))
	})

	t.Run("missing tenant is unauthorized", func(t *testing.T) {
		c, rec := newTestContext()
		_, ok := h.tenant(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, decodeResponse(t, rec).Error.Code)
		assert.Nil(t, userRef(c))
	})

	t.Run("malformed tenant is unauthorized", func(t *testing.T) {
		c, rec := newTestContext()
		c.Set(middleware.JWTTenantIDKey, "tenant-1")
		_, ok := h.tenant(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestBaseHandlerPathID(t *testing.T) {
	h := &BaseHandler{}

	t.Run("valid", func(t *testing.T) {
		c, _ := newTestContext()
		id := uuid.New()
		c.Params = gin.Params{{Key: "id", Value: id.String()}}
		got, ok := h.pathID(c, "invoice")
		assert.True(t, ok)
		assert.Equal(t, id, got)
	})

	t.Run("invalid", func(t *testing.T) {
		c, rec := newTestContext()
		c.Params = gin.Params{{Key: "id", Value: "abc"}}
		_, ok := h.pathID(c, "invoice")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
		assert.Equal(t, "Invalid invoice ID format", resp.Error.Message)
	})
}

func TestBaseHandlerHandleError(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"overpayment", ledger.ErrOverpayment, http.StatusUnprocessableEntity, "OVERPAYMENT"},
		{"no outstanding invoices", ledger.ErrInsufficientInvoices, http.StatusUnprocessableEntity, "NO_OUTSTANDING_INVOICES"},
		{"invoice not found", ledger.ErrInvoiceNotFound, http.StatusNotFound, "INVOICE_NOT_FOUND"},
		{"retailer has invoices", ledger.ErrRetailerHasInvoices, http.StatusConflict, "RETAILER_HAS_INVOICES"},
		{"wrapped domain error", fmt.Errorf("allocate: %w", ledger.ErrInvalidAmount), http.StatusBadRequest, "INVALID_AMOUNT"},
		{"generic code is normalized", shared.NewDomainError("OPTIMISTIC_LOCK", "stale"), http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"unknown domain code", shared.NewDomainError("SOMETHING_ODD", "odd"), http.StatusInternalServerError, "SOMETHING_ODD"},
		{"plain error is hidden", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestContext()
			c.Set(middleware.RequestIDKey, "req-1")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
			if tt.wantCode == dto.ErrCodeInternal {
				assert.NotContains(t, resp.Error.Message, "connection reset")
			}
		})
	}

	t.Run("nil writes nothing", func(t *testing.T) {
		c, rec := newTestContext()
		h.HandleError(c, nil)
		assert.False(t, c.Writer.Written())
		assert.Zero(t, rec.Body.Len())
	})
}

func TestPage(t *testing.T) {
	p, size := page(0, 0)
	assert.Equal(t, 1, p)
	assert.Equal(t, 20, size)

	p, size = page(3, 500)
	assert.Equal(t, 3, p)
	assert.LessOrEqual(t, size, 100)
}
