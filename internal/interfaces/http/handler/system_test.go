package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemHandler_Health(t *testing.T) {
	decode := func(t *testing.T, rec *httptest.ResponseRecorder) HealthResponse {
		t.Helper()
		var resp APIResponse[HealthResponse]
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp.Data
	}
	serve := func(h *SystemHandler) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)
		h.Health(c)
		return rec
	}

	t.Run("all checks up", func(t *testing.T) {
		h := NewSystemHandler("ledgerly", "1.2.3", map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
		})
		rec := serve(h)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, "1.2.3", body.Version)
		assert.Equal(t, "up", body.Checks["database"])
	})

	t.Run("failing check degrades", func(t *testing.T) {
		h := NewSystemHandler("ledgerly", "1.2.3", map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		})
		rec := serve(h)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "degraded", body.Status)
		assert.Equal(t, "down: connection refused", body.Checks["redis"])
		assert.Equal(t, "up", body.Checks["database"])
	})

	t.Run("no checks", func(t *testing.T) {
		rec := serve(NewSystemHandler("ledgerly", "dev", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler("ledgerly", "1.2.3", nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/system/info", nil)
	h.GetSystemInfo(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp APIResponse[SystemInfoResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ledgerly", resp.Data.Name)
	assert.NotEmpty(t, resp.Data.GoVersion)
	assert.Positive(t, resp.Data.Goroutines)
}
