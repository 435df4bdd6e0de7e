package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ledgerly/backend/docs"
	"github.com/ledgerly/backend/internal/bootstrap"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/infrastructure/auth"
	"github.com/ledgerly/backend/internal/infrastructure/cache"
	"github.com/ledgerly/backend/internal/infrastructure/config"
	"github.com/ledgerly/backend/internal/infrastructure/persistence"
	"github.com/ledgerly/backend/internal/interfaces/http/dto"
	"github.com/ledgerly/backend/internal/interfaces/http/handler"
	"github.com/ledgerly/backend/internal/interfaces/http/router"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

type apiClient struct {
	t      *testing.T
	engine *gin.Engine
	token  string
}

func (c *apiClient) do(method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	c.t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(c.t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" && rec.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func assertAmount(t *testing.T, want, got string) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(decimal.RequireFromString(got)), "want %s, got %s", want, got)
}

func (c *apiClient) data(env envelope, out any) {
	c.t.Helper()
	require.NoError(c.t, json.Unmarshal(env.Data, out))
}

type testAPI struct {
	engine *gin.Engine
	jwt    *auth.JWTService
}

func newTestAPI(t *testing.T, today time.Time) *testAPI {
	t.Helper()
	cfg := &config.Config{
		App:       config.AppConfig{Name: "ledgerly", Env: "test", Timezone: "UTC", Currency: "USD"},
		JWT:       config.JWTConfig{Secret: "router-test-secret-0123456789abcdef", Issuer: "ledgerly"},
		HTTP:      config.HTTPConfig{MaxBodySize: 1 << 20},
		Ledger:    config.LedgerConfig{AllocationRetries: 3, LockTTL: 5 * time.Second, LockWait: time.Second},
		Scheduler: config.SchedulerConfig{GuardTTL: 36 * time.Hour},
		Telemetry: config.TelemetryConfig{ServiceName: "ledgerly"},
	}

	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, persistence.AutoMigrate(db.DB))

	backend := cache.NewMemoryBackend(cfg.Ledger)
	t.Cleanup(func() { _ = backend.Close() })

	container, err := bootstrap.New(bootstrap.Deps{
		Config: cfg,
		Logger: zap.NewNop(),
		DB:     db.DB,
		Cache:  backend,
		Clock:  shared.FixedClock(today),
	})
	require.NoError(t, err)

	engine := router.NewEngine(router.EngineConfig{Config: cfg, JWT: container.JWT},
		container.Handlers("test", map[string]handler.HealthCheck{
			"database": func(context.Context) error { return db.Ping() },
		}))
	return &testAPI{engine: engine, jwt: container.JWT}
}

func (a *testAPI) client(t *testing.T, tenantID uuid.UUID) *apiClient {
	t.Helper()
	token, _, err := a.jwt.Mint(auth.TokenInput{TenantID: tenantID, UserID: uuid.New(), Username: "clerk"})
	require.NoError(t, err)
	return &apiClient{t: t, engine: a.engine, token: token}
}

func TestLedgerAPI(t *testing.T) {
	today := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	api := newTestAPI(t, today)
	tenant := uuid.New()
	c := api.client(t, tenant)

	t.Run("health is public", func(t *testing.T) {
		anon := &apiClient{t: t, engine: api.engine}
		rec, env := anon.do(http.MethodGet, "/health", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var health handler.HealthResponse
		anon.data(env, &health)
		assert.Equal(t, "up", health.Checks["database"])
	})

	t.Run("api requires a token", func(t *testing.T) {
		anon := &apiClient{t: t, engine: api.engine}
		rec, env := anon.do(http.MethodGet, "/api/v1/retailers", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrCodeUnauthorized, env.Error.Code)
	})

	var retailerID string
	t.Run("create retailer", func(t *testing.T) {
		rec, env := c.do(http.MethodPost, "/api/v1/retailers", map[string]any{
			"name": "Corner Shop", "email": "owner@corner.example",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var r struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		c.data(env, &r)
		assert.Equal(t, "Corner Shop", r.Name)
		retailerID = r.ID
	})
	require.NotEmpty(t, retailerID)

	t.Run("invalid body is a validation error", func(t *testing.T) {
		rec, env := c.do(http.MethodPost, "/api/v1/retailers", map[string]any{"email": "nope"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
		assert.NotEmpty(t, env.Error.Details)
	})

	createInvoice := func(t *testing.T, name, amount string, due time.Time) string {
		t.Helper()
		rec, env := c.do(http.MethodPost, "/api/v1/invoices", map[string]any{
			"retailer_id":  retailerID,
			"invoice_name": name,
			"amount":       amount,
			"invoice_date": due.AddDate(0, 0, -30),
			"due_date":     due,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var inv struct {
			ID string `json:"id"`
		}
		c.data(env, &inv)
		return inv.ID
	}

	older := createInvoice(t, "INV-1", "50", time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC))
	newer := createInvoice(t, "INV-2", "100", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))

	t.Run("status is derived", func(t *testing.T) {
		rec, env := c.do(http.MethodGet, "/api/v1/invoices/"+older, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var inv struct {
			Status  string `json:"status"`
			DueDays int    `json:"due_days"`
		}
		c.data(env, &inv)
		assert.Equal(t, "overdue", inv.Status)
		assert.Equal(t, -12, inv.DueDays)

		rec, env = c.do(http.MethodGet, "/api/v1/invoices?due_op=lt&due_days=0", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, env.Meta)
		assert.Equal(t, int64(1), env.Meta.Total)
		assert.Equal(t, 20, env.Meta.PageSize)
	})

	t.Run("due check runs once per day", func(t *testing.T) {
		rec, env := c.do(http.MethodPost, "/api/v1/notifications/due-check", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var result struct {
			Ran           int `json:"ran"`
			Skipped       int `json:"skipped"`
			Notifications int `json:"notifications"`
		}
		c.data(env, &result)
		assert.Equal(t, 1, result.Ran)
		assert.Positive(t, result.Notifications)

		_, env = c.do(http.MethodPost, "/api/v1/notifications/due-check", nil)
		c.data(env, &result)
		assert.Equal(t, 1, result.Skipped)

		_, env = c.do(http.MethodPost, "/api/v1/notifications/due-check", map[string]any{"force": true})
		c.data(env, &result)
		assert.Equal(t, 1, result.Ran)
	})

	t.Run("allocate pays oldest due first", func(t *testing.T) {
		rec, env := c.do(http.MethodPost, "/api/v1/payments/allocate", map[string]any{
			"retailer_id": retailerID, "amount": "120",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var p struct {
			Source      string `json:"source"`
			Allocations []struct {
				InvoiceID     string `json:"invoice_id"`
				AmountApplied string `json:"amount_applied"`
			} `json:"allocations"`
		}
		c.data(env, &p)
		require.Len(t, p.Allocations, 2)
		assert.Equal(t, older, p.Allocations[0].InvoiceID)
		assertAmount(t, "50", p.Allocations[0].AmountApplied)
		assert.Equal(t, newer, p.Allocations[1].InvoiceID)
		assertAmount(t, "70", p.Allocations[1].AmountApplied)

		rec, env = c.do(http.MethodGet, "/api/v1/invoices?status=paid", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(1), env.Meta.Total)
	})

	t.Run("overpayment is rejected whole", func(t *testing.T) {
		rec, env := c.do(http.MethodPost, "/api/v1/payments/allocate", map[string]any{
			"retailer_id": retailerID, "amount": "100",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "OVERPAYMENT", env.Error.Code)
		assert.NotEmpty(t, env.Error.RequestID)

		_, env = c.do(http.MethodGet, "/api/v1/payments", nil)
		assert.Equal(t, int64(1), env.Meta.Total)
	})

	t.Run("mark paid settles the remainder", func(t *testing.T) {
		rec, env := c.do(http.MethodPost, "/api/v1/invoices/"+newer+"/mark-paid", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var result struct {
			Invoice struct {
				Status string `json:"status"`
			} `json:"invoice"`
			Payment struct {
				Amount string `json:"amount"`
			} `json:"payment"`
		}
		c.data(env, &result)
		assert.Equal(t, "paid", result.Invoice.Status)
		assertAmount(t, "30", result.Payment.Amount)

		rec, env = c.do(http.MethodPost, "/api/v1/payments/allocate", map[string]any{
			"retailer_id": retailerID, "amount": "10",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "NO_OUTSTANDING_INVOICES", env.Error.Code)
	})

	t.Run("notifications", func(t *testing.T) {
		rec, env := c.do(http.MethodGet, "/api/v1/notifications/unread-count", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var count handler.CountData
		c.data(env, &count)
		assert.Positive(t, count.Count)

		rec, env = c.do(http.MethodPost, "/api/v1/notifications/read-all", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		_, env = c.do(http.MethodGet, "/api/v1/notifications/unread-count", nil)
		c.data(env, &count)
		assert.Zero(t, count.Count)
	})

	t.Run("retailer with invoices cannot be deleted", func(t *testing.T) {
		rec, env := c.do(http.MethodDelete, "/api/v1/retailers/"+retailerID, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "RETAILER_HAS_INVOICES", env.Error.Code)
	})

	t.Run("statement export", func(t *testing.T) {
		rec, _ := c.do(http.MethodGet, "/api/v1/retailers/"+retailerID+"/statement.xlsx", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment;")
		assert.Equal(t, []byte("PK"), rec.Body.Bytes()[:2])

		rec, env := c.do(http.MethodGet, "/api/v1/retailers/"+retailerID+"/statement.pdf", nil)
		assert.Equal(t, http.StatusNotImplemented, rec.Code)
		assert.Equal(t, "PDF_EXPORT_DISABLED", env.Error.Code)
	})

	t.Run("dashboard", func(t *testing.T) {
		rec, env := c.do(http.MethodGet, "/api/v1/dashboard/summary", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var summary struct {
			Currency      string `json:"currency"`
			InvoiceCounts struct {
				Paid int64 `json:"paid"`
			} `json:"invoice_counts"`
		}
		c.data(env, &summary)
		assert.Equal(t, "USD", summary.Currency)
		assert.Equal(t, int64(2), summary.InvoiceCounts.Paid)
	})

	t.Run("tenants are isolated", func(t *testing.T) {
		other := api.client(t, uuid.New())
		rec, env := other.do(http.MethodGet, "/api/v1/invoices/"+older, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "INVOICE_NOT_FOUND", env.Error.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		rec, env := c.do(http.MethodGet, "/api/v1/payments/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, env.Error.Code)
	})
}

func TestLedgerGroupsCoverRoutes(t *testing.T) {
	api := newTestAPI(t, time.Now())

	registered := map[string]bool{}
	for _, route := range api.engine.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"GET /health",
		"GET /api/v1/health",
		"GET /swagger/*any",
		"GET /openapi.json",
		"POST /api/v1/retailers",
		"GET /api/v1/retailers/:id/statement.xlsx",
		"GET /api/v1/retailers/:id/statement.pdf",
		"POST /api/v1/invoices/:id/mark-paid",
		"POST /api/v1/payments",
		"POST /api/v1/payments/allocate",
		"DELETE /api/v1/payments/:id",
		"GET /api/v1/notifications/unread-count",
		"POST /api/v1/notifications/:id/read",
		"POST /api/v1/notifications/read-all",
		"POST /api/v1/notifications/due-check",
		"GET /api/v1/dashboard/summary",
	} {
		assert.True(t, registered[want], want)
	}
}

func TestOpenAPIDocument(t *testing.T) {
	doc := docs.SwaggerInfo.ReadDoc()
	require.True(t, json.Valid([]byte(doc)), doc)

	var parsed struct {
		Info  struct{ Title string } `json:"info"`
		Paths map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))
	assert.Equal(t, "Ledgerly API", parsed.Info.Title)
	assert.Contains(t, parsed.Paths, "/payments/allocate")
	assert.Contains(t, parsed.Paths, "/invoices/{id}/mark-paid")

	t.Run("hidden while swagger is disabled", func(t *testing.T) {
		api := newTestAPI(t, time.Now())
		anon := &apiClient{t: t, engine: api.engine}
		rec, _ := anon.do(http.MethodGet, "/openapi.json", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
