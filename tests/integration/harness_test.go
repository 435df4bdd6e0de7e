//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/bootstrap"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/infrastructure/auth"
	"github.com/ledgerly/backend/internal/infrastructure/cache"
	"github.com/ledgerly/backend/internal/infrastructure/config"
	"github.com/ledgerly/backend/internal/interfaces/http/handler"
	"github.com/ledgerly/backend/internal/interfaces/http/router"
	"github.com/ledgerly/backend/tests/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

// today is the fixed business date of every integration test
var today = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		App:       config.AppConfig{Name: "ledgerly", Env: "test", Timezone: "UTC", Currency: "USD"},
		JWT:       config.JWTConfig{Secret: "integration-test-secret-0123456789abcdef", Issuer: "ledgerly"},
		HTTP:      config.HTTPConfig{MaxBodySize: 1 << 20},
		Ledger:    config.LedgerConfig{AllocationRetries: 10, LockTTL: 10 * time.Second, LockWait: 10 * time.Second},
		Scheduler: config.SchedulerConfig{GuardTTL: 36 * time.Hour},
		Telemetry: config.TelemetryConfig{ServiceName: "ledgerly"},
	}
}

// instance is one application process over the shared database
type instance struct {
	*bootstrap.Container
	Engine *gin.Engine
}

// newInstance builds services and routes over tdb with their own cache
// backend, the way a separate server process would.
func newInstance(t *testing.T, tdb *TestDB) *instance {
	t.Helper()
	cfg := testConfig()

	backend := cache.NewMemoryBackend(cfg.Ledger)
	t.Cleanup(func() { _ = backend.Close() })

	c, err := bootstrap.New(bootstrap.Deps{
		Config: cfg,
		Logger: zap.NewNop(),
		DB:     tdb.DB,
		Cache:  backend,
		Clock:  shared.FixedClock(today),
	})
	require.NoError(t, err)

	engine := router.NewEngine(router.EngineConfig{Config: cfg, JWT: c.JWT},
		c.Handlers("integration", map[string]handler.HealthCheck{
			"database": func(ctx context.Context) error { return tdb.SqlDB.PingContext(ctx) },
		}))
	return &instance{Container: c, Engine: engine}
}

// client returns an API client authenticated for tenantID
func (i *instance) client(t *testing.T, tenantID uuid.UUID) *testutil.APIClient {
	t.Helper()
	token, _, err := i.JWT.Mint(auth.TokenInput{TenantID: tenantID, UserID: uuid.New(), Username: "clerk"})
	require.NoError(t, err)
	return testutil.NewAPIClient(t, i.Engine, token)
}

type idOnly struct {
	ID uuid.UUID `json:"id"`
}

func createRetailer(t *testing.T, c *testutil.APIClient, name string) uuid.UUID {
	t.Helper()
	resp := c.Post("/api/v1/retailers", map[string]any{"name": name})
	testutil.RequireStatus(t, resp, 201)
	return testutil.DecodeData[idOnly](t, resp).ID
}

func createInvoice(t *testing.T, c *testutil.APIClient, retailerID uuid.UUID, name, amount, due string) uuid.UUID {
	t.Helper()
	resp := c.Post("/api/v1/invoices", map[string]any{
		"retailer_id":  retailerID,
		"invoice_name": name,
		"amount":       amount,
		"invoice_date": "2024-05-01T00:00:00Z",
		"due_date":     due + "T00:00:00Z",
	})
	testutil.RequireStatus(t, resp, 201)
	return testutil.DecodeData[idOnly](t, resp).ID
}
