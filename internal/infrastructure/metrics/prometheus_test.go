package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_LibroDeLotes(t *testing.T) {
	m := New()

	m.LotCreated("purchase", decimal.NewFromInt(10))
	m.LotCreated("purchase", decimal.NewFromInt(5))
	m.Allocation(inventory.OutcomeCompleted, decimal.NewFromInt(7))
	m.Allocation(inventory.OutcomeRejected, decimal.NewFromInt(3))
	m.Transfer(inventory.OutcomeCompleted, 20*time.Millisecond)
	m.Reversal("fragments", decimal.NewFromInt(2))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.lotsCreated.WithLabelValues("purchase")))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.lotQuantity.WithLabelValues("purchase")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.allocations.WithLabelValues(inventory.OutcomeRejected)))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.allocatedQty.WithLabelValues(inventory.OutcomeCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transfers.WithLabelValues(inventory.OutcomeCompleted)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.reversedQty.WithLabelValues("fragments")))
}

func TestMetrics_MiddlewareYHandler(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/metrics", m.Handler())
	app.Get("/items/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusConflict, "x") })

	for _, path := range []string{"/items/1", "/items/2", "/boom"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/items/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/boom", "409")))

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "inventario_http_requests_total"))
}
