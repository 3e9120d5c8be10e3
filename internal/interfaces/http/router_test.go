package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/inventario-lotes/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/inventario-lotes/pkg/jwt"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tenantA = "tenant-a"
	tenantB = "tenant-b"
	storeA1 = "store-a1"
	storeA2 = "store-a2"
	unitUnd = "und"
	unitBox = "caja"
)

func buildInventoryApp(t *testing.T) *fiber.App {
	t.Helper()
	st := memory.New()
	st.SeedStore(&entity.Store{ID: storeA1, TenantID: tenantA, Name: "Centro"})
	st.SeedStore(&entity.Store{ID: storeA2, TenantID: tenantA, Name: "Norte"})
	st.SeedStore(&entity.Store{ID: "store-b1", TenantID: tenantB, Name: "Otra"})
	st.SeedProduct(&entity.Product{ID: "p1", TenantID: tenantA, Name: "Arroz", DefaultUnitID: unitUnd})
	st.SeedProduct(&entity.Product{ID: "p2", TenantID: tenantA, Name: "Frijol", DefaultUnitID: unitUnd})
	repos := st.Repositories()
	ctx := context.Background()
	require.NoError(t, repos.Units.Create(ctx, &entity.Unit{ID: unitUnd, StoreID: storeA1, Name: "und", ConversionFactor: decimal.NewFromInt(1)}))
	require.NoError(t, repos.Units.Create(ctx, &entity.Unit{ID: unitBox, StoreID: storeA1, Name: "caja", BaseUnitID: unitUnd, ConversionFactor: decimal.NewFromInt(12)}))
	require.NoError(t, repos.Units.Create(ctx, &entity.Unit{ID: "und-norte", StoreID: storeA2, Name: "und", ConversionFactor: decimal.NewFromInt(1)}))

	log := zerolog.Nop()
	ids := inventory.UUIDGenerator{}
	reg := inventory.NewUnitRegistry(repos)
	ledger := inventory.NewLedger(reg, ids, nil, nil)
	alloc := inventory.NewAllocator(ledger, nil)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Transfers: inventory.NewTransferUseCase(st, repos, reg, ledger, alloc, ids, nil, nil, nil, log),
		Purchases: inventory.NewPurchaseUseCase(st, repos, ledger, ids, nil, nil, log),
		Sales:     inventory.NewSaleUseCase(st, reg, ledger, alloc, inventory.ReversalFragments, ids, nil, nil, nil, log),
		Stock:     inventory.NewStockQueryUseCase(st, repos, reg, alloc, nil, nil, log),
		Units:     inventory.NewUnitsUseCase(st, repos, reg, ids, nil, log),
		JWTSecret: testJWTSecret,
		Log:       log,
	})
	return app
}

func bearer(t *testing.T, tenantID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, tenantID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func call(t *testing.T, app *fiber.App, method, path, auth string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func purchase(t *testing.T, app *fiber.App, productID, qty, cost, unitID, date string) dto.PurchaseOrderResponse {
	t.Helper()
	body := map[string]any{
		"store_id":    storeA1,
		"supplier_id": "prov-1",
		"import_date": date,
		"items":       []map[string]any{{"product_id": productID, "quantity": qty, "cost": cost, "unit_id": unitID}},
	}
	resp, raw := call(t, app, http.MethodPost, "/api/purchase-orders", bearer(t, tenantA, "bodeguero"), body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var po dto.PurchaseOrderResponse
	require.NoError(t, json.Unmarshal(raw, &po))
	return po
}

func TestRouter_CompraYTraslado(t *testing.T) {
	app := buildInventoryApp(t)
	purchase(t, app, "p1", "10", "100", unitUnd, "2026-03-01T00:00:00Z")
	purchase(t, app, "p1", "10", "120", unitUnd, "2026-03-02T00:00:00Z")

	resp, raw := call(t, app, http.MethodPost, "/api/transfers", bearer(t, tenantA, "bodeguero"), map[string]any{
		"source_store_id":      storeA1,
		"destination_store_id": storeA2,
		"items":                []map[string]any{{"product_id": "p1", "quantity": "15"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var res inventory.TransferResult
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.Regexp(t, `^TF\d{10}$`, res.TransferNumber)
	require.Len(t, res.TransferredItems, 1)
	assert.Equal(t, "106.6667", res.TransferredItems[0].WeightedAverageCost.String())

	resp, raw = call(t, app, http.MethodGet, "/api/transfers/"+res.TransferID, bearer(t, tenantA, "vendedor"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var tr dto.TransferResponse
	require.NoError(t, json.Unmarshal(raw, &tr))
	require.Len(t, tr.Items, 2)
	assert.Equal(t, "100", tr.Items[0].Cost.String())
	assert.Equal(t, "120", tr.Items[1].Cost.String())

	resp, _ = call(t, app, http.MethodGet, "/api/transfers/"+res.TransferID, bearer(t, tenantB, "admin"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouter_TrasladoConFaltantesDevuelve409(t *testing.T) {
	app := buildInventoryApp(t)
	purchase(t, app, "p1", "10", "100", unitUnd, "2026-03-01T00:00:00Z")
	purchase(t, app, "p2", "1", "50", unitUnd, "2026-03-01T00:00:00Z")

	resp, raw := call(t, app, http.MethodPost, "/api/transfers", bearer(t, tenantA, "admin"), map[string]any{
		"source_store_id":      storeA1,
		"destination_store_id": storeA2,
		"items": []map[string]any{
			{"product_id": "p1", "quantity": "12"},
			{"product_id": "p2", "quantity": "3"},
		},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)
	assert.Len(t, body.Shortfalls, 2)
}

func TestRouter_ValidacionYRoles(t *testing.T) {
	app := buildInventoryApp(t)

	resp, raw := call(t, app, http.MethodPost, "/api/transfers", bearer(t, tenantA, "admin"), map[string]any{
		"source_store_id": storeA1,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Contains(t, body.Fields, "destination_store_id")
	assert.Contains(t, body.Fields, "items")

	// los campos anidados usan el nombre JSON con su índice
	resp, raw = call(t, app, http.MethodPost, "/api/transfers", bearer(t, tenantA, "admin"), map[string]any{
		"source_store_id":      storeA1,
		"destination_store_id": storeA2,
		"items":                []map[string]any{{"quantity": "1"}},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body = dto.ErrorResponse{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, map[string]string{"items[0].product_id": "es requerido"}, body.Fields)

	resp, _ = call(t, app, http.MethodPost, "/api/transfers", bearer(t, tenantA, "vendedor"), map[string]any{})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw = call(t, app, http.MethodPost, "/api/transfers", bearer(t, tenantA, "admin"), map[string]any{
		"source_store_id":      storeA1,
		"destination_store_id": storeA1,
		"items":                []map[string]any{{"product_id": "p1", "quantity": "1"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "SAME_STORE")

	resp, _ = call(t, app, http.MethodGet, "/api/stock/p1?store_id="+storeA1, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_CompraEnCajasYStock(t *testing.T) {
	app := buildInventoryApp(t)
	po := purchase(t, app, "p1", "2", "120", unitBox, "2026-03-01T00:00:00Z")
	require.Len(t, po.Items, 1)
	assert.Equal(t, "24", po.Items[0].BaseQuantity.String())
	assert.Equal(t, "10", po.Items[0].BaseCost.String())

	auth := bearer(t, tenantA, "vendedor")
	resp, raw := call(t, app, http.MethodGet, "/api/stock/p1?store_id="+storeA1, auth, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var level inventory.StockLevel
	require.NoError(t, json.Unmarshal(raw, &level))
	require.Len(t, level.QuantityByUnit, 1)
	assert.Equal(t, "24", level.QuantityByUnit[0].Quantity.String())

	resp, raw = call(t, app, http.MethodGet, "/api/stock/p1/availability?store_id="+storeA1+"&quantity=3&unit_id="+unitBox, auth, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var av inventory.Availability
	require.NoError(t, json.Unmarshal(raw, &av))
	assert.False(t, av.Sufficient)

	resp, raw = call(t, app, http.MethodGet, "/api/stock/p1/lots?store_id="+storeA1, auth, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lots dto.LotListResponse
	require.NoError(t, json.Unmarshal(raw, &lots))
	require.Len(t, lots.Items, 1)
	assert.Equal(t, "purchase", lots.Items[0].Source)
}

func TestRouter_VentaCancelacionYBorrado(t *testing.T) {
	app := buildInventoryApp(t)
	po := purchase(t, app, "p1", "10", "100", unitUnd, "2026-03-01T00:00:00Z")
	seller := bearer(t, tenantA, "vendedor")

	resp, raw := call(t, app, http.MethodPost, "/api/sales/allocations", seller, map[string]any{
		"store_id": storeA1,
		"order_id": "ped-1",
		"items":    []map[string]any{{"product_id": "p1", "quantity": "4"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = call(t, app, http.MethodDelete, "/api/purchase-orders/"+po.ID, bearer(t, tenantA, "admin"), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(raw), "INVENTORY_IN_USE")

	resp, raw = call(t, app, http.MethodPost, "/api/sales/orders/ped-1/cancel", seller, map[string]any{"store_id": storeA1})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var rev inventory.ReversalResult
	require.NoError(t, json.Unmarshal(raw, &rev))
	assert.Equal(t, inventory.ReversalFragments, rev.Policy)
	require.Len(t, rev.Restored, 1)
	assert.Equal(t, "4", rev.Restored[0].Quantity.String())

	resp, raw = call(t, app, http.MethodPost, "/api/sales/orders/ped-1/cancel", seller, map[string]any{"store_id": storeA1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(raw), "CONFLICT")

	resp, _ = call(t, app, http.MethodDelete, "/api/purchase-orders/"+po.ID, bearer(t, tenantA, "admin"), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = call(t, app, http.MethodGet, "/api/purchase-orders/"+po.ID, seller, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_Unidades(t *testing.T) {
	app := buildInventoryApp(t)
	admin := bearer(t, tenantA, "admin")

	resp, raw := call(t, app, http.MethodPost, "/api/units", admin, map[string]any{
		"store_id": storeA1, "name": "docena", "base_unit_id": unitUnd, "conversion_factor": "12",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, _ = call(t, app, http.MethodPost, "/api/units", admin, map[string]any{
		"store_id": storeA1, "name": "docena", "base_unit_id": unitUnd, "conversion_factor": "12",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, raw = call(t, app, http.MethodPost, "/api/units/convert", admin, map[string]any{
		"quantity": "36", "from_unit_id": unitUnd, "to_unit_id": unitBox,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var conv dto.ConvertResponse
	require.NoError(t, json.Unmarshal(raw, &conv))
	assert.Equal(t, "3", conv.Quantity.String())

	resp, raw = call(t, app, http.MethodGet, "/api/units?store_id="+storeA1, admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []dto.UnitResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list, 3)
}
