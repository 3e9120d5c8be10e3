package inventory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/memory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	tenantA   = "tenant-a"
	tenantB   = "tenant-b"
	storeA1   = "store-a1"
	storeA2   = "store-a2"
	storeB1   = "store-b1"
	unitUnd   = "unit-und"
	unitBox   = "unit-caja"
	unitUndA2 = "unit-und-a2"
	prodP1    = "prod-1"
	prodP2    = "prod-2"
	prodP3    = "prod-3"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// seqIDs genera IDs deterministas.
type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%04d", g.n)
}

// clock avanza un segundo por llamada.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	store     *memory.Store
	repos     repository.Repositories
	clock     *clock
	allocator *inventory.Allocator
	transfers *inventory.TransferUseCase
	purchases *inventory.PurchaseUseCase
	sales     *inventory.SaleUseCase
	stock     *inventory.StockQueryUseCase
	units     *inventory.UnitsUseCase
}

func newFixture(t *testing.T, policy inventory.ReversalPolicy) *fixture {
	t.Helper()
	st := memory.New()
	st.SeedStore(&entity.Store{ID: storeA1, TenantID: tenantA, Name: "Centro"})
	st.SeedStore(&entity.Store{ID: storeA2, TenantID: tenantA, Name: "Norte"})
	st.SeedStore(&entity.Store{ID: storeB1, TenantID: tenantB, Name: "Otra"})
	for _, id := range []string{prodP1, prodP2, prodP3} {
		st.SeedProduct(&entity.Product{ID: id, TenantID: tenantA, Name: id, DefaultUnitID: unitUnd})
	}
	repos := st.Repositories()
	ctx := context.Background()
	require.NoError(t, repos.Units.Create(ctx, &entity.Unit{ID: unitUnd, StoreID: storeA1, Name: "und", ConversionFactor: d("1")}))
	require.NoError(t, repos.Units.Create(ctx, &entity.Unit{ID: unitBox, StoreID: storeA1, Name: "caja", BaseUnitID: unitUnd, ConversionFactor: d("12")}))
	require.NoError(t, repos.Units.Create(ctx, &entity.Unit{ID: unitUndA2, StoreID: storeA2, Name: "und", ConversionFactor: d("1")}))

	ids := &seqIDs{}
	clk := &clock{now: t0}
	log := zerolog.Nop()
	reg := inventory.NewUnitRegistry(repos)
	ledger := inventory.NewLedger(reg, ids, clk.Now, nil)
	alloc := inventory.NewAllocator(ledger, nil)
	return &fixture{
		store:     st,
		repos:     repos,
		clock:     clk,
		allocator: alloc,
		transfers: inventory.NewTransferUseCase(st, repos, reg, ledger, alloc, ids, clk.Now, nil, nil, log),
		purchases: inventory.NewPurchaseUseCase(st, repos, ledger, ids, clk.Now, nil, log),
		sales:     inventory.NewSaleUseCase(st, reg, ledger, alloc, policy, ids, clk.Now, nil, nil, log),
		stock:     inventory.NewStockQueryUseCase(st, repos, reg, alloc, nil, clk.Now, log),
		units:     inventory.NewUnitsUseCase(st, repos, reg, ids, clk.Now, log),
	}
}

// receive registra una orden de compra de un ítem en unidad base.
func (f *fixture) receive(t *testing.T, storeID, productID, qty, cost string, importDate time.Time) *entity.PurchaseOrder {
	t.Helper()
	po, err := f.purchases.Receive(context.Background(), inventory.PurchaseOrderInput{
		TenantID:   tenantA,
		StoreID:    storeID,
		SupplierID: "prov-1",
		ImportDate: importDate,
		Items:      []inventory.PurchaseItemInput{{ProductID: productID, Quantity: d(qty), Cost: d(cost), UnitID: unitUnd}},
	})
	require.NoError(t, err)
	return po
}

func (f *fixture) lots(t *testing.T, productID, storeID string) []*entity.Lot {
	t.Helper()
	lots, err := f.repos.Lots.ListByProduct(context.Background(), productID, storeID, 1000, 0)
	require.NoError(t, err)
	return lots
}

func (f *fixture) available(t *testing.T, productID, storeID string) decimal.Decimal {
	t.Helper()
	q, err := f.repos.Lots.SumRemaining(context.Background(), productID, storeID)
	require.NoError(t, err)
	return q
}

// requireConserved verifica que el agregado coincide con la suma del libro para cada unidad.
func (f *fixture) requireConserved(t *testing.T, productID, storeID string) {
	t.Helper()
	report, err := f.stock.Reconcile(context.Background(), tenantA, productID, storeID, false)
	require.NoError(t, err)
	require.True(t, report.Consistent, "agregado desalineado: %+v", report.Drifts)
}

func zerologNop() zerolog.Logger { return zerolog.Nop() }
