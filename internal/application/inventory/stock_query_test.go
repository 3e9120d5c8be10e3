package inventory_test

import (
	"context"
	"testing"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAvailability_NoMuta(t *testing.T) {
	f := newFixture(t, inventory.ReversalFragments)
	tresLotes(t, f)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		av, err := f.stock.CheckAvailability(ctx, tenantA, prodP1, storeA1, d("20"), "")
		require.NoError(t, err)
		assert.False(t, av.Sufficient)
		assert.True(t, av.Available.Equal(d("15")))
	}
	assert.Equal(t, []string{"5", "5", "5"}, remaining(f.lots(t, prodP1, storeA1)))

	av, err := f.stock.CheckAvailability(ctx, tenantA, prodP1, storeA1, d("1"), unitBox)
	require.NoError(t, err)
	assert.True(t, av.Sufficient, "1 caja = 12 und")

	_, err = f.stock.CheckAvailability(ctx, tenantA, prodP1, storeA1, d("1"), unitUndA2)
	assert.ErrorIs(t, err, domain.ErrIncompatibleUnits, "unidad de otra tienda")
	require.NoError(t, f.repos.Units.Create(ctx, &entity.Unit{ID: "unit-kg", StoreID: storeA1, Name: "kg", ConversionFactor: d("1")}))
	_, err = f.stock.CheckAvailability(ctx, tenantA, prodP1, storeA1, d("1"), "unit-kg")
	assert.ErrorIs(t, err, domain.ErrIncompatibleUnits, "otra base de la misma tienda")

	_, err = f.stock.CheckAvailability(ctx, tenantA, prodP1, storeA1, d("0"), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.stock.CheckAvailability(ctx, tenantB, prodP1, storeA1, d("1"), "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestListLots_Paginado(t *testing.T) {
	f := newFixture(t, inventory.ReversalFragments)
	tresLotes(t, f)

	page, err := f.stock.ListLots(context.Background(), tenantA, prodP1, storeA1, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[0].Cost.Equal(d("11")))
	assert.True(t, page[1].Cost.Equal(d("12")))
}

func TestReconcile_DetectaYRepara(t *testing.T) {
	f := newFixture(t, inventory.ReversalFragments)
	tresLotes(t, f)
	ctx := context.Background()

	require.NoError(t, f.repos.Stock.Set(ctx, &entity.StockAggregate{
		ProductID: prodP1, StoreID: storeA1, UnitID: unitUnd, Quantity: d("99"),
	}))

	report, err := f.stock.Reconcile(ctx, tenantA, prodP1, storeA1, false)
	require.NoError(t, err)
	assert.False(t, report.Consistent)
	require.Len(t, report.Drifts, 1)
	assert.True(t, report.Drifts[0].Difference.Equal(d("84")))
	assert.False(t, report.Repaired)

	report, err = f.stock.Reconcile(ctx, tenantA, prodP1, storeA1, true)
	require.NoError(t, err)
	assert.True(t, report.Repaired)

	f.requireConserved(t, prodP1, storeA1)
	level, err := f.stock.GetStock(ctx, tenantA, prodP1, storeA1)
	require.NoError(t, err)
	assert.True(t, level.QuantityByUnit[0].Quantity.Equal(d("15")))
}

// fakeCache registra lecturas e invalidaciones.
type fakeCache struct {
	data        map[inventory.StockKey]*inventory.StockLevel
	invalidated []inventory.StockKey
}

func (c *fakeCache) Get(_ context.Context, k inventory.StockKey) (*inventory.StockLevel, bool, error) {
	l, ok := c.data[k]
	return l, ok, nil
}

func (c *fakeCache) Set(_ context.Context, k inventory.StockKey, l *inventory.StockLevel) error {
	c.data[k] = l
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, keys ...inventory.StockKey) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	c.invalidated = append(c.invalidated, keys...)
	return nil
}

func TestGetStock_CacheInvalidadaTrasTraslado(t *testing.T) {
	f := newFixture(t, inventory.ReversalFragments)
	f.receive(t, storeA1, prodP1, "10", "1", t0)

	cache := &fakeCache{data: map[inventory.StockKey]*inventory.StockLevel{}}
	reg := inventory.NewUnitRegistry(f.repos)
	ids := &seqIDs{n: 1000}
	ledger := inventory.NewLedger(reg, ids, f.clock.Now, nil)
	alloc := inventory.NewAllocator(ledger, nil)
	stock := inventory.NewStockQueryUseCase(f.store, f.repos, reg, alloc, cache, f.clock.Now, zerologNop())
	transfers := inventory.NewTransferUseCase(f.store, f.repos, reg, ledger, alloc, ids, f.clock.Now, cache, nil, zerologNop())
	ctx := context.Background()

	level, err := stock.GetStock(ctx, tenantA, prodP1, storeA1)
	require.NoError(t, err)
	assert.True(t, level.QuantityByUnit[0].Quantity.Equal(d("10")))
	assert.Contains(t, cache.data, inventory.StockKey{ProductID: prodP1, StoreID: storeA1})

	_, err = transfers.Execute(ctx, transferInput(item(prodP1, "4")))
	require.NoError(t, err)
	assert.ElementsMatch(t, []inventory.StockKey{
		{ProductID: prodP1, StoreID: storeA1},
		{ProductID: prodP1, StoreID: storeA2},
	}, cache.invalidated)

	level, err = stock.GetStock(ctx, tenantA, prodP1, storeA1)
	require.NoError(t, err)
	assert.True(t, level.QuantityByUnit[0].Quantity.Equal(d("6")))
}
