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

// tresLotes crea lotes [5, 5, 5] en t1 < t2 < t3.
func tresLotes(t *testing.T, f *fixture) {
	t.Helper()
	f.receive(t, storeA1, prodP1, "5", "10", t0.AddDate(0, 0, -3))
	f.receive(t, storeA1, prodP1, "5", "11", t0.AddDate(0, 0, -2))
	f.receive(t, storeA1, prodP1, "5", "12", t0.AddDate(0, 0, -1))
}

func sell(t *testing.T, f *fixture, orderID, qty string) []*inventory.AllocationResult {
	t.Helper()
	res, err := f.sales.AllocateSale(context.Background(), inventory.SaleInput{
		TenantID: tenantA, StoreID: storeA1, OrderID: orderID, Items: []inventory.ItemInput{item(prodP1, qty)},
	})
	require.NoError(t, err)
	return res
}

func remaining(lots []*entity.Lot) []string {
	out := make([]string, 0, len(lots))
	for _, l := range lots {
		out = append(out, l.RemainingQuantity.String())
	}
	return out
}

func TestSale_FIFO(t *testing.T) {
	f := newFixture(t, inventory.ReversalFragments)
	tresLotes(t, f)

	res := sell(t, f, "", "7")

	require.Len(t, res, 1)
	require.Len(t, res[0].Consumed, 2)
	assert.True(t, res[0].Consumed[0].Amount.Equal(d("5")))
	assert.True(t, res[0].Consumed[1].Amount.Equal(d("2")))
	assert.True(t, res[0].TotalCost.Equal(d("72")))
	assert.Equal(t, []string{"0", "3", "5"}, remaining(f.lots(t, prodP1, storeA1)))
	f.requireConserved(t, prodP1, storeA1)
}

func TestSale_PedidoDuplicado(t *testing.T) {
	f := newFixture(t, inventory.ReversalFragments)
	tresLotes(t, f)
	sell(t, f, "order-1", "2")

	_, err := f.sales.AllocateSale(context.Background(), inventory.SaleInput{
		TenantID: tenantA, StoreID: storeA1, OrderID: "order-1", Items: []inventory.ItemInput{item(prodP1, "1")},
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.True(t, f.available(t, prodP1, storeA1).Equal(d("13")))
}

func TestSale_SinStockNoDescuenta(t *testing.T) {
	f := newFixture(t, inventory.ReversalFragments)
	tresLotes(t, f)

	_, err := f.sales.AllocateSale(context.Background(), inventory.SaleInput{
		TenantID: tenantA, StoreID: storeA1, OrderID: "order-1", Items: []inventory.ItemInput{item(prodP1, "16")},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, []string{"5", "5", "5"}, remaining(f.lots(t, prodP1, storeA1)))
}

func TestCancelOrder_RestituyeFragmentos(t *testing.T) {
	f := newFixture(t, inventory.ReversalFragments)
	tresLotes(t, f)
	sell(t, f, "order-1", "7")

	res, err := f.sales.CancelOrder(context.Background(), inventory.CancelOrderInput{
		TenantID: tenantA, StoreID: storeA1, OrderID: "order-1",
	})
	require.NoError(t, err)
	assert.Equal(t, inventory.ReversalFragments, res.Policy)
	require.Len(t, res.Restored, 2)
	assert.False(t, res.Restored[0].NewLot)
	assert.Equal(t, []string{"5", "5", "5"}, remaining(f.lots(t, prodP1, storeA1)))

	// la segunda cancelación no vuelve a sumar stock
	_, err = f.sales.CancelOrder(context.Background(), inventory.CancelOrderInput{
		TenantID: tenantA, StoreID: storeA1, OrderID: "order-1",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.True(t, f.available(t, prodP1, storeA1).Equal(d("15")))
	assert.Len(t, f.lots(t, prodP1, storeA1), 3)
	f.requireConserved(t, prodP1, storeA1)

	// un pedido cancelado no admite una nueva venta
	_, err = f.sales.AllocateSale(context.Background(), inventory.SaleInput{
		TenantID: tenantA, StoreID: storeA1, OrderID: "order-1", Items: []inventory.ItemInput{item(prodP1, "1")},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.True(t, f.available(t, prodP1, storeA1).Equal(d("15")))
}

func TestCancelOrder_LoteMasReciente(t *testing.T) {
	f := newFixture(t, inventory.ReversalLatestLot)
	tresLotes(t, f)
	sell(t, f, "order-1", "7")
	sell(t, f, "", "4") // deja el lote más reciente en 4

	res, err := f.sales.CancelOrder(context.Background(), inventory.CancelOrderInput{
		TenantID: tenantA, StoreID: storeA1, OrderID: "order-1",
	})
	require.NoError(t, err)
	assert.Equal(t, inventory.ReversalLatestLot, res.Policy)
	require.Len(t, res.Restored, 2)
	assert.True(t, res.Restored[0].Quantity.Equal(d("1")))
	assert.False(t, res.Restored[0].NewLot)
	assert.True(t, res.Restored[1].Quantity.Equal(d("6")))
	assert.True(t, res.Restored[1].NewLot)

	lots := f.lots(t, prodP1, storeA1)
	require.Len(t, lots, 4)
	reversal := lots[3]
	assert.Equal(t, entity.LotSourceReversal, reversal.Source())
	assert.True(t, reversal.Cost.Equal(d("12")), "el lote de reverso toma el costo del lote más reciente")
	// 15 - 7 - 4 + 7
	assert.True(t, f.available(t, prodP1, storeA1).Equal(d("11")))
	f.requireConserved(t, prodP1, storeA1)
}

func TestCancelOrder_SinFragmentosUsaLoteMasReciente(t *testing.T) {
	f := newFixture(t, inventory.ReversalLatestLot)
	tresLotes(t, f)
	sell(t, f, "", "14")

	res, err := f.sales.CancelOrder(context.Background(), inventory.CancelOrderInput{
		TenantID: tenantA, StoreID: storeA1, OrderID: "legacy-1",
		Items: []inventory.ItemInput{item(prodP1, "3")},
	})
	require.NoError(t, err)
	assert.Equal(t, inventory.ReversalLatestLot, res.Policy)
	require.Len(t, res.Restored, 1)
	assert.Equal(t, []string{"0", "0", "4"}, remaining(f.lots(t, prodP1, storeA1)))

	_, err = f.sales.CancelOrder(context.Background(), inventory.CancelOrderInput{
		TenantID: tenantA, StoreID: storeA1, OrderID: "legacy-2",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCancelOrder_SinFragmentosSoloUnaVez(t *testing.T) {
	f := newFixture(t, inventory.ReversalLatestLot)
	tresLotes(t, f)

	cancel := func() error {
		_, err := f.sales.CancelOrder(context.Background(), inventory.CancelOrderInput{
			TenantID: tenantA, StoreID: storeA1, OrderID: "sin-venta",
			Items: []inventory.ItemInput{item(prodP1, "4")},
		})
		return err
	}

	// el lote más reciente está lleno: el primer reverso crea un lote nuevo
	require.NoError(t, cancel())
	assert.True(t, f.available(t, prodP1, storeA1).Equal(d("19")))

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cancel(), domain.ErrConflict)
	}
	assert.True(t, f.available(t, prodP1, storeA1).Equal(d("19")))
	assert.Len(t, f.lots(t, prodP1, storeA1), 4)
	f.requireConserved(t, prodP1, storeA1)
}

func TestCancelOrder_FragmentsExigeAsignacion(t *testing.T) {
	f := newFixture(t, inventory.ReversalFragments)
	tresLotes(t, f)

	_, err := f.sales.CancelOrder(context.Background(), inventory.CancelOrderInput{
		TenantID: tenantA, StoreID: storeA1, OrderID: "sin-venta",
		Items: []inventory.ItemInput{item(prodP1, "4")},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, f.available(t, prodP1, storeA1).Equal(d("15")))
	assert.Len(t, f.lots(t, prodP1, storeA1), 3)

	// el rechazo no deja registro: el pedido se puede vender y cancelar después
	sell(t, f, "sin-venta", "2")
	_, err = f.sales.CancelOrder(context.Background(), inventory.CancelOrderInput{
		TenantID: tenantA, StoreID: storeA1, OrderID: "sin-venta",
	})
	require.NoError(t, err)
	assert.True(t, f.available(t, prodP1, storeA1).Equal(d("15")))
}

func TestParseReversalPolicy(t *testing.T) {
	p, err := inventory.ParseReversalPolicy("")
	require.NoError(t, err)
	assert.Equal(t, inventory.ReversalFragments, p)

	p, err = inventory.ParseReversalPolicy("latest_lot")
	require.NoError(t, err)
	assert.Equal(t, inventory.ReversalLatestLot, p)

	_, err = inventory.ParseReversalPolicy("lifo")
	assert.Error(t, err)
}

func TestSale_UnidadDeOtraBaseNoDescuenta(t *testing.T) {
	f := newFixture(t, inventory.ReversalFragments)
	tresLotes(t, f)
	ctx := context.Background()
	require.NoError(t, f.repos.Units.Create(ctx, &entity.Unit{ID: "unit-kg", StoreID: storeA1, Name: "kg", ConversionFactor: d("1")}))

	for _, unitID := range []string{"unit-kg", unitUndA2} {
		_, err := f.sales.AllocateSale(ctx, inventory.SaleInput{
			TenantID: tenantA, StoreID: storeA1, OrderID: "ped-" + unitID,
			Items: []inventory.ItemInput{{ProductID: prodP1, Quantity: d("7"), UnitID: unitID}},
		})
		assert.ErrorIs(t, err, domain.ErrIncompatibleUnits, unitID)
	}
	assert.Equal(t, []string{"5", "5", "5"}, remaining(f.lots(t, prodP1, storeA1)))
}
