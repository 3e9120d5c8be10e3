package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLot(id string, qty int64) *entity.Lot {
	q := decimal.NewFromInt(qty)
	return &entity.Lot{ID: id, ProductID: "p", StoreID: "s", UnitID: "u", Quantity: q, RemainingQuantity: q, Cost: decimal.NewFromInt(1)}
}

func TestRun_RollbackDescartaCambios(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := st.Run(ctx, func(repos repository.Repositories) error {
		require.NoError(t, repos.Lots.Create(ctx, newLot("l1", 5)))
		require.NoError(t, repos.Stock.Add(ctx, "p", "s", "u", decimal.NewFromInt(5)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	lot, err := st.Repositories().Lots.GetByID(ctx, "l1")
	require.NoError(t, err)
	assert.Nil(t, lot)
	rows, err := st.Repositories().Stock.List(ctx, "p", "s")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRun_CommitVisibleFueraDeTransaccion(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	require.NoError(t, st.Run(ctx, func(repos repository.Repositories) error {
		return repos.Lots.Create(ctx, newLot("l1", 5))
	}))

	lot, err := st.Repositories().Lots.GetByID(ctx, "l1")
	require.NoError(t, err)
	require.NotNil(t, lot)
	assert.Equal(t, int64(1), lot.Seq)
}

func TestLots_DeductYRestoreAcotados(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	repos := st.Repositories()
	require.NoError(t, repos.Lots.Create(ctx, newLot("l1", 5)))

	assert.ErrorIs(t, repos.Lots.Deduct(ctx, "l1", decimal.NewFromInt(6)), domain.ErrInsufficientLotQuantity)
	require.NoError(t, repos.Lots.Deduct(ctx, "l1", decimal.NewFromInt(2)))
	assert.ErrorIs(t, repos.Lots.Restore(ctx, "l1", decimal.NewFromInt(3)), domain.ErrExceedsOriginalQuantity)
	require.NoError(t, repos.Lots.Restore(ctx, "l1", decimal.NewFromInt(2)))

	lot, err := repos.Lots.GetByID(ctx, "l1")
	require.NoError(t, err)
	assert.True(t, lot.RemainingQuantity.Equal(decimal.NewFromInt(5)))
}

func TestLots_DevuelveCopias(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	repos := st.Repositories()
	require.NoError(t, repos.Lots.Create(ctx, newLot("l1", 5)))

	lot, err := repos.Lots.GetByID(ctx, "l1")
	require.NoError(t, err)
	lot.RemainingQuantity = decimal.Zero

	again, err := repos.Lots.GetByID(ctx, "l1")
	require.NoError(t, err)
	assert.True(t, again.RemainingQuantity.Equal(decimal.NewFromInt(5)))
}

func TestTransfers_LastNumberPorPrefijo(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	repos := st.Repositories()
	for _, n := range []string{"TF2026020007", "TF2026030001", "TF2026030002"} {
		require.NoError(t, repos.Transfers.Create(ctx, &entity.Transfer{ID: n, TransferNumber: n}))
	}

	last, err := repos.Transfers.LastNumber(ctx, "TF202603")
	require.NoError(t, err)
	assert.Equal(t, "TF2026030002", last)

	last, err = repos.Transfers.LastNumber(ctx, "TF202604")
	require.NoError(t, err)
	assert.Empty(t, last)
}

func TestTransfers_LastNumberPasadoDe9999(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	repos := st.Repositories()
	for _, n := range []string{"TF2026039998", "TF2026039999", "TF20260310000"} {
		require.NoError(t, repos.Transfers.Create(ctx, &entity.Transfer{ID: n, TransferNumber: n}))
	}

	last, err := repos.Transfers.LastNumber(ctx, "TF202603")
	require.NoError(t, err)
	assert.Equal(t, "TF20260310000", last)
}

func TestRun_ContextoCancelado(t *testing.T) {
	st := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := st.Run(ctx, func(repository.Repositories) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCancellations_UnaPorPedidoYTienda(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	repos := st.Repositories()

	got, err := repos.Cancellations.Get(ctx, "s", "ped-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	c := &entity.OrderCancellation{ID: "c1", StoreID: "s", OrderID: "ped-1", Policy: "fragments", RestoredQuantity: decimal.NewFromInt(4)}
	require.NoError(t, repos.Cancellations.Create(ctx, c))
	err = repos.Cancellations.Create(ctx, &entity.OrderCancellation{ID: "c2", StoreID: "s", OrderID: "ped-1", Policy: "fragments"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	// el mismo pedido en otra tienda es independiente
	require.NoError(t, repos.Cancellations.Create(ctx, &entity.OrderCancellation{ID: "c3", StoreID: "s2", OrderID: "ped-1", Policy: "latest_lot"}))

	got, err = repos.Cancellations.Get(ctx, "s", "ped-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "c1", got.ID)
	assert.True(t, got.RestoredQuantity.Equal(decimal.NewFromInt(4)))
}
