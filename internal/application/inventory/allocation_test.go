package inventory_test

import (
	"context"
	"testing"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allocate(f *fixture, qty string, policy inventory.AllocationPolicy) (*inventory.AllocationResult, error) {
	var res *inventory.AllocationResult
	err := f.store.Run(context.Background(), func(repos repository.Repositories) error {
		var err error
		res, err = f.allocator.Allocate(context.Background(), repos, prodP1, storeA1, d(qty), policy)
		return err
	})
	return res, err
}

func TestAllocate_ParcialConsumeLoDisponible(t *testing.T) {
	f := newFixture(t, inventory.ReversalFragments)
	tresLotes(t, f)

	res, err := allocate(f, "18", inventory.Partial)
	require.NoError(t, err)
	assert.True(t, res.Requested.Equal(d("18")))
	assert.True(t, res.Shortfall.Equal(d("3")))
	require.Len(t, res.Consumed, 3)
	// 5*10 + 5*11 + 5*12
	assert.True(t, res.TotalCost.Equal(d("165")))
	assert.True(t, res.WeightedAverageCost.Equal(d("11")))
	assert.Equal(t, []string{"0", "0", "0"}, remaining(f.lots(t, prodP1, storeA1)))
	f.requireConserved(t, prodP1, storeA1)
}

func TestAllocate_ParcialSinFaltanteIgualQueTodoONada(t *testing.T) {
	f := newFixture(t, inventory.ReversalFragments)
	tresLotes(t, f)

	res, err := allocate(f, "6", inventory.Partial)
	require.NoError(t, err)
	assert.True(t, res.Shortfall.IsZero())
	require.Len(t, res.Consumed, 2)
	assert.Equal(t, []string{"0", "4", "5"}, remaining(f.lots(t, prodP1, storeA1)))
}

func TestAllocate_TodoONadaConFaltanteNoDescuenta(t *testing.T) {
	f := newFixture(t, inventory.ReversalFragments)
	tresLotes(t, f)

	res, err := allocate(f, "18", inventory.AllOrNothing)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Len(t, stockErr.Shortfalls, 1)
	assert.True(t, stockErr.Shortfalls[0].Available.Equal(d("15")))
	require.NotNil(t, res)
	assert.Empty(t, res.Consumed)
	assert.Equal(t, []string{"5", "5", "5"}, remaining(f.lots(t, prodP1, storeA1)))
}
