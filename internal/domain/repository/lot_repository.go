package repository

import (
	"context"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LotRepository define el puerto de persistencia del libro de lotes.
// No expone una actualización genérica: RemainingQuantity solo cambia con Deduct/Restore,
// que son compare-and-swap sobre la fila.
type LotRepository interface {
	Create(ctx context.Context, lot *entity.Lot) error
	GetByID(ctx context.Context, id string) (*entity.Lot, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Lot, error)
	// ListAvailableForUpdate lotes con restante > 0 en orden FIFO (import_date, seq), bloqueados.
	ListAvailableForUpdate(ctx context.Context, productID, storeID string) ([]*entity.Lot, error)
	// LatestForUpdate lote creado más recientemente para el producto/tienda, bloqueado.
	LatestForUpdate(ctx context.Context, productID, storeID string) (*entity.Lot, error)
	ListByPurchaseOrderForUpdate(ctx context.Context, purchaseOrderID string) ([]*entity.Lot, error)
	ListByProduct(ctx context.Context, productID, storeID string, limit, offset int) ([]*entity.Lot, error)
	SumRemaining(ctx context.Context, productID, storeID string) (decimal.Decimal, error)
	// SumRemainingByUnit re-suma el libro por unidad (conciliación).
	SumRemainingByUnit(ctx context.Context, productID, storeID string) (map[string]decimal.Decimal, error)
	// Deduct falla con domain.ErrInsufficientLotQuantity si amount > restante.
	Deduct(ctx context.Context, id string, amount decimal.Decimal) error
	// Restore falla con domain.ErrExceedsOriginalQuantity si restante+amount > cantidad.
	Restore(ctx context.Context, id string, amount decimal.Decimal) error
	DeleteByPurchaseOrder(ctx context.Context, purchaseOrderID string) error
}
