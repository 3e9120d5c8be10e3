package repository

import (
	"context"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockAggregateRepository define el puerto del total en caché por producto/tienda/unidad.
// Solo el libro de lotes lo modifica, siempre dentro de la transacción del cambio de lotes.
type StockAggregateRepository interface {
	// Add suma delta (puede ser negativo) creando la fila si no existe.
	Add(ctx context.Context, productID, storeID, unitID string, delta decimal.Decimal) error
	List(ctx context.Context, productID, storeID string) ([]*entity.StockAggregate, error)
	// Set fija el valor; solo para conciliación.
	Set(ctx context.Context, agg *entity.StockAggregate) error
}
