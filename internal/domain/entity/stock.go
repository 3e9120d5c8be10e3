package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockAggregate total en caché por producto/tienda/unidad base.
// Siempre igual a SUM(lot.RemainingQuantity) de los lotes en esa unidad; se actualiza en la
// misma transacción que cualquier cambio de lotes.
type StockAggregate struct {
	ProductID string
	StoreID   string
	UnitID    string
	Quantity  decimal.Decimal
	UpdatedAt time.Time
}
