package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderCancellation registro de un pedido cancelado. Hay a lo sumo uno por tienda y pedido; su
// existencia impide volver a restituir el inventario del mismo pedido.
type OrderCancellation struct {
	ID               string
	StoreID          string
	OrderID          string
	Policy           string
	RestoredQuantity decimal.Decimal
	CancelledBy      string
	CreatedAt        time.Time
}
