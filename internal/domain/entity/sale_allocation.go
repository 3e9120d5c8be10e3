package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleAllocation fragmento de lote consumido por un pedido. Permite que la cancelación
// restituya exactamente lo que se tomó.
type SaleAllocation struct {
	ID               string
	StoreID          string
	OrderID          string
	ProductID        string
	LotID            string
	Quantity         decimal.Decimal
	Cost             decimal.Decimal
	RestoredQuantity decimal.Decimal
	CreatedAt        time.Time
}

// Pending cantidad aún no restituida.
func (a *SaleAllocation) Pending() decimal.Decimal {
	return a.Quantity.Sub(a.RestoredQuantity)
}
