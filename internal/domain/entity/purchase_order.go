package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrderStatusReceived estado de una orden cuya mercancía ya generó lotes.
const PurchaseOrderStatusReceived = "received"

// PurchaseOrder recepción de proveedor; única fuente de inventario "fresco".
// TotalAmount lo informa el llamador y no se recalcula desde los ítems.
type PurchaseOrder struct {
	ID          string
	StoreID     string
	SupplierID  string
	ImportDate  time.Time
	TotalAmount decimal.Decimal
	Status      string
	Notes       string
	CreatedBy   string
	CreatedAt   time.Time
	Items       []PurchaseOrderItem
}

// PurchaseOrderItem línea recibida, tal como llegó y normalizada a unidad base.
type PurchaseOrderItem struct {
	ID              string
	PurchaseOrderID string
	ProductID       string
	Quantity        decimal.Decimal
	Cost            decimal.Decimal
	UnitID          string
	BaseQuantity    decimal.Decimal
	BaseCost        decimal.Decimal
	BaseUnitID      string
	LotID           string
}
