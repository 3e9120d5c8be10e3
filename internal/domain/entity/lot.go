package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Orígenes de un lote.
const (
	LotSourcePurchase = "purchase" // orden de compra
	LotSourceTransfer = "transfer" // destino de un traslado
	LotSourceReversal = "reversal" // reingreso por cancelación de pedido
)

// Lot es un lote inmutable de inventario recibido en una fecha. Solo RemainingQuantity cambia,
// y únicamente a través del libro de lotes (descuento o restitución acotada).
// Quantity, Cost y UnitID están siempre en la unidad base del producto.
type Lot struct {
	ID                string
	Seq               int64 // secuencia de inserción, desempate FIFO
	ProductID         string
	StoreID           string
	ImportDate        time.Time
	Quantity          decimal.Decimal
	RemainingQuantity decimal.Decimal
	Cost              decimal.Decimal // costo unitario en unidad base
	UnitID            string
	PurchaseOrderID   string // excluyente con TransferID
	TransferID        string
	CreatedAt         time.Time
}

// Source devuelve el origen del lote.
func (l *Lot) Source() string {
	switch {
	case l.PurchaseOrderID != "":
		return LotSourcePurchase
	case l.TransferID != "":
		return LotSourceTransfer
	default:
		return LotSourceReversal
	}
}

// Untouched indica que no se ha consumido nada del lote.
func (l *Lot) Untouched() bool {
	return l.RemainingQuantity.Equal(l.Quantity)
}

// Capacity es lo que puede restituirse sin superar la cantidad original.
func (l *Lot) Capacity() decimal.Decimal {
	return l.Quantity.Sub(l.RemainingQuantity)
}
