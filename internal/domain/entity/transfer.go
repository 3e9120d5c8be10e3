package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatusCompleted único estado de un traslado: la operación es atómica o no existe.
const TransferStatusCompleted = "completed"

// Transfer traslado de inventario entre dos tiendas del mismo inquilino.
type Transfer struct {
	ID                 string
	TransferNumber     string // TF{yyyyMM}{0001}
	SourceStoreID      string
	DestinationStoreID string
	TransferDate       time.Time
	Status             string
	Notes              string
	CreatedBy          string
	CreatedAt          time.Time
	Items              []TransferItem
}

// TransferItem fragmento FIFO trasladado: referencia el lote origen y el lote creado en destino.
type TransferItem struct {
	ID               string
	TransferID       string
	ProductID        string
	Quantity         decimal.Decimal
	Cost             decimal.Decimal
	UnitID           string
	SourceLotID      string
	DestinationLotID string
}
