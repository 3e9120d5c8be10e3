package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemRequest línea de producto en la unidad que elija el cliente (vacía = unidad por defecto).
type ItemRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitID    string          `json:"unit_id,omitempty"`
}

// TransferRequest body para POST /api/transfers.
type TransferRequest struct {
	SourceStoreID      string        `json:"source_store_id" validate:"required"`
	DestinationStoreID string        `json:"destination_store_id" validate:"required"`
	Items              []ItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes              string        `json:"notes,omitempty" validate:"max=500"`
}

// TransferItemResponse fragmento FIFO trasladado.
type TransferItemResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	Cost             decimal.Decimal `json:"cost"`
	UnitID           string          `json:"unit_id"`
	SourceLotID      string          `json:"source_lot_id"`
	DestinationLotID string          `json:"destination_lot_id"`
}

// TransferResponse traslado con su linaje de lotes.
type TransferResponse struct {
	ID                 string                 `json:"id"`
	TransferNumber     string                 `json:"transfer_number"`
	SourceStoreID      string                 `json:"source_store_id"`
	DestinationStoreID string                 `json:"destination_store_id"`
	TransferDate       time.Time              `json:"transfer_date"`
	Status             string                 `json:"status"`
	Notes              string                 `json:"notes,omitempty"`
	CreatedBy          string                 `json:"created_by,omitempty"`
	Items              []TransferItemResponse `json:"items"`
}

// PurchaseItemRequest línea recibida del proveedor.
type PurchaseItemRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Cost      decimal.Decimal `json:"cost"`
	UnitID    string          `json:"unit_id,omitempty"`
}

// PurchaseOrderRequest body para POST /api/purchase-orders. ImportDate vacía = ahora.
type PurchaseOrderRequest struct {
	StoreID     string                `json:"store_id" validate:"required"`
	SupplierID  string                `json:"supplier_id,omitempty"`
	ImportDate  *time.Time            `json:"import_date,omitempty"`
	TotalAmount decimal.Decimal       `json:"total_amount"`
	Notes       string                `json:"notes,omitempty" validate:"max=500"`
	Items       []PurchaseItemRequest `json:"items" validate:"required,min=1,dive"`
}

// PurchaseOrderItemResponse línea tal como llegó y en unidad base.
type PurchaseOrderItemResponse struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Cost         decimal.Decimal `json:"cost"`
	UnitID       string          `json:"unit_id"`
	BaseQuantity decimal.Decimal `json:"base_quantity"`
	BaseCost     decimal.Decimal `json:"base_cost"`
	BaseUnitID   string          `json:"base_unit_id"`
	LotID        string          `json:"lot_id,omitempty"`
}

// PurchaseOrderResponse orden de compra recibida.
type PurchaseOrderResponse struct {
	ID          string                      `json:"id"`
	StoreID     string                      `json:"store_id"`
	SupplierID  string                      `json:"supplier_id,omitempty"`
	ImportDate  time.Time                   `json:"import_date"`
	TotalAmount decimal.Decimal             `json:"total_amount"`
	Status      string                      `json:"status"`
	Notes       string                      `json:"notes,omitempty"`
	CreatedAt   time.Time                   `json:"created_at"`
	Items       []PurchaseOrderItemResponse `json:"items"`
}

// SaleRequest body para POST /api/sales/allocations.
type SaleRequest struct {
	StoreID string        `json:"store_id" validate:"required"`
	OrderID string        `json:"order_id,omitempty" validate:"max=100"`
	Items   []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CancelOrderRequest body para POST /api/sales/orders/{order_id}/cancel.
// Items solo se usa si el pedido no tiene fragmentos registrados.
type CancelOrderRequest struct {
	StoreID string        `json:"store_id" validate:"required"`
	Items   []ItemRequest `json:"items,omitempty" validate:"omitempty,dive"`
}

// LotResponse lote del libro (cantidades y costo en unidad base).
type LotResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	StoreID           string          `json:"store_id"`
	ImportDate        time.Time       `json:"import_date"`
	Quantity          decimal.Decimal `json:"quantity"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	Cost              decimal.Decimal `json:"cost"`
	UnitID            string          `json:"unit_id"`
	Source            string          `json:"source"`
	PurchaseOrderID   string          `json:"purchase_order_id,omitempty"`
	TransferID        string          `json:"transfer_id,omitempty"`
}

// LotListResponse página de lotes en orden FIFO.
type LotListResponse struct {
	Items []LotResponse `json:"items"`
	Page  PageResponse  `json:"page"`
}
