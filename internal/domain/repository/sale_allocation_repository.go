package repository

import (
	"context"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SaleAllocationRepository guarda los fragmentos de lote consumidos por pedido.
type SaleAllocationRepository interface {
	Create(ctx context.Context, allocs []*entity.SaleAllocation) error
	ListByOrderForUpdate(ctx context.Context, storeID, orderID string) ([]*entity.SaleAllocation, error)
	AddRestored(ctx context.Context, id string, amount decimal.Decimal) error
}

// OrderCancellationRepository registro de pedidos cancelados.
type OrderCancellationRepository interface {
	// Create falla con domain.ErrDuplicate si el pedido ya tiene cancelación en la tienda.
	Create(ctx context.Context, c *entity.OrderCancellation) error
	// Get devuelve (nil, nil) si el pedido no fue cancelado.
	Get(ctx context.Context, storeID, orderID string) (*entity.OrderCancellation, error)
}
