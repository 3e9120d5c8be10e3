package repository

import (
	"context"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// PurchaseOrderRepository define el puerto de persistencia de órdenes de compra.
// Create guarda solo la cabecera; los ítems se agregan después de crear los lotes que referencian.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, order *entity.PurchaseOrder) error
	AddItems(ctx context.Context, items []entity.PurchaseOrderItem) error
	// GetByID devuelve la orden con sus ítems, o (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// Delete elimina ítems y cabecera.
	Delete(ctx context.Context, id string) error
}
