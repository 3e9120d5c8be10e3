package repository

import (
	"context"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// UnitRepository define el puerto de persistencia del registro de unidades.
type UnitRepository interface {
	Create(ctx context.Context, unit *entity.Unit) error
	GetByID(ctx context.Context, id string) (*entity.Unit, error)
	ListByStore(ctx context.Context, storeID string) ([]*entity.Unit, error)
}

// ProductUnitConfigRepository define el puerto de la configuración de unidades por producto.
type ProductUnitConfigRepository interface {
	GetActive(ctx context.Context, productID, storeID string) (*entity.ProductUnitConfig, error)
	// Activate desactiva la configuración vigente y guarda cfg como activa.
	Activate(ctx context.Context, cfg *entity.ProductUnitConfig) error
}
