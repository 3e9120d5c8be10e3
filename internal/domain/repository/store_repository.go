package repository

import (
	"context"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// StoreRepository consulta de tiendas e inquilino (colaborador externo).
type StoreRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Store, error)
}
