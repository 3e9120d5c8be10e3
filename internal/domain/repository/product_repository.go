package repository

import (
	"context"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// ProductRepository consulta de productos (colaborador externo).
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}
