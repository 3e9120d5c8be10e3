package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

var (
	_ repository.StoreRepository   = (*StoreRepo)(nil)
	_ repository.ProductRepository = (*ProductRepo)(nil)
)

// StoreRepo lectura de tiendas (tabla mantenida por el subsistema de tiendas).
type StoreRepo struct {
	q Querier
}

// NewStoreRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStoreRepository(q Querier) *StoreRepo {
	return &StoreRepo{q: q}
}

// GetByID obtiene una tienda por ID.
func (r *StoreRepo) GetByID(ctx context.Context, id string) (*entity.Store, error) {
	var s entity.Store
	err := r.q.QueryRow(ctx, `SELECT id, tenant_id, name, created_at FROM stores WHERE id = $1`, id).Scan(
		&s.ID, &s.TenantID, &s.Name, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get store: %w", err)
	}
	return &s, nil
}

// ProductRepo lectura de productos del catálogo.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	var defaultUnitID *string
	err := r.q.QueryRow(ctx, `SELECT id, tenant_id, name, default_unit_id, created_at FROM products WHERE id = $1`, id).Scan(
		&p.ID, &p.TenantID, &p.Name, &defaultUnitID, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	p.DefaultUnitID = derefString(defaultUnitID)
	return &p, nil
}
