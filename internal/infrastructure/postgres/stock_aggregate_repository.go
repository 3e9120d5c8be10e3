package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.StockAggregateRepository = (*StockAggregateRepo)(nil)

// StockAggregateRepo total por producto/tienda/unidad sobre PostgreSQL (usable con pool o tx).
type StockAggregateRepo struct {
	q Querier
}

// NewStockAggregateRepository construye el adaptador del agregado. Pasar pool o tx (Querier).
func NewStockAggregateRepository(q Querier) *StockAggregateRepo {
	return &StockAggregateRepo{q: q}
}

// Add suma delta con upsert atómico; dos transacciones concurrentes se serializan en la fila.
func (r *StockAggregateRepo) Add(ctx context.Context, productID, storeID, unitID string, delta decimal.Decimal) error {
	query := `
		INSERT INTO stock_aggregates (product_id, store_id, unit_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (product_id, store_id, unit_id)
		DO UPDATE SET quantity = stock_aggregates.quantity + EXCLUDED.quantity, updated_at = now()`
	if _, err := r.q.Exec(ctx, query, productID, storeID, unitID, delta); err != nil {
		return fmt.Errorf("add stock aggregate: %w", err)
	}
	return nil
}

// List filas del producto en la tienda, una por unidad.
func (r *StockAggregateRepo) List(ctx context.Context, productID, storeID string) ([]*entity.StockAggregate, error) {
	rows, err := r.q.Query(ctx, `
		SELECT product_id, store_id, unit_id, quantity, updated_at
		FROM stock_aggregates WHERE product_id = $1 AND store_id = $2 ORDER BY unit_id`, productID, storeID)
	if err != nil {
		return nil, fmt.Errorf("list stock aggregates: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockAggregate
	for rows.Next() {
		var a entity.StockAggregate
		if err := rows.Scan(&a.ProductID, &a.StoreID, &a.UnitID, &a.Quantity, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock aggregate: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

// Set fija la cantidad (conciliación).
func (r *StockAggregateRepo) Set(ctx context.Context, agg *entity.StockAggregate) error {
	query := `
		INSERT INTO stock_aggregates (product_id, store_id, unit_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (product_id, store_id, unit_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	if _, err := r.q.Exec(ctx, query, agg.ProductID, agg.StoreID, agg.UnitID, agg.Quantity); err != nil {
		return fmt.Errorf("set stock aggregate: %w", err)
	}
	return nil
}
