package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo órdenes de compra sobre PostgreSQL.
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

// Create inserta la cabecera.
func (r *PurchaseOrderRepo) Create(ctx context.Context, o *entity.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (id, store_id, supplier_id, import_date, total_amount, status, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query, o.ID, o.StoreID, o.SupplierID, o.ImportDate, o.TotalAmount, o.Status,
		o.Notes, o.CreatedBy, o.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert purchase order: %w", err)
	}
	return nil
}

// AddItems inserta los ítems (ya con su lote) en un batch.
func (r *PurchaseOrderRepo) AddItems(ctx context.Context, items []entity.PurchaseOrderItem) error {
	if len(items) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, it := range items {
		b.Queue(`
			INSERT INTO purchase_order_items (id, purchase_order_id, product_id, quantity, cost, unit_id,
			                                  base_quantity, base_cost, base_unit_id, lot_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			it.ID, it.PurchaseOrderID, it.ProductID, it.Quantity, it.Cost, it.UnitID,
			it.BaseQuantity, it.BaseCost, it.BaseUnitID, nullIfEmpty(it.LotID))
	}
	br := r.q.SendBatch(ctx, b)
	defer br.Close()
	for range items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert purchase order item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la orden con sus ítems.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	var o entity.PurchaseOrder
	err := r.q.QueryRow(ctx, `
		SELECT id, store_id, supplier_id, import_date, total_amount, status, notes, created_by, created_at
		FROM purchase_orders WHERE id = $1`, id).Scan(
		&o.ID, &o.StoreID, &o.SupplierID, &o.ImportDate, &o.TotalAmount, &o.Status, &o.Notes, &o.CreatedBy, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, purchase_order_id, product_id, quantity, cost, unit_id, base_quantity, base_cost, base_unit_id, lot_id
		FROM purchase_order_items WHERE purchase_order_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("list purchase order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.PurchaseOrderItem
		var lotID *string
		if err := rows.Scan(&it.ID, &it.PurchaseOrderID, &it.ProductID, &it.Quantity, &it.Cost, &it.UnitID,
			&it.BaseQuantity, &it.BaseCost, &it.BaseUnitID, &lotID); err != nil {
			return nil, fmt.Errorf("scan purchase order item: %w", err)
		}
		it.LotID = derefString(lotID)
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list purchase order items: %w", err)
	}
	return &o, nil
}

// Delete borra ítems y cabecera.
func (r *PurchaseOrderRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM purchase_order_items WHERE purchase_order_id = $1`, id); err != nil {
		return fmt.Errorf("delete purchase order items: %w", err)
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete purchase order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("orden de compra", id)
	}
	return nil
}
