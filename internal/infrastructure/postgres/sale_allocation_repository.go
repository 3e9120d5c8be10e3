package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.SaleAllocationRepository = (*SaleAllocationRepo)(nil)

// SaleAllocationRepo fragmentos de lote consumidos por pedido.
type SaleAllocationRepo struct {
	q Querier
}

// NewSaleAllocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleAllocationRepository(q Querier) *SaleAllocationRepo {
	return &SaleAllocationRepo{q: q}
}

// Create inserta los fragmentos en un batch.
func (r *SaleAllocationRepo) Create(ctx context.Context, allocs []*entity.SaleAllocation) error {
	if len(allocs) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, a := range allocs {
		b.Queue(`
			INSERT INTO sale_allocations (id, store_id, order_id, product_id, lot_id, quantity, cost, restored_quantity, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			a.ID, a.StoreID, a.OrderID, a.ProductID, nullIfEmpty(a.LotID), a.Quantity, a.Cost, a.RestoredQuantity, a.CreatedAt)
	}
	br := r.q.SendBatch(ctx, b)
	defer br.Close()
	for range allocs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert sale allocation: %w", err)
		}
	}
	return nil
}

// ListByOrderForUpdate fragmentos del pedido en orden de consumo, bloqueados.
func (r *SaleAllocationRepo) ListByOrderForUpdate(ctx context.Context, storeID, orderID string) ([]*entity.SaleAllocation, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, store_id, order_id, product_id, lot_id, quantity, cost, restored_quantity, created_at
		FROM sale_allocations WHERE store_id = $1 AND order_id = $2
		ORDER BY seq FOR UPDATE`, storeID, orderID)
	if err != nil {
		return nil, fmt.Errorf("list sale allocations: %w", err)
	}
	defer rows.Close()
	var list []*entity.SaleAllocation
	for rows.Next() {
		var a entity.SaleAllocation
		var lotID *string
		if err := rows.Scan(&a.ID, &a.StoreID, &a.OrderID, &a.ProductID, &lotID, &a.Quantity, &a.Cost,
			&a.RestoredQuantity, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sale allocation: %w", err)
		}
		a.LotID = derefString(lotID)
		list = append(list, &a)
	}
	return list, rows.Err()
}

// AddRestored marca cantidad restituida sin superar la asignada.
func (r *SaleAllocationRepo) AddRestored(ctx context.Context, id string, amount decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE sale_allocations SET restored_quantity = restored_quantity + $2
		WHERE id = $1 AND restored_quantity + $2 <= quantity`, id, amount)
	if err != nil {
		return fmt.Errorf("update sale allocation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("asignación %s: %w", id, domain.ErrExceedsOriginalQuantity)
	}
	return nil
}

var _ repository.OrderCancellationRepository = (*OrderCancellationRepo)(nil)

// OrderCancellationRepo registro de pedidos cancelados; UNIQUE (store_id, order_id).
type OrderCancellationRepo struct {
	q Querier
}

// NewOrderCancellationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderCancellationRepository(q Querier) *OrderCancellationRepo {
	return &OrderCancellationRepo{q: q}
}

// Create inserta el registro. Una cancelación concurrente del mismo pedido espera en el índice
// único y falla con ErrDuplicate cuando la primera confirma.
func (r *OrderCancellationRepo) Create(ctx context.Context, c *entity.OrderCancellation) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO order_cancellations (id, store_id, order_id, policy, restored_quantity, cancelled_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.StoreID, c.OrderID, c.Policy, c.RestoredQuantity, nullIfEmpty(c.CancelledBy), c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("cancelación del pedido %s: %w", c.OrderID, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert order cancellation: %w", err)
	}
	return nil
}

// Get devuelve la cancelación del pedido o (nil, nil).
func (r *OrderCancellationRepo) Get(ctx context.Context, storeID, orderID string) (*entity.OrderCancellation, error) {
	var c entity.OrderCancellation
	var by *string
	err := r.q.QueryRow(ctx, `
		SELECT id, store_id, order_id, policy, restored_quantity, cancelled_by, created_at
		FROM order_cancellations WHERE store_id = $1 AND order_id = $2`, storeID, orderID).
		Scan(&c.ID, &c.StoreID, &c.OrderID, &c.Policy, &c.RestoredQuantity, &by, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order cancellation: %w", err)
	}
	c.CancelledBy = derefString(by)
	return &c, nil
}
