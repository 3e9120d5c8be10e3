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

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo implementación del libro de lotes sobre PostgreSQL (usable con pool o tx).
// Las variantes ForUpdate solo bloquean dentro de una transacción.
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

const lotColumns = `id, seq, product_id, store_id, import_date, quantity, remaining_quantity, cost,
	unit_id, purchase_order_id, transfer_id, created_at`

// fifoOrder orden de consumo: fecha de importación y, a igual fecha, orden de inserción.
const fifoOrder = ` ORDER BY import_date ASC, seq ASC`

func scanLot(row pgx.Row) (*entity.Lot, error) {
	var l entity.Lot
	var poID, transferID *string
	err := row.Scan(&l.ID, &l.Seq, &l.ProductID, &l.StoreID, &l.ImportDate, &l.Quantity, &l.RemainingQuantity,
		&l.Cost, &l.UnitID, &poID, &transferID, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	l.PurchaseOrderID = derefString(poID)
	l.TransferID = derefString(transferID)
	return &l, nil
}

func (r *LotRepo) queryLots(ctx context.Context, op, query string, args ...any) ([]*entity.Lot, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		list = append(list, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

func (r *LotRepo) queryLot(ctx context.Context, op, query string, args ...any) (*entity.Lot, error) {
	l, err := scanLot(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

// Create inserta el lote; seq lo asigna la base de datos y se devuelve en lot.Seq.
func (r *LotRepo) Create(ctx context.Context, lot *entity.Lot) error {
	query := `
		INSERT INTO lots (id, product_id, store_id, import_date, quantity, remaining_quantity, cost,
		                  unit_id, purchase_order_id, transfer_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		lot.ID, lot.ProductID, lot.StoreID, lot.ImportDate, lot.Quantity, lot.RemainingQuantity, lot.Cost,
		lot.UnitID, nullIfEmpty(lot.PurchaseOrderID), nullIfEmpty(lot.TransferID), lot.CreatedAt,
	).Scan(&lot.Seq)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.NewNotFoundError("producto, tienda o unidad del lote", lot.ProductID)
		}
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

// GetByID obtiene un lote por ID.
func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.Lot, error) {
	return r.queryLot(ctx, "get lot", `SELECT `+lotColumns+` FROM lots WHERE id = $1`, id)
}

// GetForUpdate obtiene el lote y bloquea la fila (SELECT FOR UPDATE).
func (r *LotRepo) GetForUpdate(ctx context.Context, id string) (*entity.Lot, error) {
	return r.queryLot(ctx, "get lot for update", `SELECT `+lotColumns+` FROM lots WHERE id = $1 FOR UPDATE`, id)
}

// ListAvailableForUpdate lotes con restante en orden FIFO; las filas se bloquean en ese mismo orden,
// así dos asignaciones concurrentes del mismo producto/tienda no se cruzan.
func (r *LotRepo) ListAvailableForUpdate(ctx context.Context, productID, storeID string) ([]*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots
		WHERE product_id = $1 AND store_id = $2 AND remaining_quantity > 0` + fifoOrder + ` FOR UPDATE`
	return r.queryLots(ctx, "list available lots", query, productID, storeID)
}

// LatestForUpdate lote creado más recientemente para el producto/tienda.
func (r *LotRepo) LatestForUpdate(ctx context.Context, productID, storeID string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots
		WHERE product_id = $1 AND store_id = $2
		ORDER BY seq DESC LIMIT 1 FOR UPDATE`
	return r.queryLot(ctx, "get latest lot", query, productID, storeID)
}

// ListByPurchaseOrderForUpdate lotes generados por una orden de compra.
func (r *LotRepo) ListByPurchaseOrderForUpdate(ctx context.Context, purchaseOrderID string) ([]*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE purchase_order_id = $1 ORDER BY seq FOR UPDATE`
	return r.queryLots(ctx, "list purchase order lots", query, purchaseOrderID)
}

// ListByProduct lista lotes (incluidos los agotados) en orden FIFO, paginado.
func (r *LotRepo) ListByProduct(ctx context.Context, productID, storeID string, limit, offset int) ([]*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE product_id = $1 AND store_id = $2` + fifoOrder + ` LIMIT $3 OFFSET $4`
	return r.queryLots(ctx, "list lots", query, productID, storeID, limit, offset)
}

// SumRemaining suma el restante del producto en la tienda.
func (r *LotRepo) SumRemaining(ctx context.Context, productID, storeID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(remaining_quantity), 0) FROM lots WHERE product_id = $1 AND store_id = $2`,
		productID, storeID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum remaining: %w", err)
	}
	return total, nil
}

// SumRemainingByUnit re-suma el libro por unidad.
func (r *LotRepo) SumRemainingByUnit(ctx context.Context, productID, storeID string) (map[string]decimal.Decimal, error) {
	rows, err := r.q.Query(ctx, `
		SELECT unit_id, SUM(remaining_quantity) FROM lots
		WHERE product_id = $1 AND store_id = $2 GROUP BY unit_id`, productID, storeID)
	if err != nil {
		return nil, fmt.Errorf("sum remaining by unit: %w", err)
	}
	defer rows.Close()
	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var unitID string
		var sum decimal.Decimal
		if err := rows.Scan(&unitID, &sum); err != nil {
			return nil, fmt.Errorf("scan sum: %w", err)
		}
		out[unitID] = sum
	}
	return out, rows.Err()
}

// Deduct descuenta con compare-and-swap: la condición remaining_quantity >= amount va en el WHERE.
func (r *LotRepo) Deduct(ctx context.Context, id string, amount decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE lots SET remaining_quantity = remaining_quantity - $2
		WHERE id = $1 AND remaining_quantity >= $2`, id, amount)
	if err != nil {
		return fmt.Errorf("deduct lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lote %s: %w", id, domain.ErrInsufficientLotQuantity)
	}
	return nil
}

// Restore devuelve cantidad sin superar la original.
func (r *LotRepo) Restore(ctx context.Context, id string, amount decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE lots SET remaining_quantity = remaining_quantity + $2
		WHERE id = $1 AND remaining_quantity + $2 <= quantity`, id, amount)
	if err != nil {
		return fmt.Errorf("restore lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lote %s: %w", id, domain.ErrExceedsOriginalQuantity)
	}
	return nil
}

// DeleteByPurchaseOrder borra los lotes de la orden; solo los que siguen intactos.
func (r *LotRepo) DeleteByPurchaseOrder(ctx context.Context, purchaseOrderID string) error {
	tag, err := r.q.Exec(ctx, `
		DELETE FROM lots WHERE purchase_order_id = $1 AND remaining_quantity = quantity`, purchaseOrderID)
	if err != nil {
		return fmt.Errorf("delete purchase order lots: %w", err)
	}
	var left int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM lots WHERE purchase_order_id = $1`, purchaseOrderID).Scan(&left); err != nil {
		return fmt.Errorf("count purchase order lots: %w", err)
	}
	if left > 0 {
		return fmt.Errorf("%d lotes usados (borrados %d): %w", left, tag.RowsAffected(), domain.ErrCannotDeleteUsedInventory)
	}
	return nil
}
