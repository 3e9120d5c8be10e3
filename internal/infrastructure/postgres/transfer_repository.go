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

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo traslados y sus ítems sobre PostgreSQL.
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

// LastNumber toma un advisory lock por prefijo (liberado al terminar la tx) y devuelve el mayor
// número del mes. Dos traslados del mismo mes no pueden generar el mismo consecutivo.
func (r *TransferRepo) LastNumber(ctx context.Context, prefix string) (string, error) {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, prefix); err != nil {
		return "", fmt.Errorf("lock transfer number: %w", err)
	}
	var last string
	err := r.q.QueryRow(ctx, `
		SELECT transfer_number FROM transfers
		WHERE transfer_number LIKE $1 || '%'
		ORDER BY length(transfer_number) DESC, transfer_number DESC LIMIT 1`, prefix).Scan(&last)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("last transfer number: %w", err)
	}
	return last, nil
}

// Create inserta la cabecera del traslado.
func (r *TransferRepo) Create(ctx context.Context, t *entity.Transfer) error {
	query := `
		INSERT INTO transfers (id, transfer_number, source_store_id, destination_store_id, transfer_date,
		                       status, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query, t.ID, t.TransferNumber, t.SourceStoreID, t.DestinationStoreID, t.TransferDate,
		t.Status, t.Notes, t.CreatedBy, t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("traslado %s: %w", t.TransferNumber, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// AddItems inserta los ítems en un solo batch.
func (r *TransferRepo) AddItems(ctx context.Context, items []entity.TransferItem) error {
	if len(items) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, it := range items {
		b.Queue(`
			INSERT INTO transfer_items (id, transfer_id, product_id, quantity, cost, unit_id, source_lot_id, destination_lot_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			it.ID, it.TransferID, it.ProductID, it.Quantity, it.Cost, it.UnitID, it.SourceLotID, it.DestinationLotID)
	}
	br := r.q.SendBatch(ctx, b)
	defer br.Close()
	for range items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert transfer item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene el traslado con sus ítems.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.Transfer, error) {
	var t entity.Transfer
	err := r.q.QueryRow(ctx, `
		SELECT id, transfer_number, source_store_id, destination_store_id, transfer_date, status, notes, created_by, created_at
		FROM transfers WHERE id = $1`, id).Scan(
		&t.ID, &t.TransferNumber, &t.SourceStoreID, &t.DestinationStoreID, &t.TransferDate,
		&t.Status, &t.Notes, &t.CreatedBy, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT ti.id, ti.transfer_id, ti.product_id, ti.quantity, ti.cost, ti.unit_id, ti.source_lot_id, ti.destination_lot_id
		FROM transfer_items ti
		JOIN lots l ON l.id = ti.destination_lot_id
		WHERE ti.transfer_id = $1 ORDER BY l.seq`, id)
	if err != nil {
		return nil, fmt.Errorf("list transfer items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.TransferItem
		if err := rows.Scan(&it.ID, &it.TransferID, &it.ProductID, &it.Quantity, &it.Cost, &it.UnitID,
			&it.SourceLotID, &it.DestinationLotID); err != nil {
			return nil, fmt.Errorf("scan transfer item: %w", err)
		}
		t.Items = append(t.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transfer items: %w", err)
	}
	return &t, nil
}
