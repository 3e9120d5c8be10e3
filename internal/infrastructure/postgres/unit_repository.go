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

var (
	_ repository.UnitRepository              = (*UnitRepo)(nil)
	_ repository.ProductUnitConfigRepository = (*ProductUnitConfigRepo)(nil)
)

// UnitRepo implementación de UnitRepository sobre PostgreSQL (usable con pool o tx).
type UnitRepo struct {
	q Querier
}

// NewUnitRepository construye el adaptador de unidades. Pasar pool o tx (Querier).
func NewUnitRepository(q Querier) *UnitRepo {
	return &UnitRepo{q: q}
}

const unitColumns = `id, store_id, name, base_unit_id, conversion_factor, created_at`

func scanUnit(row pgx.Row) (*entity.Unit, error) {
	var u entity.Unit
	var baseUnitID *string
	if err := row.Scan(&u.ID, &u.StoreID, &u.Name, &baseUnitID, &u.ConversionFactor, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.BaseUnitID = derefString(baseUnitID)
	return &u, nil
}

// Create persiste una unidad nueva.
func (r *UnitRepo) Create(ctx context.Context, u *entity.Unit) error {
	query := `INSERT INTO units (` + unitColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, u.ID, u.StoreID, u.Name, nullIfEmpty(u.BaseUnitID), u.ConversionFactor, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("unidad %q: %w", u.Name, domain.ErrDuplicate)
		}
		if isForeignKeyViolation(err) {
			return domain.NewNotFoundError("tienda o unidad base", u.StoreID)
		}
		return fmt.Errorf("insert unit: %w", err)
	}
	return nil
}

// GetByID obtiene una unidad por ID.
func (r *UnitRepo) GetByID(ctx context.Context, id string) (*entity.Unit, error) {
	u, err := scanUnit(r.q.QueryRow(ctx, `SELECT `+unitColumns+` FROM units WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get unit: %w", err)
	}
	return u, nil
}

// ListByStore lista las unidades de una tienda.
func (r *UnitRepo) ListByStore(ctx context.Context, storeID string) ([]*entity.Unit, error) {
	rows, err := r.q.Query(ctx, `SELECT `+unitColumns+` FROM units WHERE store_id = $1 ORDER BY name`, storeID)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()
	var list []*entity.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// ProductUnitConfigRepo implementación de ProductUnitConfigRepository.
type ProductUnitConfigRepo struct {
	q Querier
}

// NewProductUnitConfigRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductUnitConfigRepository(q Querier) *ProductUnitConfigRepo {
	return &ProductUnitConfigRepo{q: q}
}

// GetActive devuelve la configuración activa del producto en la tienda, o nil.
func (r *ProductUnitConfigRepo) GetActive(ctx context.Context, productID, storeID string) (*entity.ProductUnitConfig, error) {
	query := `
		SELECT id, product_id, store_id, base_unit_id, conversion_unit_id, conversion_rate,
		       base_unit_price, conversion_unit_price, is_active, created_at, updated_at
		FROM product_unit_configs
		WHERE product_id = $1 AND store_id = $2 AND is_active`
	var c entity.ProductUnitConfig
	err := r.q.QueryRow(ctx, query, productID, storeID).Scan(
		&c.ID, &c.ProductID, &c.StoreID, &c.BaseUnitID, &c.ConversionUnitID, &c.ConversionRate,
		&c.BaseUnitPrice, &c.ConversionUnitPrice, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product unit config: %w", err)
	}
	return &c, nil
}

// Activate desactiva la configuración vigente e inserta cfg como activa.
// El índice único parcial (product_id, store_id) WHERE is_active garantiza una sola activa.
func (r *ProductUnitConfigRepo) Activate(ctx context.Context, cfg *entity.ProductUnitConfig) error {
	_, err := r.q.Exec(ctx, `
		UPDATE product_unit_configs SET is_active = false, updated_at = $3
		WHERE product_id = $1 AND store_id = $2 AND is_active`,
		cfg.ProductID, cfg.StoreID, cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("deactivate product unit config: %w", err)
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO product_unit_configs (id, product_id, store_id, base_unit_id, conversion_unit_id, conversion_rate,
		                                  base_unit_price, conversion_unit_price, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true, $9, $10)`,
		cfg.ID, cfg.ProductID, cfg.StoreID, cfg.BaseUnitID, cfg.ConversionUnitID, cfg.ConversionRate,
		cfg.BaseUnitPrice, cfg.ConversionUnitPrice, cfg.CreatedAt, cfg.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert product unit config: %w", err)
	}
	return nil
}
