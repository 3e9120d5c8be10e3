package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/inventario-lotes/internal/domain/units"
	"github.com/shopspring/decimal"
)

// BaseQuantity cantidad normalizada a la unidad base.
type BaseQuantity struct {
	UnitID   string
	Quantity decimal.Decimal
	Rate     decimal.Decimal // unidades base por unidad original
}

// UnitRegistry resuelve unidades y conversiones. With ata el registro a los repos de una transacción.
type UnitRegistry struct {
	repos repository.Repositories
}

// NewUnitRegistry construye el registro sobre repos (pool o tx).
func NewUnitRegistry(repos repository.Repositories) *UnitRegistry {
	return &UnitRegistry{repos: repos}
}

// With devuelve un registro que lee con los repos indicados.
func (r *UnitRegistry) With(repos repository.Repositories) *UnitRegistry {
	return &UnitRegistry{repos: repos}
}

// Convert convierte quantity entre dos unidades que comparten base.
func (r *UnitRegistry) Convert(ctx context.Context, quantity decimal.Decimal, fromUnitID, toUnitID string) (decimal.Decimal, error) {
	from, err := r.repos.Units.GetByID(ctx, fromUnitID)
	if err != nil {
		return decimal.Zero, err
	}
	to, err := r.repos.Units.GetByID(ctx, toUnitID)
	if err != nil {
		return decimal.Zero, err
	}
	if from == nil {
		return decimal.Zero, domain.NewNotFoundError("unidad", fromUnitID)
	}
	if to == nil {
		return decimal.Zero, domain.NewNotFoundError("unidad", toUnitID)
	}
	return units.Convert(quantity, from, to)
}

// ResolveToBase devuelve unidad base, cantidad en base y tasa. Una unidad base se devuelve sin cambios, tasa 1.
func (r *UnitRegistry) ResolveToBase(ctx context.Context, quantity decimal.Decimal, unitID string) (BaseQuantity, error) {
	u, err := r.repos.Units.GetByID(ctx, unitID)
	if err != nil {
		return BaseQuantity{}, err
	}
	if u == nil {
		return BaseQuantity{}, domain.NewNotFoundError("unidad", unitID)
	}
	baseID, qty, rate := units.ToBase(quantity, u)
	return BaseQuantity{UnitID: baseID, Quantity: qty, Rate: rate}, nil
}

// ProductBase unidad base canónica del producto en la tienda, o nil si aún no tiene. Se toma de la
// configuración activa; si no hay, de la unidad por defecto del producto cuando es de la tienda; si
// tampoco, de la unidad del stock ya registrado.
func (r *UnitRegistry) ProductBase(ctx context.Context, productID, storeID string) (*entity.Unit, error) {
	base, _, err := r.productBase(ctx, productID, storeID)
	return base, err
}

func (r *UnitRegistry) productBase(ctx context.Context, productID, storeID string) (*entity.Unit, *entity.ProductUnitConfig, error) {
	cfg, err := r.repos.UnitConfigs.GetActive(ctx, productID, storeID)
	if err != nil {
		return nil, nil, err
	}
	if cfg != nil && !cfg.IsActive {
		cfg = nil
	}
	if cfg != nil {
		base, err := r.unit(ctx, cfg.BaseUnitID)
		return base, cfg, err
	}

	product, err := r.repos.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	if product == nil {
		return nil, nil, domain.NewNotFoundError("producto", productID)
	}
	if product.DefaultUnitID != "" {
		def, err := r.repos.Units.GetByID(ctx, product.DefaultUnitID)
		if err != nil {
			return nil, nil, err
		}
		if def != nil && def.StoreID == storeID {
			base, err := r.unit(ctx, def.RootID())
			return base, nil, err
		}
	}

	aggs, err := r.repos.Stock.List(ctx, productID, storeID)
	if err != nil {
		return nil, nil, err
	}
	if len(aggs) == 0 {
		return nil, nil, nil
	}
	base, err := r.unit(ctx, aggs[0].UnitID)
	return base, nil, err
}

func (r *UnitRegistry) unit(ctx context.Context, id string) (*entity.Unit, error) {
	u, err := r.repos.Units.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NewNotFoundError("unidad", id)
	}
	return u, nil
}

// ResolveProductToBase normaliza una cantidad de un producto a su unidad base canónica en la tienda.
// Si unitID está vacío se usa esa unidad base. La unidad debe ser de la tienda y pertenecer al árbol
// de la base canónica; si no, ErrIncompatibleUnits. La tasa de la configuración activa sobrescribe la
// del registro para su unidad de conversión.
func (r *UnitRegistry) ResolveProductToBase(ctx context.Context, productID, storeID string, quantity decimal.Decimal, unitID string) (BaseQuantity, error) {
	canonical, cfg, err := r.productBase(ctx, productID, storeID)
	if err != nil {
		return BaseQuantity{}, err
	}
	if unitID == "" {
		if canonical == nil {
			return BaseQuantity{}, domain.NewValidationError("unit_id", "es requerido (el producto no tiene unidad base en la tienda)")
		}
		unitID = canonical.ID
	}
	if cfg != nil && unitID == cfg.ConversionUnitID {
		return BaseQuantity{UnitID: cfg.BaseUnitID, Quantity: quantity.Mul(cfg.ConversionRate), Rate: cfg.ConversionRate}, nil
	}

	u, err := r.unit(ctx, unitID)
	if err != nil {
		return BaseQuantity{}, err
	}
	if u.StoreID != storeID {
		return BaseQuantity{}, fmt.Errorf("unidad %s es de otra tienda: %w", unitID, domain.ErrIncompatibleUnits)
	}
	if canonical != nil && u.RootID() != canonical.ID {
		return BaseQuantity{}, fmt.Errorf("unidad %s fuera de la base %s del producto %s: %w", unitID, canonical.Name, productID, domain.ErrIncompatibleUnits)
	}
	baseID, qty, rate := units.ToBase(quantity, u)
	return BaseQuantity{UnitID: baseID, Quantity: qty, Rate: rate}, nil
}

// CounterpartBase unidad base del producto en la tienda destino que equivale a la base de origen:
// la canónica del destino si existe, o la unidad base del destino con el mismo nombre. Los nombres
// deben coincidir; si no hay equivalente, ErrIncompatibleUnits.
func (r *UnitRegistry) CounterpartBase(ctx context.Context, productID, storeID string, source *entity.Unit) (*entity.Unit, error) {
	canonical, err := r.ProductBase(ctx, productID, storeID)
	if err != nil {
		return nil, err
	}
	if canonical != nil {
		if !strings.EqualFold(canonical.Name, source.Name) {
			return nil, fmt.Errorf("producto %s: base %q en destino frente a %q en origen: %w", productID, canonical.Name, source.Name, domain.ErrIncompatibleUnits)
		}
		return canonical, nil
	}
	list, err := r.repos.Units.ListByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	for _, u := range list {
		if u.IsBase() && strings.EqualFold(u.Name, source.Name) {
			return u, nil
		}
	}
	return nil, fmt.Errorf("la tienda %s no tiene unidad base %q: %w", storeID, source.Name, domain.ErrIncompatibleUnits)
}
