package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/inventario-lotes/internal/domain/units"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CreateUnitInput alta de una unidad. Sin BaseUnitID la unidad es base.
type CreateUnitInput struct {
	StoreID          string
	Name             string
	BaseUnitID       string
	ConversionFactor decimal.Decimal
}

// ProductConfigInput par de unidades vendibles de un producto en una tienda.
// ConversionRate cero toma el factor registrado de la unidad de conversión.
type ProductConfigInput struct {
	ProductID           string
	StoreID             string
	BaseUnitID          string
	ConversionUnitID    string
	ConversionRate      decimal.Decimal
	BaseUnitPrice       decimal.Decimal
	ConversionUnitPrice decimal.Decimal
}

// UnitsUseCase gestión del registro de unidades.
type UnitsUseCase struct {
	txRunner TxRunner
	reader   repository.Repositories
	registry *UnitRegistry
	ids      IDGenerator
	now      Clock
	log      zerolog.Logger
}

// NewUnitsUseCase construye el caso de uso.
func NewUnitsUseCase(txRunner TxRunner, reader repository.Repositories, registry *UnitRegistry, ids IDGenerator, now Clock, log zerolog.Logger) *UnitsUseCase {
	if now == nil {
		now = time.Now
	}
	return &UnitsUseCase{txRunner: txRunner, reader: reader, registry: registry, ids: ids, now: now, log: log}
}

// CreateUnit registra una unidad respetando cadenas de un solo nivel.
func (uc *UnitsUseCase) CreateUnit(ctx context.Context, tenantID string, in CreateUnitInput) (*entity.Unit, error) {
	if _, err := requireStore(ctx, uc.reader, tenantID, in.StoreID); err != nil {
		return nil, err
	}
	u := &entity.Unit{
		ID:         uc.ids.NewID(),
		StoreID:    in.StoreID,
		Name:       in.Name,
		BaseUnitID: in.BaseUnitID,
		CreatedAt:  uc.now(),
	}
	var base *entity.Unit
	if u.IsBase() {
		u.ConversionFactor = decimal.NewFromInt(1)
	} else {
		u.ConversionFactor = in.ConversionFactor
		var err error
		base, err = uc.reader.Units.GetByID(ctx, in.BaseUnitID)
		if err != nil {
			return nil, err
		}
	}
	if err := units.ValidateNewUnit(u, base); err != nil {
		return nil, err
	}
	if err := uc.reader.Units.Create(ctx, u); err != nil {
		return nil, err
	}
	uc.log.Info().Str("unit_id", u.ID).Str("store_id", u.StoreID).Str("name", u.Name).Msg("unidad creada")
	return u, nil
}

// ListUnits unidades de una tienda.
func (uc *UnitsUseCase) ListUnits(ctx context.Context, tenantID, storeID string) ([]*entity.Unit, error) {
	if _, err := requireStore(ctx, uc.reader, tenantID, storeID); err != nil {
		return nil, err
	}
	return uc.reader.Units.ListByStore(ctx, storeID)
}

// SetProductConfig activa una configuración de unidades para el producto, desactivando la anterior.
func (uc *UnitsUseCase) SetProductConfig(ctx context.Context, tenantID string, in ProductConfigInput) (*entity.ProductUnitConfig, error) {
	if in.ProductID == "" {
		return nil, domain.NewValidationError("product_id", "es requerido")
	}
	if in.BaseUnitID == "" || in.ConversionUnitID == "" {
		return nil, domain.NewValidationError("base_unit_id/conversion_unit_id", "son requeridos")
	}
	if in.ConversionRate.IsNegative() || in.BaseUnitPrice.IsNegative() || in.ConversionUnitPrice.IsNegative() {
		return nil, domain.NewValidationError("conversion_rate/prices", "no pueden ser negativos")
	}
	var cfg *entity.ProductUnitConfig
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		store, err := requireStore(ctx, repos, tenantID, in.StoreID)
		if err != nil {
			return err
		}
		product, err := repos.Products.GetByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.NewNotFoundError("producto", in.ProductID)
		}
		if product.TenantID != store.TenantID {
			return domain.ErrForbidden
		}
		base, err := repos.Units.GetByID(ctx, in.BaseUnitID)
		if err != nil {
			return err
		}
		if base == nil {
			return domain.NewNotFoundError("unidad", in.BaseUnitID)
		}
		conv, err := repos.Units.GetByID(ctx, in.ConversionUnitID)
		if err != nil {
			return err
		}
		if conv == nil {
			return domain.NewNotFoundError("unidad", in.ConversionUnitID)
		}
		if !base.IsBase() {
			return domain.NewValidationError("base_unit_id", "debe ser una unidad base")
		}
		if base.StoreID != store.ID || conv.StoreID != store.ID {
			return domain.NewValidationError("unit_id", "las unidades deben pertenecer a la tienda")
		}
		if conv.RootID() != base.ID {
			return domain.ErrIncompatibleUnits
		}
		// el stock ya registrado fija la base del producto en la tienda
		aggs, err := repos.Stock.List(ctx, product.ID, store.ID)
		if err != nil {
			return err
		}
		for _, a := range aggs {
			if a.UnitID != base.ID {
				return fmt.Errorf("el producto ya tiene stock en la unidad %s: %w", a.UnitID, domain.ErrIncompatibleUnits)
			}
		}
		rate := in.ConversionRate
		if rate.IsZero() {
			rate = conv.Factor()
		}
		now := uc.now()
		c := &entity.ProductUnitConfig{
			ID:                  uc.ids.NewID(),
			ProductID:           product.ID,
			StoreID:             store.ID,
			BaseUnitID:          base.ID,
			ConversionUnitID:    conv.ID,
			ConversionRate:      rate.Round(units.QuantityScale),
			BaseUnitPrice:       in.BaseUnitPrice.Round(units.CostScale),
			ConversionUnitPrice: in.ConversionUnitPrice.Round(units.CostScale),
			IsActive:            true,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := repos.UnitConfigs.Activate(ctx, c); err != nil {
			return err
		}
		cfg = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("product_id", cfg.ProductID).Str("store_id", cfg.StoreID).Str("rate", cfg.ConversionRate.String()).Msg("configuración de unidades activada")
	return cfg, nil
}

// Convert convierte entre dos unidades de la misma tienda del inquilino.
func (uc *UnitsUseCase) Convert(ctx context.Context, tenantID string, quantity decimal.Decimal, fromUnitID, toUnitID string) (decimal.Decimal, error) {
	from, err := uc.reader.Units.GetByID(ctx, fromUnitID)
	if err != nil {
		return decimal.Zero, err
	}
	if from == nil {
		return decimal.Zero, domain.NewNotFoundError("unidad", fromUnitID)
	}
	if _, err := requireStore(ctx, uc.reader, tenantID, from.StoreID); err != nil {
		return decimal.Zero, err
	}
	return uc.registry.Convert(ctx, quantity, fromUnitID, toUnitID)
}
