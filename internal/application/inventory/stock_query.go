package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/inventario-lotes/internal/domain/units"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// UnitQuantity cantidad en una unidad base.
type UnitQuantity struct {
	UnitID   string          `json:"unit_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// StockLevel stock agregado de un producto en una tienda, por unidad.
type StockLevel struct {
	ProductID      string         `json:"product_id"`
	StoreID        string         `json:"store_id"`
	QuantityByUnit []UnitQuantity `json:"quantity_by_unit"`
}

// UnitDrift diferencia entre el libro de lotes y el agregado para una unidad.
type UnitDrift struct {
	UnitID     string          `json:"unit_id"`
	Ledger     decimal.Decimal `json:"ledger"`
	Aggregate  decimal.Decimal `json:"aggregate"`
	Difference decimal.Decimal `json:"difference"`
}

// ReconcileReport resultado de una conciliación.
type ReconcileReport struct {
	ProductID  string      `json:"product_id"`
	StoreID    string      `json:"store_id"`
	Consistent bool        `json:"consistent"`
	Drifts     []UnitDrift `json:"drifts"`
	Repaired   bool        `json:"repaired"`
}

// StockQueryUseCase lecturas de stock y conciliación del agregado.
type StockQueryUseCase struct {
	txRunner  TxRunner
	reader    repository.Repositories
	units     *UnitRegistry
	allocator *Allocator
	cache     StockCache
	now       Clock
	log       zerolog.Logger
}

// NewStockQueryUseCase construye el caso de uso.
func NewStockQueryUseCase(txRunner TxRunner, reader repository.Repositories, unitRegistry *UnitRegistry, allocator *Allocator, cache StockCache, now Clock, log zerolog.Logger) *StockQueryUseCase {
	if cache == nil {
		cache = NopStockCache{}
	}
	if now == nil {
		now = time.Now
	}
	return &StockQueryUseCase{txRunner: txRunner, reader: reader, units: unitRegistry, allocator: allocator, cache: cache, now: now, log: log}
}

// GetStock devuelve el agregado por unidad, leyendo primero de la caché.
func (uc *StockQueryUseCase) GetStock(ctx context.Context, tenantID, productID, storeID string) (*StockLevel, error) {
	if productID == "" {
		return nil, domain.NewValidationError("product_id", "es requerido")
	}
	if _, err := requireStore(ctx, uc.reader, tenantID, storeID); err != nil {
		return nil, err
	}
	key := StockKey{ProductID: productID, StoreID: storeID}
	if level, ok, err := uc.cache.Get(ctx, key); err != nil {
		uc.log.Warn().Err(err).Str("product_id", productID).Str("store_id", storeID).Msg("leer caché de stock")
	} else if ok {
		return level, nil
	}

	rows, err := uc.reader.Stock.List(ctx, productID, storeID)
	if err != nil {
		return nil, err
	}
	level := &StockLevel{ProductID: productID, StoreID: storeID, QuantityByUnit: make([]UnitQuantity, 0, len(rows))}
	for _, r := range rows {
		level.QuantityByUnit = append(level.QuantityByUnit, UnitQuantity{UnitID: r.UnitID, Quantity: r.Quantity})
	}
	sort.Slice(level.QuantityByUnit, func(i, j int) bool {
		return level.QuantityByUnit[i].UnitID < level.QuantityByUnit[j].UnitID
	})
	if err := uc.cache.Set(ctx, key, level); err != nil {
		uc.log.Warn().Err(err).Str("product_id", productID).Str("store_id", storeID).Msg("guardar caché de stock")
	}
	return level, nil
}

// CheckAvailability indica si hay stock suficiente sin modificar nada. Si unitID viene, quantity se
// normaliza a la unidad base del producto antes de comparar.
func (uc *StockQueryUseCase) CheckAvailability(ctx context.Context, tenantID, productID, storeID string, quantity decimal.Decimal, unitID string) (Availability, error) {
	if productID == "" {
		return Availability{}, domain.NewValidationError("product_id", "es requerido")
	}
	if !quantity.IsPositive() {
		return Availability{}, domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	if _, err := requireStore(ctx, uc.reader, tenantID, storeID); err != nil {
		return Availability{}, err
	}
	requested := quantity
	if unitID != "" {
		base, err := uc.units.ResolveProductToBase(ctx, productID, storeID, quantity, unitID)
		if err != nil {
			return Availability{}, err
		}
		requested = units.LotQuantity(base.Quantity)
	}
	return uc.allocator.CheckAvailability(ctx, uc.reader, productID, storeID, requested)
}

// ListLots lista los lotes de un producto en una tienda en orden FIFO, paginado.
func (uc *StockQueryUseCase) ListLots(ctx context.Context, tenantID, productID, storeID string, limit, offset int) ([]*entity.Lot, error) {
	if productID == "" {
		return nil, domain.NewValidationError("product_id", "es requerido")
	}
	if _, err := requireStore(ctx, uc.reader, tenantID, storeID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return uc.reader.Lots.ListByProduct(ctx, productID, storeID, limit, offset)
}

// Reconcile re-suma el restante de los lotes por unidad y lo compara con el agregado.
// Con repair, reescribe el agregado en la misma transacción.
func (uc *StockQueryUseCase) Reconcile(ctx context.Context, tenantID, productID, storeID string, repair bool) (*ReconcileReport, error) {
	if productID == "" {
		return nil, domain.NewValidationError("product_id", "es requerido")
	}
	var report *ReconcileReport
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		if _, err := requireStore(ctx, repos, tenantID, storeID); err != nil {
			return err
		}
		// bloquea los lotes para que nadie cambie el libro mientras se compara
		if _, err := repos.Lots.ListAvailableForUpdate(ctx, productID, storeID); err != nil {
			return err
		}
		ledger, err := repos.Lots.SumRemainingByUnit(ctx, productID, storeID)
		if err != nil {
			return err
		}
		rows, err := repos.Stock.List(ctx, productID, storeID)
		if err != nil {
			return err
		}
		aggregate := make(map[string]decimal.Decimal, len(rows))
		for _, r := range rows {
			aggregate[r.UnitID] = r.Quantity
		}
		unitIDs := make([]string, 0, len(ledger)+len(aggregate))
		for id := range ledger {
			unitIDs = append(unitIDs, id)
		}
		for id := range aggregate {
			if _, ok := ledger[id]; !ok {
				unitIDs = append(unitIDs, id)
			}
		}
		sort.Strings(unitIDs)

		r := &ReconcileReport{ProductID: productID, StoreID: storeID, Consistent: true}
		for _, id := range unitIDs {
			l, a := ledger[id], aggregate[id]
			if l.Equal(a) {
				continue
			}
			r.Consistent = false
			r.Drifts = append(r.Drifts, UnitDrift{UnitID: id, Ledger: l, Aggregate: a, Difference: a.Sub(l)})
			if repair {
				if err := repos.Stock.Set(ctx, &entity.StockAggregate{
					ProductID: productID,
					StoreID:   storeID,
					UnitID:    id,
					Quantity:  l,
					UpdatedAt: uc.now(),
				}); err != nil {
					return err
				}
			}
		}
		r.Repaired = repair && !r.Consistent
		report = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !report.Consistent {
		uc.log.Warn().
			Str("product_id", productID).
			Str("store_id", storeID).
			Int("drifts", len(report.Drifts)).
			Bool("repaired", report.Repaired).
			Msg("agregado de stock desalineado con el libro de lotes")
		if report.Repaired {
			invalidate(ctx, uc.cache, uc.log, []StockKey{{ProductID: productID, StoreID: storeID}})
		}
	}
	return report, nil
}
