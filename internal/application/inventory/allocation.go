package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/inventario-lotes/internal/domain/units"
	"github.com/shopspring/decimal"
)

// AllocationPolicy decide qué hacer con un faltante.
type AllocationPolicy int

const (
	// AllOrNothing no descuenta nada si hay faltante y devuelve InsufficientStockError.
	AllOrNothing AllocationPolicy = iota
	// Partial descuenta lo disponible y reporta el faltante sin error.
	Partial
)

// AllocationResult resultado de una asignación FIFO (cantidades y costos en unidad base).
type AllocationResult struct {
	ProductID           string               `json:"product_id"`
	StoreID             string               `json:"store_id"`
	Requested           decimal.Decimal      `json:"requested"`
	Consumed            []inventory.Fragment `json:"consumed"`
	TotalCost           decimal.Decimal      `json:"total_cost"`
	Shortfall           decimal.Decimal      `json:"shortfall"`
	WeightedAverageCost decimal.Decimal      `json:"weighted_average_cost"`
}

// Availability resultado de una verificación de stock sin efectos.
type Availability struct {
	Sufficient bool            `json:"sufficient"`
	Available  decimal.Decimal `json:"available"`
}

// Allocator motor de asignación FIFO sobre el libro de lotes.
type Allocator struct {
	ledger  *Ledger
	metrics Metrics
}

// NewAllocator construye el motor de asignación.
func NewAllocator(ledger *Ledger, metrics Metrics) *Allocator {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Allocator{ledger: ledger, metrics: metrics}
}

// Allocate bloquea los lotes con restante del producto en la tienda (FOR UPDATE, orden FIFO),
// consume del más antiguo al más nuevo y descuenta cada fragmento en el libro.
func (a *Allocator) Allocate(ctx context.Context, repos repository.Repositories, productID, storeID string, requested decimal.Decimal, policy AllocationPolicy) (*AllocationResult, error) {
	if !requested.IsPositive() {
		return nil, domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	lots, err := repos.Lots.ListAvailableForUpdate(ctx, productID, storeID)
	if err != nil {
		return nil, err
	}
	plan := inventory.PlanFIFO(lots, requested)
	result := &AllocationResult{
		ProductID:           productID,
		StoreID:             storeID,
		Requested:           requested,
		Consumed:            plan.Consumed,
		TotalCost:           plan.TotalCost,
		Shortfall:           plan.Shortfall,
		WeightedAverageCost: plan.WeightedAverageCost(),
	}
	if plan.Shortfall.IsPositive() && policy == AllOrNothing {
		a.metrics.Allocation(OutcomeRejected, requested)
		result.Consumed = nil
		result.TotalCost = decimal.Zero
		result.WeightedAverageCost = decimal.Zero
		return result, &domain.InsufficientStockError{Shortfalls: []domain.Shortfall{{
			ProductID: productID,
			Requested: requested,
			Available: plan.Allocated,
		}}}
	}
	for _, frag := range plan.Consumed {
		if err := a.ledger.Deduct(ctx, repos, frag.LotID, frag.Amount); err != nil {
			a.metrics.Allocation(OutcomeFailed, requested)
			return nil, err
		}
	}
	a.metrics.Allocation(OutcomeCompleted, plan.Allocated)
	return result, nil
}

// CheckAvailability suma el restante sin modificar nada.
func (a *Allocator) CheckAvailability(ctx context.Context, repos repository.Repositories, productID, storeID string, requested decimal.Decimal) (Availability, error) {
	available, err := a.ledger.AvailableQuantity(ctx, repos, productID, storeID)
	if err != nil {
		return Availability{}, err
	}
	return Availability{Sufficient: available.GreaterThanOrEqual(requested), Available: available}, nil
}

// ItemInput línea solicitada en la unidad que indique el llamador.
type ItemInput struct {
	ProductID string
	Quantity  decimal.Decimal
	UnitID    string
}

// line línea normalizada a unidad base.
type line struct {
	ProductID string
	Quantity  decimal.Decimal
	UnitID    string
}

// normalizeLines valida productos (existencia e inquilino) y lleva cada línea a unidad base.
func normalizeLines(ctx context.Context, reg *UnitRegistry, repos repository.Repositories, tenantID, storeID string, items []ItemInput) ([]line, error) {
	if len(items) == 0 {
		return nil, domain.NewValidationError("items", "debe tener al menos un ítem")
	}
	seen := make(map[string]bool, len(items))
	lines := make([]line, 0, len(items))
	for _, it := range items {
		if it.ProductID == "" {
			return nil, domain.NewValidationError("product_id", "es requerido")
		}
		if !it.Quantity.IsPositive() {
			return nil, domain.NewValidationError("quantity", "debe ser mayor que cero")
		}
		if !seen[it.ProductID] {
			product, err := repos.Products.GetByID(ctx, it.ProductID)
			if err != nil {
				return nil, err
			}
			if product == nil {
				return nil, domain.NewNotFoundError("producto", it.ProductID)
			}
			if tenantID != "" && product.TenantID != tenantID {
				return nil, domain.ErrForbidden
			}
			seen[it.ProductID] = true
		}
		base, err := reg.With(repos).ResolveProductToBase(ctx, it.ProductID, storeID, it.Quantity, it.UnitID)
		if err != nil {
			return nil, err
		}
		qty := units.LotQuantity(base.Quantity)
		if !qty.IsPositive() {
			return nil, domain.NewValidationError("quantity", "es cero en la unidad base")
		}
		lines = append(lines, line{ProductID: it.ProductID, Quantity: qty, UnitID: base.UnitID})
	}
	return lines, nil
}

// lockAndCheck bloquea los lotes de cada producto (en orden de ID para evitar interbloqueos),
// suma lo pedido por producto y devuelve un InsufficientStockError con todos los faltantes.
func lockAndCheck(ctx context.Context, repos repository.Repositories, storeID string, lines []line) error {
	requested := make(map[string]decimal.Decimal)
	for _, ln := range lines {
		requested[ln.ProductID] = requested[ln.ProductID].Add(ln.Quantity)
	}
	productIDs := make([]string, 0, len(requested))
	for id := range requested {
		productIDs = append(productIDs, id)
	}
	sort.Strings(productIDs)

	var shortfalls []domain.Shortfall
	for _, id := range productIDs {
		lots, err := repos.Lots.ListAvailableForUpdate(ctx, id, storeID)
		if err != nil {
			return err
		}
		available := inventory.SumRemaining(lots)
		if available.LessThan(requested[id]) {
			shortfalls = append(shortfalls, domain.Shortfall{ProductID: id, Requested: requested[id], Available: available})
		}
	}
	if len(shortfalls) > 0 {
		return &domain.InsufficientStockError{Shortfalls: shortfalls}
	}
	return nil
}

// stockKeys claves de caché afectadas por las líneas en las tiendas dadas.
func stockKeys(lines []line, storeIDs ...string) []StockKey {
	keys := make([]StockKey, 0, len(lines)*len(storeIDs))
	seen := make(map[StockKey]bool)
	for _, ln := range lines {
		for _, s := range storeIDs {
			k := StockKey{ProductID: ln.ProductID, StoreID: s}
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}
