package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ReversalPolicy decide cómo se restituye el inventario al cancelar un pedido.
type ReversalPolicy string

const (
	// ReversalFragments restituye exactamente los fragmentos de lote consumidos por el pedido.
	ReversalFragments ReversalPolicy = "fragments"
	// ReversalLatestLot restituye en el lote más reciente del producto/tienda (comportamiento heredado).
	ReversalLatestLot ReversalPolicy = "latest_lot"
)

// ParseReversalPolicy valida el valor de configuración.
func ParseReversalPolicy(s string) (ReversalPolicy, error) {
	switch ReversalPolicy(s) {
	case "", ReversalFragments:
		return ReversalFragments, nil
	case ReversalLatestLot:
		return ReversalLatestLot, nil
	}
	return "", fmt.Errorf("política de reverso desconocida %q", s)
}

// SaleInput líneas vendidas. OrderID es opcional; sin él no se guardan los fragmentos.
type SaleInput struct {
	TenantID string
	StoreID  string
	OrderID  string
	Items    []ItemInput
}

// CancelOrderInput cancelación de un pedido. Items solo se usa con la política latest_lot cuando el
// pedido no tiene fragmentos guardados.
type CancelOrderInput struct {
	TenantID    string
	StoreID     string
	OrderID     string
	Items       []ItemInput
	CancelledBy string
}

// RestoredEntry cantidad devuelta a un lote (existente o creado por el reverso).
type RestoredEntry struct {
	ProductID string          `json:"product_id"`
	LotID     string          `json:"lot_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	NewLot    bool            `json:"new_lot"`
}

// ReversalResult resumen de la cancelación.
type ReversalResult struct {
	OrderID  string          `json:"order_id"`
	Policy   ReversalPolicy  `json:"policy"`
	Restored []RestoredEntry `json:"restored"`
}

// SaleUseCase consumo de lotes por ventas y su reverso por cancelación.
type SaleUseCase struct {
	txRunner  TxRunner
	units     *UnitRegistry
	ledger    *Ledger
	allocator *Allocator
	policy    ReversalPolicy
	ids       IDGenerator
	now       Clock
	cache     StockCache
	metrics   Metrics
	log       zerolog.Logger
}

// NewSaleUseCase construye el caso de uso.
func NewSaleUseCase(
	txRunner TxRunner,
	unitRegistry *UnitRegistry,
	ledger *Ledger,
	allocator *Allocator,
	policy ReversalPolicy,
	ids IDGenerator,
	now Clock,
	cache StockCache,
	metrics Metrics,
	log zerolog.Logger,
) *SaleUseCase {
	if policy == "" {
		policy = ReversalFragments
	}
	if cache == nil {
		cache = NopStockCache{}
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if now == nil {
		now = time.Now
	}
	return &SaleUseCase{
		txRunner:  txRunner,
		units:     unitRegistry,
		ledger:    ledger,
		allocator: allocator,
		policy:    policy,
		ids:       ids,
		now:       now,
		cache:     cache,
		metrics:   metrics,
		log:       log,
	}
}

// Policy política de reverso configurada.
func (uc *SaleUseCase) Policy() ReversalPolicy { return uc.policy }

// AllocateSale asigna FIFO todas las líneas (todo o nada) y, con OrderID, guarda cada fragmento consumido.
func (uc *SaleUseCase) AllocateSale(ctx context.Context, in SaleInput) ([]*AllocationResult, error) {
	var results []*AllocationResult
	var lines []line
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		store, err := requireStore(ctx, repos, in.TenantID, in.StoreID)
		if err != nil {
			return err
		}
		lines, err = normalizeLines(ctx, uc.units, repos, store.TenantID, store.ID, in.Items)
		if err != nil {
			return err
		}
		if in.OrderID != "" {
			cancelled, err := repos.Cancellations.Get(ctx, store.ID, in.OrderID)
			if err != nil {
				return err
			}
			if cancelled != nil {
				return fmt.Errorf("pedido %s ya fue cancelado: %w", in.OrderID, domain.ErrConflict)
			}
			existing, err := repos.SaleAllocations.ListByOrderForUpdate(ctx, store.ID, in.OrderID)
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				return fmt.Errorf("pedido %s ya tiene asignación: %w", in.OrderID, domain.ErrDuplicate)
			}
		}
		if err := lockAndCheck(ctx, repos, store.ID, lines); err != nil {
			return err
		}

		now := uc.now()
		var allocs []*entity.SaleAllocation
		results = make([]*AllocationResult, 0, len(lines))
		for _, ln := range lines {
			res, err := uc.allocator.Allocate(ctx, repos, ln.ProductID, store.ID, ln.Quantity, AllOrNothing)
			if err != nil {
				return err
			}
			results = append(results, res)
			if in.OrderID == "" {
				continue
			}
			for _, frag := range res.Consumed {
				allocs = append(allocs, &entity.SaleAllocation{
					ID:               uc.ids.NewID(),
					StoreID:          store.ID,
					OrderID:          in.OrderID,
					ProductID:        ln.ProductID,
					LotID:            frag.LotID,
					Quantity:         frag.Amount,
					Cost:             frag.Cost,
					RestoredQuantity: decimal.Zero,
					CreatedAt:        now,
				})
			}
		}
		if len(allocs) > 0 {
			return repos.SaleAllocations.Create(ctx, allocs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	invalidate(ctx, uc.cache, uc.log, stockKeys(lines, in.StoreID))
	uc.log.Info().Str("store_id", in.StoreID).Str("order_id", in.OrderID).Int("lines", len(results)).Msg("venta asignada")
	return results, nil
}

// CancelOrder devuelve al inventario lo consumido por un pedido, una sola vez.
//
// Con la política fragments cada fragmento guardado vuelve a su lote (acotado a la cantidad original);
// lo que no cabe crea un lote de reverso al costo del fragmento. Un pedido sin fragmentos es
// NotFound. Con latest_lot la cantidad vuelve al lote más reciente del producto hasta su capacidad y
// el resto genera un lote de reverso al costo de ese lote; si el pedido no tiene fragmentos se usan
// los Items de la solicitud. En la misma transacción se guarda el registro de cancelación: una
// segunda cancelación del pedido falla con ErrConflict.
func (uc *SaleUseCase) CancelOrder(ctx context.Context, in CancelOrderInput) (*ReversalResult, error) {
	if in.OrderID == "" {
		return nil, domain.NewValidationError("order_id", "es requerido")
	}
	result := &ReversalResult{OrderID: in.OrderID, Policy: uc.policy}
	var keys []StockKey
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		result.Restored = nil
		keys = nil
		store, err := requireStore(ctx, repos, in.TenantID, in.StoreID)
		if err != nil {
			return err
		}
		cancelled, err := repos.Cancellations.Get(ctx, store.ID, in.OrderID)
		if err != nil {
			return err
		}
		if cancelled != nil {
			return fmt.Errorf("pedido %s ya fue cancelado: %w", in.OrderID, domain.ErrConflict)
		}
		allocs, err := repos.SaleAllocations.ListByOrderForUpdate(ctx, store.ID, in.OrderID)
		if err != nil {
			return err
		}

		switch {
		case len(allocs) > 0:
			keys, err = uc.restoreAllocations(ctx, repos, store.ID, allocs, result)
		case uc.policy == ReversalLatestLot:
			keys, err = uc.restoreItems(ctx, repos, store, in.Items, result)
		default:
			err = domain.NewNotFoundError("asignación del pedido", in.OrderID)
		}
		if err != nil {
			return err
		}

		err = repos.Cancellations.Create(ctx, &entity.OrderCancellation{
			ID:               uc.ids.NewID(),
			StoreID:          store.ID,
			OrderID:          in.OrderID,
			Policy:           string(result.Policy),
			RestoredQuantity: result.Total(),
			CancelledBy:      in.CancelledBy,
			CreatedAt:        uc.now(),
		})
		if errors.Is(err, domain.ErrDuplicate) {
			return fmt.Errorf("pedido %s ya fue cancelado: %w", in.OrderID, domain.ErrConflict)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	total := result.Total()
	uc.metrics.Reversal(string(result.Policy), total)
	invalidate(ctx, uc.cache, uc.log, dedupKeys(keys))
	uc.log.Info().
		Str("order_id", in.OrderID).
		Str("policy", string(result.Policy)).
		Str("quantity", total.String()).
		Msg("pedido cancelado")
	return result, nil
}

// Total cantidad restituida en unidad base.
func (r *ReversalResult) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range r.Restored {
		total = total.Add(e.Quantity)
	}
	return total
}

// restoreAllocations restituye los fragmentos pendientes según la política y los marca restituidos.
func (uc *SaleUseCase) restoreAllocations(ctx context.Context, repos repository.Repositories, storeID string, allocs []*entity.SaleAllocation, result *ReversalResult) ([]StockKey, error) {
	var keys []StockKey
	pendingByProduct := make(map[string]decimal.Decimal)
	var products []string
	for _, a := range allocs {
		pending := a.Pending()
		if !pending.IsPositive() {
			continue
		}
		if uc.policy == ReversalFragments {
			entries, err := uc.restoreFragment(ctx, repos, a)
			if err != nil {
				return nil, err
			}
			result.Restored = append(result.Restored, entries...)
		} else {
			if _, ok := pendingByProduct[a.ProductID]; !ok {
				products = append(products, a.ProductID)
			}
			pendingByProduct[a.ProductID] = pendingByProduct[a.ProductID].Add(pending)
		}
		if err := repos.SaleAllocations.AddRestored(ctx, a.ID, pending); err != nil {
			return nil, err
		}
		keys = append(keys, StockKey{ProductID: a.ProductID, StoreID: storeID})
	}
	for _, productID := range products {
		entries, err := uc.restoreLatest(ctx, repos, productID, storeID, pendingByProduct[productID], "", costOf(allocs, productID))
		if err != nil {
			return nil, err
		}
		result.Restored = append(result.Restored, entries...)
	}
	return keys, nil
}

// restoreItems reverso heredado para pedidos sin fragmentos: las líneas de la solicitud vuelven al
// lote más reciente de cada producto.
func (uc *SaleUseCase) restoreItems(ctx context.Context, repos repository.Repositories, store *entity.Store, items []ItemInput, result *ReversalResult) ([]StockKey, error) {
	lines, err := normalizeLines(ctx, uc.units, repos, store.TenantID, store.ID, items)
	if err != nil {
		return nil, err
	}
	for _, ln := range lines {
		entries, err := uc.restoreLatest(ctx, repos, ln.ProductID, store.ID, ln.Quantity, ln.UnitID, decimal.Zero)
		if err != nil {
			return nil, err
		}
		result.Restored = append(result.Restored, entries...)
	}
	return stockKeys(lines, store.ID), nil
}

// restoreFragment devuelve el pendiente de un fragmento a su lote de origen.
func (uc *SaleUseCase) restoreFragment(ctx context.Context, repos repository.Repositories, a *entity.SaleAllocation) ([]RestoredEntry, error) {
	pending := a.Pending()
	lot, err := repos.Lots.GetForUpdate(ctx, a.LotID)
	if err != nil {
		return nil, err
	}
	var entries []RestoredEntry
	unitID := ""
	if lot != nil {
		unitID = lot.UnitID
		amount := decimal.Min(pending, lot.Capacity())
		if amount.IsPositive() {
			if err := uc.ledger.Restore(ctx, repos, lot.ID, amount); err != nil {
				return nil, err
			}
			entries = append(entries, RestoredEntry{ProductID: a.ProductID, LotID: lot.ID, Quantity: amount})
			pending = pending.Sub(amount)
		}
	}
	if pending.IsPositive() {
		newLot, err := uc.ledger.CreateLot(ctx, repos, NewLot{
			ProductID: a.ProductID,
			StoreID:   a.StoreID,
			Quantity:  pending,
			Cost:      a.Cost,
			UnitID:    unitID,
		})
		if err != nil {
			return nil, err
		}
		entries = append(entries, RestoredEntry{ProductID: a.ProductID, LotID: newLot.ID, Quantity: newLot.Quantity, NewLot: true})
	}
	return entries, nil
}

// restoreLatest devuelve qty al lote más reciente hasta su capacidad; el resto crea un lote de reverso.
func (uc *SaleUseCase) restoreLatest(ctx context.Context, repos repository.Repositories, productID, storeID string, qty decimal.Decimal, unitID string, fallbackCost decimal.Decimal) ([]RestoredEntry, error) {
	latest, err := repos.Lots.LatestForUpdate(ctx, productID, storeID)
	if err != nil {
		return nil, err
	}
	var entries []RestoredEntry
	cost := fallbackCost
	if latest != nil {
		cost = latest.Cost
		unitID = latest.UnitID
		amount := decimal.Min(qty, latest.Capacity())
		if amount.IsPositive() {
			if err := uc.ledger.Restore(ctx, repos, latest.ID, amount); err != nil {
				return nil, err
			}
			entries = append(entries, RestoredEntry{ProductID: productID, LotID: latest.ID, Quantity: amount})
			qty = qty.Sub(amount)
		}
	}
	if qty.IsPositive() {
		lot, err := uc.ledger.CreateLot(ctx, repos, NewLot{
			ProductID: productID,
			StoreID:   storeID,
			Quantity:  qty,
			Cost:      cost,
			UnitID:    unitID,
		})
		if err != nil {
			return nil, err
		}
		entries = append(entries, RestoredEntry{ProductID: productID, LotID: lot.ID, Quantity: lot.Quantity, NewLot: true})
	}
	return entries, nil
}

// costOf costo del primer fragmento del producto; solo se usa si ya no hay lotes.
func costOf(allocs []*entity.SaleAllocation, productID string) decimal.Decimal {
	for _, a := range allocs {
		if a.ProductID == productID {
			return a.Cost
		}
	}
	return decimal.Zero
}

func dedupKeys(keys []StockKey) []StockKey {
	seen := make(map[StockKey]bool, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
