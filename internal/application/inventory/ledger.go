package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/inventario-lotes/internal/domain/units"
	"github.com/shopspring/decimal"
)

// Ledger es el libro de lotes: único punto que escribe lotes y el stock agregado.
// Todas sus operaciones reciben los repos de la transacción en curso.
type Ledger struct {
	units   *UnitRegistry
	ids     IDGenerator
	now     Clock
	metrics Metrics
}

// NewLedger construye el libro de lotes.
func NewLedger(unitRegistry *UnitRegistry, ids IDGenerator, now Clock, metrics Metrics) *Ledger {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if now == nil {
		now = time.Now
	}
	return &Ledger{units: unitRegistry, ids: ids, now: now, metrics: metrics}
}

// NewLot entrada para crear un lote. Quantity y Cost pueden venir en cualquier unidad del producto;
// el libro los normaliza a la unidad base antes de escribir.
type NewLot struct {
	ProductID       string
	StoreID         string
	Quantity        decimal.Decimal
	Cost            decimal.Decimal // costo por unidad de UnitID
	UnitID          string
	ImportDate      time.Time
	PurchaseOrderID string
	TransferID      string
}

// CreateLot normaliza a unidad base, inserta el lote y suma +cantidad al agregado.
func (l *Ledger) CreateLot(ctx context.Context, repos repository.Repositories, in NewLot) (*entity.Lot, error) {
	if in.ProductID == "" || in.StoreID == "" {
		return nil, domain.NewValidationError("product_id/store_id", "son requeridos")
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	if in.Cost.IsNegative() {
		return nil, domain.NewValidationError("cost", "no puede ser negativo")
	}
	if in.PurchaseOrderID != "" && in.TransferID != "" {
		return nil, domain.NewValidationError("source", "orden de compra y traslado son excluyentes")
	}

	base, err := l.units.With(repos).ResolveProductToBase(ctx, in.ProductID, in.StoreID, in.Quantity, in.UnitID)
	if err != nil {
		return nil, err
	}
	qty := units.LotQuantity(base.Quantity)
	if !qty.IsPositive() {
		return nil, domain.NewValidationError("quantity", "es cero en la unidad base")
	}

	now := l.now()
	importDate := in.ImportDate
	if importDate.IsZero() {
		importDate = now
	}
	lot := &entity.Lot{
		ID:                l.ids.NewID(),
		ProductID:         in.ProductID,
		StoreID:           in.StoreID,
		ImportDate:        importDate,
		Quantity:          qty,
		RemainingQuantity: qty,
		Cost:              units.LotCost(units.CostToBase(in.Cost, base.Rate)),
		UnitID:            base.UnitID,
		PurchaseOrderID:   in.PurchaseOrderID,
		TransferID:        in.TransferID,
		CreatedAt:         now,
	}
	if err := repos.Lots.Create(ctx, lot); err != nil {
		return nil, err
	}
	if err := repos.Stock.Add(ctx, lot.ProductID, lot.StoreID, lot.UnitID, lot.Quantity); err != nil {
		return nil, err
	}
	l.metrics.LotCreated(lot.Source(), lot.Quantity)
	return lot, nil
}

// Deduct descuenta amount del lote y del agregado.
func (l *Ledger) Deduct(ctx context.Context, repos repository.Repositories, lotID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.NewValidationError("amount", "debe ser mayor que cero")
	}
	lot, err := repos.Lots.GetForUpdate(ctx, lotID)
	if err != nil {
		return err
	}
	if lot == nil {
		return domain.NewNotFoundError("lote", lotID)
	}
	if amount.GreaterThan(lot.RemainingQuantity) {
		return fmt.Errorf("lote %s (restante %s, solicitado %s): %w", lotID, lot.RemainingQuantity, amount, domain.ErrInsufficientLotQuantity)
	}
	if err := repos.Lots.Deduct(ctx, lotID, amount); err != nil {
		return err
	}
	return repos.Stock.Add(ctx, lot.ProductID, lot.StoreID, lot.UnitID, amount.Neg())
}

// Restore devuelve amount al lote sin superar su cantidad original.
func (l *Ledger) Restore(ctx context.Context, repos repository.Repositories, lotID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.NewValidationError("amount", "debe ser mayor que cero")
	}
	lot, err := repos.Lots.GetForUpdate(ctx, lotID)
	if err != nil {
		return err
	}
	if lot == nil {
		return domain.NewNotFoundError("lote", lotID)
	}
	if amount.GreaterThan(lot.Capacity()) {
		return fmt.Errorf("lote %s (capacidad %s, solicitado %s): %w", lotID, lot.Capacity(), amount, domain.ErrExceedsOriginalQuantity)
	}
	if err := repos.Lots.Restore(ctx, lotID, amount); err != nil {
		return err
	}
	return repos.Stock.Add(ctx, lot.ProductID, lot.StoreID, lot.UnitID, amount)
}

// AvailableQuantity suma el restante de todos los lotes del producto en la tienda (unidad base).
func (l *Ledger) AvailableQuantity(ctx context.Context, repos repository.Repositories, productID, storeID string) (decimal.Decimal, error) {
	return repos.Lots.SumRemaining(ctx, productID, storeID)
}

// RemovePurchaseLots elimina los lotes de una orden de compra si ninguno fue tocado,
// revirtiendo su aporte al agregado.
func (l *Ledger) RemovePurchaseLots(ctx context.Context, repos repository.Repositories, purchaseOrderID string) ([]*entity.Lot, error) {
	lots, err := repos.Lots.ListByPurchaseOrderForUpdate(ctx, purchaseOrderID)
	if err != nil {
		return nil, err
	}
	for _, lot := range lots {
		if !lot.Untouched() {
			return nil, fmt.Errorf("lote %s (restante %s de %s): %w", lot.ID, lot.RemainingQuantity, lot.Quantity, domain.ErrCannotDeleteUsedInventory)
		}
	}
	for _, lot := range lots {
		if err := repos.Stock.Add(ctx, lot.ProductID, lot.StoreID, lot.UnitID, lot.Quantity.Neg()); err != nil {
			return nil, err
		}
	}
	if err := repos.Lots.DeleteByPurchaseOrder(ctx, purchaseOrderID); err != nil {
		return nil, err
	}
	return lots, nil
}
