package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PurchaseItemInput línea recibida del proveedor; Cost es por unidad de UnitID.
type PurchaseItemInput struct {
	ProductID string
	Quantity  decimal.Decimal
	Cost      decimal.Decimal
	UnitID    string
}

// PurchaseOrderInput recepción de una orden de compra.
type PurchaseOrderInput struct {
	TenantID    string
	StoreID     string
	SupplierID  string
	ImportDate  time.Time
	TotalAmount decimal.Decimal
	Notes       string
	CreatedBy   string
	Items       []PurchaseItemInput
}

// PurchaseUseCase ingreso de inventario por órdenes de compra.
type PurchaseUseCase struct {
	txRunner TxRunner
	reader   repository.Repositories
	ledger   *Ledger
	ids      IDGenerator
	now      Clock
	cache    StockCache
	log      zerolog.Logger
}

// NewPurchaseUseCase construye el caso de uso.
func NewPurchaseUseCase(txRunner TxRunner, reader repository.Repositories, ledger *Ledger, ids IDGenerator, now Clock, cache StockCache, log zerolog.Logger) *PurchaseUseCase {
	if cache == nil {
		cache = NopStockCache{}
	}
	if now == nil {
		now = time.Now
	}
	return &PurchaseUseCase{txRunner: txRunner, reader: reader, ledger: ledger, ids: ids, now: now, cache: cache, log: log}
}

// Receive crea la orden y exactamente un lote por ítem, normalizado a unidad base.
func (uc *PurchaseUseCase) Receive(ctx context.Context, in PurchaseOrderInput) (*entity.PurchaseOrder, error) {
	if len(in.Items) == 0 {
		return nil, domain.NewValidationError("items", "debe tener al menos un ítem")
	}
	if in.TotalAmount.IsNegative() {
		return nil, domain.NewValidationError("total_amount", "no puede ser negativo")
	}

	var order *entity.PurchaseOrder
	var keys []StockKey
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		keys = nil
		store, err := requireStore(ctx, repos, in.TenantID, in.StoreID)
		if err != nil {
			return err
		}
		for _, it := range in.Items {
			if it.ProductID == "" {
				return domain.NewValidationError("product_id", "es requerido")
			}
			product, err := repos.Products.GetByID(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return domain.NewNotFoundError("producto", it.ProductID)
			}
			if product.TenantID != store.TenantID {
				return domain.ErrForbidden
			}
		}

		now := uc.now()
		importDate := in.ImportDate
		if importDate.IsZero() {
			importDate = now
		}
		po := &entity.PurchaseOrder{
			ID:          uc.ids.NewID(),
			StoreID:     store.ID,
			SupplierID:  in.SupplierID,
			ImportDate:  importDate,
			TotalAmount: in.TotalAmount,
			Status:      entity.PurchaseOrderStatusReceived,
			Notes:       in.Notes,
			CreatedBy:   in.CreatedBy,
			CreatedAt:   now,
		}
		if err := repos.PurchaseOrders.Create(ctx, po); err != nil {
			return err
		}

		items := make([]entity.PurchaseOrderItem, 0, len(in.Items))
		for _, it := range in.Items {
			lot, err := uc.ledger.CreateLot(ctx, repos, NewLot{
				ProductID:       it.ProductID,
				StoreID:         store.ID,
				Quantity:        it.Quantity,
				Cost:            it.Cost,
				UnitID:          it.UnitID,
				ImportDate:      importDate,
				PurchaseOrderID: po.ID,
			})
			if err != nil {
				return err
			}
			unitID := it.UnitID
			if unitID == "" {
				unitID = lot.UnitID
			}
			items = append(items, entity.PurchaseOrderItem{
				ID:              uc.ids.NewID(),
				PurchaseOrderID: po.ID,
				ProductID:       it.ProductID,
				Quantity:        it.Quantity,
				Cost:            it.Cost,
				UnitID:          unitID,
				BaseQuantity:    lot.Quantity,
				BaseCost:        lot.Cost,
				BaseUnitID:      lot.UnitID,
				LotID:           lot.ID,
			})
			keys = append(keys, StockKey{ProductID: it.ProductID, StoreID: store.ID})
		}
		if err := repos.PurchaseOrders.AddItems(ctx, items); err != nil {
			return err
		}
		po.Items = items
		order = po
		return nil
	})
	if err != nil {
		return nil, err
	}
	invalidate(ctx, uc.cache, uc.log, keys)
	uc.log.Info().
		Str("purchase_order_id", order.ID).
		Str("store_id", order.StoreID).
		Int("items", len(order.Items)).
		Msg("orden de compra recibida")
	return order, nil
}

// Get obtiene la orden con sus ítems.
func (uc *PurchaseUseCase) Get(ctx context.Context, tenantID, id string) (*entity.PurchaseOrder, error) {
	po, err := uc.reader.PurchaseOrders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, domain.NewNotFoundError("orden de compra", id)
	}
	if _, err := requireStore(ctx, uc.reader, tenantID, po.StoreID); err != nil {
		return nil, err
	}
	return po, nil
}

// Delete elimina la orden solo si ninguno de sus lotes fue tocado; revierte el agregado y borra los lotes.
func (uc *PurchaseUseCase) Delete(ctx context.Context, tenantID, id string) error {
	var keys []StockKey
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		keys = nil
		po, err := repos.PurchaseOrders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.NewNotFoundError("orden de compra", id)
		}
		if _, err := requireStore(ctx, repos, tenantID, po.StoreID); err != nil {
			return err
		}
		lots, err := uc.ledger.RemovePurchaseLots(ctx, repos, po.ID)
		if err != nil {
			return err
		}
		for _, lot := range lots {
			keys = append(keys, StockKey{ProductID: lot.ProductID, StoreID: lot.StoreID})
		}
		return repos.PurchaseOrders.Delete(ctx, po.ID)
	})
	if err != nil {
		return err
	}
	invalidate(ctx, uc.cache, uc.log, keys)
	uc.log.Info().Str("purchase_order_id", id).Int("lots", len(keys)).Msg("orden de compra eliminada")
	return nil
}
