package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/shopspring/decimal"
)

func newRepositories(b *binding) repository.Repositories {
	return repository.Repositories{
		Units:           &unitRepo{b: b},
		UnitConfigs:     &unitConfigRepo{b: b},
		Lots:            &lotRepo{b: b},
		Stock:           &stockRepo{b: b},
		Transfers:       &transferRepo{b: b},
		PurchaseOrders:  &purchaseOrderRepo{b: b},
		SaleAllocations: &saleAllocationRepo{b: b},
		Cancellations:   &cancellationRepo{b: b},
		Stores:          &storeRepo{b: b},
		Products:        &productRepo{b: b},
	}
}

// --- unidades ---

type unitRepo struct{ b *binding }

func (r *unitRepo) Create(ctx context.Context, u *entity.Unit) error {
	return r.b.write(ctx, func(s *state) error {
		if _, ok := s.units[u.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, other := range s.units {
			if other.StoreID == u.StoreID && strings.EqualFold(other.Name, u.Name) {
				return fmt.Errorf("unidad %q: %w", u.Name, domain.ErrDuplicate)
			}
		}
		c := *u
		s.units[c.ID] = &c
		return nil
	})
}

func (r *unitRepo) GetByID(_ context.Context, id string) (*entity.Unit, error) {
	var out *entity.Unit
	r.b.read(func(s *state) {
		if u, ok := s.units[id]; ok {
			c := *u
			out = &c
		}
	})
	return out, nil
}

func (r *unitRepo) ListByStore(_ context.Context, storeID string) ([]*entity.Unit, error) {
	var out []*entity.Unit
	r.b.read(func(s *state) {
		for _, u := range s.units {
			if u.StoreID == storeID {
				c := *u
				out = append(out, &c)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type unitConfigRepo struct{ b *binding }

func (r *unitConfigRepo) GetActive(_ context.Context, productID, storeID string) (*entity.ProductUnitConfig, error) {
	var out *entity.ProductUnitConfig
	r.b.read(func(s *state) {
		for _, cfg := range s.configs {
			if cfg.ProductID == productID && cfg.StoreID == storeID && cfg.IsActive {
				c := *cfg
				out = &c
				return
			}
		}
	})
	return out, nil
}

func (r *unitConfigRepo) Activate(ctx context.Context, cfg *entity.ProductUnitConfig) error {
	return r.b.write(ctx, func(s *state) error {
		for _, other := range s.configs {
			if other.ProductID == cfg.ProductID && other.StoreID == cfg.StoreID && other.IsActive {
				other.IsActive = false
				other.UpdatedAt = cfg.UpdatedAt
			}
		}
		c := *cfg
		c.IsActive = true
		s.configs[c.ID] = &c
		return nil
	})
}

// --- lotes ---

type lotRepo struct{ b *binding }

func (r *lotRepo) Create(ctx context.Context, lot *entity.Lot) error {
	return r.b.write(ctx, func(s *state) error {
		if _, ok := s.lots[lot.ID]; ok {
			return domain.ErrDuplicate
		}
		s.seq++
		lot.Seq = s.seq
		c := *lot
		s.lots[c.ID] = &c
		return nil
	})
}

func (r *lotRepo) GetByID(_ context.Context, id string) (*entity.Lot, error) {
	var out *entity.Lot
	r.b.read(func(s *state) {
		if l, ok := s.lots[id]; ok {
			c := *l
			out = &c
		}
	})
	return out, nil
}

func (r *lotRepo) GetForUpdate(ctx context.Context, id string) (*entity.Lot, error) {
	return r.GetByID(ctx, id)
}

func (r *lotRepo) filter(match func(*entity.Lot) bool) []*entity.Lot {
	var out []*entity.Lot
	r.b.read(func(s *state) {
		for _, l := range s.lots {
			if match(l) {
				c := *l
				out = append(out, &c)
			}
		}
	})
	inventory.SortFIFO(out)
	return out
}

func (r *lotRepo) ListAvailableForUpdate(_ context.Context, productID, storeID string) ([]*entity.Lot, error) {
	return r.filter(func(l *entity.Lot) bool {
		return l.ProductID == productID && l.StoreID == storeID && l.RemainingQuantity.IsPositive()
	}), nil
}

func (r *lotRepo) LatestForUpdate(_ context.Context, productID, storeID string) (*entity.Lot, error) {
	lots := r.filter(func(l *entity.Lot) bool { return l.ProductID == productID && l.StoreID == storeID })
	var latest *entity.Lot
	for _, l := range lots {
		if latest == nil || l.Seq > latest.Seq {
			latest = l
		}
	}
	return latest, nil
}

func (r *lotRepo) ListByPurchaseOrderForUpdate(_ context.Context, purchaseOrderID string) ([]*entity.Lot, error) {
	return r.filter(func(l *entity.Lot) bool { return l.PurchaseOrderID == purchaseOrderID }), nil
}

func (r *lotRepo) ListByProduct(_ context.Context, productID, storeID string, limit, offset int) ([]*entity.Lot, error) {
	lots := r.filter(func(l *entity.Lot) bool { return l.ProductID == productID && l.StoreID == storeID })
	if offset >= len(lots) {
		return []*entity.Lot{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(lots) {
		end = len(lots)
	}
	return lots[offset:end], nil
}

func (r *lotRepo) SumRemaining(_ context.Context, productID, storeID string) (decimal.Decimal, error) {
	total := decimal.Zero
	r.b.read(func(s *state) {
		for _, l := range s.lots {
			if l.ProductID == productID && l.StoreID == storeID {
				total = total.Add(l.RemainingQuantity)
			}
		}
	})
	return total, nil
}

func (r *lotRepo) SumRemainingByUnit(_ context.Context, productID, storeID string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	r.b.read(func(s *state) {
		for _, l := range s.lots {
			if l.ProductID == productID && l.StoreID == storeID {
				out[l.UnitID] = out[l.UnitID].Add(l.RemainingQuantity)
			}
		}
	})
	return out, nil
}

func (r *lotRepo) Deduct(ctx context.Context, id string, amount decimal.Decimal) error {
	return r.b.write(ctx, func(s *state) error {
		l, ok := s.lots[id]
		if !ok {
			return domain.NewNotFoundError("lote", id)
		}
		if amount.GreaterThan(l.RemainingQuantity) {
			return domain.ErrInsufficientLotQuantity
		}
		l.RemainingQuantity = l.RemainingQuantity.Sub(amount)
		return nil
	})
}

func (r *lotRepo) Restore(ctx context.Context, id string, amount decimal.Decimal) error {
	return r.b.write(ctx, func(s *state) error {
		l, ok := s.lots[id]
		if !ok {
			return domain.NewNotFoundError("lote", id)
		}
		if l.RemainingQuantity.Add(amount).GreaterThan(l.Quantity) {
			return domain.ErrExceedsOriginalQuantity
		}
		l.RemainingQuantity = l.RemainingQuantity.Add(amount)
		return nil
	})
}

func (r *lotRepo) DeleteByPurchaseOrder(ctx context.Context, purchaseOrderID string) error {
	return r.b.write(ctx, func(s *state) error {
		for id, l := range s.lots {
			if l.PurchaseOrderID == purchaseOrderID {
				delete(s.lots, id)
			}
		}
		return nil
	})
}

// --- agregado ---

type stockRepo struct{ b *binding }

func (r *stockRepo) Add(ctx context.Context, productID, storeID, unitID string, delta decimal.Decimal) error {
	return r.b.write(ctx, func(s *state) error {
		k := stockKey{productID: productID, storeID: storeID, unitID: unitID}
		agg, ok := s.stock[k]
		if !ok {
			agg = &entity.StockAggregate{ProductID: productID, StoreID: storeID, UnitID: unitID, Quantity: decimal.Zero}
			s.stock[k] = agg
		}
		agg.Quantity = agg.Quantity.Add(delta)
		agg.UpdatedAt = r.b.store.now()
		return nil
	})
}

func (r *stockRepo) List(_ context.Context, productID, storeID string) ([]*entity.StockAggregate, error) {
	var out []*entity.StockAggregate
	r.b.read(func(s *state) {
		for k, agg := range s.stock {
			if k.productID == productID && k.storeID == storeID {
				c := *agg
				out = append(out, &c)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].UnitID < out[j].UnitID })
	return out, nil
}

func (r *stockRepo) Set(ctx context.Context, agg *entity.StockAggregate) error {
	return r.b.write(ctx, func(s *state) error {
		c := *agg
		s.stock[stockKey{productID: c.ProductID, storeID: c.StoreID, unitID: c.UnitID}] = &c
		return nil
	})
}

// --- traslados ---

type transferRepo struct{ b *binding }

func (r *transferRepo) LastNumber(_ context.Context, prefix string) (string, error) {
	last := ""
	r.b.read(func(s *state) {
		for _, t := range s.transfers {
			if strings.HasPrefix(t.TransferNumber, prefix) && inventory.CompareTransferNumbers(t.TransferNumber, last) > 0 {
				last = t.TransferNumber
			}
		}
	})
	return last, nil
}

func (r *transferRepo) Create(ctx context.Context, t *entity.Transfer) error {
	return r.b.write(ctx, func(s *state) error {
		for _, other := range s.transfers {
			if other.ID == t.ID || other.TransferNumber == t.TransferNumber {
				return domain.ErrDuplicate
			}
		}
		s.transfers[t.ID] = copyTransfer(t)
		return nil
	})
}

func (r *transferRepo) AddItems(ctx context.Context, items []entity.TransferItem) error {
	return r.b.write(ctx, func(s *state) error {
		for _, it := range items {
			t, ok := s.transfers[it.TransferID]
			if !ok {
				return domain.NewNotFoundError("traslado", it.TransferID)
			}
			t.Items = append(t.Items, it)
		}
		return nil
	})
}

func (r *transferRepo) GetByID(_ context.Context, id string) (*entity.Transfer, error) {
	var out *entity.Transfer
	r.b.read(func(s *state) {
		if t, ok := s.transfers[id]; ok {
			out = copyTransfer(t)
		}
	})
	return out, nil
}

// --- órdenes de compra ---

type purchaseOrderRepo struct{ b *binding }

func (r *purchaseOrderRepo) Create(ctx context.Context, o *entity.PurchaseOrder) error {
	return r.b.write(ctx, func(s *state) error {
		if _, ok := s.orders[o.ID]; ok {
			return domain.ErrDuplicate
		}
		c := copyOrder(o)
		c.Items = nil
		s.orders[c.ID] = c
		return nil
	})
}

func (r *purchaseOrderRepo) AddItems(ctx context.Context, items []entity.PurchaseOrderItem) error {
	return r.b.write(ctx, func(s *state) error {
		for _, it := range items {
			o, ok := s.orders[it.PurchaseOrderID]
			if !ok {
				return domain.NewNotFoundError("orden de compra", it.PurchaseOrderID)
			}
			o.Items = append(o.Items, it)
		}
		return nil
	})
}

func (r *purchaseOrderRepo) GetByID(_ context.Context, id string) (*entity.PurchaseOrder, error) {
	var out *entity.PurchaseOrder
	r.b.read(func(s *state) {
		if o, ok := s.orders[id]; ok {
			out = copyOrder(o)
		}
	})
	return out, nil
}

func (r *purchaseOrderRepo) Delete(ctx context.Context, id string) error {
	return r.b.write(ctx, func(s *state) error {
		delete(s.orders, id)
		return nil
	})
}

// --- asignaciones de venta ---

type saleAllocationRepo struct{ b *binding }

func (r *saleAllocationRepo) Create(ctx context.Context, allocs []*entity.SaleAllocation) error {
	return r.b.write(ctx, func(s *state) error {
		for _, a := range allocs {
			c := *a
			s.allocs = append(s.allocs, &c)
		}
		return nil
	})
}

func (r *saleAllocationRepo) ListByOrderForUpdate(_ context.Context, storeID, orderID string) ([]*entity.SaleAllocation, error) {
	var out []*entity.SaleAllocation
	r.b.read(func(s *state) {
		for _, a := range s.allocs {
			if a.StoreID == storeID && a.OrderID == orderID {
				c := *a
				out = append(out, &c)
			}
		}
	})
	return out, nil
}

func (r *saleAllocationRepo) AddRestored(ctx context.Context, id string, amount decimal.Decimal) error {
	return r.b.write(ctx, func(s *state) error {
		for _, a := range s.allocs {
			if a.ID == id {
				if a.RestoredQuantity.Add(amount).GreaterThan(a.Quantity) {
					return domain.ErrExceedsOriginalQuantity
				}
				a.RestoredQuantity = a.RestoredQuantity.Add(amount)
				return nil
			}
		}
		return domain.NewNotFoundError("asignación", id)
	})
}

type cancellationRepo struct{ b *binding }

func cancellationKey(storeID, orderID string) string { return storeID + "/" + orderID }

func (r *cancellationRepo) Create(ctx context.Context, oc *entity.OrderCancellation) error {
	return r.b.write(ctx, func(s *state) error {
		k := cancellationKey(oc.StoreID, oc.OrderID)
		if _, ok := s.cancels[k]; ok {
			return fmt.Errorf("cancelación del pedido %s: %w", oc.OrderID, domain.ErrDuplicate)
		}
		c := *oc
		s.cancels[k] = &c
		return nil
	})
}

func (r *cancellationRepo) Get(_ context.Context, storeID, orderID string) (*entity.OrderCancellation, error) {
	var out *entity.OrderCancellation
	r.b.read(func(s *state) {
		if oc, ok := s.cancels[cancellationKey(storeID, orderID)]; ok {
			c := *oc
			out = &c
		}
	})
	return out, nil
}

// --- colaboradores ---

type storeRepo struct{ b *binding }

func (r *storeRepo) GetByID(_ context.Context, id string) (*entity.Store, error) {
	var out *entity.Store
	r.b.read(func(s *state) {
		if st, ok := s.stores[id]; ok {
			c := *st
			out = &c
		}
	})
	return out, nil
}

type productRepo struct{ b *binding }

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	r.b.read(func(s *state) {
		if p, ok := s.products[id]; ok {
			c := *p
			out = &c
		}
	})
	return out, nil
}
