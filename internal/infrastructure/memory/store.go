// Package memory implementa los repositorios del libro de lotes en memoria.
// Cada transacción trabaja sobre una copia del estado que reemplaza al estado confirmado en el commit;
// las transacciones se serializan, lo que equivale a bloquear todas las filas que tocan.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

type stockKey struct {
	productID string
	storeID   string
	unitID    string
}

type state struct {
	seq       int64
	units     map[string]*entity.Unit
	configs   map[string]*entity.ProductUnitConfig
	lots      map[string]*entity.Lot
	stock     map[stockKey]*entity.StockAggregate
	transfers map[string]*entity.Transfer
	orders    map[string]*entity.PurchaseOrder
	allocs    []*entity.SaleAllocation
	cancels   map[string]*entity.OrderCancellation
	stores    map[string]*entity.Store
	products  map[string]*entity.Product
}

func newState() *state {
	return &state{
		units:     map[string]*entity.Unit{},
		configs:   map[string]*entity.ProductUnitConfig{},
		lots:      map[string]*entity.Lot{},
		stock:     map[stockKey]*entity.StockAggregate{},
		transfers: map[string]*entity.Transfer{},
		orders:    map[string]*entity.PurchaseOrder{},
		cancels:   map[string]*entity.OrderCancellation{},
		stores:    map[string]*entity.Store{},
		products:  map[string]*entity.Product{},
	}
}

func (s *state) clone() *state {
	c := newState()
	c.seq = s.seq
	for k, v := range s.units {
		u := *v
		c.units[k] = &u
	}
	for k, v := range s.configs {
		cfg := *v
		c.configs[k] = &cfg
	}
	for k, v := range s.lots {
		l := *v
		c.lots[k] = &l
	}
	for k, v := range s.stock {
		a := *v
		c.stock[k] = &a
	}
	for k, v := range s.transfers {
		c.transfers[k] = copyTransfer(v)
	}
	for k, v := range s.orders {
		c.orders[k] = copyOrder(v)
	}
	c.allocs = make([]*entity.SaleAllocation, 0, len(s.allocs))
	for _, v := range s.allocs {
		a := *v
		c.allocs = append(c.allocs, &a)
	}
	for k, v := range s.cancels {
		oc := *v
		c.cancels[k] = &oc
	}
	for k, v := range s.stores {
		st := *v
		c.stores[k] = &st
	}
	for k, v := range s.products {
		p := *v
		c.products[k] = &p
	}
	return c
}

func copyTransfer(t *entity.Transfer) *entity.Transfer {
	c := *t
	c.Items = append([]entity.TransferItem(nil), t.Items...)
	return &c
}

func copyOrder(o *entity.PurchaseOrder) *entity.PurchaseOrder {
	c := *o
	c.Items = append([]entity.PurchaseOrderItem(nil), o.Items...)
	return &c
}

// Store almacén en memoria. Implementa el TxRunner de la capa de aplicación.
type Store struct {
	txMu      sync.Mutex   // serializa transacciones
	mu        sync.RWMutex // protege committed
	committed *state
	now       func() time.Time
}

// New crea un almacén vacío.
func New() *Store {
	return &Store{committed: newState(), now: time.Now}
}

// Run ejecuta fn sobre una copia del estado y la confirma solo si fn devuelve nil.
func (s *Store) Run(ctx context.Context, fn func(repos repository.Repositories) error) error {
	return s.run(ctx, func(working *state) error {
		return fn(newRepositories(&binding{store: s, tx: working}))
	})
}

func (s *Store) run(ctx context.Context, fn func(*state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	working := s.committed.clone()
	s.mu.RUnlock()

	if err := fn(working); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.committed = working
	s.mu.Unlock()
	return nil
}

// Repositories devuelve repositorios fuera de transacción: leen el estado confirmado y cada
// escritura es su propia transacción.
func (s *Store) Repositories() repository.Repositories {
	return newRepositories(&binding{store: s})
}

// SeedStore registra una tienda (las tiendas las administra otro subsistema).
func (s *Store) SeedStore(st *entity.Store) {
	s.mutate(func(state *state) {
		c := *st
		state.stores[c.ID] = &c
	})
}

// SeedProduct registra un producto del catálogo.
func (s *Store) SeedProduct(p *entity.Product) {
	s.mutate(func(state *state) {
		c := *p
		state.products[c.ID] = &c
	})
}

func (s *Store) mutate(fn func(*state)) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.committed)
}

// binding ata los repositorios a una transacción (tx != nil) o al estado confirmado.
type binding struct {
	store *Store
	tx    *state
}

func (b *binding) read(fn func(*state)) {
	if b.tx != nil {
		fn(b.tx)
		return
	}
	b.store.mu.RLock()
	defer b.store.mu.RUnlock()
	fn(b.store.committed)
}

func (b *binding) write(ctx context.Context, fn func(*state) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}
	return b.store.run(ctx, fn)
}
