package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil, Rollback en cualquier otra salida. Garantiza atomicidad del libro de lotes.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repositories) error) error
}

// IDGenerator genera identificadores únicos (inyectable para tests deterministas).
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator genera UUID v4.
type UUIDGenerator struct{}

// NewID devuelve un UUID nuevo.
func (UUIDGenerator) NewID() string { return uuid.New().String() }

// Clock devuelve la hora actual.
type Clock func() time.Time

// Metrics registra eventos del libro de lotes.
type Metrics interface {
	LotCreated(source string, quantity decimal.Decimal)
	Allocation(outcome string, quantity decimal.Decimal)
	Transfer(outcome string, elapsed time.Duration)
	Reversal(policy string, quantity decimal.Decimal)
}

// NopMetrics no registra nada.
type NopMetrics struct{}

func (NopMetrics) LotCreated(string, decimal.Decimal) {}
func (NopMetrics) Allocation(string, decimal.Decimal) {}
func (NopMetrics) Transfer(string, time.Duration) {}
func (NopMetrics) Reversal(string, decimal.Decimal) {}

// StockKey identifica un producto en una tienda.
type StockKey struct {
	ProductID string
	StoreID   string
}

// StockCache caché de lectura del stock agregado. Se invalida después de cada commit que lo cambia.
type StockCache interface {
	Get(ctx context.Context, key StockKey) (*StockLevel, bool, error)
	Set(ctx context.Context, key StockKey, level *StockLevel) error
	Invalidate(ctx context.Context, keys ...StockKey) error
}

// NopStockCache caché deshabilitada.
type NopStockCache struct{}

func (NopStockCache) Get(context.Context, StockKey) (*StockLevel, bool, error) { return nil, false, nil }
func (NopStockCache) Set(context.Context, StockKey, *StockLevel) error         { return nil }
func (NopStockCache) Invalidate(context.Context, ...StockKey) error            { return nil }

// Outcomes para métricas.
const (
	OutcomeCompleted = "completed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)
