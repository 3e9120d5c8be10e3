package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/rs/zerolog"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL (READ COMMITTED).
// Los lotes se bloquean con SELECT FOR UPDATE; si Postgres aborta por deadlock o
// serialización, la transacción completa se repite hasta maxRetries veces.
type TxRunner struct {
	pool       *pgxpool.Pool
	maxRetries int
	log        zerolog.Logger
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, maxRetries int, log zerolog.Logger) *TxRunner {
	return &TxRunner{pool: pool, maxRetries: maxRetries, log: log}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Repositories) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = r.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) || attempt >= r.maxRetries {
			return err
		}
		r.log.Warn().Err(err).Int("attempt", attempt+1).Msg("transacción abortada, reintentando")
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(time.Duration(attempt+1) * 20 * time.Millisecond):
		}
	}
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(repos repository.Repositories) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NewRepositories construye todos los repositorios sobre q (pool o tx).
func NewRepositories(q Querier) repository.Repositories {
	return repository.Repositories{
		Units:           NewUnitRepository(q),
		UnitConfigs:     NewProductUnitConfigRepository(q),
		Lots:            NewLotRepository(q),
		Stock:           NewStockAggregateRepository(q),
		Transfers:       NewTransferRepository(q),
		PurchaseOrders:  NewPurchaseOrderRepository(q),
		SaleAllocations: NewSaleAllocationRepository(q),
		Cancellations:   NewOrderCancellationRepository(q),
		Stores:          NewStoreRepository(q),
		Products:        NewProductRepository(q),
	}
}
