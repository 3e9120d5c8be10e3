package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TransferInput solicitud de traslado entre tiendas.
type TransferInput struct {
	TenantID           string
	SourceStoreID      string
	DestinationStoreID string
	Items              []ItemInput
	Notes              string
	CreatedBy          string
}

// TransferredItem resumen por línea solicitada.
type TransferredItem struct {
	ProductID           string          `json:"product_id"`
	Quantity            decimal.Decimal `json:"quantity"`
	WeightedAverageCost decimal.Decimal `json:"weighted_average_cost"`
	UnitID              string          `json:"unit_id"`
}

// TransferResult resultado de un traslado completado.
type TransferResult struct {
	TransferID       string            `json:"transfer_id"`
	TransferNumber   string            `json:"transfer_number"`
	TransferredItems []TransferredItem `json:"transferred_items"`
}

// TransferUseCase coordina traslados: validar → verificar stock → ejecutar, todo en una transacción.
// Ningún estado intermedio es observable; cualquier fallo revierte el traslado completo.
type TransferUseCase struct {
	txRunner  TxRunner
	reader    repository.Repositories
	units     *UnitRegistry
	ledger    *Ledger
	allocator *Allocator
	ids       IDGenerator
	now       Clock
	cache     StockCache
	metrics   Metrics
	log       zerolog.Logger
}

// NewTransferUseCase construye el coordinador de traslados.
func NewTransferUseCase(
	txRunner TxRunner,
	reader repository.Repositories,
	unitRegistry *UnitRegistry,
	ledger *Ledger,
	allocator *Allocator,
	ids IDGenerator,
	now Clock,
	cache StockCache,
	metrics Metrics,
	log zerolog.Logger,
) *TransferUseCase {
	if cache == nil {
		cache = NopStockCache{}
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if now == nil {
		now = time.Now
	}
	return &TransferUseCase{
		txRunner:  txRunner,
		reader:    reader,
		units:     unitRegistry,
		ledger:    ledger,
		allocator: allocator,
		ids:       ids,
		now:       now,
		cache:     cache,
		metrics:   metrics,
		log:       log,
	}
}

// Execute valida tiendas, verifica stock de todas las líneas con los lotes ya bloqueados y ejecuta
// el traslado: por cada fragmento FIFO consumido en origen crea un TransferItem y un lote en destino
// con el mismo costo y fecha de importación igual a la del traslado.
func (uc *TransferUseCase) Execute(ctx context.Context, in TransferInput) (*TransferResult, error) {
	started := uc.now()
	if in.SourceStoreID == "" || in.DestinationStoreID == "" {
		return nil, domain.NewValidationError("source_store_id/destination_store_id", "son requeridos")
	}

	var result *TransferResult
	var lines []line
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		// validating
		src, err := repos.Stores.GetByID(ctx, in.SourceStoreID)
		if err != nil {
			return err
		}
		if src == nil {
			return domain.NewNotFoundError("tienda", in.SourceStoreID)
		}
		dst, err := repos.Stores.GetByID(ctx, in.DestinationStoreID)
		if err != nil {
			return err
		}
		if dst == nil {
			return domain.NewNotFoundError("tienda", in.DestinationStoreID)
		}
		if src.TenantID != dst.TenantID {
			return domain.ErrCrossTenantTransfer
		}
		if in.TenantID != "" && src.TenantID != in.TenantID {
			return domain.ErrForbidden
		}
		if src.ID == dst.ID {
			return domain.ErrSameStoreTransfer
		}
		lines, err = normalizeLines(ctx, uc.units, repos, src.TenantID, src.ID, in.Items)
		if err != nil {
			return err
		}
		destUnits, err := uc.destinationUnits(ctx, repos, dst.ID, lines)
		if err != nil {
			return err
		}

		// checking-stock
		if err := lockAndCheck(ctx, repos, src.ID, lines); err != nil {
			return err
		}

		// executing
		transferDate := uc.now()
		last, err := repos.Transfers.LastNumber(ctx, inventory.TransferNumberPrefix(transferDate))
		if err != nil {
			return err
		}
		number, err := inventory.NextTransferNumber(transferDate, last)
		if err != nil {
			return err
		}
		transfer := &entity.Transfer{
			ID:                 uc.ids.NewID(),
			TransferNumber:     number,
			SourceStoreID:      src.ID,
			DestinationStoreID: dst.ID,
			TransferDate:       transferDate,
			Status:             entity.TransferStatusCompleted,
			Notes:              in.Notes,
			CreatedBy:          in.CreatedBy,
			CreatedAt:          transferDate,
		}
		if err := repos.Transfers.Create(ctx, transfer); err != nil {
			return err
		}

		res := &TransferResult{TransferID: transfer.ID, TransferNumber: number}
		var items []entity.TransferItem
		for _, ln := range lines {
			alloc, err := uc.allocator.Allocate(ctx, repos, ln.ProductID, src.ID, ln.Quantity, AllOrNothing)
			if err != nil {
				return err
			}
			for _, frag := range alloc.Consumed {
				destLot, err := uc.ledger.CreateLot(ctx, repos, NewLot{
					ProductID:  ln.ProductID,
					StoreID:    dst.ID,
					Quantity:   frag.Amount,
					Cost:       frag.Cost,
					UnitID:     destUnits[ln.ProductID],
					ImportDate: transferDate,
					TransferID: transfer.ID,
				})
				if err != nil {
					return err
				}
				items = append(items, entity.TransferItem{
					ID:               uc.ids.NewID(),
					TransferID:       transfer.ID,
					ProductID:        ln.ProductID,
					Quantity:         frag.Amount,
					Cost:             frag.Cost,
					UnitID:           frag.UnitID,
					SourceLotID:      frag.LotID,
					DestinationLotID: destLot.ID,
				})
			}
			res.TransferredItems = append(res.TransferredItems, TransferredItem{
				ProductID:           ln.ProductID,
				Quantity:            ln.Quantity,
				WeightedAverageCost: alloc.WeightedAverageCost.Round(4),
				UnitID:              ln.UnitID,
			})
		}
		if err := repos.Transfers.AddItems(ctx, items); err != nil {
			return err
		}
		result = res
		return nil
	})
	elapsed := uc.now().Sub(started)
	if err != nil {
		outcome := OutcomeFailed
		if isExpected(err) {
			outcome = OutcomeRejected
		}
		uc.metrics.Transfer(outcome, elapsed)
		return nil, err
	}
	uc.metrics.Transfer(OutcomeCompleted, elapsed)
	invalidate(ctx, uc.cache, uc.log, stockKeys(lines, in.SourceStoreID, in.DestinationStoreID))
	uc.log.Info().
		Str("transfer_id", result.TransferID).
		Str("transfer_number", result.TransferNumber).
		Str("source_store_id", in.SourceStoreID).
		Str("destination_store_id", in.DestinationStoreID).
		Int("items", len(result.TransferredItems)).
		Msg("traslado completado")
	return result, nil
}

// destinationUnits unidad base en destino por producto, equivalente a la base de origen de cada línea.
func (uc *TransferUseCase) destinationUnits(ctx context.Context, repos repository.Repositories, storeID string, lines []line) (map[string]string, error) {
	reg := uc.units.With(repos)
	out := make(map[string]string, len(lines))
	for _, ln := range lines {
		if _, ok := out[ln.ProductID]; ok {
			continue
		}
		source, err := repos.Units.GetByID(ctx, ln.UnitID)
		if err != nil {
			return nil, err
		}
		if source == nil {
			return nil, domain.NewNotFoundError("unidad", ln.UnitID)
		}
		dest, err := reg.CounterpartBase(ctx, ln.ProductID, storeID, source)
		if err != nil {
			return nil, err
		}
		out[ln.ProductID] = dest.ID
	}
	return out, nil
}

// Get obtiene un traslado con sus ítems; solo visible para el inquilino dueño de la tienda origen.
func (uc *TransferUseCase) Get(ctx context.Context, tenantID, id string) (*entity.Transfer, error) {
	t, err := uc.reader.Transfers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.NewNotFoundError("traslado", id)
	}
	if _, err := requireStore(ctx, uc.reader, tenantID, t.SourceStoreID); err != nil {
		return nil, err
	}
	return t, nil
}

// isExpected indica errores de negocio recuperables (4xx), frente a fallos de infraestructura.
func isExpected(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidInput, domain.ErrNotFound, domain.ErrForbidden, domain.ErrInsufficientStock,
		domain.ErrCrossTenantTransfer, domain.ErrSameStoreTransfer, domain.ErrIncompatibleUnits,
		domain.ErrCannotDeleteUsedInventory, domain.ErrInsufficientLotQuantity, domain.ErrExceedsOriginalQuantity,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
