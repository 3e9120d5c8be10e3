package inventory

import (
	"context"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/rs/zerolog"
)

// requireStore obtiene la tienda y verifica que pertenezca al inquilino (tenantID vacío = sin verificar).
func requireStore(ctx context.Context, repos repository.Repositories, tenantID, storeID string) (*entity.Store, error) {
	if storeID == "" {
		return nil, domain.NewValidationError("store_id", "es requerido")
	}
	store, err := repos.Stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, domain.NewNotFoundError("tienda", storeID)
	}
	if tenantID != "" && store.TenantID != tenantID {
		return nil, domain.ErrForbidden
	}
	return store, nil
}

// invalidate limpia la caché tras un commit; un fallo solo se registra.
func invalidate(ctx context.Context, cache StockCache, log zerolog.Logger, keys []StockKey) {
	if len(keys) == 0 {
		return
	}
	if err := cache.Invalidate(ctx, keys...); err != nil {
		log.Warn().Err(err).Int("keys", len(keys)).Msg("invalidar caché de stock")
	}
}
