package repository

import (
	"context"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// TransferRepository define el puerto de persistencia de traslados.
type TransferRepository interface {
	// LastNumber devuelve el mayor número con el prefijo del mes (vacío si no hay) y serializa
	// la generación de números para ese prefijo hasta el fin de la transacción.
	LastNumber(ctx context.Context, prefix string) (string, error)
	Create(ctx context.Context, transfer *entity.Transfer) error
	AddItems(ctx context.Context, items []entity.TransferItem) error
	GetByID(ctx context.Context, id string) (*entity.Transfer, error)
}
