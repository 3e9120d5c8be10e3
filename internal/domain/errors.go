package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas salvo decimal).
var (
	ErrNotFound                  = errors.New("recurso no encontrado")
	ErrInvalidInput              = errors.New("entrada inválida")
	ErrDuplicate                 = errors.New("recurso duplicado")
	ErrForbidden                 = errors.New("acceso denegado")
	ErrConflict                  = errors.New("conflicto con el estado actual")
	ErrInsufficientStock         = errors.New("stock insuficiente")
	ErrIncompatibleUnits         = errors.New("unidades incompatibles")
	ErrInsufficientLotQuantity   = errors.New("cantidad insuficiente en el lote")
	ErrExceedsOriginalQuantity   = errors.New("la restitución supera la cantidad original del lote")
	ErrCannotDeleteUsedInventory = errors.New("no se puede eliminar inventario ya utilizado")
	ErrCrossTenantTransfer       = errors.New("las tiendas pertenecen a distintos inquilinos")
	ErrSameStoreTransfer         = errors.New("la tienda origen y destino son la misma")
)

// ValidationError describe un campo de entrada inválido. errors.Is(err, ErrInvalidInput) es true.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidInput, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrInvalidInput, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError construye un ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError indica qué recurso falta. errors.Is(err, ErrNotFound) es true.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s no encontrado", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError construye un NotFoundError.
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// Shortfall es el faltante de un producto: lo pedido frente a lo disponible (unidad base).
type Shortfall struct {
	ProductID string          `json:"product_id"`
	Requested decimal.Decimal `json:"requested"`
	Available decimal.Decimal `json:"available"`
}

// InsufficientStockError lleva todos los faltantes de la operación, no solo el primero.
type InsufficientStockError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s (solicitado %s, disponible %s)", s.ProductID, s.Requested, s.Available))
	}
	return fmt.Sprintf("%s: %s", ErrInsufficientStock, strings.Join(parts, "; "))
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
