package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unit representa una unidad de medida de una tienda.
// Sin BaseUnitID es unidad base (factor 1 implícito); con BaseUnitID es unidad de conversión
// y siempre apunta directo a una unidad base (cadenas de un solo nivel).
type Unit struct {
	ID               string
	StoreID          string
	Name             string
	BaseUnitID       string          // vacío = unidad base
	ConversionFactor decimal.Decimal // cantidad_base = cantidad * ConversionFactor
	CreatedAt        time.Time
}

// IsBase indica si la unidad es base.
func (u *Unit) IsBase() bool {
	return u.BaseUnitID == ""
}

// RootID devuelve el ID de la unidad base a la que pertenece.
func (u *Unit) RootID() string {
	if u.IsBase() {
		return u.ID
	}
	return u.BaseUnitID
}

// Factor devuelve el factor hacia la base (1 para unidades base).
func (u *Unit) Factor() decimal.Decimal {
	if u.IsBase() || u.ConversionFactor.IsZero() {
		return decimal.NewFromInt(1)
	}
	return u.ConversionFactor
}
