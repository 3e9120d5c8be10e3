// Package units contiene la aritmética de conversión de unidades de medida.
// Las cantidades son decimales; el redondeo a escala de lote se aplica solo al escribir un lote.
package units

import (
	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/shopspring/decimal"
)

const (
	// ConversionPrecision dígitos fraccionarios usados al dividir por un factor.
	ConversionPrecision int32 = 12
	// QuantityScale escala de cantidades guardadas en lotes.
	QuantityScale int32 = 4
	// CostScale escala de costos unitarios guardados en lotes.
	CostScale int32 = 4
)

// RoundTripTolerance error máximo aceptado en convert(convert(q, A, B), B, A).
var RoundTripTolerance = decimal.New(1, -10)

// Convert convierte q de la unidad from a la unidad to. Ambas deben compartir unidad base.
// result = q * fromFactor / toFactor
func Convert(q decimal.Decimal, from, to *entity.Unit) (decimal.Decimal, error) {
	if from == nil || to == nil {
		return decimal.Zero, domain.ErrIncompatibleUnits
	}
	if from.RootID() != to.RootID() {
		return decimal.Zero, domain.ErrIncompatibleUnits
	}
	if from.ID == to.ID {
		return q, nil
	}
	return Scale(q, from.Factor(), to.Factor()), nil
}

// Scale calcula q * num / den con ConversionPrecision dígitos.
func Scale(q, num, den decimal.Decimal) decimal.Decimal {
	if den.Equal(decimal.NewFromInt(1)) {
		return q.Mul(num)
	}
	return q.Mul(num).DivRound(den, ConversionPrecision)
}

// ToBase devuelve la unidad base, la cantidad en base y la tasa base/original.
// Una unidad base se devuelve a sí misma con tasa 1.
func ToBase(q decimal.Decimal, u *entity.Unit) (baseUnitID string, baseQty, rate decimal.Decimal) {
	if u.IsBase() {
		return u.ID, q, decimal.NewFromInt(1)
	}
	rate = u.Factor()
	return u.BaseUnitID, q.Mul(rate), rate
}

// CostToBase convierte un costo por unidad original a costo por unidad base.
func CostToBase(cost, rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return cost
	}
	return cost.DivRound(rate, ConversionPrecision)
}

// LotQuantity redondeo aplicado a una cantidad al escribir el lote.
func LotQuantity(q decimal.Decimal) decimal.Decimal {
	return q.Round(QuantityScale)
}

// LotCost redondeo aplicado a un costo unitario al escribir el lote.
func LotCost(c decimal.Decimal) decimal.Decimal {
	return c.Round(CostScale)
}

// ValidateNewUnit verifica la regla de cadenas de un nivel: la base indicada debe ser una unidad base
// de la misma tienda y el factor debe ser positivo.
func ValidateNewUnit(u *entity.Unit, base *entity.Unit) error {
	if u.Name == "" {
		return domain.NewValidationError("name", "es requerido")
	}
	if u.IsBase() {
		return nil
	}
	if !u.ConversionFactor.IsPositive() {
		return domain.NewValidationError("conversion_factor", "debe ser mayor que cero")
	}
	if base == nil {
		return domain.NewNotFoundError("unidad", u.BaseUnitID)
	}
	if !base.IsBase() {
		return domain.NewValidationError("base_unit_id", "debe ser una unidad base")
	}
	if base.StoreID != u.StoreID {
		return domain.NewValidationError("base_unit_id", "pertenece a otra tienda")
	}
	return nil
}
