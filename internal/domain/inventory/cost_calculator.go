package inventory

import "github.com/shopspring/decimal"

// WeightedAverageCost costo promedio ponderado de una asignación (servicio de dominio).
// Promedio = Σ(cantidad_i * costo_i) / Σ(cantidad_i)
func WeightedAverageCost(totalCost, quantity decimal.Decimal) decimal.Decimal {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return totalCost.DivRound(quantity, 8)
}

// FragmentCost costo total de un fragmento.
func FragmentCost(amount, unitCost decimal.Decimal) decimal.Decimal {
	return amount.Mul(unitCost)
}
