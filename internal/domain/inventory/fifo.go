package inventory

import (
	"sort"
	"time"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Fragment porción de un lote consumida por una asignación.
type Fragment struct {
	LotID      string          `json:"lot_id"`
	Amount     decimal.Decimal `json:"amount"`
	Cost       decimal.Decimal `json:"cost"`
	UnitID     string          `json:"unit_id"`
	ImportDate time.Time       `json:"-"`
}

// Plan resultado de planificar una asignación FIFO sobre un conjunto de lotes.
type Plan struct {
	Consumed  []Fragment
	Allocated decimal.Decimal
	TotalCost decimal.Decimal
	Shortfall decimal.Decimal
}

// WeightedAverageCost costo promedio del plan sobre la cantidad asignada.
func (p Plan) WeightedAverageCost() decimal.Decimal {
	return WeightedAverageCost(p.TotalCost, p.Allocated)
}

// SortFIFO ordena lotes por fecha de importación y, a igual fecha, por secuencia de inserción.
func SortFIFO(lots []*entity.Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		a, b := lots[i], lots[j]
		if !a.ImportDate.Equal(b.ImportDate) {
			return a.ImportDate.Before(b.ImportDate)
		}
		return a.Seq < b.Seq
	})
}

// PlanFIFO recorre los lotes del más antiguo al más nuevo tomando min(restante del lote, pendiente)
// hasta cubrir requested o agotar los lotes. No muta los lotes; el faltante queda en Shortfall.
func PlanFIFO(lots []*entity.Lot, requested decimal.Decimal) Plan {
	ordered := make([]*entity.Lot, 0, len(lots))
	for _, l := range lots {
		if l.RemainingQuantity.IsPositive() {
			ordered = append(ordered, l)
		}
	}
	SortFIFO(ordered)

	plan := Plan{Allocated: decimal.Zero, TotalCost: decimal.Zero}
	pending := requested
	for _, lot := range ordered {
		if !pending.IsPositive() {
			break
		}
		take := decimal.Min(lot.RemainingQuantity, pending)
		plan.Consumed = append(plan.Consumed, Fragment{
			LotID:      lot.ID,
			Amount:     take,
			Cost:       lot.Cost,
			UnitID:     lot.UnitID,
			ImportDate: lot.ImportDate,
		})
		plan.Allocated = plan.Allocated.Add(take)
		plan.TotalCost = plan.TotalCost.Add(FragmentCost(take, lot.Cost))
		pending = pending.Sub(take)
	}
	if pending.IsPositive() {
		plan.Shortfall = pending
	} else {
		plan.Shortfall = decimal.Zero
	}
	return plan
}

// SumRemaining suma la cantidad restante de los lotes.
func SumRemaining(lots []*entity.Lot) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lots {
		total = total.Add(l.RemainingQuantity)
	}
	return total
}
