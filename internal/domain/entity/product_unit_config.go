package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductUnitConfig par de unidades vendibles de un producto en una tienda y sus precios.
// ConversionRate sobrescribe el factor genérico del registro de unidades para este producto.
// Solo una configuración activa por producto y tienda.
type ProductUnitConfig struct {
	ID                  string
	ProductID           string
	StoreID             string
	BaseUnitID          string
	ConversionUnitID    string
	ConversionRate      decimal.Decimal
	BaseUnitPrice       decimal.Decimal
	ConversionUnitPrice decimal.Decimal
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
