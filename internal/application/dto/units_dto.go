package dto

import "github.com/shopspring/decimal"

// CreateUnitRequest body para POST /api/units. Sin base_unit_id la unidad es base.
type CreateUnitRequest struct {
	StoreID          string          `json:"store_id" validate:"required"`
	Name             string          `json:"name" validate:"required,max=50"`
	BaseUnitID       string          `json:"base_unit_id,omitempty"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
}

// UnitResponse unidad de medida.
type UnitResponse struct {
	ID               string          `json:"id"`
	StoreID          string          `json:"store_id"`
	Name             string          `json:"name"`
	BaseUnitID       string          `json:"base_unit_id,omitempty"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
	IsBase           bool            `json:"is_base"`
}

// ProductUnitConfigRequest body para PUT /api/products/{product_id}/unit-config.
type ProductUnitConfigRequest struct {
	StoreID             string          `json:"store_id" validate:"required"`
	BaseUnitID          string          `json:"base_unit_id" validate:"required"`
	ConversionUnitID    string          `json:"conversion_unit_id" validate:"required"`
	ConversionRate      decimal.Decimal `json:"conversion_rate"`
	BaseUnitPrice       decimal.Decimal `json:"base_unit_price"`
	ConversionUnitPrice decimal.Decimal `json:"conversion_unit_price"`
}

// ProductUnitConfigResponse configuración activa.
type ProductUnitConfigResponse struct {
	ID                  string          `json:"id"`
	ProductID           string          `json:"product_id"`
	StoreID             string          `json:"store_id"`
	BaseUnitID          string          `json:"base_unit_id"`
	ConversionUnitID    string          `json:"conversion_unit_id"`
	ConversionRate      decimal.Decimal `json:"conversion_rate"`
	BaseUnitPrice       decimal.Decimal `json:"base_unit_price"`
	ConversionUnitPrice decimal.Decimal `json:"conversion_unit_price"`
}

// ConvertRequest body para POST /api/units/convert.
type ConvertRequest struct {
	Quantity   decimal.Decimal `json:"quantity"`
	FromUnitID string          `json:"from_unit_id" validate:"required"`
	ToUnitID   string          `json:"to_unit_id" validate:"required"`
}

// ConvertResponse cantidad convertida.
type ConvertResponse struct {
	Quantity decimal.Decimal `json:"quantity"`
	UnitID   string          `json:"unit_id"`
}
