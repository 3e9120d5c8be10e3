package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/rs/zerolog"
)

// UnitHandler registro de unidades y configuración por producto (protegido).
type UnitHandler struct {
	uc  *inventory.UnitsUseCase
	log zerolog.Logger
}

// NewUnitHandler construye el handler.
func NewUnitHandler(uc *inventory.UnitsUseCase, log zerolog.Logger) *UnitHandler {
	return &UnitHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear unidad de medida
// @Tags         units
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateUnitRequest  true  "unidad base o de conversión"
// @Success      201   {object}  dto.UnitResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/units [post]
func (h *UnitHandler) Create(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.CreateUnitRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	u, err := h.uc.CreateUnit(c.UserContext(), tenantID, inventory.CreateUnitInput{
		StoreID:          in.StoreID,
		Name:             in.Name,
		BaseUnitID:       in.BaseUnitID,
		ConversionFactor: in.ConversionFactor,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toUnitResponse(u))
}

// List godoc
// @Summary      Listar unidades de una tienda
// @Tags         units
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  string  true  "ID de la tienda"
// @Success      200  {array}  dto.UnitResponse
// @Router       /api/units [get]
func (h *UnitHandler) List(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	list, err := h.uc.ListUnits(c.UserContext(), tenantID, c.Query("store_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.UnitResponse, 0, len(list))
	for _, u := range list {
		out = append(out, toUnitResponse(u))
	}
	return c.JSON(out)
}

// Convert godoc
// @Summary      Convertir una cantidad entre unidades
// @Tags         units
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConvertRequest  true  "cantidad y unidades"
// @Success      200   {object}  dto.ConvertResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/units/convert [post]
func (h *UnitHandler) Convert(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.ConvertRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	q, err := h.uc.Convert(c.UserContext(), tenantID, in.Quantity, in.FromUnitID, in.ToUnitID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ConvertResponse{Quantity: q, UnitID: in.ToUnitID})
}

// SetProductConfig godoc
// @Summary      Configurar unidades vendibles de un producto
// @Tags         units
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        product_id  path  string                        true  "ID del producto"
// @Param        body        body  dto.ProductUnitConfigRequest  true  "par de unidades, tasa y precios"
// @Success      200   {object}  dto.ProductUnitConfigResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/products/{product_id}/unit-config [put]
func (h *UnitHandler) SetProductConfig(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.ProductUnitConfigRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	cfg, err := h.uc.SetProductConfig(c.UserContext(), tenantID, inventory.ProductConfigInput{
		ProductID:           c.Params("product_id"),
		StoreID:             in.StoreID,
		BaseUnitID:          in.BaseUnitID,
		ConversionUnitID:    in.ConversionUnitID,
		ConversionRate:      in.ConversionRate,
		BaseUnitPrice:       in.BaseUnitPrice,
		ConversionUnitPrice: in.ConversionUnitPrice,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ProductUnitConfigResponse{
		ID:                  cfg.ID,
		ProductID:           cfg.ProductID,
		StoreID:             cfg.StoreID,
		BaseUnitID:          cfg.BaseUnitID,
		ConversionUnitID:    cfg.ConversionUnitID,
		ConversionRate:      cfg.ConversionRate,
		BaseUnitPrice:       cfg.BaseUnitPrice,
		ConversionUnitPrice: cfg.ConversionUnitPrice,
	})
}
