package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/rs/zerolog"
)

// SaleHandler consumo por ventas y cancelación de pedidos (protegido).
type SaleHandler struct {
	uc  *inventory.SaleUseCase
	log zerolog.Logger
}

// NewSaleHandler construye el handler.
func NewSaleHandler(uc *inventory.SaleUseCase, log zerolog.Logger) *SaleHandler {
	return &SaleHandler{uc: uc, log: log}
}

// Allocate godoc
// @Summary      Asignar FIFO una venta
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SaleRequest  true  "tienda, pedido e ítems"
// @Success      201   {array}   inventory.AllocationResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales/allocations [post]
func (h *SaleHandler) Allocate(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.SaleRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	res, err := h.uc.AllocateSale(c.UserContext(), inventory.SaleInput{
		TenantID: tenantID,
		StoreID:  in.StoreID,
		OrderID:  in.OrderID,
		Items:    toItemInputs(in.Items),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// Cancel godoc
// @Summary      Cancelar pedido y restituir inventario
// @Description  La política (fragments | latest_lot) se fija en configuración.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        order_id  path  string                  true  "ID del pedido"
// @Param        body      body  dto.CancelOrderRequest  true  "tienda (e ítems si el pedido no tiene fragmentos)"
// @Success      200   {object}  inventory.ReversalResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "pedido ya cancelado"
// @Router       /api/sales/orders/{order_id}/cancel [post]
func (h *SaleHandler) Cancel(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.CancelOrderRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	res, err := h.uc.CancelOrder(c.UserContext(), inventory.CancelOrderInput{
		TenantID:    tenantID,
		StoreID:     in.StoreID,
		OrderID:     c.Params("order_id"),
		Items:       toItemInputs(in.Items),
		CancelledBy: GetUserID(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(res)
}
