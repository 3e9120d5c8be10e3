package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/rs/zerolog"
)

// PurchaseHandler recepción de órdenes de compra (protegido).
type PurchaseHandler struct {
	uc  *inventory.PurchaseUseCase
	log zerolog.Logger
}

// NewPurchaseHandler construye el handler.
func NewPurchaseHandler(uc *inventory.PurchaseUseCase, log zerolog.Logger) *PurchaseHandler {
	return &PurchaseHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Recibir orden de compra
// @Description  Crea un lote por ítem, normalizado a la unidad base del producto.
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PurchaseOrderRequest  true  "tienda, proveedor e ítems"
// @Success      201   {object}  dto.PurchaseOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders [post]
func (h *PurchaseHandler) Create(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.PurchaseOrderRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	input := inventory.PurchaseOrderInput{
		TenantID:    tenantID,
		StoreID:     in.StoreID,
		SupplierID:  in.SupplierID,
		TotalAmount: in.TotalAmount,
		Notes:       in.Notes,
		CreatedBy:   GetUserID(c),
		Items:       make([]inventory.PurchaseItemInput, 0, len(in.Items)),
	}
	if in.ImportDate != nil {
		input.ImportDate = *in.ImportDate
	}
	for _, it := range in.Items {
		input.Items = append(input.Items, inventory.PurchaseItemInput{
			ProductID: it.ProductID, Quantity: it.Quantity, Cost: it.Cost, UnitID: it.UnitID,
		})
	}
	po, err := h.uc.Receive(c.UserContext(), input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toPurchaseOrderResponse(po))
}

// GetByID godoc
// @Summary      Obtener orden de compra
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id} [get]
func (h *PurchaseHandler) GetByID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	po, err := h.uc.Get(c.UserContext(), tenantID, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toPurchaseOrderResponse(po))
}

// Delete godoc
// @Summary      Eliminar orden de compra
// @Description  Solo si ninguno de sus lotes fue consumido.
// @Tags         purchase-orders
// @Security     Bearer
// @Param        id   path  string  true  "ID de la orden"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id} [delete]
func (h *PurchaseHandler) Delete(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	if err := h.uc.Delete(c.UserContext(), tenantID, c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
