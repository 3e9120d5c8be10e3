package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/rs/zerolog"
)

// TransferHandler traslados entre tiendas (protegido).
type TransferHandler struct {
	uc  *inventory.TransferUseCase
	log zerolog.Logger
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *inventory.TransferUseCase, log zerolog.Logger) *TransferHandler {
	return &TransferHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Trasladar inventario entre tiendas
// @Description  Consume FIFO en la tienda origen y crea lotes en destino con el costo de cada fragmento.
//
//	Todo o nada: si falta stock de cualquier producto se listan todos los faltantes.
//
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "tiendas e ítems"
// @Success      201   {object}  inventory.TransferResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.TransferRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	res, err := h.uc.Execute(c.UserContext(), inventory.TransferInput{
		TenantID:           tenantID,
		SourceStoreID:      in.SourceStoreID,
		DestinationStoreID: in.DestinationStoreID,
		Items:              toItemInputs(in.Items),
		Notes:              in.Notes,
		CreatedBy:          GetUserID(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// GetByID godoc
// @Summary      Obtener traslado con su linaje de lotes
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	t, err := h.uc.Get(c.UserContext(), tenantID, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toTransferResponse(t))
}
