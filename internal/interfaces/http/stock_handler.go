package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// StockHandler consultas de stock, lotes y conciliación (protegido).
type StockHandler struct {
	uc  *inventory.StockQueryUseCase
	log zerolog.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *inventory.StockQueryUseCase, log zerolog.Logger) *StockHandler {
	return &StockHandler{uc: uc, log: log}
}

// Get godoc
// @Summary      Stock agregado de un producto en una tienda
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path   string  true  "ID del producto"
// @Param        store_id    query  string  true  "ID de la tienda"
// @Success      200  {object}  inventory.StockLevel
// @Router       /api/stock/{product_id} [get]
func (h *StockHandler) Get(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	level, err := h.uc.GetStock(c.UserContext(), tenantID, c.Params("product_id"), c.Query("store_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(level)
}

// Availability godoc
// @Summary      Verificar disponibilidad sin reservar
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path   string  true   "ID del producto"
// @Param        store_id    query  string  true   "ID de la tienda"
// @Param        quantity    query  string  true   "Cantidad solicitada"
// @Param        unit_id     query  string  false  "Unidad de la cantidad"
// @Success      200  {object}  inventory.Availability
// @Router       /api/stock/{product_id}/availability [get]
func (h *StockHandler) Availability(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	qty, err := decimal.NewFromString(c.Query("quantity"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "quantity debe ser numérico"})
	}
	av, err := h.uc.CheckAvailability(c.UserContext(), tenantID, c.Params("product_id"), c.Query("store_id"), qty, c.Query("unit_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(av)
}

// Lots godoc
// @Summary      Lotes de un producto en orden FIFO
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path   string  true   "ID del producto"
// @Param        store_id    query  string  true   "ID de la tienda"
// @Param        limit       query  int     false  "Límite"  default(50)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.LotListResponse
// @Router       /api/stock/{product_id}/lots [get]
func (h *StockHandler) Lots(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	page := dto.PageRequest{Limit: c.QueryInt("limit", 50), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	if page.Limit > 200 {
		page.Limit = 200
	}
	lots, err := h.uc.ListLots(c.UserContext(), tenantID, c.Params("product_id"), c.Query("store_id"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.LotListResponse{
		Items: make([]dto.LotResponse, 0, len(lots)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, l := range lots {
		out.Items = append(out.Items, toLotResponse(l))
	}
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Conciliar agregado contra el libro de lotes
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path   string  true   "ID del producto"
// @Param        store_id    query  string  true   "ID de la tienda"
// @Param        repair      query  bool    false  "Reescribir el agregado si hay diferencia"
// @Success      200  {object}  inventory.ReconcileReport
// @Router       /api/stock/{product_id}/reconcile [post]
func (h *StockHandler) Reconcile(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	report, err := h.uc.Reconcile(c.UserContext(), tenantID, c.Params("product_id"), c.Query("store_id"), c.QueryBool("repair", false))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(report)
}
