package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/rs/zerolog"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Transfers *inventory.TransferUseCase
	Purchases *inventory.PurchaseUseCase
	Sales     *inventory.SaleUseCase
	Stock     *inventory.StockQueryUseCase
	Units     *inventory.UnitsUseCase
	JWTSecret string
	Log       zerolog.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token; el inquilino sale del token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	writers := RequireRole(RoleAdmin, RoleBodeguero)
	sellers := RequireRole(RoleAdmin, RoleVendedor)
	admins := RequireRole(RoleAdmin)

	transfers := api.Group("/transfers")
	transferHandler := NewTransferHandler(deps.Transfers, deps.Log)
	transfers.Post("/", writers, transferHandler.Create)
	transfers.Get("/:id", transferHandler.GetByID)

	purchases := api.Group("/purchase-orders")
	purchaseHandler := NewPurchaseHandler(deps.Purchases, deps.Log)
	purchases.Post("/", writers, purchaseHandler.Create)
	purchases.Get("/:id", purchaseHandler.GetByID)
	purchases.Delete("/:id", admins, purchaseHandler.Delete)

	sales := api.Group("/sales")
	saleHandler := NewSaleHandler(deps.Sales, deps.Log)
	sales.Post("/allocations", sellers, saleHandler.Allocate)
	sales.Post("/orders/:order_id/cancel", sellers, saleHandler.Cancel)

	stock := api.Group("/stock")
	stockHandler := NewStockHandler(deps.Stock, deps.Log)
	stock.Get("/:product_id", stockHandler.Get)
	stock.Get("/:product_id/availability", stockHandler.Availability)
	stock.Get("/:product_id/lots", stockHandler.Lots)
	stock.Post("/:product_id/reconcile", admins, stockHandler.Reconcile)

	units := api.Group("/units")
	unitHandler := NewUnitHandler(deps.Units, deps.Log)
	units.Post("/", admins, unitHandler.Create)
	units.Get("/", unitHandler.List)
	units.Post("/convert", unitHandler.Convert)

	api.Put("/products/:product_id/unit-config", admins, unitHandler.SetProductConfig)
}
