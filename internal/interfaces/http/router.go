package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/traslados-api/internal/application/transfer"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	TransferUC  *transfer.TransferUseCase
	StockLedger *transfer.StockLedger
	Log         zerolog.Logger
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Traslados entre sedes
	transfers := protected.Group("/transfers")
	transferHandler := NewTransferHandler(deps.TransferUC, deps.Log)
	transfers.Post("/", transferHandler.Create)
	transfers.Get("/", transferHandler.List)
	transfers.Get("/:id", transferHandler.GetByID)
	transfers.Post("/:id/dispatch", RequireRole(RoleAdmin, RoleBodeguero), transferHandler.Dispatch)
	transfers.Post("/:id/receive", transferHandler.Receive)
	transfers.Post("/:id/cancel", RequireRole(RoleAdmin, RoleBodeguero), transferHandler.Cancel)

	// Stock por sede
	stock := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.StockLedger, deps.Log)
	stock.Get("/:product_id/:store_id", RequireStoreAccess(StoreParam("store_id")), stockHandler.Get)
	stock.Get("/:product_id/:store_id/movements", RequireStoreAccess(StoreParam("store_id")), stockHandler.Movements)
}
