package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/alerts"
	"github.com/jhoicas/inventario-ledger/internal/application/fulfillment"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC    *usecase.ProductUseCase
	StockCardUC  *usecase.StockCardUseCase
	Ledger       *inventory.Ledger
	Orders       *fulfillment.Orders
	StateMachine *fulfillment.StateMachine
	Alerts       *alerts.Alerts
	JWTSecret    string
}

// Router registra las rutas de la API. Todo bajo /api requiere Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Products
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.Ledger, deps.StockCardUC)
	products.Post("/", RequireRole(RoleAdmin, RoleBodeguero), productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Get("/:id/movements", productHandler.Movements)
	products.Get("/:id/consistency", RequireRole(RoleAdmin), productHandler.Consistency)
	products.Get("/:id/stock-card.pdf", productHandler.StockCard)

	// Inventory movements (manuales: ajustes, traslados, mermas)
	invGroup := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger)
	invGroup.Post("/movements", RequireRole(RoleAdmin, RoleBodeguero), inventoryHandler.RegisterMovement)

	// Orders (ventas y compras)
	orders := api.Group("/orders")
	orderHandler := NewOrderHandler(deps.Orders, deps.StateMachine)
	orders.Post("/:type", orderHandler.Create)
	orders.Get("/:type/:id", orderHandler.GetByID)
	orders.Post("/:type/:id/transitions", orderHandler.Transition)
	orders.Put("/:type/:id/payment-status", orderHandler.SetPaymentStatus)

	// Alerts
	alertGroup := api.Group("/alerts")
	alertHandler := NewAlertHandler(deps.Alerts)
	alertGroup.Get("/low-stock", alertHandler.LowStock)
	alertGroup.Get("/out-of-stock", alertHandler.OutOfStock)
	alertGroup.Get("/expiring", alertHandler.Expiring)
	alertGroup.Get("/summary", alertHandler.Summary)
}
