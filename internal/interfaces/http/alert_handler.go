package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/alerts"
)

const defaultExpiryWindowDays = 30

// AlertHandler consultas de alerta de stock y vencimiento (protegido).
type AlertHandler struct {
	alerts *alerts.Alerts
}

// NewAlertHandler construye el handler.
func NewAlertHandler(a *alerts.Alerts) *AlertHandler {
	return &AlertHandler{alerts: a}
}

// LowStock godoc
// @Summary      Productos con 0 < stock <= mínimo, con sugerencia de reposición
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StockAlertDTO
// @Router       /api/alerts/low-stock [get]
func (h *AlertHandler) LowStock(c *fiber.Ctx) error {
	list, err := h.alerts.LowStock(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "items": alerts.StockAlerts(list)})
}

// OutOfStock godoc
// @Summary      Productos agotados
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StockAlertDTO
// @Router       /api/alerts/out-of-stock [get]
func (h *AlertHandler) OutOfStock(c *fiber.Ctx) error {
	list, err := h.alerts.OutOfStock(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "items": alerts.StockAlerts(list)})
}

// Expiring godoc
// @Summary      Perecederos con stock que vencen en los próximos N días
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        days  query  int  false  "Ventana en días"  default(30)
// @Success      200   {array}   dto.ExpiringProductDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/alerts/expiring [get]
func (h *AlertHandler) Expiring(c *fiber.Ctx) error {
	days := c.QueryInt("days", defaultExpiryWindowDays)
	list, err := h.alerts.ExpiringWithin(c.Context(), days)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "window_days": days, "items": alerts.ExpiringAlerts(list, time.Now())})
}

// Summary godoc
// @Summary      Las tres alertas en una sola respuesta
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        days  query  int  false  "Ventana de vencimiento en días"  default(30)
// @Success      200   {object}  dto.AlertSummaryDTO
// @Router       /api/alerts/summary [get]
func (h *AlertHandler) Summary(c *fiber.Ctx) error {
	out, err := h.alerts.Summary(c.Context(), c.QueryInt("days", defaultExpiryWindowDays))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
