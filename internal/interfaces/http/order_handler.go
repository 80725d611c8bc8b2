package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/fulfillment"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/lifecycle"
)

// OrderHandler pedidos de venta y compra y sus transiciones (protegido).
type OrderHandler struct {
	orders   *fulfillment.Orders
	sm       *fulfillment.StateMachine
	validate *validator.Validate
}

// NewOrderHandler construye el handler.
func NewOrderHandler(orders *fulfillment.Orders, sm *fulfillment.StateMachine) *OrderHandler {
	return &OrderHandler{orders: orders, sm: sm, validate: validator.New()}
}

func orderType(c *fiber.Ctx) (entity.OrderType, bool) {
	t := entity.OrderType(c.Params("type"))
	return t, t.Valid()
}

func invalidOrderType(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "tipo de pedido desconocido (sale | purchase)"})
}

// Create godoc
// @Summary      Crear pedido en borrador con número consecutivo
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        type  path  string                  true  "sale | purchase"
// @Param        body  body  dto.CreateOrderRequest  true  "Líneas del pedido"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/orders/{type} [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	typ, ok := orderType(c)
	if !ok {
		return invalidOrderType(c)
	}
	var in dto.CreateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.validate.Struct(in); err != nil {
		return validationError(c, err)
	}
	items := make([]fulfillment.ItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, fulfillment.ItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Location:  it.Location,
		})
	}
	order, err := h.orders.Create(c.Context(), fulfillment.CreateOrderInput{
		Type:      typ,
		PartyID:   in.PartyID,
		Notes:     in.Notes,
		CreatedBy: GetUserID(c),
		Items:     items,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromOrder(order))
}

// GetByID godoc
// @Summary      Obtener pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        type  path  string  true  "sale | purchase"
// @Param        id    path  string  true  "ID del pedido"
// @Success      200   {object}  dto.OrderResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/orders/{type}/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	typ, ok := orderType(c)
	if !ok {
		return invalidOrderType(c)
	}
	order, err := h.orders.Get(c.Context(), typ, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromOrder(order))
}

// Transition godoc
// @Summary      Cambiar estado del pedido
// @Description  Aplica los movimientos de stock de la transición una sola vez. Repetir el estado
// @Description  actual devuelve los movimientos existentes con replayed=true.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        type  path  string                 true  "sale | purchase"
// @Param        id    path  string                 true  "ID del pedido"
// @Param        body  body  dto.TransitionRequest  true  "Estado destino y recepciones"
// @Success      200   {object}  dto.TransitionResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/orders/{type}/{id}/transitions [post]
func (h *OrderHandler) Transition(c *fiber.Ctx) error {
	typ, ok := orderType(c)
	if !ok {
		return invalidOrderType(c)
	}
	var in dto.TransitionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.validate.Struct(in); err != nil {
		return validationError(c, err)
	}
	receipts := make([]lifecycle.Receipt, 0, len(in.Receipts))
	for _, r := range in.Receipts {
		receipts = append(receipts, lifecycle.Receipt{ProductID: r.ProductID, Quantity: r.Quantity})
	}
	res, err := h.sm.Transition(c.Context(), fulfillment.TransitionRequest{
		OrderType:   typ,
		OrderID:     c.Params("id"),
		Target:      entity.OrderStatus(in.Status),
		PerformedBy: GetUserID(c),
		Receipts:    receipts,
		ReceiptID:   in.ReceiptID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.TransitionResponse{
		Order:     dto.FromOrder(res.Order),
		Previous:  string(res.Previous),
		Movements: dto.FromMovements(res.Movements),
		Replayed:  res.Replayed,
	})
}

// SetPaymentStatus godoc
// @Summary      Cambiar estado de pago (sin efecto en stock)
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        type  path  string                    true  "sale | purchase"
// @Param        id    path  string                    true  "ID del pedido"
// @Param        body  body  dto.PaymentStatusRequest  true  "Estado de pago"
// @Success      200   {object}  dto.OrderResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/orders/{type}/{id}/payment-status [put]
func (h *OrderHandler) SetPaymentStatus(c *fiber.Ctx) error {
	typ, ok := orderType(c)
	if !ok {
		return invalidOrderType(c)
	}
	var in dto.PaymentStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.validate.Struct(in); err != nil {
		return validationError(c, err)
	}
	order, err := h.orders.SetPaymentStatus(c.Context(), typ, c.Params("id"), entity.PaymentStatus(in.PaymentStatus))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromOrder(order))
}
