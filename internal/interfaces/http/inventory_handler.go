package http

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// InventoryHandler maneja los movimientos manuales sobre el ledger (protegido).
type InventoryHandler struct {
	ledger   *inventory.Ledger
	validate *validator.Validate
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.Ledger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, validate: validator.New()}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  Entrada, salida, traslado o ajuste (cantidad negativa descuenta). Con reference,
// @Description  repetir la misma llave devuelve el movimiento existente con duplicate=true.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "Movimiento"
// @Success      201   {object}  dto.ApplyMovementResponse
// @Success      200   {object}  dto.ApplyMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.validate.Struct(in); err != nil {
		return validationError(c, err)
	}
	intent, err := intentFromRequest(in, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}

	mov, err := h.ledger.Apply(c.Context(), intent)
	if errors.Is(err, domain.ErrDuplicateReference) {
		return c.Status(fiber.StatusOK).JSON(dto.ApplyMovementResponse{Movement: dto.FromMovement(mov), Duplicate: true})
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ApplyMovementResponse{Movement: dto.FromMovement(mov)})
}

func intentFromRequest(in dto.RegisterMovementRequest, userID string) (inventory.MovementIntent, error) {
	typ := entity.MovementType(in.Type)
	qty := in.Quantity
	decrease := false
	if qty < 0 {
		if typ != entity.MovementTypeAdjustment {
			return inventory.MovementIntent{}, fmt.Errorf("%w: cantidad negativa solo en ajustes", domain.ErrInvalidInput)
		}
		qty, decrease = -qty, true
	}
	intent := inventory.MovementIntent{
		ProductID:    in.ProductID,
		Type:         typ,
		Reason:       entity.MovementReason(in.Reason),
		Quantity:     qty,
		Decrease:     decrease,
		FromLocation: in.FromLocation,
		ToLocation:   in.ToLocation,
		UnitCost:     in.UnitCost,
		PerformedBy:  userID,
		Notes:        in.Notes,
	}
	if in.MovementDate != nil {
		intent.MovementDate = *in.MovementDate
	}
	if in.Reference != nil {
		intent.Reference = &entity.Reference{
			Type:   in.Reference.Type,
			ID:     in.Reference.ID,
			Number: in.Reference.Number,
			Action: in.Reference.Action,
		}
	}
	return intent, nil
}
