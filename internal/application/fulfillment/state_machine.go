package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/lifecycle"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

const receiptActionPrefix = "receipt-"

// TransitionRequest solicitud de cambio de estado de un pedido.
type TransitionRequest struct {
	OrderType   entity.OrderType
	OrderID     string
	Target      entity.OrderStatus
	PerformedBy string
	// Receipts cantidades recibidas en esta recepción (compras). Vacío en received = todo lo pendiente.
	Receipts []lifecycle.Receipt
	// ReceiptID identifica la recepción; con él, reintentar la misma recepción no la duplica.
	ReceiptID string
}

// TransitionResult resultado de una transición.
type TransitionResult struct {
	Order     *entity.Order
	Previous  entity.OrderStatus
	Status    entity.OrderStatus
	Movements []*entity.StockMovement
	// Replayed indica que la transición ya estaba aplicada y no se generaron movimientos nuevos.
	Replayed bool
}

// StateMachine aplica transiciones de pedidos y sus efectos en stock exactamente una vez.
type StateMachine struct {
	tx     inventory.TxRunner
	ledger *inventory.Ledger
	log    zerolog.Logger
	now    func() time.Time
}

// NewStateMachine construye la máquina de estados.
func NewStateMachine(tx inventory.TxRunner, ledger *inventory.Ledger, log zerolog.Logger) *StateMachine {
	return &StateMachine{
		tx:     tx,
		ledger: ledger,
		log:    log.With().Str("component", "fulfillment").Logger(),
		now:    time.Now,
	}
}

// Transition valida la transición y, en una sola transacción, bloquea el pedido, aplica un
// movimiento por línea (productos en orden de ID) y guarda el nuevo estado. Si una línea falla
// no queda nada aplicado.
func (sm *StateMachine) Transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	if !req.OrderType.Valid() {
		return nil, fmt.Errorf("%w: tipo de pedido %q", domain.ErrInvalidInput, req.OrderType)
	}
	if !lifecycle.ValidStatus(req.OrderType, req.Target) {
		return nil, fmt.Errorf("%w: estado %q", domain.ErrInvalidInput, req.Target)
	}

	var res *TransitionResult
	err := sm.tx.Run(ctx, func(r repository.Repos) error {
		o, err := r.Orders.GetForUpdate(ctx, req.OrderType, req.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return fmt.Errorf("%w: pedido %s", domain.ErrNotFound, req.OrderID)
		}

		replay, err := sm.replay(ctx, r, o, req)
		if err != nil || replay != nil {
			res = replay
			return err
		}

		plan, err := lifecycle.BuildPlan(lifecycle.PlanInput{
			Order:     o,
			Target:    req.Target,
			Receipts:  req.Receipts,
			ReceiptID: req.ReceiptID,
		})
		if err != nil {
			return err
		}

		effects := append([]lifecycle.LineEffect(nil), plan.Effects...)
		sort.SliceStable(effects, func(i, j int) bool { return effects[i].ProductID < effects[j].ProductID })

		ref := entity.Reference{Type: o.ReferenceType(), ID: o.ID, Number: o.Number, Action: plan.Action}
		movs := make([]*entity.StockMovement, 0, len(effects))
		for _, e := range effects {
			mov, err := sm.ledger.ApplyWith(ctx, r, intentFor(e, ref, req.PerformedBy))
			if errors.Is(err, domain.ErrDuplicateReference) {
				// El movimiento existe pero el pedido no registra la transición.
				return fmt.Errorf("%w: la acción %s ya tiene movimientos para %s", domain.ErrConflict, plan.Action, e.ProductID)
			}
			if err != nil {
				return fmt.Errorf("línea %s: %w", e.ProductID, err)
			}
			movs = append(movs, mov)
		}

		previous := o.Status
		o.Status = plan.Status
		o.Items = plan.Items
		if plan.Receipt {
			o.ReceiptSeq++
		}
		o.UpdatedAt = sm.now()
		if err := r.Orders.Update(ctx, o); err != nil {
			return err
		}
		res = &TransitionResult{Order: o, Previous: previous, Status: o.Status, Movements: movs}
		return nil
	})
	if err != nil {
		sm.log.Warn().Err(err).
			Str("order_id", req.OrderID).
			Str("type", string(req.OrderType)).
			Str("target", string(req.Target)).
			Msg("transición rechazada")
		return nil, inventory.StorageError(err)
	}

	sm.log.Info().
		Str("order_id", res.Order.ID).
		Str("number", res.Order.Number).
		Str("from", string(res.Previous)).
		Str("to", string(res.Status)).
		Int("movements", len(res.Movements)).
		Bool("replayed", res.Replayed).
		Msg("transición aplicada")
	return res, nil
}

// replay detecta una transición ya aplicada: el pedido ya está en el estado destino, o la
// recepción con ese ReceiptID ya fue registrada. Devuelve nil si hay que aplicar la transición.
func (sm *StateMachine) replay(ctx context.Context, r repository.Repos, o *entity.Order, req TransitionRequest) (*TransitionResult, error) {
	isReceipt := req.Target == entity.StatusPartiallyReceived || req.Target == entity.StatusReceived
	receiptID := strings.TrimSpace(req.ReceiptID)

	if o.Type == entity.OrderTypePurchase && isReceipt && receiptID != "" {
		action := receiptActionPrefix + receiptID
		movs, err := movementsFor(ctx, r, o, func(a string) bool { return a == action })
		if err != nil {
			return nil, err
		}
		if len(movs) > 0 {
			return replayed(o, movs), nil
		}
	}

	if o.Status != req.Target || req.Target == entity.StatusPartiallyReceived {
		return nil, nil
	}
	match := func(a string) bool { return a == string(req.Target) }
	if req.Target == entity.StatusReceived {
		match = func(a string) bool { return strings.HasPrefix(a, receiptActionPrefix) }
	}
	movs, err := movementsFor(ctx, r, o, match)
	if err != nil {
		return nil, err
	}
	return replayed(o, movs), nil
}

func movementsFor(ctx context.Context, r repository.Repos, o *entity.Order, match func(action string) bool) ([]*entity.StockMovement, error) {
	all, err := r.Movements.ListByReference(ctx, o.ReferenceType(), o.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.StockMovement, 0, len(all))
	for _, m := range all {
		if match(m.Reference.Action) {
			out = append(out, m)
		}
	}
	return out, nil
}

func replayed(o *entity.Order, movs []*entity.StockMovement) *TransitionResult {
	return &TransitionResult{Order: o, Previous: o.Status, Status: o.Status, Movements: movs, Replayed: true}
}

func intentFor(e lifecycle.LineEffect, ref entity.Reference, performedBy string) inventory.MovementIntent {
	in := inventory.MovementIntent{
		ProductID:   e.ProductID,
		Type:        e.Type,
		Reason:      e.Reason,
		Quantity:    e.Quantity,
		UnitCost:    e.UnitCost,
		Reference:   &ref,
		PerformedBy: performedBy,
	}
	switch e.Type {
	case entity.MovementTypeOut:
		in.FromLocation = e.Location
	case entity.MovementTypeIn:
		in.ToLocation = e.Location
	}
	return in
}
