// Package lifecycle define el ciclo de vida de ventas y compras y el efecto en stock
// de cada transición. Es lógica pura de dominio: no toca almacenamiento.
package lifecycle

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// Grafos de transición: estado actual -> estados alcanzables en un paso.
var (
	saleGraph = map[entity.OrderStatus][]entity.OrderStatus{
		entity.StatusDraft:     {entity.StatusConfirmed, entity.StatusCancelled},
		entity.StatusConfirmed: {entity.StatusShipped, entity.StatusCancelled},
		entity.StatusShipped:   {entity.StatusDelivered, entity.StatusReturned},
		entity.StatusDelivered: {entity.StatusReturned},
	}
	purchaseGraph = map[entity.OrderStatus][]entity.OrderStatus{
		entity.StatusDraft:             {entity.StatusPending, entity.StatusCancelled},
		entity.StatusPending:           {entity.StatusApproved, entity.StatusCancelled},
		entity.StatusApproved:          {entity.StatusOrdered, entity.StatusCancelled},
		entity.StatusOrdered:           {entity.StatusPartiallyReceived, entity.StatusReceived, entity.StatusCancelled},
		entity.StatusPartiallyReceived: {entity.StatusPartiallyReceived, entity.StatusReceived, entity.StatusCancelled},
	}
	paymentGraph = map[entity.PaymentStatus][]entity.PaymentStatus{
		entity.PaymentUnpaid:  {entity.PaymentPartial, entity.PaymentPaid},
		entity.PaymentPartial: {entity.PaymentPartial, entity.PaymentPaid, entity.PaymentRefunded},
		entity.PaymentPaid:    {entity.PaymentRefunded},
	}
)

func graphFor(t entity.OrderType) map[entity.OrderStatus][]entity.OrderStatus {
	if t == entity.OrderTypePurchase {
		return purchaseGraph
	}
	return saleGraph
}

// CanTransition indica si to es alcanzable desde from en un paso.
func CanTransition(t entity.OrderType, from, to entity.OrderStatus) bool {
	for _, next := range graphFor(t)[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus indica si el estado pertenece al ciclo de vida del tipo de pedido.
func ValidStatus(t entity.OrderType, s entity.OrderStatus) bool {
	g := graphFor(t)
	if _, ok := g[s]; ok {
		return true
	}
	for _, targets := range g {
		for _, next := range targets {
			if next == s {
				return true
			}
		}
	}
	return false
}

// CanChangePayment indica si el cambio de estado de pago es válido.
func CanChangePayment(from, to entity.PaymentStatus) bool {
	for _, next := range paymentGraph[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Receipt cantidad recibida (incremental) de un producto en una recepción de compra.
type Receipt struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"gte=1"`
}

// LineEffect movimiento de stock que exige una línea del pedido al entrar al estado destino.
type LineEffect struct {
	ProductID string
	Type      entity.MovementType
	Reason    entity.MovementReason
	Quantity  int64
	Location  string
	UnitCost  *decimal.Decimal
}

// PlanInput datos para calcular el plan de una transición.
type PlanInput struct {
	Order     *entity.Order
	Target    entity.OrderStatus
	Receipts  []Receipt
	ReceiptID string // llave de la recepción; obligatoria en recepciones parciales
}

// Plan resultado: acción de referencia, movimientos por línea y estado final del pedido.
type Plan struct {
	Action  string
	Effects []LineEffect
	Items   []entity.OrderItem
	Status  entity.OrderStatus
	Receipt bool // la transición registra una recepción de compra
}

// BuildPlan valida la transición y calcula sus efectos. No modifica el pedido recibido.
func BuildPlan(in PlanInput) (Plan, error) {
	o := in.Order
	if !CanTransition(o.Type, o.Status, in.Target) {
		return Plan{}, fmt.Errorf("%w: %s %s -> %s", domain.ErrInvalidTransition, o.Type, o.Status, in.Target)
	}
	plan := Plan{
		Action: string(in.Target),
		Items:  o.Clone().Items,
		Status: in.Target,
	}
	switch o.Type {
	case entity.OrderTypeSale:
		plan.Effects = saleEffects(o, in.Target)
	case entity.OrderTypePurchase:
		if err := purchaseEffects(&plan, in); err != nil {
			return Plan{}, err
		}
	}
	return plan, nil
}

func saleEffects(o *entity.Order, target entity.OrderStatus) []LineEffect {
	var typ entity.MovementType
	var reason entity.MovementReason
	switch {
	case target == entity.StatusConfirmed:
		typ, reason = entity.MovementTypeOut, entity.ReasonSale
	case target == entity.StatusReturned:
		typ, reason = entity.MovementTypeIn, entity.ReasonReturn
	case target == entity.StatusCancelled && o.Status == entity.StatusConfirmed:
		typ, reason = entity.MovementTypeIn, entity.ReasonReturn
	default:
		return nil
	}
	effects := make([]LineEffect, 0, len(o.Items))
	for _, it := range o.Items {
		effects = append(effects, LineEffect{
			ProductID: it.ProductID,
			Type:      typ,
			Reason:    reason,
			Quantity:  it.Quantity,
			Location:  it.Location,
		})
	}
	return effects
}

func purchaseEffects(plan *Plan, in PlanInput) error {
	o := in.Order
	switch in.Target {
	case entity.StatusPartiallyReceived, entity.StatusReceived:
		// Sin llave, reintentar una recepción parcial la registraría dos veces.
		if in.Target == entity.StatusPartiallyReceived && strings.TrimSpace(in.ReceiptID) == "" {
			return fmt.Errorf("%w: la recepción parcial requiere receipt_id", domain.ErrInvalidInput)
		}
		deltas, err := receiptDeltas(o, in.Target, in.Receipts)
		if err != nil {
			return err
		}
		plan.Receipt = true
		plan.Action = receiptAction(o, in.ReceiptID)
		for i := range plan.Items {
			it := &plan.Items[i]
			q := deltas[it.ProductID]
			if q == 0 {
				continue
			}
			it.ReceivedQuantity += q
			cost := it.UnitPrice
			plan.Effects = append(plan.Effects, LineEffect{
				ProductID: it.ProductID,
				Type:      entity.MovementTypeIn,
				Reason:    entity.ReasonPurchase,
				Quantity:  q,
				Location:  it.Location,
				UnitCost:  &cost,
			})
		}
		received := &entity.Order{Items: plan.Items}
		if received.FullyReceived() {
			plan.Status = entity.StatusReceived
		}
	case entity.StatusCancelled:
		for _, it := range o.Items {
			if it.ReceivedQuantity <= 0 {
				continue
			}
			cost := it.UnitPrice
			plan.Effects = append(plan.Effects, LineEffect{
				ProductID: it.ProductID,
				Type:      entity.MovementTypeOut,
				Reason:    entity.ReasonReturn,
				Quantity:  it.ReceivedQuantity,
				Location:  it.Location,
				UnitCost:  &cost,
			})
		}
	}
	return nil
}

// receiptDeltas cantidades a recibir por producto. Para received sin detalle se recibe todo lo pendiente.
func receiptDeltas(o *entity.Order, target entity.OrderStatus, receipts []Receipt) (map[string]int64, error) {
	outstanding := make(map[string]int64, len(o.Items))
	for _, it := range o.Items {
		outstanding[it.ProductID] = it.Outstanding()
	}
	deltas := make(map[string]int64, len(receipts))
	for _, r := range receipts {
		pending, ok := outstanding[r.ProductID]
		if !ok || r.Quantity <= 0 {
			return nil, fmt.Errorf("%w: recepción de producto %q", domain.ErrInvalidInput, r.ProductID)
		}
		if _, dup := deltas[r.ProductID]; dup {
			return nil, fmt.Errorf("%w: producto %q repetido en la recepción", domain.ErrInvalidInput, r.ProductID)
		}
		if r.Quantity > pending {
			return nil, fmt.Errorf("%w: se reciben %d y quedan %d pendientes de %q", domain.ErrInvalidInput, r.Quantity, pending, r.ProductID)
		}
		deltas[r.ProductID] = r.Quantity
	}

	if target == entity.StatusReceived {
		if len(receipts) == 0 {
			return outstanding, nil
		}
		// Con detalle explícito, la recepción debe completar el pedido.
		for id, pending := range outstanding {
			if deltas[id] != pending {
				return nil, fmt.Errorf("%w: la recepción no completa el producto %q", domain.ErrInvalidInput, id)
			}
		}
		return deltas, nil
	}

	if len(deltas) == 0 {
		return nil, fmt.Errorf("%w: recepción parcial sin líneas", domain.ErrInvalidInput)
	}
	return deltas, nil
}

func receiptAction(o *entity.Order, receiptID string) string {
	if id := strings.TrimSpace(receiptID); id != "" {
		return "receipt-" + id
	}
	return fmt.Sprintf("receipt-%d", o.ReceiptSeq+1)
}
