// Package fulfillment coordina pedidos de venta y compra con el ledger de stock.
package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/sequence"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/lifecycle"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// CreateOrderInput datos para crear un pedido en borrador.
type CreateOrderInput struct {
	Type      entity.OrderType `validate:"required"`
	PartyID   string           `validate:"max=100"`
	Notes     string           `validate:"max=500"`
	CreatedBy string
	Items     []ItemInput `validate:"required,min=1,dive"`
}

// ItemInput línea del pedido a crear.
type ItemInput struct {
	ProductID string `validate:"required"`
	Quantity  int64  `validate:"gte=1"`
	UnitPrice decimal.Decimal
	Location  string `validate:"max=100"`
}

// Orders creación y consulta de pedidos.
type Orders struct {
	tx        inventory.TxRunner
	orders    repository.OrderRepository
	products  repository.ProductRepository
	sequencer *sequence.Sequencer
	validate  *validator.Validate
	log       zerolog.Logger
}

// NewOrders construye el servicio de pedidos.
func NewOrders(
	tx inventory.TxRunner,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	sequencer *sequence.Sequencer,
	log zerolog.Logger,
) *Orders {
	return &Orders{
		tx:        tx,
		orders:    orders,
		products:  products,
		sequencer: sequencer,
		validate:  validator.New(),
		log:       log.With().Str("component", "orders").Logger(),
	}
}

// Create valida las líneas, obtiene el consecutivo y guarda el pedido en borrador.
// Si el consecutivo no está disponible no se persiste nada.
func (s *Orders) Create(ctx context.Context, in CreateOrderInput) (*entity.Order, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: tipo de pedido %q", domain.ErrInvalidInput, in.Type)
	}

	seen := make(map[string]bool, len(in.Items))
	items := make([]entity.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		if seen[it.ProductID] {
			return nil, fmt.Errorf("%w: producto %s repetido en el pedido", domain.ErrInvalidInput, it.ProductID)
		}
		seen[it.ProductID] = true
		if it.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: precio negativo en %s", domain.ErrInvalidInput, it.ProductID)
		}
		p, err := s.products.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, inventory.StorageError(fmt.Errorf("consultar producto: %w", err))
		}
		if p == nil {
			return nil, fmt.Errorf("%w: producto %s no existe", domain.ErrInvalidInput, it.ProductID)
		}
		price := it.UnitPrice
		if price.IsZero() {
			if in.Type == entity.OrderTypeSale {
				price = p.SellingPrice
			} else {
				price = p.CostPrice
			}
		}
		items = append(items, entity.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: price,
			Location:  it.Location,
		})
	}

	n, number, err := s.sequencer.NextNumber(ctx, entity.DocumentTypeFor(in.Type))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &entity.Order{
		ID:            uuid.New().String(),
		Type:          in.Type,
		Number:        number,
		SequenceNo:    n,
		Status:        entity.StatusDraft,
		PaymentStatus: entity.PaymentUnpaid,
		PartyID:       in.PartyID,
		Items:         items,
		Notes:         in.Notes,
		CreatedBy:     in.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	// Cabecera y líneas en una sola tx: nunca queda un pedido a medias con su número.
	err = s.tx.Run(ctx, func(r repository.Repos) error {
		return r.Orders.Create(ctx, order)
	})
	if err != nil {
		s.log.Error().Err(err).Str("number", order.Number).Msg("no se pudo guardar el pedido")
		return nil, inventory.StorageError(fmt.Errorf("guardar pedido: %w", err))
	}
	s.log.Info().Str("order_id", order.ID).Str("number", order.Number).Str("type", string(order.Type)).Msg("pedido creado")
	return order, nil
}

// Get obtiene un pedido por tipo e ID.
func (s *Orders) Get(ctx context.Context, orderType entity.OrderType, id string) (*entity.Order, error) {
	o, err := s.orders.GetByID(ctx, orderType, id)
	if err != nil {
		return nil, inventory.StorageError(err)
	}
	if o == nil {
		return nil, fmt.Errorf("%w: pedido %s", domain.ErrNotFound, id)
	}
	return o, nil
}

// SetPaymentStatus cambia el estado de pago. No tiene efecto en stock.
// Repetir el estado actual no es un error.
func (s *Orders) SetPaymentStatus(ctx context.Context, orderType entity.OrderType, id string, status entity.PaymentStatus) (*entity.Order, error) {
	var out *entity.Order
	err := s.tx.Run(ctx, func(r repository.Repos) error {
		o, err := r.Orders.GetForUpdate(ctx, orderType, id)
		if err != nil {
			return err
		}
		if o == nil {
			return fmt.Errorf("%w: pedido %s", domain.ErrNotFound, id)
		}
		out = o
		if o.PaymentStatus == status {
			return nil
		}
		if !lifecycle.CanChangePayment(o.PaymentStatus, status) {
			return fmt.Errorf("%w: pago %s -> %s", domain.ErrInvalidTransition, o.PaymentStatus, status)
		}
		o.PaymentStatus = status
		o.UpdatedAt = time.Now()
		return r.Orders.Update(ctx, o)
	})
	if err != nil {
		return nil, inventory.StorageError(err)
	}
	return out, nil
}
