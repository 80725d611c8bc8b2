package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia para ventas y compras.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, orderType entity.OrderType, id string) (*entity.Order, error)
	GetForUpdate(ctx context.Context, orderType entity.OrderType, id string) (*entity.Order, error)
	// Update persiste estado, estado de pago, cantidades recibidas y contador de recepciones.
	Update(ctx context.Context, order *entity.Order) error
}
