package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// StockMovementRepository define el puerto del ledger de movimientos (solo inserción).
type StockMovementRepository interface {
	// Create agrega el movimiento y le asigna su posición (Seq) en el ledger.
	Create(ctx context.Context, movement *entity.StockMovement) error
	// GetByReference busca el movimiento de la llave de idempotencia (tipo, id, acción, producto).
	GetByReference(ctx context.Context, ref entity.Reference, productID string) (*entity.StockMovement, error)
	// ListByProduct devuelve los movimientos del producto en orden del ledger.
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockMovement, error)
	// ListByReference devuelve los movimientos de un documento (todas las acciones).
	ListByReference(ctx context.Context, refType, refID string) ([]*entity.StockMovement, error)
}
