package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Las lecturas devuelven (nil, nil) cuando el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate lee el producto y bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// UpdateStock persiste el caché de stock: CurrentStock, StockLocations, CostPrice, Version.
	UpdateStock(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)

	ListLowStock(ctx context.Context) ([]*entity.Product, error)
	ListOutOfStock(ctx context.Context) ([]*entity.Product, error)
	ListExpiring(ctx context.Context, from, to time.Time) ([]*entity.Product, error)
}
