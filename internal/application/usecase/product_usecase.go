package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ProductUseCase registro y consulta de productos. Stock y costo se manejan vía movimientos.
type ProductUseCase struct {
	tx       inventory.TxRunner
	repo     repository.ProductRepository
	ledger   *inventory.Ledger
	validate *validator.Validate
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(tx inventory.TxRunner, repo repository.ProductRepository, ledger *inventory.Ledger) *ProductUseCase {
	return &ProductUseCase{tx: tx, repo: repo, ledger: ledger, validate: validator.New()}
}

// Create registra el producto con stock cero y, si hay stock inicial, aplica un movimiento
// in/opening_stock en la misma transacción.
func (uc *ProductUseCase) Create(ctx context.Context, userID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := uc.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	if in.CostPrice.IsNegative() || in.SellingPrice.IsNegative() {
		return nil, fmt.Errorf("%w: precios negativos", domain.ErrInvalidInput)
	}
	if in.IsPerishable && in.ExpiryDate == nil {
		return nil, fmt.Errorf("%w: un producto perecedero requiere fecha de vencimiento", domain.ErrInvalidInput)
	}
	if in.OpeningLocation != "" && in.OpeningStock == 0 {
		return nil, fmt.Errorf("%w: ubicación inicial sin stock inicial", domain.ErrInvalidInput)
	}

	now := time.Now()
	product := &entity.Product{
		ID:           uuid.New().String(),
		SKU:          strings.TrimSpace(in.SKU),
		Barcode:      strings.TrimSpace(in.Barcode),
		Name:         in.Name,
		MinimumStock: in.MinimumStock,
		CostPrice:    in.CostPrice,
		SellingPrice: in.SellingPrice,
		IsPerishable: in.IsPerishable,
		ExpiryDate:   in.ExpiryDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		if err := r.Products.Create(ctx, product); err != nil {
			return err
		}
		if in.OpeningStock == 0 {
			return nil
		}
		cost := in.CostPrice
		mov, err := uc.ledger.ApplyWith(ctx, r, inventory.MovementIntent{
			ProductID:   product.ID,
			Type:        entity.MovementTypeIn,
			Reason:      entity.ReasonOpeningStock,
			Quantity:    in.OpeningStock,
			ToLocation:  in.OpeningLocation,
			UnitCost:    &cost,
			Reference:   &entity.Reference{Type: "product", ID: product.ID, Action: string(entity.ReasonOpeningStock)},
			PerformedBy: userID,
			Notes:       "stock inicial",
		})
		if err != nil {
			return err
		}
		product.CurrentStock = mov.NewStock
		product.Version = 1
		if in.OpeningLocation != "" {
			product.StockLocations = []entity.StockLocation{{LocationID: in.OpeningLocation, Quantity: in.OpeningStock}}
		}
		return nil
	})
	if err != nil {
		return nil, inventory.StorageError(err)
	}
	out := dto.FromProduct(product)
	return &out, nil
}

// GetByID obtiene un producto por ID. Devuelve (nil, nil) si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	out := dto.FromProduct(product)
	return &out, nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, dto.FromProduct(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}
