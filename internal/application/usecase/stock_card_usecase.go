package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// StockCardGenerator genera el kardex de un producto. Lo implementa infrastructure/pdf.
type StockCardGenerator interface {
	GenerateStockCard(ctx context.Context, product *entity.Product, movements []*entity.StockMovement) ([]byte, error)
}

// StockCardUseCase kardex en PDF: producto + historial completo del ledger.
type StockCardUseCase struct {
	products  repository.ProductRepository
	ledger    *inventory.Ledger
	generator StockCardGenerator
}

// NewStockCardUseCase construye el caso de uso.
func NewStockCardUseCase(products repository.ProductRepository, ledger *inventory.Ledger, generator StockCardGenerator) *StockCardUseCase {
	return &StockCardUseCase{products: products, ledger: ledger, generator: generator}
}

// Download devuelve el PDF y el nombre de archivo sugerido.
//
// Retorna domain.ErrNotFound si el producto no existe.
func (uc *StockCardUseCase) Download(ctx context.Context, productID string) (pdfBytes []byte, filename string, err error) {
	p, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return nil, "", fmt.Errorf("kardex: obtener producto: %w", err)
	}
	if p == nil {
		return nil, "", fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	movs, err := uc.ledger.MovementsForProduct(ctx, productID)
	if err != nil {
		return nil, "", err
	}
	doc, err := uc.generator.GenerateStockCard(ctx, p, movs)
	if err != nil {
		return nil, "", err
	}
	return doc, "kardex-" + p.SKU + ".pdf", nil
}
