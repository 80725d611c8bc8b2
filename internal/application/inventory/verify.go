package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ConsistencyReport compara el caché de stock de un producto con su historial.
type ConsistencyReport struct {
	ProductID      string  `json:"product_id"`
	SKU            string  `json:"sku"`
	CurrentStock   int64   `json:"current_stock"`
	LedgerStock    int64   `json:"ledger_stock"`
	Movements      int     `json:"movements"`
	LocationsTotal *int64  `json:"locations_total,omitempty"`
	ChainBreaks    []int64 `json:"chain_breaks,omitempty"` // Seq de movimientos cuyo PreviousStock no cuadra
	Consistent     bool    `json:"consistent"`
}

// Verify recorre el historial del producto desde cero y lo compara con CurrentStock.
// Toma el bloqueo del producto para leer caché e historial en el mismo punto.
func (l *Ledger) Verify(ctx context.Context, productID string) (*ConsistencyReport, error) {
	var report *ConsistencyReport
	err := l.tx.Run(ctx, func(r repository.Repos) error {
		p, err := r.Products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
		}
		movs, err := r.Movements.ListByProduct(ctx, productID)
		if err != nil {
			return err
		}

		report = &ConsistencyReport{
			ProductID:    p.ID,
			SKU:          p.SKU,
			CurrentStock: p.CurrentStock,
			Movements:    len(movs),
		}
		var running int64
		for _, m := range movs {
			if m.PreviousStock != running {
				report.ChainBreaks = append(report.ChainBreaks, m.Seq)
			}
			running += m.Delta()
		}
		report.LedgerStock = running
		report.Consistent = running == p.CurrentStock && len(report.ChainBreaks) == 0
		if p.TracksLocations() {
			total := p.LocationsTotal()
			report.LocationsTotal = &total
			if total != p.CurrentStock {
				report.Consistent = false
			}
		}
		return nil
	})
	if err != nil {
		return nil, StorageError(err)
	}
	return report, nil
}

// VerifyAll verifica todos los productos por páginas y devuelve solo los inconsistentes.
func (l *Ledger) VerifyAll(ctx context.Context, pageSize int) (checked int, broken []*ConsistencyReport, err error) {
	if pageSize <= 0 {
		pageSize = 100
	}
	for offset := 0; ; offset += pageSize {
		products, err := l.products.List(ctx, pageSize, offset)
		if err != nil {
			return checked, broken, ledgerWrite(err)
		}
		for _, p := range products {
			if err := ctx.Err(); err != nil {
				return checked, broken, err
			}
			report, err := l.Verify(ctx, p.ID)
			if err != nil {
				return checked, broken, err
			}
			checked++
			if !report.Consistent {
				l.log.Error().
					Str("product_id", report.ProductID).
					Int64("current_stock", report.CurrentStock).
					Int64("ledger_stock", report.LedgerStock).
					Ints64("chain_breaks", report.ChainBreaks).
					Msg("caché de stock inconsistente con el ledger")
				broken = append(broken, report)
			}
		}
		if len(products) < pageSize {
			return checked, broken, nil
		}
	}
}
