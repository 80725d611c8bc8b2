// Package alerts consultas de stock bajo, agotado y próximo a vencer sobre el caché de stock.
package alerts

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// Alerts consultas de solo lectura. Los resultados pueden ir levemente atrasados respecto a
// movimientos en curso.
type Alerts struct {
	products repository.ProductRepository
	now      func() time.Time
}

// New construye el servicio de alertas.
func New(products repository.ProductRepository) *Alerts {
	return &Alerts{products: products, now: time.Now}
}

// LowStock productos con 0 < CurrentStock <= MinimumStock.
func (a *Alerts) LowStock(ctx context.Context) ([]*entity.Product, error) {
	return a.products.ListLowStock(ctx)
}

// OutOfStock productos sin stock (incluye negativos cuando la política lo permite).
func (a *Alerts) OutOfStock(ctx context.Context) ([]*entity.Product, error) {
	return a.products.ListOutOfStock(ctx)
}

// ExpiringWithin perecederos con stock que vencen entre hoy y hoy + days.
func (a *Alerts) ExpiringWithin(ctx context.Context, days int) ([]*entity.Product, error) {
	if days < 0 {
		return nil, fmt.Errorf("%w: días negativos", domain.ErrInvalidInput)
	}
	now := a.now()
	return a.products.ListExpiring(ctx, now, now.AddDate(0, 0, days))
}

// Summary ejecuta las tres consultas en paralelo.
func (a *Alerts) Summary(ctx context.Context, days int) (*dto.AlertSummaryDTO, error) {
	if days < 0 {
		return nil, fmt.Errorf("%w: días negativos", domain.ErrInvalidInput)
	}
	var low, out, expiring []*entity.Product
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		low, err = a.LowStock(gctx)
		return err
	})
	g.Go(func() (err error) {
		out, err = a.OutOfStock(gctx)
		return err
	})
	g.Go(func() (err error) {
		expiring, err = a.ExpiringWithin(gctx, days)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := a.now()
	return &dto.AlertSummaryDTO{
		LowStock:    StockAlerts(low),
		OutOfStock:  StockAlerts(out),
		Expiring:    ExpiringAlerts(expiring, now),
		WindowDays:  days,
		GeneratedAt: now,
	}, nil
}

// StockAlerts arma las alertas con la sugerencia de reposición:
// stock ideal = MinimumStock * 1.5, cantidad sugerida = ideal - actual.
// Prioridad: mayor déficit relativo primero, luego mayor costo estimado.
func StockAlerts(products []*entity.Product) []dto.StockAlertDTO {
	out := make([]dto.StockAlertDTO, 0, len(products))
	for _, p := range products {
		ideal := int64(math.Ceil(float64(p.MinimumStock) * 1.5))
		suggested := ideal - p.CurrentStock
		if suggested < 0 {
			suggested = 0
		}
		out = append(out, dto.StockAlertDTO{
			ProductID:         p.ID,
			SKU:               p.SKU,
			ProductName:       p.Name,
			CurrentStock:      p.CurrentStock,
			MinimumStock:      p.MinimumStock,
			IdealStock:        ideal,
			SuggestedOrderQty: suggested,
			UnitCost:          p.CostPrice,
			EstimatedCost:     p.CostPrice.Mul(decimal.NewFromInt(suggested)),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ra, rb := deficitRatio(a), deficitRatio(b)
		if ra != rb {
			return ra > rb
		}
		return a.EstimatedCost.GreaterThan(b.EstimatedCost)
	})
	for i := range out {
		out[i].Priority = i + 1
	}
	return out
}

func deficitRatio(a dto.StockAlertDTO) float64 {
	if a.MinimumStock <= 0 {
		return 0
	}
	return float64(a.MinimumStock-a.CurrentStock) / float64(a.MinimumStock)
}

// ExpiringAlerts arma las alertas de vencimiento con los días restantes.
func ExpiringAlerts(products []*entity.Product, now time.Time) []dto.ExpiringProductDTO {
	out := make([]dto.ExpiringProductDTO, 0, len(products))
	for _, p := range products {
		if p.ExpiryDate == nil {
			continue
		}
		out = append(out, dto.ExpiringProductDTO{
			ProductID:    p.ID,
			SKU:          p.SKU,
			ProductName:  p.Name,
			CurrentStock: p.CurrentStock,
			ExpiryDate:   *p.ExpiryDate,
			DaysLeft:     int(p.ExpiryDate.Sub(now).Hours() / 24),
		})
	}
	return out
}
