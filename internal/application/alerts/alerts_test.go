package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T) *Alerts {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	in := func(days int) *time.Time {
		d := now.AddDate(0, 0, days)
		return &d
	}
	products := []*entity.Product{
		{ID: "ok", SKU: "A-OK", CurrentStock: 50, MinimumStock: 10},
		{ID: "low", SKU: "B-LOW", CurrentStock: 8, MinimumStock: 10, CostPrice: decimal.NewFromInt(2)},
		{ID: "edge", SKU: "C-EDGE", CurrentStock: 10, MinimumStock: 10},
		{ID: "critical", SKU: "D-CRIT", CurrentStock: 1, MinimumStock: 10},
		{ID: "out", SKU: "E-OUT", CurrentStock: 0, MinimumStock: 5},
		{ID: "milk", SKU: "F-MILK", CurrentStock: 20, IsPerishable: true, ExpiryDate: in(3)},
		{ID: "yogurt", SKU: "G-YOG", CurrentStock: 20, IsPerishable: true, ExpiryDate: in(20)},
		{ID: "expired-empty", SKU: "H-EMPTY", CurrentStock: 0, IsPerishable: true, ExpiryDate: in(1)},
		{ID: "past", SKU: "I-PAST", CurrentStock: 4, IsPerishable: true, ExpiryDate: in(-2)},
	}
	for _, p := range products {
		// Carga directa al caché: estas pruebas solo leen.
		require.NoError(t, store.Products().Create(ctx, p))
	}
	a := New(store.Products())
	a.now = func() time.Time { return now }
	return a
}

func ids(products []*entity.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestLowStock(t *testing.T) {
	got, err := seed(t).LowStock(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"low", "edge", "critical"}, ids(got))
}

func TestOutOfStock(t *testing.T) {
	got, err := seed(t).OutOfStock(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"out", "expired-empty"}, ids(got))
}

func TestOutOfStock_StockNegativoNoCuenta(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Products().Create(ctx, &entity.Product{ID: "zero", SKU: "Z-0", CurrentStock: 0}))
	require.NoError(t, store.Products().Create(ctx, &entity.Product{ID: "neg", SKU: "Z-NEG", CurrentStock: -3}))

	got, err := New(store.Products()).OutOfStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"zero"}, ids(got))
}

func TestExpiringWithin(t *testing.T) {
	a := seed(t)
	got, err := a.ExpiringWithin(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"milk"}, ids(got))

	got, err = a.ExpiringWithin(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"milk", "yogurt"}, ids(got), "ordenados por vencimiento")

	_, err = a.ExpiringWithin(context.Background(), -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSummary_PrioridadYSugerencia(t *testing.T) {
	s, err := seed(t).Summary(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, s.WindowDays)
	require.Len(t, s.LowStock, 3)
	require.Len(t, s.OutOfStock, 2)
	require.Len(t, s.Expiring, 1)
	assert.Equal(t, 3, s.Expiring[0].DaysLeft)

	first := s.LowStock[0]
	assert.Equal(t, "critical", first.ProductID, "mayor déficit relativo primero")
	assert.Equal(t, 1, first.Priority)
	assert.Equal(t, int64(15), first.IdealStock)
	assert.Equal(t, int64(14), first.SuggestedOrderQty)

	var low = s.LowStock[1]
	assert.Equal(t, "low", low.ProductID)
	assert.True(t, low.EstimatedCost.Equal(decimal.NewFromInt(14)))
}
