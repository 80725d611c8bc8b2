package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCostCalculator(t *testing.T) {
	cases := []struct {
		name       string
		stock      int64
		cost       string
		in         int64
		inCost     string
		wantResult string
	}{
		{"promedio ponderado", 10, "100", 10, "200", "150"},
		{"sin stock toma el costo de la entrada", 0, "100", 5, "80", "80"},
		{"stock negativo toma el costo de la entrada", -3, "100", 5, "80", "80"},
		{"redondeo a cuatro decimales", 3, "1", 0, "0", "1"},
		{"fracción", 2, "10", 1, "11", "10.3333"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CostCalculator(tc.stock, decimal.RequireFromString(tc.cost), tc.in, decimal.RequireFromString(tc.inCost))
			assert.True(t, got.Equal(decimal.RequireFromString(tc.wantResult)), "got %s", got)
		})
	}
}
