package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockAlertDTO producto en alerta con una sugerencia de reposición.
type StockAlertDTO struct {
	ProductID         string          `json:"product_id"`
	SKU               string          `json:"sku"`
	ProductName       string          `json:"product_name"`
	CurrentStock      int64           `json:"current_stock"`
	MinimumStock      int64           `json:"minimum_stock"`
	IdealStock        int64           `json:"ideal_stock"`          // MinimumStock * 1.5
	SuggestedOrderQty int64           `json:"suggested_order_qty"`  // IdealStock - CurrentStock
	UnitCost          decimal.Decimal `json:"unit_cost"`            // costo promedio ponderado
	EstimatedCost     decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	Priority          int             `json:"priority"`             // 1 = más urgente
}

// ExpiringProductDTO producto perecedero próximo a vencer.
type ExpiringProductDTO struct {
	ProductID    string    `json:"product_id"`
	SKU          string    `json:"sku"`
	ProductName  string    `json:"product_name"`
	CurrentStock int64     `json:"current_stock"`
	ExpiryDate   time.Time `json:"expiry_date"`
	DaysLeft     int       `json:"days_left"`
}

// AlertSummaryDTO las tres consultas de alerta en una sola respuesta.
type AlertSummaryDTO struct {
	LowStock    []StockAlertDTO      `json:"low_stock"`
	OutOfStock  []StockAlertDTO      `json:"out_of_stock"`
	Expiring    []ExpiringProductDTO `json:"expiring"`
	WindowDays  int                  `json:"window_days"`
	GeneratedAt time.Time            `json:"generated_at"`
}
