package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para registrar un producto.
// El stock inicial entra como movimiento in/opening_stock, nunca escribiendo el caché directo.
type CreateProductRequest struct {
	SKU             string          `json:"sku" validate:"required,min=1,max=100"`
	Barcode         string          `json:"barcode" validate:"omitempty,max=100"`
	Name            string          `json:"name" validate:"required,min=1,max=200"`
	MinimumStock    int64           `json:"minimum_stock" validate:"gte=0"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	IsPerishable    bool            `json:"is_perishable"`
	ExpiryDate      *time.Time      `json:"expiry_date"`
	OpeningStock    int64           `json:"opening_stock" validate:"gte=0"`
	OpeningLocation string          `json:"opening_location" validate:"omitempty,max=100"`
}

// StockLocationResponse cantidad por ubicación.
type StockLocationResponse struct {
	LocationID string `json:"location_id"`
	Quantity   int64  `json:"quantity"`
}

// ProductResponse salida de un producto con su caché de stock.
type ProductResponse struct {
	ID             string                  `json:"id"`
	SKU            string                  `json:"sku"`
	Barcode        string                  `json:"barcode,omitempty"`
	Name           string                  `json:"name"`
	CurrentStock   int64                   `json:"current_stock"`
	StockLocations []StockLocationResponse `json:"stock_locations,omitempty"`
	MinimumStock   int64                   `json:"minimum_stock"`
	CostPrice      decimal.Decimal         `json:"cost_price"`
	SellingPrice   decimal.Decimal         `json:"selling_price"`
	IsPerishable   bool                    `json:"is_perishable"`
	ExpiryDate     *time.Time              `json:"expiry_date,omitempty"`
	Version        int64                   `json:"version"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
