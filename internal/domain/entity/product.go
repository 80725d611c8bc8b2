package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLocation cantidad de un producto en una ubicación (bodega, estante, sucursal).
type StockLocation struct {
	LocationID string `json:"location_id"`
	Quantity   int64  `json:"quantity"`
}

// Product representa un producto o SKU del inventario.
// CurrentStock y StockLocations son una caché del ledger: solo el Ledger los escribe.
type Product struct {
	ID             string
	SKU            string // único
	Barcode        string // único si no está vacío
	Name           string
	CurrentStock   int64
	StockLocations []StockLocation
	MinimumStock   int64
	CostPrice      decimal.Decimal
	SellingPrice   decimal.Decimal
	IsPerishable   bool
	ExpiryDate     *time.Time
	Version        int64 // se incrementa en cada escritura de stock
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TracksLocations indica si el producto lleva desglose por ubicación.
func (p *Product) TracksLocations() bool {
	return len(p.StockLocations) > 0
}

// LocationQuantity devuelve la cantidad en una ubicación (0 si no existe).
func (p *Product) LocationQuantity(locationID string) int64 {
	for _, l := range p.StockLocations {
		if l.LocationID == locationID {
			return l.Quantity
		}
	}
	return 0
}

// AddToLocation suma delta (puede ser negativo) a la ubicación, creándola si no existe.
func (p *Product) AddToLocation(locationID string, delta int64) {
	for i := range p.StockLocations {
		if p.StockLocations[i].LocationID == locationID {
			p.StockLocations[i].Quantity += delta
			return
		}
	}
	p.StockLocations = append(p.StockLocations, StockLocation{LocationID: locationID, Quantity: delta})
}

// LocationsTotal suma las cantidades del desglose.
func (p *Product) LocationsTotal() int64 {
	var total int64
	for _, l := range p.StockLocations {
		total += l.Quantity
	}
	return total
}

// Clone copia el producto, incluido el desglose por ubicación.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	if p.StockLocations != nil {
		c.StockLocations = make([]StockLocation, len(p.StockLocations))
		copy(c.StockLocations, p.StockLocations)
	}
	if p.ExpiryDate != nil {
		d := *p.ExpiryDate
		c.ExpiryDate = &d
	}
	return &c
}
