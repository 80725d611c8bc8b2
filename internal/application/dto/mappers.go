package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// FromProduct convierte la entidad a su respuesta HTTP.
func FromProduct(p *entity.Product) ProductResponse {
	out := ProductResponse{
		ID:           p.ID,
		SKU:          p.SKU,
		Barcode:      p.Barcode,
		Name:         p.Name,
		CurrentStock: p.CurrentStock,
		MinimumStock: p.MinimumStock,
		CostPrice:    p.CostPrice,
		SellingPrice: p.SellingPrice,
		IsPerishable: p.IsPerishable,
		ExpiryDate:   p.ExpiryDate,
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	for _, l := range p.StockLocations {
		out.StockLocations = append(out.StockLocations, StockLocationResponse{LocationID: l.LocationID, Quantity: l.Quantity})
	}
	return out
}

// FromMovement convierte un movimiento del ledger.
func FromMovement(m *entity.StockMovement) MovementResponse {
	out := MovementResponse{
		ID:            m.ID,
		Seq:           m.Seq,
		ProductID:     m.ProductID,
		Type:          string(m.Type),
		Reason:        string(m.Reason),
		Quantity:      m.Quantity,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		FromLocation:  m.Location.From,
		ToLocation:    m.Location.To,
		UnitCost:      m.UnitCost,
		TotalCost:     m.TotalCost,
		PerformedBy:   m.PerformedBy,
		Notes:         m.Notes,
		MovementDate:  m.MovementDate,
		CreatedAt:     m.CreatedAt,
	}
	if m.Reference != nil {
		out.Reference = &ReferenceDTO{
			Type:   m.Reference.Type,
			ID:     m.Reference.ID,
			Number: m.Reference.Number,
			Action: m.Reference.Action,
		}
	}
	return out
}

// FromMovements convierte una lista de movimientos; nunca devuelve nil.
func FromMovements(movs []*entity.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, FromMovement(m))
	}
	return out
}

// FromOrder convierte un pedido y calcula su total.
func FromOrder(o *entity.Order) OrderResponse {
	out := OrderResponse{
		ID:            o.ID,
		Type:          string(o.Type),
		Number:        o.Number,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PartyID:       o.PartyID,
		Items:         make([]OrderItemResponse, 0, len(o.Items)),
		Total:         decimal.Zero,
		Notes:         o.Notes,
		CreatedBy:     o.CreatedBy,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, OrderItemResponse{
			ProductID:        it.ProductID,
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice,
			ReceivedQuantity: it.ReceivedQuantity,
			Location:         it.Location,
		})
		out.Total = out.Total.Add(it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)))
	}
	return out
}
