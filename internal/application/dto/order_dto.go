package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemRequest línea de pedido.
type OrderItemRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  int64           `json:"quantity" validate:"gte=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Location  string          `json:"location,omitempty" validate:"max=100"`
}

// CreateOrderRequest body para POST /api/orders/:type.
type CreateOrderRequest struct {
	PartyID string             `json:"party_id" validate:"max=100"`
	Notes   string             `json:"notes" validate:"max=500"`
	Items   []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ReceiptLineRequest cantidad recibida de un producto (incremental).
type ReceiptLineRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"gte=1"`
}

// TransitionRequest body para POST /api/orders/:type/:id/transitions.
type TransitionRequest struct {
	Status    string               `json:"status" validate:"required"`
	ReceiptID string               `json:"receipt_id,omitempty" validate:"max=100"`
	Receipts  []ReceiptLineRequest `json:"receipts,omitempty" validate:"dive"`
}

// PaymentStatusRequest body para PUT /api/orders/:type/:id/payment-status.
type PaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=unpaid partial paid refunded"`
}

// OrderItemResponse línea de pedido.
type OrderItemResponse struct {
	ProductID        string          `json:"product_id"`
	Quantity         int64           `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	ReceivedQuantity int64           `json:"received_quantity,omitempty"`
	Location         string          `json:"location,omitempty"`
}

// OrderResponse salida de un pedido.
type OrderResponse struct {
	ID            string              `json:"id"`
	Type          string              `json:"type"`
	Number        string              `json:"number"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	PartyID       string              `json:"party_id,omitempty"`
	Items         []OrderItemResponse `json:"items"`
	Total         decimal.Decimal     `json:"total"`
	Notes         string              `json:"notes,omitempty"`
	CreatedBy     string              `json:"created_by,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// TransitionResponse resultado de una transición. Replayed indica que el pedido ya estaba
// en el estado pedido y no se generaron movimientos nuevos.
type TransitionResponse struct {
	Order     OrderResponse      `json:"order"`
	Previous  string             `json:"previous_status"`
	Movements []MovementResponse `json:"movements"`
	Replayed  bool               `json:"replayed"`
}
