package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType tipo de pedido.
type OrderType string

// Tipos de pedido.
const (
	OrderTypeSale     OrderType = "sale"
	OrderTypePurchase OrderType = "purchase"
)

// Valid indica si el tipo es conocido.
func (t OrderType) Valid() bool {
	return t == OrderTypeSale || t == OrderTypePurchase
}

// OrderStatus estado del ciclo de vida del pedido.
type OrderStatus string

// Estados de venta.
const (
	StatusDraft     OrderStatus = "draft"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
	StatusReturned  OrderStatus = "returned"
)

// Estados de compra (draft y cancelled son compartidos).
const (
	StatusPending           OrderStatus = "pending"
	StatusApproved          OrderStatus = "approved"
	StatusOrdered           OrderStatus = "ordered"
	StatusPartiallyReceived OrderStatus = "partially_received"
	StatusReceived          OrderStatus = "received"
)

// PaymentStatus estado de pago, paralelo al estado del pedido y sin efecto en stock.
type PaymentStatus string

// Estados de pago.
const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// OrderItem línea del pedido.
type OrderItem struct {
	ProductID        string
	Quantity         int64
	UnitPrice        decimal.Decimal
	ReceivedQuantity int64  // solo compras
	Location         string // ubicación de salida/entrada (opcional)
}

// Outstanding cantidad pendiente de recibir.
func (i OrderItem) Outstanding() int64 {
	if i.ReceivedQuantity >= i.Quantity {
		return 0
	}
	return i.Quantity - i.ReceivedQuantity
}

// Order cabecera de venta o compra.
type Order struct {
	ID            string
	Type          OrderType
	Number        string // INV-000123 / PO-000045
	SequenceNo    int64
	Status        OrderStatus
	PaymentStatus PaymentStatus
	PartyID       string // cliente o proveedor
	Items         []OrderItem
	ReceiptSeq    int64 // recepciones registradas (compras)
	Notes         string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FullyReceived indica si todas las líneas se recibieron completas.
func (o *Order) FullyReceived() bool {
	for _, it := range o.Items {
		if it.Outstanding() > 0 {
			return false
		}
	}
	return true
}

// ReferenceType tipo de referencia usado en los movimientos del pedido.
func (o *Order) ReferenceType() string {
	return string(o.Type)
}

// Clone copia el pedido, incluidas sus líneas.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = make([]OrderItem, len(o.Items))
	copy(c.Items, o.Items)
	return &c
}
