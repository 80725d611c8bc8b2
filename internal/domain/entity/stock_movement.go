package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento de stock.
type MovementType string

// Tipos de movimiento.
const (
	MovementTypeIn         MovementType = "in"         // entrada
	MovementTypeOut        MovementType = "out"        // salida
	MovementTypeTransfer   MovementType = "transfer"   // traslado entre ubicaciones
	MovementTypeAdjustment MovementType = "adjustment" // ajuste (+/-)
)

// Valid indica si el tipo es conocido.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeIn, MovementTypeOut, MovementTypeTransfer, MovementTypeAdjustment:
		return true
	}
	return false
}

// MovementReason motivo del movimiento.
type MovementReason string

// Motivos de movimiento.
const (
	ReasonPurchase      MovementReason = "purchase"
	ReasonSale          MovementReason = "sale"
	ReasonReturn        MovementReason = "return"
	ReasonDamage        MovementReason = "damage"
	ReasonLoss          MovementReason = "loss"
	ReasonTheft         MovementReason = "theft"
	ReasonTransfer      MovementReason = "transfer"
	ReasonAdjustment    MovementReason = "adjustment"
	ReasonOpeningStock  MovementReason = "opening_stock"
	ReasonManufacturing MovementReason = "manufacturing"
)

// Valid indica si el motivo es conocido.
func (r MovementReason) Valid() bool {
	switch r {
	case ReasonPurchase, ReasonSale, ReasonReturn, ReasonDamage, ReasonLoss, ReasonTheft,
		ReasonTransfer, ReasonAdjustment, ReasonOpeningStock, ReasonManufacturing:
		return true
	}
	return false
}

// Reference vincula un movimiento con el documento que lo originó.
// (Type, ID, Action, producto) identifica el movimiento de forma única: es la llave de idempotencia.
type Reference struct {
	Type   string `json:"type"`             // sale, purchase, manual...
	ID     string `json:"id"`               // ID del documento
	Number string `json:"number,omitempty"` // número visible (INV-000123)
	Action string `json:"action,omitempty"` // transición que lo generó (confirmed, cancelled, receipt-2)
}

// MovementLocation origen/destino del movimiento.
type MovementLocation struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// StockMovement entrada inmutable del ledger de stock.
type StockMovement struct {
	ID            string
	Seq           int64 // posición en el ledger, creciente
	ProductID     string
	Type          MovementType
	Reason        MovementReason
	Quantity      int64 // siempre >= 1
	PreviousStock int64
	NewStock      int64
	Location      MovementLocation
	UnitCost      *decimal.Decimal
	TotalCost     *decimal.Decimal
	Reference     *Reference
	PerformedBy   string
	Notes         string
	MovementDate  time.Time
	CreatedAt     time.Time
}

// Delta variación neta del stock total que produjo el movimiento.
func (m *StockMovement) Delta() int64 {
	return m.NewStock - m.PreviousStock
}

// Clone copia el movimiento (los punteros se copian por valor).
func (m *StockMovement) Clone() *StockMovement {
	if m == nil {
		return nil
	}
	c := *m
	if m.Reference != nil {
		ref := *m.Reference
		c.Reference = &ref
	}
	if m.UnitCost != nil {
		v := *m.UnitCost
		c.UnitCost = &v
	}
	if m.TotalCost != nil {
		v := *m.TotalCost
		c.TotalCost = &v
	}
	return &c
}
