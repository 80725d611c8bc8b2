package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// En ajustes, una cantidad negativa descuenta stock.
type RegisterMovementRequest struct {
	ProductID    string           `json:"product_id" validate:"required"`
	Type         string           `json:"type" validate:"required,oneof=in out transfer adjustment"`
	Reason       string           `json:"reason" validate:"required"`
	Quantity     int64            `json:"quantity" validate:"ne=0"`
	FromLocation string           `json:"from_location,omitempty"`
	ToLocation   string           `json:"to_location,omitempty"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`
	Reference    *ReferenceDTO    `json:"reference,omitempty"`
	Notes        string           `json:"notes,omitempty" validate:"max=500"`
	MovementDate *time.Time       `json:"movement_date,omitempty"`
}

// ReferenceDTO documento que origina el movimiento.
type ReferenceDTO struct {
	Type   string `json:"type" validate:"required"`
	ID     string `json:"id" validate:"required"`
	Number string `json:"number,omitempty"`
	Action string `json:"action,omitempty"`
}

// MovementResponse entrada del ledger.
type MovementResponse struct {
	ID            string           `json:"id"`
	Seq           int64            `json:"seq"`
	ProductID     string           `json:"product_id"`
	Type          string           `json:"type"`
	Reason        string           `json:"reason"`
	Quantity      int64            `json:"quantity"`
	PreviousStock int64            `json:"previous_stock"`
	NewStock      int64            `json:"new_stock"`
	FromLocation  string           `json:"from_location,omitempty"`
	ToLocation    string           `json:"to_location,omitempty"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	TotalCost     *decimal.Decimal `json:"total_cost,omitempty"`
	Reference     *ReferenceDTO    `json:"reference,omitempty"`
	PerformedBy   string           `json:"performed_by,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	MovementDate  time.Time        `json:"movement_date"`
	CreatedAt     time.Time        `json:"created_at"`
}

// ApplyMovementResponse resultado de aplicar un movimiento. Duplicate indica que la referencia
// ya estaba aplicada y se devolvió el movimiento existente.
type ApplyMovementResponse struct {
	Movement  MovementResponse `json:"movement"`
	Duplicate bool             `json:"duplicate"`
}

// MovementListResponse historial de un producto en orden del ledger.
type MovementListResponse struct {
	ProductID string             `json:"product_id"`
	Items     []MovementResponse `json:"items"`
}
