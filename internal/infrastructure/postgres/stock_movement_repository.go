package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo ledger de movimientos sobre PostgreSQL (usable con pool o tx). Solo inserta.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `seq, id, product_id, type, reason, quantity, previous_stock, new_stock,
	from_location, to_location, unit_cost, total_cost, ref_type, ref_id, ref_number, ref_action,
	performed_by, notes, movement_date, created_at`

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var refType, refID, refNumber *string
	var refAction string
	err := row.Scan(
		&m.Seq, &m.ID, &m.ProductID, &m.Type, &m.Reason, &m.Quantity, &m.PreviousStock, &m.NewStock,
		&m.Location.From, &m.Location.To, &m.UnitCost, &m.TotalCost, &refType, &refID, &refNumber, &refAction,
		&m.PerformedBy, &m.Notes, &m.MovementDate, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if refType != nil && refID != nil {
		m.Reference = &entity.Reference{Type: *refType, ID: *refID, Action: refAction}
		if refNumber != nil {
			m.Reference.Number = *refNumber
		}
	}
	return &m, nil
}

// Create agrega el movimiento y devuelve su seq. La llave de referencia repetida devuelve domain.ErrDuplicate.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	var refType, refID, refNumber *string
	var refAction string
	if m.Reference != nil {
		refType, refID = &m.Reference.Type, &m.Reference.ID
		if m.Reference.Number != "" {
			refNumber = &m.Reference.Number
		}
		refAction = m.Reference.Action
	}
	query := `
		INSERT INTO stock_movements (id, product_id, type, reason, quantity, previous_stock, new_stock,
			from_location, to_location, unit_cost, total_cost, ref_type, ref_id, ref_number, ref_action,
			performed_by, notes, movement_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.ProductID, m.Type, m.Reason, m.Quantity, m.PreviousStock, m.NewStock,
		m.Location.From, m.Location.To, m.UnitCost, m.TotalCost, refType, refID, refNumber, refAction,
		m.PerformedBy, m.Notes, m.MovementDate, m.CreatedAt,
	).Scan(&m.Seq)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: movimiento %s", domain.ErrDuplicate, m.ID)
		}
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// GetByReference busca el movimiento de la llave (tipo, id, acción, producto).
func (r *StockMovementRepo) GetByReference(ctx context.Context, ref entity.Reference, productID string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE ref_type = $1 AND ref_id = $2 AND ref_action = $3 AND product_id = $4`
	m, err := scanMovement(r.q.QueryRow(ctx, query, ref.Type, ref.ID, ref.Action, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement by reference: %w", err)
	}
	return m, nil
}

// ListByProduct historial del producto en orden del ledger.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockMovement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE product_id = $1 ORDER BY seq`, productID)
}

// ListByReference movimientos de un documento, todas las acciones.
func (r *StockMovementRepo) ListByReference(ctx context.Context, refType, refID string) ([]*entity.StockMovement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM stock_movements
		WHERE ref_type = $1 AND ref_id = $2 ORDER BY seq`, refType, refID)
}

func (r *StockMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.StockMovement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
