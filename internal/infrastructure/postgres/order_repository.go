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

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo pedidos de venta y compra sobre PostgreSQL (cabecera + líneas).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `id, type, number, sequence_no, status, payment_status, party_id, receipt_seq,
	notes, created_by, created_at, updated_at`

// Create inserta cabecera y líneas. Llamar con una tx cuando se necesite atomicidad entre ambas.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.ID, o.Type, o.Number, o.SequenceNo, o.Status, o.PaymentStatus, o.PartyID, o.ReceiptSeq,
		o.Notes, o.CreatedBy, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: pedido %s", domain.ErrDuplicate, o.Number)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	for i, it := range o.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO order_items (order_id, line_no, product_id, quantity, unit_price, received_quantity, location)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			o.ID, i+1, it.ProductID, it.Quantity, it.UnitPrice, it.ReceivedQuantity, it.Location,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene el pedido con sus líneas.
func (r *OrderRepo) GetByID(ctx context.Context, orderType entity.OrderType, id string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND type = $2`, orderType, id)
}

// GetForUpdate obtiene el pedido y bloquea su cabecera (SELECT FOR UPDATE).
func (r *OrderRepo) GetForUpdate(ctx context.Context, orderType entity.OrderType, id string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND type = $2 FOR UPDATE`, orderType, id)
}

func (r *OrderRepo) get(ctx context.Context, query string, orderType entity.OrderType, id string) (*entity.Order, error) {
	var o entity.Order
	err := r.q.QueryRow(ctx, query, id, orderType).Scan(
		&o.ID, &o.Type, &o.Number, &o.SequenceNo, &o.Status, &o.PaymentStatus, &o.PartyID, &o.ReceiptSeq,
		&o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT product_id, quantity, unit_price, received_quantity, location
		FROM order_items WHERE order_id = $1 ORDER BY line_no`, o.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.UnitPrice, &it.ReceivedQuantity, &it.Location); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

// Update persiste estado, estado de pago, contador de recepciones y cantidades recibidas.
func (r *OrderRepo) Update(ctx context.Context, o *entity.Order) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE orders SET status = $2, payment_status = $3, receipt_seq = $4, updated_at = $5
		WHERE id = $1`,
		o.ID, o.Status, o.PaymentStatus, o.ReceiptSeq, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update order: %w", domain.ErrNotFound)
	}
	for i, it := range o.Items {
		if _, err := r.q.Exec(ctx,
			`UPDATE order_items SET received_quantity = $3 WHERE order_id = $1 AND line_no = $2`,
			o.ID, i+1, it.ReceivedQuantity,
		); err != nil {
			return fmt.Errorf("update order item: %w", err)
		}
	}
	return nil
}
