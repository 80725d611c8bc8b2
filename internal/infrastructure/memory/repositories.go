package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var (
	_ repository.ProductRepository       = (*productRepo)(nil)
	_ repository.StockMovementRepository = (*movementRepo)(nil)
	_ repository.OrderRepository         = (*orderRepo)(nil)
	_ repository.SequenceRepository      = (*sequenceRepo)(nil)
)

// txFor devuelve la tx del repositorio o una tx auto de una sola operación.
func txFor(s *Store, t *tx) *tx {
	if t != nil {
		return t
	}
	return s.begin(true)
}

// ───────────────────────────────────────────────────────────────────────────────
// Productos
// ───────────────────────────────────────────────────────────────────────────────

type productRepo struct {
	s *Store
	t *tx
}

func (r *productRepo) Create(ctx context.Context, p *entity.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := txFor(r.s, r.t)
	for _, other := range t.allProducts() {
		if other.ID == p.ID {
			return fmt.Errorf("%w: producto %s", domain.ErrDuplicate, p.ID)
		}
		if other.SKU == p.SKU {
			return fmt.Errorf("%w: sku %s", domain.ErrDuplicate, p.SKU)
		}
		if p.Barcode != "" && other.Barcode == p.Barcode {
			return fmt.Errorf("%w: código de barras %s", domain.ErrDuplicate, p.Barcode)
		}
	}
	t.products[p.ID] = p.Clone()
	t.created[p.ID] = true
	return t.finish()
}

func (r *productRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return txFor(r.s, r.t).product(id), nil
}

func (r *productRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	t := txFor(r.s, r.t)
	if err := t.lock(ctx, "product:"+id); err != nil {
		return nil, fmt.Errorf("lock product: %w", err)
	}
	return t.product(id), nil
}

func (r *productRepo) UpdateStock(ctx context.Context, p *entity.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := txFor(r.s, r.t)
	if t.product(p.ID) == nil {
		return fmt.Errorf("update stock: %w", domain.ErrNotFound)
	}
	t.products[p.ID] = p.Clone()
	return t.finish()
}

func (r *productRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all := txFor(r.s, r.t).allProducts()
	if offset >= len(all) {
		return []*entity.Product{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *productRepo) filter(ctx context.Context, match func(p *entity.Product) bool) ([]*entity.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]*entity.Product, 0)
	for _, p := range txFor(r.s, r.t).allProducts() {
		if match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *productRepo) ListLowStock(ctx context.Context) ([]*entity.Product, error) {
	return r.filter(ctx, func(p *entity.Product) bool {
		return p.CurrentStock > 0 && p.CurrentStock <= p.MinimumStock
	})
}

func (r *productRepo) ListOutOfStock(ctx context.Context) ([]*entity.Product, error) {
	return r.filter(ctx, func(p *entity.Product) bool {
		return p.CurrentStock == 0
	})
}

func (r *productRepo) ListExpiring(ctx context.Context, from, to time.Time) ([]*entity.Product, error) {
	out, err := r.filter(ctx, func(p *entity.Product) bool {
		if !p.IsPerishable || p.ExpiryDate == nil || p.CurrentStock <= 0 {
			return false
		}
		return !p.ExpiryDate.Before(from) && !p.ExpiryDate.After(to)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpiryDate.Before(*out[j].ExpiryDate) })
	return out, nil
}

// ───────────────────────────────────────────────────────────────────────────────
// Movimientos
// ───────────────────────────────────────────────────────────────────────────────

type movementRepo struct {
	s *Store
	t *tx
}

func (r *movementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := txFor(r.s, r.t)
	if m.Reference != nil {
		existing, _ := r.GetByReference(ctx, *m.Reference, m.ProductID)
		if existing != nil {
			return fmt.Errorf("%w: movimiento %s/%s/%s", domain.ErrDuplicate, m.Reference.Type, m.Reference.ID, m.Reference.Action)
		}
	}
	t.movements = append(t.movements, m)
	return t.finish()
}

func (r *movementRepo) GetByReference(ctx context.Context, ref entity.Reference, productID string) (*entity.StockMovement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := refKey{ref.Type, ref.ID, ref.Action, productID}
	t := txFor(r.s, r.t)
	for _, m := range t.movements {
		if key, ok := movementKey(m); ok && key == want {
			return m.Clone(), nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.refs[want].Clone(), nil
}

func (r *movementRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockMovement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return txFor(r.s, r.t).movementsWhere(func(m *entity.StockMovement) bool {
		return m.ProductID == productID
	}), nil
}

func (r *movementRepo) ListByReference(ctx context.Context, refType, refID string) ([]*entity.StockMovement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return txFor(r.s, r.t).movementsWhere(func(m *entity.StockMovement) bool {
		return m.Reference != nil && m.Reference.Type == refType && m.Reference.ID == refID
	}), nil
}

// ───────────────────────────────────────────────────────────────────────────────
// Pedidos
// ───────────────────────────────────────────────────────────────────────────────

type orderRepo struct {
	s *Store
	t *tx
}

func (r *orderRepo) Create(ctx context.Context, o *entity.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := txFor(r.s, r.t)
	if t.order(o.ID) != nil {
		return fmt.Errorf("%w: pedido %s", domain.ErrDuplicate, o.ID)
	}
	t.orders[o.ID] = o.Clone()
	t.newOrders[o.ID] = true
	return t.finish()
}

func (r *orderRepo) GetByID(ctx context.Context, orderType entity.OrderType, id string) (*entity.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := txFor(r.s, r.t).order(id)
	if o == nil || o.Type != orderType {
		return nil, nil
	}
	return o, nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, orderType entity.OrderType, id string) (*entity.Order, error) {
	t := txFor(r.s, r.t)
	if err := t.lock(ctx, "order:"+id); err != nil {
		return nil, fmt.Errorf("lock order: %w", err)
	}
	o := t.order(id)
	if o == nil || o.Type != orderType {
		return nil, nil
	}
	return o, nil
}

func (r *orderRepo) Update(ctx context.Context, o *entity.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := txFor(r.s, r.t)
	if t.order(o.ID) == nil {
		return fmt.Errorf("update order: %w", domain.ErrNotFound)
	}
	t.orders[o.ID] = o.Clone()
	return t.finish()
}

// ───────────────────────────────────────────────────────────────────────────────
// Consecutivos
// ───────────────────────────────────────────────────────────────────────────────

type sequenceRepo struct {
	s *Store
}

func (r *sequenceRepo) Increment(ctx context.Context, doc entity.DocumentType) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.cmu.Lock()
	defer r.s.cmu.Unlock()
	r.s.counters[doc]++
	return r.s.counters[doc], nil
}
