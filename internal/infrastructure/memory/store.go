// Package memory implementa los repositorios y el TxRunner en memoria.
// Se usa en desarrollo (STORAGE_DRIVER=memory) y en las pruebas de concurrencia del ledger.
//
// Cada transacción toma bloqueos por fila (producto u pedido) que mantiene hasta Commit o
// Rollback, guarda sus escrituras en un buffer y las publica juntas al confirmar.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

type refKey struct {
	refType, refID, action, productID string
}

func movementKey(m *entity.StockMovement) (refKey, bool) {
	if m.Reference == nil {
		return refKey{}, false
	}
	return refKey{m.Reference.Type, m.Reference.ID, m.Reference.Action, m.ProductID}, true
}

// Store datos confirmados. Solo Commit los modifica.
type Store struct {
	mu        sync.RWMutex
	products  map[string]*entity.Product
	skus      map[string]string
	barcodes  map[string]string
	movements []*entity.StockMovement
	refs      map[refKey]*entity.StockMovement
	orders    map[string]*entity.Order
	seq       int64
	commitErr error

	rows *rowLocks

	cmu      sync.Mutex
	counters map[entity.DocumentType]int64
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{
		products: make(map[string]*entity.Product),
		skus:     make(map[string]string),
		barcodes: make(map[string]string),
		refs:     make(map[refKey]*entity.StockMovement),
		orders:   make(map[string]*entity.Order),
		rows:     &rowLocks{m: make(map[string]chan struct{})},
		counters: make(map[entity.DocumentType]int64),
	}
}

// FailCommits hace fallar todos los Commit con err (nil restablece). Simula caídas del almacenamiento.
func (s *Store) FailCommits(err error) {
	s.mu.Lock()
	s.commitErr = err
	s.mu.Unlock()
}

// Run ejecuta fn dentro de una transacción: Commit si fn devuelve nil, Rollback en otro caso.
// Los bloqueos de fila se liberan siempre al salir.
func (s *Store) Run(ctx context.Context, fn func(repos repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	t := s.begin(false)
	defer t.release()

	if err := fn(t.repos()); err != nil {
		return err
	}
	if err := t.commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Products repositorio de productos fuera de transacción (cada escritura se confirma sola).
func (s *Store) Products() repository.ProductRepository {
	return &productRepo{s: s}
}

// Movements repositorio del ledger fuera de transacción.
func (s *Store) Movements() repository.StockMovementRepository {
	return &movementRepo{s: s}
}

// Orders repositorio de pedidos fuera de transacción.
func (s *Store) Orders() repository.OrderRepository {
	return &orderRepo{s: s}
}

// Sequences contador de consecutivos en memoria.
func (s *Store) Sequences() repository.SequenceRepository {
	return &sequenceRepo{s: s}
}

// ───────────────────────────────────────────────────────────────────────────────
// Bloqueos por fila
// ───────────────────────────────────────────────────────────────────────────────

// rowLocks un canal de capacidad 1 por llave; permite esperar el bloqueo respetando ctx.
type rowLocks struct {
	mu sync.Mutex
	m  map[string]chan struct{}
}

func (l *rowLocks) acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	ch, ok := l.m[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.m[key] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *rowLocks) release(key string) {
	l.mu.Lock()
	ch := l.m[key]
	l.mu.Unlock()
	<-ch
}

// ───────────────────────────────────────────────────────────────────────────────
// Transacción
// ───────────────────────────────────────────────────────────────────────────────

type tx struct {
	s    *Store
	auto bool

	held []string
	hold map[string]bool

	products  map[string]*entity.Product
	created   map[string]bool
	movements []*entity.StockMovement
	orders    map[string]*entity.Order
	newOrders map[string]bool
}

func (s *Store) begin(auto bool) *tx {
	return &tx{
		s:         s,
		auto:      auto,
		hold:      make(map[string]bool),
		products:  make(map[string]*entity.Product),
		created:   make(map[string]bool),
		orders:    make(map[string]*entity.Order),
		newOrders: make(map[string]bool),
	}
}

func (t *tx) repos() repository.Repos {
	return repository.Repos{
		Products:  &productRepo{s: t.s, t: t},
		Movements: &movementRepo{s: t.s, t: t},
		Orders:    &orderRepo{s: t.s, t: t},
	}
}

// lock toma el bloqueo de la fila una sola vez por transacción. En modo auto no bloquea:
// igual que un SELECT ... FOR UPDATE fuera de transacción, el bloqueo no sobrevive a la sentencia.
func (t *tx) lock(ctx context.Context, key string) error {
	if t.auto || t.hold[key] {
		return nil
	}
	if err := t.s.rows.acquire(ctx, key); err != nil {
		return err
	}
	t.hold[key] = true
	t.held = append(t.held, key)
	return nil
}

func (t *tx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.s.rows.release(t.held[i])
	}
	t.held = nil
	t.hold = make(map[string]bool)
}

// finish confirma de inmediato las escrituras de una transacción auto.
func (t *tx) finish() error {
	if !t.auto {
		return nil
	}
	return t.commit()
}

func (t *tx) commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.commitErr != nil {
		return s.commitErr
	}

	// Restricciones únicas, verificadas contra lo confirmado por otras transacciones.
	for id := range t.created {
		p := t.products[id]
		if _, ok := s.products[id]; ok {
			return fmt.Errorf("%w: producto %s", domain.ErrDuplicate, id)
		}
		if owner, ok := s.skus[p.SKU]; ok && owner != id {
			return fmt.Errorf("%w: sku %s", domain.ErrDuplicate, p.SKU)
		}
		if owner, ok := s.barcodes[p.Barcode]; p.Barcode != "" && ok && owner != id {
			return fmt.Errorf("%w: código de barras %s", domain.ErrDuplicate, p.Barcode)
		}
	}
	for _, m := range t.movements {
		if key, ok := movementKey(m); ok {
			if _, dup := s.refs[key]; dup {
				return fmt.Errorf("%w: movimiento %s/%s/%s", domain.ErrDuplicate, key.refType, key.refID, key.action)
			}
		}
	}
	for id := range t.newOrders {
		if _, ok := s.orders[id]; ok {
			return fmt.Errorf("%w: pedido %s", domain.ErrDuplicate, id)
		}
	}

	for id, p := range t.products {
		s.products[id] = p.Clone()
		if t.created[id] {
			s.skus[p.SKU] = id
			if p.Barcode != "" {
				s.barcodes[p.Barcode] = id
			}
		}
	}
	for _, m := range t.movements {
		s.seq++
		m.Seq = s.seq
		c := m.Clone()
		s.movements = append(s.movements, c)
		if key, ok := movementKey(c); ok {
			s.refs[key] = c
		}
	}
	for id, o := range t.orders {
		s.orders[id] = o.Clone()
	}
	return nil
}

// ───────────────────────────────────────────────────────────────────────────────
// Lecturas combinadas (buffer de la tx sobre lo confirmado)
// ───────────────────────────────────────────────────────────────────────────────

func (t *tx) product(id string) *entity.Product {
	if p, ok := t.products[id]; ok {
		return p.Clone()
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.s.products[id].Clone()
}

func (t *tx) allProducts() []*entity.Product {
	t.s.mu.RLock()
	out := make([]*entity.Product, 0, len(t.s.products)+len(t.created))
	for id, p := range t.s.products {
		if _, pending := t.products[id]; pending {
			continue
		}
		out = append(out, p.Clone())
	}
	t.s.mu.RUnlock()
	for _, p := range t.products {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

func (t *tx) order(id string) *entity.Order {
	if o, ok := t.orders[id]; ok {
		return o.Clone()
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.s.orders[id].Clone()
}

func (t *tx) movementsWhere(match func(m *entity.StockMovement) bool) []*entity.StockMovement {
	var out []*entity.StockMovement
	t.s.mu.RLock()
	for _, m := range t.s.movements {
		if match(m) {
			out = append(out, m.Clone())
		}
	}
	t.s.mu.RUnlock()
	for _, m := range t.movements {
		if match(m) {
			out = append(out, m.Clone())
		}
	}
	return out
}
