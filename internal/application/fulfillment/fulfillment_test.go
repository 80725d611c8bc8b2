package fulfillment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/sequence"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/lifecycle"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

type fixture struct {
	store  *memory.Store
	ledger *inventory.Ledger
	orders *Orders
	sm     *StateMachine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	ledger := inventory.NewLedger(store, store.Products(), store.Movements(), inventory.Config{}, zerolog.Nop())
	seq := sequence.New(store.Sequences(), zerolog.Nop())
	return &fixture{
		store:  store,
		ledger: ledger,
		orders: NewOrders(store, store.Orders(), store.Products(), seq, zerolog.Nop()),
		sm:     NewStateMachine(store, ledger, zerolog.Nop()),
	}
}

func (f *fixture) product(t *testing.T, id string, stock int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.Products().Create(ctx, &entity.Product{
		ID: id, SKU: "SKU-" + id, Name: id, MinimumStock: 10,
		CostPrice: decimal.NewFromInt(10), SellingPrice: decimal.NewFromInt(15),
	}))
	if stock > 0 {
		_, err := f.ledger.Apply(ctx, inventory.MovementIntent{
			ProductID: id, Type: entity.MovementTypeIn, Reason: entity.ReasonOpeningStock, Quantity: stock,
		})
		require.NoError(t, err)
	}
}

func (f *fixture) stock(t *testing.T, id string) int64 {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.CurrentStock
}

func (f *fixture) order(t *testing.T, typ entity.OrderType, items ...ItemInput) *entity.Order {
	t.Helper()
	o, err := f.orders.Create(context.Background(), CreateOrderInput{Type: typ, CreatedBy: "u-1", Items: items})
	require.NoError(t, err)
	return o
}

func (f *fixture) move(t *testing.T, o *entity.Order, target entity.OrderStatus) *TransitionResult {
	t.Helper()
	res, err := f.sm.Transition(context.Background(), TransitionRequest{OrderType: o.Type, OrderID: o.ID, Target: target, PerformedBy: "u-1"})
	require.NoError(t, err)
	return res
}

// ───────────────────────────────────────────────────────────────────────────────
// Orders
// ───────────────────────────────────────────────────────────────────────────────

func TestCreate_NumeraPorTipoDeDocumento(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p-1", 0)

	sale := f.order(t, entity.OrderTypeSale, ItemInput{ProductID: "p-1", Quantity: 1})
	assert.Equal(t, "INV-000001", sale.Number)
	assert.Equal(t, entity.StatusDraft, sale.Status)
	assert.Equal(t, entity.PaymentUnpaid, sale.PaymentStatus)
	assert.True(t, sale.Items[0].UnitPrice.Equal(decimal.NewFromInt(15)), "precio de venta por defecto")

	po := f.order(t, entity.OrderTypePurchase, ItemInput{ProductID: "p-1", Quantity: 1})
	assert.Equal(t, "PO-000001", po.Number)
	assert.True(t, po.Items[0].UnitPrice.Equal(decimal.NewFromInt(10)), "costo por defecto")

	sale2 := f.order(t, entity.OrderTypeSale, ItemInput{ProductID: "p-1", Quantity: 1})
	assert.Equal(t, "INV-000002", sale2.Number)

	got, err := f.orders.Get(context.Background(), entity.OrderTypeSale, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.Number, got.Number)

	_, err = f.orders.Get(context.Background(), entity.OrderTypePurchase, sale.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "el tipo forma parte de la llave")
}

func TestCreate_LineasInvalidas(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p-1", 0)
	ctx := context.Background()

	cases := []struct {
		name  string
		items []ItemInput
	}{
		{"sin líneas", nil},
		{"cantidad cero", []ItemInput{{ProductID: "p-1"}}},
		{"producto inexistente", []ItemInput{{ProductID: "p-9", Quantity: 1}}},
		{"producto repetido", []ItemInput{{ProductID: "p-1", Quantity: 1}, {ProductID: "p-1", Quantity: 2}}},
		{"precio negativo", []ItemInput{{ProductID: "p-1", Quantity: 1, UnitPrice: decimal.NewFromInt(-1)}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.orders.Create(ctx, CreateOrderInput{Type: entity.OrderTypeSale, Items: tc.items})
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

type downCounter struct{}

func (downCounter) Increment(context.Context, entity.DocumentType) (int64, error) {
	return 0, errors.New("timeout")
}

func TestCreate_SinConsecutivoNoPersiste(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p-1", 0)
	f.orders.sequencer = sequence.New(downCounter{}, zerolog.Nop())

	_, err := f.orders.Create(context.Background(), CreateOrderInput{
		Type: entity.OrderTypeSale, Items: []ItemInput{{ProductID: "p-1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrSequenceUnavailable)
}

// capturingTx registra el ID del pedido que se intentó guardar dentro de la tx.
type capturingTx struct {
	inner   inventory.TxRunner
	created []string
}

type capturingOrders struct {
	repository.OrderRepository
	tx *capturingTx
}

func (c capturingOrders) Create(ctx context.Context, o *entity.Order) error {
	c.tx.created = append(c.tx.created, o.ID)
	return c.OrderRepository.Create(ctx, o)
}

func (c *capturingTx) Run(ctx context.Context, fn func(repository.Repos) error) error {
	return c.inner.Run(ctx, func(r repository.Repos) error {
		r.Orders = capturingOrders{OrderRepository: r.Orders, tx: c}
		return fn(r)
	})
}

func TestCreate_FalloAlGuardarNoDejaPedidoAMedias(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p-1", 0)
	tx := &capturingTx{inner: f.store}
	f.orders.tx = tx
	ctx := context.Background()

	f.store.FailCommits(errors.New("conexión perdida"))
	_, err := f.orders.Create(ctx, CreateOrderInput{
		Type: entity.OrderTypeSale, Items: []ItemInput{{ProductID: "p-1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrLedgerWrite)
	f.store.FailCommits(nil)

	require.Len(t, tx.created, 1, "el pedido se guarda dentro de la tx")
	_, err = f.orders.Get(ctx, entity.OrderTypeSale, tx.created[0])
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// El número consumido queda como hueco, nunca repetido.
	next := f.order(t, entity.OrderTypeSale, ItemInput{ProductID: "p-1", Quantity: 1})
	assert.Equal(t, "INV-000002", next.Number)
}

type downProducts struct {
	repository.ProductRepository
}

func (downProducts) GetByID(context.Context, string) (*entity.Product, error) {
	return nil, errors.New("conexión rechazada")
}

func TestCreate_FalloDeLecturaEsErrorDeAlmacenamiento(t *testing.T) {
	f := newFixture(t)
	f.orders.products = downProducts{ProductRepository: f.store.Products()}

	_, err := f.orders.Create(context.Background(), CreateOrderInput{
		Type: entity.OrderTypeSale, Items: []ItemInput{{ProductID: "p-1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrLedgerWrite)
}

func TestSetPaymentStatus(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p-1", 0)
	o := f.order(t, entity.OrderTypeSale, ItemInput{ProductID: "p-1", Quantity: 1})
	ctx := context.Background()

	got, err := f.orders.SetPaymentStatus(ctx, o.Type, o.ID, entity.PaymentPartial)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPartial, got.PaymentStatus)

	_, err = f.orders.SetPaymentStatus(ctx, o.Type, o.ID, entity.PaymentPaid)
	require.NoError(t, err)
	_, err = f.orders.SetPaymentStatus(ctx, o.Type, o.ID, entity.PaymentPaid)
	require.NoError(t, err, "repetir el estado no es error")

	_, err = f.orders.SetPaymentStatus(ctx, o.Type, o.ID, entity.PaymentUnpaid)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, int64(0), f.stock(t, "p-1"), "el pago no mueve stock")
}

// ───────────────────────────────────────────────────────────────────────────────
// Ventas
// ───────────────────────────────────────────────────────────────────────────────

func TestTransition_VentaCompleta(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p-1", 100)
	f.product(t, "p-2", 5)
	o := f.order(t, entity.OrderTypeSale, ItemInput{ProductID: "p-2", Quantity: 2}, ItemInput{ProductID: "p-1", Quantity: 30})

	res := f.move(t, o, entity.StatusConfirmed)
	assert.Equal(t, entity.StatusDraft, res.Previous)
	assert.Equal(t, entity.StatusConfirmed, res.Status)
	require.Len(t, res.Movements, 2)
	assert.Equal(t, "p-1", res.Movements[0].ProductID, "líneas en orden de producto")
	assert.Equal(t, "INV-000001", res.Movements[0].Reference.Number)
	assert.Equal(t, int64(70), f.stock(t, "p-1"))
	assert.Equal(t, int64(3), f.stock(t, "p-2"))

	res = f.move(t, o, entity.StatusShipped)
	assert.Empty(t, res.Movements)
	f.move(t, o, entity.StatusDelivered)
	res = f.move(t, o, entity.StatusReturned)
	require.Len(t, res.Movements, 2)
	assert.Equal(t, entity.ReasonReturn, res.Movements[0].Reason)
	assert.Equal(t, int64(100), f.stock(t, "p-1"))
	assert.Equal(t, int64(5), f.stock(t, "p-2"))

	_, err := f.sm.Transition(context.Background(), TransitionRequest{OrderType: o.Type, OrderID: o.ID, Target: entity.StatusConfirmed})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransition_ConfirmarDosVecesEsIdempotente(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p-1", 100)
	o := f.order(t, entity.OrderTypeSale, ItemInput{ProductID: "p-1", Quantity: 30})

	first := f.move(t, o, entity.StatusConfirmed)
	second := f.move(t, o, entity.StatusConfirmed)

	assert.True(t, second.Replayed)
	require.Len(t, second.Movements, 1)
	assert.Equal(t, first.Movements[0].ID, second.Movements[0].ID)
	assert.Equal(t, int64(70), f.stock(t, "p-1"))
}

func TestTransition_CancelarRevierteLoConfirmado(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p-1", 100)
	o := f.order(t, entity.OrderTypeSale, ItemInput{ProductID: "p-1", Quantity: 30})

	f.move(t, o, entity.StatusConfirmed)
	res := f.move(t, o, entity.StatusCancelled)
	require.Len(t, res.Movements, 1)
	assert.Equal(t, entity.MovementTypeIn, res.Movements[0].Type)
	assert.Equal(t, int64(100), f.stock(t, "p-1"))

	movs, err := f.ledger.MovementsForProduct(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Len(t, movs, 3, "la reversión agrega, no borra")
}

func TestTransition_CancelarBorradorNoMueveStock(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p-1", 100)
	o := f.order(t, entity.OrderTypeSale, ItemInput{ProductID: "p-1", Quantity: 30})

	res := f.move(t, o, entity.StatusCancelled)
	assert.Empty(t, res.Movements)
	assert.Equal(t, int64(100), f.stock(t, "p-1"))
}

func TestTransition_StockInsuficienteRevierteTodasLasLineas(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p-1", 100)
	f.product(t, "p-2", 1)
	o := f.order(t, entity.OrderTypeSale, ItemInput{ProductID: "p-1", Quantity: 10}, ItemInput{ProductID: "p-2", Quantity: 2})

	_, err := f.sm.Transition(context.Background(), TransitionRequest{OrderType: o.Type, OrderID: o.ID, Target: entity.StatusConfirmed})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(100), f.stock(t, "p-1"), "la línea p-1 se aplicó antes y debe revertirse")

	got, err := f.orders.Get(context.Background(), o.Type, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDraft, got.Status)
}

func TestTransition_VentasConcurrentesSobreElMismoProducto(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p-1", 100)
	a := f.order(t, entity.OrderTypeSale, ItemInput{ProductID: "p-1", Quantity: 30})
	b := f.order(t, entity.OrderTypeSale, ItemInput{ProductID: "p-1", Quantity: 80})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, o := range []*entity.Order{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.sm.Transition(context.Background(), TransitionRequest{OrderType: o.Type, OrderID: o.ID, Target: entity.StatusConfirmed})
		}()
	}
	wg.Wait()

	var applied int64
	failures := 0
	for i, qty := range []int64{30, 80} {
		if errs[i] == nil {
			applied += qty
			continue
		}
		assert.ErrorIs(t, errs[i], domain.ErrInsufficientStock)
		failures++
	}
	assert.Equal(t, 1, failures, "30 + 80 supera 100: exactamente una falla")
	assert.Equal(t, 100-applied, f.stock(t, "p-1"))
	assert.GreaterOrEqual(t, f.stock(t, "p-1"), int64(0))
}

func TestTransition_PedidoInexistenteYEstadoDesconocido(t *testing.T) {
	f := newFixture(t)
	_, err := f.sm.Transition(context.Background(), TransitionRequest{OrderType: entity.OrderTypeSale, OrderID: "x", Target: entity.StatusConfirmed})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.sm.Transition(context.Background(), TransitionRequest{OrderType: entity.OrderTypeSale, OrderID: "x", Target: "archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ───────────────────────────────────────────────────────────────────────────────
// Compras
// ───────────────────────────────────────────────────────────────────────────────

func approvedPurchase(t *testing.T, f *fixture) *entity.Order {
	t.Helper()
	o := f.order(t, entity.OrderTypePurchase,
		ItemInput{ProductID: "p-1", Quantity: 10, UnitPrice: decimal.NewFromInt(20)},
		ItemInput{ProductID: "p-2", Quantity: 4, UnitPrice: decimal.NewFromInt(10)},
	)
	for _, s := range []entity.OrderStatus{entity.StatusPending, entity.StatusApproved, entity.StatusOrdered} {
		res := f.move(t, o, s)
		assert.Empty(t, res.Movements, "solo metadatos hasta recibir")
	}
	return o
}

func TestTransition_CompraRecepcionesParciales(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p-1", 0)
	f.product(t, "p-2", 0)
	o := approvedPurchase(t, f)
	ctx := context.Background()

	res, err := f.sm.Transition(ctx, TransitionRequest{
		OrderType: o.Type, OrderID: o.ID, Target: entity.StatusPartiallyReceived, ReceiptID: "GR-1",
		Receipts: []lifecycle.Receipt{{ProductID: "p-1", Quantity: 6}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPartiallyReceived, res.Status)
	assert.Equal(t, int64(6), f.stock(t, "p-1"))
	assert.Equal(t, "receipt-GR-1", res.Movements[0].Reference.Action)

	res, err = f.sm.Transition(ctx, TransitionRequest{
		OrderType: o.Type, OrderID: o.ID, Target: entity.StatusPartiallyReceived, ReceiptID: "GR-2",
		Receipts: []lifecycle.Receipt{{ProductID: "p-1", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "receipt-GR-2", res.Movements[0].Reference.Action)
	assert.Equal(t, int64(7), f.stock(t, "p-1"))

	res = f.move(t, o, entity.StatusReceived)
	assert.Equal(t, entity.StatusReceived, res.Status)
	require.Len(t, res.Movements, 2)
	assert.Equal(t, int64(10), f.stock(t, "p-1"))
	assert.Equal(t, int64(4), f.stock(t, "p-2"))

	p, err := f.store.Products().GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.True(t, p.CostPrice.Equal(decimal.NewFromInt(20)), "costo de la compra, got %s", p.CostPrice)

	replay := f.move(t, o, entity.StatusReceived)
	assert.True(t, replay.Replayed)
	assert.Len(t, replay.Movements, 4)
	assert.Equal(t, int64(10), f.stock(t, "p-1"))
}

func TestTransition_RecepcionConIDNoSeDuplica(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p-1", 0)
	f.product(t, "p-2", 0)
	o := approvedPurchase(t, f)
	req := TransitionRequest{
		OrderType: o.Type, OrderID: o.ID, Target: entity.StatusPartiallyReceived, ReceiptID: "GR-1",
		Receipts: []lifecycle.Receipt{{ProductID: "p-1", Quantity: 5}},
	}

	first, err := f.sm.Transition(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := f.sm.Transition(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Movements[0].ID, second.Movements[0].ID)
	assert.Equal(t, int64(5), f.stock(t, "p-1"))

	got, err := f.orders.Get(context.Background(), o.Type, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Items[0].ReceivedQuantity)
}

func TestTransition_RecepcionParcialSinIDSeRechazaYNoMueveStock(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p-1", 0)
	f.product(t, "p-2", 0)
	o := approvedPurchase(t, f)
	req := TransitionRequest{
		OrderType: o.Type, OrderID: o.ID, Target: entity.StatusPartiallyReceived,
		Receipts: []lifecycle.Receipt{{ProductID: "p-1", Quantity: 3}},
	}

	// El mismo envío repetido (reintento tras un timeout) nunca suma stock.
	for i := 0; i < 2; i++ {
		_, err := f.sm.Transition(context.Background(), req)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
	assert.Equal(t, int64(0), f.stock(t, "p-1"))

	req.ReceiptID = "GR-5"
	for i := 0; i < 2; i++ {
		_, err := f.sm.Transition(context.Background(), req)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), f.stock(t, "p-1"))
}

func TestTransition_CompraBorradorARecibidoSeRechazaSinMovimientos(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p-1", 0)
	o := f.order(t, entity.OrderTypePurchase, ItemInput{ProductID: "p-1", Quantity: 10, UnitPrice: decimal.NewFromInt(20)})

	_, err := f.sm.Transition(context.Background(), TransitionRequest{OrderType: o.Type, OrderID: o.ID, Target: entity.StatusReceived})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	movs, err := f.ledger.MovementsForProduct(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Len(t, movs, 0)
	assert.Equal(t, int64(0), f.stock(t, "p-1"))

	got, err := f.orders.Get(context.Background(), o.Type, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDraft, got.Status)
}

func TestTransition_CancelarCompraDevuelveLoRecibido(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p-1", 0)
	f.product(t, "p-2", 0)
	o := approvedPurchase(t, f)

	_, err := f.sm.Transition(context.Background(), TransitionRequest{
		OrderType: o.Type, OrderID: o.ID, Target: entity.StatusPartiallyReceived, ReceiptID: "GR-9",
		Receipts: []lifecycle.Receipt{{ProductID: "p-2", Quantity: 3}},
	})
	require.NoError(t, err)

	res := f.move(t, o, entity.StatusCancelled)
	require.Len(t, res.Movements, 1)
	assert.Equal(t, entity.MovementTypeOut, res.Movements[0].Type)
	assert.Equal(t, int64(0), f.stock(t, "p-2"))
}

func TestTransition_FalloDeAlmacenamientoNoCambiaElPedido(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p-1", 50)
	o := f.order(t, entity.OrderTypeSale, ItemInput{ProductID: "p-1", Quantity: 5})

	f.store.FailCommits(errors.New("conexión perdida"))
	_, err := f.sm.Transition(context.Background(), TransitionRequest{OrderType: o.Type, OrderID: o.ID, Target: entity.StatusConfirmed})
	assert.ErrorIs(t, err, domain.ErrLedgerWrite)
	f.store.FailCommits(nil)

	got, err := f.orders.Get(context.Background(), o.Type, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDraft, got.Status)
	assert.Equal(t, int64(50), f.stock(t, "p-1"))

	// Reintento tras el fallo: se aplica una sola vez.
	res := f.move(t, o, entity.StatusConfirmed)
	assert.False(t, res.Replayed)
	assert.Equal(t, int64(45), f.stock(t, "p-1"))
}
