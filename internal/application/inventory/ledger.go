package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// Config política del ledger. Se fija al construirlo; no hay estado global.
type Config struct {
	// NegativeStock permite que el stock total o de una ubicación quede negativo.
	NegativeStock bool
}

// MovementIntent solicitud de cambio de stock.
// Quantity siempre es positiva; para ajustes negativos se usa Decrease.
type MovementIntent struct {
	ProductID    string                `validate:"required"`
	Type         entity.MovementType   `validate:"required"`
	Reason       entity.MovementReason `validate:"required"`
	Quantity     int64                 `validate:"gte=1"`
	Decrease     bool
	FromLocation string `validate:"max=100"`
	ToLocation   string `validate:"max=100"`
	UnitCost     *decimal.Decimal
	Reference    *entity.Reference
	PerformedBy  string
	Notes        string `validate:"max=500"`
	MovementDate time.Time
}

// Ledger es la única puerta de entrada para cambiar el stock de un producto.
// Cada Apply bloquea la fila del producto, valida, actualiza el caché y agrega el movimiento
// en una misma transacción.
type Ledger struct {
	tx        TxRunner
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	cfg       Config
	validate  *validator.Validate
	log       zerolog.Logger
	now       func() time.Time
}

// NewLedger construye el ledger. products y movements se usan para lecturas fuera de transacción.
func NewLedger(
	tx TxRunner,
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
	cfg Config,
	log zerolog.Logger,
) *Ledger {
	return &Ledger{
		tx:        tx,
		products:  products,
		movements: movements,
		cfg:       cfg,
		validate:  validator.New(),
		log:       log.With().Str("component", "ledger").Logger(),
		now:       time.Now,
	}
}

// Config devuelve la política con la que se construyó el ledger.
func (l *Ledger) Config() Config {
	return l.cfg
}

// Apply aplica un movimiento en su propia transacción.
// Si la referencia ya fue aplicada al producto devuelve el movimiento existente junto con
// domain.ErrDuplicateReference; el llamador lo trata como éxito.
func (l *Ledger) Apply(ctx context.Context, in MovementIntent) (*entity.StockMovement, error) {
	var mov *entity.StockMovement
	err := l.tx.Run(ctx, func(r repository.Repos) error {
		m, err := l.ApplyWith(ctx, r, in)
		mov = m
		return err
	})
	if errors.Is(err, domain.ErrDuplicateReference) {
		if mov == nil {
			// Carrera resuelta por el índice único: la tx quedó abortada, se lee fuera de ella.
			existing, rerr := l.movements.GetByReference(ctx, *in.Reference, in.ProductID)
			if rerr != nil || existing == nil {
				return nil, ledgerWrite(fmt.Errorf("releer movimiento duplicado: %v", rerr))
			}
			mov = existing
		}
		l.log.Info().Str("product_id", in.ProductID).Str("reference", refString(in.Reference)).Msg("movimiento ya aplicado, se devuelve el existente")
		return mov, err
	}
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			l.log.Warn().Err(err).Str("product_id", in.ProductID).Int64("quantity", in.Quantity).Msg("movimiento rechazado")
		}
		return nil, StorageError(err)
	}
	l.log.Debug().
		Str("product_id", mov.ProductID).
		Str("movement_id", mov.ID).
		Str("type", string(mov.Type)).
		Int64("previous_stock", mov.PreviousStock).
		Int64("new_stock", mov.NewStock).
		Msg("movimiento aplicado")
	return mov, nil
}

// ApplyWith aplica el movimiento con los repositorios de una transacción ya abierta por el llamador
// (la máquina de estados aplica todas las líneas de un pedido en una sola tx).
func (l *Ledger) ApplyWith(ctx context.Context, r repository.Repos, in MovementIntent) (*entity.StockMovement, error) {
	if err := l.validateIntent(in); err != nil {
		return nil, err
	}

	// Bloquea la fila del producto (SELECT FOR UPDATE) hasta el fin de la tx
	p, err := r.Products.GetForUpdate(ctx, in.ProductID)
	if err != nil {
		return nil, ledgerWrite(err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, in.ProductID)
	}

	if in.Reference != nil {
		existing, err := r.Movements.GetByReference(ctx, *in.Reference, p.ID)
		if err != nil {
			return nil, ledgerWrite(err)
		}
		if existing != nil {
			return existing, domain.ErrDuplicateReference
		}
	}

	next, err := l.compute(p, in)
	if err != nil {
		return nil, err
	}

	now := l.now()
	date := in.MovementDate
	if date.IsZero() {
		date = now
	}
	unitCost := p.CostPrice
	if in.UnitCost != nil {
		unitCost = *in.UnitCost
	}
	totalCost := unitCost.Mul(decimal.NewFromInt(in.Quantity))
	mov := &entity.StockMovement{
		ID:            uuid.New().String(),
		ProductID:     p.ID,
		Type:          in.Type,
		Reason:        in.Reason,
		Quantity:      in.Quantity,
		PreviousStock: p.CurrentStock,
		NewStock:      next.CurrentStock,
		Location:      entity.MovementLocation{From: in.FromLocation, To: in.ToLocation},
		UnitCost:      &unitCost,
		TotalCost:     &totalCost,
		PerformedBy:   in.PerformedBy,
		Notes:         in.Notes,
		MovementDate:  date,
		CreatedAt:     now,
	}
	if in.Reference != nil {
		ref := *in.Reference
		mov.Reference = &ref
	}

	next.UpdatedAt = now
	if err := r.Products.UpdateStock(ctx, next); err != nil {
		return nil, ledgerWrite(err)
	}
	if err := r.Movements.Create(ctx, mov); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.ErrDuplicateReference
		}
		return nil, ledgerWrite(err)
	}
	return mov, nil
}

func (l *Ledger) validateIntent(in MovementIntent) error {
	if err := l.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, in.Type)
	}
	if !in.Reason.Valid() {
		return fmt.Errorf("%w: motivo %q", domain.ErrInvalidInput, in.Reason)
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return fmt.Errorf("%w: costo unitario negativo", domain.ErrInvalidInput)
	}
	if in.Decrease && in.Type != entity.MovementTypeAdjustment {
		return fmt.Errorf("%w: solo los ajustes pueden ser negativos", domain.ErrInvalidInput)
	}
	if in.Reference != nil && (in.Reference.Type == "" || in.Reference.ID == "") {
		return fmt.Errorf("%w: la referencia requiere tipo e id", domain.ErrInvalidInput)
	}
	if in.Type == entity.MovementTypeTransfer {
		if in.FromLocation == "" || in.ToLocation == "" {
			return fmt.Errorf("%w: el traslado requiere ubicación origen y destino", domain.ErrInvalidInput)
		}
		if in.FromLocation == in.ToLocation {
			return fmt.Errorf("%w: origen y destino del traslado son iguales", domain.ErrInvalidInput)
		}
	}
	return nil
}

// compute calcula el nuevo estado del producto sin persistir nada.
func (l *Ledger) compute(p *entity.Product, in MovementIntent) (*entity.Product, error) {
	q := in.Quantity
	var delta int64
	var from, to string
	switch in.Type {
	case entity.MovementTypeIn:
		delta, to = q, in.ToLocation
	case entity.MovementTypeOut:
		delta, from = -q, in.FromLocation
	case entity.MovementTypeAdjustment:
		if in.Decrease {
			delta, from = -q, in.FromLocation
		} else {
			delta, to = q, in.ToLocation
		}
	case entity.MovementTypeTransfer:
		from, to = in.FromLocation, in.ToLocation
	}

	if err := checkLocations(p, delta, from, to); err != nil {
		return nil, err
	}

	next := p.Clone()
	next.CurrentStock = p.CurrentStock + delta
	if from != "" {
		next.AddToLocation(from, -q)
	}
	if to != "" {
		next.AddToLocation(to, q)
	}

	if !l.cfg.NegativeStock {
		if next.CurrentStock < 0 {
			return nil, fmt.Errorf("%w: producto %s tiene %d y se solicitan %d", domain.ErrInsufficientStock, p.ID, p.CurrentStock, q)
		}
		if from != "" && next.LocationQuantity(from) < 0 {
			return nil, fmt.Errorf("%w: ubicación %s tiene %d y se solicitan %d", domain.ErrInsufficientStock, from, p.LocationQuantity(from), q)
		}
	}

	if delta > 0 && in.UnitCost != nil {
		next.CostPrice = inventory.CostCalculator(p.CurrentStock, p.CostPrice, q, *in.UnitCost)
	}
	next.Version = p.Version + 1
	return next, nil
}

// checkLocations aplica las reglas del desglose por ubicación.
func checkLocations(p *entity.Product, delta int64, from, to string) error {
	tracks := p.TracksLocations()
	if !tracks {
		// Un producto sin desglose solo puede iniciarlo con stock en cero.
		if (from != "" || to != "") && p.CurrentStock != 0 {
			return fmt.Errorf("%w: el producto %s no lleva ubicaciones y tiene stock", domain.ErrInvalidInput, p.ID)
		}
		return nil
	}
	if delta > 0 && to == "" {
		return fmt.Errorf("%w: el producto %s requiere ubicación destino", domain.ErrInvalidInput, p.ID)
	}
	if delta < 0 && from == "" {
		return fmt.Errorf("%w: el producto %s requiere ubicación origen", domain.ErrInvalidInput, p.ID)
	}
	return nil
}

// MovementsForProduct devuelve el historial del producto en orden del ledger.
func (l *Ledger) MovementsForProduct(ctx context.Context, productID string) ([]*entity.StockMovement, error) {
	p, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return nil, ledgerWrite(err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	movs, err := l.movements.ListByProduct(ctx, productID)
	if err != nil {
		return nil, ledgerWrite(err)
	}
	return movs, nil
}

// StorageError deja pasar los errores de dominio y envuelve el resto como domain.ErrLedgerWrite.
func StorageError(err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	return ledgerWrite(err)
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrLedgerWrite,
		domain.ErrNotFound,
		domain.ErrInvalidInput,
		domain.ErrInsufficientStock,
		domain.ErrInvalidTransition,
		domain.ErrDuplicateReference,
		domain.ErrDuplicate,
		domain.ErrConflict,
		domain.ErrForbidden,
		domain.ErrSequenceUnavailable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func ledgerWrite(err error) error {
	if errors.Is(err, domain.ErrLedgerWrite) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrLedgerWrite, err)
}

func refString(ref *entity.Reference) string {
	if ref == nil {
		return ""
	}
	return ref.Type + ":" + ref.ID + ":" + ref.Action
}
