package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/cache"
)

// ReconcileLockKey llave del bloqueo de un solo ejecutor.
const ReconcileLockKey = "lock:ledger:reconcile"

// Verifier lo implementa *inventory.Ledger.
type Verifier interface {
	VerifyAll(ctx context.Context, pageSize int) (int, []*inventory.ConsistencyReport, error)
}

// Locker lo implementa *cache.Locker.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

// ReconcileResult resumen de una corrida.
type ReconcileResult struct {
	Checked int
	Broken  []*inventory.ConsistencyReport
	Skipped bool // otro worker tenía el bloqueo
}

// Reconciler verifica el ledger completo bajo un bloqueo distribuido.
type Reconciler struct {
	verifier Verifier
	locker   Locker
	ttl      time.Duration
	pageSize int
	log      zerolog.Logger
}

// NewReconciler construye el trabajo. pageSize <= 0 usa 200.
func NewReconciler(verifier Verifier, locker Locker, ttl time.Duration, pageSize int, log zerolog.Logger) *Reconciler {
	if pageSize <= 0 {
		pageSize = 200
	}
	return &Reconciler{
		verifier: verifier,
		locker:   locker,
		ttl:      ttl,
		pageSize: pageSize,
		log:      log.With().Str("job", TaskLedgerReconcile).Logger(),
	}
}

// Run ejecuta una conciliación. Si otro proceso tiene el bloqueo, no hace nada.
func (r *Reconciler) Run(ctx context.Context, pageSize int) (ReconcileResult, error) {
	if pageSize <= 0 {
		pageSize = r.pageSize
	}
	var res ReconcileResult
	err := r.locker.WithLock(ctx, ReconcileLockKey, r.ttl, func(ctx context.Context) error {
		start := time.Now()
		checked, broken, err := r.verifier.VerifyAll(ctx, pageSize)
		res.Checked, res.Broken = checked, broken
		if err != nil {
			return err
		}
		r.log.Info().
			Int("checked", checked).
			Int("broken", len(broken)).
			Dur("took", time.Since(start)).
			Msg("conciliación del ledger terminada")
		return nil
	})
	if errors.Is(err, cache.ErrLocked) {
		r.log.Info().Msg("conciliación en curso en otro worker; se omite")
		return ReconcileResult{Skipped: true}, nil
	}
	if err != nil {
		return res, fmt.Errorf("conciliación: %w", err)
	}
	return res, nil
}

// Handle procesa TaskLedgerReconcile.
func (r *Reconciler) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ReconcilePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			r.log.Error().Err(err).Msg("payload inválido")
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
	}
	_, err := r.Run(ctx, payload.PageSize)
	return err
}
