// Package storage arma el backend de persistencia según la configuración (postgres o memoria)
// y el contador de consecutivos (postgres, redis o memoria).
package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/pkg/config"
)

// Backend repositorios de lectura, runner transaccional y contador ya conectados.
type Backend struct {
	Tx        inventory.TxRunner
	Products  repository.ProductRepository
	Movements repository.StockMovementRepository
	Orders    repository.OrderRepository
	Sequences repository.SequenceRepository

	// Redis queda nil si ningún componente lo necesitó.
	Redis *redis.Client

	closers []func()
}

// Open conecta el almacenamiento y el contador. En postgres aplica el esquema al arrancar.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Backend, error) {
	b := &Backend{}
	var pgSeq repository.SequenceRepository
	var memSeq repository.SequenceRepository

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		if err := postgres.Migrate(ctx, pool); err != nil {
			b.Close()
			return nil, err
		}
		b.Tx = postgres.NewTxRunner(pool)
		b.Products = postgres.NewProductRepository(pool)
		b.Movements = postgres.NewStockMovementRepository(pool)
		b.Orders = postgres.NewOrderRepository(pool)
		pgSeq = postgres.NewSequenceRepository(pool)
	case config.DriverMemory:
		store := memory.NewStore()
		b.Tx = store
		b.Products = store.Products()
		b.Movements = store.Movements()
		b.Orders = store.Orders()
		memSeq = store.Sequences()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		return nil, fmt.Errorf("driver de almacenamiento desconocido %q", cfg.Storage.Driver)
	}

	switch cfg.Sequencer.Backend {
	case config.DriverPostgres:
		if pgSeq == nil {
			b.Close()
			return nil, fmt.Errorf("el contador postgres requiere STORAGE_DRIVER=postgres")
		}
		b.Sequences = pgSeq
	case config.DriverRedis:
		client, err := b.RedisClient(ctx, cfg.Redis)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Sequences = cache.NewSequenceRepository(client)
	case config.DriverMemory:
		if memSeq == nil {
			memSeq = memory.NewStore().Sequences()
		}
		b.Sequences = memSeq
	default:
		b.Close()
		return nil, fmt.Errorf("backend de consecutivos desconocido %q", cfg.Sequencer.Backend)
	}

	log.Info().
		Str("storage", cfg.Storage.Driver).
		Str("sequencer", cfg.Sequencer.Backend).
		Msg("almacenamiento listo")
	return b, nil
}

// RedisClient devuelve el cliente compartido, conectándolo si todavía no existe.
func (b *Backend) RedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if b.Redis != nil {
		return b.Redis, nil
	}
	client, err := cache.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("conexión a Redis: %w", err)
	}
	b.Redis = client
	b.closers = append(b.closers, func() { _ = client.Close() })
	return client, nil
}

// Close libera las conexiones en orden inverso.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
