package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/storage"
	"github.com/jhoicas/inventario-ledger/internal/jobs"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("cron", cfg.Worker.ReconcileCron).
		Msg("iniciando worker")

	if err := checkConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("configuración del worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := storage.Open(ctx, cfg, log.Component("storage"))
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer backend.Close()

	redisClient, err := backend.RedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("el worker requiere Redis")
	}

	ledger := inventory.NewLedger(
		backend.Tx, backend.Products, backend.Movements,
		inventory.Config{NegativeStock: cfg.Inventory.NegativeStock},
		log.Zerolog(),
	)
	reconciler := jobs.NewReconciler(
		ledger,
		cache.NewLocker(redisClient),
		cfg.Worker.LockTTL,
		cfg.Worker.PageSize,
		log.Zerolog(),
	)

	task, err := jobs.NewReconcileTask(jobs.ReconcilePayload{PageSize: cfg.Worker.PageSize})
	if err != nil {
		log.Fatal().Err(err).Msg("preparar tarea de conciliación")
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		Concurrency: cfg.Worker.Concurrency,
		Logger:      log.Component("worker"),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLedgerReconcile, Handler: reconciler.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.Worker.ReconcileCron, Task: task},
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configurar worker")
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker finalizado con error")
	}
	log.Info().Msg("worker detenido")
}

// checkConfig el worker verifica el almacenamiento compartido con la API: un store en memoria
// propio estaría vacío y la conciliación siempre saldría limpia.
func checkConfig(cfg *config.Config) error {
	if cfg.Storage.Driver == config.DriverMemory {
		return errors.New("el worker requiere STORAGE_DRIVER=postgres")
	}
	if cfg.Redis.Addr == "" {
		return errors.New("el worker requiere REDIS_ADDR")
	}
	return nil
}
