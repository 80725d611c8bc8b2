package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/pkg/config"
)

func memoryConfig(sequencer string) *config.Config {
	return &config.Config{
		Storage:   config.StorageConfig{Driver: config.DriverMemory},
		Sequencer: config.SequencerConfig{Backend: sequencer},
	}
}

func TestOpen_Memoria(t *testing.T) {
	b, err := Open(context.Background(), memoryConfig(config.DriverMemory), zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()

	assert.NotNil(t, b.Tx)
	assert.NotNil(t, b.Products)
	assert.Nil(t, b.Redis)

	n, err := b.Sequences.Increment(context.Background(), entity.DocumentInvoice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOpen_ContadorEnRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig(config.DriverRedis)
	cfg.Redis = config.RedisConfig{Addr: mr.Addr()}

	b, err := Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()

	require.NotNil(t, b.Redis)
	n, err := b.Sequences.Increment(context.Background(), entity.DocumentInvoice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	again, err := b.RedisClient(context.Background(), cfg.Redis)
	require.NoError(t, err)
	assert.Same(t, b.Redis, again)
}

func TestOpen_CombinacionesInvalidas(t *testing.T) {
	_, err := Open(context.Background(), memoryConfig(config.DriverPostgres), zerolog.Nop())
	assert.Error(t, err)

	_, err = Open(context.Background(), memoryConfig("etcd"), zerolog.Nop())
	assert.Error(t, err)

	cfg := memoryConfig(config.DriverRedis)
	cfg.Redis = config.RedisConfig{Addr: "127.0.0.1:1"}
	_, err = Open(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
