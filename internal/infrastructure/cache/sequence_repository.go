package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo contador de consecutivos con INCR. Requiere Redis con persistencia (AOF) para ser durable.
type SequenceRepo struct {
	client redis.Cmdable
	prefix string
}

// NewSequenceRepository construye el contador; las llaves quedan como seq:<tipo>.
func NewSequenceRepository(client redis.Cmdable) *SequenceRepo {
	return &SequenceRepo{client: client, prefix: "seq:"}
}

// Increment INCR atómico sobre la llave del tipo de documento.
func (r *SequenceRepo) Increment(ctx context.Context, doc entity.DocumentType) (int64, error) {
	n, err := r.client.Incr(ctx, r.prefix+string(doc)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", doc, err)
	}
	return n, nil
}
