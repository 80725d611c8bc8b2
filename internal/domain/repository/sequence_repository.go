package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// SequenceRepository contador durable por tipo de documento.
type SequenceRepository interface {
	// Increment incrementa atómicamente el contador y devuelve el nuevo valor.
	Increment(ctx context.Context, doc entity.DocumentType) (int64, error)
}
