package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo contador por tipo de documento en la tabla sequence_counters.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el contador. Usar el pool: el incremento no participa
// en la transacción del documento.
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Increment lectura-modificación-escritura en una sola sentencia; el bloqueo de la fila
// serializa a los llamadores concurrentes.
func (r *SequenceRepo) Increment(ctx context.Context, doc entity.DocumentType) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO sequence_counters (document_type, value) VALUES ($1, 1)
		ON CONFLICT (document_type) DO UPDATE SET value = sequence_counters.value + 1
		RETURNING value`, string(doc)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("increment sequence %s: %w", doc, err)
	}
	return n, nil
}
