// Package sequence genera los números consecutivos de documentos (INV-000123, PO-000045).
package sequence

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// Sequencer entrega consecutivos únicos por tipo de documento. El contador es independiente
// de los bloqueos de productos: se incrementa fuera de la transacción del documento, por lo que
// puede haber huecos pero nunca repetidos.
type Sequencer struct {
	counter repository.SequenceRepository
	log     zerolog.Logger
}

// New construye el sequencer sobre un contador durable (postgres, redis o memoria).
func New(counter repository.SequenceRepository, log zerolog.Logger) *Sequencer {
	return &Sequencer{counter: counter, log: log.With().Str("component", "sequencer").Logger()}
}

// Next incrementa el contador del tipo de documento y devuelve el nuevo valor.
func (s *Sequencer) Next(ctx context.Context, doc entity.DocumentType) (int64, error) {
	if !doc.Valid() {
		return 0, fmt.Errorf("%w: tipo de documento %q", domain.ErrInvalidInput, doc)
	}
	n, err := s.counter.Increment(ctx, doc)
	if err != nil {
		s.log.Error().Err(err).Str("document_type", string(doc)).Msg("no se pudo obtener el consecutivo")
		return 0, fmt.Errorf("%w: %w", domain.ErrSequenceUnavailable, err)
	}
	return n, nil
}

// NextNumber devuelve el consecutivo y su forma visible.
func (s *Sequencer) NextNumber(ctx context.Context, doc entity.DocumentType) (int64, string, error) {
	n, err := s.Next(ctx, doc)
	if err != nil {
		return 0, "", err
	}
	return n, Format(doc, n), nil
}

// Format da formato al consecutivo: prefijo del tipo + 6 dígitos (INV-000123).
func Format(doc entity.DocumentType, n int64) string {
	return entity.FormatNumber(doc, n)
}
