package sequence

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

type failingCounter struct{}

func (failingCounter) Increment(context.Context, entity.DocumentType) (int64, error) {
	return 0, errors.New("conexión rechazada")
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "INV-000123", Format(entity.DocumentInvoice, 123))
	assert.Equal(t, "PO-000045", Format(entity.DocumentPurchaseOrder, 45))
	assert.Equal(t, "INV-1234567", Format(entity.DocumentInvoice, 1234567))
}

func TestNext_TiposIndependientes(t *testing.T) {
	s := New(memory.NewStore().Sequences(), zerolog.Nop())
	ctx := context.Background()

	n, err := s.Next(ctx, entity.DocumentInvoice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = s.Next(ctx, entity.DocumentInvoice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, number, err := s.NextNumber(ctx, entity.DocumentPurchaseOrder)
	require.NoError(t, err)
	assert.Equal(t, "PO-000001", number)
}

func TestNext_TipoDesconocido(t *testing.T) {
	s := New(memory.NewStore().Sequences(), zerolog.Nop())
	_, err := s.Next(context.Background(), entity.DocumentType("receipt"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNext_ContadorCaido(t *testing.T) {
	s := New(failingCounter{}, zerolog.Nop())
	_, err := s.Next(context.Background(), entity.DocumentInvoice)
	assert.ErrorIs(t, err, domain.ErrSequenceUnavailable)
}

func TestNext_ConcurrenteSinRepetidos(t *testing.T) {
	s := New(memory.NewStore().Sequences(), zerolog.Nop())
	const callers = 1000

	var mu sync.Mutex
	seen := make(map[int64]bool, callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			n, err := s.Next(context.Background(), entity.DocumentInvoice)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[n] {
				return errors.New("consecutivo repetido")
			}
			seen[n] = true
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, seen, callers)
}
