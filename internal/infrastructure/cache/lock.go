package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLocked otro proceso tiene el bloqueo.
var ErrLocked = errors.New("bloqueo ocupado por otro proceso")

// Locker bloqueo distribuido de un solo ejecutor (job de conciliación).
type Locker struct {
	client *redislock.Client
}

// NewLocker construye el locker sobre el cliente Redis.
func NewLocker(client redis.UniversalClient) *Locker {
	return &Locker{client: redislock.New(client)}
}

// WithLock ejecuta fn si obtiene el bloqueo key durante ttl; si no, devuelve ErrLocked sin esperar.
func (l *Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return fmt.Errorf("%w: %s", ErrLocked, key)
	}
	if err != nil {
		return fmt.Errorf("obtener bloqueo %s: %w", key, err)
	}
	defer func() {
		// Release con contexto propio: ctx pudo haber expirado.
		_ = lock.Release(context.Background())
	}()
	return fn(ctx)
}
