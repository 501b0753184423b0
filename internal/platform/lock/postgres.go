package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	advisoryLockQuery   = `SELECT pg_advisory_lock(hashtextextended($1, 0))`
	advisoryUnlockQuery = `SELECT pg_advisory_unlock(hashtextextended($1, 0))`
)

// AdvisoryLocker is a Locker backed by PostgreSQL session advisory locks. Each held lock pins
// one pooled connection until it is released; a crashed holder's lock ends with its session.
type AdvisoryLocker struct {
	pool *pgxpool.Pool
}

func NewAdvisoryLocker(pool *pgxpool.Pool) *AdvisoryLocker {
	return &AdvisoryLocker{pool: pool}
}

func (a *AdvisoryLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		}
		return nil, fmt.Errorf("acquire connection for lock %s: %w", key, err)
	}
	if _, err := conn.Exec(ctx, advisoryLockQuery, key); err != nil {
		// A cancelled wait leaves the session unusable, so the connection is discarded.
		conn.Conn().Close(context.Background())
		conn.Release()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		}
		return nil, fmt.Errorf("acquire advisory lock %s: %w", key, err)
	}

	var once sync.Once
	return func() error {
		var err error
		once.Do(func() {
			defer conn.Release()
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, uerr := conn.Exec(releaseCtx, advisoryUnlockQuery, key); uerr != nil {
				conn.Conn().Close(context.Background())
				err = fmt.Errorf("release advisory lock %s: %w", key, uerr)
			}
		})
		return err
	}, nil
}
