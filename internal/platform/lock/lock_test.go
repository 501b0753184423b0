package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCertificateKey(t *testing.T) {
	assert.Equal(t, "certificate-seq:ENT-1:2025", CertificateKey("ENT-1", 2025))
	assert.Equal(t, "ledger:ENT-1:ORD", LedgerKey("ENT-1", "ORD"))
}

func TestKeyedMutex_SerialisesSameKey(t *testing.T) {
	k := NewKeyedMutex()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(ctx, "a")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, k.held(), "entries are dropped after release")
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	k := NewKeyedMutex()
	ctx := context.Background()

	unlockA, err := k.Lock(ctx, "a")
	require.NoError(t, err)
	unlockB, err := k.Lock(ctx, "b")
	require.NoError(t, err)

	assert.NoError(t, unlockA())
	assert.NoError(t, unlockB())
	assert.NoError(t, unlockA(), "second call is a no-op")
}

func TestKeyedMutex_ContextCancelled(t *testing.T) {
	k := NewKeyedMutex()

	unlock, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "a")
	assert.ErrorIs(t, err, ErrNotAcquired)

	require.NoError(t, unlock())
	assert.Equal(t, 0, k.held())
}
