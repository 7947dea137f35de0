package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Local ---

func TestLocal_MutualExclusion(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "doc")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			assert.NoError(t, unlock())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Zero(t, l.held(), "entries are dropped after release")
}

func TestLocal_ContextTimeout(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "doc")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "doc")
	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLocal_IndependentKeys(t *testing.T) {
	l := NewLocal()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	a, err := l.Lock(ctx, DocumentKey("a"))
	require.NoError(t, err)
	b, err := l.Lock(ctx, DocumentKey("b"))
	require.NoError(t, err)

	require.NoError(t, a())
	require.NoError(t, b())
	require.NoError(t, a(), "unlock is idempotent")
	assert.Zero(t, l.held())
}

// --- Redis ---

func setupRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	r, err := NewRedis("redis://"+m.Addr(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r, m
}

func TestRedis_ExcludesSecondHolder(t *testing.T) {
	r, m := setupRedis(t, time.Minute)
	ctx := context.Background()

	unlock, err := r.Lock(ctx, "doc")
	require.NoError(t, err)
	assert.True(t, m.Exists(keyPrefix+"doc"))

	short, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	_, err = r.Lock(short, "doc")
	assert.ErrorIs(t, err, ErrNotAcquired)

	require.NoError(t, unlock())
	assert.False(t, m.Exists(keyPrefix+"doc"))

	unlock2, err := r.Lock(ctx, "doc")
	require.NoError(t, err)
	require.NoError(t, unlock2())
}

func TestRedis_LeaseExpires(t *testing.T) {
	r, m := setupRedis(t, time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	stale, err := r.Lock(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, time.Second, m.TTL(keyPrefix+"doc"))

	m.FastForward(2 * time.Second)

	fresh, err := r.Lock(ctx, "doc")
	require.NoError(t, err)

	// The expired holder must not release its successor's lease.
	require.NoError(t, stale())
	assert.True(t, m.Exists(keyPrefix+"doc"))

	require.NoError(t, fresh())
	assert.False(t, m.Exists(keyPrefix+"doc"))
}

func TestRedis_DefaultTTL(t *testing.T) {
	r, _ := setupRedis(t, 0)
	assert.Equal(t, DefaultTTL, r.ttl)
}

func TestNewRedis_BadURL(t *testing.T) {
	_, err := NewRedis("not a url", time.Second)
	assert.Error(t, err)
}
