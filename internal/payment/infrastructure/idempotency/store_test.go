package idempotency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	mu   sync.Mutex
	keys map[string]time.Duration
	err  error
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if _, ok := f.keys[key]; ok {
		return "1", nil
	}
	return "", nil
}

func (f *fakeKV) Set(_ context.Context, key string, _ any, exp time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.keys[key] = exp
	return nil
}

func TestRedisStore(t *testing.T) {
	kv := &fakeKV{keys: map[string]time.Duration{}}
	s := NewRedisStore(kv, time.Hour)
	ctx := context.Background()

	seen, err := s.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)
	assert.Empty(t, kv.keys, "reading does not reserve the event")

	require.NoError(t, s.MarkProcessed(ctx, "evt_1"))
	assert.Equal(t, time.Hour, kv.keys[DefaultKeyPrefix+"evt_1"])

	seen, err = s.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	kv.err = errors.New("connection refused")
	_, err = s.Seen(ctx, "evt_2")
	assert.ErrorContains(t, err, "connection refused")
	assert.ErrorContains(t, s.MarkProcessed(ctx, "evt_2"), "connection refused")
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	seen, err := s.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.MarkProcessed(ctx, "evt_1"))
	seen, _ = s.Seen(ctx, "evt_1")
	assert.True(t, seen)

	now = now.Add(2 * time.Minute)
	seen, _ = s.Seen(ctx, "evt_1")
	assert.False(t, seen)
	assert.Equal(t, 0, s.Len(), "expired key is dropped on read")
}

func TestMemoryStore_SweepsExpiredKeysInBatches(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	for i := range minSweepSize - 1 {
		require.NoError(t, s.MarkProcessed(ctx, fmt.Sprintf("old_%d", i)))
	}
	assert.Equal(t, minSweepSize-1, s.Len())

	now = now.Add(2 * time.Minute)
	require.NoError(t, s.MarkProcessed(ctx, "fresh"))
	assert.Equal(t, 1, s.Len(), "reaching the threshold sweeps expired keys")

	seen, _ := s.Seen(ctx, "fresh")
	assert.True(t, seen)
}

func TestMemoryStore_ConcurrentMark(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.MarkProcessed(context.Background(), fmt.Sprintf("evt_%d", i%5)))
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, s.Len())
}
