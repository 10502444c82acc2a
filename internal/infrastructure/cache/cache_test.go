package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coretrack/backend/internal/domain/datasync"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	first, err := store.MarkProcessed(ctx, "stripe:evt_1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.MarkProcessed(ctx, "stripe:evt_1", time.Hour)
	require.NoError(t, err)
	assert.False(t, again, "duplicate deliveries are detected")

	processed, err := store.IsProcessed(ctx, "stripe:evt_1")
	require.NoError(t, err)
	assert.True(t, processed)

	now = now.Add(2 * time.Hour)
	processed, err = store.IsProcessed(ctx, "stripe:evt_1")
	require.NoError(t, err)
	assert.False(t, processed)

	after, err := store.MarkProcessed(ctx, "stripe:evt_1", time.Hour)
	require.NoError(t, err)
	assert.True(t, after, "expired keys can be marked again")
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	first, err := store.MarkProcessed(ctx, "xendit:inv_1", time.Hour)
	require.NoError(t, err)
	require.True(t, first)

	require.NoError(t, store.Release(ctx, "xendit:inv_1"))
	require.NoError(t, store.Release(ctx, "xendit:missing"))

	processed, err := store.IsProcessed(ctx, "xendit:inv_1")
	require.NoError(t, err)
	assert.False(t, processed)

	again, err := store.MarkProcessed(ctx, "xendit:inv_1", time.Hour)
	require.NoError(t, err)
	assert.True(t, again, "released keys can be claimed again")
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, _ = store.MarkProcessed(ctx, "short-1", time.Minute)
	_, _ = store.MarkProcessed(ctx, "short-2", time.Minute)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	assert.Equal(t, 3, store.Len())

	now = now.Add(2 * time.Minute)
	store.sweep()
	assert.Equal(t, 1, store.Len())
}

func TestInMemoryIdempotencyStore_ConcurrentMarks(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	const workers = 50
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.MarkProcessed(ctx, "xendit:inv_1", time.Hour)
			if err == nil && ok {
				mu.Lock()
				first++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, first)
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestNewIdempotencyStore_FallsBackToMemory(t *testing.T) {
	store := NewIdempotencyStore(nil, zap.NewNop())
	defer store.Close()
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
}

func TestInMemorySessionStore(t *testing.T) {
	store := NewInMemorySessionStore()
	ctx := context.Background()
	tenantID := uuid.New()
	seen := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Touch(ctx, datasync.ClientSession{TenantID: tenantID, ClientID: "tablet-b", State: datasync.StateOnline, LastSeenAt: seen}))
	require.NoError(t, store.Touch(ctx, datasync.ClientSession{TenantID: tenantID, ClientID: "tablet-a", State: datasync.StateSyncing, LastSeenAt: seen}))
	require.NoError(t, store.Touch(ctx, datasync.ClientSession{TenantID: tenantID, ClientID: "tablet-b", State: datasync.StateOffline, LastSeenAt: seen.Add(time.Minute)}))
	require.NoError(t, store.Touch(ctx, datasync.ClientSession{TenantID: uuid.New(), ClientID: "other", State: datasync.StateOnline}))

	sessions, err := store.List(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "tablet-a", sessions[0].ClientID)
	assert.Equal(t, datasync.StateOffline, sessions[1].State)

	empty, err := store.List(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}
