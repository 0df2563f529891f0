package payment

import (
	"context"
	"testing"
	"time"

	"github.com/KanishKumar11/UNextDoor-sub005/pkg/cache"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*PendingStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := cache.NewClient("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return NewPendingStore(client, time.Hour), mr
}

func TestPendingStore_PutGet(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 1, "order_abc"))

	orderID, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "order_abc", orderID)
}

func TestPendingStore_GetEmptySlot(t *testing.T) {
	store, _ := setupStore(t)

	orderID, err := store.Get(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, orderID)
}

func TestPendingStore_PutOverwrites(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 1, "order_old"))
	require.NoError(t, store.Put(ctx, 1, "order_new"))

	orderID, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "order_new", orderID)
}

func TestPendingStore_CompareAndClear(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 1, "order_abc"))

	cleared, err := store.CompareAndClear(ctx, 1, "order_abc")
	require.NoError(t, err)
	assert.True(t, cleared)

	orderID, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, orderID)
}

func TestPendingStore_CompareAndClearMismatch(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	// A newer initiation replaced the slot; the stale clear must not win
	require.NoError(t, store.Put(ctx, 1, "order_new"))

	cleared, err := store.CompareAndClear(ctx, 1, "order_old")
	require.NoError(t, err)
	assert.False(t, cleared)

	orderID, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "order_new", orderID)
}

func TestPendingStore_CompareAndClearEmptySlot(t *testing.T) {
	store, _ := setupStore(t)

	cleared, err := store.CompareAndClear(context.Background(), 1, "order_abc")
	require.NoError(t, err)
	assert.False(t, cleared)
}

func TestPendingStore_SecondClearIsNoop(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 1, "order_abc"))

	first, err := store.CompareAndClear(ctx, 1, "order_abc")
	require.NoError(t, err)
	second, err := store.CompareAndClear(ctx, 1, "order_abc")
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestPendingStore_PendingUserIDs(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 1, "order_a"))
	require.NoError(t, store.Put(ctx, 42, "order_b"))
	require.NoError(t, store.Put(ctx, 7, "order_c"))

	ids, err := store.PendingUserIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 7, 42}, ids)
}

func TestPendingStore_SlotExpires(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 1, "order_abc"))
	mr.FastForward(2 * time.Hour)

	orderID, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, orderID)
}
