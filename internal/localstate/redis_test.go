package localstate

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storevia/storefront/internal/domain"
)

// setupTestRedis creates a miniredis server and returns a RedisStore instance
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return store, mr, cleanup
}

func TestRedisStore_CartCountRoundTrip(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.SetCartCount(ctx, "jo@example.com", 4))

	count, err := store.CartCount(ctx, "jo@example.com")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestRedisStore_CartCountMissingReadsZero(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()

	count, err := store.CartCount(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRedisStore_CartCountGarbageReadsZero(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Set(countKey("jo@example.com"), "not-a-number")

	count, err := store.CartCount(context.Background(), "jo@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRedisStore_DecrementFlooredAtZero(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.SetCartCount(ctx, "jo@example.com", 1))

	next, err := store.DecrementCartCount(ctx, "jo@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	next, err = store.DecrementCartCount(ctx, "jo@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, next)
}

func TestRedisStore_PendingCheckoutRoundTrip(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	payload := &domain.PendingCheckout{
		ID:        "chk-9",
		UserEmail: "jo@example.com",
		Items: []domain.CartLineItem{
			{ID: "l1", UnitPrice: 1000, Quantity: 2, Selected: true},
		},
		Snapshot:   domain.CartSnapshot{Subtotal: 2000, Total: 2000},
		CapturedAt: time.Now(),
	}
	require.NoError(t, store.SavePendingCheckout(ctx, payload))

	// Payload expires eventually.
	ttl := mr.TTL(checkoutKey("jo@example.com"))
	assert.True(t, ttl >= 30*time.Minute)

	got, err := store.PendingCheckout(ctx, "jo@example.com")
	require.NoError(t, err)
	assert.Equal(t, "chk-9", got.ID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2000.0, got.Snapshot.Subtotal)
}

func TestRedisStore_PendingCheckoutMissing(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()

	_, err := store.PendingCheckout(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNoPendingCheckout)
}

func TestRedisStore_PendingCheckoutCorruptPayload(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Set(checkoutKey("jo@example.com"), "{broken")

	_, err := store.PendingCheckout(context.Background(), "jo@example.com")
	assert.Error(t, err)

	var payload domain.PendingCheckout
	assert.Error(t, json.Unmarshal([]byte("{broken"), &payload))
}
