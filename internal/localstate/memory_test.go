package localstate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storevia/storefront/internal/domain"
)

func TestMemoryStore_CartCount(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	count, err := store.CartCount(ctx, "jo@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, store.SetCartCount(ctx, "jo@example.com", 3))
	count, _ = store.CartCount(ctx, "jo@example.com")
	assert.Equal(t, 3, count)
}

func TestMemoryStore_DecrementFlooredAtZero(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.SetCartCount(ctx, "jo@example.com", 1))

	next, err := store.DecrementCartCount(ctx, "jo@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	next, err = store.DecrementCartCount(ctx, "jo@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, next, "badge never goes negative")
}

func TestMemoryStore_PendingCheckout(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.PendingCheckout(ctx, "jo@example.com")
	assert.ErrorIs(t, err, ErrNoPendingCheckout)

	payload := &domain.PendingCheckout{
		ID:         "chk-1",
		UserEmail:  "jo@example.com",
		Items:      []domain.CartLineItem{{ID: "l1", Quantity: 1}},
		CapturedAt: time.Now(),
	}
	require.NoError(t, store.SavePendingCheckout(ctx, payload))

	got, err := store.PendingCheckout(ctx, "jo@example.com")
	require.NoError(t, err)
	assert.Equal(t, "chk-1", got.ID)

	require.NoError(t, store.ClearPendingCheckout(ctx, "jo@example.com"))
	_, err = store.PendingCheckout(ctx, "jo@example.com")
	assert.ErrorIs(t, err, ErrNoPendingCheckout)
}
