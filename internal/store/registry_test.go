package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storevia/storefront/internal/localstate"
	"github.com/storevia/storefront/internal/session"
)

func newTestRegistry(gw *mockGateway) *Registry {
	return NewRegistry(gw, session.ContextProvider{}, localstate.NewMemoryStore(), nil)
}

func TestRegistry_SameUserGetsSameStore(t *testing.T) {
	r := newTestRegistry(&mockGateway{items: twoLines()})
	ctx := session.ContextWithEmail(context.Background(), "alice@example.com")

	first := r.For(ctx)
	second := r.For(ctx)
	assert.Same(t, first, second)
}

func TestRegistry_UsersGetIsolatedStores(t *testing.T) {
	gw := &mockGateway{items: twoLines()}
	r := newTestRegistry(gw)
	aliceCtx := session.ContextWithEmail(context.Background(), "alice@example.com")
	bobCtx := session.ContextWithEmail(context.Background(), "bob@example.com")

	alice := r.For(aliceCtx)
	_, err := alice.Load(aliceCtx)
	require.NoError(t, err)
	require.True(t, alice.ToggleSelected("a"))

	bob := r.For(bobCtx)
	assert.NotSame(t, alice, bob)
	assert.Empty(t, bob.Items(), "one user's loaded cart never shows for another")
	assert.Equal(t, 0.0, bob.Snapshot().Subtotal)
}

func TestRegistry_AnonymousStoresAreNotRetained(t *testing.T) {
	r := newTestRegistry(&mockGateway{items: twoLines()})

	first := r.For(context.Background())
	second := r.For(context.Background())
	assert.NotSame(t, first, second)

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Empty(t, r.entries)
}

func TestRegistry_EvictsIdleStores(t *testing.T) {
	r := newTestRegistry(&mockGateway{items: twoLines()})
	r.idleTTL = 10 * time.Millisecond
	ctx := session.ContextWithEmail(context.Background(), "alice@example.com")

	stale := r.For(ctx)
	time.Sleep(30 * time.Millisecond)

	fresh := r.For(ctx)
	assert.NotSame(t, stale, fresh)
}
