package store

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/storevia/storefront/internal/gateway"
	"github.com/storevia/storefront/internal/localstate"
	"github.com/storevia/storefront/internal/session"
)

// defaultIdleTTL is how long a user's store survives without a request
// before it is evicted. Cart contents live on the server, so eviction
// only discards selection and promo state.
const defaultIdleTTL = 30 * time.Minute

// Registry hands out one CartStore per resolved user. Stores are created
// on first use and evicted after sitting idle, so two sessions never see
// each other's selection, discount or checkout payload.
type Registry struct {
	gateway gateway.RemoteCartGateway
	users   session.CurrentUserProvider
	state   localstate.Store
	log     *logrus.Logger

	idleTTL time.Duration

	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	store    *CartStore
	lastSeen time.Time
}

func NewRegistry(gw gateway.RemoteCartGateway, users session.CurrentUserProvider, state localstate.Store, log *logrus.Logger) *Registry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{
		gateway: gw,
		users:   users,
		state:   state,
		log:     log,
		idleTTL: defaultIdleTTL,
		entries: make(map[string]*registryEntry),
	}
}

// For returns the store owned by the user resolved from ctx, creating it
// on first use. Repeated calls for the same user return the same instance
// until it is evicted for idleness. Anonymous requests get a fresh,
// unregistered store so they cannot accumulate or share state.
func (r *Registry) For(ctx context.Context) *CartStore {
	email, ok := r.users.Email(ctx)
	if !ok || email == "" {
		return NewCartStore(r.gateway, "", r.state, r.log)
	}

	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictIdleLocked(now)

	e, ok := r.entries[email]
	if !ok {
		e = &registryEntry{store: NewCartStore(r.gateway, email, r.state, r.log)}
		r.entries[email] = e
	}
	e.lastSeen = now
	return e.store
}

func (r *Registry) evictIdleLocked(now time.Time) {
	for email, e := range r.entries {
		if now.Sub(e.lastSeen) > r.idleTTL {
			delete(r.entries, email)
		}
	}
}
