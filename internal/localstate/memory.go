package localstate

import (
	"context"
	"sync"

	"github.com/storevia/storefront/internal/domain"
)

// MemoryStore keeps the persisted client state in process memory. Used in
// tests and when no Redis address is configured.
type MemoryStore struct {
	mu        sync.RWMutex
	counts    map[string]int
	checkouts map[string]*domain.PendingCheckout
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counts:    make(map[string]int),
		checkouts: make(map[string]*domain.PendingCheckout),
	}
}

func (m *MemoryStore) CartCount(_ context.Context, userEmail string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[userEmail], nil
}

func (m *MemoryStore) SetCartCount(_ context.Context, userEmail string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if count < 0 {
		count = 0
	}
	m.counts[userEmail] = count
	return nil
}

func (m *MemoryStore) DecrementCartCount(_ context.Context, userEmail string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.counts[userEmail] - 1
	if next < 0 {
		next = 0
	}
	m.counts[userEmail] = next
	return next, nil
}

func (m *MemoryStore) SavePendingCheckout(_ context.Context, payload *domain.PendingCheckout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkouts[payload.UserEmail] = payload
	return nil
}

func (m *MemoryStore) PendingCheckout(_ context.Context, userEmail string) (*domain.PendingCheckout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payload, ok := m.checkouts[userEmail]
	if !ok {
		return nil, ErrNoPendingCheckout
	}
	return payload, nil
}

func (m *MemoryStore) ClearPendingCheckout(_ context.Context, userEmail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.checkouts, userEmail)
	return nil
}
