package localstate

import (
	"context"
	"errors"

	"github.com/storevia/storefront/internal/domain"
)

// Store is the client-local persisted state this module reads and writes:
// the header-badge cart count and the pending checkout payload. Both are
// best-effort display state, never authoritative — the remote cart service
// owns the truth.
type Store interface {
	CartCount(ctx context.Context, userEmail string) (int, error)
	SetCartCount(ctx context.Context, userEmail string, count int) error

	// DecrementCartCount lowers the badge by one, floored at zero, and
	// returns the new value. The read-modify-write is not transactional;
	// concurrent decrements may under- or over-count.
	DecrementCartCount(ctx context.Context, userEmail string) (int, error)

	SavePendingCheckout(ctx context.Context, payload *domain.PendingCheckout) error
	PendingCheckout(ctx context.Context, userEmail string) (*domain.PendingCheckout, error)
	ClearPendingCheckout(ctx context.Context, userEmail string) error
}

// ErrNoPendingCheckout is returned when no checkout payload exists for the
// user.
var ErrNoPendingCheckout = errors.New("no pending checkout")
