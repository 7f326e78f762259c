package gateway

import (
	"context"
	"errors"

	"github.com/storevia/storefront/internal/domain"
)

// RemoteCartGateway defines the operations this client needs from the
// remote cart persistence service. Consumers define this interface, not
// the HTTP implementation.
type RemoteCartGateway interface {
	FetchCart(ctx context.Context, userEmail string) ([]domain.CartLineItem, error)
	UpdateQuantity(ctx context.Context, lineID string, change int) error
	DeleteLine(ctx context.Context, lineID string) error
	FetchRelatedItems(ctx context.Context, categories []string, excludeIDs []string) ([]domain.Product, error)
}

var (
	// ErrUnavailable covers transport failures, non-2xx responses and an
	// open circuit breaker.
	ErrUnavailable = errors.New("cart service unavailable")

	// ErrMalformedResponse covers bodies that do not parse as the
	// expected shape.
	ErrMalformedResponse = errors.New("malformed cart service response")
)
