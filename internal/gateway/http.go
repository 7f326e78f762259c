package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/storevia/storefront/internal/domain"
)

// HTTPGateway talks to the remote cart service over its JSON API. All
// calls go through a circuit breaker so a dead backend fails fast instead
// of tying up request handlers for the full timeout.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     *logrus.Logger
}

func NewHTTPGateway(baseURL string, timeout time.Duration, log *logrus.Logger) *HTTPGateway {
	if log == nil {
		log = logrus.StandardLogger()
	}
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "remote-cart",
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
		log:     log,
	}
}

type fetchCartRequest struct {
	UserEmail string `json:"user_email"`
}

type fetchCartResponse struct {
	CartItems []cartLineDTO `json:"cartItems"`
}

type updateQuantityRequest struct {
	Change int `json:"change"`
}

type ackResponse struct {
	OK bool `json:"ok"`
}

type relatedItemsRequest struct {
	Categories []string `json:"categories"`
	ExcludeIDs []string `json:"exclude_ids"`
}

type relatedItemsResponse struct {
	MatchingItems []productDTO `json:"matchingItems"`
}

func (g *HTTPGateway) FetchCart(ctx context.Context, userEmail string) ([]domain.CartLineItem, error) {
	body, err := g.doJSON(ctx, http.MethodPost, "/cart/fetch", fetchCartRequest{UserEmail: userEmail})
	if err != nil {
		return nil, err
	}

	var resp fetchCartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	items := make([]domain.CartLineItem, 0, len(resp.CartItems))
	for _, dto := range resp.CartItems {
		items = append(items, dto.toDomain())
	}
	return items, nil
}

func (g *HTTPGateway) UpdateQuantity(ctx context.Context, lineID string, change int) error {
	path := "/cart/lines/" + url.PathEscape(lineID)
	body, err := g.doJSON(ctx, http.MethodPatch, path, updateQuantityRequest{Change: change})
	if err != nil {
		return err
	}

	var ack ackResponse
	if err := json.Unmarshal(body, &ack); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !ack.OK {
		return fmt.Errorf("%w: quantity update rejected for line %s", ErrUnavailable, lineID)
	}
	return nil
}

func (g *HTTPGateway) DeleteLine(ctx context.Context, lineID string) error {
	path := "/cart/lines/" + url.PathEscape(lineID)
	body, err := g.doJSON(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}

	// The delete response body is advisory; a 2xx is what commits the
	// removal. A malformed ack is logged and ignored.
	var ack ackResponse
	if err := json.Unmarshal(body, &ack); err != nil {
		g.log.Debugf("delete line %s: unreadable ack: %v", lineID, err)
	}
	return nil
}

func (g *HTTPGateway) FetchRelatedItems(ctx context.Context, categories []string, excludeIDs []string) ([]domain.Product, error) {
	body, err := g.doJSON(ctx, http.MethodPost, "/products/related", relatedItemsRequest{
		Categories: categories,
		ExcludeIDs: excludeIDs,
	})
	if err != nil {
		return nil, err
	}

	var resp relatedItemsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	products := make([]domain.Product, 0, len(resp.MatchingItems))
	for _, dto := range resp.MatchingItems {
		products = append(products, dto.toDomain())
	}
	return products, nil
}

// doJSON runs one request through the circuit breaker and returns the raw
// response body. Transport errors and non-2xx statuses count as breaker
// failures; malformed bodies are the caller's concern.
func (g *HTTPGateway) doJSON(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	body, err := g.breaker.Execute(func() ([]byte, error) {
		resp, errDo := g.client.Do(req)
		if errDo != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, errDo)
		}
		defer resp.Body.Close()

		data, errRead := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if errRead != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, errRead)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("%w: %s %s returned %d", ErrUnavailable, method, path, resp.StatusCode)
		}
		return data, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}
	return body, nil
}
