package localstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storevia/storefront/internal/domain"
)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:      client,
		checkoutTTL: 30 * time.Minute,
	}
}

// RedisStore persists the badge count and pending checkout payload in
// Redis so they survive storefront restarts. Checkout payloads expire;
// an abandoned checkout should not linger forever.
type RedisStore struct {
	client      *redis.Client
	checkoutTTL time.Duration
}

func (r *RedisStore) CartCount(ctx context.Context, userEmail string) (int, error) {
	val, err := r.client.Get(ctx, countKey(userEmail)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get failed: %w", err)
	}

	count, err := strconv.Atoi(val)
	if err != nil || count < 0 {
		return 0, nil
	}
	return count, nil
}

func (r *RedisStore) SetCartCount(ctx context.Context, userEmail string, count int) error {
	if count < 0 {
		count = 0
	}
	if err := r.client.Set(ctx, countKey(userEmail), count, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) DecrementCartCount(ctx context.Context, userEmail string) (int, error) {
	// Deliberately a plain read-modify-write, not DECR: the badge is
	// display-only and must floor at zero rather than go negative.
	count, err := r.CartCount(ctx, userEmail)
	if err != nil {
		return 0, err
	}
	next := count - 1
	if next < 0 {
		next = 0
	}
	if err := r.SetCartCount(ctx, userEmail, next); err != nil {
		return 0, err
	}
	return next, nil
}

func (r *RedisStore) SavePendingCheckout(ctx context.Context, payload *domain.PendingCheckout) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal checkout payload failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.checkoutTTL + jitter
	if err := r.client.Set(ctx, checkoutKey(payload.UserEmail), string(data), ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) PendingCheckout(ctx context.Context, userEmail string) (*domain.PendingCheckout, error) {
	data, err := r.client.Get(ctx, checkoutKey(userEmail)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoPendingCheckout
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var payload domain.PendingCheckout
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal checkout payload failed: %w", err)
	}
	return &payload, nil
}

func (r *RedisStore) ClearPendingCheckout(ctx context.Context, userEmail string) error {
	if err := r.client.Del(ctx, checkoutKey(userEmail)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func countKey(userEmail string) string {
	return fmt.Sprintf("cartcount:%s", userEmail)
}

func checkoutKey(userEmail string) string {
	return fmt.Sprintf("checkout:%s", userEmail)
}
