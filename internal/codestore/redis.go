package codestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/civicvoice/civicvoice-server/internal/logger"
	"github.com/civicvoice/civicvoice-server/internal/model"
)

const redisKeyPrefix = "pending_code:"

var _ model.CodeStore = (*Redis)(nil)

// Redis is a code store backed by a redis instance, for deployments where
// issuance and verification may land on different processes. Expiry is
// delegated to redis key TTLs.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewRedis creates a Redis store from a redis:// URL.
func NewRedis(ctx context.Context, url string, ttl time.Duration, logger *logger.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Redis{
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Issue stores a code for the email, overwriting any prior entry. The key
// TTL restarts from the new issuance time.
func (r *Redis) Issue(ctx context.Context, email, code string) error {
	key := model.NormalizeEmail(email)
	entry := model.PendingCode{
		Email:    key,
		Code:     code,
		IssuedAt: time.Now(),
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal pending code: %w", err)
	}

	if err := r.client.Set(ctx, redisKeyPrefix+key, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store pending code: %w", err)
	}

	return nil
}

// Lookup returns the pending code for the email. Redis drops expired keys
// itself, so an expired entry is observed as absent.
func (r *Redis) Lookup(ctx context.Context, email string) (model.PendingCode, error) {
	key := model.NormalizeEmail(email)

	payload, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.PendingCode{}, model.ErrNotFound
	}
	if err != nil {
		return model.PendingCode{}, fmt.Errorf("failed to get pending code: %w", err)
	}

	var entry model.PendingCode
	if err := json.Unmarshal(payload, &entry); err != nil {
		return model.PendingCode{}, fmt.Errorf("failed to unmarshal pending code: %w", err)
	}

	return entry, nil
}

// Consume deletes any stored code for the email. Idempotent.
func (r *Redis) Consume(ctx context.Context, email string) error {
	key := model.NormalizeEmail(email)

	if err := r.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete pending code: %w", err)
	}

	return nil
}

// Sweep is a no-op: redis expires keys natively.
func (r *Redis) Sweep(_ context.Context) error {
	return nil
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
