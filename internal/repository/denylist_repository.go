package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const denylistPrefix = "auth:denylist:"

// DenylistRepository stores revoked token ids in Redis until they would have expired anyway.
type DenylistRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewDenylistRepository constructs a denylist repository. A nil client disables revocation.
func NewDenylistRepository(client *redis.Client, logger *zap.Logger) *DenylistRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DenylistRepository{client: client, logger: logger}
}

// Enabled reports whether a Redis client is configured.
func (r *DenylistRepository) Enabled() bool {
	return r != nil && r.client != nil
}

// Revoke records tokenID as revoked for ttl.
func (r *DenylistRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if !r.Enabled() || tokenID == "" {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, denylistPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", tokenID, err)
	}
	return nil
}

// IsRevoked reports whether tokenID was revoked.
func (r *DenylistRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if !r.Enabled() || tokenID == "" {
		return false, nil
	}
	n, err := r.client.Exists(ctx, denylistPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", tokenID, err)
	}
	return n > 0, nil
}

// Close releases the underlying Redis connection if present.
func (r *DenylistRepository) Close() error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Close()
}
