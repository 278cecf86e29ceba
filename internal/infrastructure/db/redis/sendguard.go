package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sentTTL = 24 * time.Hour

// SendGuard keeps verification-email delivery idempotent: a notice for a
// given token is sent at most once per TTL window, even if the dispatcher
// replays it.
type SendGuard struct {
	client *redis.Client
}

// NewSendGuard creates a SendGuard wrapping the given Redis client.
func NewSendGuard(client *redis.Client) *SendGuard {
	return &SendGuard{client: client}
}

// AlreadySent reports whether a notice for this token was delivered.
func (g *SendGuard) AlreadySent(ctx context.Context, token string) (bool, error) {
	n, err := g.client.Exists(ctx, g.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("sendguard check: %w", err)
	}
	return n > 0, nil
}

// Mark records that the notice for this token went out (expires after
// sentTTL).
func (g *SendGuard) Mark(ctx context.Context, token string) error {
	return g.client.Set(ctx, g.key(token), "1", sentTTL).Err()
}

func (g *SendGuard) key(token string) string {
	return "verify_sent:" + token
}
