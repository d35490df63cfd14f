package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxFailures = 5
	defaultWindow      = 15 * time.Minute
)

// LoginThrottle counts failed logins per email in Redis.
// Key format: login:fail:<email>
//
// The first failure starts a fixed window; the counter disappears when the
// window expires or the next login succeeds. A counter left without a TTL
// (the first EXPIRE failed) gets one on the next failure.
type LoginThrottle struct {
	client      redis.Cmdable
	maxFailures int64
	window      time.Duration
}

func NewLoginThrottle(client redis.Cmdable, maxFailures int, window time.Duration) *LoginThrottle {
	if maxFailures <= 0 {
		maxFailures = defaultMaxFailures
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &LoginThrottle{client: client, maxFailures: int64(maxFailures), window: window}
}

// Blocked reports whether email has reached the failure limit.
func (t *LoginThrottle) Blocked(ctx context.Context, email string) (bool, error) {
	n, err := t.client.Get(ctx, t.key(email)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("login throttle check: %w", err)
	}
	return n >= t.maxFailures, nil
}

func (t *LoginThrottle) RecordFailure(ctx context.Context, email string) error {
	key := t.key(email)
	n, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("login throttle incr: %w", err)
	}
	if n > 1 {
		ttl, err := t.client.TTL(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("login throttle ttl: %w", err)
		}
		// -1: the counter exists without an expiry.
		if ttl != -1 {
			return nil
		}
	}
	if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
		return fmt.Errorf("login throttle expire: %w", err)
	}
	return nil
}

func (t *LoginThrottle) Reset(ctx context.Context, email string) error {
	return t.client.Del(ctx, t.key(email)).Err()
}

func (t *LoginThrottle) key(email string) string {
	return "login:fail:" + strings.ToLower(strings.TrimSpace(email))
}
