// Package limits tracks per-account daily operation totals so deposits and
// withdrawals can be capped independently of single-operation ceilings.
package limits

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const keyPrefix = "limits:v1:"

// Keys expire well after the day they track so slow clocks never cut a
// window short.
const keyTTL = 48 * time.Hour

// RedisTracker accumulates daily totals in Redis. Cache failures fail open:
// an unavailable limiter must not take the account API down with it.
type RedisTracker struct {
	cache  *redis.Client
	logger *slog.Logger
}

// NewRedisTracker builds a Redis-backed daily limit tracker.
func NewRedisTracker(cache *redis.Client, logger *slog.Logger) *RedisTracker {
	return &RedisTracker{cache: cache, logger: logger}
}

// Add records amount against the account's running total for op today and
// reports whether the total still fits under limit. When it does not, the
// amount is rolled back so a later smaller operation can still pass.
func (t *RedisTracker) Add(ctx context.Context, accountID, op string, amount, limit decimal.Decimal) bool {
	if t.cache == nil || !limit.IsPositive() {
		return true
	}

	key := dayKey(accountID, op, time.Now().UTC())
	total, err := t.cache.IncrByFloat(ctx, key, amount.InexactFloat64()).Result()
	if err != nil {
		t.logger.Warn("daily limit lookup failed", slog.String("key", key), slog.Any("error", err))
		return true
	}
	t.cache.Expire(ctx, key, keyTTL)

	if decimal.NewFromFloat(total).GreaterThan(limit) {
		if err := t.cache.IncrByFloat(ctx, key, -amount.InexactFloat64()).Err(); err != nil {
			t.logger.Warn("daily limit rollback failed", slog.String("key", key), slog.Any("error", err))
		}
		return false
	}
	return true
}

// Remove refunds a previously accepted amount, restoring the day's headroom
// when the operation it covered did not complete.
func (t *RedisTracker) Remove(ctx context.Context, accountID, op string, amount decimal.Decimal) {
	if t.cache == nil {
		return
	}
	key := dayKey(accountID, op, time.Now().UTC())
	if err := t.cache.IncrByFloat(ctx, key, -amount.InexactFloat64()).Err(); err != nil {
		t.logger.Warn("daily limit refund failed", slog.String("key", key), slog.Any("error", err))
	}
}

func dayKey(accountID, op string, now time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s", keyPrefix, op, accountID, now.Format("2006-01-02"))
}
