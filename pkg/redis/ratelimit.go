package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter implements sliding window rate limiting using Redis
// ⭐ SSOT: 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string        // Unique identifier (e.g., "polygon", "yahoo")
	Limit  int           // Maximum requests allowed
	Window time.Duration // Time window
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
	}
}

// Allow checks if a request is allowed under the rate limit
// Returns (allowed, remaining, error)
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	if !r.client.Enabled() {
		// Redis 비활성: 모든 요청 허용 (프로세스 로컬 limiter가 담당)
		return true, cfg.Limit, nil
	}
	if cfg.Limit <= 0 {
		return true, 0, nil
	}

	key := fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)
	nowTime := time.Now()
	now := nowTime.UnixMilli()
	windowStart := now - cfg.Window.Milliseconds()

	rdb := r.client.Redis()

	result, err := slidingWindowScript.Run(ctx, rdb, []string{key},
		now,
		windowStart,
		cfg.Limit,
		cfg.Window.Milliseconds(),
		nowTime.UnixNano(),
	).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	allowed := result[0].(int64) == 1
	remaining := int(result[1].(int64))

	return allowed, remaining, nil
}

// slidingWindowScript trims, counts and records in one round trip.
// Members are nanosecond stamps so bursts within the same millisecond
// are counted separately.
var slidingWindowScript = redis.NewScript(`
		local key = KEYS[1]
		local now = tonumber(ARGV[1])
		local window_start = tonumber(ARGV[2])
		local limit = tonumber(ARGV[3])
		local window_ms = tonumber(ARGV[4])
		local member = ARGV[5]

		-- Remove old entries outside the window
		redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

		-- Count current requests in window
		local count = redis.call('ZCARD', key)

		if count < limit then
			-- Add current request
			redis.call('ZADD', key, now, member)
			redis.call('PEXPIRE', key, window_ms)
			return {1, limit - count - 1}
		else
			return {0, 0}
		end
`)

// Wait blocks until a request is allowed or context is cancelled.
// Polling backs off to one slot of the window (window / limit), bounded to [50ms, 1s].
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	poll := pollInterval(cfg)
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		allowed, _, err := r.Allow(ctx, cfg)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		timer.Reset(poll)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func pollInterval(cfg RateLimitConfig) time.Duration {
	if cfg.Limit <= 0 {
		return 50 * time.Millisecond
	}
	d := cfg.Window / time.Duration(cfg.Limit)
	return min(max(d, 50*time.Millisecond), time.Second)
}

// PolygonRateLimit builds the shared limit for the polygon.io aggregates API
// 무료 플랜: 분당 5회
func PolygonRateLimit(perMinute int) RateLimitConfig {
	return RateLimitConfig{
		Key:    "polygon",
		Limit:  perMinute,
		Window: time.Minute,
	}
}
