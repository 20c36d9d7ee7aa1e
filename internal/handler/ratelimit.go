package handler

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/htl-registration/appointment-intake/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed bool
	// RetryAfter is the time left in the current window when not allowed.
	RetryAfter time.Duration
}

// RateLimiter decides whether key may issue another request.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RedisLimiter is a fixed-window counter shared by all instances.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{client: client, limit: limit, window: window}
}

// INCR and PEXPIRE run as one script so a counter never outlives its window.
// A counter found without a TTL gets one as well.
// returns: {count, ttl_ms}
const fixedWindowScript = `
local c = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if c == 1 or ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {c, ttl}
`

func limiterKey(key string) string {
	return "ratelimit:register:" + key
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := l.client.Eval(ctx, fixedWindowScript, []string{limiterKey(key)}, l.window.Milliseconds()).Result()
	if err != nil {
		return Decision{Allowed: true}, fmt.Errorf("ratelimit eval: %w", err)
	}

	arr, ok := res.([]any)
	if !ok || len(arr) != 2 {
		return Decision{Allowed: true}, fmt.Errorf("ratelimit eval: unexpected result %T", res)
	}
	count, ok1 := arr[0].(int64)
	ttlMS, ok2 := arr[1].(int64)
	if !ok1 || !ok2 {
		return Decision{Allowed: true}, fmt.Errorf("ratelimit eval: unexpected result %v", arr)
	}

	d := Decision{Allowed: count <= int64(l.limit)}
	if !d.Allowed {
		d.RetryAfter = l.window
		if ttlMS > 0 {
			d.RetryAfter = time.Duration(ttlMS) * time.Millisecond
		}
	}
	return d, nil
}

// retryAfterSeconds rounds d up to whole seconds, at least one.
func retryAfterSeconds(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	return strconv.Itoa(max(secs, 1))
}

// RateLimit rejects callers over their budget with 429. Limiter errors fail
// open.
func RateLimit(limiter RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				logger.Ctx(r.Context()).Warn().Err(err).Msg("rate limiter unavailable")
				d.Allowed = true
			}
			if !d.Allowed {
				w.Header().Set("Retry-After", retryAfterSeconds(d.RetryAfter))
				writeError(w, http.StatusTooManyRequests, "too many registration attempts")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
