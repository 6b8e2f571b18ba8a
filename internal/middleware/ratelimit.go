package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-backoffice/internal/config"
)

// tokenBucket refills capacity-bounded tokens per interval and takes one
// per request.  Returns {allowed, remaining, retry_after_ms}.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])
if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

local intervals = math.floor(math.max(0, now_ms - last_refill) / interval_ms)
if intervals > 0 then
	tokens = math.min(capacity, tokens + intervals * refill_tokens)
	last_refill = last_refill + intervals * interval_ms
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)
return { allowed, tokens, retry_after_ms }
`)

// RateLimiter throttles callers with a Redis token bucket.  Redis errors
// let the request through.
type RateLimiter struct {
	rdb *redis.Client
	cfg config.RateLimitConfig
	log *zap.Logger
	now func() time.Time
}

// NewRateLimiter builds the limiter.  rdb may be nil.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) *RateLimiter {
	if !cfg.Enabled {
		rdb = nil
	}
	return &RateLimiter{rdb: rdb, cfg: cfg, log: log, now: time.Now}
}

func (rl *RateLimiter) key(c echo.Context) string {
	parts := []string{rl.cfg.Prefix}
	switch strings.ToLower(rl.cfg.KeyStrategy) {
	case "ip":
		ip := c.RealIP()
		if ip == "" {
			ip = "unknown"
		}
		parts = append(parts, "ip:"+ip)
	case "principal":
		parts = append(parts, callerKey(c))
	default:
		parts = append(parts, callerKey(c), c.Request().Method+" "+c.Path())
	}
	return strings.Join(parts, ":")
}

// Middleware enforces the limit on the wrapped routes.  It should run
// after JWTAuth so authenticated callers get their own bucket.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if rl.rdb == nil {
			return next
		}
		return func(c echo.Context) error {
			key := rl.key(c)
			res, err := tokenBucket.Run(c.Request().Context(), rl.rdb, []string{key},
				rl.now().UnixMilli(),
				rl.cfg.Capacity,
				rl.cfg.RefillTokens,
				rl.cfg.RefillInterval.Milliseconds(),
				int64(rl.cfg.TTL/time.Second),
			).Int64Slice()
			if err != nil || len(res) != 3 {
				rl.log.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
				return next(c)
			}
			allowed, remaining, retryMs := res[0] == 1, res[1], res[2]

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if allowed {
				return next(c)
			}
			secs := int(math.Ceil(float64(retryMs) / 1000.0))
			h.Set("Retry-After", strconv.Itoa(secs))
			rl.log.Debug("rate limited", zap.String("key", key), zap.Int64("retry_ms", retryMs))
			return c.JSON(http.StatusTooManyRequests, map[string]any{
				"error":       "rate limit exceeded",
				"retry_after": secs,
			})
		}
	}
}
