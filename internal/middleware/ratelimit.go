package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/smartshelter/api/internal/config"
)

// NewTokenBucket rate-limits requests with a Redis-backed token bucket. It is
// applied to the credential endpoints (register, login, device login) to slow
// down password and API-key guessing. When the limiter is disabled or Redis
// is unavailable the middleware fails open: availability of the API matters
// more than the limit.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	// Refill-and-take in one round trip so two concurrent credential
	// attempts cannot both spend the last token. Bucket state is a hash of
	// remaining tokens and the last refill timestamp; a bucket idle past the
	// TTL simply expires and starts full again.
	takeScript := redis.NewScript(`
		local bucket = KEYS[1]
		local now_ms = tonumber(ARGV[1])
		local capacity = tonumber(ARGV[2])
		local refill_amount = tonumber(ARGV[3])
		local refill_ms = tonumber(ARGV[4])
		local ttl_seconds = tonumber(ARGV[5])

		local state = redis.call('HMGET', bucket, 'tokens', 'refilled_at_ms')
		local tokens = tonumber(state[1])
		local refilled_at = tonumber(state[2])

		if tokens == nil or refilled_at == nil then
			tokens = capacity
			refilled_at = now_ms
		end

		if refill_ms > 0 and refill_amount > 0 then
			local cycles = math.floor(math.max(0, now_ms - refilled_at) / refill_ms)
			if cycles > 0 then
				tokens = math.min(capacity, tokens + (cycles * refill_amount))
				refilled_at = refilled_at + (cycles * refill_ms)
			end
		end

		local allowed = 0
		local wait_ms = 0
		if tokens > 0 then
			allowed = 1
			tokens = tokens - 1
		else
			wait_ms = math.max(0, refill_ms - (now_ms - refilled_at))
		end

		redis.call('HMSET', bucket, 'tokens', tokens, 'refilled_at_ms', refilled_at)
		redis.call('EXPIRE', bucket, ttl_seconds)

		return { allowed, tokens, wait_ms }
	`)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)

			args := []interface{}{
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL / time.Second),
			}

			vals, err := takeScript.Run(c.Request().Context(), rdb, []string{key}, args...).Result()
			if err != nil {
				if cfg.Debug {
					c.Logger().Warnf("[ratelimit] redis error for key=%s: %v", key, err)
				}
				return next(c)
			}

			arr, ok := vals.([]interface{})
			if !ok || len(arr) != 3 {
				if cfg.Debug {
					c.Logger().Warnf("[ratelimit] unexpected script result for key=%s: %#v", key, vals)
				}
				return next(c)
			}
			allowed := asInt64(arr[0]) == 1
			remaining := asInt64(arr[1])
			retryMs := asInt64(arr[2])

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				secs := int(math.Ceil(float64(retryMs) / 1000.0))
				if secs < 0 {
					secs = 0
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too_many_requests",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// buildRateKey composes the bucket key per the configured strategy, so one
// deployment can throttle per client IP, per authenticated account, per
// route, or combinations of the three.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	parts := []string{cfg.Prefix}
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := currentUserID(c)
	route := c.Request().Method + " " + c.Path()

	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "user":
		parts = append(parts, "user", uid)
	case "route":
		parts = append(parts, "route", route)
	case "ip_user":
		parts = append(parts, "ip", ip, "user", uid)
	case "ip_route":
		parts = append(parts, "ip", ip, "route", route)
	case "user_route":
		parts = append(parts, "user", uid, "route", route)
	default:
		parts = append(parts, "ip", ip, "user", uid, "route", route)
	}
	return strings.Join(parts, ":")
}

// currentUserID reads the account id set by JWTAuth; unauthenticated callers
// share the "anon" bucket.
func currentUserID(c echo.Context) string {
	if s, ok := c.Get("user_id").(string); ok && s != "" {
		return s
	}
	return "anon"
}
