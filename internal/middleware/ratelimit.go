package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/friluft/booking-server/internal/config"
)

// RateLimit returns a fixed-window limiter keyed on client IP and route,
// backed by Redis so the limit holds across replicas.  With no Redis
// client, or when Redis errors, requests pass through: the booking
// endpoints must not go dark because the limiter's backend is down.
// clampWindow normalizes the configured window.  The bucket number is
// derived by integer division on whole seconds, so anything under one
// second would divide by zero; unset or negative windows fall back to a
// minute.
func clampWindow(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Minute
	}
	if d < time.Second {
		return time.Second
	}
	return d
}

func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	window := clampWindow(cfg.Window)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			bucket := time.Now().Unix() / int64(window/time.Second)
			key := "rl:" + c.RealIP() + ":" + c.Path() + ":" + strconv.FormatInt(bucket, 10)

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				return next(c)
			}
			if count == 1 {
				rdb.Expire(ctx, key, window)
			}

			remaining := int64(cfg.Limit) - count
			if remaining < 0 {
				remaining = 0
			}
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(cfg.Limit) {
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(window/time.Second)))
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many requests"})
			}
			return next(c)
		}
	}
}
