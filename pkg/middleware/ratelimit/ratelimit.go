package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

type KeyFunc func(c echo.Context) string

type Limiter struct {
	inst *limiter.Limiter
}

func New(limit int64, period time.Duration) *Limiter {
	if limit <= 0 {
		limit = 10
	}
	if period <= 0 {
		period = time.Minute
	}
	rate := limiter.Rate{Period: period, Limit: limit}
	return &Limiter{inst: limiter.New(memory.NewStore(), rate)}
}

// Take consumes one slot for key.
func (l *Limiter) Take(ctx context.Context, key string) (limiter.Context, error) {
	return l.inst.Get(ctx, key)
}

// Allow consumes one slot for key, writes the X-RateLimit headers and returns a 429 once the
// window is exhausted.
func (l *Limiter) Allow(c echo.Context, key string) error {
	lc, err := l.Take(c.Request().Context(), key)
	if err != nil {
		return err
	}
	h := c.Response().Header()
	h.Set("X-RateLimit-Limit", strconv.FormatInt(lc.Limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(lc.Remaining, 10))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(lc.Reset, 10))
	if lc.Reached {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, try again later")
	}
	return nil
}

func (l *Limiter) Middleware(key KeyFunc) echo.MiddlewareFunc {
	if key == nil {
		key = func(c echo.Context) string { return c.RealIP() }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := l.Allow(c, key(c)); err != nil {
				return err
			}
			return next(c)
		}
	}
}
