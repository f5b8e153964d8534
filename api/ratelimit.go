package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

var rateLimitHits = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "workhub",
	Name:      "rate_limit_hits_total",
	Help:      "Requests rejected by the per-user rate limiter.",
}, []string{"route"})

// RateLimiter counts attempts per key inside a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) RateDecision
}

type RateDecision struct {
	Allowed   bool
	Count     int
	WindowEnd time.Time
}

// RedisRateLimiter shares counters across instances with SET NX EX and INCR.
// Redis failures fail open.
type RedisRateLimiter struct {
	client  *redis.Client
	logger  *log.Logger
	prefix  string
	timeout time.Duration
}

func NewRedisRateLimiter(client *redis.Client, logger *log.Logger) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:  client,
		logger:  logger,
		prefix:  "workhub:ratelimit:",
		timeout: 250 * time.Millisecond,
	}
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) RateDecision {
	if limit <= 0 {
		return RateDecision{Allowed: true}
	}
	if window <= 0 {
		window = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key
	var (
		incr *redis.IntCmd
		ttlC *redis.DurationCmd
	)
	// The window key is created with its expiry in the same transaction as
	// the increment, so a counter never outlives its window.
	_, err := rl.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SetNX(ctx, redisKey, 0, window)
		incr = p.Incr(ctx, redisKey)
		ttlC = p.TTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		rl.logRedisError("incr", err)
		return RateDecision{Allowed: true}
	}
	counter := incr.Val()
	ttl := ttlC.Val()
	if ttl == -1 {
		// Counter left without an expiry by an older writer.
		if err := rl.client.Expire(ctx, redisKey, window).Err(); err != nil {
			rl.logRedisError("expire", err)
		}
	}
	if ttl <= 0 {
		ttl = window
	}
	return RateDecision{
		Allowed:   int(counter) <= limit,
		Count:     int(counter),
		WindowEnd: time.Now().Add(ttl),
	}
}

func (rl *RedisRateLimiter) logRedisError(op string, err error) {
	if rl.logger == nil {
		return
	}
	rl.logger.WithFields(log.Fields{"op": op, "error": err}).Error("redis rate limiter error")
}

// MemoryRateLimiter keeps counters in process. Expired windows are replaced
// lazily on the next attempt for the same key.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	entries map[string]RateDecision
	now     func() time.Time
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{entries: make(map[string]RateDecision), now: time.Now}
}

func (rl *MemoryRateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) RateDecision {
	if limit <= 0 {
		return RateDecision{Allowed: true}
	}
	if window <= 0 {
		window = time.Minute
	}
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, ok := rl.entries[key]
	if !ok || now.After(state.WindowEnd) {
		state = RateDecision{Allowed: true, Count: 1, WindowEnd: now.Add(window)}
		rl.entries[key] = state
		return state
	}
	if state.Count >= limit {
		return RateDecision{Allowed: false, Count: state.Count, WindowEnd: state.WindowEnd}
	}
	state.Count++
	rl.entries[key] = state
	return state
}

// rateLimitByUser limits an authenticated route per user id. It must run
// after requireAuth.
func rateLimitByUser(limiter RateLimiter, route string, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limiter == nil || limit <= 0 {
				return next(c)
			}
			decision := limiter.Allow(c.Request().Context(), route+":"+userIDFrom(c), limit, window)
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
			remaining := limit - decision.Count
			if remaining < 0 {
				remaining = 0
			}
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !decision.Allowed {
				rateLimitHits.WithLabelValues(route).Inc()
				if retry := time.Until(decision.WindowEnd); retry > 0 {
					h.Set("Retry-After", strconv.Itoa(int(retry.Round(time.Second)/time.Second)))
				}
				if m := metricsFrom(c); m != nil {
					m.SetErrorStage("rate_limited")
				}
				return c.JSON(http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			}
			return next(c)
		}
	}
}
