package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storehub/internal/logger"
)

const codeRateLimited = "RATE_LIMIT_EXCEEDED"

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetIn is how long until the current window closes.
	ResetIn time.Duration
}

// Limiter counts requests per key in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// MemoryLimiter is an in-process fixed-window limiter. It tracks at most maxKeys
// clients; when full, expired windows are dropped first and then the oldest one.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	maxKeys int
	now     func() time.Time
}

type window struct {
	start time.Time
	count int
}

func NewMemoryLimiter(limit int, period time.Duration, maxKeys int) *MemoryLimiter {
	if maxKeys < 1 {
		maxKeys = 1
	}
	return &MemoryLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		maxKeys: maxKeys,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if ok && now.Sub(w.start) >= l.period {
		w.start, w.count = now, 0
	}
	if !ok {
		if len(l.windows) >= l.maxKeys {
			l.evict(now)
		}
		w = &window{start: now}
		l.windows[key] = w
	}

	d := Decision{Limit: l.limit, ResetIn: l.period - now.Sub(w.start)}
	if w.count >= l.limit {
		return d, nil
	}
	w.count++
	d.Allowed = true
	d.Remaining = l.limit - w.count
	return d, nil
}

// Len reports how many keys are tracked.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

func (l *MemoryLimiter) evict(now time.Time) {
	var oldestKey string
	var oldest time.Time
	for k, w := range l.windows {
		if now.Sub(w.start) >= l.period {
			delete(l.windows, k)
			continue
		}
		if oldestKey == "" || w.start.Before(oldest) {
			oldestKey, oldest = k, w.start
		}
	}
	if len(l.windows) >= l.maxKeys && oldestKey != "" {
		delete(l.windows, oldestKey)
	}
}

// RedisLimiter keeps fixed-window counters in Redis so every API instance shares them.
type RedisLimiter struct {
	client redis.Cmdable
	prefix string
	limit  int
	period time.Duration
}

func NewRedisLimiter(client redis.Cmdable, prefix string, limit int, period time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, period: period}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	k := l.prefix + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		ttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return Decision{}, err
	}

	count := int(incr.Val())
	resetIn := ttl.Val()
	// first hit of a window, or a counter that lost its expiry
	if count == 1 || resetIn < 0 {
		if err := l.client.PExpire(ctx, k, l.period).Err(); err != nil {
			return Decision{}, err
		}
		resetIn = l.period
	}

	d := Decision{Limit: l.limit, ResetIn: resetIn}
	if count > l.limit {
		return d, nil
	}
	d.Allowed = true
	d.Remaining = l.limit - count
	return d, nil
}

// NewRedisClient parses a redis:// URL and verifies the server answers.
func NewRedisClient(ctx context.Context, url, password string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// RateLimit returns a rate limiting middleware keyed by client IP. Limiter failures
// let the request through.
func RateLimit(limiter Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()

		d, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.FromGin(c).Warn("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(d.ResetIn.Round(time.Second)/time.Second)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    codeRateLimited,
				"message": "Too many requests. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
