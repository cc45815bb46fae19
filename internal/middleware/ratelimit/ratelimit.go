package ratelimit

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const idleBucketTTL = 10 * time.Minute

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// RateLimiter is a per-client token bucket. Clients are keyed by the
// X-Client-ID header when present, otherwise by remote IP.
type RateLimiter struct {
	mu       sync.RWMutex
	buckets  map[string]*bucket
	capacity float64
	perSec   float64
	logger   *zap.Logger
	now      func() time.Time

	cleanupTicker *time.Ticker
	done          chan struct{}
	stopOnce      sync.Once
}

type Config struct {
	RequestsPerMinute int
	Logger            *zap.Logger
	// Now overrides the clock; tests use it to step time.
	Now func() time.Time
}

func New(cfg Config) *RateLimiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	rl := &RateLimiter{
		buckets:       make(map[string]*bucket),
		capacity:      float64(cfg.RequestsPerMinute),
		perSec:        float64(cfg.RequestsPerMinute) / 60,
		logger:        cfg.Logger,
		now:           cfg.Now,
		cleanupTicker: time.NewTicker(5 * time.Minute),
		done:          make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := clientKey(c)

		remaining, retryAfter, ok := rl.take(key)
		c.Set("X-RateLimit-Limit", strconv.Itoa(int(rl.capacity)))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !ok {
			rl.logger.Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.String("ip", c.IP()),
				zap.String("path", c.Path()),
			)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{
					"message": "Rate limit exceeded. Please try again later.",
					"status":  fiber.StatusTooManyRequests,
				},
			})
		}

		return c.Next()
	}
}

func clientKey(c *fiber.Ctx) string {
	if id := c.Get("X-Client-ID"); id != "" {
		return "client:" + id
	}
	return "ip:" + c.IP()
}

// take consumes one token for key. It reports the whole tokens left and,
// when the bucket is empty, how long until the next token is available.
func (rl *RateLimiter) take(key string) (int, time.Duration, bool) {
	b := rl.bucketFor(key)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := rl.now()
	if elapsed := now.Sub(b.lastRefill).Seconds(); elapsed > 0 {
		b.tokens = math.Min(rl.capacity, b.tokens+elapsed*rl.perSec)
		b.lastRefill = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return int(b.tokens), 0, true
	}

	wait := time.Duration((1 - b.tokens) / rl.perSec * float64(time.Second))
	return 0, wait, false
}

func (rl *RateLimiter) bucketFor(key string) *bucket {
	rl.mu.RLock()
	b, ok := rl.buckets[key]
	rl.mu.RUnlock()
	if ok {
		return b
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if b, ok = rl.buckets[key]; ok {
		return b
	}
	b = &bucket{tokens: rl.capacity, lastRefill: rl.now()}
	rl.buckets[key] = b
	return b
}

func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.done:
			return
		case <-rl.cleanupTicker.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		b.mu.Lock()
		if now.Sub(b.lastRefill) > idleBucketTTL {
			delete(rl.buckets, key)
		}
		b.mu.Unlock()
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		rl.cleanupTicker.Stop()
		close(rl.done)
	})
}
