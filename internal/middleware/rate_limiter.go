package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/prohmpiriya/devops-api/pkg/logger"
	pkgredis "github.com/prohmpiriya/devops-api/pkg/redis"
	"github.com/prohmpiriya/devops-api/pkg/response"
	"github.com/prohmpiriya/devops-api/pkg/telemetry"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Refill rate per client IP (0 = unlimited)
	RequestsPerSecond int
	// Token bucket capacity
	BurstSize int
	// Redis client for distributed limiting; nil means in-process buckets
	RedisClient *pkgredis.Client
	KeyPrefix   string
	// Local limiter housekeeping
	CleanupInterval time.Duration
	EntryTTL        time.Duration
}

// DefaultRateLimitConfig returns login-friendly defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 5,
		BurstSize:         10,
		KeyPrefix:         "ratelimit:login:",
		CleanupInterval:   time.Minute,
		EntryTTL:          time.Minute,
	}
}

// Limiter decides whether a request identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastUpdate time.Time
}

// LocalRateLimiter implements in-memory token bucket rate limiting
type LocalRateLimiter struct {
	config  RateLimitConfig
	entries sync.Map
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewLocalRateLimiter creates a limiter and starts its cleanup goroutine
func NewLocalRateLimiter(config RateLimitConfig) *LocalRateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Minute
	}
	if config.EntryTTL <= 0 {
		config.EntryTTL = time.Minute
	}

	rl := &LocalRateLimiter{
		config: config,
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow takes one token from key's bucket
func (rl *LocalRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := rl.now()

	v, _ := rl.entries.LoadOrStore(key, &bucket{
		tokens:     float64(rl.config.BurstSize),
		lastUpdate: now,
	})
	b := v.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastUpdate).Seconds()
	b.tokens = min(float64(rl.config.BurstSize), b.tokens+elapsed*float64(rl.config.RequestsPerSecond))
	b.lastUpdate = now

	if b.tokens >= 1 {
		b.tokens--
		return true, nil
	}
	return false, nil
}

func (rl *LocalRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := rl.now().Add(-rl.config.EntryTTL)
			rl.entries.Range(func(key, value interface{}) bool {
				b := value.(*bucket)
				b.mu.Lock()
				if b.lastUpdate.Before(cutoff) {
					rl.entries.Delete(key)
				}
				b.mu.Unlock()
				return true
			})
		case <-rl.stop:
			return
		}
	}
}

// Stop stops the cleanup goroutine
func (rl *LocalRateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// tokenBucketScript refills and takes one token atomically; returns {allowed, tokens}
const tokenBucketScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local data = redis.call("HMGET", key, "tokens", "last_update")
local tokens = tonumber(data[1]) or burst
local last_update = tonumber(data[2]) or now

tokens = math.min(burst, tokens + (now - last_update) * rate)

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call("HSET", key, "tokens", tostring(tokens), "last_update", tostring(now))
redis.call("EXPIRE", key, 60)
return allowed
`

// RedisRateLimiter shares buckets across instances through Redis
type RedisRateLimiter struct {
	config RateLimitConfig
	now    func() time.Time
}

// NewRedisRateLimiter creates a new Redis rate limiter
func NewRedisRateLimiter(config RateLimitConfig) *RedisRateLimiter {
	return &RedisRateLimiter{config: config, now: time.Now}
}

// Allow runs the token bucket script for key
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if rl.config.RedisClient == nil {
		return false, fmt.Errorf("redis rate limiter: no client")
	}

	now := float64(rl.now().UnixNano()) / 1e9
	allowed, err := rl.config.RedisClient.Eval(ctx, tokenBucketScript,
		[]string{rl.config.KeyPrefix + key},
		rl.config.RequestsPerSecond,
		rl.config.BurstSize,
		strconv.FormatFloat(now, 'f', 6, 64),
	).Int64()
	if err != nil {
		return false, err
	}
	return allowed == 1, nil
}

// NewLimiter picks the Redis limiter when a client is configured
func NewLimiter(config RateLimitConfig) Limiter {
	if config.RedisClient != nil {
		return NewRedisRateLimiter(config)
	}
	return NewLocalRateLimiter(config)
}

// RateLimit rejects clients that exceed their bucket with 429.
// Limiter errors let the request through.
func RateLimit(limiter Limiter, config RateLimitConfig, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.RequestsPerSecond <= 0 {
			c.Next()
			return
		}

		ctx, span := telemetry.StartSpan(c.Request.Context(), "middleware.rate_limiter")
		defer span.End()

		clientIP := c.ClientIP()
		span.SetAttributes(attribute.String("client_ip", clientIP))

		allowed, err := limiter.Allow(ctx, clientIP)
		if err != nil {
			log.Warn("rate limiter unavailable, allowing request",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			allowed = true
		}

		span.SetAttributes(attribute.Bool("allowed", allowed))
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerSecond))
		c.Header("X-RateLimit-Burst", strconv.Itoa(config.BurstSize))

		if !allowed {
			span.SetStatus(codes.Error, "rate limit exceeded")
			c.Header("Retry-After", "1")
			response.Abort(c, http.StatusTooManyRequests, response.CodeTooManyRequests,
				"Rate limit exceeded. Please retry after 1 second(s).")
			return
		}

		span.SetStatus(codes.Ok, "")
		c.Next()
	}
}
