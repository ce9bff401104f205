package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/pageza/foodgram/backend/internal/apperr"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter decides whether the caller identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Peek(ctx context.Context, key string) (Decision, error)
	Config() RateLimitConfig
}

// RateLimiter is a fixed-window counter stored in Redis, shared by every API instance
type RateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
	now    func() time.Time
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(redisClient *redis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{redis: redisClient, config: config, now: time.Now}
}

func (rl *RateLimiter) Config() RateLimitConfig {
	return rl.config
}

// Allow counts the request against the current window
func (rl *RateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	windowStart := rl.now().Truncate(rl.config.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())

	pipe := rl.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	count := int(incrCmd.Val())
	return Decision{
		Allowed:   count <= rl.config.Limit,
		Remaining: max(rl.config.Limit-count, 0),
		Reset:     windowStart.Add(rl.config.Window),
	}, nil
}

// Peek reports the state of the current window without counting a request
func (rl *RateLimiter) Peek(ctx context.Context, key string) (Decision, error) {
	windowStart := rl.now().Truncate(rl.config.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())
	reset := windowStart.Add(rl.config.Window)

	count, err := rl.redis.Get(ctx, redisKey).Int()
	if errors.Is(err, redis.Nil) {
		return Decision{Allowed: true, Remaining: rl.config.Limit, Reset: reset}, nil
	}
	if err != nil {
		return Decision{}, err
	}
	return Decision{Allowed: count < rl.config.Limit, Remaining: max(rl.config.Limit-count, 0), Reset: reset}, nil
}

// MemoryLimiter is an in-process token bucket per key, used when Redis is not configured.
// The bucket holds Limit tokens and refills at Limit per Window.
type MemoryLimiter struct {
	config  RateLimitConfig
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	now     func() time.Time
}

func NewMemoryLimiter(config RateLimitConfig) *MemoryLimiter {
	return &MemoryLimiter{config: config, buckets: make(map[string]*rate.Limiter), now: time.Now}
}

func (ml *MemoryLimiter) Config() RateLimitConfig {
	return ml.config
}

func (ml *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	bucket := ml.bucket(key)
	now := ml.now()
	allowed := bucket.AllowN(now, 1)
	return ml.decision(bucket, now, allowed), nil
}

func (ml *MemoryLimiter) Peek(_ context.Context, key string) (Decision, error) {
	bucket := ml.bucket(key)
	now := ml.now()
	return ml.decision(bucket, now, bucket.TokensAt(now) >= 1), nil
}

func (ml *MemoryLimiter) bucket(key string) *rate.Limiter {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	bucket, ok := ml.buckets[key]
	if !ok {
		every := rate.Every(ml.config.Window / time.Duration(max(ml.config.Limit, 1)))
		bucket = rate.NewLimiter(every, ml.config.Limit)
		ml.buckets[key] = bucket
	}
	return bucket
}

// decision reports the whole tokens left and when the bucket is full again
func (ml *MemoryLimiter) decision(bucket *rate.Limiter, now time.Time, allowed bool) Decision {
	tokens := bucket.TokensAt(now)
	missing := float64(ml.config.Limit) - tokens
	var refill time.Duration
	if limit := float64(bucket.Limit()); limit > 0 && missing > 0 {
		refill = time.Duration(missing / limit * float64(time.Second))
	}
	return Decision{
		Allowed:   allowed,
		Remaining: int(math.Max(math.Floor(tokens), 0)),
		Reset:     now.Add(refill),
	}
}

// NewRecipeCreationLimiter limits recipe creation per user, in Redis when a client is given
func NewRecipeCreationLimiter(redisClient *redis.Client, limit int, window time.Duration) Limiter {
	cfg := RateLimitConfig{Window: window, Limit: limit, KeyPrefix: "rate_limit:recipe_creation"}
	if redisClient == nil {
		return NewMemoryLimiter(cfg)
	}
	return NewRateLimiter(redisClient, cfg)
}

// RateLimit enforces limiter per authenticated user. It must run after AuthMiddleware.
func RateLimit(limiter Limiter, log *logger.Logger, m *metrics.Metrics) gin.HandlerFunc {
	cfg := limiter.Config()
	return func(c *gin.Context) {
		userID, exists := c.Get(ContextUserID)
		if !exists {
			RespondError(c, apperr.ErrAuthRequired)
			return
		}

		decision, err := limiter.Allow(c.Request.Context(), fmt.Sprintf("%v", userID))
		if err != nil {
			// Log error but don't fail the request
			log.Warn("rate limit check failed", "error", err, "user_id", userID)
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.Reset.Unix(), 10))

		if !decision.Allowed {
			m.IncRateLimited()
			retryAfter := int(math.Ceil(decision.Reset.Sub(time.Now()).Seconds()))
			c.Header("Retry-After", strconv.Itoa(max(retryAfter, 1)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"code":        "RATE_LIMITED",
				"message":     fmt.Sprintf("You have exceeded the rate limit of %d requests per %v", cfg.Limit, cfg.Window),
				"retry_after": max(retryAfter, 1),
			})
			return
		}

		c.Next()
	}
}
