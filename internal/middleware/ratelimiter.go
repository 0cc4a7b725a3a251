package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/ntuon/taskapp/internal/config"
)

// RateLimiter limits requests per client on the public auth endpoints
type RateLimiter interface {
	// Allow reports whether the client may proceed within the current window
	Allow(ctx context.Context, clientIP string) (bool, error)

	// Close closes the Redis connection
	Close() error
}

type redisRateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	logger *slog.Logger
}

// NewRateLimiter creates a new Redis-based rate limiter
func NewRateLimiter(cfg *config.Config, logger *slog.Logger) (RateLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       int(cfg.RedisDatabase),
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("❌ [RateLimiter] Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("✅ [RateLimiter] Connected to Redis",
		"host", cfg.RedisHost,
		"port", cfg.RedisPort,
	)

	return &redisRateLimiter{
		client: client,
		limit:  cfg.AuthRateLimit,
		window: time.Duration(cfg.AuthRateWindow) * time.Second,
		logger: logger,
	}, nil
}

// NewRateLimiterWithClient creates a rate limiter around an existing redis
// client (for testing)
func NewRateLimiterWithClient(client *redis.Client, limit int64, window time.Duration, logger *slog.Logger) RateLimiter {
	return &redisRateLimiter{
		client: client,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// authKey generates the Redis key for a client's request count
// Format: rate:auth:{clientIP}
func authKey(clientIP string) string {
	return fmt.Sprintf("rate:auth:%s", clientIP)
}

func (r *redisRateLimiter) Allow(ctx context.Context, clientIP string) (bool, error) {
	// Unlimited when the limit is zero or negative
	if r.limit <= 0 {
		return true, nil
	}

	key := authKey(clientIP)

	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, r.window)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("❌ [RateLimiter] Failed to count request", "error", err, "client_ip", clientIP)
		// On error, allow the request but log it
		return true, err
	}

	return incr.Val() <= r.limit, nil
}

func (r *redisRateLimiter) Close() error {
	return r.client.Close()
}

// NoOpRateLimiter is a rate limiter that always allows requests
// Used when Redis is not available
type NoOpRateLimiter struct {
	logger *slog.Logger
}

// NewNoOpRateLimiter creates a no-op rate limiter
func NewNoOpRateLimiter(logger *slog.Logger) RateLimiter {
	logger.Warn("⚠️ [RateLimiter] Using no-op rate limiter - rate limiting is disabled")
	return &NoOpRateLimiter{logger: logger}
}

func (r *NoOpRateLimiter) Allow(ctx context.Context, clientIP string) (bool, error) {
	return true, nil
}

func (r *NoOpRateLimiter) Close() error {
	return nil
}

// AuthRateLimit wraps the limiter as gin middleware for the public auth
// routes.
func AuthRateLimit(limiter RateLimiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			// Fail open: a broken limiter must not lock everyone out
			c.Next()
			return
		}
		if !allowed {
			logger.Warn("⚠️ [RateLimiter] Client throttled", "client_ip", c.ClientIP())
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, slow down"})
			c.Abort()
			return
		}
		c.Next()
	}
}
