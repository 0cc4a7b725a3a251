package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLimiter(t *testing.T, limit int64, window time.Duration) RateLimiter {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRateLimiterWithClient(client, limit, window, testLogger())
}

func TestRedisRateLimiter_Allow(t *testing.T) {
	t.Run("allows up to the limit then throttles", func(t *testing.T) {
		limiter := setupLimiter(t, 3, time.Minute)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			allowed, err := limiter.Allow(ctx, "10.0.0.1")
			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("counts clients independently", func(t *testing.T) {
		limiter := setupLimiter(t, 1, time.Minute)
		ctx := context.Background()

		allowed, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.False(t, allowed)

		allowed, err = limiter.Allow(ctx, "10.0.0.2")
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("window expiry resets the count", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
		limiter := NewRateLimiterWithClient(client, 1, time.Minute, testLogger())
		ctx := context.Background()

		allowed, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.False(t, allowed)

		mr.FastForward(2 * time.Minute)

		allowed, err = limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("zero limit disables throttling", func(t *testing.T) {
		limiter := setupLimiter(t, 0, time.Minute)
		ctx := context.Background()

		for i := 0; i < 50; i++ {
			allowed, err := limiter.Allow(ctx, "10.0.0.1")
			require.NoError(t, err)
			assert.True(t, allowed)
		}
	})

	t.Run("fails open when redis is down", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
		limiter := NewRateLimiterWithClient(client, 1, time.Minute, testLogger())

		mr.Close()

		allowed, err := limiter.Allow(context.Background(), "10.0.0.1")
		assert.Error(t, err)
		assert.True(t, allowed)
	})
}

func TestNoOpRateLimiter(t *testing.T) {
	limiter := NewNoOpRateLimiter(testLogger())

	for i := 0; i < 10; i++ {
		allowed, err := limiter.Allow(context.Background(), "10.0.0.1")
		assert.NoError(t, err)
		assert.True(t, allowed)
	}
	assert.NoError(t, limiter.Close())
}

func TestAuthRateLimit_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := setupLimiter(t, 2, time.Minute)
	router := gin.New()
	router.POST("/login", AuthRateLimit(limiter, testLogger()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	hit := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, hit().Code)
	assert.Equal(t, http.StatusOK, hit().Code)

	w := hit()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"Too many requests, slow down"}`, w.Body.String())
}
