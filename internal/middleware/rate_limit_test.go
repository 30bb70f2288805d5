package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryLimiter(t *testing.T) {
	limiter := NewMemoryLimiter(RateLimitConfig{Window: time.Hour, Limit: 2})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := limiter.Allow(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
	d, err := limiter.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Zero(t, d.Remaining)

	d, err = limiter.Allow(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, d.Allowed, "buckets are per key")
}

func TestMemoryLimiterEvictsIdleBuckets(t *testing.T) {
	limiter := NewMemoryLimiter(RateLimitConfig{Window: time.Minute, Limit: 1})
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }
	ctx := context.Background()

	d, err := limiter.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	d, err = limiter.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	clock = clock.Add(30 * time.Second)
	_, err = limiter.Allow(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, limiter.buckets, 2)

	clock = clock.Add(time.Minute)
	d, err = limiter.Allow(ctx, "carol")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Len(t, limiter.buckets, 1, "idle buckets are dropped")
	assert.Contains(t, limiter.buckets, "carol")
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := uuid.New()
	router := gin.New()
	router.POST("/recipes",
		func(c *gin.Context) { c.Set(UserIDKey, userID) },
		RateLimit(NewMemoryLimiter(RateLimitConfig{Window: time.Hour, Limit: 1}), zap.NewNop()),
		func(c *gin.Context) { c.Status(http.StatusCreated) })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/recipes", nil))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Limit"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/recipes", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestRateLimitRequiresUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/recipes", RateLimit(NewMemoryLimiter(RateLimitConfig{Window: time.Hour, Limit: 1}), zap.NewNop()))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/recipes", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRedisLimiter(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRedisLimiter(client, RateLimitConfig{
		Window:    time.Minute,
		Limit:     1,
		KeyPrefix: "rate_limit:test:" + uuid.NewString(),
	})
	ctx := context.Background()

	d, err := limiter.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}
