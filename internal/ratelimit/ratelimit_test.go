package ratelimit

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, perMinute int) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	l := New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), perMinute, logger)
	l.now = func() time.Time { return time.Unix(1_700_000_010, 0) }
	t.Cleanup(func() { _ = l.Close() })
	return l, mr
}

func TestAllowWithinWindow(t *testing.T) {
	l, _ := newLimiter(t, 2)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "1.2.3.4:/api/contact")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "1.2.3.4:/api/contact")
	assert.True(t, ok)

	ok, retryAfter := l.Allow(ctx, "1.2.3.4:/api/contact")
	assert.False(t, ok)
	assert.Equal(t, 30, retryAfter)

	ok, _ = l.Allow(ctx, "5.6.7.8:/api/contact")
	assert.True(t, ok, "other clients have their own window")
}

func TestAllowResetsInNextWindow(t *testing.T) {
	l, _ := newLimiter(t, 1)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "k")
	require.True(t, ok)
	ok, _ = l.Allow(ctx, "k")
	require.False(t, ok)

	l.now = func() time.Time { return time.Unix(1_700_000_080, 0) }
	ok, _ = l.Allow(ctx, "k")
	assert.True(t, ok)
}

func TestAllowFailsOpenWhenRedisIsDown(t *testing.T) {
	l, mr := newLimiter(t, 1)
	mr.Close()

	ok, _ := l.Allow(context.Background(), "k")
	assert.True(t, ok)
}

func TestMiddlewareReturns429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, _ := newLimiter(t, 1)

	r := gin.New()
	r.POST("/contact", Middleware(l), func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/contact", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/contact", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestNilLimiterPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/contact", Middleware(nil), func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/contact", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}
