package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func limitedRouter(rdb *redis.Client, max int, window time.Duration, keyFn KeyFunc) *gin.Engine {
	r := gin.New()
	limiter := RateLimit(rdb, max, window, keyFn)
	r.GET("/probe", limiter, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.OPTIONS("/probe", limiter, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func hit(r *gin.Engine, method, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/probe", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitBlocksAfterMax(t *testing.T) {
	_, rdb := newTestRedis(t)
	r := limitedRouter(rdb, 3, time.Minute, KeyByIP())

	for i := 1; i <= 3; i++ {
		w := hit(r, http.MethodGet, "10.0.0.1:1234")
		require.Equal(t, http.StatusOK, w.Code, "request %d within budget", i)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(3-i), w.Header().Get("X-RateLimit-Remaining"))
	}

	w := hit(r, http.MethodGet, "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"), "429 carries retry guidance")
	assert.Contains(t, w.Body.String(), "too many requests")
}

func TestRateLimitWindowResets(t *testing.T) {
	mr, rdb := newTestRedis(t)
	r := limitedRouter(rdb, 1, time.Minute, KeyByIP())

	require.Equal(t, http.StatusOK, hit(r, http.MethodGet, "10.0.0.1:1234").Code)
	require.Equal(t, http.StatusTooManyRequests, hit(r, http.MethodGet, "10.0.0.1:1234").Code)

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, hit(r, http.MethodGet, "10.0.0.1:1234").Code)
}

func TestRateLimitKeysClientsIndependently(t *testing.T) {
	_, rdb := newTestRedis(t)
	r := limitedRouter(rdb, 1, time.Minute, KeyByIP())

	require.Equal(t, http.StatusOK, hit(r, http.MethodGet, "10.0.0.1:1234").Code)
	require.Equal(t, http.StatusTooManyRequests, hit(r, http.MethodGet, "10.0.0.1:1234").Code)

	// A different client still has its own budget.
	assert.Equal(t, http.StatusOK, hit(r, http.MethodGet, "10.0.0.2:1234").Code)
}

func TestRateLimitSkipsPreflight(t *testing.T) {
	_, rdb := newTestRedis(t)
	r := limitedRouter(rdb, 1, time.Minute, KeyByIP())

	require.Equal(t, http.StatusOK, hit(r, http.MethodGet, "10.0.0.1:1234").Code)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, hit(r, http.MethodOptions, "10.0.0.1:1234").Code)
	}
}

func TestRateLimitFailsOpenOnRedisErrors(t *testing.T) {
	mr, rdb := newTestRedis(t)
	r := limitedRouter(rdb, 1, time.Minute, KeyByIP())
	mr.Close()

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(r, http.MethodGet, "10.0.0.1:1234").Code, "limiter must not take the API down with redis")
	}
}

func TestRateLimitDisabledWithoutRedis(t *testing.T) {
	r := limitedRouter(nil, 1, time.Minute, KeyByIP())
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(r, http.MethodGet, "10.0.0.1:1234").Code)
	}
}
