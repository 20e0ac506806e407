package security

import (
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiterEnforcesBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RateLimiter(func() (int, time.Duration) {
		return 2, time.Minute
	}))
	router.GET("/ping", func(c *gin.Context) { c.String(200, "pong") })

	do := func(ip string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/ping", nil)
		req.RemoteAddr = ip + ":12345"
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, 200, do("10.0.0.1"))
	assert.Equal(t, 200, do("10.0.0.1"))
	assert.Equal(t, 429, do("10.0.0.1"))

	// 其它 IP 不受影响
	assert.Equal(t, 200, do("10.0.0.2"))
}

func TestRateLimiterPicksUpReloadedLimits(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var maxRequests atomic.Int64
	maxRequests.Store(1)

	router := gin.New()
	router.Use(RateLimiter(func() (int, time.Duration) {
		return int(maxRequests.Load()), time.Minute
	}))
	router.GET("/ping", func(c *gin.Context) { c.String(200, "pong") })

	do := func(ip string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/ping", nil)
		req.RemoteAddr = ip + ":12345"
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, 200, do("10.0.0.1"))
	assert.Equal(t, 429, do("10.0.0.1"))

	// 热更放宽配额后生效，无需重启
	maxRequests.Store(100)
	for i := 0; i < 5; i++ {
		assert.Equal(t, 200, do("10.0.0.2"))
	}
}

func TestSecureHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Secure())
	router.GET("/ping", func(c *gin.Context) { c.String(200, "pong") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
