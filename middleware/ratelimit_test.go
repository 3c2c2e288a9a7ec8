package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRateLimitRouter(l *Limiter) *gin.Engine {
	eng := gin.New()
	eng.Use(l.Handler())
	eng.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return eng
}

func hit(r http.Handler, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", ip)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_AllowsFirst(t *testing.T) {
	r := newRateLimitRouter(NewLimiter(100, 5))
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1"))
}

func TestRateLimit_Burst(t *testing.T) {
	// near-zero refill so the bucket drains
	r := newRateLimitRouter(NewLimiter(0.001, 3))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(r, "10.0.1.1"), "request %d should be allowed", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.1.1"))
}

func TestRateLimit_PerIP(t *testing.T) {
	r := newRateLimitRouter(NewLimiter(0.001, 1))
	assert.Equal(t, http.StatusOK, hit(r, "10.1.1.1"))
	assert.Equal(t, http.StatusOK, hit(r, "10.1.1.2"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.1.1.1"))
}

func TestLimiter_Sweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLimiter(10, 1)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(5 * time.Minute)
	l.Allow("b")
	assert.Equal(t, 2, l.Len())

	assert.Equal(t, 1, l.Sweep(time.Minute))
	assert.Equal(t, 1, l.Len())
	assert.True(t, l.Allow("a"), "a swept IP starts with a fresh bucket")
}
