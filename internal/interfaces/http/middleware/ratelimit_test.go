package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Buckets(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		calls   map[string]int
		allowed map[string]int
	}{
		{"burst up to limit", 5, map[string]int{"terminal-1": 5}, map[string]int{"terminal-1": 5}},
		{"excess refused", 3, map[string]int{"terminal-1": 6}, map[string]int{"terminal-1": 3}},
		{"terminals independent", 2, map[string]int{"terminal-1": 4, "terminal-2": 2}, map[string]int{"terminal-1": 2, "terminal-2": 2}},
		{"limit below one clamps", 0, map[string]int{"terminal-1": 2}, map[string]int{"terminal-1": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := NewRateLimiter(tt.limit, time.Minute)
			t.Cleanup(limiter.Stop)

			for key, n := range tt.calls {
				got := 0
				for i := 0; i < n; i++ {
					if limiter.Allow(key) {
						got++
					}
				}
				assert.Equal(t, tt.allowed[key], got, key)
			}
		})
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	limiter := NewRateLimiter(2, 50*time.Millisecond)
	t.Cleanup(limiter.Stop)

	assert.True(t, limiter.Allow("terminal-1"))
	assert.True(t, limiter.Allow("terminal-1"))
	assert.False(t, limiter.Allow("terminal-1"))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, limiter.Allow("terminal-1"))
}

func TestRateLimiter_Remaining(t *testing.T) {
	limiter := NewRateLimiter(5, time.Minute)
	t.Cleanup(limiter.Stop)

	assert.Equal(t, 5, limiter.Remaining("unseen"))
	limiter.Allow("terminal-1")
	limiter.Allow("terminal-1")
	assert.Equal(t, 3, limiter.Remaining("terminal-1"))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	limiter := NewRateLimiter(5, time.Minute)
	t.Cleanup(limiter.Stop)

	limiter.Allow("idle")
	limiter.cleanup(time.Now().Add(time.Minute))
	assert.Equal(t, 1, limiter.Size())

	limiter.cleanup(time.Now().Add(3 * time.Minute))
	assert.Equal(t, 0, limiter.Size())
}

func TestRateLimiter_Concurrent(t *testing.T) {
	limiter := NewRateLimiter(100, time.Minute)
	t.Cleanup(limiter.Stop)

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 150; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow("rush-hour") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), allowed.Load())
}

func rateLimitedRouter(limiter *RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(ResolveActor(ActorConfig{}), RateLimit(limiter))
	r.GET("/api/v1/stock/:product_id", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func stockLookup(r *gin.Engine, userID, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stock/P-0001", nil)
	req.RemoteAddr = remoteAddr
	if userID != "" {
		req.Header.Set(UserIDHeader, userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("sets limit headers", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)
		t.Cleanup(limiter.Stop)

		w := stockLookup(rateLimitedRouter(limiter), "", "10.0.0.7:5000")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("429 with Retry-After once exhausted", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		t.Cleanup(limiter.Stop)
		r := rateLimitedRouter(limiter)

		assert.Equal(t, http.StatusOK, stockLookup(r, "", "10.0.0.7:5000").Code)

		w := stockLookup(r, "", "10.0.0.7:5000")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "60", w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
	})

	t.Run("anonymous callers keyed by IP", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		t.Cleanup(limiter.Stop)
		r := rateLimitedRouter(limiter)

		assert.Equal(t, http.StatusOK, stockLookup(r, "", "10.0.0.7:5000").Code)
		assert.Equal(t, http.StatusTooManyRequests, stockLookup(r, "", "10.0.0.7:5001").Code)
		assert.Equal(t, http.StatusOK, stockLookup(r, "", "10.0.0.8:5000").Code)
	})

	t.Run("cashiers behind one IP keep their own bucket", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		t.Cleanup(limiter.Stop)
		r := rateLimitedRouter(limiter)
		cashier1, cashier2 := uuid.NewString(), uuid.NewString()

		assert.Equal(t, http.StatusOK, stockLookup(r, cashier1, "10.0.0.7:5000").Code)
		assert.Equal(t, http.StatusTooManyRequests, stockLookup(r, cashier1, "10.0.0.7:5000").Code)
		assert.Equal(t, http.StatusOK, stockLookup(r, cashier2, "10.0.0.7:5000").Code)
	})
}

func TestRateLimitByKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := NewRateLimiter(1, time.Minute)
	t.Cleanup(limiter.Stop)

	r := gin.New()
	r.Use(RateLimitByKey(limiter, func(c *gin.Context) string {
		return "branch:" + c.GetHeader(BranchIDHeader)
	}))
	r.POST("/api/v1/sales", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	post := func(branch string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", nil)
		req.Header.Set(BranchIDHeader, branch)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, post("santo-domingo"))
	assert.Equal(t, http.StatusTooManyRequests, post("santo-domingo"))
	assert.Equal(t, http.StatusCreated, post("santiago"))
}
