package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/careercoach/careercoach/backend/go-services/pkg/logger"
	"github.com/careercoach/careercoach/backend/go-services/pkg/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiter decides whether one more request for key may pass. When it may not,
// retryAfter is the number of seconds the client should wait.
type limiter interface {
	allow(ctx context.Context, key string) (ok bool, retryAfter int, err error)
}

// rateLimit adapts a limiter to Gin. store labels the metrics ("memory" or "redis").
// Key selection: the user id set by IdentifyBearer or AuthMiddleware when one
// ran first, otherwise the client IP from Gin.
func rateLimit(store string, l limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter, err := l.allow(c.Request.Context(), rateLimitKey(c))
		if err != nil {
			logger.Errorf("rate limit check failed: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
			return
		}
		if !ok {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			metrics.RateLimitRejected.WithLabelValues(store).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues(store).Inc()
		c.Next()
	}
}

// limiterStore is a per-key token-bucket store owned by one middleware instance.
type limiterStore struct {
	m     sync.Map // map[string]*rate.Limiter
	rps   float64
	burst int
}

// get returns (and lazily creates) a token-bucket limiter for the given key
func (s *limiterStore) get(key string) *rate.Limiter {
	if v, ok := s.m.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := s.m.LoadOrStore(key, rate.NewLimiter(rate.Limit(s.rps), s.burst))
	return v.(*rate.Limiter)
}

func (s *limiterStore) allow(_ context.Context, key string) (bool, int, error) {
	return s.get(key).Allow(), 1, nil
}

// RateLimitMiddleware returns a Gin middleware enforcing an in-process token bucket per key.
// rps = allowed events per second, burst = maximum tokens in bucket.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	return rateLimit("memory", &limiterStore{rps: rps, burst: burst})
}
