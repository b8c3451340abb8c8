package middleware

import (
	"sync"

	"github.com/flexprice/contractflow/internal/config"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware throttles requests per value of the key route
// parameter, one token bucket each. A non-positive rate disables it.
func RateLimitMiddleware(cfg config.SignatureConfig, key string) gin.HandlerFunc {
	if cfg.RateLimit <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)
	limiterFor := func(k string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		l, ok := limiters[k]
		if !ok {
			l = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
			limiters[k] = l
		}
		return l
	}

	return func(c *gin.Context) {
		if !limiterFor(c.Param(key)).Allow() {
			c.Error(ierr.NewError("rate limit exceeded").
				WithHint("Too many requests, retry later").
				Mark(ierr.ErrRateLimited))
			c.Abort()
			return
		}
		c.Next()
	}
}
