package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/bcmedia-dr/doctor-management-system/internal/shared/response"
)

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
}

// NewIPRateLimiter allows burst requests at once and refills one token every
// interval.
func NewIPRateLimiter(interval time.Duration, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		rate:  rate.Every(interval),
		burst: burst,
	}
}

func (l *IPRateLimiter) limiter(ip string) *rate.Limiter {
	if v, ok := l.limiters.Load(ip); ok {
		return v.(*rate.Limiter)
	}
	v, _ := l.limiters.LoadOrStore(ip, rate.NewLimiter(l.rate, l.burst))
	return v.(*rate.Limiter)
}

func (l *IPRateLimiter) Allow(ip string) bool {
	return l.limiter(ip).Allow()
}

// RateLimit rejects requests over the per-IP budget with 429.
func RateLimit(l *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			response.TooManyRequests(c, "Too many requests, please slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}
