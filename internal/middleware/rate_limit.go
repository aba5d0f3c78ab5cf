package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"linkhub/integrator/internal/common"
	"linkhub/integrator/internal/constants"

	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per client IP
type RateLimiter struct {
	rps       rate.Limit
	burst     int
	whitelist map[string]bool

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewRateLimiter(rps float64, burst int, whitelistedIPs ...string) *RateLimiter {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 20
	}

	wl := make(map[string]bool, len(whitelistedIPs))
	for _, ip := range whitelistedIPs {
		wl[ip] = true
	}

	return &RateLimiter{
		rps:       rate.Limit(rps),
		burst:     burst,
		whitelist: wl,
		limiters:  make(map[string]*rate.Limiter),
	}
}

func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists := rl.limiters[ip]; exists {
		return limiter
	}
	limiter := rate.NewLimiter(rl.rps, rl.burst)
	rl.limiters[ip] = limiter
	return limiter
}

// Middleware rejects clients that exceed their bucket with 429
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if rl.whitelist[ip] {
			next.ServeHTTP(w, r)
			return
		}

		if !rl.getLimiter(ip).Allow() {
			common.RespondErrorCode(w, time.Now(), constants.ErrCodeRateLimited, "", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
