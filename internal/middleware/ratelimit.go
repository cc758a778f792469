package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ludolog/ludolog/internal/utils"
)

// RateLimit throttles a route per client IP. Stale limiters are dropped once
// idle for longer than expiry.
func RateLimit(r rate.Limit, burst int, expiry time.Duration) func(http.Handler) http.Handler {
	type visitor struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var (
		mu       sync.Mutex
		visitors = make(map[string]*visitor)
	)

	get := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		v, ok := visitors[ip]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(r, burst)}
			visitors[ip] = v
		}
		v.lastSeen = now

		for addr, vv := range visitors {
			if now.Sub(vv.lastSeen) > expiry {
				delete(visitors, addr)
			}
		}
		return v.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ip, _, err := net.SplitHostPort(req.RemoteAddr)
			if err != nil {
				ip = req.RemoteAddr
			}
			if !get(ip).Allow() {
				utils.JSONMsg(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
