package middleware

import (
	"net/http"
	"sync"
	"time"

	perr "phishguard/internal/platform/errors"
	pnet "phishguard/internal/platform/net"
	phttp "phishguard/internal/platform/net/http"

	"golang.org/x/time/rate"
)

// RateLimitOptions configures the per client token bucket
type RateLimitOptions struct {
	// RPS is the refill rate; 0 disables the limiter
	RPS float64
	// Burst is the bucket size; 0 means max(1, RPS)
	Burst int
	// IdleTTL evicts buckets unused for this long; 0 means 10m
	IdleTTL time.Duration
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

type clientLimiter struct {
	opt RateLimitOptions
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
	swept   time.Time
}

func (c *clientLimiter) allow(key string) bool {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.swept) >= c.opt.IdleTTL {
		for k, b := range c.buckets {
			if now.Sub(b.seen) >= c.opt.IdleTTL {
				delete(c.buckets, k)
			}
		}
		c.swept = now
	}

	b, ok := c.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Limit(c.opt.RPS), c.opt.Burst)}
		c.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// RateLimit rejects clients, keyed by remote IP, that exceed the configured rate with a 429 envelope.
// Mount after RealIP so proxied clients are told apart
func RateLimit(opt RateLimitOptions) func(http.Handler) http.Handler {
	return rateLimit(opt, time.Now)
}

func rateLimit(opt RateLimitOptions, now func() time.Time) func(http.Handler) http.Handler {
	if opt.RPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opt.Burst <= 0 {
		opt.Burst = max(1, int(opt.RPS))
	}
	if opt.IdleTTL <= 0 {
		opt.IdleTTL = 10 * time.Minute
	}
	cl := &clientLimiter{opt: opt, now: now, buckets: map[string]*bucket{}, swept: now()}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cl.allow(pnet.ClientIP(r.RemoteAddr)) {
				w.Header().Set("Retry-After", "1")
				phttp.RespondError(w, r, perr.TooManyf("rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
