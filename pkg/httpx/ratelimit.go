package httpx

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fieldgate/provision/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters for an endpoint class.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window.
	RequestsPerWindow int
	// Window is the time window for rate limiting.
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit.
	Burst int
}

// Endpoint classes. Overridable via RATELIMIT_{class}_{REQUESTS,WINDOW_SEC,BURST}.
var (
	// StrictLimit protects public token-bearing endpoints (verify, complete)
	// against brute force: 5 requests per minute.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit for authenticated inviter operations: 20 per minute.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}

	// LenientLimit for cheap read endpoints: 100 per minute.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}
)

func init() {
	StrictLimit = parseRateLimitFromEnv("STRICT", StrictLimit)
	ModerateLimit = parseRateLimitFromEnv("MODERATE", ModerateLimit)
	LenientLimit = parseRateLimitFromEnv("LENIENT", LenientLimit)
}

func parseRateLimitFromEnv(class string, def RateLimitConfig) RateLimitConfig {
	cfg := def

	if val := os.Getenv("RATELIMIT_" + class + "_REQUESTS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			cfg.RequestsPerWindow = n
		}
	}
	if val := os.Getenv("RATELIMIT_" + class + "_WINDOW_SEC"); val != "" {
		if sec, err := strconv.Atoi(val); err == nil && sec > 0 {
			cfg.Window = time.Duration(sec) * time.Second
		}
	}
	if val := os.Getenv("RATELIMIT_" + class + "_BURST"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			cfg.Burst = n
		}
	}

	return cfg
}

// KeyExtractor derives the bucketing key for a request (IP, subject, ...).
type KeyExtractor func(*http.Request) string

// IPKeyExtractor extracts the client IP, honouring X-Forwarded-For and
// X-Real-IP for proxied requests.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if parts := strings.Split(xff, ","); len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// SubjectKeyExtractor buckets by the authenticated subject, falling back to
// IP for anonymous requests.
func SubjectKeyExtractor(r *http.Request) string {
	if sub := UserIDFromCtx(r.Context()); sub != "" {
		return sub
	}
	return IPKeyExtractor(r)
}

// limiterPool manages one token bucket per key, dropping stale buckets
// periodically so the map does not grow without bound.
type limiterPool struct {
	limiters sync.Map // map[string]*limiterEntry
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const limiterCleanupInterval = 10 * time.Minute

func newLimiterPool(cfg RateLimitConfig) *limiterPool {
	return &limiterPool{
		rate:        rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:       cfg.Burst,
		lastCleanup: time.Now(),
	}
}

func (p *limiterPool) allow(key string) bool {
	now := time.Now()

	v, _ := p.limiters.LoadOrStore(key, &limiterEntry{
		limiter: rate.NewLimiter(p.rate, p.burst),
	})
	entry := v.(*limiterEntry)
	entry.lastSeen = now

	p.maybeCleanup(now)
	return entry.limiter.Allow()
}

func (p *limiterPool) maybeCleanup(now time.Time) {
	p.mu.Lock()
	if now.Sub(p.lastCleanup) < limiterCleanupInterval {
		p.mu.Unlock()
		return
	}
	p.lastCleanup = now
	p.mu.Unlock()

	p.limiters.Range(func(k, v any) bool {
		if now.Sub(v.(*limiterEntry).lastSeen) > limiterCleanupInterval {
			p.limiters.Delete(k)
		}
		return true
	})
}

// RateLimit limits requests bucketed by the given key extractor.
func RateLimit(cfg RateLimitConfig, key KeyExtractor) Middleware {
	pool := newLimiterPool(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !pool.allow(key(r)) {
				slogx.FromContext(r.Context()).Warn("rate limit exceeded",
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
				WriteError(w, http.StatusTooManyRequests,
					"rate_limited", "Too many requests, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP limits requests per client IP.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, IPKeyExtractor)
}

// RateLimitBySubject limits requests per authenticated subject.
// Place after AuthnMiddleware in the chain.
func RateLimitBySubject(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, SubjectKeyExtractor)
}
