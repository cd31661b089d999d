// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a set of token buckets keyed by an arbitrary string (usually
// the client IP). Idle buckets are dropped by Sweep.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	every   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// New allows burst requests per key, refilled evenly over per.
// A non-positive burst disables limiting.
func New(burst int, per time.Duration) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*bucket),
		burst:   burst,
		idle:    2 * per,
		now:     time.Now,
	}
	if burst > 0 && per > 0 {
		l.every = rate.Every(per / time.Duration(burst))
	}
	return l
}

// Allow reports whether a request for key may proceed now.
func (l *Limiter) Allow(key string) bool {
	if l.burst <= 0 {
		return true
	}
	l.mu.Lock()
	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	l.mu.Unlock()
	return b.lim.AllowN(now, 1)
}

// Sweep drops buckets that have not been used for twice the refill window.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.idle)
	for k, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, k)
		}
	}
}

// Middleware rejects over-limit requests with 429, keyed by ClientIP.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(ClientIP(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "too many attempts, try again shortly"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the host part of RemoteAddr. Forwarding headers are only
// honoured through Proxies.RealIP, which rewrites RemoteAddr for requests
// arriving from a trusted proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Proxies is the set of reverse proxies whose forwarding headers are trusted.
type Proxies []netip.Prefix

// ParseProxies accepts IP addresses and CIDR prefixes.
func ParseProxies(list []string) (Proxies, error) {
	out := make(Proxies, 0, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if strings.Contains(s, "/") {
			p, err := netip.ParsePrefix(s)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", s, err)
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", s, err)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

func (p Proxies) trusts(ip string) bool {
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, pre := range p {
		if pre.Contains(a) {
			return true
		}
	}
	return false
}

// Resolve returns the client address for r. When the peer is a trusted
// proxy, X-Forwarded-For is walked from the right and the first hop that is
// not itself trusted wins; X-Real-IP is the fallback. Otherwise the peer
// address is returned and the headers are ignored.
func (p Proxies) Resolve(r *http.Request) string {
	peer := ClientIP(r)
	if len(p) == 0 || !p.trusts(peer) {
		return peer
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if _, err := netip.ParseAddr(hop); err != nil {
				break
			}
			if !p.trusts(hop) {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if _, err := netip.ParseAddr(xri); err == nil {
			return xri
		}
	}
	return peer
}

// RealIP rewrites RemoteAddr to the resolved client address so ClientIP,
// the login limiter and the audit trail all see the same value.
func (p Proxies) RealIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := p.Resolve(r); ip != ClientIP(r) {
			r.RemoteAddr = net.JoinHostPort(ip, "0")
		}
		next.ServeHTTP(w, r)
	})
}
