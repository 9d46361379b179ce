package limits

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultClientKey is used when a request carries no X-Forwarded-For header.
const DefaultClientKey = "127.0.0.1"

// idleTTL is how long an unused client bucket is kept before it is dropped.
const idleTTL = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per client key, each refilling at
// perSecond with a burst of the same size.
type KeyedLimiter struct {
	perSecond int

	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
	lastGC  time.Time
}

// NewKeyedLimiter returns a limiter allowing perSecond requests per key.
// Values below one are raised to one.
func NewKeyedLimiter(perSecond int) *KeyedLimiter {
	if perSecond < 1 {
		perSecond = 1
	}
	return &KeyedLimiter{
		perSecond: perSecond,
		buckets:   make(map[string]*bucket),
		now:       time.Now,
	}
}

// Allow reports whether one more request for key fits in its bucket.
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(l.perSecond), l.perSecond)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.gcLocked(now)
	l.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

// Len reports how many client buckets are tracked.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *KeyedLimiter) gcLocked(now time.Time) {
	if now.Sub(l.lastGC) < idleTTL {
		return
	}
	l.lastGC = now
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) >= idleTTL {
			delete(l.buckets, k)
		}
	}
}

// ClientKey returns the first X-Forwarded-For hop, or DefaultClientKey.
func ClientKey(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		return DefaultClientKey
	}
	first, _, _ := strings.Cut(xff, ",")
	if first = strings.TrimSpace(first); first != "" {
		return first
	}
	return DefaultClientKey
}
