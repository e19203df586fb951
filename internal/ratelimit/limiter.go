// Package ratelimit is an in-process per-caller cooldown gate. It assumes a
// single serving instance and is not shared across processes.
package ratelimit

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rejections = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "hitek",
	Subsystem: "ratelimit",
	Name:      "rejections_total",
	Help:      "Requests rejected by the per-caller cooldown.",
})

// Decision is the outcome of TryAcquire. RetryAfter is zero when Allowed.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithExempt sets a predicate for callers that bypass the limiter.
func WithExempt(exempt func(caller string) bool) Option {
	return func(l *Limiter) { l.exempt = exempt }
}

// Limiter allows one accepted request per caller per cooldown.
type Limiter struct {
	mu       sync.Mutex
	last     map[string]time.Time
	cooldown time.Duration
	now      func() time.Time
	exempt   func(string) bool
}

// New creates a Limiter. A non-positive cooldown allows everything.
func New(cooldown time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		last:     make(map[string]time.Time),
		cooldown: cooldown,
		now:      time.Now,
		exempt:   func(string) bool { return false },
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// TryAcquire accepts the request when at least the cooldown has passed since
// the caller's last accepted request. Rejected requests do not move the window.
func (l *Limiter) TryAcquire(caller string) Decision {
	if l.cooldown <= 0 || l.exempt(caller) {
		return Decision{Allowed: true}
	}

	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.last[caller]; ok {
		if elapsed := now.Sub(last); elapsed < l.cooldown {
			rejections.Inc()
			return Decision{RetryAfter: l.cooldown - elapsed}
		}
	}
	l.last[caller] = now
	return Decision{Allowed: true}
}
