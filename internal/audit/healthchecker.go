package audit

import (
	"context"
	"time"
)

// HealthChecker exposes the audit write-health signal to the service health aggregator.
type HealthChecker struct {
	l *Log
}

// NewHealthChecker wraps l.
func NewHealthChecker(l *Log) *HealthChecker { return &HealthChecker{l: l} }

// Name returns the checker name.
func (h *HealthChecker) Name() string { return "audit" }

// IsHealthy reports whether the last audit write succeeded.
func (h *HealthChecker) IsHealthy() bool { return h.l.Healthy() }

// Start blocks until ctx ends; the flag is maintained by writes.
func (h *HealthChecker) Start(ctx context.Context, _ time.Duration) { <-ctx.Done() }
