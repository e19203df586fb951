package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// PingChecker tracks a component's reachability via periodic HealthPing probes.
type PingChecker struct {
	name         string
	pinger       HealthPinger
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

// NewPingChecker creates a checker reported under name. It starts unhealthy
// until the first probe succeeds.
func NewPingChecker(name string, p HealthPinger, log zerolog.Logger, probeTimeout time.Duration) *PingChecker {
	return &PingChecker{name: name, pinger: p, log: log, probeTimeout: probeTimeout}
}

// Name returns the checker name.
func (pc *PingChecker) Name() string { return pc.name }

// IsHealthy returns the cached health status (non-blocking).
func (pc *PingChecker) IsHealthy() bool { return pc.healthy.Load() == 1 }

// Start begins periodic health checking.
func (pc *PingChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pc.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pc.check(ctx)
		}
	}
}

func (pc *PingChecker) check(ctx context.Context) {
	to := pc.probeTimeout
	if to <= 0 {
		to = 2 * time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, to)
	defer cancel()

	if err := pc.pinger.HealthPing(checkCtx); err != nil {
		if pc.healthy.Swap(0) == 1 {
			pc.log.Error().Err(err).Str("checker", pc.name).Msg("health probe failed")
		}
		return
	}
	if pc.healthy.Swap(1) == 0 {
		pc.log.Debug().Str("checker", pc.name).Msg("health probe ok")
	}
}
