package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeChecker struct {
	name    string
	healthy atomic.Int32
}

func (f *fakeChecker) Name() string                               { return f.name }
func (f *fakeChecker) IsHealthy() bool                            { return f.healthy.Load() == 1 }
func (f *fakeChecker) Start(ctx context.Context, _ time.Duration) {}

func TestServiceHealthChecker_Transitions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := &fakeChecker{name: "dataset"}
	b := &fakeChecker{name: "audit"}
	a.healthy.Store(1)
	b.healthy.Store(1)

	svc := NewServiceHealthChecker(zerolog.Nop(), a, b)
	go svc.Start(ctx, 10*time.Millisecond)

	waitTrue(t, func() bool { return svc.IsHealthy() })

	b.healthy.Store(0)
	waitTrue(t, func() bool { return !svc.IsHealthy() })
	if got := svc.Components(); got["audit"] || !got["dataset"] {
		t.Fatalf("unexpected component view: %v", got)
	}

	b.healthy.Store(1)
	waitTrue(t, func() bool { return svc.IsHealthy() })
}

func TestWaitUntilHealthy(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	down := &fakeChecker{name: "dataset"}
	svc := NewServiceHealthChecker(zerolog.Nop(), down)
	go svc.Start(ctx, 10*time.Millisecond)

	if err := WaitUntilHealthy(ctx, svc, 60*time.Millisecond); !errors.Is(err, ErrStartupUnhealthy) {
		t.Fatalf("expected ErrStartupUnhealthy, got %v", err)
	}

	down.healthy.Store(1)
	if err := WaitUntilHealthy(ctx, svc, time.Second); err != nil {
		t.Fatalf("expected healthy, got %v", err)
	}
}

func waitTrue(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before timeout")
}

type switchPinger struct{ fail atomic.Bool }

func (p *switchPinger) HealthPing(context.Context) error {
	if p.fail.Load() {
		return errors.New("unreachable")
	}
	return nil
}

func TestPingChecker_FollowsProbe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &switchPinger{}
	pc := NewPingChecker("dataset", p, zerolog.Nop(), time.Second)
	if pc.IsHealthy() || pc.Name() != "dataset" {
		t.Fatalf("fresh checker: healthy=%v name=%q", pc.IsHealthy(), pc.Name())
	}
	go pc.Start(ctx, 10*time.Millisecond)

	waitTrue(t, pc.IsHealthy)
	p.fail.Store(true)
	waitTrue(t, func() bool { return !pc.IsHealthy() })
	p.fail.Store(false)
	waitTrue(t, pc.IsHealthy)
}
