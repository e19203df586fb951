// Package broadcast delivers an administrative notice to every known caller.
package broadcast

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

var deliveries = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "hitek",
		Subsystem: "broadcast",
		Name:      "deliveries_total",
		Help:      "Broadcast deliveries by outcome.",
	},
	[]string{"outcome"},
)

// ErrNotFound is returned when cancelling an unknown or finished broadcast.
var ErrNotFound = fmt.Errorf("%w: no such broadcast", model.ErrNotFound)

// Messenger is the outbound transport to callers.
type Messenger interface {
	Send(ctx context.Context, recipient, text string) error
	SendDocument(ctx context.Context, recipient, name string, r io.Reader) error
}

// Recipients supplies the caller registry.
type Recipients interface {
	Recipients(ctx context.Context) ([]string, error)
}

// Options tune delivery pacing.
type Options struct {
	// Interval is the delay between consecutive sends; zero sends back to back.
	Interval time.Duration
	// Concurrency caps in-flight sends.
	Concurrency int
}

// Broadcaster fans a message out with per-recipient isolation.
type Broadcaster struct {
	msg  Messenger
	src  Recipients
	opts Options
	log  zerolog.Logger

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

// New creates a Broadcaster.
func New(msg Messenger, src Recipients, opts Options, log zerolog.Logger) *Broadcaster {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Broadcaster{msg: msg, src: src, opts: opts, log: log, running: map[string]context.CancelFunc{}}
}

// Broadcast delivers text to every recipient and blocks until done or cancelled.
// The report counts only recipients actually attempted.
func (b *Broadcaster) Broadcast(ctx context.Context, text, admin string) (model.BroadcastReport, error) {
	id := uuid.NewString()
	ctx, cancel := b.track(ctx, id)
	defer b.untrack(id, cancel)
	return b.run(ctx, id, text, admin)
}

// Start runs a broadcast in the background and returns its id. done, if not
// nil, receives the final report.
func (b *Broadcaster) Start(ctx context.Context, text, admin string, done func(model.BroadcastReport, error)) string {
	id := uuid.NewString()
	ctx, cancel := b.track(ctx, id)
	go func() {
		defer b.untrack(id, cancel)
		rep, err := b.run(ctx, id, text, admin)
		if done != nil {
			done(rep, err)
		}
	}()
	return id
}

// Cancel stops the broadcast with the given id.
func (b *Broadcaster) Cancel(id string) error {
	b.mu.Lock()
	cancel, ok := b.running[id]
	b.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	cancel()
	return nil
}

// CancelAll stops every running broadcast and returns how many were signalled.
func (b *Broadcaster) CancelAll() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, cancel := range b.running {
		cancel()
	}
	return len(b.running)
}

// Active lists running broadcast ids.
func (b *Broadcaster) Active() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.running))
	for id := range b.running {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (b *Broadcaster) track(ctx context.Context, id string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.running[id] = cancel
	b.mu.Unlock()
	return ctx, cancel
}

func (b *Broadcaster) untrack(id string, cancel context.CancelFunc) {
	b.mu.Lock()
	delete(b.running, id)
	b.mu.Unlock()
	cancel()
}

func (b *Broadcaster) run(ctx context.Context, id, text, admin string) (model.BroadcastReport, error) {
	rep := model.BroadcastReport{ID: id}
	recipients, err := b.src.Recipients(ctx)
	if err != nil {
		return rep, fmt.Errorf("load recipients: %w", err)
	}

	pool, err := ants.NewPool(b.opts.Concurrency)
	if err != nil {
		return rep, fmt.Errorf("broadcast pool: %w", err)
	}
	defer pool.Release()

	var (
		sent, failed atomic.Int64
		wg           sync.WaitGroup
		tick         <-chan time.Time
	)
	if b.opts.Interval > 0 {
		ticker := time.NewTicker(b.opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	log := b.log.With().Str("broadcast_id", id).Str("admin", admin).Logger()
	log.Info().Int("recipients", len(recipients)).Msg("broadcast started")

submit:
	for i, to := range recipients {
		if i > 0 && tick != nil {
			select {
			case <-ctx.Done():
				break submit
			case <-tick:
			}
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		task := func() {
			defer wg.Done()
			if err := b.deliver(ctx, to, text); err != nil {
				failed.Add(1)
				deliveries.WithLabelValues("failed").Inc()
				log.Warn().Err(err).Str("recipient", to).Msg("broadcast delivery failed")
				return
			}
			sent.Add(1)
			deliveries.WithLabelValues("sent").Inc()
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			failed.Add(1)
			deliveries.WithLabelValues("failed").Inc()
			log.Error().Err(err).Str("recipient", to).Msg("broadcast submit failed")
		}
	}
	wg.Wait()

	rep.Sent = int(sent.Load())
	rep.Failed = int(failed.Load())
	rep.Canceled = ctx.Err() != nil && rep.Sent+rep.Failed < len(recipients)
	log.Info().Int("sent", rep.Sent).Int("failed", rep.Failed).Bool("canceled", rep.Canceled).Msg("broadcast finished")
	return rep, nil
}

// deliver isolates one recipient, turning panics into failures.
func (b *Broadcaster) deliver(ctx context.Context, to, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("messenger panic: %v", r)
		}
	}()
	return b.msg.Send(ctx, to, text)
}
