package dataset

import (
	"context"
	"errors"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

// Accessor is the only path to the dataset. It is safe for concurrent use and
// never serialises readers.
type Accessor struct {
	backend Backend
	policy  RetryPolicy
	log     zerolog.Logger
}

// NewAccessor wraps backend with the retry policy.
func NewAccessor(backend Backend, policy RetryPolicy, log zerolog.Logger) *Accessor {
	return &Accessor{backend: backend, policy: policy, log: log}
}

// Lookup runs the backend query, retrying contention until the policy gives up.
// Failures map onto model.ErrTimeout, model.ErrFatal or a validation error.
func (a *Accessor) Lookup(ctx context.Context, kind model.FieldKind, value string, limit int) ([]model.Record, error) {
	start := time.Now()
	var (
		recs     []model.Record
		attempts int
	)
	op := func() error {
		attempts++
		var err error
		recs, err = a.backend.Lookup(ctx, kind, value, limit)
		if err == nil {
			return nil
		}
		if errors.Is(err, model.ErrBusy) && ctx.Err() == nil {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		lookupRetries.WithLabelValues(string(kind)).Inc()
		a.log.Warn().Err(err).
			Str("kind", string(kind)).
			Int("attempt", attempts).
			Dur("wait", wait).
			Msg("dataset busy, retrying")
	}

	err := backoff.RetryNotify(op, backoff.WithContext(a.policy.newBackOff(), ctx), notify)
	err = a.classify(ctx, err, attempts)
	lookupDuration.WithLabelValues(string(kind), outcome(err)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (a *Accessor) classify(ctx context.Context, err error, attempts int) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", model.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, model.ErrBusy):
		return fmt.Errorf("%w: still busy after %d attempts: %w", model.ErrFatal, attempts, err)
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrFatal):
		return err
	}
	return fmt.Errorf("%w: %w", model.ErrFatal, err)
}

// Stats reports dataset size.
func (a *Accessor) Stats(ctx context.Context) (model.DatasetStats, error) {
	st, err := a.backend.Stats(ctx)
	if err != nil {
		return model.DatasetStats{}, a.classify(ctx, err, 1)
	}
	return st, nil
}

// HealthPing implements health.HealthPinger.
func (a *Accessor) HealthPing(ctx context.Context) error { return a.backend.HealthPing(ctx) }

// Close releases the backend connections.
func (a *Accessor) Close() error { return a.backend.Close() }

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrTimeout):
		return "timeout"
	case errors.Is(err, model.ErrFatal):
		return "fatal"
	case errors.Is(err, model.ErrValidation):
		return "invalid"
	}
	return "error"
}
