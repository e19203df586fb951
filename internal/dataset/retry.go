package dataset

import (
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

// RetryPolicy describes how contention is retried. Delay is a pure function of the
// attempt number so schedules can be checked without a store.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	Multiplier      float64
	// MaxElapsed caps the sum of all delays.
	MaxElapsed time.Duration
}

// DefaultRetryPolicy doubles from 100ms over four attempts within one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     4,
		InitialInterval: 100 * time.Millisecond,
		Multiplier:      2,
		MaxElapsed:      time.Second,
	}
}

// Delay returns the wait before retry number attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.InitialInterval)
	for i := 1; i < attempt; i++ {
		d *= mult
	}
	return time.Duration(d)
}

// Schedule lists every delay the policy will actually wait, honouring both caps.
func (p RetryPolicy) Schedule() []time.Duration {
	var out []time.Duration
	b := p.newBackOff()
	for {
		d := b.NextBackOff()
		if d == backoff.Stop {
			return out
		}
		out = append(out, d)
	}
}

func (p RetryPolicy) newBackOff() *policyBackOff {
	return &policyBackOff{policy: p}
}

// policyBackOff adapts RetryPolicy to backoff.BackOff.
type policyBackOff struct {
	policy  RetryPolicy
	retries int
	waited  time.Duration
}

func (b *policyBackOff) NextBackOff() time.Duration {
	if b.retries+1 >= b.policy.MaxAttempts {
		return backoff.Stop
	}
	d := b.policy.Delay(b.retries + 1)
	if b.policy.MaxElapsed > 0 && b.waited+d > b.policy.MaxElapsed {
		return backoff.Stop
	}
	b.retries++
	b.waited += d
	return d
}

func (b *policyBackOff) Reset() {
	b.retries = 0
	b.waited = 0
}
