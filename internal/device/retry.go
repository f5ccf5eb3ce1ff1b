package device

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	// DefaultMaxAttempts is the default total number of attempts for
	// operations that fail transiently
	DefaultMaxAttempts = 3

	// DefaultInitialDelay is the default pause before the first retry
	DefaultInitialDelay = 500 * time.Millisecond

	// DefaultMaxDelay caps the exponential backoff between attempts
	DefaultMaxDelay = 5 * time.Second

	// DefaultMultiplier is the backoff growth factor between attempts
	DefaultMultiplier = 2.0
)

// RetryPolicy controls how transient failures are retried. Retries are
// silent; only the final failure surfaces, and it carries the number of
// attempts that were made.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, the first try included
	MaxAttempts int

	// InitialDelay is the pause before the first retry
	InitialDelay time.Duration

	// MaxDelay caps the growing pause between retries
	MaxDelay time.Duration

	// Multiplier grows the pause after every retry
	Multiplier float64
}

// DefaultRetryPolicy returns the policy used when none is configured
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		Multiplier:   DefaultMultiplier,
	}
}

// NewBackOff builds the backoff schedule for one operation. Every
// operation gets its own schedule, so a policy is safe to share.
func (p RetryPolicy) NewBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialDelay
	bo.MaxInterval = p.MaxDelay
	bo.Multiplier = p.Multiplier
	bo.RandomizationFactor = 0.2
	bo.Reset()
	return bo
}

// normalized returns the policy with unset fields replaced by defaults
func (p RetryPolicy) normalized() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = def.InitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.Multiplier <= 1 {
		p.Multiplier = def.Multiplier
	}
	return p
}

// sleepContext pauses for d unless the context ends first
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
