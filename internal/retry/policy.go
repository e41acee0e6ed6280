// Package retry provides backoff policies for transient failures such as
// publishing job events.
package retry

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/dotrewrite/internal/config"
)

// Policy encapsulates retry/backoff settings for transient failures.
// It is immutable after construction.
type Policy struct {
	Mode       config.RetryBackoffMode // fixed|linear|exponential
	Initial    time.Duration           // base delay
	Max        time.Duration           // cap for growth
	MaxRetries int                     // retry attempts after the first failure
}

// DefaultPolicy returns exponential backoff from 500ms capped at 5s with 3 retries.
func DefaultPolicy() Policy {
	return Policy{Mode: config.RetryBackoffExponential, Initial: 500 * time.Millisecond, Max: 5 * time.Second, MaxRetries: 3}
}

// NewPolicy builds a policy from raw fields; zero or invalid values fall back to defaults.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDuration time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDuration > 0 {
		p.Max = maxDuration
	}
	switch mode {
	case config.RetryBackoffFixed, config.RetryBackoffLinear, config.RetryBackoffExponential:
		p.Mode = mode
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// FromNotifyConfig builds the policy used for event publishing.
func FromNotifyConfig(n config.NotifyConfig) Policy {
	initial, _ := config.ParseDuration(n.RetryInitialDelay, 0)
	maxDelay, _ := config.ParseDuration(n.RetryMaxDelay, 0)
	return NewPolicy(n.RetryBackoff, initial, maxDelay, n.MaxRetries)
}

// Delay returns the backoff delay for the given retry number (1-based).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case config.RetryBackoffFixed:
		return p.Initial
	case config.RetryBackoffExponential:
		d := p.Initial
		for i := 1; i < retryCount; i++ {
			d *= 2
			if d >= p.Max || d <= 0 {
				return p.Max
			}
		}
		if d > p.Max {
			return p.Max
		}
		return d
	default: // linear
		d := time.Duration(retryCount) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}

// Do calls fn until it succeeds, the retries are exhausted or ctx is done.
// onRetry, when non-nil, is called before each wait with the retry number and the last error.
func (p Policy) Do(ctx context.Context, fn func(context.Context) error, onRetry func(attempt int, err error)) error {
	err := fn(ctx)
	for retry := 1; err != nil && retry <= p.MaxRetries; retry++ {
		if onRetry != nil {
			onRetry(retry, err)
		}
		timer := time.NewTimer(p.Delay(retry))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (last error: %w)", ctx.Err(), err)
		case <-timer.C:
		}
		err = fn(ctx)
	}
	return err
}
