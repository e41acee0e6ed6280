package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/dotrewrite/internal/config"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, config.RetryBackoffExponential, p.Mode)
	assert.Equal(t, 500*time.Millisecond, p.Initial)
	assert.Equal(t, 5*time.Second, p.Max)
	assert.Equal(t, 3, p.MaxRetries)
}

func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, 5*time.Second, 2*time.Second, 5)
	assert.Equal(t, 2*time.Second, p.Initial, "initial is clamped to max")
	assert.Equal(t, 2*time.Second, p.Max)
	assert.Equal(t, config.RetryBackoffFixed, p.Mode)
	assert.Equal(t, 5, p.MaxRetries)

	unknown := NewPolicy("bogus", 0, 0, -1)
	assert.Equal(t, DefaultPolicy(), unknown)
}

func TestFromNotifyConfig(t *testing.T) {
	p := FromNotifyConfig(config.NotifyConfig{
		RetryBackoff:      config.RetryBackoffLinear,
		RetryInitialDelay: "100ms",
		RetryMaxDelay:     "1s",
		MaxRetries:        4,
	})
	assert.Equal(t, config.RetryBackoffLinear, p.Mode)
	assert.Equal(t, 100*time.Millisecond, p.Initial)
	assert.Equal(t, time.Second, p.Max)
	assert.Equal(t, 4, p.MaxRetries)
}

func TestDelayModes(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		name   string
		policy Policy
		want   []time.Duration
	}{
		{"fixed", NewPolicy(config.RetryBackoffFixed, 100*ms, 500*ms, 3), []time.Duration{100 * ms, 100 * ms, 100 * ms}},
		{"linear", NewPolicy(config.RetryBackoffLinear, 100*ms, 250*ms, 5), []time.Duration{100 * ms, 200 * ms, 250 * ms, 250 * ms}},
		{"exponential", NewPolicy(config.RetryBackoffExponential, 50*ms, 160*ms, 5), []time.Duration{50 * ms, 100 * ms, 160 * ms, 160 * ms}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, want := range tt.want {
				assert.Equal(t, want, tt.policy.Delay(i+1), "retry %d", i+1)
			}
		})
	}
}

func TestDelayEdgeCases(t *testing.T) {
	p := NewPolicy(config.RetryBackoffExponential, 10*time.Millisecond, time.Second, 1)
	assert.Zero(t, p.Delay(0))
	assert.Zero(t, p.Delay(-1))
	assert.Equal(t, time.Second, p.Delay(200), "large retry counts stay capped")
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 3)
	calls := 0
	var retries []int
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("unavailable")
		}
		return nil
	}, func(attempt int, _ error) { retries = append(retries, attempt) })

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestDoGivesUp(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2)
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("down")
	}, nil)
	require.EqualError(t, err, "down")
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnCancel(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Hour, time.Hour, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Do(ctx, func(context.Context) error { return errors.New("down") }, nil)
	require.ErrorIs(t, err, context.Canceled)
}
