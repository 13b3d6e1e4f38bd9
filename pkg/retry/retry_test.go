package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func TestNew_FillsDefaults(t *testing.T) {
	r := New(&Config{JitterFactor: 3})

	assert.Equal(t, 100*time.Millisecond, r.config.InitialInterval)
	assert.Equal(t, 2*time.Second, r.config.MaxInterval)
	assert.Equal(t, 2.0, r.config.Multiplier)
	assert.Equal(t, 1.0, r.config.JitterFactor)
}

func TestRetrier_Do_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	var callbacks []int

	result := New(fastConfig(3)).Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("broker unavailable")
		}
		return nil
	}, func(attempt int, err error, next time.Duration) {
		callbacks = append(callbacks, attempt)
	})

	assert.NoError(t, result.Err)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, []int{1, 2}, callbacks)
}

func TestRetrier_Do_MaxRetriesExceeded(t *testing.T) {
	boom := errors.New("boom")
	result := Do(context.Background(), fastConfig(2), func(ctx context.Context) error {
		return boom
	})

	assert.ErrorIs(t, result.Err, ErrMaxRetriesExceeded)
	assert.ErrorIs(t, result.LastError, boom)
	assert.Equal(t, 3, result.Attempts)
}

func TestRetrier_Do_PermanentError(t *testing.T) {
	bad := errors.New("invalid payload")
	result := Do(context.Background(), fastConfig(5), func(ctx context.Context) error {
		return Permanent(bad)
	})

	assert.ErrorIs(t, result.Err, bad)
	assert.Equal(t, 1, result.Attempts)
}

func TestRetrier_Do_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Do(ctx, fastConfig(5), func(ctx context.Context) error {
		return nil
	})

	assert.ErrorIs(t, result.Err, ErrContextCanceled)
}

func TestRetrier_IntervalCapped(t *testing.T) {
	r := New(&Config{InitialInterval: time.Second, MaxInterval: 3 * time.Second, Multiplier: 2})

	assert.Equal(t, time.Second, r.interval(0))
	assert.Equal(t, 2*time.Second, r.interval(1))
	assert.Equal(t, 3*time.Second, r.interval(5))
}

func TestPermanent_Nil(t *testing.T) {
	assert.Nil(t, Permanent(nil))
}
