package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/apperrors"
)

func fastConfig() *Config {
	return &Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return apperrors.ErrNetwork
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("invalid payload")
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return apperrors.ErrRateLimited
	})
	assert.ErrorIs(t, err, apperrors.ErrRateLimited)
	assert.Equal(t, 4, calls) // initial + 3 retries
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{MaxRetries: 5, InitialDelay: time.Hour, Multiplier: 2.0}

	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, cfg, func() error { return apperrors.ErrNetwork })
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), fastConfig(), func() (string, error) {
		calls++
		if calls == 1 {
			return "", fmt.Errorf("fetch: %w", apperrors.ErrRateLimited)
		}
		return "merged", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "merged", got)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(apperrors.ErrNetwork))
	assert.True(t, IsRetryable(fmt.Errorf("sync: %w", apperrors.ErrRateLimited)))
	assert.True(t, IsRetryable(errors.New("dial tcp: i/o timeout")))
	assert.True(t, IsRetryable(errors.New("remote returned 503")))
	assert.False(t, IsRetryable(apperrors.ErrValidation))
	assert.False(t, IsRetryable(nil))
}
