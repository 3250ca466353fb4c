// Package ratelimit throttles outbound remote store calls.
//
// The limiter keeps a time-ordered log of past call timestamps shared by all
// in-flight sync operations. Acquire blocks until a call fits inside the
// rolling window and the minimum burst spacing, then records it. Do wraps a
// call with bounded exponential backoff on rate-limited responses.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/apperrors"
)

// Config defines the outbound call budget.
type Config struct {
	// MaxPerWindow is the maximum calls allowed in any rolling Window.
	MaxPerWindow int
	// Window is the rolling window length.
	Window time.Duration
	// MinSpacing is imposed between calls issued within BurstWindow.
	MinSpacing time.Duration
	// BurstWindow is how far back to look when deciding whether MinSpacing
	// applies.
	BurstWindow time.Duration
	// MaxRetries bounds backoff retries after a rate-limited response.
	MaxRetries int
	// BackoffBase is the initial retry delay, doubled per attempt.
	BackoffBase time.Duration
}

// DefaultConfig matches the remote store's published request budget:
// 6 calls per rolling minute, one call per 10s inside any 5s burst,
// 3 retries starting at 5s.
func DefaultConfig() Config {
	return Config{
		MaxPerWindow: 6,
		Window:       time.Minute,
		MinSpacing:   10 * time.Second,
		BurstWindow:  5 * time.Second,
		MaxRetries:   3,
		BackoffBase:  5 * time.Second,
	}
}

// Limiter throttles outbound calls. Safe for concurrent use.
type Limiter struct {
	cfg    Config
	logger *zap.Logger

	mu  sync.Mutex
	log []time.Time

	// Injectable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a limiter with the given budget.
func New(cfg Config, logger *zap.Logger) *Limiter {
	if cfg.MaxPerWindow <= 0 {
		cfg = DefaultConfig()
	}
	return &Limiter{
		cfg:    cfg,
		logger: logger.Named("ratelimit"),
		now:    time.Now,
		sleep:  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Acquire blocks until it is safe to issue one outbound call, then records
// it. Returns early with the context error on cancellation.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		wait, ok := l.tryReserve()
		if ok {
			return nil
		}
		l.logger.Debug("throttling outbound call", zap.Duration("wait", wait))
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// tryReserve appends a timestamp if the call fits the budget now, otherwise
// returns how long to wait before trying again.
func (l *Limiter) tryReserve() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	// Drop entries older than the rolling window.
	cutoff := now.Add(-l.cfg.Window)
	kept := l.log[:0]
	for _, ts := range l.log {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.log = kept

	// Window capacity: wait for the oldest entry to age out.
	if len(l.log) >= l.cfg.MaxPerWindow {
		wait := l.log[0].Sub(cutoff)
		if wait <= 0 {
			wait = time.Millisecond
		}
		return wait, false
	}

	// Burst spacing: a call within the burst window imposes the minimum gap.
	if len(l.log) > 0 && l.cfg.MinSpacing > 0 {
		last := l.log[len(l.log)-1]
		if now.Sub(last) < l.cfg.BurstWindow {
			if wait := l.cfg.MinSpacing - now.Sub(last); wait > 0 {
				return wait, false
			}
		}
	}

	l.log = append(l.log, now)
	return 0, true
}

// Do acquires a slot and runs fn. When fn reports a rate-limited response,
// the call is resubmitted with exponential backoff (base delay doubled per
// attempt) up to MaxRetries; the final failure is surfaced, never dropped.
// Errors other than rate limiting are returned immediately.
func (l *Limiter) Do(ctx context.Context, fn func() error) error {
	delay := l.cfg.BackoffBase
	var lastErr error

	for attempt := 0; attempt <= l.cfg.MaxRetries; attempt++ {
		if err := l.Acquire(ctx); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !errors.Is(err, apperrors.ErrRateLimited) {
			return err
		}

		if attempt < l.cfg.MaxRetries {
			l.logger.Warn("remote rate limit hit, backing off",
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay))
			if err := l.sleep(ctx, delay); err != nil {
				return err
			}
			delay *= 2
		}
	}

	return lastErr
}

// Pending returns the number of calls currently inside the rolling window.
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.cfg.Window)
	n := 0
	for _, ts := range l.log {
		if ts.After(cutoff) {
			n++
		}
	}
	return n
}
