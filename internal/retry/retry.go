// Package retry implements bounded retries with jittered exponential backoff.
package retry

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"time"

	"go.uber.org/zap"
)

// Config parameterizes one Retryer instance. The pipeline runs two of
// them: a page-fetch budget and a smaller phone-reveal budget.
type Config struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	BackoffFactor float64
	MaxDelay      time.Duration
}

// ExhaustedError is returned once every attempt has failed. It carries the
// attempt count and wraps the last underlying error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Retryer wraps a fallible operation with bounded retries and backoff.
type Retryer struct {
	cfg    Config
	logger *zap.Logger
}

// New builds a Retryer, normalizing obviously broken configuration.
func New(cfg Config, logger *zap.Logger) *Retryer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 250 * time.Millisecond
	}
	if cfg.BackoffFactor <= 1 {
		cfg.BackoffFactor = 1.5
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retryer{cfg: cfg, logger: logger}
}

// MaxAttempts exposes the configured budget.
func (r *Retryer) MaxAttempts() int { return r.cfg.MaxAttempts }

// Backoff returns the pre-jitter delay before retrying attempt+1.
// The delay grows as base * factor^(attempt-1), clamped to MaxDelay.
func (r *Retryer) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(r.cfg.BaseDelay) * math.Pow(r.cfg.BackoffFactor, float64(attempt-1))
	if delay > float64(r.cfg.MaxDelay) {
		delay = float64(r.cfg.MaxDelay)
	}
	return time.Duration(delay)
}

// Do runs op up to MaxAttempts times, sleeping the jittered backoff between
// attempts. On success the result of the final attempt is returned; on
// exhaustion the last error is surfaced wrapped in an ExhaustedError.
func (r *Retryer) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt < r.cfg.MaxAttempts {
			wait := r.Backoff(attempt) + randomJitter(r.Backoff(attempt)/2)
			r.logger.Warn("operation failed, backing off",
				zap.String("op", name),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", r.cfg.MaxAttempts),
				zap.Duration("wait", wait),
				zap.Error(lastErr),
			)
			if err := sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	return &ExhaustedError{Attempts: r.cfg.MaxAttempts, Err: lastErr}
}

// JitterPauser pauses for a random duration drawn from [Min, Max]. The
// orchestrator applies it before every outbound request, not only on
// retry, to stay under the source site's rate limits.
type JitterPauser struct {
	Min time.Duration
	Max time.Duration
}

// Pause blocks for the jittered duration or until ctx finishes.
func (p JitterPauser) Pause(ctx context.Context, extra time.Duration) {
	min, max := p.Min, p.Max
	if max < min {
		max = min
	}
	delay := min + randomJitter(max-min) + extra
	_ = sleep(ctx, delay)
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	bound := big.NewInt(int64(limit))
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}

func sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
