// Package retry provides exponential-backoff retry for opening the
// transport at startup, in the shape of this codebase's other
// retry helpers: a Config, a Do(ctx, operation, config) entry point.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Config controls backoff shape.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// DefaultConfig is the startup transport-open policy: a handful of
// attempts with capped exponential backoff.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  5,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Operation is a unit of work that may fail and be retried.
type Operation func(context.Context) error

var ErrMaxAttemptsReached = errors.New("maximum retry attempts reached")

// Do runs operation until it succeeds, ctx is canceled, or MaxAttempts is hit.
func Do(ctx context.Context, operation Operation, cfg Config) error {
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt >= cfg.MaxAttempts {
			return errorsJoin(ErrMaxAttemptsReached, lastErr)
		}

		delay := calculateDelay(attempt, cfg)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

func calculateDelay(attempt int, cfg Config) time.Duration {
	delay := time.Duration(float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1)))
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	if cfg.Jitter {
		delay += time.Duration(rand.Float64() * float64(delay) * 0.1)
	}
	return delay
}

func errorsJoin(a, b error) error {
	return errors.New(a.Error() + ": " + b.Error())
}
