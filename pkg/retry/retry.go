package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

var (
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrContextCanceled    = errors.New("context canceled during retry")
)

// Config contains retry configuration
type Config struct {
	// MaxRetries is the maximum number of retry attempts (0 = just the initial attempt)
	MaxRetries int
	// InitialInterval is the initial backoff interval
	InitialInterval time.Duration
	// MaxInterval caps the backoff interval
	MaxInterval time.Duration
	// Multiplier is applied to the interval after each retry
	Multiplier float64
	// JitterFactor (0-1) randomizes the interval by ±factor
	JitterFactor float64
}

// DefaultConfig returns exponential backoff: 1s, 2s, 4s, capped at 10s
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      3,
		InitialInterval: 1 * time.Second,
		MaxInterval:     10 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// Operation is the function to be retried
type Operation func(ctx context.Context) error

// PermanentError wraps an error that should not be retried
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks an error as not retryable
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Do executes op, retrying transient failures with exponential backoff.
// It returns the last attempt's error wrapped under ErrMaxRetriesExceeded
// when retries are exhausted.
func Do(ctx context.Context, cfg *Config, op Operation) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = time.Second
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 10 * time.Second
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return ErrContextCanceled
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var permErr *PermanentError
		if errors.As(err, &permErr) {
			return permErr.Err
		}

		if attempt == cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ErrContextCanceled
		case <-time.After(interval(cfg, attempt)):
		}
	}

	return errors.Join(ErrMaxRetriesExceeded, lastErr)
}

func interval(cfg *Config, attempt int) time.Duration {
	d := float64(cfg.InitialInterval) * math.Pow(cfg.Multiplier, float64(attempt))

	if cfg.JitterFactor > 0 {
		jitter := d * cfg.JitterFactor
		d += (rand.Float64()*2 - 1) * jitter
	}

	if d > float64(cfg.MaxInterval) {
		d = float64(cfg.MaxInterval)
	}
	if d < 0 {
		d = float64(cfg.InitialInterval)
	}

	return time.Duration(d)
}
