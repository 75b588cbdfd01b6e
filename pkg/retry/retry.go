package retry

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts uint
	Delay       time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	// Fixed spaces attempts evenly instead of backing off.
	Fixed bool
	// OnRetry is invoked after each failed attempt, before the delay.
	OnRetry func(n uint, err error)
}

// DefaultConfig returns default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		Delay:       1 * time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
	}
}

// FixedConfig returns a fixed-spacing configuration, used by the code
// retrieval loop.
func FixedConfig(attempts uint, delay time.Duration) Config {
	return Config{
		MaxAttempts: attempts,
		Delay:       delay,
		Fixed:       true,
	}
}

// Do executes a function with retry per the configuration.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	delayType := retry.BackOffDelay
	if cfg.Fixed {
		delayType = retry.FixedDelay
	}
	onRetry := cfg.OnRetry
	if onRetry == nil {
		onRetry = func(uint, error) {}
	}

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(cfg.MaxAttempts),
		retry.Delay(cfg.Delay),
		retry.DelayType(delayType),
		retry.LastErrorOnly(true),
		retry.OnRetry(onRetry),
	}
	if !cfg.Fixed {
		opts = append(opts, retry.MaxDelay(cfg.MaxDelay))
	}

	return retry.Do(fn, opts...)
}

// DoWithResult executes a function with retry and returns a result.
func DoWithResult[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func() error {
		var err error
		result, err = fn()
		return err
	})
	return result, err
}

// Unrecoverable marks an error as terminal so Do stops immediately.
func Unrecoverable(err error) error {
	return retry.Unrecoverable(err)
}
