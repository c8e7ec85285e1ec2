package persuader

import (
	"errors"
	"math/rand/v2"
	"time"
)

// RetryConfig tunes retry classification pacing. The concrete constants are
// configuration, not contract.
type RetryConfig struct {
	// InitialInterval is the delay before the first retry.
	InitialInterval time.Duration

	// Multiplier grows the delay each retry. Values below 1 are treated
	// as 1.
	Multiplier float64

	// MaxInterval caps the delay.
	MaxInterval time.Duration

	// UseJitter randomizes each delay between 0 and the computed backoff
	// (full jitter).
	UseJitter bool
}

// DefaultRetryConfig returns the default pacing: 1s initial, doubling, 30s
// cap, no jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval: time.Second,
		Multiplier:      2.0,
		MaxInterval:     30 * time.Second,
	}
}

// RetryController classifies failures as retryable or fatal and decides
// whether another attempt is permitted. Classification is a lookup on the
// ErrorKind tag attached where the failure was raised.
type RetryController struct {
	config RetryConfig
}

// NewRetryController creates a controller with the given pacing config.
func NewRetryController(config RetryConfig) *RetryController {
	return &RetryController{config: config}
}

// ShouldRetry reports whether another attempt is permitted after the given
// 0-based attempt index failed with err. Fatal kinds never retry,
// regardless of remaining budget. A nil err means a validation failure,
// which is always retryable within budget.
func (c *RetryController) ShouldRetry(attemptIndex, maxAttempts int, err error) bool {
	if attemptIndex+1 >= maxAttempts {
		return false
	}
	if err == nil {
		return true
	}

	kind := Classify(err)
	if kind.Fatal() {
		return false
	}
	return kind.Retryable()
}

// Backoff returns the pacing delay before the given 1-based retry. The
// delay grows exponentially up to the cap; with jitter enabled it is drawn
// uniformly from [0, backoff]. Actual sleeping is the caller's concern and
// may be skipped in tests.
func (c *RetryController) Backoff(retry int) time.Duration {
	if retry <= 0 {
		return 0
	}

	backoff := c.config.InitialInterval
	if backoff <= 0 {
		backoff = time.Millisecond
	}

	multiplier := c.config.Multiplier
	if multiplier < 1.0 {
		multiplier = 1.0
	}

	for i := 1; i < retry; i++ {
		backoff = time.Duration(float64(backoff) * multiplier)
		if c.config.MaxInterval > 0 && backoff > c.config.MaxInterval {
			backoff = c.config.MaxInterval
			break
		}
	}

	if c.config.UseJitter {
		// Full jitter: uniform in [0, backoff].
		jitterMs := rand.Int64N(backoff.Milliseconds() + 1)
		return time.Duration(jitterMs) * time.Millisecond
	}
	return backoff
}

// PacingDelay returns the delay to apply before retrying after err,
// honoring a provider-specified retry-after hint when present.
func (c *RetryController) PacingDelay(retry int, err error) time.Duration {
	if after := retryAfterHint(err); after > 0 {
		return after
	}
	return c.Backoff(retry)
}

func retryAfterHint(err error) time.Duration {
	var provErr *ProviderError
	if errors.As(err, &provErr) && provErr.RetryAfter > 0 {
		return provErr.RetryAfter
	}
	return 0
}
