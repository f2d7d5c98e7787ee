package resilience

import "time"

// Config tunes the executor. Zero values fall back to defaults during
// normalize, so callers set only what they care about.
type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	// RateLimitPerSecond throttles calls per operation before they reach
	// the backend. Zero disables throttling.
	RateLimitPerSecond float64
	RateLimitBurst     int

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     400 * time.Millisecond,
		RetryMultiplier:     2.0,

		RateLimitPerSecond: 0,
		RateLimitBurst:     1,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()

	c.RetryMaxAttempts = defaultIfZero(c.RetryMaxAttempts, def.RetryMaxAttempts)
	c.RetryInitialBackoff = defaultIfZero(c.RetryInitialBackoff, def.RetryInitialBackoff)
	c.RetryMaxBackoff = defaultIfZero(c.RetryMaxBackoff, def.RetryMaxBackoff)
	if c.RetryMaxBackoff < c.RetryInitialBackoff {
		c.RetryMaxBackoff = c.RetryInitialBackoff
	}
	if c.RetryMultiplier < 1.0 {
		c.RetryMultiplier = def.RetryMultiplier
	}

	if c.RateLimitPerSecond < 0 {
		c.RateLimitPerSecond = 0
	}
	c.RateLimitBurst = defaultIfZero(c.RateLimitBurst, def.RateLimitBurst)

	c.BreakerMinRequests = defaultIfZero(c.BreakerMinRequests, def.BreakerMinRequests)
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		c.BreakerFailureRatio = def.BreakerFailureRatio
	}
	c.BreakerOpenTimeout = defaultIfZero(c.BreakerOpenTimeout, def.BreakerOpenTimeout)
	c.BreakerHalfOpenMaxCalls = defaultIfZero(c.BreakerHalfOpenMaxCalls, def.BreakerHalfOpenMaxCalls)

	return c
}

func defaultIfZero[T int | uint32 | time.Duration](v, fallback T) T {
	if v <= 0 {
		return fallback
	}
	return v
}
