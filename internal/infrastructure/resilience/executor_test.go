package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func retryOnlyConfig(attempts int) Config {
	return Config{
		RetryMaxAttempts:    attempts,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}
}

func classifyAs(retryable, record bool) ErrorClassifier {
	return func(error) ErrorClassification {
		return ErrorClassification{Retryable: retryable, RecordFailure: record}
	}
}

func TestExecuteRetryBehavior(t *testing.T) {
	errBackend := errors.New("backend down")

	tests := []struct {
		name         string
		failUntil    int
		classifier   ErrorClassifier
		wantAttempts int
		wantErr      error
	}{
		{"succeeds after transient failures", 3, classifyAs(true, true), 3, nil},
		{"gives up on permanent failure", 99, classifyAs(false, false), 1, errBackend},
		{"exhausts attempts", 99, classifyAs(true, true), 3, errBackend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := NewExecutor(retryOnlyConfig(3))
			attempts := 0
			err := exec.Execute(context.Background(), "op", func(context.Context) error {
				attempts++
				if attempts < tt.failUntil {
					return errBackend
				}
				return nil
			}, tt.classifier)

			if tt.wantErr == nil && err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Execute() error = %v, want %v", err, tt.wantErr)
			}
			if attempts != tt.wantAttempts {
				t.Fatalf("attempts = %d, want %d", attempts, tt.wantAttempts)
			}
		})
	}
}

func TestExecuteAppliesRateLimitPerOperation(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:   1,
		RateLimitPerSecond: 50,
		RateLimitBurst:     1,
		BreakerEnabled:     false,
	})

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return nil
		}, nil); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	}
	// Burst of 1 at 50/s forces two waits of ~20ms each.
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("expected rate limiting to slow calls, elapsed %v", elapsed)
	}
}

func TestExecuteRateLimitHonorsContextCancellation(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:   1,
		RateLimitPerSecond: 0.001,
		RateLimitBurst:     1,
		BreakerEnabled:     false,
	})

	// Drain the single burst token.
	if err := exec.Execute(context.Background(), "op", func(context.Context) error {
		return nil
	}, nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := exec.Execute(ctx, "op", func(context.Context) error {
		t.Fatalf("operation must not run once the limiter blocks")
		return nil
	}, nil)
	if err == nil {
		t.Fatalf("expected context error from limiter wait")
	}
}

func TestExecuteOpensCircuitAfterRepeatedFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     time.Millisecond,
		RetryMaxBackoff:         time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	})

	errBackend := errors.New("backend down")
	record := classifyAs(false, true)

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errBackend
		}, record)
		if !errors.Is(err, errBackend) {
			t.Fatalf("iteration %d: error = %v, want backend error", i, err)
		}
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatal("open breaker must short-circuit the call")
		return nil
	}, record)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("error = %v, want open-state error", err)
	}
	if !IsCircuitOpen(err) {
		t.Fatal("IsCircuitOpen must recognize the open-state error")
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := Config{RateLimitPerSecond: -5, RetryMultiplier: 0.5}.normalize()
	def := DefaultConfig()

	if cfg.RetryMaxAttempts != def.RetryMaxAttempts {
		t.Errorf("retry attempts = %d", cfg.RetryMaxAttempts)
	}
	if cfg.RateLimitPerSecond != 0 {
		t.Errorf("rate limit = %f, negative must clamp to disabled", cfg.RateLimitPerSecond)
	}
	if cfg.RetryMultiplier != def.RetryMultiplier {
		t.Errorf("multiplier = %f", cfg.RetryMultiplier)
	}
	if cfg.BreakerFailureRatio != def.BreakerFailureRatio {
		t.Errorf("failure ratio = %f", cfg.BreakerFailureRatio)
	}
}
