package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryOnConflict(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	t.Run("succeeds after conflicts", func(t *testing.T) {
		calls := 0
		err := RetryOnConflict(context.Background(), cfg, nil, "op", func() error {
			calls++
			if calls < 3 {
				return versionConflict("op", "t")
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Fatalf("err=%v calls=%d", err, calls)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := RetryOnConflict(context.Background(), cfg, nil, "op", func() error {
			calls++
			return versionConflict("op", "t")
		})
		if !errors.Is(err, ErrVersionConflict) || calls != 3 {
			t.Fatalf("err=%v calls=%d", err, calls)
		}
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		calls := 0
		err := RetryOnConflict(context.Background(), cfg, nil, "op", func() error {
			calls++
			return invalidTransitionf("op", "t", "accepted", "nope")
		})
		if !errors.Is(err, ErrInvalidTransition) || calls != 1 {
			t.Fatalf("err=%v calls=%d", err, calls)
		}
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		err := RetryOnConflict(ctx, RetryConfig{MaxAttempts: 5, BaseDelay: time.Hour}, nil, "op", func() error {
			calls++
			return versionConflict("op", "t")
		})
		if !errors.Is(err, ErrVersionConflict) || calls != 1 {
			t.Fatalf("err=%v calls=%d", err, calls)
		}
	})
}

func TestRetryBackoffIsCapped(t *testing.T) {
	cfg := DefaultRetryConfig()
	if got := cfg.backoff(1); got != 25*time.Millisecond {
		t.Fatalf("first backoff = %v", got)
	}
	if got := cfg.backoff(10); got != cfg.MaxDelay {
		t.Fatalf("backoff not capped: %v", got)
	}
}
