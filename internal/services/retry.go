package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/metrics"
)

// RetryConfig bounds how a caller retries after a version conflict.
type RetryConfig struct {
	MaxAttempts int           // default: 3
	BaseDelay   time.Duration // default: 25ms
	MaxDelay    time.Duration // default: 500ms
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   25 * time.Millisecond,
		MaxDelay:    500 * time.Millisecond,
	}
}

func (c RetryConfig) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(c.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}

// RetryOnConflict runs fn until it succeeds, fails with anything other than
// a version conflict, or runs out of attempts. Each attempt must reload the
// task, which every engine operation already does.
func RetryOnConflict(ctx context.Context, cfg RetryConfig, m *metrics.Workflow, op string, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultRetryConfig()
	}
	var err error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, ErrVersionConflict) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}
		m.Retry(op)
		timer := time.NewTimer(cfg.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}
