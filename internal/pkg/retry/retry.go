package retry

import (
	"context"
	"errors"
	"time"

	"github.com/ignite/forms-api/internal/pkg/logger"
)

// Classifier reports whether an error is permanent and should abort
// the retry loop immediately.
type Classifier func(error) bool

// Config controls a retry loop. The zero value of MaxAttempts means the
// default of 3; a nil Classifier means DefaultNonRetryable.
type Config struct {
	MaxAttempts    int
	Backoff        Backoff
	IsNonRetryable Classifier
}

// DefaultConfig returns the standard retry policy: 3 attempts with the
// default backoff schedule and status-code classification.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		Backoff:        DefaultBackoff(),
		IsNonRetryable: DefaultNonRetryable,
	}
}

// statusCoder is the typed error-kind tag adapters attach at gateway
// boundaries (see submission.StatusError).
type statusCoder interface {
	StatusCode() int
}

// DefaultNonRetryable treats errors carrying an HTTP-like status code in
// {400, 401, 403, 404} as permanent. Everything else — transport errors,
// timeouts, 5xx, unclassified failures — is retryable.
func DefaultNonRetryable(err error) bool {
	var sc statusCoder
	if errors.As(err, &sc) {
		switch sc.StatusCode() {
		case 400, 401, 403, 404:
			return true
		}
	}
	return false
}

// Do executes op up to cfg.MaxAttempts times. On success the value is
// returned immediately. A non-retryable failure aborts at once; a
// retryable one waits per the backoff schedule (honoring ctx) and tries
// again. After the final attempt the last error is propagated as-is.
//
// name labels the operation in log output only.
func Do[T any](ctx context.Context, name string, cfg Config, op func(context.Context) (T, error)) (T, error) {
	var zero T

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	classify := cfg.IsNonRetryable
	if classify == nil {
		classify = DefaultNonRetryable
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		val, err := op(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("operation succeeded after retry", "op", name, "attempt", attempt)
			}
			return val, nil
		}
		lastErr = err

		if classify(err) {
			logger.Warn("non-retryable error, aborting", "op", name, "attempt", attempt, "error", err.Error())
			return zero, err
		}

		if attempt == maxAttempts {
			break
		}

		delay := cfg.Backoff.Delay(attempt)
		logger.Warn("retryable failure, backing off", "op", name, "attempt", attempt, "next_delay", delay.String(), "error", err.Error())

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		}
	}

	logger.Error("retries exhausted", "op", name, "attempts", maxAttempts, "error", lastErr.Error())
	return zero, lastErr
}
