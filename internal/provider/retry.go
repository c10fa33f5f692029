package provider

import (
	"context"
	"errors"
	"time"

	"github.com/alphatic/alphatic/internal/core"
	"go.uber.org/zap"
)

// Retrying wraps a Provider with bounded retry and doubling backoff. Only
// transient failures (unreachable upstream, malformed payloads) are retried;
// a valid-but-empty response is surfaced immediately because retrying cannot
// conjure data that does not exist.
type Retrying struct {
	inner       Provider
	maxAttempts int
	backoffBase time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	onRetry     func(attempt int, err error)
	logger      *zap.Logger
}

// RetryOption configures a Retrying provider.
type RetryOption func(*Retrying)

// WithSleeper replaces the backoff sleep, letting tests observe delays
// without waiting for them.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(r *Retrying) { r.sleep = sleep }
}

// WithRetryHook installs a callback invoked before each retry attempt.
func WithRetryHook(hook func(attempt int, err error)) RetryOption {
	return func(r *Retrying) { r.onRetry = hook }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) RetryOption {
	return func(r *Retrying) { r.logger = logger }
}

// NewRetrying creates a retrying provider. maxAttempts counts the first try;
// backoff delays double from backoffBase between attempts (1s, 2s, 4s with
// the defaults).
func NewRetrying(inner Provider, maxAttempts int, backoffBase time.Duration, opts ...RetryOption) *Retrying {
	r := &Retrying{
		inner:       inner,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		sleep:       sleepCtx,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.maxAttempts < 1 {
		r.maxAttempts = 1
	}
	return r
}

func (r *Retrying) Name() string { return r.inner.Name() }

// FetchTable delegates to the wrapped provider, retrying transient failures
// up to the attempt bound. The final error always reports how many attempts
// were made and the last observed failure, never an unqualified error.
func (r *Retrying) FetchTable(ctx context.Context, tickers []string, start, end time.Time) (core.PriceTable, error) {
	var lastErr error
	delay := r.backoffBase

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		table, err := r.inner.FetchTable(ctx, tickers, start, end)
		if err == nil {
			return table, nil
		}
		lastErr = err

		if !isTransient(err) {
			return core.PriceTable{}, err
		}

		if attempt == r.maxAttempts {
			break
		}

		r.logger.Warn("fetch attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Strings("tickers", tickers),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		if r.onRetry != nil {
			r.onRetry(attempt, err)
		}

		if err := r.sleep(ctx, delay); err != nil {
			return core.PriceTable{}, core.WrapError(core.ErrFetchFailed, err)
		}
		delay *= 2
	}

	return core.PriceTable{}, core.WrapErrorf(core.ErrFetchFailed,
		"%d attempts for %v [%s..%s], last failure: %v",
		r.maxAttempts, tickers, start.Format("2006-01-02"), end.Format("2006-01-02"), lastErr)
}

// isTransient reports whether an error is worth retrying.
func isTransient(err error) bool {
	return errors.Is(err, core.ErrUnreachable) || errors.Is(err, core.ErrMalformedResponse)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
