package index

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/beaconsearch/connector-sdk/internal/core/ports/driven"
	"github.com/beaconsearch/connector-sdk/internal/logger"
)

// retryPolicy bounds retries per network call. Timeouts apply per call,
// never to the run as a whole.
type retryPolicy struct {
	maxAttempts int
	backoffBase time.Duration
	backoffMax  time.Duration
	jitter      time.Duration
}

func defaultRetryPolicy(maxAttempts int) retryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return retryPolicy{
		maxAttempts: maxAttempts,
		backoffBase: 500 * time.Millisecond,
		backoffMax:  30 * time.Second,
		jitter:      100 * time.Millisecond,
	}
}

func (p retryPolicy) backoff() retry.Backoff {
	b := retry.NewExponential(p.backoffBase)
	b = retry.WithMaxDuration(p.backoffMax, b)
	b = retry.WithJitter(p.jitter, b)
	// maxAttempts counts tries, go-retry counts retries after the first.
	return retry.WithMaxRetries(uint64(p.maxAttempts-1), b)
}

// call wraps one API request with rate limiting, the bounded retry
// policy and a metrics observation.
func (c *Client) call(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	start := time.Now()
	attempts := 0

	err := retry.Do(ctx, c.retry.backoff(), func(ctx context.Context) error {
		attempts++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if isRetryable(ctx, err) {
			logger.Warn("retryable indexing api failure", "call", name, "attempt", attempts, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})

	outcome := driven.OutcomeSuccess
	if err != nil {
		outcome = driven.OutcomeError
	}
	c.sink.Observe(driven.Observation{
		Call:     name,
		Duration: time.Since(start),
		Attempts: attempts,
		Outcome:  outcome,
	})
	return err
}

// isRetryable classifies a call failure. Timeouts, connection resets,
// 429 and 5xx are transient; other 4xx and validation failures fail
// immediately. Only expiry of the caller's context stops retrying: the
// HTTP client's per-request timeout surfaces as an error matching
// context.DeadlineExceeded too, so timeouts are classified through the
// net.Error interface rather than the context sentinels.
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return true
		}
		return apiErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	// Unclassified transport errors (resty wraps url.Error) are treated
	// as transient.
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
