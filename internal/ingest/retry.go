package ingest

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"

	"github.com/bdp-project/bdp/internal/bdperr"
)

// WithRetry runs op with exponential backoff (base 5s, up to maxAttempts)
// when it fails with a retryable error kind (NetworkError per spec.md
// §4.4), and returns immediately on any other error. Jitter is applied by
// backoff.NewExponentialBackOff's default RandomizationFactor, matching
// spec.md §5's "retry uses exponential backoff with jitter".
func (c *Coordinator) WithRetry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.RetryBase
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0 // bounded by MaxAttempts via WithMaxRetries instead

	bounded := backoff.WithMaxRetries(bo, uint64(max(c.RetryMax-1, 0)))
	ctxBackoff := backoff.WithContext(bounded, ctx)

	var lastErr error
	err := backoff.Retry(func() error {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if bdperr.KindOf(lastErr) != bdperr.KindNetworkError {
			return backoff.Permanent(lastErr)
		}
		return lastErr
	}, ctxBackoff)

	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return perm.Err
		}
		return lastErr
	}
	return nil
}
