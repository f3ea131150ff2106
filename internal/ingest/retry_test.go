package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdp-project/bdp/internal/bdperr"
)

func TestWithRetryStopsOnNonNetworkError(t *testing.T) {
	c := NewCoordinator(nil)
	attempts := 0
	err := c.WithRetry(context.Background(), func() error {
		attempts++
		return bdperr.New(bdperr.KindParseError, "bad record")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetryRetriesNetworkErrorUpToMax(t *testing.T) {
	c := NewCoordinator(nil)
	c.RetryBase = 1 // nanosecond-scale for a fast test
	c.RetryMax = 3
	attempts := 0
	err := c.WithRetry(context.Background(), func() error {
		attempts++
		return ErrNetwork
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetrySucceedsAfterTransientFailure(t *testing.T) {
	c := NewCoordinator(nil)
	c.RetryBase = 1
	c.RetryMax = 3
	attempts := 0
	err := c.WithRetry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return ErrNetwork
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}
