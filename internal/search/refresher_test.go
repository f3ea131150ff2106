package search

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	calls atomic.Int64
}

func (s *countingStore) RefreshSearchProjection(ctx context.Context) error {
	s.calls.Add(1)
	return nil
}

func TestRefresherCoalescesBurstIntoOneRefresh(t *testing.T) {
	store := &countingStore{}
	r := NewRefresher(store, nil)

	for i := 0; i < 50; i++ {
		r.RequestRefresh()
	}

	require.Eventually(t, func() bool { return store.calls.Load() == 1 }, DebounceWindow+time.Second, 10*time.Millisecond)
}

func TestRefresherFiresAgainAfterWindowElapses(t *testing.T) {
	store := &countingStore{}
	r := NewRefresher(store, nil)

	r.RequestRefresh()
	require.Eventually(t, func() bool { return store.calls.Load() == 1 }, DebounceWindow+time.Second, 10*time.Millisecond)

	r.RequestRefresh()
	require.Eventually(t, func() bool { return store.calls.Load() == 2 }, DebounceWindow+time.Second, 10*time.Millisecond)
}

func TestRefresherStopCancelsPendingTimer(t *testing.T) {
	store := &countingStore{}
	r := NewRefresher(store, nil)
	r.RequestRefresh()
	r.Stop()

	time.Sleep(DebounceWindow + 200*time.Millisecond)
	assert.Equal(t, int64(0), store.calls.Load())
}

func TestRefresherReportsErrorsViaCallback(t *testing.T) {
	var gotErr error
	store := &erroringStore{}
	r := NewRefresher(store, func(err error) { gotErr = err })

	r.RequestRefresh()
	require.Eventually(t, func() bool { return gotErr != nil }, DebounceWindow+time.Second, 10*time.Millisecond)
	assert.EqualError(t, gotErr, "refresh failed")
}

type erroringStore struct{}

func (erroringStore) RefreshSearchProjection(ctx context.Context) error {
	return assertErr("refresh failed")
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
