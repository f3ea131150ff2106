package search

import (
	"context"
	"sync"
	"time"
)

// DebounceWindow is the coalescing window the Open Question decision in
// DESIGN.md settles on, shared by every publish (not kept per entry): a
// publish burst triggers one refresh, not one per publish.
const DebounceWindow = 2 * time.Second

// Refresher coalesces RequestRefresh calls into a single
// REFRESH MATERIALIZED VIEW CONCURRENTLY every DebounceWindow, so a batch
// ingestion of hundreds of files causes one refresh rather than hundreds.
type Refresher struct {
	store interface {
		RefreshSearchProjection(ctx context.Context) error
	}
	onError func(error)

	mu      sync.Mutex
	pending bool
	timer   *time.Timer
}

func NewRefresher(store interface {
	RefreshSearchProjection(ctx context.Context) error
}, onError func(error)) *Refresher {
	if onError == nil {
		onError = func(error) {}
	}
	return &Refresher{store: store, onError: onError}
}

// RequestRefresh schedules a refresh DebounceWindow from now, unless one is
// already pending — repeated calls within the window collapse to the
// first-scheduled timer, not a reset-on-every-call debounce, so a
// continuous publish stream still gets a bounded worst-case staleness.
func (r *Refresher) RequestRefresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending {
		return
	}
	r.pending = true
	r.timer = time.AfterFunc(DebounceWindow, r.fire)
}

func (r *Refresher) fire() {
	r.mu.Lock()
	r.pending = false
	r.mu.Unlock()

	if err := r.store.RefreshSearchProjection(context.Background()); err != nil {
		r.onError(err)
	}
}

// Stop cancels any pending refresh timer, used on shutdown.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.pending = false
}
