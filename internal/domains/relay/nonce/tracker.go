// Package nonce keeps the relayer account's next sequence number.
package nonce

import (
	"context"
	"errors"
	"sync"
)

var ErrNoSource = errors.New("nonce tracker has no pending nonce source")

// PendingSource returns the network's pending transaction count for the relayer account.
type PendingSource interface {
	PendingNonce(ctx context.Context) (uint64, error)
}

// Stats counts tracker activity since construction.
type Stats struct {
	Allocations uint64
	Refreshes   uint64
	Queries     uint64
}

// Tracker hands out sequence numbers for submission attempts.
//
// Allocation is optimistic: the cached value is bumped as soon as it is handed
// out. Only the relay queue's consumer allocates, so there is never more than
// one refresh in flight. The mutex exists for concurrent Peek/Stats readers.
type Tracker struct {
	source PendingSource

	mu    sync.Mutex
	next  uint64
	known bool
	stats Stats
}

func NewTracker(source PendingSource) *Tracker {
	return &Tracker{source: source}
}

// Allocate returns the next sequence number, querying the network first if none is cached.
func (t *Tracker) Allocate(ctx context.Context) (uint64, error) {
	t.mu.Lock()
	known := t.known
	t.mu.Unlock()

	if !known {
		if _, err := t.query(ctx); err != nil {
			return 0, err
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.next
	t.next++
	t.stats.Allocations++
	return n, nil
}

// Refresh overwrites the cached value with the network's pending count.
func (t *Tracker) Refresh(ctx context.Context) (uint64, error) {
	t.mu.Lock()
	t.stats.Refreshes++
	t.mu.Unlock()
	return t.query(ctx)
}

// Invalidate drops the cached value; the next Allocate re-queries the network.
func (t *Tracker) Invalidate() {
	t.mu.Lock()
	t.known = false
	t.mu.Unlock()
}

// Peek reports the cached next value without allocating it.
func (t *Tracker) Peek() (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next, t.known
}

func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

func (t *Tracker) query(ctx context.Context) (uint64, error) {
	if t.source == nil {
		return 0, ErrNoSource
	}
	pending, err := t.source.PendingNonce(ctx)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.Queries++
	if err != nil {
		// A failed refresh must not leave a value we already know is stale.
		t.known = false
		return 0, err
	}
	t.next = pending
	t.known = true
	return pending, nil
}
