package domain

import (
	"context"
	"fmt"
	"sync"
)

// Barrier coordinates a game phase in which a known number of independent
// actors each report a completion event. Reporters never block; the single
// observer receives events in arrival order and the observation channel is
// closed once the expected count has been delivered.
//
// A barrier is consumed once. Reporting more events than expected indicates a
// barrier/player-count mismatch and panics.
type Barrier[T any] struct {
	expected  int
	mu        sync.Mutex
	reported  int
	cancelled bool
	events    chan T
}

// NewBarrier creates a barrier expecting the given number of reports.
func NewBarrier[T any](expected int) *Barrier[T] {
	if expected < 0 {
		panic("barrier: negative expected count")
	}
	b := &Barrier[T]{
		expected: expected,
		events:   make(chan T, expected),
	}
	if expected == 0 {
		close(b.events)
	}
	return b
}

// Expected returns the number of reports the barrier waits for
func (b *Barrier[T]) Expected() int {
	return b.expected
}

// Report records one arrival. It never blocks: the event channel has capacity
// for every expected report. Reports after Cancel are dropped; reports beyond
// the expected count on a live barrier panic.
func (b *Barrier[T]) Report(event T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancelled {
		return
	}
	if b.reported >= b.expected {
		panic(fmt.Sprintf("barrier: report %d exceeds expected count %d", b.reported+1, b.expected))
	}

	b.reported++
	b.events <- event
	if b.reported == b.expected {
		close(b.events)
	}
}

// Observe returns the event stream. Events arrive in report order; the
// channel is closed after the final expected report, or on Cancel.
func (b *Barrier[T]) Observe() <-chan T {
	return b.events
}

// Next blocks until the next event arrives, the barrier is exhausted or
// cancelled (ErrBarrierExhausted), or the context is done.
func (b *Barrier[T]) Next(ctx context.Context) (T, error) {
	var zero T
	select {
	case event, ok := <-b.events:
		if !ok {
			return zero, ErrBarrierExhausted
		}
		return event, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Cancel releases the observer before all reports have arrived: the event
// channel is closed and any late reports are discarded. Used when a game is
// aborted or a phase deadline expires. Cancelling a completed or already
// cancelled barrier is a no-op.
func (b *Barrier[T]) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancelled || b.reported == b.expected {
		return
	}
	b.cancelled = true
	close(b.events)
}
