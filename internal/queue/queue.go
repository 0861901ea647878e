// Package queue provides the buffers that sit between the physics step and
// the telemetry writers.
package queue

import (
	"sync"
)

// Queue is a generic thread-safe FIFO. A bounded queue drops the oldest
// items once it is full, so a stalled writer never grows memory without
// limit.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	limit   int
	dropped uint64
}

// New creates an unbounded queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{items: make([]T, 0)}
}

// NewBounded creates a queue holding at most limit items. A limit of zero
// or less means unbounded.
func NewBounded[T any](limit int) *Queue[T] {
	q := New[T]()
	if limit > 0 {
		q.limit = limit
	}
	return q
}

// Push appends items and returns how many old items were dropped to make
// room.
func (q *Queue[T]) Push(items ...T) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
	if q.limit == 0 || len(q.items) <= q.limit {
		return 0
	}
	over := len(q.items) - q.limit
	clear(q.items[:over])
	q.items = q.items[over:]
	q.dropped += uint64(over)
	return over
}

// Pop removes and returns the first item. ok is false on an empty queue.
func (q *Queue[T]) Pop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return item, false
	}
	item = q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// Empty returns true if the queue has no items.
func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped returns how many items overflow has discarded so far.
func (q *Queue[T]) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Clear removes all items.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = make([]T, 0, cap(q.items))
}

// Drain removes and returns up to max items from the front. A max of zero
// or less drains everything.
func (q *Queue[T]) Drain(max int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	if max > 0 && max < n {
		n = max
	}
	if n == 0 {
		return nil
	}
	out := make([]T, n)
	copy(out, q.items[:n])
	if n == len(q.items) {
		q.items = make([]T, 0, cap(q.items))
	} else {
		clear(q.items[:n])
		q.items = q.items[n:]
	}
	return out
}

// GetAndEmpty returns all items and clears the queue.
func (q *Queue[T]) GetAndEmpty() []T {
	return q.Drain(0)
}
