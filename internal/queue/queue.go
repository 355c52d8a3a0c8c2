// Package queue provides the FIFO used to hand data between the UDP
// workers and the rest of the application.
package queue

import "sync"

// Queue is an unbounded, mutex guarded FIFO. Enqueue and Dequeue never
// block beyond the critical section. Consumers that prefer to sleep until
// data arrives select on Ready.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	head  int
	name  string
	ready chan struct{}
}

// New creates an empty queue. The name is only used for debugging.
func New[T any](name string) *Queue[T] {
	return &Queue[T]{
		name:  name,
		ready: make(chan struct{}, 1),
	}
}

// Enqueue appends item to the tail
func (q *Queue[T]) Enqueue(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	// Wake one waiting consumer; a pending signal already covers this item
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Dequeue removes the head item. ok is false when the queue is empty.
func (q *Queue[T]) Dequeue() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.items) {
		return item, false
	}

	item = q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head++

	// Reclaim the consumed prefix once it dominates the backing array
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}

	return item, true
}

// Count returns the number of queued items
func (q *Queue[T]) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Clear drops every queued item
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	clear(q.items)
	q.items = q.items[:0]
	q.head = 0
}

// Ready is signalled after an Enqueue. A signal may be stale when another
// consumer got to the item first, so receivers must still check Dequeue.
func (q *Queue[T]) Ready() <-chan struct{} {
	return q.ready
}

// Name returns the queue name
func (q *Queue[T]) Name() string {
	return q.name
}
