// Package dispatch hands work from any goroutine to the render thread.
package dispatch

import "sync"

// Queue is a FIFO of actions. Enqueue may be called from any goroutine;
// Drain runs the queued actions on the caller, which is the render thread.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	spare   []func()
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// Enqueue appends fn. A nil fn is ignored.
func (q *Queue) Enqueue(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, fn)
}

// Len returns the number of queued actions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Drain runs every action queued before the call, in enqueue order, and
// returns how many ran. Actions enqueued while draining run on the next
// Drain. A panicking action propagates and drops the rest of the batch.
func (q *Queue) Drain() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = q.spare[:0]
	q.spare = nil
	q.mu.Unlock()

	for i, fn := range batch {
		fn()
		batch[i] = nil
	}

	q.mu.Lock()
	if q.spare == nil {
		q.spare = batch[:0]
	}
	q.mu.Unlock()
	return len(batch)
}
