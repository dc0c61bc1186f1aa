package mvi

import "sync"

// eventKind distinguishes between queued event kinds.
type eventKind int

const (
	// eventAction is an action waiting to be handed to the actor.
	eventAction eventKind = iota + 1
	// eventEffect is an actor effect waiting to be folded.
	eventEffect
)

// event wraps actions and effects for the fold loop.
// For effects, action is the action whose actor invocation produced it.
type event[A, E any] struct {
	kind   eventKind
	source ActionSource
	action A
	effect E
}

// eventQueue is a thread-safe FIFO queue.
//
// The queue is unbounded so producers (views, the bootstrapper, actor
// forwarders) never block on the fold loop.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the fold loop.
type eventQueue[T any] struct {
	mu     sync.Mutex
	events []T
	closed bool
	signal chan struct{} // Signals event availability (buffered, size 1)
}

// newEventQueue creates an empty event queue.
func newEventQueue[T any]() *eventQueue[T] {
	return &eventQueue[T]{
		events: make([]T, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *eventQueue[T]) Enqueue(e T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// Non-blocking: the buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns false if the queue is empty.
func (q *eventQueue[T]) TryDequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.events) == 0 {
		return zero, false
	}

	e := q.events[0]

	// Nil out the slot so the backing array does not pin the event's payload.
	q.events[0] = zero

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Drain removes and returns every queued event.
func (q *eventQueue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	rest := q.events
	q.events = nil
	return rest
}

// Wait returns a channel that signals when events may be available.
// The channel is closed once the queue is closed.
func (q *eventQueue[T]) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Closed reports whether Close has been called.
func (q *eventQueue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close signals that no more events will be enqueued.
// Wakes any waiter by closing the signal channel.
func (q *eventQueue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
