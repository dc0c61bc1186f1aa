// Package relay provides the push/subscribe primitives the feature engine and
// views publish through.
//
// Every subscriber owns an unbounded mailbox drained by its own pump goroutine,
// so a publisher never blocks on a slow reader and every reader observes values
// in exactly the order they were published.
//
// Two flavours exist:
//   - Behavior caches the latest value and replays it to each new subscriber
//     before anything published afterwards.
//   - Publish has no cache; a value reaches only the subscribers attached at
//     the instant it is published.
package relay

import "sync"

// Source is anything that can be subscribed to.
type Source[T any] interface {
	Subscribe() *Subscription[T]
}

// hub holds the subscriber set shared by Behavior and Publish.
type hub[T any] struct {
	mu     sync.Mutex
	subs   map[*Subscription[T]]struct{}
	closed bool
}

func (h *hub[T]) attach(s *Subscription[T]) {
	if h.subs == nil {
		h.subs = make(map[*Subscription[T]]struct{})
	}
	h.subs[s] = struct{}{}
	s.detach = func() {
		h.mu.Lock()
		delete(h.subs, s)
		h.mu.Unlock()
	}
}

// broadcast must be called with h.mu held.
func (h *hub[T]) broadcast(v T) {
	for s := range h.subs {
		s.push(v)
	}
}

// shutdown completes every subscription. Must be called with h.mu held.
func (h *hub[T]) shutdown() {
	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		s.complete()
	}
	h.subs = nil
}

// Len returns the number of attached subscribers.
func (h *hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Behavior is a relay with a latest-value cache.
//
// Subscribe and Publish share one critical section, which gives the replay
// invariant: a new subscriber receives the current value first and can never
// receive a value older than one already delivered to any other subscriber.
type Behavior[T any] struct {
	hub[T]
	latest T
}

// NewBehavior creates a Behavior holding initial.
func NewBehavior[T any](initial T) *Behavior[T] {
	return &Behavior[T]{latest: initial}
}

// Subscribe attaches a subscriber and replays the cached value to it.
// On a closed relay the returned subscription is already completed.
func (b *Behavior[T]) Subscribe() *Subscription[T] {
	s := newSubscription[T]()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		s.complete()
		return s
	}
	s.push(b.latest)
	b.attach(s)
	return s
}

// Publish replaces the cached value and delivers it to every subscriber.
// A no-op after Close.
func (b *Behavior[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.latest = v
	b.broadcast(v)
}

// Value returns the cached value.
func (b *Behavior[T]) Value() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest
}

// Close completes all subscriptions. Values already published are still
// delivered before each subscriber's channel closes. Idempotent.
func (b *Behavior[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shutdown()
}

// Publish is a relay without replay.
type Publish[T any] struct {
	hub[T]
}

// NewPublish creates an empty Publish relay.
func NewPublish[T any]() *Publish[T] {
	return &Publish[T]{}
}

// Subscribe attaches a subscriber that receives values published from now on.
func (p *Publish[T]) Subscribe() *Subscription[T] {
	s := newSubscription[T]()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		s.complete()
		return s
	}
	p.attach(s)
	return s
}

// Publish delivers v to the current subscribers. Nothing is buffered for
// subscribers that attach later.
func (p *Publish[T]) Publish(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.broadcast(v)
}

// Close completes all subscriptions. Idempotent.
func (p *Publish[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdown()
}
