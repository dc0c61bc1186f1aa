// Package mvi implements the unidirectional state-machine engine ("Feature").
//
// A Feature turns a stream of wishes and bootstrap actions into one
// authoritative, observable state plus a stream of one-shot news.
//
// ARCHITECTURE:
//
// Single-Consumer Fold Loop:
// Wishes (wrapped into actions), bootstrap actions and actor effects all travel
// through one unbounded FIFO event queue. Exactly one goroutine drains it, so
// the state cell has a single writer and folds are strictly serial.
//
// Event Processing Flow:
//  1. Accept() wraps a wish into an action and enqueues it; the bootstrapper's
//     actions are enqueued as they arrive.
//  2. The loop dequeues an action and invokes the Actor with the current state.
//  3. Effects the actor has ready on return are folded immediately, in order;
//     later effects are forwarded into the queue by one goroutine per invocation.
//  4. Each effect is reduced into a new state, published to the state relay,
//     and offered to the NewsPublisher.
//
// Actors may run concurrently; only folds are serialized. Disposal cancels the
// context handed to the bootstrapper and actors, closes the queue and drops any
// effect that arrives afterwards.
package mvi
