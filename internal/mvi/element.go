package mvi

import (
	"context"
	"fmt"
)

// WishToAction wraps an external wish into the feature's action set.
type WishToAction[W, A any] func(wish W) A

// Actor turns an action into a stream of effects. It is the only element
// allowed to perform I/O.
//
// An actor must return promptly: blocking work belongs in a goroutine (see
// Async). The returned channel is closed when the actor has nothing more to
// emit; nil means no effects. ctx is cancelled when the feature is disposed.
// state is a snapshot taken at invocation time and may be stale by the time
// the effects are folded.
type Actor[S, A, E any] func(ctx context.Context, state S, action A) <-chan E

// Reducer folds an effect into the state. It must be pure and total.
type Reducer[S, E any] func(state S, effect E) S

// Bootstrapper produces actions independent of user intent. It is invoked
// exactly once, on Start, and must stop emitting once ctx is cancelled.
type Bootstrapper[A any] func(ctx context.Context) <-chan A

// NewsPublisher derives an optional one-shot notification from a fold.
type NewsPublisher[A, E, S, N any] func(action A, effect E, state S) (N, bool)

// Elements bundles the pieces a Feature is assembled from.
// WishToAction, Actor and Reducer are required.
type Elements[W, A, E, S, N any] struct {
	WishToAction  WishToAction[W, A]
	Actor         Actor[S, A, E]
	Reducer       Reducer[S, E]
	Bootstrapper  Bootstrapper[A]
	NewsPublisher NewsPublisher[A, E, S, N]
}

// Just returns a closed channel already holding effects.
// The feature folds such effects inline, in order.
func Just[E any](effects ...E) <-chan E {
	ch := make(chan E, len(effects))
	for _, e := range effects {
		ch <- e
	}
	close(ch)
	return ch
}

// Empty returns a closed channel with no effects.
func Empty[E any]() <-chan E {
	ch := make(chan E)
	close(ch)
	return ch
}

// Async runs fn on its own goroutine and streams its effects.
//
// A returned error, or a panic inside fn, is translated into the single
// effect onError(err) so collaborator failures never escape the actor.
// Emission stops when ctx is cancelled.
func Async[E any](ctx context.Context, fn func(ctx context.Context) ([]E, error), onError func(error) E) <-chan E {
	out := make(chan E)

	go func() {
		defer close(out)

		effects, err := runGuarded(ctx, fn)
		if err != nil {
			effects = []E{onError(err)}
		}

		for _, e := range effects {
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func runGuarded[E any](ctx context.Context, fn func(ctx context.Context) ([]E, error)) (effects []E, err error) {
	defer func() {
		if r := recover(); r != nil {
			effects = nil
			err = &RuntimeError{
				Code:    ErrCodeActorPanic,
				Message: fmt.Sprintf("actor body panicked: %v", r),
			}
		}
	}()
	return fn(ctx)
}
