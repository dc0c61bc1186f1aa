package mvi

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/fieldmap/internal/relay"
)

// Lifecycle is the state of a Feature: Created → Active → Disposed.
type Lifecycle int32

const (
	Created Lifecycle = iota
	Active
	Disposed
)

func (l Lifecycle) String() string {
	switch l {
	case Created:
		return "created"
	case Active:
		return "active"
	case Disposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Option configures a Feature.
type Option func(*options)

type options struct {
	name     string
	logger   *slog.Logger
	observer Observer
}

// WithName sets the name used in logs and errors.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver attaches an Observer, e.g. for metrics.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// Feature is the state-machine engine owning one state cell.
//
// Thread-safety model:
//   - Accept(), State(), States(), News(), Dispose(): safe from any goroutine
//   - the state cell is written only by the fold loop goroutine
//   - Dispose() must not be called from inside an element
//
// INVARIANTS:
//   - exactly one fold is in progress at a time, and each starts from the
//     result of the previous one
//   - every state subscriber observes the same sequence of states
//   - nothing is folded or published after Dispose() begins
type Feature[W, A, E, S, N any] struct {
	name     string
	elements Elements[W, A, E, S, N]
	logger   *slog.Logger
	observer Observer

	queue  *eventQueue[event[A, E]]
	clock  *Clock
	state  S // owned by the fold loop
	states *relay.Behavior[S]
	news   *relay.Publish[N]

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex // serializes lifecycle transitions
	lifecycle atomic.Int32
	loopDone  chan struct{}
	workers   sync.WaitGroup // bootstrap pump and effect forwarders
}

// New creates a Feature in the Created state holding initial.
//
// Panics if a required element is missing; that is a wiring bug, not a
// runtime condition.
func New[W, A, E, S, N any](initial S, elements Elements[W, A, E, S, N], opts ...Option) *Feature[W, A, E, S, N] {
	if elements.WishToAction == nil || elements.Actor == nil || elements.Reducer == nil {
		panic("mvi: WishToAction, Actor and Reducer are required")
	}

	o := options{name: "feature"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.observer == nil {
		o.observer = NopObserver{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Feature[W, A, E, S, N]{
		name:     o.name,
		elements: elements,
		logger:   o.logger,
		observer: o.observer,
		queue:    newEventQueue[event[A, E]](),
		clock:    NewClock(),
		state:    initial,
		states:   relay.NewBehavior(initial),
		news:     relay.NewPublish[N](),
		ctx:      ctx,
		cancel:   cancel,
		loopDone: make(chan struct{}),
	}
}

// Start activates the feature: it launches the fold loop and invokes the
// bootstrapper exactly once. Wishes accepted before Start are processed in
// order. Idempotent; a no-op once disposed.
func (f *Feature[W, A, E, S, N]) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if Lifecycle(f.lifecycle.Load()) != Created {
		return
	}
	f.lifecycle.Store(int32(Active))

	f.logger.Debug("feature starting", "feature", f.name)
	go f.run()

	if f.elements.Bootstrapper != nil {
		actions := f.elements.Bootstrapper(f.ctx)
		if actions != nil {
			f.workers.Add(1)
			go f.pumpBootstrap(actions)
		}
	}

	f.logger.Info("feature started", "feature", f.name)
}

// Accept wraps wish into an action and queues it.
// Safe from any goroutine. Dropped once the feature is disposed.
func (f *Feature[W, A, E, S, N]) Accept(wish W) {
	if f.Lifecycle() == Disposed {
		f.logger.Debug("wish dropped: feature disposed", "feature", f.name)
		return
	}

	action := f.elements.WishToAction(wish)
	if !f.queue.Enqueue(event[A, E]{kind: eventAction, source: SourceWish, action: action}) {
		f.logger.Debug("wish dropped: queue closed", "feature", f.name)
	}
}

// State returns the current state snapshot.
func (f *Feature[W, A, E, S, N]) State() S {
	return f.states.Value()
}

// Subscribe returns a state subscription that first receives the current
// state, then every later one. It makes a Feature a relay.Source of states.
func (f *Feature[W, A, E, S, N]) Subscribe() *relay.Subscription[S] {
	return f.states.Subscribe()
}

// States is an alias of Subscribe.
func (f *Feature[W, A, E, S, N]) States() *relay.Subscription[S] {
	return f.states.Subscribe()
}

// News returns a subscription to one-shot notifications published from now on.
func (f *Feature[W, A, E, S, N]) News() *relay.Subscription[N] {
	return f.news.Subscribe()
}

// NewsSource exposes the news relay as a relay.Source for binding.
func (f *Feature[W, A, E, S, N]) NewsSource() relay.Source[N] {
	return f.news
}

// Lifecycle returns the current lifecycle state.
func (f *Feature[W, A, E, S, N]) Lifecycle() Lifecycle {
	return Lifecycle(f.lifecycle.Load())
}

// Version returns the number of completed folds.
func (f *Feature[W, A, E, S, N]) Version() int64 {
	return f.clock.Current()
}

// Name returns the feature's name.
func (f *Feature[W, A, E, S, N]) Name() string {
	return f.name
}

// Dispose stops the feature: the bootstrapper and in-flight actors are
// cancelled, effects arriving later are dropped, and both relays complete.
// Idempotent.
func (f *Feature[W, A, E, S, N]) Dispose() {
	f.mu.Lock()
	previous := Lifecycle(f.lifecycle.Load())
	if previous == Disposed {
		f.mu.Unlock()
		return
	}
	f.lifecycle.Store(int32(Disposed))
	f.mu.Unlock()

	f.cancel()
	f.queue.Close()

	if previous == Active {
		<-f.loopDone
	}
	f.workers.Wait()

	dropped := 0
	for _, ev := range f.queue.Drain() {
		if ev.kind == eventEffect {
			f.observer.EffectDropped()
			dropped++
		}
	}

	f.states.Close()
	f.news.Close()

	f.logger.Info("feature disposed",
		"feature", f.name,
		"version", f.clock.Current(),
		"dropped_effects", dropped,
	)
}

// run is the single fold loop.
// CRITICAL: the only goroutine that reads or writes f.state.
func (f *Feature[W, A, E, S, N]) run() {
	defer close(f.loopDone)

	for {
		if f.ctx.Err() != nil {
			return
		}

		ev, ok := f.queue.TryDequeue()
		if ok {
			f.process(ev)
			continue
		}

		select {
		case <-f.ctx.Done():
			return
		case <-f.queue.Wait():
		}
	}
}

func (f *Feature[W, A, E, S, N]) process(ev event[A, E]) {
	switch ev.kind {
	case eventAction:
		f.observer.ActionReceived(ev.source)
		f.dispatch(ev.action)
	case eventEffect:
		f.fold(ev.action, ev.effect)
	default:
		panic(Unhandled("event", ev.kind))
	}
}

// dispatch invokes the actor with the current state. Effects already
// available are folded inline; the rest are forwarded asynchronously.
func (f *Feature[W, A, E, S, N]) dispatch(action A) {
	effects := f.elements.Actor(f.ctx, f.state, action)
	if effects == nil {
		return
	}

	for {
		select {
		case e, ok := <-effects:
			if !ok {
				return
			}
			f.fold(action, e)
		default:
			f.workers.Add(1)
			go f.forward(action, effects)
			return
		}
	}
}

func (f *Feature[W, A, E, S, N]) forward(action A, effects <-chan E) {
	defer f.workers.Done()

	for {
		select {
		case <-f.ctx.Done():
			return
		case e, ok := <-effects:
			if !ok {
				return
			}
			if !f.queue.Enqueue(event[A, E]{kind: eventEffect, action: action, effect: e}) {
				f.observer.EffectDropped()
				f.logger.Debug("effect dropped: feature disposed", "feature", f.name)
			}
		}
	}
}

func (f *Feature[W, A, E, S, N]) pumpBootstrap(actions <-chan A) {
	defer f.workers.Done()

	for {
		select {
		case <-f.ctx.Done():
			return
		case a, ok := <-actions:
			if !ok {
				f.logger.Debug("bootstrap stream ended", "feature", f.name)
				return
			}
			f.queue.Enqueue(event[A, E]{kind: eventAction, source: SourceBootstrap, action: a})
		}
	}
}

// fold reduces one effect and publishes the result.
// CRITICAL: called only from the fold loop.
func (f *Feature[W, A, E, S, N]) fold(action A, effect E) {
	if f.ctx.Err() != nil {
		f.observer.EffectDropped()
		return
	}

	next := f.elements.Reducer(f.state, effect)
	f.state = next
	version := f.clock.Next()
	f.states.Publish(next)
	f.observer.EffectFolded()

	f.logger.Debug("effect folded", "feature", f.name, "version", version)

	if f.elements.NewsPublisher == nil {
		return
	}
	if news, ok := f.elements.NewsPublisher(action, effect, next); ok {
		f.news.Publish(news)
		f.observer.NewsPublished()
	}
}
