// Package binder connects relay sources to sinks for the lifetime of a scope.
//
// A Binder owns a set of connections. Each connection is a subscription plus
// a pump goroutine that pushes every value through an optional transform into
// a sink. When the binder's lifecycle ends (or Release is called) every
// connection is closed exactly once.
package binder

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/roach88/fieldmap/internal/relay"
)

// ErrReleased is returned by Bind once the binder has been released.
var ErrReleased = errors.New("binder released")

// Lifecycle signals the end of a binding scope. context.Context satisfies it.
type Lifecycle interface {
	Done() <-chan struct{}
}

// Scope is an explicitly ended Lifecycle.
type Scope struct {
	once sync.Once
	done chan struct{}
}

// NewScope returns an open scope.
func NewScope() *Scope {
	return &Scope{done: make(chan struct{})}
}

// Done is closed when the scope ends.
func (s *Scope) Done() <-chan struct{} {
	return s.done
}

// End closes the scope. Idempotent.
func (s *Scope) End() {
	s.once.Do(func() { close(s.done) })
}

// Option configures a Binder.
type Option func(*Binder)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Binder) {
		b.logger = logger
	}
}

// Binder manages connections tied to one lifecycle.
type Binder struct {
	logger *slog.Logger

	mu       sync.Mutex
	conns    map[int]closer
	nextID   int
	released bool

	pumps sync.WaitGroup
	stop  chan struct{}
}

type closer interface {
	Close()
}

// New creates a Binder. If lc is non-nil the binder releases itself when
// lc.Done() fires.
func New(lc Lifecycle, opts ...Option) *Binder {
	b := &Binder{
		conns: make(map[int]closer),
		stop:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}

	if lc != nil {
		go func() {
			select {
			case <-lc.Done():
				b.Release()
			case <-b.stop:
			}
		}()
	}
	return b
}

// Bind subscribes to src and feeds each value through transform into sink on
// a dedicated goroutine. Values for which transform reports false are
// dropped. sink is never called concurrently for one connection.
func Bind[T, R any](b *Binder, src relay.Source[T], transform func(T) (R, bool), sink func(R)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return ErrReleased
	}

	sub := src.Subscribe()
	id := b.nextID
	b.nextID++
	b.conns[id] = sub

	b.pumps.Add(1)
	go func() {
		defer b.pumps.Done()
		defer b.forget(id)

		for v := range sub.C() {
			out, ok := transform(v)
			if !ok {
				continue
			}
			sink(out)
		}
	}()

	return nil
}

// Connect binds src directly to sink.
func Connect[T any](b *Binder, src relay.Source[T], sink func(T)) error {
	return Bind(b, src, func(v T) (T, bool) { return v, true }, sink)
}

// Len returns the number of live connections.
func (b *Binder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}

// Released reports whether Release has run.
func (b *Binder) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

// Release closes every connection and waits for their pumps to exit.
// Idempotent. Must not be called from inside a sink.
func (b *Binder) Release() {
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		b.pumps.Wait()
		return
	}
	b.released = true
	conns := b.conns
	b.conns = make(map[int]closer)
	close(b.stop)
	b.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	b.pumps.Wait()

	b.logger.Debug("binder released", "connections", len(conns))
}

// forget drops a connection whose source completed on its own.
func (b *Binder) forget(id int) {
	b.mu.Lock()
	delete(b.conns, id)
	b.mu.Unlock()
}
