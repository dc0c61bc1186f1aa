// Package memory is an in-process point store.
//
// Besides serving as the default backend it simulates a remote store for
// tests: Push replaces the whole list as if another client changed it, and
// failures can be injected into both Save and the update stream.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/fieldmap/internal/point"
	"github.com/roach88/fieldmap/internal/relay"
	"github.com/roach88/fieldmap/internal/store"
)

// Option configures a Store.
type Option func(*Store)

// WithoutEcho stops Save from changing the pushed list. The store then
// behaves like a remote that acknowledges writes but only reflects them on
// a later Push.
func WithoutEcho() Option {
	return func(s *Store) {
		s.echo = false
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store keeps points in a map guarded by a mutex.
type Store struct {
	logger *slog.Logger
	echo   bool

	mu         sync.Mutex
	points     map[string]point.MapPoint
	saved      []point.MapPoint
	saveErrs   []error
	updatesErr error
	closed     bool

	changes *relay.Publish[struct{}]
}

var _ store.Store = (*Store)(nil)

// New creates a store holding initial.
func New(initial []point.MapPoint, opts ...Option) *Store {
	s := &Store{
		echo:    true,
		points:  make(map[string]point.MapPoint, len(initial)),
		changes: relay.NewPublish[struct{}](),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	for _, p := range initial {
		s.points[p.ID] = p
	}
	return s
}

// Updates implements store.Store.
func (s *Store) Updates(ctx context.Context) <-chan store.Update {
	return store.Feed(ctx, s.load, s.changes.Subscribe(), s.logger)
}

func (s *Store) load(context.Context) ([]point.MapPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, store.ErrClosed
	}
	if s.updatesErr != nil {
		return nil, s.updatesErr
	}
	return s.snapshotLocked(), nil
}

// Save implements store.Store.
func (s *Store) Save(ctx context.Context, p point.MapPoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return store.ErrClosed
	}
	if len(s.saveErrs) > 0 {
		err := s.saveErrs[0]
		s.saveErrs = s.saveErrs[1:]
		s.mu.Unlock()
		return fmt.Errorf("save point %q: %w", p.ID, err)
	}
	s.saved = append(s.saved, p)
	if s.echo {
		s.points[p.ID] = p
	}
	s.mu.Unlock()

	s.logger.Debug("point saved", "id", p.ID, "type", p.Type.String())
	if s.echo {
		s.changes.Publish(struct{}{})
	}
	return nil
}

// List implements store.Store.
func (s *Store) List(ctx context.Context) ([]point.MapPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.load(ctx)
}

// Push replaces the whole list, as a remote change would.
func (s *Store) Push(points []point.MapPoint) {
	s.mu.Lock()
	s.points = make(map[string]point.MapPoint, len(points))
	for _, p := range points {
		s.points[p.ID] = p
	}
	s.mu.Unlock()

	s.changes.Publish(struct{}{})
}

// PushRecords replaces the whole list with decoded records. A malformed
// record fails every open update stream.
func (s *Store) PushRecords(records [][]byte) error {
	points, err := store.DecodeRecords(records, s.logger)
	if err != nil {
		s.FailUpdates(err)
		return err
	}
	s.Push(points)
	return nil
}

// FailNextSave makes the next Save return err.
// Calls queue up: n calls fail the next n saves.
func (s *Store) FailNextSave(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErrs = append(s.saveErrs, err)
}

// FailUpdates ends every open update stream, and any opened later, with err.
func (s *Store) FailUpdates(err error) {
	s.mu.Lock()
	s.updatesErr = err
	s.mu.Unlock()

	s.changes.Publish(struct{}{})
}

// Saved returns every point passed to a successful Save, in call order.
func (s *Store) Saved() []point.MapPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]point.MapPoint(nil), s.saved...)
}

// Close implements store.Store. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.changes.Close()
	return nil
}

func (s *Store) snapshotLocked() []point.MapPoint {
	points := make([]point.MapPoint, 0, len(s.points))
	for _, p := range s.points {
		points = append(points, p)
	}
	return point.SortByID(points)
}
