// Package storetest holds the behavioural contract every store backend must
// satisfy.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldmap/internal/point"
	"github.com/roach88/fieldmap/internal/store"
)

// Timeout bounds every wait in the contract.
const Timeout = 3 * time.Second

// Factory returns a fresh, empty store. The contract closes it.
type Factory func(t *testing.T) store.Store

// Sample points used by the contract and backend tests.
var (
	Tree    = point.MapPoint{ID: "p-tree", Type: point.Tree, Location: point.Location{Latitude: 30.2672, Longitude: -97.7431}}
	Hydrant = point.MapPoint{ID: "p-hydrant", Type: point.Hydrant, Location: point.Location{Latitude: 30.2700, Longitude: -97.7400}}
	Mailbox = point.MapPoint{ID: "p-mailbox", Type: point.Mailbox, Location: point.Location{Latitude: -33.8688, Longitude: 151.2093}}
)

// Next receives one update or fails the test.
func Next(t *testing.T, updates <-chan store.Update) store.Update {
	t.Helper()
	select {
	case u, ok := <-updates:
		require.True(t, ok, "update stream closed")
		return u
	case <-time.After(Timeout):
		t.Fatal("timed out waiting for update")
	}
	return store.Update{}
}

// NextMatching receives updates until one satisfies match.
func NextMatching(t *testing.T, updates <-chan store.Update, match func(store.Update) bool) store.Update {
	t.Helper()
	deadline := time.After(Timeout)
	for {
		select {
		case u, ok := <-updates:
			require.True(t, ok, "update stream closed")
			if match(u) {
				return u
			}
		case <-deadline:
			t.Fatal("timed out waiting for matching update")
			return store.Update{}
		}
	}
}

// HasIDs matches an update holding exactly ids, in order.
func HasIDs(ids ...string) func(store.Update) bool {
	return func(u store.Update) bool {
		if u.Err != nil || len(u.Points) != len(ids) {
			return false
		}
		for i, p := range u.Points {
			if p.ID != ids[i] {
				return false
			}
		}
		return true
	}
}

// RunContract verifies that a backend honours the store.Store contract.
func RunContract(t *testing.T, newStore Factory) {
	t.Run("first update is the current list", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		require.NoError(t, s.Save(ctx, Tree))

		u := Next(t, s.Updates(ctx))
		require.NoError(t, u.Err)
		assert.Equal(t, []point.MapPoint{Tree}, u.Points)
	})

	t.Run("empty store starts empty", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		u := Next(t, s.Updates(ctx))
		require.NoError(t, u.Err)
		assert.Empty(t, u.Points)
	})

	t.Run("save pushes the full list ordered by id", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		updates := s.Updates(ctx)
		Next(t, updates)

		require.NoError(t, s.Save(ctx, Tree))
		require.NoError(t, s.Save(ctx, Hydrant))

		u := NextMatching(t, updates, HasIDs(Hydrant.ID, Tree.ID))
		assert.Equal(t, []point.MapPoint{Hydrant, Tree}, u.Points)
	})

	t.Run("save replaces a point with the same id", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()

		require.NoError(t, s.Save(ctx, Tree))
		moved := Tree
		moved.Location = point.Location{Latitude: 1, Longitude: 2}
		require.NoError(t, s.Save(ctx, moved))

		points, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []point.MapPoint{moved}, points)
	})

	t.Run("invalid point is rejected", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		err := s.Save(context.Background(), point.MapPoint{ID: "", Type: point.Tree})
		assert.ErrorIs(t, err, point.ErrInvalidPoint)
	})

	t.Run("every subscriber sees changes", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		a := s.Updates(ctx)
		b := s.Updates(ctx)
		Next(t, a)
		Next(t, b)

		require.NoError(t, s.Save(ctx, Mailbox))
		NextMatching(t, a, HasIDs(Mailbox.ID))
		NextMatching(t, b, HasIDs(Mailbox.ID))
	})

	t.Run("cancel closes the stream", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx, cancel := context.WithCancel(context.Background())

		updates := s.Updates(ctx)
		Next(t, updates)
		cancel()

		deadline := time.After(Timeout)
		for {
			select {
			case _, ok := <-updates:
				if !ok {
					return
				}
			case <-deadline:
				t.Fatal("stream not closed after cancel")
			}
		}
	})
}
