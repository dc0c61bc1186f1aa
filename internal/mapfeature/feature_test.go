package mapfeature

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldmap/internal/point"
	"github.com/roach88/fieldmap/internal/relay"
	"github.com/roach88/fieldmap/internal/store/memory"
)

var (
	tree    = point.MapPoint{ID: "p-1", Type: point.Tree, Location: point.Location{Latitude: 30.2672, Longitude: -97.7431}}
	hydrant = point.MapPoint{ID: "p-2", Type: point.Hydrant, Location: point.Location{Latitude: 30.27, Longitude: -97.74}}
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFeature(t *testing.T, src DataSource) *Feature {
	t.Helper()
	f := New(src, WithLogger(quietLogger()))
	t.Cleanup(f.Dispose)
	return f
}

func newStore(t *testing.T, initial []point.MapPoint, opts ...memory.Option) *memory.Store {
	t.Helper()
	s := memory.New(initial, append([]memory.Option{memory.WithLogger(quietLogger())}, opts...)...)
	t.Cleanup(func() { s.Close() })
	return s
}

func recv[T any](t *testing.T, sub *relay.Subscription[T]) T {
	t.Helper()
	select {
	case v, ok := <-sub.C():
		require.True(t, ok, "subscription closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
	var zero T
	return zero
}

func assertQuiet[T any](t *testing.T, sub *relay.Subscription[T]) {
	t.Helper()
	select {
	case v := <-sub.C():
		t.Fatalf("unexpected value %v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFeature_InitialStateHasNoPoints(t *testing.T) {
	f := newFeature(t, newStore(t, nil))
	assert.Nil(t, f.State().Points)
}

func TestFeature_FirstPushReplacesPoints(t *testing.T) {
	f := newFeature(t, newStore(t, []point.MapPoint{tree}))
	states := f.States()
	defer states.Close()

	assert.Equal(t, State{}, recv(t, states))
	f.Start()
	assert.Equal(t, State{Points: []point.MapPoint{tree}}, recv(t, states))
}

func TestFeature_SaveRoundTripsThroughStore(t *testing.T) {
	s := newStore(t, nil)
	f := newFeature(t, s)
	states := f.States()
	defer states.Close()

	f.Start()
	recv(t, states) // initial
	assert.Empty(t, recv(t, states).Points)

	f.Accept(SaveMapPoint{Point: hydrant})

	got := recv(t, states)
	assert.Equal(t, []point.MapPoint{hydrant}, got.Points)
	assert.Equal(t, []point.MapPoint{hydrant}, s.Saved())
}

func TestFeature_SaveSucceedsWithoutStateChangeUntilPush(t *testing.T) {
	s := newStore(t, nil, memory.WithoutEcho())
	f := newFeature(t, s)
	news := f.News()
	defer news.Close()

	f.Start()
	require.Eventually(t, func() bool { return f.Version() == 1 }, 2*time.Second, time.Millisecond)

	f.Accept(SaveMapPoint{Point: tree})
	require.Eventually(t, func() bool { return len(s.Saved()) == 1 }, 2*time.Second, time.Millisecond)

	assertQuiet(t, news)
	assert.Empty(t, f.State().Points)

	s.Push(s.Saved())
	require.Eventually(t, func() bool { return len(f.State().Points) == 1 }, 2*time.Second, time.Millisecond)
}

func TestFeature_SaveFailurePublishesErrorAndKeepsState(t *testing.T) {
	s := newStore(t, []point.MapPoint{tree})
	f := newFeature(t, s)
	f.Start()
	require.Eventually(t, func() bool { return f.Version() == 1 }, 2*time.Second, time.Millisecond)
	before := f.State()

	news := f.News()
	defer news.Close()

	boom := errors.New("permission denied")
	s.FailNextSave(boom)
	f.Accept(SaveMapPoint{Point: hydrant})

	n := recv(t, news)
	require.IsType(t, ErrorNews{}, n)
	assert.ErrorIs(t, n.(ErrorNews).Err, boom)
	assertQuiet(t, news)
	assert.Equal(t, before, f.State())
}

func TestFeature_InvalidPointNeverReachesStore(t *testing.T) {
	s := newStore(t, nil)
	f := newFeature(t, s)
	f.Start()
	news := f.News()
	defer news.Close()

	f.Accept(SaveMapPoint{Point: point.MapPoint{ID: "bad", Type: point.Tree, Location: point.Location{Latitude: 200}}})

	n := recv(t, news)
	require.IsType(t, ErrorNews{}, n)
	assert.ErrorIs(t, n.(ErrorNews).Err, point.ErrInvalidPoint)
	assert.Empty(t, s.Saved())
}

func TestFeature_ShowResultsPublishesCurrentPointsOnce(t *testing.T) {
	f := newFeature(t, newStore(t, []point.MapPoint{tree, hydrant}))
	f.Start()
	require.Eventually(t, func() bool { return len(f.State().Points) == 2 }, 2*time.Second, time.Millisecond)
	version := f.Version()

	news := f.News()
	defer news.Close()
	f.Accept(ShowResults{})

	n := recv(t, news)
	assert.Equal(t, ResultsNews{Points: []point.MapPoint{tree, hydrant}}, n)
	assertQuiet(t, news)

	require.Eventually(t, func() bool { return f.Version() == version+1 }, 2*time.Second, time.Millisecond)
	assert.Len(t, f.State().Points, 2, "showing results must not change state")

	late := f.News()
	defer late.Close()
	assertQuiet(t, late)
}

func TestFeature_ShowResultsBeforeFirstPush(t *testing.T) {
	f := newFeature(t, newStore(t, nil))
	news := f.News()
	defer news.Close()

	f.Accept(ShowResults{})
	f.Start()

	n := recv(t, news)
	assert.Equal(t, ResultsNews{}, n)
}

func TestFeature_SourceFailurePublishesError(t *testing.T) {
	s := newStore(t, []point.MapPoint{tree})
	f := newFeature(t, s)
	f.Start()
	require.Eventually(t, func() bool { return f.Version() == 1 }, 2*time.Second, time.Millisecond)

	news := f.News()
	defer news.Close()

	boom := errors.New("connection lost")
	s.FailUpdates(boom)

	n := recv(t, news)
	require.IsType(t, ErrorNews{}, n)
	assert.ErrorIs(t, n.(ErrorNews).Err, boom)
	assert.Equal(t, []point.MapPoint{tree}, f.State().Points, "last good list is kept")
}

func TestFeature_DuplicatePushesCollapse(t *testing.T) {
	s := newStore(t, []point.MapPoint{tree})
	f := newFeature(t, s)
	states := f.States()
	defer states.Close()

	f.Start()
	recv(t, states)
	assert.Equal(t, []point.MapPoint{tree}, recv(t, states).Points)

	s.Push([]point.MapPoint{tree})
	s.Push([]point.MapPoint{tree, hydrant})

	assert.Equal(t, []point.MapPoint{tree, hydrant}, recv(t, states).Points)
	assertQuiet(t, states)
	assert.Equal(t, int64(2), f.Version())
}

func TestFeature_DisposeStopsBootstrap(t *testing.T) {
	s := newStore(t, []point.MapPoint{tree})
	f := newFeature(t, s)
	f.Start()
	require.Eventually(t, func() bool { return f.Version() == 1 }, 2*time.Second, time.Millisecond)

	f.Dispose()
	s.Push([]point.MapPoint{hydrant})

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []point.MapPoint{tree}, f.State().Points)
}

func TestReduce(t *testing.T) {
	start := State{Points: []point.MapPoint{tree}}

	assert.Equal(t, State{Points: []point.MapPoint{hydrant}}, Reduce(start, MapPointsUpdated{Points: []point.MapPoint{hydrant}}))
	assert.Equal(t, start, Reduce(start, ErrorHappened{Err: errors.New("x")}))
	assert.Equal(t, start, Reduce(start, ResultsLoaded{Points: nil}))
	assert.Equal(t, State{Points: []point.MapPoint{tree}}, start, "reduce must not mutate its input")
}

type unknownEffect struct{}

func (unknownEffect) isEffect() {}

type unknownAction struct{}

func (unknownAction) isAction() {}

func TestUnknownVariantsPanic(t *testing.T) {
	assert.Panics(t, func() { Reduce(State{}, unknownEffect{}) })
	assert.Panics(t, func() { PublishNews(nil, unknownEffect{}, State{}) })
	assert.Panics(t, func() { Actor(newStore(t, nil))(context.Background(), State{}, unknownAction{}) })
}

func TestPublishNews(t *testing.T) {
	boom := errors.New("boom")

	n, ok := PublishNews(nil, ErrorHappened{Err: boom}, State{})
	require.True(t, ok)
	assert.Equal(t, ErrorNews{Err: boom}, n)

	n, ok = PublishNews(nil, ResultsLoaded{Points: []point.MapPoint{tree}}, State{})
	require.True(t, ok)
	assert.Equal(t, ResultsNews{Points: []point.MapPoint{tree}}, n)

	_, ok = PublishNews(nil, MapPointsUpdated{}, State{})
	assert.False(t, ok)
}

func TestWishToAction(t *testing.T) {
	assert.Equal(t, ExecuteWish{Wish: ShowResults{}}, WishToAction(ShowResults{}))
}
