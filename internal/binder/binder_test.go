package binder

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldmap/internal/relay"
)

// collector is a goroutine-safe sink.
type collector[T any] struct {
	mu     sync.Mutex
	values []T
}

func (c *collector[T]) add(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = append(c.values, v)
}

func (c *collector[T]) snapshot() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.values...)
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	assert.Eventually(t, cond, 2*time.Second, time.Millisecond)
}

func TestConnect_DeliversInOrder(t *testing.T) {
	b := New(nil)
	defer b.Release()

	src := relay.NewPublish[int]()
	var got collector[int]
	require.NoError(t, Connect(b, src, got.add))

	for i := 0; i < 10; i++ {
		src.Publish(i)
	}

	eventually(t, func() bool { return len(got.snapshot()) == 10 })
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got.snapshot())
}

func TestBind_TransformFilters(t *testing.T) {
	b := New(nil)
	defer b.Release()

	src := relay.NewPublish[int]()
	var got collector[string]
	evenOnly := func(v int) (string, bool) {
		if v%2 != 0 {
			return "", false
		}
		return strconv.Itoa(v), true
	}
	require.NoError(t, Bind(b, src, evenOnly, got.add))

	for i := 1; i <= 6; i++ {
		src.Publish(i)
	}

	eventually(t, func() bool { return len(got.snapshot()) == 3 })
	assert.Equal(t, []string{"2", "4", "6"}, got.snapshot())
}

func TestBind_BehaviorReplaysOnConnect(t *testing.T) {
	b := New(nil)
	defer b.Release()

	src := relay.NewBehavior("initial")
	var got collector[string]
	require.NoError(t, Connect(b, src, got.add))

	eventually(t, func() bool { return len(got.snapshot()) == 1 })
	assert.Equal(t, []string{"initial"}, got.snapshot())
}

func TestRelease_ClosesEveryConnection(t *testing.T) {
	b := New(nil)

	a := relay.NewPublish[int]()
	c := relay.NewPublish[int]()
	require.NoError(t, Connect(b, a, func(int) {}))
	require.NoError(t, Connect(b, c, func(int) {}))
	assert.Equal(t, 2, b.Len())

	b.Release()
	assert.Equal(t, 0, b.Len())
	assert.True(t, b.Released())
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 0, c.Len())

	// Idempotent.
	b.Release()
}

func TestRelease_NoDeliveryAfterRelease(t *testing.T) {
	b := New(nil)
	src := relay.NewPublish[int]()
	var got collector[int]
	require.NoError(t, Connect(b, src, got.add))

	b.Release()
	src.Publish(1)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, got.snapshot())
}

func TestBind_AfterRelease(t *testing.T) {
	b := New(nil)
	b.Release()

	err := Connect(b, relay.NewPublish[int](), func(int) {})
	assert.ErrorIs(t, err, ErrReleased)
}

func TestNew_ReleasesWhenScopeEnds(t *testing.T) {
	scope := NewScope()
	b := New(scope)
	require.NoError(t, Connect(b, relay.NewPublish[int](), func(int) {}))

	scope.End()
	scope.End()

	eventually(t, b.Released)
	assert.Equal(t, 0, b.Len())
}

func TestNew_ReleasesWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := New(ctx)
	require.NoError(t, Connect(b, relay.NewPublish[int](), func(int) {}))

	cancel()
	eventually(t, b.Released)
}

func TestConnection_DropsWhenSourceCompletes(t *testing.T) {
	b := New(nil)
	defer b.Release()

	src := relay.NewPublish[int]()
	require.NoError(t, Connect(b, src, func(int) {}))
	assert.Equal(t, 1, b.Len())

	src.Close()
	eventually(t, func() bool { return b.Len() == 0 })
}

func TestRelease_ConcurrentWithPublish(t *testing.T) {
	b := New(nil)
	src := relay.NewPublish[int]()
	var got collector[int]
	require.NoError(t, Connect(b, src, got.add))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			src.Publish(i)
		}
	}()
	b.Release()
	wg.Wait()

	// Whatever was delivered is an in-order prefix.
	values := got.snapshot()
	for i, v := range values {
		assert.Equal(t, i, v)
	}
}
