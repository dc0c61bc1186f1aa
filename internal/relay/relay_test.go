package relay

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, s *Subscription[T]) T {
	t.Helper()
	select {
	case v, ok := <-s.C():
		require.True(t, ok, "subscription closed unexpectedly")
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func assertClosed[T any](t *testing.T, s *Subscription[T]) {
	t.Helper()
	select {
	case _, ok := <-s.C():
		assert.False(t, ok, "expected closed channel")
	case <-time.After(time.Second):
		t.Fatal("channel was not closed")
	}
}

func assertNothing[T any](t *testing.T, s *Subscription[T]) {
	t.Helper()
	select {
	case v, ok := <-s.C():
		if ok {
			t.Fatalf("unexpected value %v", v)
		}
	case <-time.After(30 * time.Millisecond):
	}
}

func TestBehavior_ReplaysInitialValue(t *testing.T) {
	b := NewBehavior(7)
	sub := b.Subscribe()
	defer sub.Close()

	assert.Equal(t, 7, receive(t, sub))
}

func TestBehavior_LateSubscriberGetsLatestOnly(t *testing.T) {
	b := NewBehavior(0)
	b.Publish(1)
	b.Publish(2)

	sub := b.Subscribe()
	defer sub.Close()

	assert.Equal(t, 2, receive(t, sub))
	assertNothing(t, sub)
	assert.Equal(t, 2, b.Value())
}

func TestBehavior_OrderPreserved(t *testing.T) {
	b := NewBehavior(0)
	sub := b.Subscribe()
	defer sub.Close()

	for i := 1; i <= 100; i++ {
		b.Publish(i)
	}

	for i := 0; i <= 100; i++ {
		assert.Equal(t, i, receive(t, sub))
	}
}

func TestBehavior_PublishNeverBlocksOnSlowReader(t *testing.T) {
	b := NewBehavior(0)
	sub := b.Subscribe()
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 1; i <= 1000; i++ {
			b.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on an unread subscription")
	}
	assert.Equal(t, 0, receive(t, sub))
}

func TestBehavior_CloseDrainsThenCloses(t *testing.T) {
	b := NewBehavior("a")
	sub := b.Subscribe()
	b.Publish("b")
	b.Close()

	assert.Equal(t, "a", receive(t, sub))
	assert.Equal(t, "b", receive(t, sub))
	assertClosed(t, sub)

	b.Publish("c")
	assert.Equal(t, "b", b.Value(), "publish after close is a no-op")

	late := b.Subscribe()
	assertClosed(t, late)
}

func TestBehavior_CloseIsIdempotent(t *testing.T) {
	b := NewBehavior(1)
	b.Close()
	b.Close()
	assert.Equal(t, 0, b.Len())
}

func TestSubscription_CloseDetaches(t *testing.T) {
	b := NewBehavior(1)
	sub := b.Subscribe()
	require.Equal(t, 1, b.Len())

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, b.Len())
	assertClosed(t, sub)
}

func TestSubscription_NoDeliveryAfterClose(t *testing.T) {
	b := NewBehavior(1)
	for i := 0; i < 500; i++ {
		sub := b.Subscribe()
		sub.Close()

		select {
		case v, ok := <-sub.C():
			require.False(t, ok, "iteration %d: received %v after Close", i, v)
		default:
			t.Fatalf("iteration %d: channel still open after Close", i)
		}
	}
	assert.Equal(t, 0, b.Len())
}

func TestPublish_NoReplay(t *testing.T) {
	p := NewPublish[string]()
	p.Publish("before")

	sub := p.Subscribe()
	defer sub.Close()
	assertNothing(t, sub)

	p.Publish("after")
	assert.Equal(t, "after", receive(t, sub))
}

func TestPublish_FanOut(t *testing.T) {
	p := NewPublish[int]()
	a := p.Subscribe()
	b := p.Subscribe()
	defer a.Close()
	defer b.Close()

	p.Publish(42)

	assert.Equal(t, 42, receive(t, a))
	assert.Equal(t, 42, receive(t, b))
}

func TestPublish_ConcurrentSubscribers(t *testing.T) {
	p := NewPublish[int]()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := p.Subscribe()
			s.Close()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, p.Len())
	p.Close()
}

func TestBehavior_SubscribersAgreeOnOrder(t *testing.T) {
	b := NewBehavior(0)

	subs := make([]*Subscription[int], 5)
	for i := range subs {
		subs[i] = b.Subscribe()
		defer subs[i].Close()
	}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				b.Publish(i)
			}
		}()
	}
	wg.Wait()

	var reference []int
	for i := 0; i <= 200; i++ {
		reference = append(reference, receive(t, subs[0]))
	}
	for _, s := range subs[1:] {
		for i := 0; i <= 200; i++ {
			assert.Equal(t, reference[i], receive(t, s))
		}
	}
}
