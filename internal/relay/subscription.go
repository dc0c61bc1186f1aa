package relay

import "sync"

// Subscription is one subscriber's view of a relay.
//
// Values are queued without bound and forwarded to C() by a pump goroutine.
// C() is closed after the relay completes and the mailbox drains, or by the
// time Close returns.
type Subscription[T any] struct {
	mu        sync.Mutex
	mailbox   []T
	completed bool
	signal    chan struct{} // buffered, size 1; coalesces wakeups
	cancel    chan struct{}
	done      chan struct{} // closed when the pump exits
	out       chan T
	detach    func()
	closeOnce sync.Once
}

func newSubscription[T any]() *Subscription[T] {
	s := &Subscription[T]{
		mailbox: make([]T, 0, 4),
		signal:  make(chan struct{}, 1),
		cancel:  make(chan struct{}),
		done:    make(chan struct{}),
		out:     make(chan T),
	}
	go s.pump()
	return s
}

// C returns the delivery channel.
func (s *Subscription[T]) C() <-chan T {
	return s.out
}

// Close detaches the subscriber and discards undelivered values. Once it
// returns, C() is closed and yields no further values.
// Safe to call more than once and from any goroutine.
func (s *Subscription[T]) Close() {
	s.closeOnce.Do(func() {
		close(s.cancel)
		if s.detach != nil {
			s.detach()
		}
	})
	<-s.done
}

// Pending returns the number of queued, undelivered values.
func (s *Subscription[T]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mailbox)
}

func (s *Subscription[T]) push(v T) {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return
	}
	s.mailbox = append(s.mailbox, v)
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription[T]) complete() {
	s.mu.Lock()
	s.completed = true
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription[T]) wake() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Subscription[T]) pump() {
	defer close(s.done)
	defer close(s.out)

	var zero T
	for {
		s.mu.Lock()
		if len(s.mailbox) == 0 {
			done := s.completed
			s.mu.Unlock()
			if done {
				return
			}
			select {
			case <-s.signal:
				continue
			case <-s.cancel:
				return
			}
		}

		v := s.mailbox[0]
		s.mailbox[0] = zero // release references held by the backing array
		if len(s.mailbox) == 1 {
			s.mailbox = s.mailbox[:0]
		} else {
			s.mailbox = s.mailbox[1:]
		}
		s.mu.Unlock()

		select {
		case <-s.cancel:
			return
		default:
		}

		select {
		case s.out <- v:
		case <-s.cancel:
			return
		}
	}
}
