package docstore

import "sync"

// Subscription is a live feed of snapshots. Only the latest undelivered snapshot is
// kept: a slow reader may skip intermediate values but never sees them out of order.
type Subscription[T any] struct {
	mu        sync.Mutex
	snapshots chan T
	errs      chan error
	done      chan struct{}
	closed    bool
	onCancel  func()
}

func newSubscription[T any](onCancel func()) *Subscription[T] {
	return &Subscription[T]{
		snapshots: make(chan T, 1),
		errs:      make(chan error, 1),
		done:      make(chan struct{}),
		onCancel:  onCancel,
	}
}

// Snapshots is closed once the subscription is cancelled.
func (s *Subscription[T]) Snapshots() <-chan T {
	return s.snapshots
}

func (s *Subscription[T]) Errors() <-chan error {
	return s.errs
}

func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Cancel detaches the subscription from the store. It is safe to call more than once.
func (s *Subscription[T]) Cancel() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	close(s.snapshots)
	close(s.errs)
	onCancel := s.onCancel
	s.mu.Unlock()

	if onCancel != nil {
		onCancel()
	}
}

func (s *Subscription[T]) deliver(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.snapshots:
	default:
	}
	s.snapshots <- v
}

func (s *Subscription[T]) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.errs <- err:
	default:
	}
}
