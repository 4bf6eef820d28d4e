package service

import (
	"context"
	"sync"

	"quickbar/internal/docstore"

	"github.com/sirupsen/logrus"
)

// notifier wakes screen listeners after a state change. A listener that has not
// consumed the previous signal is not signalled twice.
type notifier struct {
	mu        sync.Mutex
	listeners map[chan struct{}]struct{}
}

func (n *notifier) subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	if n.listeners == nil {
		n.listeners = make(map[chan struct{}]struct{})
	}
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, ch)
			n.mu.Unlock()
		})
	}
}

func (n *notifier) broadcast() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// follow applies every snapshot of sub until it is cancelled or ctx ends.
// Subscription errors are logged and the last applied snapshot stays in place.
func follow[T any](ctx context.Context, sub *docstore.Subscription[T], log logrus.FieldLogger, apply func(T)) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sub.Snapshots():
			if !ok {
				return
			}
			apply(snap)
		case err, ok := <-sub.Errors():
			if !ok {
				return
			}
			log.WithError(err).Error("subscription error")
		}
	}
}
