package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Live is a screen session holding store subscriptions.
type Live interface {
	Start(ctx context.Context) error
	Close()
}

type registryEntry[S Live] struct {
	session  S
	lastSeen time.Time
	holders  int
	done     chan struct{}
}

func newRegistryEntry[S Live](session S, now time.Time) *registryEntry[S] {
	return &registryEntry[S]{session: session, lastSeen: now, done: make(chan struct{})}
}

// retire runs once the entry has left the map, with r.mu released.
func (e *registryEntry[S]) retire() {
	close(e.done)
	e.session.Close()
}

// Registry keeps one started session per key and closes sessions nobody has
// touched for IdleTimeout. Held sessions are never swept.
type Registry[S Live] struct {
	New         func(key string) S
	IdleTimeout time.Duration
	Log         logrus.FieldLogger

	mu      sync.Mutex
	entries map[string]*registryEntry[S]
	now     func() time.Time
}

func NewRegistry[S Live](newSession func(key string) S, idle time.Duration, log logrus.FieldLogger) *Registry[S] {
	return &Registry[S]{
		New:         newSession,
		IdleTimeout: idle,
		Log:         log,
		entries:     make(map[string]*registryEntry[S]),
		now:         time.Now,
	}
}

// Get returns the session for key, creating and starting it on first use.
func (r *Registry[S]) Get(ctx context.Context, key string) (S, error) {
	entry, err := r.open(ctx, key, false)
	if err != nil {
		var zero S
		return zero, err
	}
	return entry.session, nil
}

// Hold is Get for long-lived readers such as event streams. The session is
// not swept until release is called, and done closes when the session is
// closed anyway, by Close or shutdown.
func (r *Registry[S]) Hold(ctx context.Context, key string) (session S, done <-chan struct{}, release func(), err error) {
	entry, err := r.open(ctx, key, true)
	if err != nil {
		var zero S
		return zero, nil, nil, err
	}
	var once sync.Once
	release = func() {
		once.Do(func() {
			r.mu.Lock()
			entry.holders--
			entry.lastSeen = r.now()
			r.mu.Unlock()
		})
	}
	return entry.session, entry.done, release, nil
}

func (r *Registry[S]) open(ctx context.Context, key string, hold bool) (*registryEntry[S], error) {
	r.mu.Lock()
	if entry, ok := r.entries[key]; ok {
		entry.lastSeen = r.now()
		if hold {
			entry.holders++
		}
		r.mu.Unlock()
		return entry, nil
	}
	entry := newRegistryEntry(r.New(key), r.now())
	if hold {
		entry.holders++
	}
	r.entries[key] = entry
	r.mu.Unlock()

	if err := entry.session.Start(ctx); err != nil {
		r.mu.Lock()
		if r.entries[key] == entry {
			delete(r.entries, key)
		}
		r.mu.Unlock()
		entry.retire()
		return nil, err
	}
	return entry, nil
}

// Lookup returns an existing session without creating one.
func (r *Registry[S]) Lookup(key string) (S, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[key]
	if !ok {
		var zero S
		return zero, false
	}
	entry.lastSeen = r.now()
	return entry.session, true
}

// Close ends one session, tearing down its subscriptions.
func (r *Registry[S]) Close(key string) bool {
	r.mu.Lock()
	entry, ok := r.entries[key]
	delete(r.entries, key)
	r.mu.Unlock()

	if ok {
		entry.retire()
	}
	return ok
}

func (r *Registry[S]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep closes unheld sessions idle for longer than IdleTimeout and returns how many it closed.
func (r *Registry[S]) Sweep() int {
	cutoff := r.now().Add(-r.IdleTimeout)

	r.mu.Lock()
	var idle []*registryEntry[S]
	for key, entry := range r.entries {
		if entry.holders == 0 && entry.lastSeen.Before(cutoff) {
			idle = append(idle, entry)
			delete(r.entries, key)
		}
	}
	r.mu.Unlock()

	for _, entry := range idle {
		entry.retire()
	}
	return len(idle)
}

// Run sweeps every interval until ctx is done, then closes every session.
func (r *Registry[S]) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.CloseAll()
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.Log.WithField("evicted", n).Debug("closed idle sessions")
			}
		}
	}
}

func (r *Registry[S]) CloseAll() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*registryEntry[S])
	r.mu.Unlock()

	for _, entry := range entries {
		entry.retire()
	}
}

// CustomerKey identifies the session of one device at one venue.
func CustomerKey(deviceID, venueID string) string {
	return deviceID + "/" + venueID
}
