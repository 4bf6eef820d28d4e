package docstore

import (
	"context"
	"errors"
	"sync"
)

type reader interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	List(ctx context.Context, q Query) ([]Document, error)
}

type docKey struct {
	collection string
	id         string
}

type docWatcher struct {
	key docKey
	sub *Subscription[DocumentSnapshot]
}

type queryWatcher struct {
	query Query
	sub   *Subscription[QuerySnapshot]
}

// hub fans change notifications out to watchers. Every refresh re-reads the current
// state and delivers it while holding dispatchMu, so deliveries on one subscription
// follow the order of the reads.
type hub struct {
	store reader

	mu      sync.Mutex
	docs    map[docKey]map[*docWatcher]struct{}
	queries map[string]map[*queryWatcher]struct{}

	dispatchMu sync.Mutex
}

func newHub(store reader) *hub {
	return &hub{
		store:   store,
		docs:    make(map[docKey]map[*docWatcher]struct{}),
		queries: make(map[string]map[*queryWatcher]struct{}),
	}
}

func (h *hub) watchDocument(ctx context.Context, collection, id string) *Subscription[DocumentSnapshot] {
	w := &docWatcher{key: docKey{collection: collection, id: id}}
	w.sub = newSubscription[DocumentSnapshot](func() { h.removeDoc(w) })

	h.mu.Lock()
	if h.docs[w.key] == nil {
		h.docs[w.key] = make(map[*docWatcher]struct{})
	}
	h.docs[w.key][w] = struct{}{}
	h.mu.Unlock()

	h.dispatchMu.Lock()
	h.refreshDoc(ctx, w)
	h.dispatchMu.Unlock()
	return w.sub
}

func (h *hub) watchQuery(ctx context.Context, q Query) *Subscription[QuerySnapshot] {
	w := &queryWatcher{query: q}
	w.sub = newSubscription[QuerySnapshot](func() { h.removeQuery(w) })

	h.mu.Lock()
	if h.queries[q.Collection] == nil {
		h.queries[q.Collection] = make(map[*queryWatcher]struct{})
	}
	h.queries[q.Collection][w] = struct{}{}
	h.mu.Unlock()

	h.dispatchMu.Lock()
	h.refreshQuery(ctx, w)
	h.dispatchMu.Unlock()
	return w.sub
}

func (h *hub) removeDoc(w *docWatcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.docs[w.key], w)
	if len(h.docs[w.key]) == 0 {
		delete(h.docs, w.key)
	}
}

func (h *hub) removeQuery(w *queryWatcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.queries[w.query.Collection], w)
	if len(h.queries[w.query.Collection]) == 0 {
		delete(h.queries, w.query.Collection)
	}
}

// notify refreshes every watcher of the changed document and of its collection.
func (h *hub) notify(ctx context.Context, collection, id string) {
	h.mu.Lock()
	docs := make([]*docWatcher, 0, len(h.docs[docKey{collection, id}]))
	for w := range h.docs[docKey{collection, id}] {
		docs = append(docs, w)
	}
	queries := make([]*queryWatcher, 0, len(h.queries[collection]))
	for w := range h.queries[collection] {
		queries = append(queries, w)
	}
	h.mu.Unlock()

	h.dispatchMu.Lock()
	defer h.dispatchMu.Unlock()
	for _, w := range docs {
		h.refreshDoc(ctx, w)
	}
	for _, w := range queries {
		h.refreshQuery(ctx, w)
	}
}

// resync refreshes every watcher, used after the change feed reconnects.
func (h *hub) resync(ctx context.Context) {
	h.mu.Lock()
	var docs []*docWatcher
	for _, set := range h.docs {
		for w := range set {
			docs = append(docs, w)
		}
	}
	var queries []*queryWatcher
	for _, set := range h.queries {
		for w := range set {
			queries = append(queries, w)
		}
	}
	h.mu.Unlock()

	h.dispatchMu.Lock()
	defer h.dispatchMu.Unlock()
	for _, w := range docs {
		h.refreshDoc(ctx, w)
	}
	for _, w := range queries {
		h.refreshQuery(ctx, w)
	}
}

func (h *hub) refreshDoc(ctx context.Context, w *docWatcher) {
	doc, err := h.store.Get(ctx, w.key.collection, w.key.id)
	switch {
	case errors.Is(err, ErrNotFound):
		w.sub.deliver(DocumentSnapshot{ID: w.key.id})
	case err != nil:
		w.sub.fail(err)
	default:
		w.sub.deliver(DocumentSnapshot{ID: w.key.id, Exists: true, Document: doc})
	}
}

func (h *hub) refreshQuery(ctx context.Context, w *queryWatcher) {
	docs, err := h.store.List(ctx, w.query)
	if err != nil {
		w.sub.fail(err)
		return
	}
	w.sub.deliver(QuerySnapshot{Docs: docs})
}
