package docstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps documents in process. Watchers are refreshed synchronously
// after every write.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	hub         *hub
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		collections: make(map[string]map[string]Document),
		now:         time.Now,
	}
	s.hub = newHub(s)
	return s
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (s *MemoryStore) List(_ context.Context, q Query) ([]Document, error) {
	s.mu.RLock()
	docs := make([]Document, 0, len(s.collections[q.Collection]))
	for _, doc := range s.collections[q.Collection] {
		docs = append(docs, doc)
	}
	s.mu.RUnlock()

	sortDocuments(docs, q.OrderBy)
	return docs, nil
}

func (s *MemoryStore) Create(ctx context.Context, collection string, data any) (string, error) {
	raw, err := marshalObject(data)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	s.put(collection, id, raw)
	s.hub.notify(ctx, collection, id)
	return id, nil
}

func (s *MemoryStore) Insert(ctx context.Context, collection, id string, data any) error {
	raw, err := marshalObject(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if _, taken := s.collections[collection][id]; taken {
		s.mu.Unlock()
		return ErrAlreadyExists
	}
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]Document)
	}
	s.collections[collection][id] = Document{ID: id, Data: raw, UpdateTime: s.now()}
	s.mu.Unlock()

	s.hub.notify(ctx, collection, id)
	return nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, data any) error {
	raw, err := marshalObject(data)
	if err != nil {
		return err
	}

	s.put(collection, id, raw)
	s.hub.notify(ctx, collection, id)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	patch, err := marshalFields(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	doc, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(doc.Data, &body); err != nil {
		s.mu.Unlock()
		return err
	}
	for k, v := range patch {
		body[k] = v
	}
	raw, err := json.Marshal(body)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.collections[collection][id] = Document{ID: id, Data: raw, UpdateTime: s.now()}
	s.mu.Unlock()

	s.hub.notify(ctx, collection, id)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	_, existed := s.collections[collection][id]
	delete(s.collections[collection], id)
	s.mu.Unlock()

	if existed {
		s.hub.notify(ctx, collection, id)
	}
	return nil
}

func (s *MemoryStore) WatchDocument(ctx context.Context, collection, id string) (*Subscription[DocumentSnapshot], error) {
	return s.hub.watchDocument(ctx, collection, id), nil
}

func (s *MemoryStore) WatchQuery(ctx context.Context, q Query) (*Subscription[QuerySnapshot], error) {
	return s.hub.watchQuery(ctx, q), nil
}

func (s *MemoryStore) put(collection, id string, raw json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]Document)
	}
	s.collections[collection][id] = Document{ID: id, Data: raw, UpdateTime: s.now()}
}

var _ Store = (*MemoryStore)(nil)
