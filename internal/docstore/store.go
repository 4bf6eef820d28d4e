// Package docstore is a small document database with live subscriptions.
//
// Documents are JSON objects addressed by a collection path ("venues",
// "venues/demo/orders") and an id. A subscription delivers the current value of a
// document or of a whole collection on open and again after every change, until it
// is cancelled.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
)

type Document struct {
	ID         string
	Data       json.RawMessage
	UpdateTime time.Time
}

// DataTo decodes the document body into v.
func (d Document) DataTo(v any) error {
	return json.Unmarshal(d.Data, v)
}

type Direction int

const (
	Asc Direction = iota
	Desc
)

type OrderBy struct {
	Field     string
	Direction Direction
}

// Query selects every document of a collection, sorted by the given keys.
type Query struct {
	Collection string
	OrderBy    []OrderBy
}

func Collection(path string) Query {
	return Query{Collection: path}
}

func (q Query) Sort(field string, dir Direction) Query {
	orderBy := make([]OrderBy, len(q.OrderBy), len(q.OrderBy)+1)
	copy(orderBy, q.OrderBy)
	q.OrderBy = append(orderBy, OrderBy{Field: field, Direction: dir})
	return q
}

type DocumentSnapshot struct {
	ID       string
	Exists   bool
	Document Document
}

type QuerySnapshot struct {
	Docs []Document
}

type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	List(ctx context.Context, q Query) ([]Document, error)
	// Create stores data under a generated id and returns that id.
	Create(ctx context.Context, collection string, data any) (string, error)
	// Insert stores data under an explicit id, failing with ErrAlreadyExists
	// when the id is taken.
	Insert(ctx context.Context, collection, id string, data any) error
	// Set stores data under an explicit id, replacing any previous body.
	Set(ctx context.Context, collection, id string, data any) error
	// Update merges top-level fields into an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
	WatchDocument(ctx context.Context, collection, id string) (*Subscription[DocumentSnapshot], error)
	WatchQuery(ctx context.Context, q Query) (*Subscription[QuerySnapshot], error)
}

func marshalFields(fields map[string]any) (map[string]json.RawMessage, error) {
	encoded := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		encoded[k] = raw
	}
	return encoded, nil
}

func marshalObject(data any) (json.RawMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, errors.New("document body must be a json object")
	}
	return raw, nil
}
