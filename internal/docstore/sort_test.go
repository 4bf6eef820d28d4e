package docstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docOf(id, body string) Document {
	return Document{ID: id, Data: json.RawMessage(body)}
}

func ids(docs []Document) []string {
	out := make([]string, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.ID)
	}
	return out
}

func TestSortDocuments(t *testing.T) {
	tests := []struct {
		name    string
		docs    []Document
		orderBy []OrderBy
		want    []string
	}{
		{
			name:    "numbers ascending",
			docs:    []Document{docOf("a", `{"price":10}`), docOf("b", `{"price":2.5}`), docOf("c", `{"price":7}`)},
			orderBy: []OrderBy{{Field: "price"}},
			want:    []string{"b", "c", "a"},
		},
		{
			name: "timestamps descending across offsets",
			docs: []Document{
				docOf("a", `{"timestamp":"2026-05-01T20:00:00Z"}`),
				docOf("b", `{"timestamp":"2026-05-01T22:30:00+02:00"}`),
				docOf("c", `{"timestamp":"2026-05-01T20:15:00.5Z"}`),
			},
			orderBy: []OrderBy{{Field: "timestamp", Direction: Desc}},
			want:    []string{"b", "c", "a"},
		},
		{
			name:    "missing field first",
			docs:    []Document{docOf("a", `{"name":"x"}`), docOf("b", `{}`)},
			orderBy: []OrderBy{{Field: "name"}},
			want:    []string{"b", "a"},
		},
		{
			name:    "ties broken by id",
			docs:    []Document{docOf("z", `{"category":"plat"}`), docOf("m", `{"category":"plat"}`)},
			orderBy: []OrderBy{{Field: "category"}},
			want:    []string{"m", "z"},
		},
		{
			name:    "no keys",
			docs:    []Document{docOf("b", `{}`), docOf("a", `{}`)},
			orderBy: nil,
			want:    []string{"a", "b"},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			sortDocuments(testCase.docs, testCase.orderBy)
			assert.Equal(t, testCase.want, ids(testCase.docs))
		})
	}
}

func TestParseChangeNotice(t *testing.T) {
	n, err := parseChangeNotice(`{"collection":"venues/demo/orders","id":"o1"}`)
	require.NoError(t, err)
	assert.Equal(t, changeNotice{Collection: "venues/demo/orders", ID: "o1"}, n)

	_, err = parseChangeNotice(`not json`)
	assert.Error(t, err)

	_, err = parseChangeNotice(`{"collection":"venues"}`)
	assert.Error(t, err)
}

func TestPostgresStore_HandleNotification(t *testing.T) {
	ctx := context.Background()
	logger, hook := test.NewNullLogger()
	backing := NewMemoryStore()

	store := &PostgresStore{Log: logger}
	store.hub = newHub(backing)

	sub := store.hub.watchDocument(ctx, "venues", "demo")
	defer sub.Cancel()
	assert.False(t, (<-sub.Snapshots()).Exists)

	require.NoError(t, backing.Set(ctx, "venues", "demo", map[string]any{"ordersOpen": false}))
	store.handleNotification(ctx, &pq.Notification{Channel: ChangesChannel, Extra: `{"collection":"venues","id":"demo"}`})

	select {
	case snap := <-sub.Snapshots():
		assert.True(t, snap.Exists)
	case <-time.After(time.Second):
		t.Fatal("notification did not refresh the watcher")
	}

	store.handleNotification(ctx, &pq.Notification{Extra: `garbage`})
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "ignoring malformed change notice", hook.LastEntry().Message)

	require.NoError(t, backing.Update(ctx, "venues", "demo", map[string]any{"ordersOpen": true}))
	store.handleNotification(ctx, nil)
	snap := <-sub.Snapshots()
	assert.JSONEq(t, `{"ordersOpen":true}`, string(snap.Document.Data))
}
