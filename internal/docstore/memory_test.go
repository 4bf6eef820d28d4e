package docstore_test

import (
	"context"
	"testing"
	"time"

	"quickbar/internal/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type drink struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func nextDoc(t *testing.T, sub *docstore.Subscription[docstore.DocumentSnapshot]) docstore.DocumentSnapshot {
	t.Helper()
	select {
	case snap := <-sub.Snapshots():
		return snap
	case <-time.After(time.Second):
		t.Fatal("no document snapshot delivered")
		return docstore.DocumentSnapshot{}
	}
}

func nextQuery(t *testing.T, sub *docstore.Subscription[docstore.QuerySnapshot]) docstore.QuerySnapshot {
	t.Helper()
	select {
	case snap := <-sub.Snapshots():
		return snap
	case <-time.After(time.Second):
		t.Fatal("no query snapshot delivered")
		return docstore.QuerySnapshot{}
	}
}

func TestMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()

	id, err := store.Create(ctx, "venues/demo/menu", drink{Name: "Mojito", Price: 8})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	doc, err := store.Get(ctx, "venues/demo/menu", id)
	require.NoError(t, err)
	var got drink
	require.NoError(t, doc.DataTo(&got))
	assert.Equal(t, drink{Name: "Mojito", Price: 8}, got)

	require.NoError(t, store.Update(ctx, "venues/demo/menu", id, map[string]any{"price": 9.5}))
	doc, err = store.Get(ctx, "venues/demo/menu", id)
	require.NoError(t, err)
	require.NoError(t, doc.DataTo(&got))
	assert.Equal(t, drink{Name: "Mojito", Price: 9.5}, got)

	require.NoError(t, store.Delete(ctx, "venues/demo/menu", id))
	_, err = store.Get(ctx, "venues/demo/menu", id)
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "venues/demo/menu", id))
	assert.ErrorIs(t, store.Update(ctx, "venues/demo/menu", id, map[string]any{"price": 1}), docstore.ErrNotFound)
}

func TestMemoryStore_SetReplacesBody(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()

	require.NoError(t, store.Set(ctx, "venues", "demo", map[string]any{"name": "Demo", "active": true}))
	require.NoError(t, store.Set(ctx, "venues", "demo", map[string]any{"name": "Demo Bar"}))

	doc, err := store.Get(ctx, "venues", "demo")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Demo Bar"}`, string(doc.Data))
}

func TestMemoryStore_InsertKeepsExisting(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()

	require.NoError(t, store.Insert(ctx, "venues", "demo", map[string]any{"name": "Demo"}))
	err := store.Insert(ctx, "venues", "demo", map[string]any{"name": "Other"})
	assert.ErrorIs(t, err, docstore.ErrAlreadyExists)

	doc, err := store.Get(ctx, "venues", "demo")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Demo"}`, string(doc.Data))
}

func TestMemoryStore_RejectsNonObjectBody(t *testing.T) {
	store := docstore.NewMemoryStore()

	_, err := store.Create(context.Background(), "venues", []string{"a"})
	assert.Error(t, err)
}

func TestMemoryStore_WatchDocument(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()

	sub, err := store.WatchDocument(ctx, "venues", "demo")
	require.NoError(t, err)
	defer sub.Cancel()

	snap := nextDoc(t, sub)
	assert.False(t, snap.Exists)
	assert.Equal(t, "demo", snap.ID)

	require.NoError(t, store.Set(ctx, "venues", "demo", map[string]any{"ordersOpen": true}))
	snap = nextDoc(t, sub)
	assert.True(t, snap.Exists)

	require.NoError(t, store.Update(ctx, "venues", "demo", map[string]any{"ordersOpen": false}))
	snap = nextDoc(t, sub)
	assert.JSONEq(t, `{"ordersOpen":false}`, string(snap.Document.Data))

	require.NoError(t, store.Delete(ctx, "venues", "demo"))
	snap = nextDoc(t, sub)
	assert.False(t, snap.Exists)
}

func TestMemoryStore_WatchKeepsOnlyLatest(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "venues", "demo", map[string]any{"n": 0}))

	sub, err := store.WatchDocument(ctx, "venues", "demo")
	require.NoError(t, err)
	defer sub.Cancel()

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Update(ctx, "venues", "demo", map[string]any{"n": i}))
	}

	snap := nextDoc(t, sub)
	assert.JSONEq(t, `{"n":5}`, string(snap.Document.Data))
	select {
	case extra := <-sub.Snapshots():
		t.Fatalf("unexpected snapshot %s", extra.Document.Data)
	default:
	}
}

func TestMemoryStore_WatchQuerySorted(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	orders := "venues/demo/orders"

	base := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
	require.NoError(t, store.Set(ctx, orders, "a", map[string]any{"timestamp": base}))
	require.NoError(t, store.Set(ctx, orders, "b", map[string]any{"timestamp": base.Add(2 * time.Minute)}))

	sub, err := store.WatchQuery(ctx, docstore.Collection(orders).Sort("timestamp", docstore.Desc))
	require.NoError(t, err)
	defer sub.Cancel()

	snap := nextQuery(t, sub)
	require.Len(t, snap.Docs, 2)
	assert.Equal(t, "b", snap.Docs[0].ID)
	assert.Equal(t, "a", snap.Docs[1].ID)

	require.NoError(t, store.Set(ctx, orders, "c", map[string]any{"timestamp": base.Add(time.Minute)}))
	snap = nextQuery(t, sub)
	ids := make([]string, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		ids = append(ids, doc.ID)
	}
	assert.Equal(t, []string{"b", "c", "a"}, ids)

	// Writes to another collection do not wake the watcher.
	require.NoError(t, store.Set(ctx, "venues/other/orders", "x", map[string]any{"timestamp": base}))
	select {
	case <-sub.Snapshots():
		t.Fatal("snapshot from an unrelated collection")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscription_CancelIsIdempotent(t *testing.T) {
	store := docstore.NewMemoryStore()

	sub, err := store.WatchDocument(context.Background(), "venues", "demo")
	require.NoError(t, err)

	sub.Cancel()
	sub.Cancel()

	<-sub.Done()
	for range sub.Snapshots() {
	}
	_, open := <-sub.Snapshots()
	assert.False(t, open)

	// Writes after cancel must not panic on the closed channel.
	assert.NoError(t, store.Set(context.Background(), "venues", "demo", map[string]any{"name": "x"}))
}
