package docstore

import (
	"encoding/json"
	"sort"
	"time"
)

// sortDocuments orders docs by the query keys, breaking ties on id. Strings that
// parse as RFC 3339 instants compare as times.
func sortDocuments(docs []Document, orderBy []OrderBy) {
	fields := make([]map[string]any, len(docs))
	for i, doc := range docs {
		var m map[string]any
		_ = json.Unmarshal(doc.Data, &m)
		fields[i] = m
	}

	idx := make([]int, len(docs))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		fa, fb := fields[idx[a]], fields[idx[b]]
		for _, key := range orderBy {
			c := compareValues(fa[key.Field], fb[key.Field])
			if c == 0 {
				continue
			}
			if key.Direction == Desc {
				return c > 0
			}
			return c < 0
		}
		return docs[idx[a]].ID < docs[idx[b]].ID
	})

	sorted := make([]Document, len(docs))
	for i, j := range idx {
		sorted[i] = docs[j]
	}
	copy(docs, sorted)
}

func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	switch x := a.(type) {
	case float64:
		if y, ok := b.(float64); ok {
			return compareOrdered(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			return compareOrdered(boolRank(x), boolRank(y))
		}
	case string:
		if y, ok := b.(string); ok {
			tx, errX := time.Parse(time.RFC3339Nano, x)
			ty, errY := time.Parse(time.RFC3339Nano, y)
			if errX == nil && errY == nil {
				return tx.Compare(ty)
			}
			return compareOrdered(x, y)
		}
	}
	return compareOrdered(typeRank(a), typeRank(b))
}

func compareOrdered[T int | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func typeRank(v any) int {
	switch v.(type) {
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	case []any:
		return 4
	default:
		return 5
	}
}
