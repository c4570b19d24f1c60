package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type memoryIndex struct {
	id    uuid.UUID
	ready bool
}

// Memory is an in-memory Store with the same composite-index semantics as the
// PostgreSQL store. Used by tests and DB-less runs.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	indexes     map[string]*memoryIndex // key: collection|filter|order
	failNext    error
}

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string]Document),
		indexes:     make(map[string]*memoryIndex),
	}
}

// FailNext makes the next store operation return err. Test hook.
func (m *Memory) FailNext(err error) {
	m.mu.Lock()
	m.failNext = err
	m.mu.Unlock()
}

func (m *Memory) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func indexKey(collection, filterField, orderField string) string {
	return collection + "|" + filterField + "|" + orderField
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDoc(doc, id), nil
}

func (m *Memory) Create(ctx context.Context, collection, id string, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]Document)
	}
	if _, exists := m.collections[collection][id]; exists {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrExists)
	}
	m.collections[collection][id] = cloneDoc(doc, id)
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, patch Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	doc, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		doc[k] = v
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	if _, ok := m.collections[collection][id]; !ok {
		return ErrNotFound
	}
	delete(m.collections[collection], id)
	return nil
}

func (m *Memory) Query(ctx context.Context, collection string, filters []Filter, order *Order) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}

	if order != nil && len(filters) > 0 {
		key := indexKey(collection, filters[0].Field, order.Field)
		idx, ok := m.indexes[key]
		if !ok {
			m.indexes[key] = &memoryIndex{id: uuid.New()}
			return nil, &IndexError{Collection: collection, FilterField: filters[0].Field, OrderField: order.Field}
		}
		if !idx.ready {
			return nil, &IndexError{Collection: collection, FilterField: filters[0].Field, OrderField: order.Field}
		}
	}

	var out []Document
	for id, doc := range m.collections[collection] {
		if matches(doc, filters) {
			out = append(out, cloneDoc(doc, id))
		}
	}

	if order != nil {
		sortDocs(out, order)
	}
	return out, nil
}

func (m *Memory) ListIndexes(ctx context.Context) ([]IndexStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]IndexStatus, 0, len(m.indexes))
	for key, idx := range m.indexes {
		parts := splitIndexKey(key)
		out = append(out, IndexStatus{
			ID:          idx.id,
			Collection:  parts[0],
			FilterField: parts[1],
			OrderField:  parts[2],
			Ready:       idx.ready,
		})
	}
	return out, nil
}

func (m *Memory) MarkReady(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, idx := range m.indexes {
		if idx.id == id {
			idx.ready = true
			return nil
		}
	}
	return ErrNotFound
}

// ProvisionAll marks every known index ready. Test hook.
func (m *Memory) ProvisionAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, idx := range m.indexes {
		idx.ready = true
	}
}

func splitIndexKey(key string) [3]string {
	var parts [3]string
	i := 0
	start := 0
	for pos := 0; pos < len(key) && i < 2; pos++ {
		if key[pos] == '|' {
			parts[i] = key[start:pos]
			start = pos + 1
			i++
		}
	}
	parts[2] = key[start:]
	return parts
}

func matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		if compareValues(doc[f.Field], f.Value) != 0 {
			return false
		}
	}
	return true
}

func cloneDoc(doc Document, id string) Document {
	out := make(Document, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	out["id"] = id
	return out
}

func sortDocs(docs []Document, order *Order) {
	sort.SliceStable(docs, func(i, j int) bool {
		c := compareValues(docs[i][order.Field], docs[j][order.Field])
		if order.Desc {
			return c > 0
		}
		return c < 0
	})
}

// compareValues orders two document field values. Mixed types compare by
// their string form, matching the text ordering the SQL store pushes down.
func compareValues(a, b any) int {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as := fmt.Sprint(a)
	bs := fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
