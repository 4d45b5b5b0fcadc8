// AngelaMos | 2026
// memory.go

package docstore

import (
	"context"
	"fmt"
	"sync"
)

type memoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]map[string]any
	hub  *hub
}

// NewMemory returns an in-process Store. Values are normalized through
// JSON so reads behave like the hosted drivers.
func NewMemory() Store {
	return &memoryStore{
		docs: make(map[string]map[string]map[string]any),
		hub:  newHub(),
	}
}

func (m *memoryStore) read(collection, id string) map[string]any {
	return cloneMap(m.docs[collection][id])
}

func (m *memoryStore) write(collection, id string, data map[string]any) {
	coll, ok := m.docs[collection]
	if !ok {
		coll = make(map[string]map[string]any)
		m.docs[collection] = coll
	}
	coll[id] = data
}

func (m *memoryStore) Get(_ context.Context, collection, id string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data := m.read(collection, id)
	if data == nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, ErrNotFound)
	}
	return &mapSnapshot{id: id, data: data}, nil
}

func (m *memoryStore) Set(_ context.Context, collection, id string, data any) error {
	doc, err := encode(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.write(collection, id, doc)
	m.mu.Unlock()

	m.hub.publish(collection, id)
	return nil
}

func (m *memoryStore) Merge(
	_ context.Context,
	collection, id string,
	fields map[string]any,
) error {
	patch, err := encode(fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.write(collection, id, deepMerge(m.read(collection, id), patch))
	m.mu.Unlock()

	m.hub.publish(collection, id)
	return nil
}

func (m *memoryStore) Create(_ context.Context, collection, id string, data any) error {
	doc, err := encode(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if _, exists := m.docs[collection][id]; exists {
		m.mu.Unlock()
		return fmt.Errorf("create %s/%s: %w", collection, id, ErrAlreadyExists)
	}
	m.write(collection, id, doc)
	m.mu.Unlock()

	m.hub.publish(collection, id)
	return nil
}

func (m *memoryStore) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	_, existed := m.docs[collection][id]
	delete(m.docs[collection], id)
	m.mu.Unlock()

	if existed {
		m.hub.publish(collection, id)
	}
	return nil
}

func (m *memoryStore) List(
	_ context.Context,
	collection string,
	q Query,
) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.list(collection, q)
}

func (m *memoryStore) list(collection string, q Query) ([]Snapshot, error) {
	var found []*mapSnapshot
	for id, data := range m.docs[collection] {
		ok, err := matches(data, q.Where)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", collection, err)
		}
		if ok {
			found = append(found, &mapSnapshot{id: id, data: cloneMap(data)})
		}
	}

	sortSnapshots(found, q.OrderBy, q.Desc)
	if q.Limit > 0 && len(found) > q.Limit {
		found = found[:q.Limit]
	}

	out := make([]Snapshot, len(found))
	for i, s := range found {
		out[i] = s
	}
	return out, nil
}

func (m *memoryStore) WatchDocument(
	ctx context.Context,
	collection, id string,
	fn func(Snapshot),
) (Unsubscribe, error) {
	return m.hub.watch(ctx, collection, id, func(context.Context) (func(), error) {
		m.mu.RLock()
		data := m.read(collection, id)
		m.mu.RUnlock()

		if data == nil {
			return func() { fn(nil) }, nil
		}
		snap := &mapSnapshot{id: id, data: data}
		return func() { fn(snap) }, nil
	}), nil
}

func (m *memoryStore) WatchCollection(
	ctx context.Context,
	collection string,
	q Query,
	fn func([]Snapshot),
) (Unsubscribe, error) {
	return m.hub.watch(ctx, collection, "", func(context.Context) (func(), error) {
		snaps, err := m.List(ctx, collection, q)
		if err != nil {
			return nil, err
		}
		return func() { fn(snaps) }, nil
	}), nil
}

// RunTransaction holds the store lock for the duration of fn. fn must only
// touch the store through tx.
func (m *memoryStore) RunTransaction(
	ctx context.Context,
	fn func(ctx context.Context, tx Tx) error,
) error {
	m.mu.Lock()
	tx := &memoryTx{store: m, pending: make(map[docKey]map[string]any)}
	err := fn(ctx, tx)
	if err == nil {
		for key, data := range tx.pending {
			m.write(key.collection, key.id, data)
		}
	}
	m.mu.Unlock()

	if err != nil {
		return err
	}

	for _, key := range tx.order {
		m.hub.publish(key.collection, key.id)
	}
	return nil
}

func (m *memoryStore) Ping(context.Context) error { return nil }

func (m *memoryStore) Close() error { return nil }

type docKey struct {
	collection string
	id         string
}

type memoryTx struct {
	store   *memoryStore
	pending map[docKey]map[string]any
	order   []docKey
}

func (t *memoryTx) current(key docKey) map[string]any {
	if data, ok := t.pending[key]; ok {
		return cloneMap(data)
	}
	return t.store.read(key.collection, key.id)
}

func (t *memoryTx) stage(key docKey, data map[string]any) {
	if _, ok := t.pending[key]; !ok {
		t.order = append(t.order, key)
	}
	t.pending[key] = data
}

func (t *memoryTx) Get(collection, id string) (Snapshot, error) {
	data := t.current(docKey{collection, id})
	if data == nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, ErrNotFound)
	}
	return &mapSnapshot{id: id, data: data}, nil
}

func (t *memoryTx) Set(collection, id string, data any) error {
	doc, err := encode(data)
	if err != nil {
		return err
	}
	t.stage(docKey{collection, id}, doc)
	return nil
}

func (t *memoryTx) Merge(collection, id string, fields map[string]any) error {
	patch, err := encode(fields)
	if err != nil {
		return err
	}
	key := docKey{collection, id}
	t.stage(key, deepMerge(t.current(key), patch))
	return nil
}

func (t *memoryTx) Create(collection, id string, data any) error {
	key := docKey{collection, id}
	if t.current(key) != nil {
		return fmt.Errorf("create %s/%s: %w", collection, id, ErrAlreadyExists)
	}
	return t.Set(collection, id, data)
}
