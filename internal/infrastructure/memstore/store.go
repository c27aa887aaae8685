// Package memstore is an in-process document store with the subset of
// Firestore semantics the repositories rely on: serializable transactions,
// strictly increasing server timestamps and live listeners.
package memstore

import (
	"sort"
	"sync"
	"time"
)

// Doc is a document id with its stored value. Values are owned by the store;
// callers store and read copies.
type Doc struct {
	ID    string
	Value any
}

type Option func(*Store)

// WithClock replaces time.Now as the source of server timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]any
	clock       func() time.Time
	last        time.Time

	watchMu  sync.Mutex
	watchers map[*Watch]struct{}
}

func New(opts ...Option) *Store {
	s := &Store{
		collections: make(map[string]map[string]any),
		clock:       time.Now,
		watchers:    make(map[*Watch]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the document stored at collection/id.
func (s *Store) Get(collection, id string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.collections[collection][id]
	return v, ok
}

// List returns every document of collection ordered by id.
func (s *Store) List(collection string) []Doc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(collection)
}

func (s *Store) list(collection string) []Doc {
	docs := make([]Doc, 0, len(s.collections[collection]))
	for id, v := range s.collections[collection] {
		docs = append(docs, Doc{ID: id, Value: v})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

// Now returns a server timestamp. Successive calls never return the same or
// an earlier instant, even when the clock stalls or goes backwards.
func (s *Store) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

func (s *Store) now() time.Time {
	t := s.clock().UTC().Truncate(time.Microsecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

// Update runs fn as a transaction. Transactions are fully serialized, so fn
// always observes a consistent snapshot; its writes become visible together
// when fn returns nil and are discarded otherwise.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	tx := &Tx{store: s, writes: make(map[docKey]write)}
	if err := fn(tx); err != nil {
		s.mu.Unlock()
		return err
	}
	changed := tx.commit()
	s.mu.Unlock()

	s.notify(changed)
	return nil
}

// Set writes a single document outside of a transaction.
func (s *Store) Set(collection, id string, value any) {
	_ = s.Update(func(tx *Tx) error {
		tx.Set(collection, id, value)
		return nil
	})
}

type docKey struct {
	collection string
	id         string
}

type write struct {
	value   any
	deleted bool
}

// Tx is a transaction in progress. It is only valid inside Store.Update.
type Tx struct {
	store  *Store
	writes map[docKey]write
}

// Get reads a document, including writes already buffered by this transaction.
func (tx *Tx) Get(collection, id string) (any, bool) {
	if w, ok := tx.writes[docKey{collection, id}]; ok {
		return w.value, !w.deleted
	}
	v, ok := tx.store.collections[collection][id]
	return v, ok
}

// List returns the committed documents of collection ordered by id.
func (tx *Tx) List(collection string) []Doc {
	return tx.store.list(collection)
}

func (tx *Tx) Set(collection, id string, value any) {
	tx.writes[docKey{collection, id}] = write{value: value}
}

func (tx *Tx) Delete(collection, id string) {
	tx.writes[docKey{collection, id}] = write{deleted: true}
}

// Now returns the commit timestamp of the transaction.
func (tx *Tx) Now() time.Time {
	return tx.store.now()
}

func (tx *Tx) commit() []docKey {
	changed := make([]docKey, 0, len(tx.writes))
	for key, w := range tx.writes {
		col, ok := tx.store.collections[key.collection]
		if !ok {
			col = make(map[string]any)
			tx.store.collections[key.collection] = col
		}
		if w.deleted {
			delete(col, key.id)
		} else {
			col[key.id] = w.value
		}
		changed = append(changed, key)
	}
	return changed
}
