// Package memory is an in-process repository.Backend. It backs the test
// suites and the STORE_DRIVER=memory development mode; nothing survives a
// restart.
package memory

import (
	"context"
	"sync"

	"github.com/sakif/openlecture/internal/repository"
)

// compile-time check that *Store implements repository.Backend
var _ repository.Backend = (*Store)(nil)

type table struct {
	docs  map[string][]byte
	order []string // insertion order, for a stable List
}

// Store keeps documents in maps guarded by one RWMutex.
type Store struct {
	mu     sync.RWMutex
	tables map[repository.Kind]*table
}

// New returns an empty store.
func New() *Store {
	return &Store{tables: make(map[repository.Kind]*table)}
}

func (s *Store) List(_ context.Context, kind repository.Kind) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[kind]
	if !ok {
		return [][]byte{}, nil
	}
	out := make([][]byte, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, clone(t.docs[id]))
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, kind repository.Kind, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[kind]
	if !ok {
		return nil, repository.ErrNoRecord
	}
	doc, ok := t.docs[id]
	if !ok {
		return nil, repository.ErrNoRecord
	}
	return clone(doc), nil
}

func (s *Store) Put(_ context.Context, kind repository.Kind, id string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[kind]
	if !ok {
		t = &table{docs: make(map[string][]byte)}
		s.tables[kind] = t
	}
	if _, exists := t.docs[id]; !exists {
		t.order = append(t.order, id)
	}
	t.docs[id] = clone(doc)
	return nil
}

func (s *Store) Delete(_ context.Context, kind repository.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[kind]
	if !ok {
		return nil
	}
	if _, exists := t.docs[id]; !exists {
		return nil
	}
	delete(t.docs, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Raw returns the stored document for id, for tests that assert on the
// exact encoding.
func (s *Store) Raw(kind repository.Kind, id string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[kind]
	if !ok {
		return nil, false
	}
	doc, ok := t.docs[id]
	return clone(doc), ok
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
