// ABOUTME: Mock Documents implementation for testing
// ABOUTME: Allows tests to run without a remote document store

package remote

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MockDocuments is an in-memory Documents implementation for testing.
type MockDocuments struct {
	mu   sync.RWMutex
	docs map[string]Document

	// FailPaths lists path prefixes whose operations return FailErr,
	// simulating per-artifact fetch failures.
	FailPaths []string
	FailErr   error
}

// NewMockDocuments creates a new MockDocuments.
func NewMockDocuments() *MockDocuments {
	return &MockDocuments{docs: make(map[string]Document)}
}

func (m *MockDocuments) failing(path string) error {
	for _, p := range m.FailPaths {
		if strings.HasPrefix(path, p) {
			return m.FailErr
		}
	}
	return nil
}

// ReadDoc retrieves a document by path.
func (m *MockDocuments) ReadDoc(ctx context.Context, path string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failing(path); err != nil {
		return nil, err
	}
	doc, ok := m.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDoc(doc), nil
}

// WriteDoc stores a document, merging top-level fields when merge is set.
func (m *MockDocuments) WriteDoc(ctx context.Context, path string, doc Document, merge bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing(path); err != nil {
		return err
	}
	if merge {
		existing, ok := m.docs[path]
		if ok {
			for k, v := range doc {
				existing[k] = v
			}
			return nil
		}
	}
	m.docs[path] = cloneDoc(doc)
	return nil
}

// ReadCollection returns documents directly under path ordered by orderField.
func (m *MockDocuments) ReadCollection(ctx context.Context, path, orderField string) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failing(path); err != nil {
		return nil, err
	}

	prefix := strings.TrimSuffix(path, "/") + "/"
	var snaps []Snapshot
	for p, doc := range m.docs {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		id := strings.TrimPrefix(p, prefix)
		if strings.Contains(id, "/") {
			continue // nested sub-collection
		}
		snaps = append(snaps, Snapshot{ID: id, Data: cloneDoc(doc)})
	}
	sort.Slice(snaps, func(i, j int) bool {
		a, _ := snaps[i].Data[orderField].(string)
		b, _ := snaps[j].Data[orderField].(string)
		if a != b {
			return a < b
		}
		return snaps[i].ID < snaps[j].ID
	})
	return snaps, nil
}

// DeleteDoc removes a document by path.
func (m *MockDocuments) DeleteDoc(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing(path); err != nil {
		return err
	}
	delete(m.docs, path)
	return nil
}

func cloneDoc(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
