// ABOUTME: Mirror interface for single-slot blob persistence of the state tree
// ABOUTME: Includes an in-memory implementation used by tests and ephemeral sessions

package mirror

import (
	"errors"
	"sync"
)

// ErrNotFound is returned when the requested key has no stored value.
var ErrNotFound = errors.New("not found")

// Mirror is a persistent key-value slot. The state store serializes the whole
// tree as a single blob under one fixed key on every write. A missing or
// corrupt value is treated by callers as "no saved state", never as a hard
// error.
type Mirror interface {
	// GetItem returns the stored value for key, or ErrNotFound.
	GetItem(key string) (string, error)

	// SetItem stores value under key, replacing any previous value.
	SetItem(key, value string) error
}

// Memory is an in-memory Mirror. The zero value is not usable; construct
// with NewMemory.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory creates an empty in-memory mirror.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// GetItem implements Mirror.
func (m *Memory) GetItem(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// SetItem implements Mirror.
func (m *Memory) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
