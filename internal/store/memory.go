// internal/store/memory.go
package store

import (
	"context"
	"sync"
)

// Memory is a process-local store. Values are lost on restart.
type Memory struct {
	mu   sync.RWMutex
	vals map[Key][]byte
	aux  map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{
		vals: make(map[Key][]byte),
		aux:  make(map[string][]byte),
	}
}

func (m *Memory) Get(_ context.Context, k Key) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vals[k]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, k Key, v []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[k] = append([]byte(nil), v...)
	return nil
}

func (m *Memory) Publish(_ context.Context, name string, v []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aux[name] = append([]byte(nil), v...)
	return nil
}

// Record returns an auxiliary record.
func (m *Memory) Record(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.aux[name]
	return append([]byte(nil), v...), ok
}
