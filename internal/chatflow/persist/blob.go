// Package persist provides durable key/value blob storage for the
// conversation store. Backends share one small interface: read a blob by
// key, write a blob by key.
package persist

import "sync"

// Blob is the persistence adapter consumed by the conversation store.
type Blob interface {
	// Read returns the blob for key. ok is false when the key has never
	// been written.
	Read(key string) (value string, ok bool, err error)
	// Write stores the blob for key, replacing any previous value.
	Write(key, value string) error
}

// Memory is an in-memory Blob, used in tests and as a throwaway backend.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
	// Writes counts Write calls, letting tests assert on persistence
	// frequency.
	writes int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Read(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Write(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	m.writes++
	return nil
}

// WriteCount returns the number of Write calls so far.
func (m *Memory) WriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
