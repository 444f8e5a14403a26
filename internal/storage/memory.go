package storage

import (
	"fmt"
	"sync"
)

// MemoryStorage keeps values in memory. It is used in tests and as a
// scratch backend when no state directory is wanted.
type MemoryStorage struct {
	mu         sync.RWMutex
	values     map[string]string
	quotaBytes int
	failWrites error
}

// NewMemoryStorage creates an empty in-memory store. A quotaBytes of 0
// disables the size check.
func NewMemoryStorage(quotaBytes int) *MemoryStorage {
	return &MemoryStorage{
		values:     make(map[string]string),
		quotaBytes: quotaBytes,
	}
}

// Get implements Storage.
func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements Storage.
func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWrites != nil {
		return m.failWrites
	}
	if m.quotaBytes > 0 && len(value) > m.quotaBytes {
		return fmt.Errorf("set %s (%d bytes): %w", key, len(value), ErrQuotaExceeded)
	}
	m.values[key] = value
	return nil
}

// Remove implements Storage.
func (m *MemoryStorage) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// FailWrites makes every following Set return err. Pass nil to recover.
func (m *MemoryStorage) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrites = err
}
