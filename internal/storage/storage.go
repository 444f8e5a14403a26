package storage

import "errors"

// ErrQuotaExceeded is returned when a value does not fit the configured quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Storage is a synchronous string key-value store.
type Storage interface {
	// Get returns the value stored under key; ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
}

// Event describes a change made to a key by another process.
type Event struct {
	Key      string
	NewValue string
	Deleted  bool
}
