// Package storage provides the string key-value store that flashgen
// persists its state in, plus change notifications for writes made by
// other processes sharing the same state directory.
package storage
