package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorageRoundTrip(t *testing.T) {
	s, err := NewFileStorage(t.TempDir(), 0)
	require.NoError(t, err)

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("flashcard-sets", `[{"id":"1"}]`))
	value, ok, err := s.Get("flashcard-sets")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, value)

	require.NoError(t, s.Remove("flashcard-sets"))
	_, ok, err = s.Get("flashcard-sets")
	require.NoError(t, err)
	assert.False(t, ok)

	// removing twice is fine
	require.NoError(t, s.Remove("flashcard-sets"))
}

func TestFileStorageKeysAreEscaped(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir, 0)
	require.NoError(t, err)

	require.NoError(t, s.Set("a/b c", "v"))
	_, err = os.Stat(filepath.Join(dir, "a%2Fb%20c"))
	require.NoError(t, err)

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b c"}, keys)
}

func TestFileStorageLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir, 0)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Set("k", strings.Repeat("x", i)))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "k", entries[0].Name())
}

func TestFileStorageQuota(t *testing.T) {
	s, err := NewFileStorage(t.TempDir(), 10)
	require.NoError(t, err)

	require.NoError(t, s.Set("a", "12345"))
	require.NoError(t, s.Set("b", "12345"))

	err = s.Set("c", "1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQuotaExceeded))

	// replacing an existing value only counts the new size
	require.NoError(t, s.Set("a", "54321"))

	value, _, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "54321", value)
}

func TestFileStorageWatchReportsOtherWriters(t *testing.T) {
	dir := t.TempDir()
	local, err := NewFileStorage(dir, 0)
	require.NoError(t, err)
	remote, err := NewFileStorage(dir, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := local.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, remote.Set("api-key", "sk-remote"))

	var got Event
	require.Eventually(t, func() bool {
		select {
		case got = <-events:
			return true
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, Event{Key: "api-key", NewValue: "sk-remote"}, got)

	require.NoError(t, remote.Remove("api-key"))
	require.Eventually(t, func() bool {
		select {
		case got = <-events:
			return got.Deleted
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "api-key", got.Key)
}

func TestFileStorageWatchIgnoresOwnWrites(t *testing.T) {
	s, err := NewFileStorage(t.TempDir(), 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := s.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Set("flashcard-sets", "[]"))
	require.NoError(t, s.Remove("flashcard-sets"))

	assert.Never(t, func() bool {
		select {
		case <-events:
			return true
		default:
			return false
		}
	}, 300*time.Millisecond, 10*time.Millisecond)
}

func TestFileStorageWatchClosesOnCancel(t *testing.T) {
	s, err := NewFileStorage(t.TempDir(), 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	events, errs, err := s.Watch(ctx)
	require.NoError(t, err)
	cancel()

	for range events {
	}
	_, open := <-errs
	assert.False(t, open)
}
