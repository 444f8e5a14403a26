package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// snapshot is what this instance last saw under a key.
type snapshot struct {
	value   string
	deleted bool
}

// FileStorage keeps one file per key inside a state directory. Several
// processes may share the directory; Watch reports the changes made by
// the others.
type FileStorage struct {
	dir        string
	quotaBytes int64

	mu    sync.Mutex
	known map[string]snapshot
}

// NewFileStorage opens (and creates if needed) a state directory. A
// quotaBytes of 0 disables the quota.
func NewFileStorage(dir string, quotaBytes int64) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileStorage{
		dir:        dir,
		quotaBytes: quotaBytes,
		known:      make(map[string]snapshot),
	}, nil
}

// Dir returns the state directory.
func (s *FileStorage) Dir() string {
	return s.dir
}

func (s *FileStorage) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key))
}

// Get implements Storage.
func (s *FileStorage) Get(key string) (string, bool, error) {
	value, ok, err := s.read(key)
	if err != nil {
		return "", false, err
	}

	s.mu.Lock()
	s.known[key] = snapshot{value: value, deleted: !ok}
	s.mu.Unlock()

	return value, ok, nil
}

func (s *FileStorage) read(key string) (string, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set implements Storage. The value is written to a hidden temp file
// and renamed into place so readers never see a partial write.
func (s *FileStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quotaBytes > 0 {
		used, err := s.usage(key)
		if err != nil {
			return err
		}
		if used+int64(len(value)) > s.quotaBytes {
			return fmt.Errorf("set %s (%d bytes, %d in use): %w", key, len(value), used, ErrQuotaExceeded)
		}
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	// Record before the rename so the watcher event for our own write is
	// recognised.
	previous, hadPrevious := s.known[key]
	s.known[key] = snapshot{value: value}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		_ = os.Remove(tmpName)
		if hadPrevious {
			s.known[key] = previous
		} else {
			delete(s.known, key)
		}
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// usage sums the size of every stored value except the one under skip.
func (s *FileStorage) usage(skip string) (int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list state directory: %w", err)
	}

	skipName := url.PathEscape(skip)
	var total int64
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || name == skipName {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}

// Remove implements Storage.
func (s *FileStorage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.known[key] = snapshot{deleted: true}
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Keys lists every stored key.
func (s *FileStorage) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list state directory: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		key, err := url.PathUnescape(entry.Name())
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Watch reports changes made to the state directory by other writers.
// Writes and removals made through this FileStorage are not reported.
// Both channels are closed once ctx is done.
func (s *FileStorage) Watch(ctx context.Context) (<-chan Event, <-chan error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return nil, nil, fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	events := make(chan Event, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(events)
		defer func() { _ = watcher.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
					!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
					continue
				}
				change, ok := s.observe(filepath.Base(ev.Name))
				if !ok {
					continue
				}
				select {
				case events <- change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				select {
				case errs <- err:
				default:
				}
			}
		}
	}()

	return events, errs, nil
}

// observe re-reads a changed file and returns an event when its content
// differs from what this instance last saw.
func (s *FileStorage) observe(name string) (Event, bool) {
	if strings.HasPrefix(name, ".") {
		return Event{}, false
	}
	key, err := url.PathUnescape(name)
	if err != nil {
		return Event{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	value, exists, err := s.read(key)
	if err != nil {
		return Event{}, false
	}

	current := snapshot{value: value, deleted: !exists}
	if last, seen := s.known[key]; seen && last == current {
		return Event{}, false
	}
	s.known[key] = current

	return Event{Key: key, NewValue: value, Deleted: !exists}, true
}
