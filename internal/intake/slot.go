package intake

import "sync"

// Slot holds the currently loaded document. A failed load leaves the
// previous document in place.
type Slot struct {
	mu      sync.RWMutex
	doc     Document
	loaded  bool
	lastErr error
}

// Load replaces the held document with the file at path.
func (s *Slot) Load(path string) (Document, error) {
	doc, err := Load(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	if err != nil {
		return Document{}, err
	}
	s.doc, s.loaded = doc, true
	return doc, nil
}

// Put replaces the held document.
func (s *Slot) Put(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc, s.loaded, s.lastErr = doc, true, nil
}

// Current returns the held document.
func (s *Slot) Current() (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc, s.loaded
}

// Err returns the error of the most recent load, if it failed.
func (s *Slot) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Clear forgets the held document.
func (s *Slot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc, s.loaded, s.lastErr = Document{}, false, nil
}
