// Package flashcards owns the flashcard sets, the API key and the current
// selection. It is the only writer of the persisted sets and key.
package flashcards

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/flashgen/internal/binding"
	"codeberg.org/snonux/flashgen/internal/credential"
	"codeberg.org/snonux/flashgen/internal/observable"
)

// SetsKey is the storage key holding the JSON array of sets.
const SetsKey = "flashcard-sets"

var (
	ErrSetNotFound  = errors.New("flashcard set not found")
	ErrCardNotFound = errors.New("flashcard not found")
)

// Change is a snapshot of the store delivered to subscribers.
type Change struct {
	Sets          []FlashcardSet
	SelectedID    string
	HasCredential bool
	// Remote is true when the change came from another binding or process.
	Remote bool
}

// Store is the single authoritative view of all flashcard sets.
type Store struct {
	log        *logrus.Entry
	sets       *binding.Binding[[]FlashcardSet]
	credential *credential.Holder

	// writeMu serializes mutations; mu guards selectedID.
	writeMu    sync.Mutex
	mu         sync.RWMutex
	selectedID string

	subject     observable.Subject[Change]
	unsubscribe func()
}

// NewStore loads the persisted sets and key and starts following changes
// announced on env.Bus. The first set, if any, is selected.
func NewStore(env binding.Env) *Store {
	logger := env.Log
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if env.Bus == nil {
		env.Bus = binding.NewBus()
	}

	s := &Store{
		log:        logger.WithField("component", "store"),
		sets:       binding.Bind(env, SetsKey, []FlashcardSet{}),
		credential: credential.NewHolder(env),
	}
	s.selectedID = firstID(s.sets.Get())
	s.unsubscribe = env.Bus.Subscribe(s.handle)
	return s
}

func (s *Store) handle(e binding.Event) {
	if e.Key != SetsKey && e.Key != credential.StorageKey {
		return
	}
	if !e.Native && (e.Origin == s.sets.Origin() || e.Origin == s.credential.Origin()) {
		return
	}
	s.log.WithFields(logrus.Fields{"key": e.Key, "native": e.Native}).Debug("External change")
	s.sync(true)
}

// SyncFromStorage reloads sets and key from storage, overwriting the
// in-memory state.
func (s *Store) SyncFromStorage() {
	s.sync(false)
}

// sync reconciles the selection with the current sets. Remote changes
// have already been applied to the bindings by the bus, so only a local
// sync re-reads storage. The remote path must not take writeMu: it runs
// inside another store's write.
func (s *Store) sync(remote bool) {
	if !remote {
		s.writeMu.Lock()
		s.sets.Reload()
		s.credential.Reload()
	}
	s.mu.Lock()
	s.selectedID = reconcile(s.sets.Get(), s.selectedID)
	s.mu.Unlock()
	if !remote {
		s.writeMu.Unlock()
	}

	s.notify(remote)
}

// reconcile keeps selected if it still exists, otherwise falls back to
// the first set or nothing.
func reconcile(sets []FlashcardSet, selected string) string {
	if selected != "" && indexOf(sets, selected) >= 0 {
		return selected
	}
	return firstID(sets)
}

func firstID(sets []FlashcardSet) string {
	if len(sets) == 0 {
		return ""
	}
	return sets[0].ID
}

func indexOf(sets []FlashcardSet, id string) int {
	for i, set := range sets {
		if set.ID == id {
			return i
		}
	}
	return -1
}

// SetCredential replaces the API key. Blank values are ignored.
func (s *Store) SetCredential(value string) bool {
	s.writeMu.Lock()
	ok := s.credential.Set(value)
	s.writeMu.Unlock()

	if ok {
		s.notify(false)
	}
	return ok
}

// ClearCredential forgets the API key.
func (s *Store) ClearCredential() {
	s.writeMu.Lock()
	s.credential.Clear()
	s.writeMu.Unlock()

	s.notify(false)
}

// AddSet appends a new set built from cards and selects it. The name
// falls back to DefaultSetName when blank. Nothing happens when cards is
// empty; ok reports whether a set was added.
func (s *Store) AddSet(name string, cards []Flashcard) (FlashcardSet, bool) {
	if len(cards) == 0 {
		return FlashcardSet{}, false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultSetName
	}

	set := FlashcardSet{
		ID:        uuid.NewString(),
		Name:      name,
		Cards:     append([]Flashcard(nil), cards...),
		CreatedAt: time.Now(),
	}

	s.writeMu.Lock()
	s.sets.Update(func(current []FlashcardSet) []FlashcardSet {
		return append(cloneSets(current), set)
	})
	s.mu.Lock()
	s.selectedID = set.ID
	s.mu.Unlock()
	s.writeMu.Unlock()

	s.notify(false)
	return set, true
}

// DeleteSet removes a set. Deleting the selected set moves the selection
// to the first remaining set.
func (s *Store) DeleteSet(id string) error {
	s.writeMu.Lock()
	current := s.sets.Get()
	idx := indexOf(current, id)
	if idx < 0 {
		s.writeMu.Unlock()
		return ErrSetNotFound
	}

	next := cloneSets(current)
	next = append(next[:idx], next[idx+1:]...)
	s.sets.Set(next)

	s.mu.Lock()
	s.selectedID = reconcile(next, s.selectedID)
	s.mu.Unlock()
	s.writeMu.Unlock()

	s.notify(false)
	return nil
}

// UpdateCard rewrites the question and answer of one card in place. Its
// id, creation time and position are kept.
func (s *Store) UpdateCard(setID, cardID, question, answer string) error {
	s.writeMu.Lock()
	current := s.sets.Get()
	setIdx := indexOf(current, setID)
	if setIdx < 0 {
		s.writeMu.Unlock()
		return ErrSetNotFound
	}

	cardIdx := -1
	for i, c := range current[setIdx].Cards {
		if c.ID == cardID {
			cardIdx = i
			break
		}
	}
	if cardIdx < 0 {
		s.writeMu.Unlock()
		return ErrCardNotFound
	}

	next := cloneSets(current)
	next[setIdx].Cards[cardIdx].Question = question
	next[setIdx].Cards[cardIdx].Answer = answer
	s.sets.Set(next)
	s.writeMu.Unlock()

	s.notify(false)
	return nil
}

// SelectSet selects a set. Unknown ids leave the selection unchanged.
func (s *Store) SelectSet(id string) bool {
	// check and assign under mu so a concurrent reconcile cannot interleave
	s.mu.Lock()
	if indexOf(s.sets.Get(), id) < 0 {
		s.mu.Unlock()
		return false
	}
	s.selectedID = id
	s.mu.Unlock()

	s.notify(false)
	return true
}

// Sets returns a copy of all sets in insertion order.
func (s *Store) Sets() []FlashcardSet {
	return cloneSets(s.sets.Get())
}

// Set returns the set with the given id.
func (s *Store) Set(id string) (FlashcardSet, bool) {
	sets := s.sets.Get()
	idx := indexOf(sets, id)
	if idx < 0 {
		return FlashcardSet{}, false
	}
	return cloneSets(sets[idx : idx+1])[0], true
}

// SelectedID returns the id of the selected set, or "".
func (s *Store) SelectedID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedID
}

// Selected returns the selected set.
func (s *Store) Selected() (FlashcardSet, bool) {
	id := s.SelectedID()
	if id == "" {
		return FlashcardSet{}, false
	}
	return s.Set(id)
}

// Credential returns the API key.
func (s *Store) Credential() string {
	return s.credential.Value()
}

// HasCredential reports whether an API key is set.
func (s *Store) HasCredential() bool {
	return s.credential.IsSet()
}

// MaskedCredential returns the API key in display form.
func (s *Store) MaskedCredential() string {
	return s.credential.Masked()
}

// Subscribe registers fn for state changes. Notifications are delivered
// synchronously, after the change is persisted.
func (s *Store) Subscribe(fn func(Change)) func() {
	return s.subject.Subscribe(fn)
}

func (s *Store) notify(remote bool) {
	s.subject.Publish(Change{
		Sets:          s.Sets(),
		SelectedID:    s.SelectedID(),
		HasCredential: s.HasCredential(),
		Remote:        remote,
	})
}

// Close stops following bus events.
func (s *Store) Close() {
	s.unsubscribe()
	s.sets.Close()
	s.credential.Close()
}
