package binding

import (
	"sync"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/flashgen/internal/observable"
	"codeberg.org/snonux/flashgen/internal/storage"
)

// Env carries the shared dependencies every binding needs.
type Env struct {
	Storage storage.Storage
	Bus     *Bus
	Log     *logrus.Logger
}

// Binding is a typed value mirrored to one storage key.
type Binding[T any] struct {
	storage storage.Storage
	bus     *Bus
	log     *logrus.Entry
	key     string
	def     T
	codec   Codec[T]
	origin  uint64

	// writeMu serializes writes so storage sees them in the same order
	// as the in-memory value.
	writeMu sync.Mutex
	mu      sync.RWMutex
	value   T

	subject     observable.Subject[T]
	unsubscribe func()
}

// Bind creates a JSON-encoded binding for key.
func Bind[T any](env Env, key string, def T) *Binding[T] {
	return BindWithCodec[T](env, key, def, JSONCodec[T]{})
}

// BindWithCodec creates a binding for key using codec. The initial value
// is read from storage; a missing or undecodable value yields def and
// nothing is written.
func BindWithCodec[T any](env Env, key string, def T, codec Codec[T]) *Binding[T] {
	logger := env.Log
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	bus := env.Bus
	if bus == nil {
		bus = NewBus()
	}

	b := &Binding[T]{
		storage: env.Storage,
		bus:     bus,
		log:     logger.WithField("key", key),
		key:     key,
		def:     def,
		codec:   codec,
		origin:  bus.NewOrigin(),
	}
	b.value, _ = b.load()
	b.unsubscribe = bus.Subscribe(b.handle)
	return b
}

// load reads the stored value. changed is false when the stored value
// could not be decoded and the current value should be kept.
func (b *Binding[T]) load() (value T, changed bool) {
	raw, ok, err := b.storage.Get(b.key)
	if err != nil {
		b.log.WithError(err).Warn("Failed to read stored value")
		return b.def, false
	}
	if !ok {
		return b.def, true
	}
	value, err = b.codec.Decode(raw)
	if err != nil {
		b.log.WithError(err).Warn("Ignoring undecodable stored value")
		return b.def, false
	}
	return value, true
}

// Key returns the storage key.
func (b *Binding[T]) Key() string {
	return b.key
}

// Origin returns the id this binding publishes bus events with.
func (b *Binding[T]) Origin() uint64 {
	return b.origin
}

// Get returns the current value.
func (b *Binding[T]) Get() T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.value
}

// Set replaces the value, writes it to storage, announces it on the bus
// and then notifies subscribers. Write failures are logged; the new value
// stays in memory regardless.
func (b *Binding[T]) Set(v T) {
	b.Update(func(T) T { return v })
}

// Update replaces the value with fn(current) like Set.
func (b *Binding[T]) Update(fn func(T) T) {
	b.writeMu.Lock()
	b.mu.Lock()
	next := fn(b.value)
	b.value = next
	b.mu.Unlock()
	b.persist(next)
	b.writeMu.Unlock()

	b.subject.Publish(next)
}

func (b *Binding[T]) persist(v T) {
	raw, err := b.codec.Encode(v)
	if err != nil {
		b.log.WithError(err).Warn("Failed to encode value")
		return
	}
	if err := b.storage.Set(b.key, raw); err != nil {
		b.log.WithError(err).Warn("Failed to persist value")
		return
	}
	b.bus.Publish(Event{Key: b.key, Raw: raw, Origin: b.origin})
}

// Reload re-reads the value from storage and notifies subscribers.
func (b *Binding[T]) Reload() {
	value, changed := b.load()
	if !changed {
		return
	}
	b.mu.Lock()
	b.value = value
	b.mu.Unlock()

	b.subject.Publish(value)
}

// Reset removes the key from storage and returns to the default value.
func (b *Binding[T]) Reset() {
	b.writeMu.Lock()
	b.mu.Lock()
	b.value = b.def
	b.mu.Unlock()
	if err := b.storage.Remove(b.key); err != nil {
		b.log.WithError(err).Warn("Failed to remove stored value")
	} else {
		b.bus.Publish(Event{Key: b.key, Deleted: true, Origin: b.origin})
	}
	b.writeMu.Unlock()

	b.subject.Publish(b.def)
}

// Subscribe registers fn for value changes, including ones that came
// from other bindings or processes.
func (b *Binding[T]) Subscribe(fn func(T)) func() {
	return b.subject.Subscribe(fn)
}

// Close detaches the binding from the bus.
func (b *Binding[T]) Close() {
	b.unsubscribe()
}

func (b *Binding[T]) handle(e Event) {
	if e.Key != b.key || (e.Origin == b.origin && !e.Native) {
		return
	}

	value := b.def
	if !e.Deleted {
		decoded, err := b.codec.Decode(e.Raw)
		if err != nil {
			b.log.WithError(err).WithField("native", e.Native).Warn("Ignoring undecodable update")
			return
		}
		value = decoded
	}

	b.mu.Lock()
	b.value = value
	b.mu.Unlock()

	b.subject.Publish(value)
}
