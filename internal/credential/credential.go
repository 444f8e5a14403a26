// Package credential holds the provider API key shared by every
// flashgen session on the machine.
package credential

import (
	"strings"

	"codeberg.org/snonux/flashgen/internal/binding"
)

// StorageKey is the key the API key is stored under.
const StorageKey = "api-key"

// Holder wraps the persisted API key.
type Holder struct {
	b *binding.Binding[string]
}

// NewHolder binds the API key. The key is stored as plain text.
func NewHolder(env binding.Env) *Holder {
	return &Holder{b: binding.BindWithCodec[string](env, StorageKey, "", binding.StringCodec{})}
}

// Value returns the current key, or "" when none is set.
func (h *Holder) Value() string {
	return h.b.Get()
}

// Set stores key after trimming surrounding whitespace. Blank input is
// ignored and reported as false.
func (h *Holder) Set(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	h.b.Set(key)
	return true
}

// Clear forgets the key.
func (h *Holder) Clear() {
	h.b.Reset()
}

// Reload re-reads the key from storage.
func (h *Holder) Reload() {
	h.b.Reload()
}

// IsSet reports whether a non-empty key is held.
func (h *Holder) IsSet() bool {
	return h.b.Get() != ""
}

// Masked returns the key with everything but its last four characters hidden.
func (h *Holder) Masked() string {
	return Mask(h.b.Get())
}

// Mask hides all but the last four characters of key.
func Mask(key string) string {
	if key == "" {
		return "(not set)"
	}
	runes := []rune(key)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", 8) + string(runes[len(runes)-4:])
}

// Subscribe registers fn for key changes.
func (h *Holder) Subscribe(fn func(string)) func() {
	return h.b.Subscribe(fn)
}

// Origin returns the bus origin of the underlying binding.
func (h *Holder) Origin() uint64 {
	return h.b.Origin()
}

// Close detaches the holder from the bus.
func (h *Holder) Close() {
	h.b.Close()
}
