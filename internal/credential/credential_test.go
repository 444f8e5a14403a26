package credential

import (
	"testing"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/flashgen/internal/binding"
	"codeberg.org/snonux/flashgen/internal/storage"
)

func newHolder(t *testing.T) (*Holder, *storage.MemoryStorage) {
	t.Helper()
	mem := storage.NewMemoryStorage(0)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewHolder(binding.Env{Storage: mem, Bus: binding.NewBus(), Log: log}), mem
}

func TestHolderSet(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   string
	}{
		{"plain key", "sk-abc", true, "sk-abc"},
		{"trimmed", "  sk-abc \n", true, "sk-abc"},
		{"blank", "   ", false, ""},
		{"empty", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mem := newHolder(t)
			if got := h.Set(tt.input); got != tt.wantOK {
				t.Errorf("Set(%q) = %v, want %v", tt.input, got, tt.wantOK)
			}
			if got := h.Value(); got != tt.want {
				t.Errorf("Value() = %q, want %q", got, tt.want)
			}
			raw, ok, _ := mem.Get(StorageKey)
			if ok != tt.wantOK || raw != tt.want {
				t.Errorf("stored = %q (%v), want %q (%v)", raw, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestHolderClear(t *testing.T) {
	h, mem := newHolder(t)
	h.Set("sk-abc")

	var last *string
	h.Subscribe(func(v string) { last = &v })
	h.Clear()

	if h.IsSet() {
		t.Error("IsSet() = true after Clear()")
	}
	if last == nil || *last != "" {
		t.Error("subscriber was not told about the cleared key")
	}
	if _, ok, _ := mem.Get(StorageKey); ok {
		t.Error("key still stored after Clear()")
	}
}

func TestMask(t *testing.T) {
	tests := map[string]string{
		"":                "(not set)",
		"abc":             "***",
		"sk-ant-12345678": "********5678",
	}
	for in, want := range tests {
		if got := Mask(in); got != want {
			t.Errorf("Mask(%q) = %q, want %q", in, got, want)
		}
	}
}
