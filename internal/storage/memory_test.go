package storage

import (
	"errors"
	"testing"
)

func TestMemoryStorage(t *testing.T) {
	m := NewMemoryStorage(4)

	if err := m.Set("k", "1234"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, ok, _ := m.Get("k"); !ok || v != "1234" {
		t.Errorf("Get() = %q, %v; want %q, true", v, ok, "1234")
	}

	if err := m.Set("k", "12345"); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("Set() over quota error = %v, want ErrQuotaExceeded", err)
	}

	boom := errors.New("disk full")
	m.FailWrites(boom)
	if err := m.Set("k", "1"); !errors.Is(err, boom) {
		t.Errorf("Set() error = %v, want %v", err, boom)
	}
	m.FailWrites(nil)

	if err := m.Remove("k"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok, _ := m.Get("k"); ok {
		t.Error("Get() after Remove() still found the key")
	}
}
