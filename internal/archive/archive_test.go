package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func createStateDir(t *testing.T, parent string) string {
	t.Helper()

	stateDir := filepath.Join(parent, "state")
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		t.Fatalf("Failed to create state directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(stateDir, "flashcard-sets"), []byte("[]"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return stateDir
}

func TestArchiveState(t *testing.T) {
	tmpDir := t.TempDir()
	stateDir := createStateDir(t, tmpDir)

	var out bytes.Buffer
	archivedPath, err := ArchiveState(stateDir, &out)
	if err != nil {
		t.Fatalf("ArchiveState failed: %v", err)
	}

	if _, err := os.Stat(stateDir); !os.IsNotExist(err) {
		t.Error("State directory still exists after archiving")
	}

	if filepath.Dir(archivedPath) != filepath.Join(tmpDir, "archive") {
		t.Errorf("Archive placed in unexpected directory: %s", archivedPath)
	}
	if !strings.HasPrefix(filepath.Base(archivedPath), "state-") {
		t.Errorf("Archived directory name doesn't start with 'state-': %s", archivedPath)
	}

	if _, err := os.Stat(filepath.Join(archivedPath, "flashcard-sets")); err != nil {
		t.Error("State file not found in archive")
	}

	if !strings.Contains(out.String(), archivedPath) {
		t.Errorf("Expected archive path in output, got %q", out.String())
	}
}

func TestArchiveState_NonExistentDirectory(t *testing.T) {
	_, err := ArchiveState(filepath.Join(t.TempDir(), "nonexistent"), nil)
	if err == nil {
		t.Fatal("Expected error for non-existent directory")
	}
	if !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("Expected 'does not exist' error, got: %v", err)
	}
}

func TestArchiveState_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ArchiveState(path, nil); err == nil {
		t.Error("Expected error for a plain file")
	}
}

func TestArchiveState_MultipleArchives(t *testing.T) {
	tmpDir := t.TempDir()

	for i := 0; i < 2; i++ {
		stateDir := createStateDir(t, tmpDir)
		if i == 1 {
			time.Sleep(10 * time.Millisecond)
		}
		if _, err := ArchiveState(stateDir, nil); err != nil {
			t.Fatalf("ArchiveState failed on iteration %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(filepath.Join(tmpDir, "archive"))
	if err != nil {
		t.Fatalf("Failed to read archive directory: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries in archive directory, got %d", len(entries))
	}
}
