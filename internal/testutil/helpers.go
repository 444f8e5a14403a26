package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/flashgen/internal/binding"
	"codeberg.org/snonux/flashgen/internal/flashcards"
	"codeberg.org/snonux/flashgen/internal/storage"
)

// QuietLogger returns a logger that discards everything below panic.
func QuietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// MemoryEnv returns a binding environment backed by in-memory storage.
func MemoryEnv(t *testing.T) (binding.Env, *storage.MemoryStorage) {
	t.Helper()

	mem := storage.NewMemoryStorage(0)
	return binding.Env{Storage: mem, Bus: binding.NewBus(), Log: QuietLogger()}, mem
}

// NewStore opens a flashcard store on in-memory storage, closed on cleanup.
// A non-empty credential is stored before returning.
func NewStore(t *testing.T, credential string) *flashcards.Store {
	t.Helper()

	env, _ := MemoryEnv(t)
	store := flashcards.NewStore(env)
	t.Cleanup(store.Close)

	if credential != "" && !store.SetCredential(credential) {
		t.Fatalf("Failed to store credential %q", credential)
	}
	return store
}

// CreateStateDirectory creates a temporary state directory for file storage
func CreateStateDirectory(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "state")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create state directory %s: %v", dir, err)
	}
	return dir
}

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// CreateTextDocument writes a plain text document and returns its path
func CreateTextDocument(t *testing.T, dir, name, text string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	CreateTestFile(t, path, []byte(text))
	return path
}

// CreatePDFDocument writes a minimal PDF file and returns its path
func CreatePDFDocument(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	CreateTestFile(t, path, []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n"))
	return path
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); err == nil {
		t.Errorf("Expected file to not exist: %s", path)
	}
}

// AssertFileContains checks if a file contains a substring
func AssertFileContains(t *testing.T, path string, substring string) {
	t.Helper()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}

	if !strings.Contains(string(content), substring) {
		t.Errorf("File %s does not contain expected substring: %q", path, substring)
	}
}
