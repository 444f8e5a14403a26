package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one document to generate a set from.
type Entry struct {
	Path string
	// Name overrides the set name; empty means use the model's title.
	Name string
}

// ReadBatchFile reads document entries from a file, one per line.
// Supported formats:
// - Path only: "notes/biology.md"
// - Path with set name: "notes/biology.md = Cell Biology"
// Blank lines and lines starting with '#' are skipped. Relative paths are
// resolved against the batch file's directory.
func ReadBatchFile(filename string) ([]Entry, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	baseDir := filepath.Dir(filename)
	entries, err := Parse(string(content))
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if !filepath.IsAbs(entries[i].Path) {
			entries[i].Path = filepath.Join(baseDir, entries[i].Path)
		}
	}
	return entries, nil
}

// Parse reads entries from batch file content without resolving paths.
func Parse(content string) ([]Entry, error) {
	var entries []Entry

	for n, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		path, name, hasName := strings.Cut(line, "=")
		path = strings.TrimSpace(path)
		if path == "" {
			return nil, fmt.Errorf("line %d: missing document path", n+1)
		}

		entry := Entry{Path: path}
		if hasName {
			entry.Name = strings.TrimSpace(name)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
