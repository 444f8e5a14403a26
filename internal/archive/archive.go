package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ArchiveState moves the state directory into an archive sibling with a
// timestamped name and returns the new path. The next run starts with an
// empty store.
func ArchiveState(stateDir string, out io.Writer) (string, error) {
	info, err := os.Stat(stateDir)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("state directory does not exist: %s", stateDir)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat state directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("state path is not a directory: %s", stateDir)
	}

	archiveDir := filepath.Join(filepath.Dir(stateDir), "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	archivePath := filepath.Join(archiveDir, "state-"+time.Now().Format("20060102-150405"))
	if _, err := os.Stat(archivePath); err == nil {
		// same second as an earlier archive
		archivePath = filepath.Join(archiveDir, "state-"+time.Now().Format("20060102-150405.000000"))
	}

	if err := os.Rename(stateDir, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive state directory: %w", err)
	}

	if out != nil {
		fmt.Fprintf(out, "State directory archived to: %s\n", archivePath)
	}
	return archivePath, nil
}
