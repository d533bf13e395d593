// Package archive moves a stored snapshot aside so the next run starts
// from an empty collection.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ArchiveSnapshot moves the snapshot file at path into an "archive"
// directory next to it, adding a timestamp to its name. It returns the
// new path.
func ArchiveSnapshot(path string) (string, error) {
	return archiveAt(path, time.Now())
}

func archiveAt(path string, now time.Time) (string, error) {
	// Check if snapshot exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", fmt.Errorf("snapshot does not exist: %s", path)
	}

	archiveDir := filepath.Join(filepath.Dir(path), "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)

	archivePath := filepath.Join(archiveDir, fmt.Sprintf("%s-%s%s", base, now.Format("20060102-150405"), ext))
	if _, err := os.Stat(archivePath); err == nil {
		// Add microseconds to make it unique
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%s%s", base, now.Format("20060102-150405.000000"), ext))
	}

	if err := os.Rename(path, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive snapshot: %w", err)
	}
	return archivePath, nil
}
