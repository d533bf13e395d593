package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestArchiveSnapshot(t *testing.T) {
	tmpDir := t.TempDir()
	snapshot := filepath.Join(tmpDir, "chinese-words.json")
	if err := os.WriteFile(snapshot, []byte(`[{"character":"你好"}]`), 0644); err != nil {
		t.Fatalf("Failed to create snapshot: %v", err)
	}

	archived, err := ArchiveSnapshot(snapshot)
	if err != nil {
		t.Fatalf("ArchiveSnapshot failed: %v", err)
	}

	if _, err := os.Stat(snapshot); !os.IsNotExist(err) {
		t.Error("Snapshot still exists after archiving")
	}

	if filepath.Dir(archived) != filepath.Join(tmpDir, "archive") {
		t.Errorf("archived into %s, want the archive directory", filepath.Dir(archived))
	}
	name := filepath.Base(archived)
	if !strings.HasPrefix(name, "chinese-words-") || !strings.HasSuffix(name, ".json") {
		t.Errorf("unexpected archive name: %s", name)
	}

	content, err := os.ReadFile(archived)
	if err != nil {
		t.Fatalf("Failed to read archived snapshot: %v", err)
	}
	if string(content) != `[{"character":"你好"}]` {
		t.Errorf("archived content changed: %s", content)
	}
}

func TestArchiveSnapshot_NameClash(t *testing.T) {
	tmpDir := t.TempDir()
	now := time.Date(2024, 1, 2, 3, 4, 5, 6000, time.UTC)

	first := filepath.Join(tmpDir, "words.db")
	os.WriteFile(first, []byte("one"), 0644)
	path1, err := archiveAt(first, now)
	if err != nil {
		t.Fatalf("first archive failed: %v", err)
	}

	os.WriteFile(first, []byte("two"), 0644)
	path2, err := archiveAt(first, now)
	if err != nil {
		t.Fatalf("second archive failed: %v", err)
	}

	if path1 == path2 {
		t.Fatalf("archives collided: %s", path1)
	}
	if filepath.Base(path1) != "words-20240102-030405.db" {
		t.Errorf("unexpected first name: %s", filepath.Base(path1))
	}
	if filepath.Base(path2) != "words-20240102-030405.000006.db" {
		t.Errorf("unexpected second name: %s", filepath.Base(path2))
	}
}

func TestArchiveSnapshot_Missing(t *testing.T) {
	if _, err := ArchiveSnapshot(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing snapshot")
	}
}
