package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates the target path with the given content, creating parent
// directories as needed. Used to stand in for clips and audio tracks.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
