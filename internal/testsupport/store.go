package testsupport

import (
	"path/filepath"
	"testing"

	"ansci/internal/cachestore"
	"ansci/internal/config"
	"ansci/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenCache opens a cachestore.Store under the config's cache dir and
// registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *cachestore.Store {
	t.Helper()

	store, err := cachestore.Open(filepath.Join(cfg.Paths.CacheDir, "cache.db"), nil)
	if err != nil {
		t.Fatalf("cachestore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
