package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"playmi/internal/catalog"
	"playmi/internal/config"
	"playmi/internal/packaging"
	"playmi/internal/wifiqr"
)

// MustOpenPackageStore opens a packaging.Store for tests and registers cleanup.
func MustOpenPackageStore(t testing.TB, cfg *config.Config) *packaging.Store {
	t.Helper()

	store, err := packaging.Open(cfg)
	if err != nil {
		t.Fatalf("packaging.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenCatalog opens a catalog.Store for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenQRStore opens a wifiqr.Store for tests and registers cleanup.
func MustOpenQRStore(t testing.TB, cfg *config.Config) *wifiqr.Store {
	t.Helper()

	store, err := wifiqr.OpenStore(cfg)
	if err != nil {
		t.Fatalf("wifiqr.OpenStore: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedCompany inserts a company record for tests.
func SeedCompany(t testing.TB, store *catalog.Store, name string) *catalog.Company {
	t.Helper()

	company, err := store.InsertCompany(context.Background(), &catalog.Company{Name: name})
	if err != nil {
		t.Fatalf("catalog.InsertCompany: %v", err)
	}
	return company
}

// SeedContent inserts a content record for tests, writing a real payload file
// of the requested size under the config's data directory so archive builds
// stream genuine bytes.
func SeedContent(t testing.TB, store *catalog.Store, cfg *config.Config, contentType catalog.ContentType, title string, size int64) *catalog.Content {
	t.Helper()

	path := filepath.Join(cfg.Paths.DataDir, "media", title+".bin")
	WriteFile(t, path, size)

	content, err := store.InsertContent(context.Background(), &catalog.Content{
		Type:      contentType,
		Title:     title,
		Path:      path,
		SizeBytes: size,
	})
	if err != nil {
		t.Fatalf("catalog.InsertContent: %v", err)
	}
	return content
}
