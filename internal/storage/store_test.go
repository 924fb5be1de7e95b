package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pixil98/go-testutil"
)

// mockStoreSpec implements ValidatingSpec for testing FileStore
type mockStoreSpec struct {
	Name  string `json:"name"`
	Value int    `json:"value"`

	invalid bool
}

func (s *mockStoreSpec) Validate() error {
	if s.invalid {
		return fmt.Errorf("invalid spec")
	}
	return nil
}

func writeAsset(t *testing.T, dir string, id Identifier, spec *mockStoreSpec) {
	t.Helper()
	asset := Asset[*mockStoreSpec]{
		Version:    1,
		Identifier: id,
		Spec:       spec,
	}
	data, err := json.Marshal(asset)
	if err != nil {
		t.Fatalf("marshaling asset: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("%s.json", id)), data, 0644); err != nil {
		t.Fatalf("writing asset: %v", err)
	}
}

func TestNewFileStore(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewFileStore[*mockStoreSpec](tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "path", store.path, tmpDir)
	testutil.AssertEqual(t, "records length", len(store.records), 0)
}

func TestNewFileStore_NonExistentDirectory(t *testing.T) {
	_, err := NewFileStore[*mockStoreSpec]("/nonexistent/path/that/does/not/exist")
	if err == nil {
		t.Error("expected error for non-existent directory")
	}
}

func TestNewFileStore_WithExistingAssets(t *testing.T) {
	tmpDir := t.TempDir()
	writeAsset(t, tmpDir, "item-1", &mockStoreSpec{Name: "First", Value: 1})
	writeAsset(t, tmpDir, "item-2", &mockStoreSpec{Name: "Second", Value: 2})

	store, err := NewFileStore[*mockStoreSpec](tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "record count", len(store.records), 2)

	item1, ok := store.Get("item-1")
	testutil.AssertEqual(t, "item-1 found", ok, true)
	testutil.AssertEqual(t, "item-1 name", item1.Name, "First")
	testutil.AssertEqual(t, "item-1 value", item1.Value, 1)
}

func TestFileStore_GetMissing(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewFileStore[*mockStoreSpec](tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, ok := store.Get("missing")
	testutil.AssertEqual(t, "missing not found", ok, false)
}

func TestFileStore_DuplicateIdentifier(t *testing.T) {
	tmpDir := t.TempDir()
	writeAsset(t, tmpDir, "item-1", &mockStoreSpec{Name: "First", Value: 1})

	// Same identifier under a different filename.
	asset := Asset[*mockStoreSpec]{Version: 1, Identifier: "item-1", Spec: &mockStoreSpec{Name: "Clone"}}
	data, _ := json.Marshal(asset)
	if err := os.WriteFile(filepath.Join(tmpDir, "other.json"), data, 0644); err != nil {
		t.Fatalf("writing asset: %v", err)
	}

	_, err := NewFileStore[*mockStoreSpec](tmpDir)
	testutil.AssertErrorContains(t, err, "duplicate key")
}

func TestFileStore_SaveAndReload(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewFileStore[*mockStoreSpec](tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Save("item-1", &mockStoreSpec{Name: "Saved", Value: 7}); err != nil {
		t.Fatalf("saving: %v", err)
	}

	cached, ok := store.Get("item-1")
	testutil.AssertEqual(t, "cached found", ok, true)
	testutil.AssertEqual(t, "cached name", cached.Name, "Saved")

	// A fresh store sees the asset written to disk.
	reloaded, err := NewFileStore[*mockStoreSpec](tmpDir)
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}
	fromDisk, ok := reloaded.Get("item-1")
	testutil.AssertEqual(t, "reloaded found", ok, true)
	testutil.AssertEqual(t, "reloaded name", fromDisk.Name, "Saved")
	testutil.AssertEqual(t, "reloaded value", fromDisk.Value, 7)
}

func TestFileStore_GetAllCopies(t *testing.T) {
	tmpDir := t.TempDir()
	writeAsset(t, tmpDir, "item-1", &mockStoreSpec{Name: "First", Value: 1})

	store, err := NewFileStore[*mockStoreSpec](tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := store.GetAll()
	testutil.AssertEqual(t, "count", len(all), 1)

	delete(all, "item-1")
	_, ok := store.Get("item-1")
	testutil.AssertEqual(t, "store unaffected by caller mutation", ok, true)
}
