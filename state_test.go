package inkframe

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStateStore_RoundTrip(t *testing.T) {
	for _, st := range []CacheState{{ETag: `"abc"`}, {ETag: "W/\"weak\""}, {}} {
		store := StateStore{Path: filepath.Join(t.TempDir(), "gallery-state.json"), Logger: quietLogger()}
		if err := store.Save(st); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if diff := cmp.Diff(st, store.Load()); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
		matches, _ := filepath.Glob(filepath.Join(filepath.Dir(store.Path), "*.tmp"))
		if len(matches) != 0 {
			t.Errorf("temporary files left behind: %v", matches)
		}
	}
}

func TestStateStore_SaveOverOrphanedTemp(t *testing.T) {
	store := StateStore{Path: filepath.Join(t.TempDir(), "gallery-state.json"), Logger: quietLogger()}
	if err := os.WriteFile(store.Path+".tmp", []byte(`{"etag":"stale-and-much-longer-than-the-new-one"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(CacheState{ETag: "abc"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := store.Load(); got.ETag != "abc" {
		t.Fatalf("etag=%q", got.ETag)
	}
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(store.Path), "*.tmp"))
	if len(matches) != 0 {
		t.Fatalf("temporary files left behind: %v", matches)
	}
}

func TestStateStore_LoadDefaults(t *testing.T) {
	dir := t.TempDir()
	absent := StateStore{Path: filepath.Join(dir, "absent.json"), Logger: quietLogger()}
	if got := absent.Load(); got.ETag != "" {
		t.Fatalf("absent state: got %+v", got)
	}

	corrupt := filepath.Join(dir, "corrupt.json")
	if err := os.WriteFile(corrupt, []byte("{etag"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := (StateStore{Path: corrupt, Logger: quietLogger()}).Load(); got.ETag != "" {
		t.Fatalf("corrupt state: got %+v", got)
	}
}

func TestStateStore_LoadLegacyNull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gallery-state.json")
	if err := os.WriteFile(path, []byte(`{"etag": null}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := (StateStore{Path: path, Logger: quietLogger()}).Load(); got.ETag != "" {
		t.Fatalf("null etag: got %+v", got)
	}
}

func TestStateStore_SaveFailure(t *testing.T) {
	store := StateStore{Path: filepath.Join(t.TempDir(), "missing-dir", "state.json")}
	err := store.Save(CacheState{ETag: "x"})
	if !IsStateError(err) {
		t.Fatalf("want StateError, got %v", err)
	}
}
