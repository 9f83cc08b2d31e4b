package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/tokensync/pkg/color"
	"github.com/matzehuels/tokensync/pkg/store"
)

func TestOpenMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := Open(path, store.MemoryOptions{Profile: color.ProfileDisplayP3})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if p, _ := s.Profile(context.Background()); p != color.ProfileDisplayP3 {
		t.Errorf("Profile() = %q, want display-p3", p)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Open() created %s before any mutation", path)
	}
}

func TestPersistAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "store.json")

	s, err := Open(path, store.MemoryOptions{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	c, err := s.CreateCollection(ctx, "Core")
	if err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	e, _ := s.CreateEntry(ctx, c.ID, "gap", store.KindFloat)
	if err := s.SetValue(ctx, e.ID, c.Modes[0].ID, 12.0); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	if _, err := s.AddMode(ctx, c.ID, "Compact"); err != nil {
		t.Fatalf("AddMode() error = %v", err)
	}

	reopened, err := Open(path, store.MemoryOptions{})
	if err != nil {
		t.Fatalf("Open() existing error = %v", err)
	}
	got, err := reopened.GetEntryByID(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetEntryByID() error = %v", err)
	}
	if got.Values[c.Modes[0].ID] != 12.0 {
		t.Errorf("value = %v, want 12", got.Values[c.Modes[0].ID])
	}
	cols, _ := reopened.ListCollections(ctx)
	if len(cols) != 1 || len(cols[0].Modes) != 2 {
		t.Errorf("collections = %+v, want Core with two modes", cols)
	}
}

func TestFailedMutationDoesNotWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s, _ := Open(path, store.MemoryOptions{})

	if err := s.RemoveCollection(context.Background(), "missing"); err == nil {
		t.Fatal("RemoveCollection(missing) error = nil")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("failed mutation wrote %s", path)
	}
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path, store.MemoryOptions{}); err == nil {
		t.Error("Open(corrupt) error = nil")
	}
}
