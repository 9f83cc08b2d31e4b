// Package file provides a store persisted as a JSON snapshot on disk.
//
// The whole store is held in memory and rewritten after every mutation, which
// suits the CLI: one process, small documents, human-inspectable state.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/matzehuels/tokensync/pkg/store"
)

// Store is a store.Store backed by a JSON file.
type Store struct {
	*store.Memory

	mu   sync.Mutex
	path string
}

// Open loads the store at path. A missing file yields an empty store
// configured by opts; an existing file keeps its recorded profile and mode
// limit unless they are unset.
func Open(path string, opts store.MemoryOptions) (*Store, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Store{Memory: store.NewMemory(opts), path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}

	var s store.State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse store file %s: %w", path, err)
	}
	if s.Profile == "" {
		s.Profile = opts.Profile
	}
	if s.MaxModes == 0 {
		s.MaxModes = opts.MaxModes
	}
	mem, err := store.NewMemoryFromState(s)
	if err != nil {
		return nil, fmt.Errorf("load store file %s: %w", path, err)
	}
	return &Store{Memory: mem, path: path}, nil
}

// Path returns the snapshot location.
func (s *Store) Path() string { return s.path }

// Save writes the current state to disk, replacing the previous snapshot
// atomically.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.State(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".store-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

// persist saves after a successful mutation.
func (s *Store) persist(err error) error {
	if err != nil {
		return err
	}
	return s.Save()
}

func (s *Store) CreateCollection(ctx context.Context, name string) (store.Collection, error) {
	c, err := s.Memory.CreateCollection(ctx, name)
	return c, s.persist(err)
}

func (s *Store) RemoveCollection(ctx context.Context, id string) error {
	return s.persist(s.Memory.RemoveCollection(ctx, id))
}

func (s *Store) CreateEntry(ctx context.Context, collectionID, name string, kind store.Kind) (store.Entry, error) {
	e, err := s.Memory.CreateEntry(ctx, collectionID, name, kind)
	return e, s.persist(err)
}

func (s *Store) SetDescription(ctx context.Context, entryID, description string) error {
	return s.persist(s.Memory.SetDescription(ctx, entryID, description))
}

func (s *Store) SetValue(ctx context.Context, entryID, modeID string, v any) error {
	return s.persist(s.Memory.SetValue(ctx, entryID, modeID, v))
}

func (s *Store) AddMode(ctx context.Context, collectionID, name string) (store.Mode, error) {
	m, err := s.Memory.AddMode(ctx, collectionID, name)
	return m, s.persist(err)
}

func (s *Store) RenameMode(ctx context.Context, collectionID, modeID, name string) error {
	return s.persist(s.Memory.RenameMode(ctx, collectionID, modeID, name))
}

var _ store.Store = (*Store)(nil)
