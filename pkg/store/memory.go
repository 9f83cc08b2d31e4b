package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/matzehuels/tokensync/pkg/color"
	"github.com/matzehuels/tokensync/pkg/ir"
)

// DefaultModeName is the name of the mode every new collection starts with.
const DefaultModeName = ir.DefaultMode

// NewID returns a time-ordered identifier. Sorting IDs yields creation order.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// MemoryOptions configures a Memory store.
type MemoryOptions struct {
	// Profile is the document color profile. Defaults to sRGB.
	Profile color.Profile
	// MaxModes caps the number of modes per collection. Zero means no limit.
	MaxModes int
}

// State is a complete copy of a store's contents.
type State struct {
	Profile     color.Profile `json:"profile"`
	MaxModes    int           `json:"max_modes,omitempty"`
	Collections []Collection  `json:"collections"`
	Entries     []Entry       `json:"entries"`
}

// Memory is an in-memory Store. It is safe for concurrent use.
type Memory struct {
	mu          sync.RWMutex
	profile     color.Profile
	maxModes    int
	collections []*Collection
	entries     map[string]*Entry
	order       map[string][]string // collection ID -> entry IDs
}

// NewMemory creates an empty store.
func NewMemory(opts MemoryOptions) *Memory {
	if opts.Profile == "" {
		opts.Profile = color.ProfileSRGB
	}
	return &Memory{
		profile:  opts.Profile,
		maxModes: opts.MaxModes,
		entries:  make(map[string]*Entry),
		order:    make(map[string][]string),
	}
}

// NewMemoryFromState creates a store holding a copy of s.
func NewMemoryFromState(s State) (*Memory, error) {
	m := NewMemory(MemoryOptions{Profile: s.Profile, MaxModes: s.MaxModes})
	for _, c := range s.Collections {
		c := cloneCollection(c)
		m.collections = append(m.collections, &c)
		m.order[c.ID] = nil
	}
	for _, e := range s.Entries {
		if _, ok := m.order[e.CollectionID]; !ok {
			return nil, fmt.Errorf("entry %s: collection %s: %w", e.ID, e.CollectionID, ErrNotFound)
		}
		e := cloneEntry(e)
		m.entries[e.ID] = &e
		m.order[e.CollectionID] = append(m.order[e.CollectionID], e.ID)
	}
	return m, nil
}

// State returns a deep copy of the store's contents.
func (m *Memory) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := State{Profile: m.profile, MaxModes: m.maxModes}
	for _, c := range m.collections {
		s.Collections = append(s.Collections, cloneCollection(*c))
		for _, id := range m.order[c.ID] {
			s.Entries = append(s.Entries, cloneEntry(*m.entries[id]))
		}
	}
	return s
}

func (m *Memory) Profile(ctx context.Context) (color.Profile, error) {
	return m.profile, nil
}

func (m *Memory) ListCollections(ctx context.Context) ([]Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Collection, len(m.collections))
	for i, c := range m.collections {
		out[i] = cloneCollection(*c)
	}
	return out, nil
}

func (m *Memory) ListEntries(ctx context.Context, collectionID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids, ok := m.order[collectionID]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", collectionID, ErrNotFound)
	}
	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i] = cloneEntry(*m.entries[id])
	}
	return out, nil
}

func (m *Memory) GetEntryByID(ctx context.Context, id string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	return cloneEntry(*e), nil
}

func (m *Memory) CreateCollection(ctx context.Context, name string) (Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name == "" {
		return Collection{}, fmt.Errorf("collection name is empty")
	}
	for _, c := range m.collections {
		if c.Name == name {
			return Collection{}, fmt.Errorf("collection %q: %w", name, ErrDuplicateName)
		}
	}
	c := &Collection{
		ID:    NewID(),
		Name:  name,
		Modes: []Mode{{ID: NewID(), Name: DefaultModeName}},
	}
	m.collections = append(m.collections, c)
	m.order[c.ID] = nil
	return cloneCollection(*c), nil
}

func (m *Memory) RemoveCollection(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.IndexFunc(m.collections, func(c *Collection) bool { return c.ID == id })
	if i < 0 {
		return fmt.Errorf("collection %s: %w", id, ErrNotFound)
	}
	for _, eid := range m.order[id] {
		delete(m.entries, eid)
	}
	delete(m.order, id)
	m.collections = slices.Delete(m.collections, i, i+1)
	return nil
}

func (m *Memory) CreateEntry(ctx context.Context, collectionID, name string, kind Kind) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids, ok := m.order[collectionID]
	if !ok {
		return Entry{}, fmt.Errorf("collection %s: %w", collectionID, ErrNotFound)
	}
	switch kind {
	case KindColor, KindFloat, KindString, KindBoolean:
	default:
		return Entry{}, fmt.Errorf("entry %q: unknown kind %q", name, kind)
	}
	if name == "" {
		return Entry{}, fmt.Errorf("entry name is empty")
	}
	for _, id := range ids {
		if m.entries[id].Name == name {
			return Entry{}, fmt.Errorf("entry %q: %w", name, ErrDuplicateName)
		}
	}

	e := &Entry{
		ID:           NewID(),
		CollectionID: collectionID,
		Name:         name,
		Kind:         kind,
		Values:       make(map[string]any),
	}
	m.entries[e.ID] = e
	m.order[collectionID] = append(ids, e.ID)
	return cloneEntry(*e), nil
}

func (m *Memory) SetDescription(ctx context.Context, entryID, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[entryID]
	if !ok {
		return fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
	}
	e.Description = description
	return nil
}

func (m *Memory) SetValue(ctx context.Context, entryID, modeID string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[entryID]
	if !ok {
		return fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
	}
	c := m.collection(e.CollectionID)
	if _, ok := c.ModeByID(modeID); !ok {
		return fmt.Errorf("mode %s in collection %q: %w", modeID, c.Name, ErrNotFound)
	}

	if ref, isRef := v.(Reference); isRef {
		target, ok := m.entries[ref.ID]
		if !ok {
			return fmt.Errorf("reference target %s: %w", ref.ID, ErrNotFound)
		}
		if target.ID == e.ID {
			return fmt.Errorf("entry %q references itself", e.Name)
		}
		if target.Kind != e.Kind {
			return fmt.Errorf("entry %q (%s) referencing %q (%s): %w", e.Name, e.Kind, target.Name, target.Kind, ErrKindMismatch)
		}
	} else if !e.Kind.Accepts(v) {
		return fmt.Errorf("entry %q (%s) given %T: %w", e.Name, e.Kind, v, ErrKindMismatch)
	}
	e.Values[modeID] = v
	return nil
}

func (m *Memory) CreateReference(ctx context.Context, targetID string) (Reference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.entries[targetID]; !ok {
		return Reference{}, fmt.Errorf("entry %s: %w", targetID, ErrNotFound)
	}
	return Reference{ID: targetID}, nil
}

func (m *Memory) AddMode(ctx context.Context, collectionID, name string) (Mode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collection(collectionID)
	if c == nil {
		return Mode{}, fmt.Errorf("collection %s: %w", collectionID, ErrNotFound)
	}
	if _, dup := c.ModeByName(name); dup {
		return Mode{}, fmt.Errorf("mode %q: %w", name, ErrDuplicateName)
	}
	if m.maxModes > 0 && len(c.Modes) >= m.maxModes {
		return Mode{}, fmt.Errorf("collection %q: %w (%d)", c.Name, ErrModeLimit, m.maxModes)
	}
	mode := Mode{ID: NewID(), Name: name}
	c.Modes = append(c.Modes, mode)
	return mode, nil
}

func (m *Memory) RenameMode(ctx context.Context, collectionID, modeID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collection(collectionID)
	if c == nil {
		return fmt.Errorf("collection %s: %w", collectionID, ErrNotFound)
	}
	if other, dup := c.ModeByName(name); dup && other.ID != modeID {
		return fmt.Errorf("mode %q: %w", name, ErrDuplicateName)
	}
	for i := range c.Modes {
		if c.Modes[i].ID == modeID {
			c.Modes[i].Name = name
			return nil
		}
	}
	return fmt.Errorf("mode %s: %w", modeID, ErrNotFound)
}

func (m *Memory) collection(id string) *Collection {
	for _, c := range m.collections {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func cloneCollection(c Collection) Collection {
	c.Modes = slices.Clone(c.Modes)
	return c
}

func cloneEntry(e Entry) Entry {
	e.Values = maps.Clone(e.Values)
	if e.Values == nil {
		e.Values = make(map[string]any)
	}
	return e
}

var _ Store = (*Memory)(nil)
