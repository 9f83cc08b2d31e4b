// Package store defines the boundary to a live variable store and ships an
// in-memory implementation.
//
// A store holds collections. Each collection has one or more modes and a flat
// list of entries; every entry has one kind and at most one value per mode.
// Values are one of:
//   - color.RGBA (KindColor), in the store profile's native space
//   - float64 (KindFloat)
//   - string (KindString)
//   - bool (KindBoolean)
//   - Reference, pointing at another entry of the same kind
//
// Backends:
//   - [Memory]: mutex-guarded, used by tests and as the base of the file backend
//   - file: JSON snapshot on disk
//   - redis: shared store for multi-process setups
//   - mongo: document database store
//
// Implementations must be safe for concurrent reads. Callers serialize
// mutations: the lookup-then-create pattern used by importers is not atomic.
package store

import (
	"context"
	"errors"

	"github.com/matzehuels/tokensync/pkg/color"
	"github.com/matzehuels/tokensync/pkg/ir"
)

// Sentinel errors returned by every backend.
var (
	// ErrNotFound is returned when a collection, mode or entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrModeLimit is returned by AddMode when the collection cannot hold
	// another mode.
	ErrModeLimit = errors.New("mode limit reached")

	// ErrDuplicateName is returned when a name is already taken in its scope.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrKindMismatch is returned when a value does not match the entry kind.
	ErrKindMismatch = errors.New("kind mismatch")
)

// Kind is the value kind of a store entry.
type Kind string

// Entry kinds.
const (
	KindColor   Kind = "COLOR"
	KindFloat   Kind = "FLOAT"
	KindString  Kind = "STRING"
	KindBoolean Kind = "BOOLEAN"
)

// KindFor returns the store kind that holds tokens of type t. Typography has
// no store kind.
func KindFor(t ir.Type) (Kind, bool) {
	switch t {
	case ir.TypeColor:
		return KindColor, true
	case ir.TypeNumber:
		return KindFloat, true
	case ir.TypeString:
		return KindString, true
	case ir.TypeBoolean:
		return KindBoolean, true
	}
	return "", false
}

// Type returns the token type for k.
func (k Kind) Type() ir.Type {
	switch k {
	case KindColor:
		return ir.TypeColor
	case KindFloat:
		return ir.TypeNumber
	case KindBoolean:
		return ir.TypeBoolean
	}
	return ir.TypeString
}

// Accepts reports whether v is a valid non-reference value for k.
func (k Kind) Accepts(v any) bool {
	switch v.(type) {
	case color.RGBA:
		return k == KindColor
	case float64:
		return k == KindFloat
	case string:
		return k == KindString
	case bool:
		return k == KindBoolean
	}
	return false
}

// Mode is one named variant of a collection.
type Mode struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

// Collection groups entries that share a set of modes.
type Collection struct {
	ID    string `json:"id" bson:"_id"`
	Name  string `json:"name" bson:"name"`
	Modes []Mode `json:"modes" bson:"modes"`
}

// ModeByName returns the mode called name.
func (c Collection) ModeByName(name string) (Mode, bool) {
	for _, m := range c.Modes {
		if m.Name == name {
			return m, true
		}
	}
	return Mode{}, false
}

// ModeByID returns the mode with the given ID.
func (c Collection) ModeByID(id string) (Mode, bool) {
	for _, m := range c.Modes {
		if m.ID == id {
			return m, true
		}
	}
	return Mode{}, false
}

// Entry is one variable in a collection. Values are keyed by mode ID.
type Entry struct {
	ID           string
	CollectionID string
	Name         string
	Kind         Kind
	Description  string
	Values       map[string]any
}

// Reference is an opaque pointer to another entry.
type Reference struct {
	ID string
}

// Store is the set of primitives the engine needs from a variable store.
type Store interface {
	// Profile returns the color profile of the store's document.
	Profile(ctx context.Context) (color.Profile, error)

	// ListCollections returns all collections in creation order.
	ListCollections(ctx context.Context) ([]Collection, error)
	// ListEntries returns the entries of a collection in creation order.
	ListEntries(ctx context.Context, collectionID string) ([]Entry, error)
	// GetEntryByID returns one entry.
	GetEntryByID(ctx context.Context, id string) (Entry, error)

	// CreateCollection creates a collection with a single default mode.
	CreateCollection(ctx context.Context, name string) (Collection, error)
	// RemoveCollection deletes a collection and its entries.
	RemoveCollection(ctx context.Context, id string) error

	// CreateEntry creates an entry without values.
	CreateEntry(ctx context.Context, collectionID, name string, kind Kind) (Entry, error)
	// SetDescription updates an entry's description.
	SetDescription(ctx context.Context, entryID, description string) error
	// SetValue stores v for one mode of an entry.
	SetValue(ctx context.Context, entryID, modeID string, v any) error
	// CreateReference returns a value that points at the target entry.
	CreateReference(ctx context.Context, targetID string) (Reference, error)

	// AddMode adds a mode to a collection. It returns ErrModeLimit when the
	// collection is full.
	AddMode(ctx context.Context, collectionID, name string) (Mode, error)
	// RenameMode renames an existing mode.
	RenameMode(ctx context.Context, collectionID, modeID, name string) error
}
