package materialize

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/tokensync/pkg/color"
	"github.com/matzehuels/tokensync/pkg/store"
)

// prefetchLimit bounds concurrent ListEntries calls during prefetch.
const prefetchLimit = 8

// index caches store state for the duration of one call. It is updated in
// place as the run creates things and is never shared between calls.
type index struct {
	profile     color.Profile
	collections []*collectionState
	byName      map[string]*collectionState
	byEntryID   map[string]store.Entry
}

type collectionState struct {
	coll    store.Collection
	entries map[string]store.Entry // by name
	names   []string                // entry names in store order
	// created marks collections created during this run.
	created bool
	// claimed marks modes that received a context during this run.
	claimed map[string]bool
}

// entryRef locates an entry by collection and name.
type entryRef struct {
	collection string
	name       string
}

func (r entryRef) String() string { return r.collection + "/" + r.name }

// prefetch reads the store's profile, collections and entries. Entry lists
// are fetched concurrently; no mutation happens here.
func prefetch(ctx context.Context, s store.Store) (*index, error) {
	profile, err := s.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	colls, err := s.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	lists := make([][]store.Entry, len(colls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchLimit)
	for i, c := range colls {
		g.Go(func() error {
			entries, err := s.ListEntries(gctx, c.ID)
			if err != nil {
				return fmt.Errorf("list entries of %q: %w", c.Name, err)
			}
			lists[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx := &index{
		profile:   profile,
		byName:    make(map[string]*collectionState, len(colls)),
		byEntryID: make(map[string]store.Entry),
	}
	for i, c := range colls {
		cs := idx.addCollection(c, false)
		for _, e := range lists[i] {
			idx.addEntry(cs, e)
		}
	}
	return idx, nil
}

func (idx *index) addCollection(c store.Collection, created bool) *collectionState {
	cs := &collectionState{
		coll:    c,
		entries: make(map[string]store.Entry),
		created: created,
		claimed: make(map[string]bool),
	}
	idx.collections = append(idx.collections, cs)
	idx.byName[c.Name] = cs
	return cs
}

func (idx *index) addEntry(cs *collectionState, e store.Entry) {
	if _, exists := cs.entries[e.Name]; !exists {
		cs.names = append(cs.names, e.Name)
	}
	cs.entries[e.Name] = e
	idx.byEntryID[e.ID] = e
}

// lookup returns the entry at ref if it exists.
func (idx *index) lookup(ref entryRef) (store.Entry, bool) {
	cs, ok := idx.byName[ref.collection]
	if !ok {
		return store.Entry{}, false
	}
	e, ok := cs.entries[ref.name]
	return e, ok
}

// remove drops a collection and its entries.
func (idx *index) remove(cs *collectionState) {
	for _, e := range cs.entries {
		delete(idx.byEntryID, e.ID)
	}
	delete(idx.byName, cs.coll.Name)
	for i, c := range idx.collections {
		if c == cs {
			idx.collections = append(idx.collections[:i], idx.collections[i+1:]...)
			break
		}
	}
}

// collectionByID returns the collection with the given ID.
func (idx *index) collectionByID(id string) (*collectionState, bool) {
	for _, cs := range idx.collections {
		if cs.coll.ID == id {
			return cs, true
		}
	}
	return nil, false
}

// collectionNames returns the names of all known collections in order.
func (idx *index) collectionNames() []string {
	names := make([]string, len(idx.collections))
	for i, cs := range idx.collections {
		names[i] = cs.coll.Name
	}
	return names
}
