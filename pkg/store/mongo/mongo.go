// Package mongo provides a store.Store kept in MongoDB.
//
// Collections and entries live in two MongoDB collections of the configured
// database. IDs are time-ordered, so sorting by _id returns creation order.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/tokensync/pkg/color"
	"github.com/matzehuels/tokensync/pkg/store"
)

// MongoDB collection names.
const (
	collectionsName = "collections"
	entriesName     = "entries"
)

// Options configures a MongoDB store.
type Options struct {
	Profile  color.Profile
	MaxModes int
}

// Store is a store.Store backed by MongoDB.
type Store struct {
	collections *mongo.Collection
	entries     *mongo.Collection
	profile     color.Profile
	maxModes    int
}

// Connect opens a client for uri and pings it, retrying while the server
// is not reachable yet.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	err = store.Retry(ctx, store.DefaultConnectAttempts, store.DefaultConnectDelay, func() error {
		if err := client.Ping(ctx, nil); err != nil {
			return &store.RetryableError{Err: err}
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// New creates a store in db.
func New(db *mongo.Database, opts Options) *Store {
	if opts.Profile == "" {
		opts.Profile = color.ProfileSRGB
	}
	return &Store{
		collections: db.Collection(collectionsName),
		entries:     db.Collection(entriesName),
		profile:     opts.Profile,
		maxModes:    opts.MaxModes,
	}
}

// entryDoc is the stored form of an entry.
type entryDoc struct {
	ID           string                       `bson:"_id"`
	CollectionID string                       `bson:"collection_id"`
	Name         string                       `bson:"name"`
	Kind         store.Kind                   `bson:"kind"`
	Description  string                       `bson:"description,omitempty"`
	Values       map[string]store.TaggedValue `bson:"values"`
}

func toDoc(e store.Entry) (entryDoc, error) {
	values, err := store.TagValues(e.Values)
	if err != nil {
		return entryDoc{}, err
	}
	return entryDoc{
		ID:           e.ID,
		CollectionID: e.CollectionID,
		Name:         e.Name,
		Kind:         e.Kind,
		Description:  e.Description,
		Values:       values,
	}, nil
}

func (d entryDoc) entry() (store.Entry, error) {
	values, err := store.UntagValues(d.Values)
	if err != nil {
		return store.Entry{}, fmt.Errorf("entry %s: %w", d.ID, err)
	}
	return store.Entry{
		ID:           d.ID,
		CollectionID: d.CollectionID,
		Name:         d.Name,
		Kind:         d.Kind,
		Description:  d.Description,
		Values:       values,
	}, nil
}

var byID = options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

func (s *Store) Profile(ctx context.Context) (color.Profile, error) {
	return s.profile, nil
}

func (s *Store) ListCollections(ctx context.Context) ([]store.Collection, error) {
	cur, err := s.collections.Find(ctx, bson.D{}, byID)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	var out []store.Collection
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode collections: %w", err)
	}
	return out, nil
}

func (s *Store) getCollection(ctx context.Context, id string) (store.Collection, error) {
	var c store.Collection
	err := s.collections.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return c, fmt.Errorf("collection %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return c, fmt.Errorf("get collection %s: %w", id, err)
	}
	return c, nil
}

func (s *Store) ListEntries(ctx context.Context, collectionID string) ([]store.Entry, error) {
	if _, err := s.getCollection(ctx, collectionID); err != nil {
		return nil, err
	}
	cur, err := s.entries.Find(ctx, bson.M{"collection_id": collectionID}, byID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	var docs []entryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	out := make([]store.Entry, 0, len(docs))
	for _, d := range docs {
		e, err := d.entry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) GetEntryByID(ctx context.Context, id string) (store.Entry, error) {
	var d entryDoc
	err := s.entries.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Entry{}, fmt.Errorf("entry %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return store.Entry{}, fmt.Errorf("get entry %s: %w", id, err)
	}
	return d.entry()
}

func (s *Store) CreateCollection(ctx context.Context, name string) (store.Collection, error) {
	if name == "" {
		return store.Collection{}, fmt.Errorf("collection name is empty")
	}
	n, err := s.collections.CountDocuments(ctx, bson.M{"name": name})
	if err != nil {
		return store.Collection{}, fmt.Errorf("lookup collection %q: %w", name, err)
	}
	if n > 0 {
		return store.Collection{}, fmt.Errorf("collection %q: %w", name, store.ErrDuplicateName)
	}

	c := store.Collection{
		ID:    store.NewID(),
		Name:  name,
		Modes: []store.Mode{{ID: store.NewID(), Name: store.DefaultModeName}},
	}
	if _, err := s.collections.InsertOne(ctx, c); err != nil {
		return store.Collection{}, fmt.Errorf("create collection %q: %w", name, err)
	}
	return c, nil
}

func (s *Store) RemoveCollection(ctx context.Context, id string) error {
	res, err := s.collections.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("remove collection %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("collection %s: %w", id, store.ErrNotFound)
	}
	if _, err := s.entries.DeleteMany(ctx, bson.M{"collection_id": id}); err != nil {
		return fmt.Errorf("remove entries of %s: %w", id, err)
	}
	return nil
}

func (s *Store) CreateEntry(ctx context.Context, collectionID, name string, kind store.Kind) (store.Entry, error) {
	if _, err := s.getCollection(ctx, collectionID); err != nil {
		return store.Entry{}, err
	}
	if name == "" {
		return store.Entry{}, fmt.Errorf("entry name is empty")
	}
	n, err := s.entries.CountDocuments(ctx, bson.M{"collection_id": collectionID, "name": name})
	if err != nil {
		return store.Entry{}, fmt.Errorf("lookup entry %q: %w", name, err)
	}
	if n > 0 {
		return store.Entry{}, fmt.Errorf("entry %q: %w", name, store.ErrDuplicateName)
	}

	e := store.Entry{
		ID:           store.NewID(),
		CollectionID: collectionID,
		Name:         name,
		Kind:         kind,
		Values:       map[string]any{},
	}
	doc, err := toDoc(e)
	if err != nil {
		return store.Entry{}, err
	}
	if _, err := s.entries.InsertOne(ctx, doc); err != nil {
		return store.Entry{}, fmt.Errorf("create entry %q: %w", name, err)
	}
	return e, nil
}

func (s *Store) update(ctx context.Context, id string, update bson.M) error {
	res, err := s.entries.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update entry %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("entry %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) SetDescription(ctx context.Context, entryID, description string) error {
	return s.update(ctx, entryID, bson.M{"$set": bson.M{"description": description}})
}

func (s *Store) SetValue(ctx context.Context, entryID, modeID string, v any) error {
	e, err := s.GetEntryByID(ctx, entryID)
	if err != nil {
		return err
	}
	c, err := s.getCollection(ctx, e.CollectionID)
	if err != nil {
		return err
	}
	if _, ok := c.ModeByID(modeID); !ok {
		return fmt.Errorf("mode %s in collection %q: %w", modeID, c.Name, store.ErrNotFound)
	}

	if ref, isRef := v.(store.Reference); isRef {
		target, err := s.GetEntryByID(ctx, ref.ID)
		if err != nil {
			return err
		}
		if target.ID == e.ID {
			return fmt.Errorf("entry %q references itself", e.Name)
		}
		if target.Kind != e.Kind {
			return fmt.Errorf("entry %q referencing %q: %w", e.Name, target.Name, store.ErrKindMismatch)
		}
	} else if !e.Kind.Accepts(v) {
		return fmt.Errorf("entry %q (%s) given %T: %w", e.Name, e.Kind, v, store.ErrKindMismatch)
	}

	tagged, err := store.Tag(v)
	if err != nil {
		return err
	}
	return s.update(ctx, entryID, bson.M{"$set": bson.M{"values." + modeID: tagged}})
}

func (s *Store) CreateReference(ctx context.Context, targetID string) (store.Reference, error) {
	n, err := s.entries.CountDocuments(ctx, bson.M{"_id": targetID})
	if err != nil {
		return store.Reference{}, fmt.Errorf("lookup entry %s: %w", targetID, err)
	}
	if n == 0 {
		return store.Reference{}, fmt.Errorf("entry %s: %w", targetID, store.ErrNotFound)
	}
	return store.Reference{ID: targetID}, nil
}

func (s *Store) AddMode(ctx context.Context, collectionID, name string) (store.Mode, error) {
	c, err := s.getCollection(ctx, collectionID)
	if err != nil {
		return store.Mode{}, err
	}
	if _, dup := c.ModeByName(name); dup {
		return store.Mode{}, fmt.Errorf("mode %q: %w", name, store.ErrDuplicateName)
	}
	if s.maxModes > 0 && len(c.Modes) >= s.maxModes {
		return store.Mode{}, fmt.Errorf("collection %q: %w (%d)", c.Name, store.ErrModeLimit, s.maxModes)
	}
	m := store.Mode{ID: store.NewID(), Name: name}
	if _, err := s.collections.UpdateOne(ctx, bson.M{"_id": collectionID}, bson.M{"$push": bson.M{"modes": m}}); err != nil {
		return store.Mode{}, fmt.Errorf("add mode %q: %w", name, err)
	}
	return m, nil
}

func (s *Store) RenameMode(ctx context.Context, collectionID, modeID, name string) error {
	c, err := s.getCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	if other, dup := c.ModeByName(name); dup && other.ID != modeID {
		return fmt.Errorf("mode %q: %w", name, store.ErrDuplicateName)
	}
	res, err := s.collections.UpdateOne(ctx,
		bson.M{"_id": collectionID, "modes.id": modeID},
		bson.M{"$set": bson.M{"modes.$.name": name}})
	if err != nil {
		return fmt.Errorf("rename mode %s: %w", modeID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mode %s: %w", modeID, store.ErrNotFound)
	}
	return nil
}

var _ store.Store = (*Store)(nil)
