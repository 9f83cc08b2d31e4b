// Package redis provides a store.Store kept in Redis, for setups where
// several processes share one variable store.
//
// Layout (all keys under a configurable prefix):
//
//	<prefix>collections          list of collection IDs in creation order
//	<prefix>collection:<id>      collection JSON (name, modes)
//	<prefix>entries:<id>         list of entry IDs of a collection
//	<prefix>entry:<id>           entry JSON with tagged values
//
// Writes touching several keys use MULTI/EXEC. Name uniqueness checks are
// not atomic; callers serialize mutations.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/matzehuels/tokensync/pkg/color"
	"github.com/matzehuels/tokensync/pkg/store"
)

// DefaultPrefix namespaces keys when Options.Prefix is empty.
const DefaultPrefix = "tokensync:"

// Options configures a Redis store.
type Options struct {
	Prefix   string
	Profile  color.Profile
	MaxModes int
}

// Store is a store.Store backed by Redis.
type Store struct {
	client   goredis.Cmdable
	prefix   string
	profile  color.Profile
	maxModes int
}

// New wraps an existing client.
func New(client goredis.Cmdable, opts Options) *Store {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Profile == "" {
		opts.Profile = color.ProfileSRGB
	}
	return &Store{client: client, prefix: opts.Prefix, profile: opts.Profile, maxModes: opts.MaxModes}
}

// Dial connects to addr and pings it, retrying while the server is not
// reachable yet.
func Dial(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
	err := store.Retry(ctx, store.DefaultConnectAttempts, store.DefaultConnectDelay, func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			return &store.RetryableError{Err: err}
		}
		return nil
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (s *Store) collectionsKey() string        { return s.prefix + "collections" }
func (s *Store) collectionKey(id string) string { return s.prefix + "collection:" + id }
func (s *Store) entriesKey(id string) string    { return s.prefix + "entries:" + id }
func (s *Store) entryKey(id string) string      { return s.prefix + "entry:" + id }

func (s *Store) Profile(ctx context.Context) (color.Profile, error) {
	return s.profile, nil
}

func (s *Store) ListCollections(ctx context.Context) ([]store.Collection, error) {
	ids, err := s.client.LRange(ctx, s.collectionsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.collectionKey(id)
	}
	var out []store.Collection
	err = s.mget(ctx, keys, func(data []byte) error {
		var c store.Collection
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	return out, err
}

func (s *Store) ListEntries(ctx context.Context, collectionID string) ([]store.Entry, error) {
	if _, err := s.getCollection(ctx, collectionID); err != nil {
		return nil, err
	}
	ids, err := s.client.LRange(ctx, s.entriesKey(collectionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.entryKey(id)
	}
	var out []store.Entry
	err = s.mget(ctx, keys, func(data []byte) error {
		var e store.Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	return out, err
}

// mget fetches keys in one round trip and decodes every present value.
func (s *Store) mget(ctx context.Context, keys []string, decode func([]byte) error) error {
	if len(keys) == 0 {
		return nil
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return fmt.Errorf("mget: %w", err)
	}
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		if err := decode([]byte(str)); err != nil {
			return fmt.Errorf("decode %s: %w", keys[i], err)
		}
	}
	return nil
}

func (s *Store) GetEntryByID(ctx context.Context, id string) (store.Entry, error) {
	data, err := s.client.Get(ctx, s.entryKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return store.Entry{}, fmt.Errorf("entry %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return store.Entry{}, fmt.Errorf("get entry %s: %w", id, err)
	}
	var e store.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return store.Entry{}, fmt.Errorf("decode entry %s: %w", id, err)
	}
	return e, nil
}

func (s *Store) getCollection(ctx context.Context, id string) (store.Collection, error) {
	data, err := s.client.Get(ctx, s.collectionKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return store.Collection{}, fmt.Errorf("collection %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return store.Collection{}, fmt.Errorf("get collection %s: %w", id, err)
	}
	var c store.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return store.Collection{}, fmt.Errorf("decode collection %s: %w", id, err)
	}
	return c, nil
}

func (s *Store) putCollection(ctx context.Context, c store.Collection) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.collectionKey(c.ID), data, 0).Err()
}

func (s *Store) putEntry(ctx context.Context, e store.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.entryKey(e.ID), data, 0).Err()
}

func (s *Store) CreateCollection(ctx context.Context, name string) (store.Collection, error) {
	if name == "" {
		return store.Collection{}, fmt.Errorf("collection name is empty")
	}
	existing, err := s.ListCollections(ctx)
	if err != nil {
		return store.Collection{}, err
	}
	for _, c := range existing {
		if c.Name == name {
			return store.Collection{}, fmt.Errorf("collection %q: %w", name, store.ErrDuplicateName)
		}
	}

	c := store.Collection{
		ID:    store.NewID(),
		Name:  name,
		Modes: []store.Mode{{ID: store.NewID(), Name: store.DefaultModeName}},
	}
	data, err := json.Marshal(c)
	if err != nil {
		return store.Collection{}, err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.collectionKey(c.ID), data, 0)
		pipe.RPush(ctx, s.collectionsKey(), c.ID)
		return nil
	})
	if err != nil {
		return store.Collection{}, fmt.Errorf("create collection %q: %w", name, err)
	}
	return c, nil
}

func (s *Store) RemoveCollection(ctx context.Context, id string) error {
	if _, err := s.getCollection(ctx, id); err != nil {
		return err
	}
	ids, err := s.client.LRange(ctx, s.entriesKey(id), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, eid := range ids {
			pipe.Del(ctx, s.entryKey(eid))
		}
		pipe.Del(ctx, s.entriesKey(id), s.collectionKey(id))
		pipe.LRem(ctx, s.collectionsKey(), 0, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove collection %s: %w", id, err)
	}
	return nil
}

func (s *Store) CreateEntry(ctx context.Context, collectionID, name string, kind store.Kind) (store.Entry, error) {
	existing, err := s.ListEntries(ctx, collectionID)
	if err != nil {
		return store.Entry{}, err
	}
	if name == "" {
		return store.Entry{}, fmt.Errorf("entry name is empty")
	}
	for _, e := range existing {
		if e.Name == name {
			return store.Entry{}, fmt.Errorf("entry %q: %w", name, store.ErrDuplicateName)
		}
	}

	e := store.Entry{
		ID:           store.NewID(),
		CollectionID: collectionID,
		Name:         name,
		Kind:         kind,
		Values:       map[string]any{},
	}
	data, err := json.Marshal(e)
	if err != nil {
		return store.Entry{}, err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.entryKey(e.ID), data, 0)
		pipe.RPush(ctx, s.entriesKey(collectionID), e.ID)
		return nil
	})
	if err != nil {
		return store.Entry{}, fmt.Errorf("create entry %q: %w", name, err)
	}
	return e, nil
}

func (s *Store) SetDescription(ctx context.Context, entryID, description string) error {
	e, err := s.GetEntryByID(ctx, entryID)
	if err != nil {
		return err
	}
	e.Description = description
	return s.putEntry(ctx, e)
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

	if e.Values == nil {
		e.Values = map[string]any{}
	}
	e.Values[modeID] = v
	return s.putEntry(ctx, e)
}

func (s *Store) CreateReference(ctx context.Context, targetID string) (store.Reference, error) {
	n, err := s.client.Exists(ctx, s.entryKey(targetID)).Result()
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
	c.Modes = append(c.Modes, m)
	return m, s.putCollection(ctx, c)
}

func (s *Store) RenameMode(ctx context.Context, collectionID, modeID, name string) error {
	c, err := s.getCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	if other, dup := c.ModeByName(name); dup && other.ID != modeID {
		return fmt.Errorf("mode %q: %w", name, store.ErrDuplicateName)
	}
	for i := range c.Modes {
		if c.Modes[i].ID == modeID {
			c.Modes[i].Name = name
			return s.putCollection(ctx, c)
		}
	}
	return fmt.Errorf("mode %s: %w", modeID, store.ErrNotFound)
}

var _ store.Store = (*Store)(nil)
