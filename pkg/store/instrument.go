package store

import (
	"context"
	"time"

	"github.com/matzehuels/tokensync/pkg/color"
	"github.com/matzehuels/tokensync/pkg/observability"
)

// Instrument wraps s so that every call is reported to the registered
// observability.StoreHooks.
func Instrument(s Store) Store {
	if _, done := s.(instrumented); done {
		return s
	}
	return instrumented{s}
}

type instrumented struct {
	next Store
}

func observe(ctx context.Context, op string, start time.Time, err error) {
	observability.Store().OnStoreCall(ctx, op, time.Since(start), err)
}

func (i instrumented) Profile(ctx context.Context) (p color.Profile, err error) {
	defer func(start time.Time) { observe(ctx, "Profile", start, err) }(time.Now())
	return i.next.Profile(ctx)
}

func (i instrumented) ListCollections(ctx context.Context) (cs []Collection, err error) {
	defer func(start time.Time) { observe(ctx, "ListCollections", start, err) }(time.Now())
	return i.next.ListCollections(ctx)
}

func (i instrumented) ListEntries(ctx context.Context, collectionID string) (es []Entry, err error) {
	defer func(start time.Time) { observe(ctx, "ListEntries", start, err) }(time.Now())
	return i.next.ListEntries(ctx, collectionID)
}

func (i instrumented) GetEntryByID(ctx context.Context, id string) (e Entry, err error) {
	defer func(start time.Time) { observe(ctx, "GetEntryByID", start, err) }(time.Now())
	return i.next.GetEntryByID(ctx, id)
}

func (i instrumented) CreateCollection(ctx context.Context, name string) (c Collection, err error) {
	defer func(start time.Time) { observe(ctx, "CreateCollection", start, err) }(time.Now())
	return i.next.CreateCollection(ctx, name)
}

func (i instrumented) RemoveCollection(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { observe(ctx, "RemoveCollection", start, err) }(time.Now())
	return i.next.RemoveCollection(ctx, id)
}

func (i instrumented) CreateEntry(ctx context.Context, collectionID, name string, kind Kind) (e Entry, err error) {
	defer func(start time.Time) { observe(ctx, "CreateEntry", start, err) }(time.Now())
	return i.next.CreateEntry(ctx, collectionID, name, kind)
}

func (i instrumented) SetDescription(ctx context.Context, entryID, description string) (err error) {
	defer func(start time.Time) { observe(ctx, "SetDescription", start, err) }(time.Now())
	return i.next.SetDescription(ctx, entryID, description)
}

func (i instrumented) SetValue(ctx context.Context, entryID, modeID string, v any) (err error) {
	defer func(start time.Time) { observe(ctx, "SetValue", start, err) }(time.Now())
	return i.next.SetValue(ctx, entryID, modeID, v)
}

func (i instrumented) CreateReference(ctx context.Context, targetID string) (r Reference, err error) {
	defer func(start time.Time) { observe(ctx, "CreateReference", start, err) }(time.Now())
	return i.next.CreateReference(ctx, targetID)
}

func (i instrumented) AddMode(ctx context.Context, collectionID, name string) (m Mode, err error) {
	defer func(start time.Time) { observe(ctx, "AddMode", start, err) }(time.Now())
	return i.next.AddMode(ctx, collectionID, name)
}

func (i instrumented) RenameMode(ctx context.Context, collectionID, modeID, name string) (err error) {
	defer func(start time.Time) { observe(ctx, "RenameMode", start, err) }(time.Now())
	return i.next.RenameMode(ctx, collectionID, modeID, name)
}
