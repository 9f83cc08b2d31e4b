package materialize

import (
	"context"
	"strings"

	"github.com/matzehuels/tokensync/pkg/color"
	"github.com/matzehuels/tokensync/pkg/diag"
	"github.com/matzehuels/tokensync/pkg/errors"
	"github.com/matzehuels/tokensync/pkg/ir"
	"github.com/matzehuels/tokensync/pkg/store"
)

// Snapshot reads the whole store into a canonical graph. Every mode with a
// value becomes one context, in the collection's mode order. References to
// missing entries are reported and dropped.
func Snapshot(ctx context.Context, s store.Store, opts Options) (*ir.Graph, error) {
	opts = opts.withDefaults()
	idx, err := prefetch(ctx, s)
	if err != nil {
		return nil, err
	}
	native := idx.profile.NativeSpace()

	g := &ir.Graph{}
	for _, cs := range idx.collections {
		for _, name := range cs.names {
			e := cs.entries[name]
			tok := &ir.Token{
				Path:        entryPath(cs.coll.Name, e.Name),
				Type:        e.Kind.Type(),
				Description: e.Description,
			}
			for _, m := range cs.coll.Modes {
				v, ok := e.Values[m.ID]
				if !ok {
					continue
				}
				key := ir.NewContextKey(cs.coll.Name, m.Name)
				val, ok := snapshotValue(idx, v, native)
				if !ok {
					diag.Reportf(opts.Sink, errors.ErrCodeUnresolvedAlias, "%s: %s: value %v cannot be exported", tok.DotPath(), key, v)
					continue
				}
				tok.Set(key, val)
			}
			if !g.Add(tok) {
				diag.Reportf(opts.Sink, errors.ErrCodeDuplicateToken, "%s: duplicate path, keeping the first entry", tok.DotPath())
			}
		}
	}
	g.Canonicalize()
	opts.Logger.Debug("snapshot", "collections", len(idx.collections), "tokens", g.Len())
	return g, nil
}

func snapshotValue(idx *index, v any, native color.Space) (ir.Value, bool) {
	switch t := v.(type) {
	case store.Reference:
		target, ok := idx.byEntryID[t.ID]
		if !ok {
			return ir.Value{}, false
		}
		cs, ok := idx.collectionByID(target.CollectionID)
		if !ok {
			return ir.Value{}, false
		}
		return ir.AliasValue(entryPath(cs.coll.Name, target.Name)...), true
	case color.RGBA:
		c, err := color.FromNative(t, native)
		if err != nil {
			return ir.Value{}, false
		}
		return ir.ScalarValue(c), true
	case float64, string, bool:
		return ir.ScalarValue(t), true
	}
	return ir.Value{}, false
}

// entryPath splits a slash-separated entry name under its collection.
func entryPath(collection, name string) []string {
	return append([]string{collection}, strings.Split(name, "/")...)
}
