package ir

import (
	"maps"
	"slices"
	"strings"
)

// Token is one named, typed design value with one or more context-scoped
// values.
type Token struct {
	// Path is the non-empty segment list; Path[0] is the owning collection.
	Path []string
	Type Type
	// Values are kept in insertion order; the first one is the context a
	// single-context writer picks.
	Values      []ContextValue
	Description string
	Extensions  map[string]any
}

// Collection returns the path-derived collection name.
func (t *Token) Collection() string {
	if len(t.Path) == 0 {
		return ""
	}
	return t.Path[0]
}

// ModeOf returns the mode of context key k, which normally starts with the
// token's collection. Foreign keys fall back to [ContextKey.Mode].
func (t *Token) ModeOf(k ContextKey) string {
	if mode, ok := k.ModeIn(t.Collection()); ok {
		return mode
	}
	return k.Mode()
}

// Name returns the collection-relative name with segments joined by "/".
func (t *Token) Name() string {
	if len(t.Path) < 2 {
		return ""
	}
	return strings.Join(t.Path[1:], "/")
}

// Key returns the case-sensitive slash-joined path used for identity.
func (t *Token) Key() string { return PathKey(t.Path) }

// DotPath returns the dot-joined path used for ordering and references.
func (t *Token) DotPath() string { return DotPath(t.Path) }

// Get returns the value recorded for ctx.
func (t *Token) Get(ctx ContextKey) (Value, bool) {
	for _, cv := range t.Values {
		if cv.Context == ctx {
			return cv.Value, true
		}
	}
	return Value{}, false
}

// Set records v for ctx, replacing an existing value in place so the
// context keeps its original position.
func (t *Token) Set(ctx ContextKey, v Value) {
	for i := range t.Values {
		if t.Values[i].Context == ctx {
			t.Values[i].Value = v
			return
		}
	}
	t.Values = append(t.Values, ContextValue{Context: ctx, Value: v})
}

// Contexts returns the context keys in insertion order.
func (t *Token) Contexts() []ContextKey {
	keys := make([]ContextKey, len(t.Values))
	for i, cv := range t.Values {
		keys[i] = cv.Context
	}
	return keys
}

// FirstContext returns the first recorded context.
func (t *Token) FirstContext() (ContextValue, bool) {
	if len(t.Values) == 0 {
		return ContextValue{}, false
	}
	return t.Values[0], true
}

// Aliases returns every alias target recorded on the token, in context order.
func (t *Token) Aliases() [][]string {
	var out [][]string
	for _, cv := range t.Values {
		if cv.Value.IsAlias() {
			out = append(out, cv.Value.Alias)
		}
	}
	return out
}

// Clone returns a deep copy of the token's path, values and extension map.
// Scalar values are shared.
func (t *Token) Clone() *Token {
	c := &Token{
		Path:        slices.Clone(t.Path),
		Type:        t.Type,
		Values:      make([]ContextValue, len(t.Values)),
		Description: t.Description,
		Extensions:  cloneMap(t.Extensions),
	}
	for i, cv := range t.Values {
		c.Values[i] = ContextValue{
			Context: cv.Context,
			Value:   Value{Alias: slices.Clone(cv.Value.Alias), Data: cv.Value.Data},
		}
	}
	return c
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := maps.Clone(m)
	for k, v := range out {
		if sub, ok := v.(map[string]any); ok {
			out[k] = cloneMap(sub)
		}
	}
	return out
}

// PathKey joins path segments with "/".
func PathKey(path []string) string { return strings.Join(path, "/") }

// DotPath joins path segments with ".".
func DotPath(path []string) string { return strings.Join(path, ".") }
