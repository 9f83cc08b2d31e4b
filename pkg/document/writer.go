package document

import (
	"encoding/json"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/matzehuels/tokensync/pkg/color"
	"github.com/matzehuels/tokensync/pkg/errors"
	"github.com/matzehuels/tokensync/pkg/ir"
)

// WriteOptions controls document output.
type WriteOptions struct {
	// DefaultMode is the mode a reader assumes when an entry names none.
	// Entries written in any other mode record it in host metadata.
	// Defaults to ir.DefaultMode.
	DefaultMode string
}

// WithDefaults returns a copy of o with zero fields filled in.
func (o WriteOptions) WithDefaults() WriteOptions {
	if o.DefaultMode == "" {
		o.DefaultMode = ir.DefaultMode
	}
	return o
}

// Write serializes g as an indented token document.
func Write(w io.Writer, g *ir.Graph, opts WriteOptions) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Build(g, opts)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode document")
	}
	return nil
}

// WriteFile serializes g to path.
func WriteFile(path string, g *ir.Graph, opts WriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "create %s", path)
	}
	if err := Write(f, g, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Build converts g into an ordered document tree. Tokens without any
// context are omitted. g itself is not modified.
func Build(g *ir.Graph, opts WriteOptions) *Object {
	opts = opts.WithDefaults()
	tokens := slices.Clone(g.Tokens)
	ir.SortTokens(tokens)

	names := newDisplayIndex(tokens)
	leaves := make([]leaf, 0, len(tokens))
	for _, tok := range tokens {
		node, ok := buildToken(tok, names, opts)
		if !ok {
			continue
		}
		leaves = append(leaves, leaf{path: displayPath(tok), node: node})
	}
	return buildTree(leaves)
}

func buildToken(tok *ir.Token, names *displayIndex, opts WriteOptions) (*Object, bool) {
	cv, ok := tok.FirstContext()
	if !ok || cv.Value.IsEmpty() {
		return nil, false
	}

	node := NewObject()
	if tok.Type != "" {
		node.Set(keyType, string(tok.Type))
	}
	if cv.Value.IsAlias() {
		node.Set(keyValue, names.reference(cv.Value.Alias))
	} else {
		node.Set(keyValue, encodeScalar(cv.Value.Data))
	}
	if tok.Description != "" {
		node.Set(keyDescription, tok.Description)
	}
	if ext := flattenExtensions(tok, tok.ModeOf(cv.Context), opts.DefaultMode); len(ext) > 0 {
		node.Set(keyExtensions, fromPlain(ext))
	}
	return node, true
}

func encodeScalar(data any) any {
	switch v := data.(type) {
	case ir.Color:
		o := NewObject()
		for _, f := range color.Encode(v) {
			o.Set(f.Key, f.Value)
		}
		return o
	case map[string]any:
		return fromPlain(v)
	}
	return data
}

// flattenExtensions collapses the per-mode host block to the chosen mode and
// records the mode name when a reader could not infer it.
func flattenExtensions(tok *ir.Token, mode, defaultMode string) map[string]any {
	if len(tok.Extensions) == 0 && mode == defaultMode {
		return nil
	}
	ext := maps.Clone(tok.Extensions)
	if ext == nil {
		ext = make(map[string]any)
	}

	host := maps.Clone(tok.HostExtensions())
	if host == nil {
		host = make(map[string]any)
	}
	if modes, ok := host[ir.ExtModes].(map[string]any); ok {
		if block, ok := modes[mode].(map[string]any); ok {
			for k, v := range block {
				host[k] = v
			}
		}
		delete(host, ir.ExtModes)
	}
	if _, recorded := host[ir.ExtModeName]; recorded || mode != defaultMode {
		host[ir.ExtModeName] = mode
	}

	if len(host) > 0 {
		ext[ir.ExtensionNamespace] = host
	} else {
		delete(ext, ir.ExtensionNamespace)
	}
	return ext
}

// displayPath is the path a token is written under: the host collection name
// followed by the relative name without any legacy subgroup.
func displayPath(tok *ir.Token) []string {
	p := outputPath(tok.Path)
	out := make([]string, 0, len(p))
	out = append(out, tok.DisplayCollection())
	return append(out, p[1:]...)
}

// displayIndex maps stored reference segments to display names.
type displayIndex struct {
	exact       map[string]*ir.Token
	slugged     map[string]*ir.Token
	collections map[string][]string
}

func newDisplayIndex(tokens []*ir.Token) *displayIndex {
	idx := &displayIndex{
		exact:       make(map[string]*ir.Token, len(tokens)),
		slugged:     make(map[string]*ir.Token, len(tokens)),
		collections: make(map[string][]string),
	}
	for _, tok := range tokens {
		idx.exact[tok.DotPath()] = tok
		if _, dup := idx.slugged[SlugPath(tok.Path)]; !dup {
			idx.slugged[SlugPath(tok.Path)] = tok
		}
		slug := Slug(tok.Collection())
		if !slices.Contains(idx.collections[slug], tok.Collection()) {
			idx.collections[slug] = append(idx.collections[slug], tok.Collection())
		}
	}
	return idx
}

// lookup tries the exact segments, then slugged segments, then the segments
// with the first one replaced by each known collection sharing its slug.
func (idx *displayIndex) lookup(segs []string) (*ir.Token, bool) {
	if len(segs) == 0 {
		return nil, false
	}
	if tok, ok := idx.exact[ir.DotPath(segs)]; ok {
		return tok, true
	}
	if tok, ok := idx.slugged[SlugPath(segs)]; ok {
		return tok, true
	}
	for _, coll := range idx.collections[Slug(segs[0])] {
		if coll == segs[0] {
			continue
		}
		sub := append([]string{coll}, segs[1:]...)
		if tok, ok := idx.exact[ir.DotPath(sub)]; ok {
			return tok, true
		}
	}
	return nil, false
}

// reference renders an alias, falling back to the segments as written.
func (idx *displayIndex) reference(segs []string) string {
	if tok, ok := idx.lookup(segs); ok {
		return FormatReference(displayPath(tok))
	}
	return FormatReference(segs)
}

type leaf struct {
	path []string
	node *Object
}

// buildTree groups leaves by their first segment in first-seen order and
// returns a fresh subtree. A group sharing its key with a token is merged
// into the token node.
func buildTree(leaves []leaf) *Object {
	out := NewObject()
	var heads []string
	byHead := make(map[string][]leaf)
	for _, l := range leaves {
		h := l.path[0]
		if _, seen := byHead[h]; !seen {
			heads = append(heads, h)
		}
		byHead[h] = append(byHead[h], l)
	}

	for _, h := range heads {
		var node *Object
		var rest []leaf
		for _, l := range byHead[h] {
			if len(l.path) == 1 {
				if node == nil {
					node = l.node
				}
				continue
			}
			rest = append(rest, leaf{path: l.path[1:], node: l.node})
		}
		if len(rest) > 0 {
			sub := buildTree(rest)
			if node == nil {
				node = sub
			} else {
				for _, k := range sub.Keys() {
					v, _ := sub.Get(k)
					node.Set(k, v)
				}
			}
		}
		out.Set(h, node)
	}
	return out
}
