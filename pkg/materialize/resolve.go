package materialize

import (
	"strings"

	"github.com/matzehuels/tokensync/pkg/document"
	"github.com/matzehuels/tokensync/pkg/ir"
	"github.com/matzehuels/tokensync/pkg/store"
)

// outcome classifies an alias lookup.
type outcome int

const (
	unresolved outcome = iota
	resolved
	selfReference
)

// refOf returns the store location of a token.
func refOf(tok *ir.Token) entryRef {
	return entryRef{collection: tok.Collection(), name: tok.Name()}
}

// candidates lists the locations a raw reference may name, in lookup order:
// the literal path, the path relative to the referencing collection, and the
// literal path with its first segment replaced by each known collection
// sharing its slug.
func candidates(segs []string, own string, known []string) []entryRef {
	if len(segs) == 0 {
		return nil
	}
	var out []entryRef
	if len(segs) >= 2 {
		out = append(out, entryRef{collection: segs[0], name: strings.Join(segs[1:], "/")})
	}
	out = append(out, entryRef{collection: own, name: strings.Join(segs, "/")})
	if len(segs) >= 2 {
		slug := document.Slug(segs[0])
		for _, name := range known {
			if name != segs[0] && document.Slug(name) == slug {
				out = append(out, entryRef{collection: name, name: strings.Join(segs[1:], "/")})
			}
		}
	}
	return out
}

// resolve finds the existing entry a reference from self points at.
// Candidates naming self are skipped; when nothing else exists and one of
// them was self, the outcome is selfReference.
func (idx *index) resolve(self entryRef, segs []string) (store.Entry, outcome) {
	sawSelf := false
	for _, ref := range candidates(segs, self.collection, idx.collectionNames()) {
		if ref == self {
			sawSelf = true
			continue
		}
		if e, ok := idx.lookup(ref); ok {
			return e, resolved
		}
	}
	if sawSelf {
		return store.Entry{}, selfReference
	}
	return store.Entry{}, unresolved
}
