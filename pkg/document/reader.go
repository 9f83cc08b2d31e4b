package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/matzehuels/tokensync/pkg/color"
	"github.com/matzehuels/tokensync/pkg/diag"
	"github.com/matzehuels/tokensync/pkg/errors"
	"github.com/matzehuels/tokensync/pkg/ir"
)

// Reserved document keys.
const (
	keyType        = "$type"
	keyValue       = "$value"
	keyDescription = "$description"
	keyExtensions  = "$extensions"
	metaPrefix     = "$"
)

// ReadOptions controls how documents are interpreted.
type ReadOptions struct {
	// LenientHex accepts bare hex strings as color values.
	LenientHex bool
	// DefaultMode names the mode of entries without host mode metadata.
	// Defaults to ir.DefaultMode.
	DefaultMode string
}

// WithDefaults returns a copy of o with zero fields filled in.
func (o ReadOptions) WithDefaults() ReadOptions {
	if o.DefaultMode == "" {
		o.DefaultMode = ir.DefaultMode
	}
	return o
}

// Read decodes a token document from r into a canonical graph.
//
// Read returns a MALFORMED_DOCUMENT error when r does not hold a single JSON
// object. Every other problem is reported to sink and the offending token is
// skipped. A nil sink discards diagnostics.
func Read(r io.Reader, opts ReadOptions, sink diag.Sink) (*ir.Graph, error) {
	root, err := decodeTree(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedDocument, err, "decode document")
	}
	obj, ok := root.(*Object)
	if !ok {
		return nil, errors.New(errors.ErrCodeMalformedDocument, "document root is %s, want object", jsonKind(root))
	}

	rd := &reader{opts: opts.WithDefaults(), sink: sink, g: &ir.Graph{}}
	rd.walk(obj, nil, "")
	rd.g.Canonicalize()
	return rd.g, nil
}

// ReadBytes decodes a token document held in memory.
func ReadBytes(data []byte, opts ReadOptions, sink diag.Sink) (*ir.Graph, error) {
	return Read(bytes.NewReader(data), opts, sink)
}

// ReadFile decodes the token document at path.
func ReadFile(path string, opts ReadOptions, sink diag.Sink) (*ir.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return Read(f, opts, sink)
}

type reader struct {
	opts ReadOptions
	sink diag.Sink
	g    *ir.Graph
}

func (rd *reader) report(code errors.Code, path []string, format string, args ...any) {
	diag.Reportf(rd.sink, code, "%s: %s", ir.DotPath(path), fmt.Sprintf(format, args...))
}

// walk visits obj depth-first. typ is the nearest inherited "$type".
func (rd *reader) walk(obj *Object, path []string, typ ir.Type) {
	if v, ok := obj.Get(keyType); ok {
		s, isString := v.(string)
		if !isString {
			rd.report(errors.ErrCodeTypeMismatch, path, "$type is %s, want string", jsonKind(v))
		} else {
			typ = ir.Type(s)
		}
	}

	if _, ok := obj.Get(keyValue); ok {
		rd.leaf(obj, path, typ)
		return
	}

	for _, key := range obj.dups {
		rd.report(errors.ErrCodeDuplicateToken, append(slices.Clone(path), key), "duplicate key, keeping the first occurrence")
	}
	for _, key := range obj.Keys() {
		if strings.HasPrefix(key, metaPrefix) {
			continue
		}
		child, _ := obj.Get(key)
		childObj, ok := child.(*Object)
		if !ok {
			rd.report(errors.ErrCodeInvalidInput, append(slices.Clone(path), key), "group member is %s, want object", jsonKind(child))
			continue
		}
		rd.walk(childObj, append(slices.Clone(path), key), typ)
	}
}

func (rd *reader) leaf(obj *Object, path []string, typ ir.Type) {
	if len(path) < 2 {
		rd.report(errors.ErrCodeInvalidName, path, "token needs a collection and a name")
		return
	}

	tok := &ir.Token{Path: path}
	if v, ok := obj.Get(keyDescription); ok {
		if s, isString := v.(string); isString {
			tok.Description = s
		} else {
			rd.report(errors.ErrCodeTypeMismatch, path, "$description is %s, want string", jsonKind(v))
		}
	}
	if v, ok := obj.Get(keyExtensions); ok {
		if ext, isObject := v.(*Object); isObject {
			tok.Extensions = ext.Plain()
		} else {
			rd.report(errors.ErrCodeTypeMismatch, path, "$extensions is %s, want object", jsonKind(v))
		}
	}

	mode := rd.opts.DefaultMode
	if m, ok := tok.HostString(ir.ExtModeName); ok && m != "" {
		mode = m
	}
	ctx := ir.NewContextKey(path[0], mode)

	raw, _ := obj.Get(keyValue)
	if s, ok := raw.(string); ok {
		if segs, isRef := ParseReference(s); isRef {
			if typ != "" && !ir.ValidTypes[typ] {
				rd.report(errors.ErrCodeTypeMismatch, path, "unknown type %q", typ)
				return
			}
			tok.Type = typ
			tok.Set(ctx, ir.AliasValue(segs...))
			rd.add(tok)
			return
		}
	}

	if typ == "" {
		typ = inferType(raw)
		if typ == "" {
			rd.report(errors.ErrCodeTypeMismatch, path, "cannot infer a type for %s value", jsonKind(raw))
			return
		}
	}
	if !ir.ValidTypes[typ] {
		rd.report(errors.ErrCodeTypeMismatch, path, "unknown type %q", typ)
		return
	}

	data, ok := rd.scalar(tok, typ, raw)
	if !ok {
		return
	}
	if b, isBool := data.(bool); isBool && typ == ir.TypeString {
		// The boolean hint upgrades "true"/"false" strings.
		typ, data = ir.TypeBoolean, b
	}
	tok.Type = typ
	tok.Set(ctx, ir.ScalarValue(data))
	rd.add(tok)
}

func (rd *reader) add(tok *ir.Token) {
	if !rd.g.Add(tok) {
		rd.report(errors.ErrCodeDuplicateToken, tok.Path, "duplicate path, keeping the first occurrence")
	}
}

// scalar validates raw against typ and returns the IR value.
func (rd *reader) scalar(tok *ir.Token, typ ir.Type, raw any) (any, bool) {
	path := tok.Path
	switch typ {
	case ir.TypeColor:
		return rd.color(path, raw)

	case ir.TypeNumber:
		if f, ok := raw.(float64); ok {
			return f, true
		}

	case ir.TypeString:
		if s, ok := raw.(string); ok {
			if b, isBool := boolString(s); isBool && tok.HasBooleanHint() {
				return b, true
			}
			return s, true
		}

	case ir.TypeBoolean:
		switch v := raw.(type) {
		case bool:
			return v, true
		case string:
			if b, isBool := boolString(v); isBool && tok.HasBooleanHint() {
				return b, true
			}
		}

	case ir.TypeTypography:
		if o, ok := raw.(*Object); ok {
			return o.Plain(), true
		}
	}

	rd.report(errors.ErrCodeTypeMismatch, path, "%s value does not match type %s", jsonKind(raw), typ)
	return nil, false
}

func (rd *reader) color(path []string, raw any) (any, bool) {
	switch v := raw.(type) {
	case *Object:
		c, err := color.Decode(v.Plain())
		if err == nil {
			err = color.ValidateShape(c)
		}
		if err != nil {
			rd.report(errors.GetCode(err), path, "%s", errors.UserMessage(err))
			return nil, false
		}
		return c, true

	case string:
		if !rd.opts.LenientHex {
			rd.report(errors.ErrCodeInvalidColor, path, "hex string %q requires lenient hex input", v)
			return nil, false
		}
		c, err := color.FromHex(v)
		if err != nil {
			rd.report(errors.GetCode(err), path, "%s", errors.UserMessage(err))
			return nil, false
		}
		return c, true
	}

	rd.report(errors.ErrCodeInvalidColor, path, "%s is not a color", jsonKind(raw))
	return nil, false
}

func inferType(raw any) ir.Type {
	switch v := raw.(type) {
	case bool:
		return ir.TypeBoolean
	case float64:
		return ir.TypeNumber
	case string:
		return ir.TypeString
	case *Object:
		if _, ok := v.Get("colorSpace"); ok {
			return ir.TypeColor
		}
	}
	return ""
}

func boolString(s string) (bool, bool) {
	switch s {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case *Object:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
