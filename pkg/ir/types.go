package ir

import (
	"fmt"
	"strings"
)

// Type is the declared kind of a token.
type Type string

// Token types.
const (
	TypeColor      Type = "color"
	TypeNumber     Type = "number"
	TypeString     Type = "string"
	TypeBoolean    Type = "boolean"
	TypeTypography Type = "typography"
)

// ValidTypes is the set of token types the converter understands.
var ValidTypes = map[Type]bool{
	TypeColor:      true,
	TypeNumber:     true,
	TypeString:     true,
	TypeBoolean:    true,
	TypeTypography: true,
}

// ParseType converts a document "$type" string into a Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !ValidTypes[t] {
		return "", fmt.Errorf("unknown token type %q", s)
	}
	return t, nil
}

// DefaultMode is the mode name used when a document does not name one.
const DefaultMode = "Mode 1"

// ContextKey identifies one (collection, mode) pair as collection + "/" + mode.
type ContextKey string

// NewContextKey joins a collection and a mode into a ContextKey.
func NewContextKey(collection, mode string) ContextKey {
	return ContextKey(collection + "/" + mode)
}

// ModeIn returns the mode of a key in collection. ok is false when the key
// belongs to another collection. Both halves may contain slashes, so this is
// the only unambiguous way to take a key apart.
func (k ContextKey) ModeIn(collection string) (mode string, ok bool) {
	return strings.CutPrefix(string(k), collection+"/")
}

// Split returns the collection and mode of the key, splitting at its last
// slash. Keys whose mode contains a slash are split wrongly; use ModeIn when
// the owning collection is known.
func (k ContextKey) Split() (collection, mode string) {
	s := string(k)
	i := strings.LastIndexByte(s, '/')
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

// Collection returns the collection half of the key.
func (k ContextKey) Collection() string {
	c, _ := k.Split()
	return c
}

// Mode returns the mode half of the key.
func (k ContextKey) Mode() string {
	_, m := k.Split()
	return m
}

// Color is a color value in a named RGB space.
//
// Components, when present, are authoritative. Hex is a fallback and display
// aid that is always interpreted as standard-range sRGB regardless of
// ColorSpace.
type Color struct {
	ColorSpace string    `json:"colorSpace"`
	Components []float64 `json:"components,omitempty"`
	Alpha      *float64  `json:"alpha,omitempty"`
	Hex        string    `json:"hex,omitempty"`
}

// AlphaOr returns the alpha channel, or def when none is recorded.
func (c Color) AlphaOr(def float64) float64 {
	if c.Alpha == nil {
		return def
	}
	return *c.Alpha
}

// Value is the content of one context of a token: either an alias or a
// scalar, never both.
type Value struct {
	// Alias holds the referenced path segments exactly as authored.
	Alias []string
	// Data holds a float64, string, bool, Color, or map[string]any
	// (typography) when Alias is nil.
	Data any
}

// AliasValue returns a Value referencing path.
func AliasValue(path ...string) Value {
	return Value{Alias: path}
}

// ScalarValue returns a Value holding data.
func ScalarValue(data any) Value {
	return Value{Data: data}
}

// IsAlias reports whether the value references another token.
func (v Value) IsAlias() bool { return v.Alias != nil }

// IsEmpty reports whether the value holds nothing.
func (v Value) IsEmpty() bool { return v.Alias == nil && v.Data == nil }

// ContextValue pairs a context with its value.
type ContextValue struct {
	Context ContextKey
	Value   Value
}
