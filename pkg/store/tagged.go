package store

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/tokensync/pkg/color"
)

// Tags used by TaggedValue.Type.
const (
	tagColor     = "color"
	tagFloat     = "float"
	tagString    = "string"
	tagBoolean   = "boolean"
	tagReference = "reference"
)

// TaggedValue is the serialized form of an entry value used by persistent
// backends. Exactly one payload field is set, selected by Type.
type TaggedValue struct {
	Type   string      `json:"type" bson:"type"`
	Color  *color.RGBA `json:"color,omitempty" bson:"color,omitempty"`
	Float  *float64    `json:"float,omitempty" bson:"float,omitempty"`
	String *string     `json:"string,omitempty" bson:"string,omitempty"`
	Bool   *bool       `json:"bool,omitempty" bson:"bool,omitempty"`
	Ref    string      `json:"ref,omitempty" bson:"ref,omitempty"`
}

// Tag converts an entry value into its serialized form.
func Tag(v any) (TaggedValue, error) {
	switch t := v.(type) {
	case color.RGBA:
		return TaggedValue{Type: tagColor, Color: &t}, nil
	case float64:
		return TaggedValue{Type: tagFloat, Float: &t}, nil
	case string:
		return TaggedValue{Type: tagString, String: &t}, nil
	case bool:
		return TaggedValue{Type: tagBoolean, Bool: &t}, nil
	case Reference:
		return TaggedValue{Type: tagReference, Ref: t.ID}, nil
	}
	return TaggedValue{}, fmt.Errorf("unsupported value type %T", v)
}

// Value converts the serialized form back into an entry value.
func (t TaggedValue) Value() (any, error) {
	switch {
	case t.Type == tagColor && t.Color != nil:
		return *t.Color, nil
	case t.Type == tagFloat && t.Float != nil:
		return *t.Float, nil
	case t.Type == tagString && t.String != nil:
		return *t.String, nil
	case t.Type == tagBoolean && t.Bool != nil:
		return *t.Bool, nil
	case t.Type == tagReference && t.Ref != "":
		return Reference{ID: t.Ref}, nil
	}
	return nil, fmt.Errorf("invalid tagged value of type %q", t.Type)
}

// TagValues serializes a mode ID → value map.
func TagValues(values map[string]any) (map[string]TaggedValue, error) {
	out := make(map[string]TaggedValue, len(values))
	for mode, v := range values {
		tv, err := Tag(v)
		if err != nil {
			return nil, fmt.Errorf("mode %s: %w", mode, err)
		}
		out[mode] = tv
	}
	return out, nil
}

// UntagValues is the inverse of TagValues.
func UntagValues(tagged map[string]TaggedValue) (map[string]any, error) {
	out := make(map[string]any, len(tagged))
	for mode, tv := range tagged {
		v, err := tv.Value()
		if err != nil {
			return nil, fmt.Errorf("mode %s: %w", mode, err)
		}
		out[mode] = v
	}
	return out, nil
}

// entryJSON is the wire form of Entry.
type entryJSON struct {
	ID           string                 `json:"id"`
	CollectionID string                 `json:"collection_id"`
	Name         string                 `json:"name"`
	Kind         Kind                   `json:"kind"`
	Description  string                 `json:"description,omitempty"`
	Values       map[string]TaggedValue `json:"values,omitempty"`
}

// MarshalJSON encodes values in tagged form.
func (e Entry) MarshalJSON() ([]byte, error) {
	values, err := TagValues(e.Values)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	return json.Marshal(entryJSON{
		ID:           e.ID,
		CollectionID: e.CollectionID,
		Name:         e.Name,
		Kind:         e.Kind,
		Description:  e.Description,
		Values:       values,
	})
}

// UnmarshalJSON decodes the tagged form written by MarshalJSON.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	values, err := UntagValues(raw.Values)
	if err != nil {
		return fmt.Errorf("entry %s: %w", raw.ID, err)
	}
	*e = Entry{
		ID:           raw.ID,
		CollectionID: raw.CollectionID,
		Name:         raw.Name,
		Kind:         raw.Kind,
		Description:  raw.Description,
		Values:       values,
	}
	return nil
}
