package color

import (
	"fmt"
	"math"

	"github.com/matzehuels/tokensync/pkg/errors"
	"github.com/matzehuels/tokensync/pkg/ir"
)

// ValidateShape checks that c is structurally usable: a supported space,
// exactly three finite components in [0,1], and an optional finite alpha in
// [0,1]. It does not consult any destination.
func ValidateShape(c ir.Color) error {
	if _, err := ParseSpace(c.ColorSpace); err != nil {
		return err
	}
	if len(c.Components) != 3 {
		return errors.New(errors.ErrCodeInvalidColor, "color needs 3 components, got %d", len(c.Components))
	}
	for i, v := range c.Components {
		if !inUnit(v) {
			return errors.New(errors.ErrCodeInvalidColor, "component %d (%v) is not a finite number in [0,1]", i, v)
		}
	}
	if c.Alpha != nil && !inUnit(*c.Alpha) {
		return errors.New(errors.ErrCodeInvalidColor, "alpha (%v) is not a finite number in [0,1]", *c.Alpha)
	}
	return nil
}

func inUnit(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 1
}

// ToNative resolves c into dest. Components win when present; hex is only
// consulted when components are absent and is always read as sRGB.
func ToNative(c ir.Color, dest Space) (RGBA, error) {
	if _, err := ParseSpace(string(dest)); err != nil {
		return RGBA{}, err
	}

	if len(c.Components) > 0 {
		src, err := ParseSpace(c.ColorSpace)
		if err != nil {
			return RGBA{}, err
		}
		if len(c.Components) != 3 {
			return RGBA{}, errors.New(errors.ErrCodeInvalidColor, "color needs 3 components, got %d", len(c.Components))
		}
		rgb, err := Convert([3]float64{c.Components[0], c.Components[1], c.Components[2]}, src, dest)
		if err != nil {
			return RGBA{}, err
		}
		return RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: c.AlphaOr(1)}, nil
	}

	if c.Hex != "" {
		parsed, err := ParseHex(c.Hex)
		if err != nil {
			return RGBA{}, err
		}
		rgb, err := Convert(parsed.RGB(), SRGB, dest)
		if err != nil {
			return RGBA{}, err
		}
		return RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: c.AlphaOr(parsed.A)}, nil
	}

	return RGBA{}, errors.New(errors.ErrCodeMissingColorData, "color has neither components nor hex")
}

// FromNative builds a document color from a store color in src. The result
// always carries a 6-digit sRGB hex fallback, converted from src when needed.
// Alpha is only recorded when the color is not fully opaque.
func FromNative(c RGBA, src Space) (ir.Color, error) {
	if _, err := ParseSpace(string(src)); err != nil {
		return ir.Color{}, err
	}
	srgb, err := Convert(c.RGB(), src, SRGB)
	if err != nil {
		return ir.Color{}, err
	}
	out := ir.Color{
		ColorSpace: string(src),
		Components: []float64{c.R, c.G, c.B},
		Hex:        ToHex6(RGBA{R: srgb[0], G: srgb[1], B: srgb[2]}),
	}
	if c.A < 1 {
		a := c.A
		out.Alpha = &a
	}
	return out, nil
}

// FromHex builds an sRGB document color from a hex string.
func FromHex(hex string) (ir.Color, error) {
	c, err := ParseHex(hex)
	if err != nil {
		return ir.Color{}, err
	}
	return FromNative(c, SRGB)
}

// Decode converts a raw JSON object into a Color. It only checks field
// types; range checks belong to ValidateShape.
func Decode(raw map[string]any) (ir.Color, error) {
	var c ir.Color

	space, ok := raw["colorSpace"].(string)
	if !ok {
		return c, errors.New(errors.ErrCodeInvalidColor, "colorSpace must be a string")
	}
	c.ColorSpace = space

	if v, present := raw["components"]; present {
		list, ok := v.([]any)
		if !ok {
			return c, errors.New(errors.ErrCodeInvalidColor, "components must be an array")
		}
		c.Components = make([]float64, len(list))
		for i, item := range list {
			f, ok := item.(float64)
			if !ok {
				return c, errors.New(errors.ErrCodeInvalidColor, "component %d is %T, want number", i, item)
			}
			c.Components[i] = f
		}
	}

	if v, present := raw["alpha"]; present {
		f, ok := v.(float64)
		if !ok {
			return c, errors.New(errors.ErrCodeInvalidColor, "alpha is %T, want number", v)
		}
		c.Alpha = &f
	}

	if v, present := raw["hex"]; present {
		s, ok := v.(string)
		if !ok {
			return c, errors.New(errors.ErrCodeInvalidColor, "hex is %T, want string", v)
		}
		c.Hex = s
	}

	return c, nil
}

// Encode converts a Color into the ordered field list used by documents.
func Encode(c ir.Color) []Field {
	fields := []Field{{"colorSpace", c.ColorSpace}}
	if c.Components != nil {
		comps := make([]any, len(c.Components))
		for i, v := range c.Components {
			comps[i] = v
		}
		fields = append(fields, Field{"components", comps})
	}
	if c.Alpha != nil {
		fields = append(fields, Field{"alpha", *c.Alpha})
	}
	if c.Hex != "" {
		fields = append(fields, Field{"hex", c.Hex})
	}
	return fields
}

// Field is one key/value pair of an encoded color.
type Field struct {
	Key   string
	Value any
}

// String renders a short human-readable description, e.g. "srgb(1, 0, 0)".
func String(c ir.Color) string {
	if len(c.Components) == 3 {
		s := fmt.Sprintf("%s(%g, %g, %g)", c.ColorSpace, c.Components[0], c.Components[1], c.Components[2])
		if c.Alpha != nil {
			s += fmt.Sprintf(" / %g", *c.Alpha)
		}
		return s
	}
	return c.Hex
}
