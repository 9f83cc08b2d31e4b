package color

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/tokensync/pkg/errors"
)

// RGBA is a color in normalized [0,1] channels. The space is implied by
// context (a store's native space, or sRGB for hex).
type RGBA struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// RGB returns the color channels without alpha.
func (c RGBA) RGB() [3]float64 { return [3]float64{c.R, c.G, c.B} }

// ParseHex parses a 3, 4, 6 or 8 digit hex color. Short forms duplicate each
// nibble and a missing alpha means fully opaque.
func ParseHex(hex string) (RGBA, error) {
	s := strings.TrimPrefix(hex, "#")
	switch len(s) {
	case 3, 4:
		var b strings.Builder
		for i := 0; i < len(s); i++ {
			b.WriteByte(s[i])
			b.WriteByte(s[i])
		}
		s = b.String()
	case 6, 8:
	default:
		return RGBA{}, errors.New(errors.ErrCodeInvalidColor, "hex %q has unsupported length %d", hex, len(s))
	}

	var ch [4]float64
	ch[3] = 1
	for i := 0; i < len(s)/2; i++ {
		hi, ok1 := nibble(s[2*i])
		lo, ok2 := nibble(s[2*i+1])
		if !ok1 || !ok2 {
			return RGBA{}, errors.New(errors.ErrCodeInvalidColor, "hex %q contains a non-hex character", hex)
		}
		ch[i] = float64(hi<<4|lo) / 255
	}
	return RGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

func nibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// ToHex formats c as "#rrggbb", or "#rrggbbaa" when alpha is below one.
func ToHex(c RGBA) string {
	if to8(c.A) == 255 {
		return ToHex6(c)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", to8(c.R), to8(c.G), to8(c.B), to8(c.A))
}

// ToHex6 formats the color channels of c as "#rrggbb", ignoring alpha.
func ToHex6(c RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", to8(c.R), to8(c.G), to8(c.B))
}

// to8 rounds half away from zero after clamping to [0,1].
func to8(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}
