package color

import (
	"math"

	"github.com/matzehuels/tokensync/pkg/errors"
)

// Space names an RGB color space.
type Space string

// Supported spaces.
const (
	SRGB      Space = "srgb"
	DisplayP3 Space = "display-p3"
)

// ParseSpace validates a color space label.
func ParseSpace(s string) (Space, error) {
	switch Space(s) {
	case SRGB, DisplayP3:
		return Space(s), nil
	}
	return "", errors.New(errors.ErrCodeUnsupportedColorSpace, "unsupported color space %q", s)
}

// Profile describes the gamut a destination document or store can hold.
type Profile string

// Supported destination profiles.
const (
	ProfileSRGB      Profile = "srgb"
	ProfileDisplayP3 Profile = "display-p3"
)

// ParseProfile validates a destination profile label.
func ParseProfile(s string) (Profile, error) {
	switch Profile(s) {
	case ProfileSRGB, ProfileDisplayP3:
		return Profile(s), nil
	}
	return "", errors.New(errors.ErrCodeUnsupportedColorSpace, "unsupported document profile %q", s)
}

// NativeSpace returns the space colors are stored in for the profile.
func (p Profile) NativeSpace() Space {
	if p == ProfileDisplayP3 {
		return DisplayP3
	}
	return SRGB
}

// IsRepresentable reports whether colors in space can be written to a
// destination with the given profile without leaving its gamut.
func IsRepresentable(space string, profile Profile) bool {
	switch profile {
	case ProfileSRGB:
		return Space(space) == SRGB
	case ProfileDisplayP3:
		return Space(space) == SRGB || Space(space) == DisplayP3
	}
	return false
}

type matrix [3][3]float64

func (m matrix) apply(v [3]float64) [3]float64 {
	return [3]float64{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// D65-referenced conversion matrices (CSS Color 4).
var (
	srgbToXYZ = matrix{
		{0.41239079926595934, 0.357584339383878, 0.1804807884018343},
		{0.21263900587151027, 0.715168678767756, 0.07219231536073371},
		{0.01933081871559182, 0.11919477979462598, 0.9505321522496607},
	}
	xyzToSRGB = matrix{
		{3.2409699419045226, -1.537383177570094, -0.4986107602930034},
		{-0.9692436362808796, 1.8759675015077202, 0.04155505740717559},
		{0.05563007969699366, -0.20397695888897652, 1.0569715142428786},
	}
	p3ToXYZ = matrix{
		{0.4865709486482162, 0.26566769316909306, 0.1982172852343625},
		{0.2289745640697488, 0.6917385218365064, 0.079286914093745},
		{0.0, 0.04511338185890264, 1.043944368900976},
	}
	xyzToP3 = matrix{
		{2.493496911941425, -0.9313836179191239, -0.40271078445071684},
		{-0.8294889695615747, 1.7626640603183463, 0.023624685841943577},
		{0.03584583024378447, -0.07617238926804182, 0.9568845240076872},
	}
)

func toXYZ(s Space) matrix {
	if s == DisplayP3 {
		return p3ToXYZ
	}
	return srgbToXYZ
}

func fromXYZ(s Space) matrix {
	if s == DisplayP3 {
		return xyzToP3
	}
	return xyzToSRGB
}

// Convert maps an RGB triple from one space to another. Matching spaces
// return rgb unchanged; otherwise every output channel is clamped to [0,1].
func Convert(rgb [3]float64, from, to Space) ([3]float64, error) {
	if _, err := ParseSpace(string(from)); err != nil {
		return rgb, err
	}
	if _, err := ParseSpace(string(to)); err != nil {
		return rgb, err
	}
	if from == to {
		return rgb, nil
	}

	lin := [3]float64{decode(rgb[0]), decode(rgb[1]), decode(rgb[2])}
	out := fromXYZ(to).apply(toXYZ(from).apply(lin))
	for i := range out {
		out[i] = clamp01(encode(out[i]))
	}
	return out, nil
}

// decode applies the inverse sRGB transfer function, mirrored for negative
// inputs.
func decode(c float64) float64 {
	a := math.Abs(c)
	var l float64
	if a <= 0.04045 {
		l = a / 12.92
	} else {
		l = math.Pow((a+0.055)/1.055, 2.4)
	}
	return math.Copysign(l, c)
}

// encode applies the sRGB transfer function, mirrored for negative inputs.
func encode(l float64) float64 {
	a := math.Abs(l)
	var c float64
	if a <= 0.0031308 {
		c = a * 12.92
	} else {
		c = 1.055*math.Pow(a, 1/2.4) - 0.055
	}
	return math.Copysign(c, l)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
