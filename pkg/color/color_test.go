package color

import (
	"math"
	"testing"

	"github.com/matzehuels/tokensync/pkg/errors"
	"github.com/matzehuels/tokensync/pkg/ir"
)

const tolerance = 1e-6

func near(a, b float64) bool { return math.Abs(a-b) <= tolerance }

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want RGBA
	}{
		{"#ff0000", RGBA{1, 0, 0, 1}},
		{"00ff00", RGBA{0, 1, 0, 1}},
		{"#0000ff80", RGBA{0, 0, 1, 128.0 / 255}},
		{"#abc", RGBA{0xaa / 255.0, 0xbb / 255.0, 0xcc / 255.0, 1}},
		{"#abcd", RGBA{0xaa / 255.0, 0xbb / 255.0, 0xcc / 255.0, 0xdd / 255.0}},
		{"#FFFFFF", RGBA{1, 1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if err != nil {
				t.Fatalf("ParseHex(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseHex(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseHexShortFormMatchesLong(t *testing.T) {
	short, _ := ParseHex("#abc")
	long, _ := ParseHex("#aabbcc")
	if short != long {
		t.Errorf("#abc = %+v, #aabbcc = %+v", short, long)
	}
}

func TestParseHexErrors(t *testing.T) {
	for _, in := range []string{"", "#", "#12", "#12345", "#1234567", "#gg0000", "#ff00zz", "#ff 000"} {
		_, err := ParseHex(in)
		if err == nil {
			t.Errorf("ParseHex(%q) should fail", in)
			continue
		}
		if !errors.Is(err, errors.ErrCodeInvalidColor) {
			t.Errorf("ParseHex(%q) code = %v, want INVALID_COLOR", in, errors.GetCode(err))
		}
	}
}

func TestHexRoundTrip(t *testing.T) {
	for _, hex := range []string{"#000000", "#ffffff", "#12ab9f", "#7f7f7f", "#12ab9f00", "#12ab9f80", "#01020304"} {
		c, err := ParseHex(hex)
		if err != nil {
			t.Fatalf("ParseHex(%q) error: %v", hex, err)
		}
		if got := ToHex(c); got != hex {
			t.Errorf("ToHex(ParseHex(%q)) = %q", hex, got)
		}
		again, _ := ParseHex(ToHex(c))
		if again != c {
			t.Errorf("ParseHex(ToHex(%+v)) = %+v", c, again)
		}
	}
}

func TestToHexRounding(t *testing.T) {
	// 0.5*255 = 127.5 rounds away from zero.
	if got := ToHex6(RGBA{R: 0.5, G: 0, B: 1}); got != "#8000ff" {
		t.Errorf("ToHex6 = %q, want #8000ff", got)
	}
	// Out-of-range channels clamp.
	if got := ToHex6(RGBA{R: 1.5, G: -0.2, B: 0}); got != "#ff0000" {
		t.Errorf("ToHex6 = %q, want #ff0000", got)
	}
}

func TestConvertIdentity(t *testing.T) {
	rgb := [3]float64{0.2, 0.4, 0.6}
	for _, s := range []Space{SRGB, DisplayP3} {
		got, err := Convert(rgb, s, s)
		if err != nil {
			t.Fatalf("Convert(%s,%s) error: %v", s, s, err)
		}
		if got != rgb {
			t.Errorf("Convert(%s,%s) = %v, want %v", s, s, got, rgb)
		}
	}
}

func TestConvertRoundTrip(t *testing.T) {
	steps := []float64{0, 0.001, 0.01, 0.04045, 0.1, 0.25, 0.5, 0.75, 0.9, 0.999, 1}
	for _, r := range steps {
		for _, g := range steps {
			for _, b := range steps {
				in := [3]float64{r, g, b}
				p3, err := Convert(in, SRGB, DisplayP3)
				if err != nil {
					t.Fatal(err)
				}
				back, err := Convert(p3, DisplayP3, SRGB)
				if err != nil {
					t.Fatal(err)
				}
				for i := range in {
					if !near(in[i], back[i]) {
						t.Fatalf("round trip %v -> %v -> %v", in, p3, back)
					}
				}
			}
		}
	}
}

func TestConvertKnownValues(t *testing.T) {
	got, err := Convert([3]float64{1, 0, 0}, SRGB, DisplayP3)
	if err != nil {
		t.Fatal(err)
	}
	want := [3]float64{0.917488, 0.200287, 0.138561}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-4 {
			t.Errorf("sRGB red in P3 = %v, want ~%v", got, want)
			break
		}
	}

	// P3 red is outside sRGB and must clamp.
	out, _ := Convert([3]float64{1, 0, 0}, DisplayP3, SRGB)
	for i, v := range out {
		if v < 0 || v > 1 {
			t.Errorf("channel %d = %v escaped [0,1]", i, v)
		}
	}
	if out[0] != 1 {
		t.Errorf("clamped red = %v, want 1", out[0])
	}
}

func TestConvertRejectsUnknownSpace(t *testing.T) {
	_, err := Convert([3]float64{0, 0, 0}, "rec2020", SRGB)
	if !errors.Is(err, errors.ErrCodeUnsupportedColorSpace) {
		t.Errorf("error = %v, want UNSUPPORTED_COLOR_SPACE", err)
	}
	// Matching but unknown labels are still rejected.
	_, err = Convert([3]float64{0, 0, 0}, "hsl", "hsl")
	if err == nil {
		t.Error("Convert(hsl, hsl) should fail")
	}
}

func ptr(f float64) *float64 { return &f }

func TestValidateShape(t *testing.T) {
	tests := []struct {
		name string
		in   ir.Color
		code errors.Code
	}{
		{"valid srgb", ir.Color{ColorSpace: "srgb", Components: []float64{1, 0, 0}}, ""},
		{"valid p3 with alpha", ir.Color{ColorSpace: "display-p3", Components: []float64{0, 0.5, 1}, Alpha: ptr(0.5)}, ""},
		{"unknown space", ir.Color{ColorSpace: "oklch", Components: []float64{1, 0, 0}}, errors.ErrCodeUnsupportedColorSpace},
		{"two components", ir.Color{ColorSpace: "srgb", Components: []float64{1, 0}}, errors.ErrCodeInvalidColor},
		{"no components", ir.Color{ColorSpace: "srgb", Hex: "#ff0000"}, errors.ErrCodeInvalidColor},
		{"out of range", ir.Color{ColorSpace: "srgb", Components: []float64{1.2, 0, 0}}, errors.ErrCodeInvalidColor},
		{"negative", ir.Color{ColorSpace: "srgb", Components: []float64{-0.1, 0, 0}}, errors.ErrCodeInvalidColor},
		{"nan", ir.Color{ColorSpace: "srgb", Components: []float64{math.NaN(), 0, 0}}, errors.ErrCodeInvalidColor},
		{"inf alpha", ir.Color{ColorSpace: "srgb", Components: []float64{0, 0, 0}, Alpha: ptr(math.Inf(1))}, errors.ErrCodeInvalidColor},
		{"alpha above one", ir.Color{ColorSpace: "srgb", Components: []float64{0, 0, 0}, Alpha: ptr(2)}, errors.ErrCodeInvalidColor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateShape(tt.in)
			if tt.code == "" {
				if err != nil {
					t.Errorf("ValidateShape() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("ValidateShape() = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestIsRepresentable(t *testing.T) {
	tests := []struct {
		space   string
		profile Profile
		want    bool
	}{
		{"srgb", ProfileSRGB, true},
		{"display-p3", ProfileSRGB, false},
		{"srgb", ProfileDisplayP3, true},
		{"display-p3", ProfileDisplayP3, true},
		{"rec2020", ProfileDisplayP3, false},
		{"srgb", Profile("cmyk"), false},
	}
	for _, tt := range tests {
		if got := IsRepresentable(tt.space, tt.profile); got != tt.want {
			t.Errorf("IsRepresentable(%q, %q) = %v, want %v", tt.space, tt.profile, got, tt.want)
		}
	}
}

func TestToNativePrefersComponents(t *testing.T) {
	c := ir.Color{ColorSpace: "srgb", Components: []float64{0, 1, 0}, Hex: "#ff0000"}
	got, err := ToNative(c, SRGB)
	if err != nil {
		t.Fatal(err)
	}
	if got != (RGBA{0, 1, 0, 1}) {
		t.Errorf("ToNative = %+v, want green from components", got)
	}
}

func TestToNativeHexIsAlwaysSRGB(t *testing.T) {
	// The declared space is ignored for hex-only colors.
	c := ir.Color{ColorSpace: "display-p3", Hex: "#ff0000"}
	got, err := ToNative(c, DisplayP3)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := Convert([3]float64{1, 0, 0}, SRGB, DisplayP3)
	if !near(got.R, want[0]) || !near(got.G, want[1]) || !near(got.B, want[2]) {
		t.Errorf("ToNative = %+v, want sRGB red converted to P3 %v", got, want)
	}
}

func TestToNativeErrors(t *testing.T) {
	_, err := ToNative(ir.Color{ColorSpace: "lab", Components: []float64{1, 0, 0}}, SRGB)
	if !errors.Is(err, errors.ErrCodeUnsupportedColorSpace) {
		t.Errorf("error = %v, want UNSUPPORTED_COLOR_SPACE", err)
	}
	_, err = ToNative(ir.Color{ColorSpace: "srgb"}, SRGB)
	if !errors.Is(err, errors.ErrCodeMissingColorData) {
		t.Errorf("error = %v, want MISSING_COLOR_DATA", err)
	}
	_, err = ToNative(ir.Color{ColorSpace: "srgb", Hex: "#xyz"}, SRGB)
	if !errors.Is(err, errors.ErrCodeInvalidColor) {
		t.Errorf("error = %v, want INVALID_COLOR", err)
	}
}

func TestToNativeAlpha(t *testing.T) {
	got, _ := ToNative(ir.Color{ColorSpace: "srgb", Hex: "#ff000080"}, SRGB)
	if !near(got.A, 128.0/255) {
		t.Errorf("alpha from hex = %v", got.A)
	}
	got, _ = ToNative(ir.Color{ColorSpace: "srgb", Hex: "#ff000080", Alpha: ptr(0.25)}, SRGB)
	if got.A != 0.25 {
		t.Errorf("explicit alpha = %v, want 0.25", got.A)
	}
}

func TestFromNative(t *testing.T) {
	c, err := FromNative(RGBA{1, 0, 0, 1}, SRGB)
	if err != nil {
		t.Fatal(err)
	}
	if c.Hex != "#ff0000" || c.ColorSpace != "srgb" || c.Alpha != nil {
		t.Errorf("FromNative(srgb red) = %+v", c)
	}

	p3, err := FromNative(RGBA{1, 0, 0, 0.5}, DisplayP3)
	if err != nil {
		t.Fatal(err)
	}
	if p3.ColorSpace != "display-p3" {
		t.Errorf("ColorSpace = %q", p3.ColorSpace)
	}
	// P3 red clamps to sRGB red in the fallback.
	if p3.Hex != "#ff0000" {
		t.Errorf("fallback hex = %q, want #ff0000", p3.Hex)
	}
	if p3.Alpha == nil || *p3.Alpha != 0.5 {
		t.Errorf("alpha = %v, want 0.5", p3.Alpha)
	}
}

func TestFromNativeToNativeRoundTrip(t *testing.T) {
	in := RGBA{0.1, 0.2, 0.3, 1}
	c, err := FromNative(in, DisplayP3)
	if err != nil {
		t.Fatal(err)
	}
	out, err := ToNative(c, DisplayP3)
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestDecode(t *testing.T) {
	c, err := Decode(map[string]any{
		"colorSpace": "srgb",
		"components": []any{1.0, 0.5, 0.0},
		"alpha":      0.5,
		"hex":        "#ff8000",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateShape(c); err != nil {
		t.Errorf("decoded color invalid: %v", err)
	}
	if c.Hex != "#ff8000" || *c.Alpha != 0.5 {
		t.Errorf("Decode = %+v", c)
	}

	bad := []map[string]any{
		{"components": []any{1.0, 0.0, 0.0}},
		{"colorSpace": "srgb", "components": "red"},
		{"colorSpace": "srgb", "components": []any{"1", 0.0, 0.0}},
		{"colorSpace": "srgb", "alpha": "1"},
		{"colorSpace": "srgb", "hex": 12.0},
	}
	for i, raw := range bad {
		if _, err := Decode(raw); !errors.Is(err, errors.ErrCodeInvalidColor) {
			t.Errorf("case %d: Decode error = %v, want INVALID_COLOR", i, err)
		}
	}
}
