// Package color implements the colorimetry used when moving color tokens
// between documents and stores.
//
// # Spaces
//
// Two RGB spaces are supported, [SRGB] and [DisplayP3]. Both share the sRGB
// piecewise transfer curve and a D65 white point, so [Convert] decodes to
// linear light, goes through CIE XYZ with fixed 3x3 matrices, re-encodes and
// clamps to [0,1]. Any other space label is an error; nothing is coerced.
//
// # Hex
//
// [ParseHex] accepts 3, 4, 6 and 8 digit forms with or without a leading
// "#". Hex strings are always standard-range sRGB. Channel math stays in
// normalized float64 and only hex boundaries round to 8 bits, using
// half-away-from-zero rounding of value*255.
//
// # Gating
//
// [ValidateShape] is a pure structural and range check. [IsRepresentable]
// decides whether a space fits a destination [Profile]: an sRGB destination
// only accepts sRGB colors, a Display P3 destination accepts both.
package color
