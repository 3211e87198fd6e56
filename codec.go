package distfield

import "math"

// Fixed-point codec constants.
//
// Positions and distances travel between passes packed into four 8-bit
// channels. Positions use two base-255 digits per coordinate with 3
// fractional bits; distances use three base-255 digits with a half-range
// bias so negative values survive the unsigned channels.
const (
	// PositionScale is the sub-pixel precision multiplier for encoded
	// positions (3 fractional bits).
	PositionScale = 8.0

	// DistanceScale is the fixed multiplier applied to distances before
	// quantization. A power of two keeps the bias arithmetic exact in
	// floating point. One quantization step is 1/DistanceScale pixels.
	DistanceScale = 1024.0

	// MaxPosition is the largest coordinate an encoded position can
	// represent exactly.
	MaxPosition = (255.0*255.0 - 1) / PositionScale

	// SentinelPosition marks "no seed found yet". It is out of the
	// representable range and decodes to a coordinate farther from any
	// real pixel than any real seed, so propagation never prefers it.
	SentinelPosition = MaxPosition + 1

	// MaxDistance is the largest absolute distance an encoded distance
	// can represent.
	MaxDistance = 255.0 * 255.0 * 255.0 / (2 * DistanceScale)

	distanceBias = 255.0 * 255.0 * 255.0 / 2
)

// EncodePosition packs a 2D coordinate into four channels: two base-255
// digits for x (R, G) and two for y (B, A). Coordinates at or beyond
// MaxPosition saturate and become indistinguishable from the sentinel.
func EncodePosition(x, y float64) RGBA {
	xh, xl := splitPosition(x)
	yh, yl := splitPosition(y)
	return RGBA{R: xh / 255, G: xl / 255, B: yh / 255, A: yl / 255}
}

// DecodePosition is the inverse of EncodePosition up to 1/8-pixel
// quantization.
func DecodePosition(c RGBA) (x, y float64) {
	x = (math.Round(c.R*255)*255 + math.Round(c.G*255)) / PositionScale
	y = (math.Round(c.B*255)*255 + math.Round(c.A*255)) / PositionScale
	return x, y
}

func splitPosition(v float64) (hi, lo float64) {
	q := math.Round(v * PositionScale)
	if q < 0 {
		q = 0
	}
	hi = math.Floor(q / 255)
	if hi > 255 {
		hi = 255
	}
	lo = q - hi*255
	if lo > 255 {
		lo = 255
	}
	return hi, lo
}

// EncodeDistance packs a signed scalar into three base-255 digits
// (R, G, B) after applying DistanceScale and the half-range bias.
// The alpha channel carries no data and is fixed to 1. Values beyond
// ±MaxDistance saturate silently.
func EncodeDistance(v float64) RGBA {
	d := math.Floor(v*DistanceScale + distanceBias)
	const maxEncoded = 255.0*65025 + 255.0*255 + 255.0
	if d < 0 {
		d = 0
	}
	if d > maxEncoded {
		d = maxEncoded
	}
	hi := math.Floor(d / 65025)
	if hi > 255 {
		hi = 255
	}
	rem := d - hi*65025
	mid := math.Floor(rem / 255)
	if mid > 255 {
		mid = 255
	}
	lo := rem - mid*255
	if lo > 255 {
		lo = 255
	}
	return RGBA{R: hi / 255, G: mid / 255, B: lo / 255, A: 1}
}

// DecodeDistance is the inverse of EncodeDistance within one
// quantization step (1/DistanceScale).
func DecodeDistance(c RGBA) float64 {
	return (math.Round(c.R*255)*65025 + math.Round(c.G*255)*255 + math.Round(c.B*255) - distanceBias) / DistanceScale
}

// DecodeDistanceBytes reconstructs a signed distance from raw RGBA8
// channel bytes:
//
//	((R*255*255 + G*255 + B) - 255³/2) / DistanceScale
//
// This is the bit-exact external decode formula for buffers produced by
// the distance pass; Field uses it on ReadPixels output.
func DecodeDistanceBytes(r, g, b uint8) float64 {
	return (float64(r)*65025 + float64(g)*255 + float64(b) - distanceBias) / DistanceScale
}
