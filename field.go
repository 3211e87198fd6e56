package distfield

import "math"

// Field is a CPU-side view of a generated distance field. It wraps the
// raw ReadPixels bytes and decodes distances on demand using the same
// fixed-point formula as the distance pass, converting from the
// device's bottom-left row order back to top-left coordinates.
type Field struct {
	width  int
	height int
	pix    []byte
}

// Width returns the field width in pixels.
func (f *Field) Width() int { return f.width }

// Height returns the field height in pixels.
func (f *Field) Height() int { return f.height }

// Pix returns the raw RGBA8 bytes as read from the device (row-major,
// bottom-left origin).
func (f *Field) Pix() []byte { return f.pix }

// DistanceAt returns the decoded signed distance at pixel (x, y) in
// top-left image coordinates. Out-of-bounds coordinates are clamped.
func (f *Field) DistanceAt(x, y int) float64 {
	x = clampInt(x, 0, f.width-1)
	y = clampInt(y, 0, f.height-1)
	row := f.height - 1 - y
	i := (row*f.width + x) * 4
	return DecodeDistanceBytes(f.pix[i], f.pix[i+1], f.pix[i+2])
}

// MinMax scans the field and returns the smallest and largest decoded
// distances. Useful for normalizing visualizations.
func (f *Field) MinMax() (minDist, maxDist float64) {
	minDist = math.Inf(1)
	maxDist = math.Inf(-1)
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			d := f.DistanceAt(x, y)
			if d < minDist {
				minDist = d
			}
			if d > maxDist {
				maxDist = d
			}
		}
	}
	return minDist, maxDist
}
