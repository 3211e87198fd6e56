package distfield

import "math"

const (
	// grayThreshold separates foreground (below) from background
	// (above) in the red-channel gray value.
	grayThreshold = 0.5

	// boundaryBand is the half-width of the gray band treated as
	// lying directly on the boundary.
	boundaryBand = 0.1

	// rawBackgroundTolerance is the squared RGB color distance beyond
	// which a pixel counts as foreground in raw input mode.
	rawBackgroundTolerance = 0.25
)

// SeedKernel computes the encoded seed position for pixel (x, y) of the
// input image. It is the per-pixel program of the seed pass; every
// device realization must match its semantics exactly.
//
// For antialiased input the kernel estimates sub-pixel boundary
// locations: a pixel whose gray value sits inside the boundary band
// seeds at its own coordinate; otherwise the 4-connected neighbors are
// inspected for a gray crossing and the crossing point is found by
// linear interpolation. Pixels with no crossing emit the sentinel.
func SeedKernel(input Sampler, x, y int, p PassParams) RGBA {
	if p.RawInput {
		return rawSeed(input, x, y, p)
	}

	g := input.Sample(x, y).R
	fx, fy := float64(x), float64(y)

	if math.Abs(g-grayThreshold) < boundaryBand {
		return EncodePosition(fx, fy)
	}

	// Horizontal crossing: prefer the smaller resulting x.
	hx := math.Inf(1)
	haveH := false
	for _, dx := range [2]int{-1, 1} {
		gn := input.Sample(x+dx, y).R
		if !crossesThreshold(g, gn) {
			continue
		}
		t := math.Abs(grayThreshold-g) / math.Abs(gn-g)
		cx := fx + t*float64(dx)
		if !haveH || cx < hx {
			hx = cx
			haveH = true
		}
	}

	// Vertical crossing: keep the nearer of the two candidates.
	vy := fy
	vt := math.Inf(1)
	haveV := false
	for _, dy := range [2]int{-1, 1} {
		gn := input.Sample(x, y+dy).R
		if !crossesThreshold(g, gn) {
			continue
		}
		t := math.Abs(grayThreshold-g) / math.Abs(gn-g)
		if !haveV || t < vt {
			vy = fy + t*float64(dy)
			vt = t
			haveV = true
		}
	}

	switch {
	case haveH && haveV:
		// Minimum x from either estimate, y from the vertical one.
		return EncodePosition(math.Min(hx, fx), vy)
	case haveH:
		return EncodePosition(hx, fy)
	case haveV:
		return EncodePosition(fx, vy)
	default:
		return EncodePosition(SentinelPosition, SentinelPosition)
	}
}

// rawSeed seeds every pixel whose color differs from the flat
// background color; no antialiasing assumption, no sub-pixel estimate.
func rawSeed(input Sampler, x, y int, p PassParams) RGBA {
	c := input.Sample(x, y)
	dr := c.R - p.Background.R
	dg := c.G - p.Background.G
	db := c.B - p.Background.B
	if dr*dr+dg*dg+db*db > rawBackgroundTolerance {
		return EncodePosition(float64(x), float64(y))
	}
	return EncodePosition(SentinelPosition, SentinelPosition)
}

// crossesThreshold reports whether the gray values g and gn lie on
// opposite sides of the threshold.
func crossesThreshold(g, gn float64) bool {
	return (g-grayThreshold)*(gn-grayThreshold) < 0
}
