package distfield

import "math"

// floodOffsets are the nine sample offsets of a jump-flooding pass,
// scaled by the current step size: the pixel itself, the four edge
// neighbors and the four diagonal neighbors.
var floodOffsets = [9][2]int{
	{0, 0},
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{-1, -1}, {1, -1}, {-1, 1}, {1, 1},
}

// FloodKernel computes one jump-flooding step for pixel (x, y).
//
// prev holds the encoded seed positions from the previous pass; input
// is the original image, consulted only for the distance sign. The
// kernel keeps the candidate whose decoded seed position is nearest to
// the pixel's own grid coordinate. A neighbor is only a carrier of a
// previously found seed; its own grid coordinate never enters the
// comparison. Unseeded cells carry the sentinel, which decodes far
// outside the grid and therefore never wins against a real seed.
//
// In propagation mode the winner is re-encoded as a position. In
// distance mode the winner's Euclidean distance to the pixel is signed
// by the input's gray value (foreground negative) and encoded as a
// distance.
func FloodKernel(prev, input Sampler, x, y int, p PassParams) RGBA {
	fx, fy := float64(x), float64(y)

	bestD := math.Inf(1)
	var bestX, bestY float64
	for _, off := range floodOffsets {
		c := prev.Sample(x+off[0]*p.Step, y+off[1]*p.Step)
		sx, sy := DecodePosition(c)
		dx, dy := sx-fx, sy-fy
		d := dx*dx + dy*dy
		if d < bestD {
			bestD = d
			bestX, bestY = sx, sy
		}
	}

	if p.Mode == PassPropagate {
		return EncodePosition(bestX, bestY)
	}

	dist := math.Sqrt(bestD)
	if !p.Unsigned && input.Sample(x, y).R < grayThreshold {
		dist = -dist
	}
	return EncodeDistance(dist)
}
