package distfield

// Sampler provides read access to a 2D grid of RGBA texels.
//
// Sampling outside the grid bounds returns the nearest edge texel
// (clamp-to-edge). Pass kernels rely on this: neighbor reads at image
// edges yield the clamped sample rather than an error. This is a known
// approximation at image edges.
type Sampler interface {
	// Dimensions returns the grid width and height in pixels.
	Dimensions() (width, height int)

	// Sample returns the texel at (x, y), clamping coordinates to the
	// grid bounds.
	Sample(x, y int) RGBA
}

// byteSampler samples an RGBA8 byte buffer in row-major, top-left
// origin order. It is the sampler used by the software device for both
// input images and intermediate pass buffers.
type byteSampler struct {
	width  int
	height int
	pix    []byte
}

func (s *byteSampler) Dimensions() (int, int) { return s.width, s.height }

func (s *byteSampler) Sample(x, y int) RGBA {
	x = clampInt(x, 0, s.width-1)
	y = clampInt(y, 0, s.height-1)
	i := (y*s.width + x) * 4
	return RGBA{
		R: float64(s.pix[i+0]) / 255,
		G: float64(s.pix[i+1]) / 255,
		B: float64(s.pix[i+2]) / 255,
		A: float64(s.pix[i+3]) / 255,
	}
}

// PixmapSampler adapts a Pixmap to the Sampler interface with
// clamp-to-edge semantics. Useful for running kernels directly against
// CPU-side images in tests and tools.
func PixmapSampler(pm *Pixmap) Sampler {
	return &byteSampler{width: pm.Width(), height: pm.Height(), pix: pm.Data()}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
