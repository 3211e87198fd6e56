package distfield

import (
	"math"
	"testing"
)

// grayPixmap builds a pixmap from a row-major grid of gray values.
func grayPixmap(rows [][]float64) *Pixmap {
	h := len(rows)
	w := len(rows[0])
	pm := NewPixmap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pm.SetPixel(x, y, Gray(rows[y][x]))
		}
	}
	return pm
}

func seedPosition(t *testing.T, pm *Pixmap, x, y int, p PassParams) (float64, float64) {
	t.Helper()
	return DecodePosition(SeedKernel(PixmapSampler(pm), x, y, p))
}

func TestSeedKernelBoundaryBand(t *testing.T) {
	// A pixel whose gray value sits inside the boundary band seeds at
	// its own coordinate.
	pm := grayPixmap([][]float64{
		{1, 1, 1},
		{1, 0.5, 1},
		{1, 1, 1},
	})
	x, y := seedPosition(t, pm, 1, 1, PassParams{})
	if x != 1 || y != 1 {
		t.Errorf("band pixel seeds at (%v, %v), want (1, 1)", x, y)
	}
}

func TestSeedKernelHorizontalCrossing(t *testing.T) {
	// Sharp black/white edge between columns 1 and 2: both edge pixels
	// estimate the boundary at x = 1.5.
	pm := grayPixmap([][]float64{
		{0, 0, 1, 1},
		{0, 0, 1, 1},
		{0, 0, 1, 1},
	})
	for _, px := range []int{1, 2} {
		x, y := seedPosition(t, pm, px, 1, PassParams{})
		if x != 1.5 || y != 1 {
			t.Errorf("pixel (%d, 1) seeds at (%v, %v), want (1.5, 1)", px, x, y)
		}
	}
}

func TestSeedKernelVerticalCrossing(t *testing.T) {
	pm := grayPixmap([][]float64{
		{0, 0, 0},
		{0, 0, 0},
		{1, 1, 1},
		{1, 1, 1},
	})
	x, y := seedPosition(t, pm, 1, 1, PassParams{})
	if x != 1 || y != 1.5 {
		t.Errorf("pixel (1, 1) seeds at (%v, %v), want (1, 1.5)", x, y)
	}
	x, y = seedPosition(t, pm, 1, 2, PassParams{})
	if x != 1 || y != 1.5 {
		t.Errorf("pixel (1, 2) seeds at (%v, %v), want (1, 1.5)", x, y)
	}
}

func TestSeedKernelGradientInterpolation(t *testing.T) {
	// Unequal gray values interpolate the crossing linearly; with
	// g=0.2 and neighbor g≈0.9 the crossing sits at roughly x+0.43.
	pm := grayPixmap([][]float64{
		{0.2, 0.2, 0.9, 0.9},
	})
	x, y := seedPosition(t, pm, 1, 0, PassParams{})
	if x < 1.3 || x > 1.55 {
		t.Errorf("interpolated crossing x = %v, want within [1.3, 1.55]", x)
	}
	if y != 0 {
		t.Errorf("interpolated crossing y = %v, want 0", y)
	}
}

func TestSeedKernelCombinedCrossings(t *testing.T) {
	// Corner pixel of a 2x2 block sees crossings on both axes: the
	// seed takes the smaller x estimate and the vertical y estimate.
	pm := grayPixmap([][]float64{
		{0, 0, 1},
		{0, 0, 1},
		{1, 1, 1},
	})
	x, y := seedPosition(t, pm, 1, 1, PassParams{})
	if x != 1 || y != 1.5 {
		t.Errorf("corner pixel seeds at (%v, %v), want (1, 1.5)", x, y)
	}
}

func TestSeedKernelNoCrossingEmitsSentinel(t *testing.T) {
	pm := grayPixmap([][]float64{
		{1, 1, 1},
		{1, 1, 1},
	})
	x, y := seedPosition(t, pm, 1, 1, PassParams{})
	if x <= MaxPosition || y <= MaxPosition {
		t.Errorf("flat image seeds at (%v, %v), want sentinel beyond %v", x, y, MaxPosition)
	}
}

func TestSeedKernelEdgeClamping(t *testing.T) {
	// Neighbor reads at the image edge clamp to the edge texel: the
	// left read of pixel (0, 0) returns its own value and cannot
	// produce a spurious crossing, while the real right crossing is
	// still found.
	pm := grayPixmap([][]float64{
		{0, 1},
	})
	x, _ := seedPosition(t, pm, 0, 0, PassParams{})
	if x != 0.5 {
		t.Errorf("edge pixel seeds at x=%v, want 0.5", x)
	}
}

func TestSeedKernelRawInput(t *testing.T) {
	pm := NewPixmap(3, 3)
	pm.Clear(White)
	pm.SetPixel(1, 1, Black)
	pm.SetPixel(2, 2, RGB(0.9, 0.9, 0.9)) // within background tolerance

	p := PassParams{RawInput: true, Unsigned: true, Background: White}

	x, y := seedPosition(t, pm, 1, 1, p)
	if x != 1 || y != 1 {
		t.Errorf("raw foreground pixel seeds at (%v, %v), want (1, 1)", x, y)
	}
	x, _ = seedPosition(t, pm, 0, 0, p)
	if x <= MaxPosition {
		t.Errorf("raw background pixel seeds at x=%v, want sentinel", x)
	}
	x, _ = seedPosition(t, pm, 2, 2, p)
	if x <= MaxPosition {
		t.Errorf("near-background pixel seeds at x=%v, want sentinel", x)
	}
}

func TestCrossesThreshold(t *testing.T) {
	tests := []struct {
		g, gn float64
		want  bool
	}{
		{0.2, 0.8, true},
		{0.8, 0.2, true},
		{0.2, 0.3, false},
		{0.7, 0.9, false},
		{0.5, 0.8, false}, // exactly on threshold: no strict crossing
		{0.5, 0.5, false},
	}
	for _, tt := range tests {
		if got := crossesThreshold(tt.g, tt.gn); got != tt.want {
			t.Errorf("crossesThreshold(%v, %v) = %v, want %v", tt.g, tt.gn, got, tt.want)
		}
	}
}

func BenchmarkSeedKernel(b *testing.B) {
	pm := grayPixmap([][]float64{
		{0, 0, 0.3, 1},
		{0, 0.3, 1, 1},
		{0.3, 1, 1, 1},
	})
	src := PixmapSampler(pm)
	p := PassParams{Width: 4, Height: 3}

	b.ReportAllocs()
	for b.Loop() {
		for y := 0; y < 3; y++ {
			for x := 0; x < 4; x++ {
				_ = SeedKernel(src, x, y, p)
			}
		}
	}
}

func TestSeedKernelQuantizationStaysSubPixel(t *testing.T) {
	// Every seed estimate must stay within half a pixel of the true
	// edge for a sharp edge, despite the 1/8-pixel encoding.
	pm := grayPixmap([][]float64{
		{0, 1},
		{0, 1},
	})
	x, _ := seedPosition(t, pm, 0, 0, PassParams{})
	if math.Abs(x-0.5) > 1.0/PositionScale {
		t.Errorf("sharp edge estimate x=%v, want 0.5 within 1/8", x)
	}
}
