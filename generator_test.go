package distfield

import (
	"errors"
	"math"
	"testing"
)

// circlePixmap renders an antialiased black circle on white using
// per-pixel edge coverage.
func circlePixmap(size int, cx, cy, r float64) *Pixmap {
	pm := NewPixmap(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			cov := clampUnit(r - d + 0.5)
			pm.SetPixel(x, y, Gray(1-cov))
		}
	}
	return pm
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func TestGenerateLifecycleErrors(t *testing.T) {
	g := New()

	if _, err := g.ReadPixels(); !errors.Is(err, ErrNotGenerated) {
		t.Errorf("ReadPixels before Generate = %v, want ErrNotGenerated", err)
	}
	if err := g.Generate(nil, QualityBasic); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Generate(nil) = %v, want ErrEmptyInput", err)
	}
	if err := g.Generate(NewPixmap(0, 0), QualityBasic); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Generate(0x0) = %v, want ErrEmptyInput", err)
	}
	if err := g.Generate(NewPixmap(4, 4), Quality(7)); err == nil {
		t.Error("Generate with unknown quality succeeded, want error")
	}

	g.Destroy()
	if err := g.Generate(NewPixmap(4, 4), QualityBasic); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Generate after Destroy = %v, want ErrDestroyed", err)
	}
	if _, err := g.ReadPixels(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("ReadPixels after Destroy = %v, want ErrDestroyed", err)
	}
	// Destroy is idempotent.
	g.Destroy()
}

func TestGenerateRawSinglePixel(t *testing.T) {
	const size = 64
	pm := NewPixmap(size, size)
	pm.Clear(White)
	pm.SetPixel(32, 32, Black)

	g := New()
	defer g.Destroy()

	if err := g.GenerateRaw(pm, White, QualityBest); err != nil {
		t.Fatalf("GenerateRaw() = %v", err)
	}
	field, err := g.Field()
	if err != nil {
		t.Fatalf("Field() = %v", err)
	}

	tests := []struct {
		x, y int
		want float64
	}{
		{32, 32, 0},
		{32, 40, 8},
		{40, 32, 8},
		{32, 24, 8},
		{35, 36, 5},
		{0, 32, 32},
	}
	for _, tt := range tests {
		got := field.DistanceAt(tt.x, tt.y)
		if math.Abs(got-tt.want) > 0.01 {
			t.Errorf("DistanceAt(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}

	// Raw mode is unsigned: no negative distances anywhere.
	lo, _ := field.MinMax()
	if lo < -0.01 {
		t.Errorf("unsigned field has negative minimum %v", lo)
	}
}

func TestGenerateCircleSignsAndMagnitude(t *testing.T) {
	const size = 33
	const r = 10.0
	pm := circlePixmap(size, 16, 16, r)

	g := New()
	defer g.Destroy()

	if err := g.Generate(pm, QualityBetter); err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	field, err := g.Field()
	if err != nil {
		t.Fatalf("Field() = %v", err)
	}

	// Inside the circle: negative. Outside: positive. Magnitudes track
	// the analytic distance to the circle along the axis within a pixel.
	tests := []struct {
		name string
		x, y int
		want float64
	}{
		{"center", 16, 16, -r},
		{"inside", 16, 11, -5},
		{"outside near", 16, 1, 5},
		{"outside corner", 0, 0, math.Hypot(16, 16) - r},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := field.DistanceAt(tt.x, tt.y)
			if math.Abs(got-tt.want) > 1.0 {
				t.Errorf("DistanceAt(%d, %d) = %v, want about %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestGenerateZeroAtBoundary(t *testing.T) {
	// A pixel whose gray value lands in the boundary band is its own
	// seed, so its distance decodes to zero (within one quantization
	// step).
	pm := NewPixmap(9, 9)
	pm.Clear(White)
	pm.SetPixel(4, 4, Gray(0.5))

	g := New()
	defer g.Destroy()

	if err := g.Generate(pm, QualityBasic); err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	field, err := g.Field()
	if err != nil {
		t.Fatalf("Field() = %v", err)
	}
	if d := field.DistanceAt(4, 4); math.Abs(d) > 1.0/DistanceScale {
		t.Errorf("DistanceAt(4, 4) = %v, want 0", d)
	}
}

func TestGenerateQualityLevelsAgree(t *testing.T) {
	// With a single seed the base schedule is already exact, so all
	// quality levels must produce the same field up to quantization.
	const size = 32
	pm := NewPixmap(size, size)
	pm.Clear(White)
	pm.SetPixel(10, 20, Black)

	fields := make(map[Quality]*Field)
	for _, q := range []Quality{QualityBasic, QualityBetter, QualityBest} {
		g := New()
		if err := g.GenerateRaw(pm, White, q); err != nil {
			t.Fatalf("GenerateRaw(%v) = %v", q, err)
		}
		f, err := g.Field()
		if err != nil {
			t.Fatalf("Field() = %v", err)
		}
		fields[q] = f
		g.Destroy()
	}

	base := fields[QualityBasic]
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			want := base.DistanceAt(x, y)
			for _, q := range []Quality{QualityBetter, QualityBest} {
				got := fields[q].DistanceAt(x, y)
				if math.Abs(got-want) > 2.0/DistanceScale {
					t.Errorf("quality %v differs at (%d, %d): %v vs %v", q, x, y, got, want)
				}
			}
		}
	}
}

// diagonalPixmap renders an antialiased half-plane split along y = x:
// foreground below the diagonal, a one-pixel linear ramp across it.
func diagonalPixmap(size int) *Pixmap {
	pm := NewPixmap(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := (float64(x) - float64(y)) / math.Sqrt2
			pm.SetPixel(x, y, Gray(clampUnit(0.5+d)))
		}
	}
	return pm
}

func TestGenerateQualityOrdering(t *testing.T) {
	// Extra quality passes re-run the step-1 minimum, so per-pixel
	// stored distances can only move toward the true distance. The mean
	// absolute error against the analytic diagonal must not grow with
	// quality.
	const size = 32
	pm := diagonalPixmap(size)

	maxErr := func(q Quality) float64 {
		g := New()
		defer g.Destroy()
		if err := g.Generate(pm, q); err != nil {
			t.Fatalf("Generate(%v) = %v", q, err)
		}
		f, err := g.Field()
		if err != nil {
			t.Fatalf("Field() = %v", err)
		}
		var worst float64
		for y := 2; y < size-2; y++ {
			for x := 2; x < size-2; x++ {
				truth := (float64(x) - float64(y)) / math.Sqrt2
				if e := math.Abs(f.DistanceAt(x, y) - truth); e > worst {
					worst = e
				}
			}
		}
		return worst
	}

	basic := maxErr(QualityBasic)
	better := maxErr(QualityBetter)
	best := maxErr(QualityBest)

	const slack = 0.01
	if better > basic+slack {
		t.Errorf("better quality error %v exceeds basic %v", better, basic)
	}
	if best > better+slack {
		t.Errorf("best quality error %v exceeds better %v", best, better)
	}
	// Sanity: the field itself tracks the analytic distance closely.
	if basic > 1.0 {
		t.Errorf("basic quality max error %v too large", basic)
	}
}

func TestGenerateMonotonicFromSeed(t *testing.T) {
	// Distance grows monotonically walking away from a lone seed at
	// the center. The grid is twice the largest schedule step wide.
	const size = 64
	pm := NewPixmap(size, size)
	pm.Clear(White)
	pm.SetPixel(32, 32, Black)

	g := New()
	defer g.Destroy()
	if err := g.GenerateRaw(pm, White, QualityBest); err != nil {
		t.Fatalf("GenerateRaw() = %v", err)
	}
	field, err := g.Field()
	if err != nil {
		t.Fatalf("Field() = %v", err)
	}

	prev := -1.0
	for x := 32; x < size; x++ {
		d := field.DistanceAt(x, 32)
		if d < prev-1.0/DistanceScale {
			t.Errorf("distance shrank walking right at x=%d: %v after %v", x, d, prev)
		}
		prev = d
	}
}

func TestGenerateResize(t *testing.T) {
	g := New()
	defer g.Destroy()

	gen := func(size int) *Field {
		pm := NewPixmap(size, size)
		pm.Clear(White)
		pm.SetPixel(size/2, size/2, Black)

		if err := g.GenerateRaw(pm, White, QualityBasic); err != nil {
			t.Fatalf("GenerateRaw at %d = %v", size, err)
		}
		if g.Width() != size || g.Height() != size {
			t.Fatalf("dimensions = %dx%d, want %dx%d", g.Width(), g.Height(), size, size)
		}
		field, err := g.Field()
		if err != nil {
			t.Fatalf("Field() at %d = %v", size, err)
		}
		if d := field.DistanceAt(size/2, size/2); math.Abs(d) > 0.01 {
			t.Errorf("seed distance at size %d = %v, want 0", size, d)
		}
		return field
	}

	// 10 -> 40 -> 10: the final run must reproduce the first one at
	// every pixel, with no stale state leaking from the 40x40 round.
	first := gen(10)
	gen(40)
	again := gen(10)

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			a, b := first.DistanceAt(x, y), again.DistanceAt(x, y)
			if math.Abs(a-b) > 1.0/DistanceScale {
				t.Errorf("field changed after resize round trip at (%d, %d): %v vs %v", x, y, a, b)
			}
		}
	}
}

// allocLimitDevice rejects texture allocations beyond a budget,
// simulating a device that runs out of memory mid-setup.
type allocLimitDevice struct {
	Device
	limit  int
	allocs int
}

func (d *allocLimitDevice) NewTexture(width, height int) (Texture, error) {
	if d.allocs >= d.limit {
		return nil, errors.New("out of texture memory")
	}
	d.allocs++
	return d.Device.NewTexture(width, height)
}

func TestGenerateAllocationFailureRecovers(t *testing.T) {
	sw := NewSoftwareDevice()
	defer sw.Close()
	dev := &allocLimitDevice{Device: sw, limit: 2}

	g := New(WithDevice(dev))
	defer g.Destroy()

	pm := NewPixmap(8, 8)
	pm.Clear(White)
	pm.SetPixel(4, 4, Black)

	// The second of four buffer allocations fails; the call must
	// return an error, not leave half-allocated state behind.
	if err := g.GenerateRaw(pm, White, QualityBasic); err == nil {
		t.Fatal("GenerateRaw with failing allocation succeeded, want error")
	}

	// With the budget lifted, the same generator must recover and run
	// normally instead of panicking on leftover nil buffers.
	dev.limit = 100
	if err := g.GenerateRaw(pm, White, QualityBasic); err != nil {
		t.Fatalf("GenerateRaw after recovery = %v", err)
	}
	field, err := g.Field()
	if err != nil {
		t.Fatalf("Field() = %v", err)
	}
	if d := field.DistanceAt(4, 4); math.Abs(d) > 0.01 {
		t.Errorf("seed distance after recovery = %v, want 0", d)
	}
}

func TestGenerateReuseSameSize(t *testing.T) {
	// Repeated invocations with unchanged dimensions reuse the buffers
	// and produce fresh results.
	g := New()
	defer g.Destroy()

	const size = 16
	for _, seed := range [][2]int{{2, 2}, {13, 13}} {
		pm := NewPixmap(size, size)
		pm.Clear(White)
		pm.SetPixel(seed[0], seed[1], Black)

		if err := g.GenerateRaw(pm, White, QualityBasic); err != nil {
			t.Fatalf("GenerateRaw() = %v", err)
		}
		field, err := g.Field()
		if err != nil {
			t.Fatalf("Field() = %v", err)
		}
		if d := field.DistanceAt(seed[0], seed[1]); math.Abs(d) > 0.01 {
			t.Errorf("seed (%d, %d) distance = %v, want 0", seed[0], seed[1], d)
		}
	}
}

func TestGenerateSinglePixelGrid(t *testing.T) {
	// A 1x1 grid has an empty schedule; the forced step-1 distance pass
	// still produces a field.
	pm := NewPixmap(1, 1)
	pm.SetPixel(0, 0, Black)

	g := New()
	defer g.Destroy()
	if err := g.GenerateRaw(pm, White, QualityBasic); err != nil {
		t.Fatalf("GenerateRaw() = %v", err)
	}
	field, err := g.Field()
	if err != nil {
		t.Fatalf("Field() = %v", err)
	}
	if d := field.DistanceAt(0, 0); math.Abs(d) > 0.01 {
		t.Errorf("DistanceAt(0, 0) = %v, want 0", d)
	}
}

func TestWithDeviceKeepsOwnership(t *testing.T) {
	dev := NewSoftwareDevice()
	defer dev.Close()

	g := New(WithDevice(dev))
	if g.Device() != dev {
		t.Fatal("generator did not use the supplied device")
	}
	g.Destroy()

	// The device must survive the generator: it still runs passes.
	g2 := New(WithDevice(dev))
	defer g2.Destroy()
	pm := NewPixmap(4, 4)
	pm.Clear(White)
	pm.SetPixel(1, 1, Black)
	if err := g2.GenerateRaw(pm, White, QualityBasic); err != nil {
		t.Errorf("GenerateRaw on shared device after Destroy = %v", err)
	}
}

func TestWithWorkers(t *testing.T) {
	g := New(WithWorkers(2))
	defer g.Destroy()

	if g.Device().Name() != DeviceSoftware {
		t.Fatalf("device = %q, want %q", g.Device().Name(), DeviceSoftware)
	}
	pm := NewPixmap(8, 8)
	pm.Clear(White)
	pm.SetPixel(4, 4, Black)
	if err := g.GenerateRaw(pm, White, QualityBasic); err != nil {
		t.Errorf("GenerateRaw() = %v", err)
	}
}

func TestFieldRowOrientation(t *testing.T) {
	// The seed sits at the top of the image; DistanceAt speaks top-left
	// coordinates even though ReadPixels returns bottom-left rows.
	pm := NewPixmap(1, 3)
	pm.Clear(White)
	pm.SetPixel(0, 0, Black)

	g := New()
	defer g.Destroy()
	if err := g.GenerateRaw(pm, White, QualityBasic); err != nil {
		t.Fatalf("GenerateRaw() = %v", err)
	}
	field, err := g.Field()
	if err != nil {
		t.Fatalf("Field() = %v", err)
	}
	if d := field.DistanceAt(0, 0); math.Abs(d) > 0.01 {
		t.Errorf("DistanceAt(0, 0) = %v, want 0", d)
	}
	if d := field.DistanceAt(0, 2); math.Abs(d-2) > 0.01 {
		t.Errorf("DistanceAt(0, 2) = %v, want 2", d)
	}
}

func BenchmarkGenerate(b *testing.B) {
	pm := circlePixmap(256, 128, 128, 80)
	g := New()
	defer g.Destroy()

	b.ReportAllocs()
	for b.Loop() {
		if err := g.Generate(pm, QualityBetter); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGenerateBest(b *testing.B) {
	pm := circlePixmap(256, 128, 128, 80)
	g := New()
	defer g.Destroy()

	b.ReportAllocs()
	for b.Loop() {
		if err := g.Generate(pm, QualityBest); err != nil {
			b.Fatal(err)
		}
	}
}
