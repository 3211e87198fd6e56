package distfield

import (
	"errors"
	"fmt"
)

// Generator errors.
var (
	// ErrDestroyed is returned when using a generator after Destroy.
	ErrDestroyed = errors.New("distfield: generator destroyed")

	// ErrNotGenerated is returned when reading pixels before any
	// invocation has run.
	ErrNotGenerated = errors.New("distfield: no field generated yet")

	// ErrEmptyInput is returned for nil or zero-sized input grids.
	ErrEmptyInput = errors.New("distfield: input grid is empty")
)

// Generator owns the buffers and schedules the passes of the distance
// field pipeline. It is not safe for concurrent use: at most one
// invocation executes at a time per generator.
//
// Buffers are allocated lazily on first use and reused across
// invocations while the input dimensions stay unchanged; a dimension
// change resizes them in place. Destroy releases everything.
type Generator struct {
	device  Device
	ownsDev bool

	width  int
	height int

	// Pipeline buffers, exclusively owned by the generator. input
	// holds the uploaded source image (seed derivation and distance
	// sign), ping/pong carry encoded seed positions between flood
	// passes, output receives the terminal distance pass.
	input  Texture
	ping   Texture
	pong   Texture
	output Texture

	generated bool
	destroyed bool
}

// Option customizes generator construction.
type Option func(*generatorOptions)

type generatorOptions struct {
	device  Device
	workers int
}

// WithDevice runs the pipeline on the given device instead of the
// default one. The caller keeps ownership: Destroy will not close a
// device supplied this way.
func WithDevice(d Device) Option {
	return func(o *generatorOptions) {
		o.device = d
	}
}

// WithWorkers makes the generator create a software device with the
// given worker count instead of the default device. Ignored when a
// device is supplied via WithDevice.
func WithWorkers(n int) Option {
	return func(o *generatorOptions) {
		o.workers = n
	}
}

// New creates a generator. Without options it uses DefaultDevice(),
// which prefers a registered GPU device and falls back to the built-in
// software device.
func New(opts ...Option) *Generator {
	var o generatorOptions
	for _, opt := range opts {
		opt(&o)
	}

	g := &Generator{device: o.device}
	if g.device == nil {
		if o.workers > 0 {
			g.device = NewSoftwareDeviceWithWorkers(o.workers)
		} else {
			g.device = DefaultDevice()
		}
		g.ownsDev = true
	}
	return g
}

// Device returns the device the generator runs on.
func (g *Generator) Device() Device { return g.device }

// Width returns the current field width (0 before the first
// invocation).
func (g *Generator) Width() int { return g.width }

// Height returns the current field height (0 before the first
// invocation).
func (g *Generator) Height() int { return g.height }

// Generate computes a signed distance field for an antialiased input:
// black foreground shapes on a white background. Pixels with gray
// value below 0.5 (foreground) receive negative distances, the rest
// positive. The result stays on the device until ReadPixels or Field.
func (g *Generator) Generate(input *Pixmap, quality Quality) error {
	return g.run(input, PassParams{}, quality)
}

// GenerateRaw computes an unsigned distance field for arbitrary
// content against a flat background color, with no antialiasing
// assumption: every pixel differing from the background seeds the
// flood directly at its own coordinate.
func (g *Generator) GenerateRaw(input *Pixmap, background RGBA, quality Quality) error {
	return g.run(input, PassParams{Unsigned: true, RawInput: true, Background: background}, quality)
}

func (g *Generator) run(input *Pixmap, base PassParams, quality Quality) error {
	if g.destroyed {
		return ErrDestroyed
	}
	if input == nil || input.Width() <= 0 || input.Height() <= 0 {
		return ErrEmptyInput
	}
	if quality < QualityBasic || quality > QualityBest {
		return fmt.Errorf("distfield: unknown quality %d", quality)
	}

	w, h := input.Width(), input.Height()
	if err := g.ensureResources(w, h); err != nil {
		return err
	}
	if err := g.device.Upload(g.input, input.Data()); err != nil {
		return fmt.Errorf("distfield: upload input: %w", err)
	}

	base.Width = w
	base.Height = h

	if err := g.device.SeedPass(g.ping, g.input, base); err != nil {
		return fmt.Errorf("distfield: seed pass: %w", err)
	}

	for _, ps := range buildPassList(StepSchedule(w, h), quality) {
		p := base
		p.Step = ps.step
		p.Mode = ps.mode

		if ps.mode == PassPropagate {
			if err := g.device.FloodPass(g.pong, g.ping, g.input, p); err != nil {
				return fmt.Errorf("distfield: flood pass (step %d): %w", ps.step, err)
			}
			// Swap after every propagation pass; the next pass must
			// never read the buffer it writes.
			g.ping, g.pong = g.pong, g.ping
		} else {
			if err := g.device.FloodPass(g.output, g.ping, g.input, p); err != nil {
				return fmt.Errorf("distfield: distance pass (step %d): %w", ps.step, err)
			}
		}
	}

	g.generated = true
	return nil
}

// floodPass describes one scheduled flood invocation.
type floodPass struct {
	step int
	mode PassMode
}

// buildPassList turns the base schedule and the quality's extension
// passes into the ordered pass sequence. Exactly one distance-mode
// pass terminates every sequence.
func buildPassList(steps []int, quality Quality) []floodPass {
	passes := make([]floodPass, 0, len(steps)+2)
	for _, s := range steps {
		passes = append(passes, floodPass{step: s, mode: PassPropagate})
	}

	switch quality {
	case QualityBetter:
		passes = append(passes, floodPass{step: 1, mode: PassDistance})
	case QualityBest:
		passes = append(passes,
			floodPass{step: 2, mode: PassPropagate},
			floodPass{step: 1, mode: PassDistance})
	default: // QualityBasic: the final schedule pass emits distances.
		if len(passes) == 0 {
			passes = append(passes, floodPass{step: 1, mode: PassDistance})
		} else {
			passes[len(passes)-1].mode = PassDistance
		}
	}
	return passes
}

// ensureResources allocates or resizes the four pipeline textures to
// the input dimensions. Resizing to the current size is a no-op inside
// the textures, so repeated invocations with unchanged dimensions
// reuse the buffers without reallocation.
func (g *Generator) ensureResources(w, h int) error {
	if g.input == nil {
		targets := []*Texture{&g.input, &g.ping, &g.pong, &g.output}
		for i, tp := range targets {
			t, err := g.device.NewTexture(w, h)
			if err != nil {
				// Roll back so a later invocation retries the
				// allocation instead of resizing nil textures.
				for _, done := range targets[:i] {
					(*done).Destroy()
					*done = nil
				}
				return fmt.Errorf("distfield: allocate buffer: %w", err)
			}
			*tp = t
		}
		g.width, g.height = w, h
		Logger().Debug("allocated field buffers", "width", w, "height", h, "device", g.device.Name())
		return nil
	}

	if w == g.width && h == g.height {
		return nil
	}
	for _, t := range []Texture{g.input, g.ping, g.pong, g.output} {
		if err := t.Resize(w, h); err != nil {
			return fmt.Errorf("distfield: resize buffer: %w", err)
		}
	}
	g.width, g.height = w, h
	g.generated = false
	Logger().Debug("resized field buffers", "width", w, "height", h)
	return nil
}

// ReadPixels blocks until the output target is readable and returns
// its RGBA8 contents, row-major with the origin at the bottom-left.
// It must not be called before a successful Generate/GenerateRaw.
func (g *Generator) ReadPixels() ([]byte, error) {
	if g.destroyed {
		return nil, ErrDestroyed
	}
	if !g.generated {
		return nil, ErrNotGenerated
	}
	return g.device.ReadPixels(g.output)
}

// Field reads back the output target and wraps it in a decoded view.
func (g *Generator) Field() (*Field, error) {
	pix, err := g.ReadPixels()
	if err != nil {
		return nil, err
	}
	return &Field{width: g.width, height: g.height, pix: pix}, nil
}

// Destroy releases all buffers and, for generators that created their
// own device, the device itself. The generator is unusable afterward;
// any later call fails with ErrDestroyed.
func (g *Generator) Destroy() {
	if g.destroyed {
		return
	}
	g.destroyed = true
	for _, t := range []Texture{g.input, g.ping, g.pong, g.output} {
		if t != nil {
			t.Destroy()
		}
	}
	g.input, g.ping, g.pong, g.output = nil, nil, nil, nil
	if g.ownsDev {
		g.device.Close()
	}
}
