package distfield

import (
	"math"

	"github.com/gogpu/distfield/internal/parallel"
)

func init() {
	RegisterDevice(DeviceSoftware, func() (Device, error) {
		return NewSoftwareDevice(), nil
	})
}

// SoftwareDevice realizes the pass programs as parallel CPU loops over
// grid rows. Each pass maps SeedKernel or FloodKernel over every pixel,
// reading only the previous pass's buffer, so the per-pixel programs
// behave exactly like their GPU counterparts.
type SoftwareDevice struct {
	pool *parallel.Pool
}

// Compile-time interface check.
var _ Device = (*SoftwareDevice)(nil)

// NewSoftwareDevice creates a software device with GOMAXPROCS workers.
func NewSoftwareDevice() *SoftwareDevice {
	return NewSoftwareDeviceWithWorkers(0)
}

// NewSoftwareDeviceWithWorkers creates a software device with a
// specific worker count. If workers <= 0, GOMAXPROCS is used.
func NewSoftwareDeviceWithWorkers(workers int) *SoftwareDevice {
	return &SoftwareDevice{pool: parallel.NewPool(workers)}
}

// Name returns the device identifier.
func (d *SoftwareDevice) Name() string { return DeviceSoftware }

// Close stops the worker pool.
func (d *SoftwareDevice) Close() {
	d.pool.Close()
}

// NewTexture allocates a CPU-resident RGBA8 texture.
func (d *SoftwareDevice) NewTexture(width, height int) (Texture, error) {
	return &softwareTexture{
		width:  width,
		height: height,
		pix:    make([]byte, width*height*4),
	}, nil
}

// Upload copies RGBA8 pixel data into the texture.
func (d *SoftwareDevice) Upload(dst Texture, rgba []byte) error {
	t, err := softwareTarget(dst)
	if err != nil {
		return err
	}
	if len(rgba) != len(t.pix) {
		return ErrSizeMismatch
	}
	copy(t.pix, rgba)
	return nil
}

// SeedPass maps SeedKernel over every pixel of input into dst.
func (d *SoftwareDevice) SeedPass(dst, input Texture, params PassParams) error {
	out, err := softwareTarget(dst)
	if err != nil {
		return err
	}
	in, err := softwareTarget(input)
	if err != nil {
		return err
	}
	if out == in {
		return ErrBufferHazard
	}

	src := in.sampler()
	d.pool.Rows(out.height, func(y int) {
		for x := 0; x < out.width; x++ {
			out.setTexel(x, y, SeedKernel(src, x, y, params))
		}
	})
	return nil
}

// FloodPass maps FloodKernel over every pixel, reading seed positions
// from src and the original image from input.
func (d *SoftwareDevice) FloodPass(dst, src, input Texture, params PassParams) error {
	out, err := softwareTarget(dst)
	if err != nil {
		return err
	}
	prev, err := softwareTarget(src)
	if err != nil {
		return err
	}
	in, err := softwareTarget(input)
	if err != nil {
		return err
	}
	if out == prev || out == in {
		return ErrBufferHazard
	}

	prevS := prev.sampler()
	inS := in.sampler()
	d.pool.Rows(out.height, func(y int) {
		for x := 0; x < out.width; x++ {
			out.setTexel(x, y, FloodKernel(prevS, inS, x, y, params))
		}
	})
	return nil
}

// ReadPixels returns the texture contents as RGBA8 bytes with the rows
// flipped to the bottom-left origin convention.
func (d *SoftwareDevice) ReadPixels(src Texture) ([]byte, error) {
	t, err := softwareTarget(src)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(t.pix))
	stride := t.width * 4
	for y := 0; y < t.height; y++ {
		srcRow := t.pix[y*stride : (y+1)*stride]
		dstOff := (t.height - 1 - y) * stride
		copy(out[dstOff:dstOff+stride], srcRow)
	}
	return out, nil
}

// softwareTexture is a CPU byte buffer acting as both sampler input and
// pass destination.
type softwareTexture struct {
	width  int
	height int
	pix    []byte
}

func (t *softwareTexture) Width() int  { return t.width }
func (t *softwareTexture) Height() int { return t.height }

// Resize reallocates the buffer. A resize to the current dimensions is
// a no-op and leaves the contents untouched.
func (t *softwareTexture) Resize(width, height int) error {
	if t.pix == nil {
		return ErrTextureDestroyed
	}
	if width == t.width && height == t.height {
		return nil
	}
	t.width = width
	t.height = height
	t.pix = make([]byte, width*height*4)
	return nil
}

// Destroy releases the buffer.
func (t *softwareTexture) Destroy() {
	t.pix = nil
}

func (t *softwareTexture) sampler() Sampler {
	return &byteSampler{width: t.width, height: t.height, pix: t.pix}
}

// setTexel quantizes a kernel result into the RGBA8 buffer. Kernel
// outputs are exact multiples of 1/255, so rounding recovers the
// intended byte values.
func (t *softwareTexture) setTexel(x, y int, c RGBA) {
	i := (y*t.width + x) * 4
	t.pix[i+0] = uint8(clamp255(math.Round(c.R * 255)))
	t.pix[i+1] = uint8(clamp255(math.Round(c.G * 255)))
	t.pix[i+2] = uint8(clamp255(math.Round(c.B * 255)))
	t.pix[i+3] = uint8(clamp255(math.Round(c.A * 255)))
}

// softwareTarget asserts a Texture belongs to the software device and
// is still alive.
func softwareTarget(t Texture) (*softwareTexture, error) {
	st, ok := t.(*softwareTexture)
	if !ok || st == nil {
		return nil, ErrTextureDestroyed
	}
	if st.pix == nil {
		return nil, ErrTextureDestroyed
	}
	return st, nil
}
