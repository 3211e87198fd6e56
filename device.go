// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package distfield

import (
	"errors"

	"github.com/gogpu/gpucontext"
)

// Device errors.
var (
	// ErrTextureDestroyed is returned when operating on a destroyed
	// texture.
	ErrTextureDestroyed = errors.New("distfield: texture destroyed")

	// ErrSizeMismatch is returned when uploaded pixel data does not
	// match the texture dimensions.
	ErrSizeMismatch = errors.New("distfield: pixel data size mismatch")

	// ErrBufferHazard is returned when a pass would read and write the
	// same texture. The orchestrator never does this; the check exists
	// so device implementations reject the hazard outright.
	ErrBufferHazard = errors.New("distfield: pass reads and writes the same texture")
)

// DeviceHandle provides GPU device access from a host application.
//
// Hosts that already own a GPU device (e.g. a gogpu application) can
// hand it to the WebGPU device in gpu/ instead of letting distfield
// create its own. DeviceHandle is an alias for
// gpucontext.DeviceProvider, keeping distfield compatible with the
// gpucontext ecosystem.
type DeviceHandle = gpucontext.DeviceProvider

// Texture is a device-resident 2D RGBA8 grid that can be both sampled
// by a pass and used as a pass's render destination.
//
// Lifecycle: allocated by Device.NewTexture, resized in place whenever
// input dimensions change (contents undefined after an actual resize),
// destroyed exactly once. Resizing to the current dimensions is a no-op
// and preserves contents.
type Texture interface {
	// Width returns the texture width in pixels.
	Width() int

	// Height returns the texture height in pixels.
	Height() int

	// Resize reallocates the texture for the new dimensions. Contents
	// are undefined afterward unless the dimensions are unchanged, in
	// which case Resize does nothing.
	Resize(width, height int) error

	// Destroy releases the texture's resources. The texture is
	// unusable afterward.
	Destroy()
}

// Device is the capability interface the pipeline requires from a
// graphics backend: texture allocation, pixel upload, the two per-pixel
// pass programs and blocking pixel readback.
//
// Passes execute in submission order; a pass fully completes before a
// later pass reads its output. Implementations must realize the seed
// and flood passes with semantics identical to SeedKernel and
// FloodKernel.
type Device interface {
	// Name returns the device identifier (e.g. "software", "gpu").
	Name() string

	// NewTexture allocates a width×height RGBA8 texture usable as both
	// pass input and pass destination.
	NewTexture(width, height int) (Texture, error)

	// Upload copies RGBA8 pixel data (row-major, top-left origin) into
	// the texture.
	Upload(dst Texture, rgba []byte) error

	// SeedPass runs the seed program over every pixel of input,
	// writing encoded seed positions to dst.
	SeedPass(dst, input Texture, params PassParams) error

	// FloodPass runs one jump-flooding step, reading seed positions
	// from src and the original image from input, writing to dst.
	// dst must not alias src.
	FloodPass(dst, src, input Texture, params PassParams) error

	// ReadPixels blocks until the texture's contents are readable and
	// returns them as RGBA8 bytes, row-major with the origin at the
	// bottom-left. Consumers converting to top-left coordinates flip
	// the row index: flippedRow = height - 1 - row.
	ReadPixels(src Texture) ([]byte, error)

	// Close releases all device resources.
	Close()
}
