// Package distfield generates signed distance fields from 2D raster
// images using the jump flooding algorithm.
//
// # Overview
//
// distfield turns an antialiased image of a shape into a grid of
// per-pixel distances to the shape's boundary, the representation used
// for resolution-independent glyph and icon rendering. The pipeline is
// a fixed sequence of data-parallel passes: a seed pass derives
// sub-pixel boundary positions from the input, a series of
// jump-flooding passes with halving step sizes propagates the nearest
// seed to every pixel, and a final distance pass converts the winning
// seeds into signed distances. Positions and distances travel between
// passes as fixed-point values packed into RGBA8 texels, so every
// intermediate buffer is an ordinary image.
//
// # Quick Start
//
//	import "github.com/gogpu/distfield"
//
//	gen := distfield.New()
//	defer gen.Destroy()
//
//	if err := gen.Generate(pixmap, distfield.QualityBetter); err != nil {
//		log.Fatal(err)
//	}
//	field, _ := gen.Field()
//	d := field.DistanceAt(x, y) // negative inside, positive outside
//
// # Devices
//
// Passes run on a Device. The built-in software device maps the pass
// kernels over the grid on a worker pool and is always available.
// Importing the gpu subpackage registers a WebGPU compute device that
// runs the same passes as compute shaders:
//
//	import _ "github.com/gogpu/distfield/gpu"
//
// New picks the best available device; WithDevice overrides the choice.
//
// # Coordinate System
//
// Input images use standard top-left raster coordinates. ReadPixels
// returns rows in bottom-left order (the GPU readback convention);
// Field converts back to top-left when decoding.
package distfield

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
