//go:build !nogpu

// Package gpu implements the distfield.Device interface on top of
// wgpu/hal compute pipelines.
//
// Pass buffers live in GPU storage buffers holding packed RGBA8 texels
// as little-endian u32 words. The seed and flood passes are WGSL
// compute shaders whose per-pixel logic mirrors distfield.SeedKernel
// and distfield.FloodKernel; each pass dispatch is submitted and
// fenced before the next one runs, so passes observe each other's
// output in submission order.
package gpu
