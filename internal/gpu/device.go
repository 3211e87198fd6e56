//go:build !nogpu

package gpu

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/gogpu/distfield"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// passTimeout bounds how long a single pass may occupy the GPU before
// the fence wait gives up.
const passTimeout = 5 * time.Second

// Pass uniform flag bits. Must match the WGSL shaders.
const (
	flagUnsigned = 1 << 0
	flagRawInput = 1 << 1
)

// Device implements distfield.Device using wgpu/hal compute shaders.
//
// Textures are storage buffers of packed RGBA8 texels. Every pass is a
// single compute dispatch followed by a fence wait, which realizes the
// pipeline's strict submission-order guarantee.
type Device struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	seedShader    hal.ShaderModule
	floodShader   hal.ShaderModule
	bindLayout    hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	seedPipeline  hal.ComputePipeline
	floodPipeline hal.ComputePipeline

	// external is true when using a shared device from a host
	// application; shared resources are not destroyed on Close.
	external bool
	closed   bool
}

var _ distfield.Device = (*Device)(nil)

// New creates a GPU device with its own HAL instance, preferring a
// discrete or integrated adapter. Returns an error when no usable GPU
// backend is present; callers fall back to the software device.
func New() (*Device, error) {
	d := &Device{}
	if err := d.initGPU(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewWithProvider creates a GPU device on a shared HAL device from a
// host application. The provider must expose HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue (the convention
// used by gogpu device providers).
func NewWithProvider(provider any) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}

	d := &Device{device: device, queue: queue, external: true}
	if err := d.createPipelines(); err != nil {
		return nil, err
	}
	return d, nil
}

// Name returns the device identifier.
func (d *Device) Name() string { return distfield.DeviceGPU }

func (d *Device) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("gpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("gpu: create instance: %w", err)
	}
	d.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		d.instance = nil
		return fmt.Errorf("gpu: no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		d.instance = nil
		return fmt.Errorf("gpu: open device: %w", err)
	}
	d.device = openDev.Device
	d.queue = openDev.Queue

	if err := d.createPipelines(); err != nil {
		d.device.Destroy()
		instance.Destroy()
		d.device, d.queue, d.instance = nil, nil, nil
		return err
	}

	distfield.Logger().Info("GPU device initialized", "adapter", selected.Info.Name)
	return nil
}

// createPipelines compiles both shaders and builds the shared layout
// plus one compute pipeline per pass program.
func (d *Device) createPipelines() error {
	seedSPIRV, err := compileShader(seedShaderSource)
	if err != nil {
		return fmt.Errorf("gpu: seed shader: %w", err)
	}
	floodSPIRV, err := compileShader(floodShaderSource)
	if err != nil {
		return fmt.Errorf("gpu: flood shader: %w", err)
	}

	seedShader, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "distfield_seed",
		Source: hal.ShaderSource{SPIRV: seedSPIRV},
	})
	if err != nil {
		return fmt.Errorf("gpu: create seed shader module: %w", err)
	}
	d.seedShader = seedShader

	floodShader, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "distfield_flood",
		Source: hal.ShaderSource{SPIRV: floodSPIRV},
	})
	if err != nil {
		return fmt.Errorf("gpu: create flood shader module: %w", err)
	}
	d.floodShader = floodShader

	bindLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "distfield_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create bind group layout: %w", err)
	}
	d.bindLayout = bindLayout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "distfield_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{d.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create pipeline layout: %w", err)
	}
	d.pipeLayout = pipeLayout

	seedPipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   "distfield_seed_pipeline",
		Layout:  d.pipeLayout,
		Compute: hal.ComputeState{Module: d.seedShader, EntryPoint: "cs_seed"},
	})
	if err != nil {
		return fmt.Errorf("gpu: create seed pipeline: %w", err)
	}
	d.seedPipeline = seedPipeline

	floodPipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   "distfield_flood_pipeline",
		Layout:  d.pipeLayout,
		Compute: hal.ComputeState{Module: d.floodShader, EntryPoint: "cs_flood"},
	})
	if err != nil {
		return fmt.Errorf("gpu: create flood pipeline: %w", err)
	}
	d.floodPipeline = floodPipeline

	return nil
}

// NewTexture allocates a storage buffer sized for a width×height RGBA8
// grid.
func (d *Device) NewTexture(width, height int) (distfield.Texture, error) {
	buf, err := d.createStorage(width, height)
	if err != nil {
		return nil, err
	}
	return &texture{dev: d, width: width, height: height, buf: buf}, nil
}

func (d *Device) createStorage(width, height int) (hal.Buffer, error) {
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "distfield_texture",
		Size:  uint64(width) * uint64(height) * 4,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create texture buffer: %w", err)
	}
	return buf, nil
}

// Upload copies RGBA8 bytes into the texture's storage buffer. The
// byte layout already matches the shader's little-endian u32 packing.
func (d *Device) Upload(dst distfield.Texture, rgba []byte) error {
	t, err := d.target(dst)
	if err != nil {
		return err
	}
	if len(rgba) != t.width*t.height*4 {
		return distfield.ErrSizeMismatch
	}
	d.queue.WriteBuffer(t.buf, 0, rgba)
	return nil
}

// SeedPass dispatches the seed program. The source binding is unused
// by the shader; the input image fills both read slots.
func (d *Device) SeedPass(dst, input distfield.Texture, params distfield.PassParams) error {
	return d.dispatch(d.seedPipeline, dst, input, input, params)
}

// FloodPass dispatches one jump-flooding step.
func (d *Device) FloodPass(dst, src, input distfield.Texture, params distfield.PassParams) error {
	return d.dispatch(d.floodPipeline, dst, src, input, params)
}

func (d *Device) dispatch(pipeline hal.ComputePipeline, dstT, srcT, inputT distfield.Texture, params distfield.PassParams) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dst, err := d.target(dstT)
	if err != nil {
		return err
	}
	src, err := d.target(srcT)
	if err != nil {
		return err
	}
	input, err := d.target(inputT)
	if err != nil {
		return err
	}
	if dst == src || dst == input {
		return distfield.ErrBufferHazard
	}

	uniforms := passUniforms{
		Width:  uint32(params.Width),
		Height: uint32(params.Height),
		Step:   uint32(params.Step),
		Mode:   uint32(params.Mode),
	}
	if params.Unsigned {
		uniforms.Flags |= flagUnsigned
	}
	if params.RawInput {
		uniforms.Flags |= flagRawInput
	}
	uniforms.BgR = float32(params.Background.R)
	uniforms.BgG = float32(params.Background.G)
	uniforms.BgB = float32(params.Background.B)
	uniforms.BgA = float32(params.Background.A)
	uniformBytes := structToBytes(unsafe.Pointer(&uniforms), unsafe.Sizeof(uniforms)) //nolint:gosec // safe struct access

	uniformBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "distfield_params",
		Size:  uint64(len(uniformBytes)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create uniform buffer: %w", err)
	}
	defer d.device.DestroyBuffer(uniformBuf)
	d.queue.WriteBuffer(uniformBuf, 0, uniformBytes)

	bufSize := uint64(params.Width) * uint64(params.Height) * 4
	bindGroup, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "distfield_bind",
		Layout: d.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: uint64(len(uniformBytes))}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: src.buf.NativeHandle(), Offset: 0, Size: bufSize}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: input.buf.NativeHandle(), Offset: 0, Size: bufSize}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: dst.buf.NativeHandle(), Offset: 0, Size: bufSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create bind group: %w", err)
	}
	defer d.device.DestroyBindGroup(bindGroup)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "distfield_pass_encoder"})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("distfield_pass"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}

	w, h := uint32(params.Width), uint32(params.Height) //nolint:gosec // dimensions always fit uint32
	computePass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "distfield_pass"})
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	computePass.Dispatch((w+7)/8, (h+7)/8, 1)
	computePass.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	return d.submitAndWait(cmdBuf)
}

func (d *Device) submitAndWait(cmdBuf hal.CommandBuffer) error {
	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("gpu: create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}
	fenceOK, err := d.device.Wait(fence, 1, passTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("gpu: wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

// ReadPixels copies the texture into a staging buffer, blocks on the
// copy and returns the bytes with rows flipped to the bottom-left
// origin convention.
func (d *Device) ReadPixels(srcT distfield.Texture) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	src, err := d.target(srcT)
	if err != nil {
		return nil, err
	}
	size := uint64(src.width) * uint64(src.height) * 4

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "distfield_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "distfield_readback"})
	if err != nil {
		return nil, fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("distfield_readback"); err != nil {
		return nil, fmt.Errorf("gpu: begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(src.buf, staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	if err := d.submitAndWait(cmdBuf); err != nil {
		return nil, err
	}

	readback := make([]byte, size)
	if err := d.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("gpu: readback: %w", err)
	}

	// Storage order is top-left; the readback contract is bottom-left.
	out := make([]byte, size)
	stride := src.width * 4
	for y := 0; y < src.height; y++ {
		copy(out[(src.height-1-y)*stride:], readback[y*stride:(y+1)*stride])
	}
	return out, nil
}

// Close destroys pipelines, layouts and shader modules, then the
// device and instance unless they are shared with a host.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true

	if d.device != nil {
		if d.seedPipeline != nil {
			d.device.DestroyComputePipeline(d.seedPipeline)
		}
		if d.floodPipeline != nil {
			d.device.DestroyComputePipeline(d.floodPipeline)
		}
		if d.pipeLayout != nil {
			d.device.DestroyPipelineLayout(d.pipeLayout)
		}
		if d.bindLayout != nil {
			d.device.DestroyBindGroupLayout(d.bindLayout)
		}
		if d.seedShader != nil {
			d.device.DestroyShaderModule(d.seedShader)
		}
		if d.floodShader != nil {
			d.device.DestroyShaderModule(d.floodShader)
		}
	}

	if !d.external {
		if d.device != nil {
			d.device.Destroy()
		}
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
}

func (d *Device) target(t distfield.Texture) (*texture, error) {
	gt, ok := t.(*texture)
	if !ok || gt == nil || gt.buf == nil {
		return nil, distfield.ErrTextureDestroyed
	}
	return gt, nil
}

// texture is a GPU storage buffer holding a width×height grid of
// packed RGBA8 texels.
type texture struct {
	dev    *Device
	width  int
	height int
	buf    hal.Buffer
}

func (t *texture) Width() int  { return t.width }
func (t *texture) Height() int { return t.height }

// Resize reallocates the storage buffer. Contents are undefined after
// an actual resize; a resize to the current size is a no-op.
func (t *texture) Resize(width, height int) error {
	if t.buf == nil {
		return distfield.ErrTextureDestroyed
	}
	if width == t.width && height == t.height {
		return nil
	}
	buf, err := t.dev.createStorage(width, height)
	if err != nil {
		return err
	}
	t.dev.device.DestroyBuffer(t.buf)
	t.buf = buf
	t.width = width
	t.height = height
	return nil
}

// Destroy releases the storage buffer.
func (t *texture) Destroy() {
	if t.buf != nil {
		t.dev.device.DestroyBuffer(t.buf)
		t.buf = nil
	}
}

// passUniforms is the GPU layout of PassParams.
// Must match the Params struct in the WGSL shaders (48 bytes).
type passUniforms struct {
	Width  uint32
	Height uint32
	Step   uint32
	Mode   uint32
	Flags  uint32
	_      [3]uint32
	BgR    float32
	BgG    float32
	BgB    float32
	BgA    float32
}

func structToBytes(ptr unsafe.Pointer, size uintptr) []byte {
	return unsafe.Slice((*byte)(ptr), size)
}
