//go:build windows

package webgpu

import (
	"encoding/binary"
	"sync"
	"unsafe"

	"github.com/born-ml/ember/internal/backend"
	"github.com/born-ml/ember/internal/backend/cpu"
	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// Backend owns one WebGPU device and the compiled GEMM pipeline.
type Backend struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	shader   *wgpu.ShaderModule
	pipeline *wgpu.ComputePipeline

	fallback *cpu.Backend
}

// New requests a high-performance adapter and compiles the GEMM shader.
// Returns an error if WebGPU is not available or initialization fails.
func New() (be *Backend, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			be = nil
			err = errors.Wrapf(ErrUnavailable, "native library: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, errors.Wrap(err, "webgpu: failed to request adapter")
	}
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, errors.Wrap(err, "webgpu: failed to request device")
	}
	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, errors.New("webgpu: failed to get queue")
	}

	shader := device.CreateShaderModuleWGSL(gemmShader)
	pipeline := device.CreateComputePipelineSimple(nil, shader, "main")
	return &Backend{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    queue,
		shader:   shader,
		pipeline: pipeline,
		fallback: cpu.New(),
	}, nil
}

// Name implements backend.Backend.
func (*Backend) Name() string { return "webgpu" }

// GemmFloat32 implements backend.Backend on the GPU.
func (b *Backend) GemmFloat32(a []float32, aT bool, bm []float32, bT bool, m, n, k int, c []float32) {
	backend.CheckDims("webgpu", len(a), len(bm), len(c), m, n, k)
	if err := b.run(a[:m*n], aT, bm[:n*k], bT, m, n, k, c[:m*k]); err != nil {
		exceptions.Panicf("webgpu: gemm [%d×%d]·[%d×%d] failed: %v", m, n, n, k, err)
	}
}

// GemmFloat64 implements backend.Backend with the CPU kernel.
func (b *Backend) GemmFloat64(a []float64, aT bool, bm []float64, bT bool, m, n, k int, c []float64) {
	b.fallback.GemmFloat64(a, aT, bm, bT, m, n, k, c)
}

// Release frees all GPU resources. The backend must not be used afterwards.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pipeline != nil {
		b.pipeline.Release()
		b.pipeline = nil
	}
	if b.shader != nil {
		b.shader.Release()
		b.shader = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

func float32Bytes(v []float32) []byte {
	//nolint:gosec // reinterpret the float slice for upload
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*4)
}

func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))
	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	mapped := unsafe.Slice((*byte)(buffer.GetMappedRange(0, size)), size)
	copy(mapped, data)
	buffer.Unmap()
	return buffer
}

func (b *Backend) run(a []float32, aT bool, bm []float32, bT bool, m, n, k int, c []float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.device == nil {
		return errors.New("backend released")
	}

	bufA := b.createBuffer(float32Bytes(a), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufA.Release()
	bufB := b.createBuffer(float32Bytes(bm), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufB.Release()

	//nolint:gosec // G115: dimensions are positive
	resultSize := uint64(m * k * 4)
	bufC := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  resultSize,
	})
	defer bufC.Release()

	var flags uint32
	if aT {
		flags |= 1
	}
	if bT {
		flags |= 2
	}
	params := make([]byte, 16)
	//nolint:gosec // G115: dimensions are positive
	binary.LittleEndian.PutUint32(params[0:4], uint32(m))
	//nolint:gosec // G115: dimensions are positive
	binary.LittleEndian.PutUint32(params[4:8], uint32(n))
	//nolint:gosec // G115: dimensions are positive
	binary.LittleEndian.PutUint32(params[8:12], uint32(k))
	binary.LittleEndian.PutUint32(params[12:16], flags)
	bufParams := b.createBuffer(params, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	defer bufParams.Release()

	layout := b.pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(layout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufA, 0, uint64(len(a)*4)),
		wgpu.BufferBindingEntry(1, bufB, 0, uint64(len(bm)*4)),
		wgpu.BufferBindingEntry(2, bufC, 0, resultSize),
		wgpu.BufferBindingEntry(3, bufParams, 0, 16),
	})
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(b.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	//nolint:gosec // G115: workgroup counts are positive
	pass.DispatchWorkgroups(uint32((k+workgroupSize-1)/workgroupSize), uint32((m+workgroupSize-1)/workgroupSize), 1)
	pass.End()

	staging := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  resultSize,
	})
	defer staging.Release()
	encoder.CopyBufferToBuffer(bufC, 0, staging, 0, resultSize)
	b.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, resultSize); err != nil {
		return errors.Wrap(err, "failed to map staging buffer")
	}
	mapped := unsafe.Slice((*byte)(staging.GetMappedRange(0, resultSize)), resultSize)
	copy(float32Bytes(c), mapped)
	staging.Unmap()
	return nil
}
