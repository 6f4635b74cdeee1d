//go:build opencl

package main

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"
)

// openCLNarrowPhase offloads the narrow-phase circle test to an OpenCL
// device. Positions, radii, and the candidate pair list are uploaded each
// tick; detected collisions come back as packed arrays compacted through an
// atomic counter. Record order across work items is unspecified, like the
// CPU workers' completion order.
type openCLNarrowPhase struct {
	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program
	kernel  *cl.Kernel

	posXBuf    *cl.MemObject
	posYBuf    *cl.MemObject
	radiusBuf  *cl.MemObject
	pairBuf    *cl.MemObject
	outFirst   *cl.MemObject
	outSecond  *cl.MemObject
	outNormalX *cl.MemObject
	outNormalY *cl.MemObject
	outDepth   *cl.MemObject
	countBuf   *cl.MemObject

	circleCapacity int
	pairCapacity   int

	// Host-side scratch for readback.
	firstScratch   []int32
	secondScratch  []int32
	normalXScratch []float32
	normalYScratch []float32
	depthScratch   []float32

	deviceName string
}

const narrowPhaseKernelSource = `__kernel void narrow_phase(
    const int pair_count,
    __global const int2* pairs,
    __global const float* pos_x,
    __global const float* pos_y,
    __global const float* radius,
    __global int* out_first,
    __global int* out_second,
    __global float* out_normal_x,
    __global float* out_normal_y,
    __global float* out_depth,
    __global int* out_count)
{
    int gid = get_global_id(0);
    if (gid >= pair_count) {
        return;
    }
    int2 pair = pairs[gid];
    int i = pair.x;
    int j = pair.y;

    float radii = radius[i] + radius[j];
    float dx = pos_x[j] - pos_x[i];
    float dy = pos_y[j] - pos_y[i];
    float distance_squared = dx * dx + dy * dy;
    if (distance_squared >= radii * radii) {
        return;
    }

    float distance = sqrt(distance_squared);
    float nx = 1.0f;
    float ny = 0.0f;
    if (distance > 0.0f) {
        nx = dx / distance;
        ny = dy / distance;
    }

    int slot = atomic_inc(out_count);
    out_first[slot] = i;
    out_second[slot] = j;
    out_normal_x[slot] = nx;
    out_normal_y[slot] = ny;
    out_depth[slot] = radii - distance;
}`

// newOpenCLNarrowPhase picks a device (GPU preferred, CPU fallback), builds
// the kernel, and allocates the circle-sized buffers. Pair buffers grow on
// demand in detect.
func newOpenCLNarrowPhase(circleCapacity int) (*openCLNarrowPhase, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms; install OpenCL drivers and verify with `clinfo`"
		}
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	if len(platforms) == 0 {
		return nil, errors.New("no OpenCL platforms available; ensure a vendor driver is installed and detected by `clinfo`")
	}
	var device *cl.Device
	for _, p := range platforms {
		devices, derr := p.GetDevices(cl.DeviceTypeGPU)
		if derr != nil && derr != cl.ErrDeviceNotFound {
			continue
		}
		if len(devices) > 0 {
			device = devices[0]
			break
		}
	}
	if device == nil {
		for _, p := range platforms {
			devices, derr := p.GetDevices(cl.DeviceTypeCPU)
			if derr != nil && derr != cl.ErrDeviceNotFound {
				continue
			}
			if len(devices) > 0 {
				device = devices[0]
				break
			}
		}
	}
	if device == nil {
		return nil, errors.New("no suitable OpenCL devices found")
	}

	context, err := cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, fmt.Errorf("creating OpenCL context: %w", err)
	}
	queue, err := context.CreateCommandQueue(device, 0)
	if err != nil {
		context.Release()
		return nil, fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	program, err := context.CreateProgramWithSource([]string{narrowPhaseKernelSource})
	if err != nil {
		queue.Release()
		context.Release()
		return nil, fmt.Errorf("creating OpenCL program: %w", err)
	}
	if err := program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		program.Release()
		queue.Release()
		context.Release()
		if buildErr, ok := err.(cl.BuildError); ok {
			return nil, fmt.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return nil, fmt.Errorf("building OpenCL program: %w", err)
	}
	kernel, err := program.CreateKernel("narrow_phase")
	if err != nil {
		program.Release()
		queue.Release()
		context.Release()
		return nil, fmt.Errorf("creating OpenCL kernel: %w", err)
	}

	solver := &openCLNarrowPhase{
		context:        context,
		queue:          queue,
		program:        program,
		kernel:         kernel,
		circleCapacity: circleCapacity,
		deviceName:     device.Name(),
	}

	floatBytes := circleCapacity * int(unsafe.Sizeof(float32(0)))
	if solver.posXBuf, err = context.CreateEmptyBuffer(cl.MemReadOnly, floatBytes); err != nil {
		solver.Close()
		return nil, fmt.Errorf("allocating position buffer: %w", err)
	}
	if solver.posYBuf, err = context.CreateEmptyBuffer(cl.MemReadOnly, floatBytes); err != nil {
		solver.Close()
		return nil, fmt.Errorf("allocating position buffer: %w", err)
	}
	if solver.radiusBuf, err = context.CreateEmptyBuffer(cl.MemReadOnly, floatBytes); err != nil {
		solver.Close()
		return nil, fmt.Errorf("allocating radius buffer: %w", err)
	}
	if solver.countBuf, err = context.CreateEmptyBuffer(cl.MemReadWrite, int(unsafe.Sizeof(int32(0)))); err != nil {
		solver.Close()
		return nil, fmt.Errorf("allocating counter buffer: %w", err)
	}

	return solver, nil
}

// ensurePairCapacity grows the pair and output buffers to hold pairCount
// entries. Outputs are sized like the pair list: every candidate could
// collide.
func (s *openCLNarrowPhase) ensurePairCapacity(pairCount int) error {
	if pairCount <= s.pairCapacity {
		return nil
	}
	capacity := s.pairCapacity * 2
	if capacity < pairCount {
		capacity = pairCount
	}

	for _, buf := range []*cl.MemObject{s.pairBuf, s.outFirst, s.outSecond, s.outNormalX, s.outNormalY, s.outDepth} {
		if buf != nil {
			buf.Release()
		}
	}

	intBytes := int(unsafe.Sizeof(int32(0)))
	floatBytes := int(unsafe.Sizeof(float32(0)))
	var err error
	if s.pairBuf, err = s.context.CreateEmptyBuffer(cl.MemReadOnly, capacity*2*intBytes); err != nil {
		return fmt.Errorf("allocating pair buffer: %w", err)
	}
	if s.outFirst, err = s.context.CreateEmptyBuffer(cl.MemWriteOnly, capacity*intBytes); err != nil {
		return fmt.Errorf("allocating output buffer: %w", err)
	}
	if s.outSecond, err = s.context.CreateEmptyBuffer(cl.MemWriteOnly, capacity*intBytes); err != nil {
		return fmt.Errorf("allocating output buffer: %w", err)
	}
	if s.outNormalX, err = s.context.CreateEmptyBuffer(cl.MemWriteOnly, capacity*floatBytes); err != nil {
		return fmt.Errorf("allocating output buffer: %w", err)
	}
	if s.outNormalY, err = s.context.CreateEmptyBuffer(cl.MemWriteOnly, capacity*floatBytes); err != nil {
		return fmt.Errorf("allocating output buffer: %w", err)
	}
	if s.outDepth, err = s.context.CreateEmptyBuffer(cl.MemWriteOnly, capacity*floatBytes); err != nil {
		return fmt.Errorf("allocating output buffer: %w", err)
	}
	s.pairCapacity = capacity

	if cap(s.firstScratch) < capacity {
		s.firstScratch = make([]int32, capacity)
		s.secondScratch = make([]int32, capacity)
		s.normalXScratch = make([]float32, capacity)
		s.normalYScratch = make([]float32, capacity)
		s.depthScratch = make([]float32, capacity)
	}

	return nil
}

// detect runs the narrow phase for the given candidate pairs on the device
// and appends the detected collisions to result.
func (s *openCLNarrowPhase) detect(circles *circleData, pairs [][2]int32, result *[]collision) error {
	pairCount := len(pairs)
	if pairCount == 0 {
		return nil
	}
	count := circles.count()
	if count > s.circleCapacity {
		return fmt.Errorf("circle count %d exceeds device capacity %d", count, s.circleCapacity)
	}
	if err := s.ensurePairCapacity(pairCount); err != nil {
		return err
	}

	if _, err := s.queue.EnqueueWriteBufferFloat32(s.posXBuf, false, 0, circles.posX, nil); err != nil {
		return fmt.Errorf("writing positions: %w", err)
	}
	if _, err := s.queue.EnqueueWriteBufferFloat32(s.posYBuf, false, 0, circles.posY, nil); err != nil {
		return fmt.Errorf("writing positions: %w", err)
	}
	if _, err := s.queue.EnqueueWriteBufferFloat32(s.radiusBuf, false, 0, circles.radius, nil); err != nil {
		return fmt.Errorf("writing radii: %w", err)
	}

	pairBytes := pairCount * 2 * int(unsafe.Sizeof(int32(0)))
	if _, err := s.queue.EnqueueWriteBuffer(s.pairBuf, false, 0, pairBytes, unsafe.Pointer(&pairs[0]), nil); err != nil {
		return fmt.Errorf("writing pairs: %w", err)
	}

	zero := []int32{0}
	if _, err := s.queue.EnqueueWriteBuffer(s.countBuf, false, 0, int(unsafe.Sizeof(int32(0))), unsafe.Pointer(&zero[0]), nil); err != nil {
		return fmt.Errorf("resetting counter: %w", err)
	}

	if err := s.kernel.SetArgs(
		int32(pairCount),
		s.pairBuf,
		s.posXBuf,
		s.posYBuf,
		s.radiusBuf,
		s.outFirst,
		s.outSecond,
		s.outNormalX,
		s.outNormalY,
		s.outDepth,
		s.countBuf,
	); err != nil {
		return fmt.Errorf("setting kernel arguments: %w", err)
	}

	if _, err := s.queue.EnqueueNDRangeKernel(s.kernel, nil, []int{pairCount}, nil, nil); err != nil {
		return fmt.Errorf("enqueueing kernel: %w", err)
	}

	var collisionCount int32
	if _, err := s.queue.EnqueueReadBuffer(s.countBuf, true, 0, int(unsafe.Sizeof(int32(0))), unsafe.Pointer(&collisionCount), nil); err != nil {
		return fmt.Errorf("reading counter: %w", err)
	}
	if collisionCount == 0 {
		return nil
	}
	n := int(collisionCount)

	intBytes := n * int(unsafe.Sizeof(int32(0)))
	if _, err := s.queue.EnqueueReadBuffer(s.outFirst, true, 0, intBytes, unsafe.Pointer(&s.firstScratch[0]), nil); err != nil {
		return fmt.Errorf("reading collisions: %w", err)
	}
	if _, err := s.queue.EnqueueReadBuffer(s.outSecond, true, 0, intBytes, unsafe.Pointer(&s.secondScratch[0]), nil); err != nil {
		return fmt.Errorf("reading collisions: %w", err)
	}
	if _, err := s.queue.EnqueueReadBufferFloat32(s.outNormalX, true, 0, s.normalXScratch[:n], nil); err != nil {
		return fmt.Errorf("reading collisions: %w", err)
	}
	if _, err := s.queue.EnqueueReadBufferFloat32(s.outNormalY, true, 0, s.normalYScratch[:n], nil); err != nil {
		return fmt.Errorf("reading collisions: %w", err)
	}
	if _, err := s.queue.EnqueueReadBufferFloat32(s.outDepth, true, 0, s.depthScratch[:n], nil); err != nil {
		return fmt.Errorf("reading collisions: %w", err)
	}

	for k := 0; k < n; k++ {
		*result = append(*result, collision{
			first:       s.firstScratch[k],
			second:      s.secondScratch[k],
			normalX:     s.normalXScratch[k],
			normalY:     s.normalYScratch[k],
			penetration: s.depthScratch[k],
		})
	}

	return nil
}

// Close releases every device object. Safe to call on a partially
// constructed solver.
func (s *openCLNarrowPhase) Close() {
	for _, buf := range []*cl.MemObject{
		s.countBuf, s.outDepth, s.outNormalY, s.outNormalX,
		s.outSecond, s.outFirst, s.pairBuf,
		s.radiusBuf, s.posYBuf, s.posXBuf,
	} {
		if buf != nil {
			buf.Release()
		}
	}
	s.countBuf = nil
	s.outDepth, s.outNormalY, s.outNormalX = nil, nil, nil
	s.outSecond, s.outFirst, s.pairBuf = nil, nil, nil
	s.radiusBuf, s.posYBuf, s.posXBuf = nil, nil, nil

	if s.kernel != nil {
		s.kernel.Release()
		s.kernel = nil
	}
	if s.program != nil {
		s.program.Release()
		s.program = nil
	}
	if s.queue != nil {
		s.queue.Release()
		s.queue = nil
	}
	if s.context != nil {
		s.context.Release()
		s.context = nil
	}
}

// DeviceName reports the selected OpenCL device.
func (s *openCLNarrowPhase) DeviceName() string {
	return s.deviceName
}
