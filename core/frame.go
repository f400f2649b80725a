package core

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// FrameSlot is the command recording and synchronisation state of one
// in-flight frame.
type FrameSlot struct {
	Pool   vk.CommandPool
	Buffer vk.CommandBuffer

	ImageAvailable vk.Semaphore
	RenderFinished vk.Semaphore
	InFlight       vk.Fence
}

// FrameRing rotates command recording state across overlapping frames.
// Frame N records into slot N modulo overlap, so the CPU prepares one
// frame while the GPU consumes another. Single-goroutine by design, the
// same as the rest of the rendering loop.
type FrameRing struct {
	slots       []FrameSlot
	frameNumber uint64
}

// NewFrameRing creates overlap command pools on the graphics family, each
// with one primary buffer and a set of sync objects. Pools allow
// per-buffer reset so a slot re-records without recycling the whole pool.
// Fences start signaled; the first wait on a slot must not block.
func NewFrameRing(logicalDevice vk.Device, graphicsFamily uint32, overlap int) (*FrameRing, error) {
	if overlap < 1 {
		overlap = 1
	}

	ring := &FrameRing{}
	for i := 0; i < overlap; i++ {
		poolInfo := vk.CommandPoolCreateInfo{
			SType:            vk.StructureTypeCommandPoolCreateInfo,
			Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
			QueueFamilyIndex: graphicsFamily,
		}
		var pool vk.CommandPool
		if err := vk.Error(vk.CreateCommandPool(logicalDevice, &poolInfo, nil, &pool)); err != nil {
			ring.Destroy(logicalDevice)
			return nil, errors.Wrap(ErrCommandPoolCreation, "vk.CreateCommandPool: "+err.Error())
		}
		ring.slots = append(ring.slots, FrameSlot{Pool: pool})
		slot := &ring.slots[i]

		allocateInfo := vk.CommandBufferAllocateInfo{
			SType:              vk.StructureTypeCommandBufferAllocateInfo,
			CommandPool:        pool,
			Level:              vk.CommandBufferLevelPrimary,
			CommandBufferCount: 1,
		}
		buffers := make([]vk.CommandBuffer, 1)
		if err := vk.Error(vk.AllocateCommandBuffers(logicalDevice, &allocateInfo, buffers)); err != nil {
			ring.Destroy(logicalDevice)
			return nil, errors.Wrap(ErrCommandBufferAllocation, "vk.AllocateCommandBuffers: "+err.Error())
		}
		slot.Buffer = buffers[0]

		semaphoreInfo := vk.SemaphoreCreateInfo{
			SType: vk.StructureTypeSemaphoreCreateInfo,
		}
		fenceInfo := vk.FenceCreateInfo{
			SType: vk.StructureTypeFenceCreateInfo,
			Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
		}
		if err := vk.Error(vk.CreateSemaphore(logicalDevice, &semaphoreInfo, nil, &slot.ImageAvailable)); err != nil {
			ring.Destroy(logicalDevice)
			return nil, errors.Wrap(ErrCommandPoolCreation, "vk.CreateSemaphore: "+err.Error())
		}
		if err := vk.Error(vk.CreateSemaphore(logicalDevice, &semaphoreInfo, nil, &slot.RenderFinished)); err != nil {
			ring.Destroy(logicalDevice)
			return nil, errors.Wrap(ErrCommandPoolCreation, "vk.CreateSemaphore: "+err.Error())
		}
		if err := vk.Error(vk.CreateFence(logicalDevice, &fenceInfo, nil, &slot.InFlight)); err != nil {
			ring.Destroy(logicalDevice)
			return nil, errors.Wrap(ErrCommandPoolCreation, "vk.CreateFence: "+err.Error())
		}
	}
	return ring, nil
}

// Current returns the slot serving the present frame number.
func (r *FrameRing) Current() *FrameSlot {
	return &r.slots[r.frameNumber%uint64(len(r.slots))]
}

// Advance moves the ring to the next frame.
func (r *FrameRing) Advance() {
	r.frameNumber++
}

// FrameNumber returns the monotonically increasing frame counter.
func (r *FrameRing) FrameNumber() uint64 {
	return r.frameNumber
}

// Overlap returns the number of slots in the ring.
func (r *FrameRing) Overlap() int {
	return len(r.slots)
}

// Destroy releases the sync objects and pools; command buffers go down
// with their pool.
func (r *FrameRing) Destroy(logicalDevice vk.Device) {
	for _, slot := range r.slots {
		if slot.ImageAvailable != vk.NullSemaphore {
			vk.DestroySemaphore(logicalDevice, slot.ImageAvailable, nil)
		}
		if slot.RenderFinished != vk.NullSemaphore {
			vk.DestroySemaphore(logicalDevice, slot.RenderFinished, nil)
		}
		if slot.InFlight != vk.NullFence {
			vk.DestroyFence(logicalDevice, slot.InFlight, nil)
		}
		vk.DestroyCommandPool(logicalDevice, slot.Pool, nil)
	}
	r.slots = nil
}
