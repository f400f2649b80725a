package core

import (
	"math"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/lumen3d/lumen/device"
	"github.com/lumen3d/lumen/swapchain"
)

// NewVulkanRenderer creates a not yet initialised Vulkan API renderer
func NewVulkanRenderer(instance Instance, cfg RendererConfiguration) (Renderer, error) {
	return &VulkanRenderer{
		configuration: cfg,
		surface:       instance.Surface(),
		devices:       instance.AvailableDevices(),
	}, nil
}

// VulkanRenderer is a Vulkan API renderer
type VulkanRenderer struct {
	configuration RendererConfiguration

	surface vk.Surface
	devices []vk.PhysicalDevice

	selection     device.Selection
	logicalDevice vk.Device
	queues        device.Queues

	swapchain    *swapchain.Swapchain
	renderPass   vk.RenderPass
	framebuffers []vk.Framebuffer
	frames       *FrameRing

	teardown teardownStack
}

// Initialise implements interface. Stages run in dependency order and
// push their teardown as they succeed; a failure unwinds only what was
// built so far.
func (v *VulkanRenderer) Initialise() error {
	selection, err := device.Select(v.devices, v.surface, v.configuration.Device)
	if err != nil {
		return err
	}
	v.selection = selection
	log.WithFields(log.Fields{
		"device": selection.Profile.Name,
		"score":  selection.Score,
		"api":    log.Fields{"major": selection.Profile.APIMajor, "minor": selection.Profile.APIMinor},
		"vram":   selection.Profile.VRAM,
	}).Info("physical device selected")

	logicalDevice, queues, err := device.NewLogicalDevice(selection.Handle, selection.Roles, v.configuration.Device)
	if err != nil {
		return err
	}
	v.logicalDevice = logicalDevice
	v.queues = queues
	v.teardown.push(func() {
		vk.DestroyDevice(v.logicalDevice, nil)
	})

	swapchainConfig := swapchain.Negotiate(selection.Surface, v.configuration.PresentMode, vk.Extent2D{
		Width:  v.configuration.ScreenWidth,
		Height: v.configuration.ScreenHeight,
	})
	sc, err := swapchain.New(logicalDevice, v.surface, swapchainConfig, selection.Roles)
	if err != nil {
		v.teardown.unwind()
		return err
	}
	v.swapchain = sc
	v.teardown.push(func() {
		v.swapchain.Destroy()
	})
	log.WithFields(log.Fields{
		"format":  swapchainConfig.Format.Format,
		"present": swapchainConfig.PresentMode,
		"images":  swapchainConfig.ImageCount,
		"width":   swapchainConfig.Extent.Width,
		"height":  swapchainConfig.Extent.Height,
	}).Info("swapchain negotiated")

	if err := v.createRenderPass(); err != nil {
		v.teardown.unwind()
		return err
	}
	v.teardown.push(func() {
		vk.DestroyRenderPass(v.logicalDevice, v.renderPass, nil)
	})

	if err := v.createFramebuffers(); err != nil {
		v.teardown.unwind()
		return err
	}
	v.teardown.push(func() {
		v.destroyFramebuffers()
	})

	frames, err := NewFrameRing(logicalDevice, *selection.Roles.Graphics, v.configuration.FrameOverlap)
	if err != nil {
		v.teardown.unwind()
		return err
	}
	v.frames = frames
	v.teardown.push(func() {
		v.frames.Destroy(v.logicalDevice)
	})

	return nil
}

func (v *VulkanRenderer) createRenderPass() error {
	attachments := []vk.AttachmentDescription{{
		Format:         v.swapchain.Format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpassDependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorAttachmentRef)),
		PColorAttachments:    colorAttachmentRef,
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{subpassDependency},
	}

	var renderPass vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(v.logicalDevice, &createInfo, nil, &renderPass)); err != nil {
		return errors.New("vk.CreateRenderPass(): " + err.Error())
	}
	v.renderPass = renderPass
	return nil
}

func (v *VulkanRenderer) createFramebuffers() error {
	for _, view := range v.swapchain.Views {
		createInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      v.renderPass,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{view},
			Width:           v.swapchain.Extent.Width,
			Height:          v.swapchain.Extent.Height,
			Layers:          1,
		}

		var framebuffer vk.Framebuffer
		if err := vk.Error(vk.CreateFramebuffer(v.logicalDevice, &createInfo, nil, &framebuffer)); err != nil {
			return errors.New("vk.CreateFramebuffer(): " + err.Error())
		}
		v.framebuffers = append(v.framebuffers, framebuffer)
	}
	return nil
}

func (v *VulkanRenderer) destroyFramebuffers() {
	for _, framebuffer := range v.framebuffers {
		vk.DestroyFramebuffer(v.logicalDevice, framebuffer, nil)
	}
	v.framebuffers = nil
}

// recreateSwapchain tears down and rebuilds the size-dependent resources
// after the surface changed, from a fresh support snapshot. The render
// pass survives; only the images, views and framebuffers rebuild.
// v.swapchain holds nil between destruction and a successful rebuild, so
// an error return never leaves a destroyed handle behind for the teardown
// stack to free again.
func (v *VulkanRenderer) recreateSwapchain() error {
	vk.DeviceWaitIdle(v.logicalDevice)
	v.destroyFramebuffers()
	v.swapchain.Destroy()
	v.swapchain = nil

	snapshot, err := device.QuerySurfaceSupport(v.selection.Handle, v.surface)
	if err != nil {
		return errors.Wrap(err, "surface support requery")
	}
	if !snapshot.Adequate() {
		return errors.Wrap(swapchain.ErrSwapchainCreation, "surface no longer reports formats and present modes")
	}
	cfg := swapchain.Negotiate(snapshot, v.configuration.PresentMode, vk.Extent2D{
		Width:  v.configuration.ScreenWidth,
		Height: v.configuration.ScreenHeight,
	})
	sc, err := swapchain.New(v.logicalDevice, v.surface, cfg, v.selection.Roles)
	if err != nil {
		return err
	}
	v.swapchain = sc
	return v.createFramebuffers()
}

func (v *VulkanRenderer) recordClearPass(buffer vk.CommandBuffer, imageIndex uint32) error {
	if err := vk.Error(vk.ResetCommandBuffer(buffer, vk.CommandBufferResetFlags(vk.CommandBufferResetReleaseResourcesBit))); err != nil {
		return errors.New("vk.ResetCommandBuffer(): " + err.Error())
	}

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := vk.Error(vk.BeginCommandBuffer(buffer, &beginInfo)); err != nil {
		return errors.New("vk.BeginCommandBuffer(): " + err.Error())
	}

	clearValues := make([]vk.ClearValue, 1)
	clearValues[0].SetColor(v.configuration.ClearColor[:])

	passInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  v.renderPass,
		Framebuffer: v.framebuffers[imageIndex],
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: v.swapchain.Extent,
		},
		ClearValueCount: 1,
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(buffer, &passInfo, vk.SubpassContentsInline)
	vk.CmdEndRenderPass(buffer)

	if err := vk.Error(vk.EndCommandBuffer(buffer)); err != nil {
		return errors.New("vk.EndCommandBuffer(): " + err.Error())
	}
	return nil
}

// Draw implements interface
func (v *VulkanRenderer) Draw() error {
	slot := v.frames.Current()
	vk.WaitForFences(v.logicalDevice, 1, []vk.Fence{slot.InFlight}, vk.True, math.MaxUint64)

	var imageIndex uint32
	result := vk.AcquireNextImage(v.logicalDevice, v.swapchain.Handle, math.MaxUint64, slot.ImageAvailable, vk.NullFence, &imageIndex)
	if result == vk.ErrorOutOfDate {
		return v.recreateSwapchain()
	}
	if err := vk.Error(result); err != nil {
		return errors.New("vk.AcquireNextImage(): " + err.Error())
	}

	vk.ResetFences(v.logicalDevice, 1, []vk.Fence{slot.InFlight})

	if err := v.recordClearPass(slot.Buffer, imageIndex); err != nil {
		return err
	}

	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{slot.ImageAvailable},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{slot.Buffer},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{slot.RenderFinished},
	}}
	if err := vk.Error(vk.QueueSubmit(v.queues.Graphics, 1, submit, slot.InFlight)); err != nil {
		return errors.New("vk.QueueSubmit(): " + err.Error())
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{slot.RenderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{v.swapchain.Handle},
		PImageIndices:      []uint32{imageIndex},
	}
	presentResult := vk.QueuePresent(v.queues.Present, &presentInfo)
	if presentResult == vk.ErrorOutOfDate {
		if err := v.recreateSwapchain(); err != nil {
			return err
		}
	} else if err := vk.Error(presentResult); err != nil {
		return errors.New("vk.QueuePresent(): " + err.Error())
	}

	v.frames.Advance()
	return nil
}

// DeviceIsSuitable implements interface
func (v *VulkanRenderer) DeviceIsSuitable(dev vk.PhysicalDevice) (bool, string) {
	profile := device.QueryProfile(dev, v.surface)
	snapshot, err := device.QuerySurfaceSupport(dev, v.surface)
	if err != nil {
		snapshot = device.SurfaceSnapshot{}
	}

	req := v.configuration.Device
	switch {
	case profile.APIMajor < req.APIMajor,
		profile.APIMajor == req.APIMajor && profile.APIMinor < req.APIMinor:
		return false, "device API version below the required minimum"
	case !profile.Features.Satisfies(req.Features):
		return false, "device lacks required features"
	case !device.HasExtensions(profile.Extensions, req.Extensions):
		return false, "device lacks required extensions"
	case !snapshot.Adequate():
		return false, "device cannot present to the surface"
	}
	roles := device.FindQueueFamilies(profile.QueueFamilies, req.DedicatedTransfer)
	if !roles.Complete() {
		return false, "device queue families cannot serve all roles"
	}
	return true, ""
}

// Destroy implements interface
func (v *VulkanRenderer) Destroy() {
	if v.logicalDevice == nil {
		return
	}
	vk.DeviceWaitIdle(v.logicalDevice)
	v.teardown.unwind()
	v.logicalDevice = nil
}
