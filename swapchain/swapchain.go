// Package swapchain negotiates a concrete swapchain configuration from a
// surface support snapshot and owns the created swapchain and its image
// views.
package swapchain

import (
	"math"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/lumen3d/lumen/device"
)

var (
	// ErrSwapchainCreation wraps a failed vk.CreateSwapchain call.
	ErrSwapchainCreation = errors.New("swapchain creation failed")

	// ErrImageViewCreation wraps a failed image view creation for one of
	// the swapchain images.
	ErrImageViewCreation = errors.New("swapchain image view creation failed")
)

// Config is a fully negotiated swapchain shape, derived deterministically
// from a SurfaceSnapshot and the caller's preferences. Rebuilding after a
// surface change only needs a fresh snapshot and another Negotiate call.
type Config struct {
	Format      vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	ImageCount  uint32
}

// Negotiate derives the swapchain configuration from the snapshot taken
// during device selection. desiredMode and fallbackExtent are preferences;
// the snapshot decides what actually sticks.
func Negotiate(snapshot device.SurfaceSnapshot, desiredMode vk.PresentMode, fallbackExtent vk.Extent2D) Config {
	return Config{
		Format:      ChooseSurfaceFormat(snapshot.Formats),
		PresentMode: ChoosePresentMode(snapshot.PresentModes, desiredMode),
		Extent:      ChooseExtent(snapshot.Capabilities, fallbackExtent),
		ImageCount:  ChooseImageCount(snapshot.Capabilities),
	}
}

// ChooseSurfaceFormat prefers 8-bit BGRA with non-linear sRGB. Failing
// that, the first reported format is taken as-is: any format the device
// reports is assumed presentable. An empty list yields the zero value;
// callers gate on snapshot adequacy before negotiating.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}
	}
	for _, format := range formats {
		if format.Format == vk.FormatB8g8r8a8Srgb && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	return formats[0]
}

// ChoosePresentMode returns desired when the device supports it. Otherwise
// FIFO, the one mode every conformant implementation must offer; anything
// else is a performance preference, never a requirement.
func ChoosePresentMode(modes []vk.PresentMode, desired vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == desired {
			return mode
		}
	}
	return vk.PresentModeFifo
}

// ChooseExtent resolves the swapchain extent. A current extent width at
// the MaxUint32 marker means the surface takes whatever size we pick, so
// the desired extent is clamped into the supported range. Any other
// current extent is authoritative and the desired value is moot.
func ChooseExtent(capabilities vk.SurfaceCapabilities, desired vk.Extent2D) vk.Extent2D {
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		return capabilities.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(desired.Width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(desired.Height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image above the minimum so acquisition
// does not stall waiting on the driver to release an image. A max of zero
// means unbounded and skips the upper clamp.
func ChooseImageCount(capabilities vk.SurfaceCapabilities) uint32 {
	count := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && count > capabilities.MaxImageCount {
		count = capabilities.MaxImageCount
	}
	return count
}

func clamp(value, lo, hi uint32) uint32 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// Swapchain owns the swapchain handle, its images and one view per image.
type Swapchain struct {
	Handle     vk.Swapchain
	Images     []vk.Image
	Views      []vk.ImageView
	Format     vk.Format
	ColorSpace vk.ColorSpace
	Extent     vk.Extent2D

	logicalDevice vk.Device
}

// New creates the swapchain for the negotiated configuration and one 2D
// color view per retrieved image. Images are shared CONCURRENT across the
// graphics and presentation families only when those differ; a single
// family serving both roles keeps EXCLUSIVE mode and avoids ownership
// transfer barriers.
func New(logicalDevice vk.Device, surface vk.Surface, cfg Config, roles device.QueueRoles) (*Swapchain, error) {
	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    cfg.ImageCount,
		ImageFormat:      cfg.Format.Format,
		ImageColorSpace:  cfg.Format.ColorSpace,
		ImageExtent:      cfg.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferDstBit),
		PreTransform:     vk.SurfaceTransformIdentityBit,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      cfg.PresentMode,
		Clipped:          vk.True,
		ImageSharingMode: vk.SharingModeExclusive,
	}
	if *roles.Graphics != *roles.Present {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{*roles.Graphics, *roles.Present}
	}

	var handle vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(logicalDevice, &createInfo, nil, &handle)); err != nil {
		return nil, errors.Wrap(ErrSwapchainCreation, "vk.CreateSwapchain: "+err.Error())
	}
	sc := &Swapchain{
		Handle:        handle,
		Format:        cfg.Format.Format,
		ColorSpace:    cfg.Format.ColorSpace,
		Extent:        cfg.Extent,
		logicalDevice: logicalDevice,
	}

	var imageCount uint32
	if err := vk.Error(vk.GetSwapchainImages(logicalDevice, handle, &imageCount, nil)); err != nil {
		sc.Destroy()
		return nil, errors.Wrap(ErrSwapchainCreation, "vk.GetSwapchainImages: "+err.Error())
	}
	sc.Images = make([]vk.Image, imageCount)
	if err := vk.Error(vk.GetSwapchainImages(logicalDevice, handle, &imageCount, sc.Images)); err != nil {
		sc.Destroy()
		return nil, errors.Wrap(ErrSwapchainCreation, "vk.GetSwapchainImages: "+err.Error())
	}

	for _, image := range sc.Images {
		view, err := newColorView(logicalDevice, image, cfg.Format.Format)
		if err != nil {
			sc.Destroy()
			return nil, err
		}
		sc.Views = append(sc.Views, view)
	}
	return sc, nil
}

// Every swapchain image gets the same view shape: 2D, the negotiated
// format, color aspect, one mip level, one array layer.
func newColorView(logicalDevice vk.Device, image vk.Image, format vk.Format) (vk.ImageView, error) {
	createInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(logicalDevice, &createInfo, nil, &view)); err != nil {
		return vk.NullImageView, errors.Wrap(ErrImageViewCreation, "vk.CreateImageView: "+err.Error())
	}
	return view, nil
}

// Destroy releases the image views, then the swapchain. The images belong
// to the swapchain and go down with it. A nil receiver is a no-op, so
// teardown paths that already released the swapchain stay safe.
func (s *Swapchain) Destroy() {
	if s == nil {
		return
	}
	for _, view := range s.Views {
		vk.DestroyImageView(s.logicalDevice, view, nil)
	}
	s.Views = nil
	vk.DestroySwapchain(s.logicalDevice, s.Handle, nil)
}
