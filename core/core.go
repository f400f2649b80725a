// Package core bootstraps the Vulkan rendering context: instance,
// presentation surface, device selection, swapchain and per-frame
// command resources.
package core

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/lumen3d/lumen/device"
)

// Instance describes a Vulkan instance and supporting methods.
// Once created it is ready to use.
type Instance interface {
	// PhysicalDevicesInfo returns a struct for each Physical Device
	// along with info about those devices
	PhysicalDevicesInfo() []device.PhysicalDeviceInfo

	// AvailableDevices returns handles of Physical Devices
	// from the Vulkan API
	AvailableDevices() []vk.PhysicalDevice

	// SetSurface sets the window surface for rendering
	SetSurface(unsafe.Pointer)

	// Surface returns the window surface, if it's not set
	// it returns a valid but null surface
	Surface() vk.Surface

	// Extensions returns the instance extensions in use
	Extensions() []string

	// Handle returns the inner handle of the underlying API
	Handle() interface{}

	// Destroy destroys internal members and frees the process-wide
	// instance slot
	Destroy()
}

// Renderer describes the rendering machinery.
// It's created only with internal values set,
// it needs to be initialised with Initialise() before use.
type Renderer interface {
	// Initialise sets up the configured rendering pipeline
	Initialise() error

	// DeviceIsSuitable checks if the device given is suitable
	// for the rendering pipeline. If not suitable string contains the reason
	DeviceIsSuitable(vk.PhysicalDevice) (bool, string)

	// Draw renders a single frame
	Draw() error

	// Destroy destroys internal members
	Destroy()
}
