package device

import (
	vk "github.com/vulkan-go/vulkan"
)

// Names of the device extensions the renderer cares about. A device
// advertises its extended capabilities through this list.
const (
	SwapchainExtensionName           = "VK_KHR_swapchain"
	DynamicRenderingExtensionName    = "VK_KHR_dynamic_rendering"
	Synchronization2ExtensionName    = "VK_KHR_synchronization2"
	BufferDeviceAddressExtensionName = "VK_KHR_buffer_device_address"
	DescriptorIndexingExtensionName  = "VK_EXT_descriptor_indexing"
)

// FeatureSet is the set of boolean device capabilities the engine can
// require from a GPU.
type FeatureSet struct {
	DynamicRendering    bool
	Synchronization2    bool
	BufferDeviceAddress bool
	DescriptorIndexing  bool
	SamplerAnisotropy   bool
}

// Satisfies reports whether every capability enabled in required is also
// present in f. One missing capability fails the whole set, there is no
// partial credit.
func (f FeatureSet) Satisfies(required FeatureSet) bool {
	if required.DynamicRendering && !f.DynamicRendering {
		return false
	}
	if required.Synchronization2 && !f.Synchronization2 {
		return false
	}
	if required.BufferDeviceAddress && !f.BufferDeviceAddress {
		return false
	}
	if required.DescriptorIndexing && !f.DescriptorIndexing {
		return false
	}
	if required.SamplerAnisotropy && !f.SamplerAnisotropy {
		return false
	}
	return true
}

// ExtensionNames returns the device extension names behind the enabled
// extension-derived capabilities. SamplerAnisotropy is a core feature and
// contributes no extension.
func (f FeatureSet) ExtensionNames() []string {
	var names []string
	if f.DynamicRendering {
		names = append(names, DynamicRenderingExtensionName)
	}
	if f.Synchronization2 {
		names = append(names, Synchronization2ExtensionName)
	}
	if f.BufferDeviceAddress {
		names = append(names, BufferDeviceAddressExtensionName)
	}
	if f.DescriptorIndexing {
		names = append(names, DescriptorIndexingExtensionName)
	}
	return names
}

// QueueFamilyCaps describes a single queue family of a physical device.
type QueueFamilyCaps struct {
	Flags      vk.QueueFlags
	CanPresent bool
}

// Graphics reports whether the family can record graphics commands.
func (c QueueFamilyCaps) Graphics() bool {
	return c.Flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0
}

// Transfer reports whether the family can record transfer commands.
func (c QueueFamilyCaps) Transfer() bool {
	return c.Flags&vk.QueueFlags(vk.QueueTransferBit) != 0
}

// Profile is an immutable capability snapshot of one physical device,
// taken once during selection. All selection logic runs against profiles,
// never against the raw handle.
type Profile struct {
	Name          string
	Type          vk.PhysicalDeviceType
	APIMajor      uint32
	APIMinor      uint32
	VRAM          vk.DeviceSize
	Features      FeatureSet
	Extensions    []string
	QueueFamilies []QueueFamilyCaps
}

// SurfaceSnapshot captures what a device/surface pair supports. It is
// queried per candidate and carried forward to swapchain negotiation, so
// the chosen configuration is derived from the same data the selector saw.
type SurfaceSnapshot struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// Adequate reports whether the surface can be presented to at all. A
// device reporting no formats or no present modes is surface-incompatible.
func (s SurfaceSnapshot) Adequate() bool {
	return len(s.Formats) > 0 && len(s.PresentModes) > 0
}

// QueueRoles holds the resolved queue family index per role. A nil index
// means no family satisfied the role. Transfer may alias the graphics
// family when no dedicated transfer family exists or none was requested.
type QueueRoles struct {
	Graphics *uint32
	Present  *uint32
	Transfer *uint32
}

// Complete reports whether every role has been assigned a family.
func (r QueueRoles) Complete() bool {
	return r.Graphics != nil && r.Present != nil && r.Transfer != nil
}

// UniqueFamilies returns the distinct family indices among the assigned
// roles, in role order (graphics, present, transfer). Aliased roles
// collapse into a single entry.
func (r QueueRoles) UniqueFamilies() []uint32 {
	var unique []uint32
	for _, idx := range []*uint32{r.Graphics, r.Present, r.Transfer} {
		if idx == nil {
			continue
		}
		seen := false
		for _, u := range unique {
			if u == *idx {
				seen = true
				break
			}
		}
		if !seen {
			unique = append(unique, *idx)
		}
	}
	return unique
}
