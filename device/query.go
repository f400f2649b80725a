package device

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Enumerate returns every physical device visible to the instance. An
// empty result is valid here; it is the selector's job to reject it.
func Enumerate(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumeratePhysicalDevices")
	}
	devices := make([]vk.PhysicalDevice, deviceCount)
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, devices)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumeratePhysicalDevices")
	}
	return devices, nil
}

// QueryProfile takes the capability snapshot of a single physical device.
// Read-only; the driver structs are dereferenced once here and never
// touched again.
func QueryProfile(dev vk.PhysicalDevice, surface vk.Surface) Profile {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(dev, &properties)
	properties.Deref()

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(dev, &features)
	features.Deref()

	extensions := queryExtensionNames(dev)

	profile := Profile{
		Name:       vk.ToString(properties.DeviceName[:]),
		Type:       properties.DeviceType,
		APIMajor:   properties.ApiVersion >> 22,
		APIMinor:   (properties.ApiVersion >> 12) & 0x3ff,
		Extensions: extensions,
		Features: FeatureSet{
			DynamicRendering:    HasExtensions(extensions, []string{DynamicRenderingExtensionName}),
			Synchronization2:    HasExtensions(extensions, []string{Synchronization2ExtensionName}),
			BufferDeviceAddress: HasExtensions(extensions, []string{BufferDeviceAddressExtensionName}),
			DescriptorIndexing:  HasExtensions(extensions, []string{DescriptorIndexingExtensionName}),
			SamplerAnisotropy:   features.SamplerAnisotropy.B(),
		},
	}

	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(dev, &memoryProperties)
	memoryProperties.Deref()
	for i := uint32(0); i < memoryProperties.MemoryHeapCount; i++ {
		memoryProperties.MemoryHeaps[i].Deref()
		if memoryProperties.MemoryHeaps[i].Flags&vk.MemoryHeapFlags(vk.MemoryHeapDeviceLocalBit) != 0 {
			profile.VRAM += memoryProperties.MemoryHeaps[i].Size
		}
	}

	profile.QueueFamilies = queryQueueFamilyCaps(dev, surface)
	return profile
}

func queryQueueFamilyCaps(dev vk.PhysicalDevice, surface vk.Surface) []QueueFamilyCaps {
	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(dev, &familyCount, nil)
	families := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(dev, &familyCount, families)

	caps := make([]QueueFamilyCaps, 0, familyCount)
	for i := range families {
		families[i].Deref()
		var supportsPresent vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(dev, uint32(i), surface, &supportsPresent)
		caps = append(caps, QueueFamilyCaps{
			Flags:      families[i].QueueFlags,
			CanPresent: supportsPresent.B(),
		})
	}
	return caps
}

func queryExtensionNames(dev vk.PhysicalDevice) []string {
	var extensionCount uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(dev, "", &extensionCount, nil)); err != nil {
		return nil
	}
	properties := make([]vk.ExtensionProperties, extensionCount)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(dev, "", &extensionCount, properties)); err != nil {
		return nil
	}
	names := make([]string, 0, extensionCount)
	for _, property := range properties {
		property.Deref()
		names = append(names, vk.ToString(property.ExtensionName[:]))
	}
	return names
}

// QuerySurfaceSupport captures the surface capabilities, formats and
// present modes of a device/surface pair. Capabilities belong to the pair,
// not the device alone, so the snapshot must be taken per candidate.
func QuerySurfaceSupport(dev vk.PhysicalDevice, surface vk.Surface) (SurfaceSnapshot, error) {
	var snapshot SurfaceSnapshot

	var capabilities vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(dev, surface, &capabilities)); err != nil {
		return snapshot, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceCapabilities")
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()
	snapshot.Capabilities = capabilities

	var formatCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(dev, surface, &formatCount, nil)); err != nil {
		return snapshot, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceFormats")
	}
	if formatCount > 0 {
		formats := make([]vk.SurfaceFormat, formatCount)
		vk.GetPhysicalDeviceSurfaceFormats(dev, surface, &formatCount, formats)
		for _, format := range formats {
			format.Deref()
			snapshot.Formats = append(snapshot.Formats, format)
		}
	}

	var modeCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(dev, surface, &modeCount, nil)); err != nil {
		return snapshot, errors.Wrap(err, "vk.GetPhysicalDeviceSurfacePresentModes")
	}
	if modeCount > 0 {
		modes := make([]vk.PresentMode, modeCount)
		vk.GetPhysicalDeviceSurfacePresentModes(dev, surface, &modeCount, modes)
		snapshot.PresentModes = modes
	}

	return snapshot, nil
}
