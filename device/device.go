package device

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// PhysicalDeviceInfo describes the user-visible properties of a rendering
// device, for inventory tools and logs.
type PhysicalDeviceInfo struct {
	ID            int
	VendorID      int
	DriverVersion int
	APIVersion    string
	Name          string
	Discrete      bool
	Invalid       bool
	Extensions    []string
	Layers        []string
	Memory        vk.DeviceSize
}

// Inventory collects PhysicalDeviceInfo for every given device. A device
// whose queries fail is marked Invalid rather than dropped, so tools can
// still report it.
func Inventory(devices []vk.PhysicalDevice) []PhysicalDeviceInfo {
	pdi := make([]PhysicalDeviceInfo, len(devices))
	for i := 0; i < len(devices); i++ {
		var extensionCount uint32
		if err := vk.Error(vk.EnumerateDeviceExtensionProperties(devices[i], "", &extensionCount, nil)); err != nil {
			pdi[i].Invalid = true
		}
		deviceExt := make([]vk.ExtensionProperties, extensionCount)
		if err := vk.Error(vk.EnumerateDeviceExtensionProperties(devices[i], "", &extensionCount, deviceExt)); err != nil {
			pdi[i].Invalid = true
		}
		for _, ext := range deviceExt {
			ext.Deref()
			pdi[i].Extensions = append(pdi[i].Extensions, vk.ToString(ext.ExtensionName[:]))
		}

		var layerCount uint32
		if err := vk.Error(vk.EnumerateDeviceLayerProperties(devices[i], &layerCount, nil)); err != nil {
			pdi[i].Invalid = true
		}
		deviceLayers := make([]vk.LayerProperties, layerCount)
		if err := vk.Error(vk.EnumerateDeviceLayerProperties(devices[i], &layerCount, deviceLayers)); err != nil {
			pdi[i].Invalid = true
		}
		for _, layer := range deviceLayers {
			layer.Deref()
			pdi[i].Layers = append(pdi[i].Layers, vk.ToString(layer.LayerName[:]))
		}

		var memoryProperties vk.PhysicalDeviceMemoryProperties
		vk.GetPhysicalDeviceMemoryProperties(devices[i], &memoryProperties)
		memoryProperties.Deref()
		for iMem := uint32(0); iMem < memoryProperties.MemoryHeapCount; iMem++ {
			memoryProperties.MemoryHeaps[iMem].Deref()
			pdi[i].Memory += memoryProperties.MemoryHeaps[iMem].Size
		}

		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(devices[i], &properties)
		properties.Deref()
		pdi[i].ID = int(properties.DeviceID)
		pdi[i].VendorID = int(properties.VendorID)
		pdi[i].Name = vk.ToString(properties.DeviceName[:])
		pdi[i].DriverVersion = int(properties.DriverVersion)
		pdi[i].APIVersion = fmt.Sprintf("%d.%d", properties.ApiVersion>>22, (properties.ApiVersion>>12)&0x3ff)
		pdi[i].Discrete = properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu
	}
	return pdi
}
