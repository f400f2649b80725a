package device

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Queues holds one handle per role. Roles sharing a family reference the
// same underlying queue object.
type Queues struct {
	Graphics vk.Queue
	Present  vk.Queue
	Transfer vk.Queue
}

// NewLogicalDevice opens a logical device on the selected physical device
// and retrieves a queue handle per role. One queue is requested per
// distinct family, all at the same priority; a device with aliased roles
// gets fewer queue objects, not three. Enabled extensions cover the
// explicit requirements plus the ones backing the required feature set, so
// the capabilities the device was selected for are live on the handle.
//
// roles must be complete. The selector guarantees that, so an incomplete
// set here is a programming error, not a runtime condition.
func NewLogicalDevice(phys vk.PhysicalDevice, roles QueueRoles, req Requirements) (vk.Device, Queues, error) {
	if !roles.Complete() {
		return nil, Queues{}, errors.Wrap(ErrInvalidState, "incomplete queue roles")
	}

	queuePriorities := []float32{1.0}
	var queueInfos []vk.DeviceQueueCreateInfo
	for _, family := range roles.UniqueFamilies() {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: queuePriorities,
		})
	}

	enabledFeatures := []vk.PhysicalDeviceFeatures{{}}
	if req.Features.SamplerAnisotropy {
		enabledFeatures[0].SamplerAnisotropy = vk.True
	}

	extensions := req.DeviceExtensions()
	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: nullTerminated(extensions),
		PEnabledFeatures:        enabledFeatures,
	}

	var logicalDevice vk.Device
	if err := vk.Error(vk.CreateDevice(phys, &createInfo, nil, &logicalDevice)); err != nil {
		return nil, Queues{}, errors.Wrap(ErrDeviceCreation, "vk.CreateDevice: "+err.Error())
	}

	var queues Queues
	vk.GetDeviceQueue(logicalDevice, *roles.Graphics, 0, &queues.Graphics)
	vk.GetDeviceQueue(logicalDevice, *roles.Present, 0, &queues.Present)
	vk.GetDeviceQueue(logicalDevice, *roles.Transfer, 0, &queues.Transfer)

	return logicalDevice, queues, nil
}

// The C side expects null-terminated strings.
func nullTerminated(names []string) []string {
	terminated := make([]string, 0, len(names))
	for _, name := range names {
		terminated = append(terminated, name+"\x00")
	}
	return terminated
}
