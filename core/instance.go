package core

import (
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/lumen3d/lumen/device"
)

// DefaultApplicationInfo describes the application to the driver.
// Drivers key workarounds off these strings, so they stay stable.
var DefaultApplicationInfo = &vk.ApplicationInfo{
	SType:              vk.StructureTypeApplicationInfo,
	ApiVersion:         vk.ApiVersion11,
	ApplicationVersion: vk.MakeVersion(1, 0, 0),
	PApplicationName:   safeString("Lumen"),
	PEngineName:        safeString("Lumen"),
}

// The loader state behind vk.Init and the validation layer machinery are
// process-global, so only one live instance is allowed at a time. Guarded
// with an atomic swap rather than a mutex: a second caller should fail
// immediately, not queue.
var liveInstance int32

func acquireInstanceSlot() bool {
	return atomic.CompareAndSwapInt32(&liveInstance, 0, 1)
}

func releaseInstanceSlot() {
	atomic.StoreInt32(&liveInstance, 0)
}

// NewVulkanInstance creates a Vulkan instance. procAddr is the loader's
// vkGetInstanceProcAddr as handed out by the windowing layer; nil falls
// back to the system loader, which is enough for surfaceless tools.
func NewVulkanInstance(appInfo *vk.ApplicationInfo, procAddr unsafe.Pointer, cfg InstanceConfiguration) (Instance, error) {
	if !acquireInstanceSlot() {
		return nil, ErrInstanceLive
	}
	ok := false
	defer func() {
		if !ok {
			releaseInstanceSlot()
		}
	}()

	if cfg.DebugMode {
		cfg.Extensions = append(cfg.Extensions, "VK_EXT_debug_report")
	}

	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.Wrap(ErrInstanceCreation, "vk.SetDefaultGetInstanceProcAddr: "+err.Error())
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(ErrInstanceCreation, "vk.Init: "+err.Error())
	}

	// Asking for an unavailable layer fails instance creation with an
	// opaque error code, so check up front and name the layer instead.
	if err := checkLayerSupport(cfg.Layers); err != nil {
		return nil, err
	}
	logInstanceExtensions()

	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(cfg.Extensions)),
		PpEnabledExtensionNames: safeStrings(cfg.Extensions),
		EnabledLayerCount:       uint32(len(cfg.Layers)),
		PpEnabledLayerNames:     safeStrings(cfg.Layers),
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, errors.Wrap(ErrInstanceCreation, "vk.CreateInstance: "+err.Error())
	}
	vk.InitInstance(instance)

	v := &VulkanInstance{
		configuration: cfg,
		instance:      instance,
	}

	if cfg.DebugMode {
		if err := v.setupDebugHook(); err != nil {
			vk.DestroyInstance(instance, nil)
			return nil, err
		}
	}

	physicalDevices, err := device.Enumerate(instance)
	if err != nil {
		v.destroyHandles()
		return nil, errors.Wrap(ErrInstanceCreation, err.Error())
	}
	v.availableDevices = physicalDevices

	log.WithFields(log.Fields{
		"devices": len(physicalDevices),
		"debug":   cfg.DebugMode,
	}).Info("vulkan instance created")

	ok = true
	return v, nil
}

func checkLayerSupport(requested []string) error {
	if len(requested) == 0 {
		return nil
	}

	var layerCount uint32
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&layerCount, nil)); err != nil {
		return errors.Wrap(ErrValidationUnsupported, "vk.EnumerateInstanceLayerProperties: "+err.Error())
	}
	available := make([]vk.LayerProperties, layerCount)
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&layerCount, available)); err != nil {
		return errors.Wrap(ErrValidationUnsupported, "vk.EnumerateInstanceLayerProperties: "+err.Error())
	}

	names := make(map[string]struct{}, layerCount)
	for _, layer := range available {
		layer.Deref()
		names[vk.ToString(layer.LayerName[:])] = struct{}{}
	}
	for _, want := range requested {
		if _, found := names[want]; !found {
			return errors.Wrap(ErrValidationUnsupported, want)
		}
	}
	return nil
}

func logInstanceExtensions() {
	var extensionCount uint32
	if err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &extensionCount, nil)); err != nil {
		return
	}
	properties := make([]vk.ExtensionProperties, extensionCount)
	if err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &extensionCount, properties)); err != nil {
		return
	}
	for _, property := range properties {
		property.Deref()
		log.WithField("extension", vk.ToString(property.ExtensionName[:])).
			Debug("instance extension available")
	}
}

// VulkanInstance describes a Vulkan API Instance
type VulkanInstance struct {
	configuration InstanceConfiguration

	availableDevices []vk.PhysicalDevice
	surface          vk.Surface
	instance         vk.Instance
	debugCallback    vk.DebugReportCallback
}

func (v *VulkanInstance) setupDebugHook() error {
	createInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
		PfnCallback: debugReportFunc,
	}
	if err := vk.Error(vk.CreateDebugReportCallback(v.instance, &createInfo, nil, &v.debugCallback)); err != nil {
		return errors.Wrap(ErrDebugHookSetup, "vk.CreateDebugReportCallback: "+err.Error())
	}
	return nil
}

// The hook only reports; control flow never depends on validation
// findings, so the return value stays false and the triggering call
// proceeds.
func debugReportFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	entry := log.WithFields(log.Fields{
		"layer": pLayerPrefix,
		"code":  messageCode,
	})
	if flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0 {
		entry.Error(pMessage)
	} else {
		entry.Warn(pMessage)
	}
	return vk.Bool32(vk.False)
}

// PhysicalDevicesInfo implements interface
func (v *VulkanInstance) PhysicalDevicesInfo() []device.PhysicalDeviceInfo {
	return device.Inventory(v.availableDevices)
}

// AvailableDevices implements interface
func (v *VulkanInstance) AvailableDevices() []vk.PhysicalDevice {
	return v.availableDevices
}

// SetSurface implements interface
func (v *VulkanInstance) SetSurface(pSurface unsafe.Pointer) {
	v.surface = vk.SurfaceFromPointer(uintptr(pSurface))
}

// Surface implements interface
func (v *VulkanInstance) Surface() vk.Surface {
	if v.surface == nil {
		return vk.NullSurface
	}
	return v.surface
}

// Extensions implements interface
func (v *VulkanInstance) Extensions() []string {
	return v.configuration.Extensions
}

// Handle implements interface
func (v *VulkanInstance) Handle() interface{} {
	return v.instance
}

func (v *VulkanInstance) destroyHandles() {
	if v.surface != nil {
		vk.DestroySurface(v.instance, v.surface, nil)
		v.surface = nil
	}
	if v.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(v.instance, v.debugCallback, nil)
		v.debugCallback = vk.NullDebugReportCallback
	}
	vk.DestroyInstance(v.instance, nil)
}

// Destroy implements interface
func (v *VulkanInstance) Destroy() {
	v.availableDevices = nil
	v.destroyHandles()
	releaseInstanceSlot()
}
