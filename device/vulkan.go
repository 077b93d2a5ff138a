package device

import (
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/driver"
	"github.com/devblok/vkboot/gfx"
)

// Names requested when debugging is enabled.
const (
	ValidationLayer          = "VK_LAYER_KHRONOS_validation"
	DebugReportExtensionName = "VK_EXT_debug_report"
)

// InstanceConfiguration describes how the instance is requested.
type InstanceConfiguration struct {
	ApplicationName    string
	ApplicationVersion uint32

	// DebugMode requests the validation layer and the debug
	// report extension on top of what the window needs.
	DebugMode bool

	// Extensions and Layers are requested in addition to the
	// ones required by the window.
	Extensions []string
	Layers     []string
}

// Instance is the connection to the graphics runtime.
type Instance struct {
	drv        driver.Driver
	instance   vk.Instance
	extensions []string
	layers     []string
}

// CreateInstance connects to the runtime, enabling the surface extensions
// the window requires.
func CreateInstance(drv driver.Driver, win gfx.Window, cfg InstanceConfiguration) (*Instance, error) {
	extensions := append([]string{}, win.RequiredInstanceExtensions()...)
	extensions = append(extensions, cfg.Extensions...)
	layers := append([]string{}, cfg.Layers...)
	if cfg.DebugMode {
		layers = append(layers, ValidationLayer)
		extensions = append(extensions, DebugReportExtensionName)
	}
	extensions = gfx.SafeStrings(extensions)
	layers = gfx.SafeStrings(layers)

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         vk.MakeVersion(1, 0, 0),
		ApplicationVersion: cfg.ApplicationVersion,
		PApplicationName:   gfx.SafeString(cfg.ApplicationName),
		PEngineName:        "No Engine\x00",
		EngineVersion:      vk.MakeVersion(1, 0, 0),
	}

	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	instance, err := drv.CreateInstance(&instanceInfo)
	if err != nil {
		return nil, gfx.E(gfx.Initialization, "vk.CreateInstance()", err)
	}

	log.WithFields(log.Fields{
		"extensions": len(extensions),
		"layers":     len(layers),
		"debug":      cfg.DebugMode,
	}).Info("instance created")

	return &Instance{
		drv:        drv,
		instance:   instance,
		extensions: extensions,
		layers:     layers,
	}, nil
}

// Handle returns the driver instance handle.
func (i *Instance) Handle() vk.Instance {
	return i.instance
}

// Extensions returns the enabled, NUL terminated, instance extensions.
func (i *Instance) Extensions() []string {
	return i.extensions
}

// Layers returns the enabled, NUL terminated, instance layers.
func (i *Instance) Layers() []string {
	return i.layers
}

// Release destroys the instance. Everything created from it must be
// gone by then.
func (i *Instance) Release() {
	i.drv.DestroyInstance(i.instance)
}

// Selection is the outcome of physical device selection.
type Selection struct {
	PhysicalDevice vk.PhysicalDevice
	Name           string
	QueueFamilies  []vk.QueueFamilyProperties
	Indices        QueueFamilyIndices
}

// SelectPhysicalDevice picks the first enumerated physical device, without
// ranking, and resolves its graphics and present queue families against
// surface. A machine without devices fails with NoDevice, a device lacking
// either capability fails with UnsupportedDevice.
func SelectPhysicalDevice(drv driver.Driver, instance vk.Instance, surface vk.Surface) (Selection, error) {
	const op = "device.SelectPhysicalDevice()"

	devices, err := drv.EnumeratePhysicalDevices(instance)
	if err != nil {
		return Selection{}, gfx.E(gfx.Initialization, "vk.EnumeratePhysicalDevices()", err)
	}
	if len(devices) == 0 {
		return Selection{}, gfx.Errorf(gfx.NoDevice, op, "no physical devices enumerated")
	}

	pd := devices[0]
	properties := drv.PhysicalDeviceProperties(pd)
	name := vk.ToString(properties.DeviceName[:])

	families := drv.QueueFamilyProperties(pd)
	if len(families) == 0 {
		return Selection{}, gfx.Errorf(gfx.UnsupportedDevice, op, "%q has no queue families", name)
	}

	graphics, found, err := FirstQueueFamily(families, GraphicsCapable)
	if err != nil {
		return Selection{}, gfx.E(gfx.Initialization, op, err)
	}
	if !found {
		return Selection{}, gfx.Errorf(gfx.UnsupportedDevice, op, "%q has no graphics capable queue family", name)
	}

	present, found, err := FirstQueueFamily(families, PresentCapable(drv, pd, surface))
	if err != nil {
		return Selection{}, gfx.E(gfx.Initialization, "vk.GetPhysicalDeviceSurfaceSupport()", err)
	}
	if !found {
		return Selection{}, gfx.Errorf(gfx.UnsupportedDevice, op, "%q has no queue family able to present to the surface", name)
	}

	sel := Selection{
		PhysicalDevice: pd,
		Name:           name,
		QueueFamilies:  families,
		Indices: QueueFamilyIndices{
			Graphics: graphics,
			Present:  present,
		},
	}

	log.WithFields(log.Fields{
		"device":         name,
		"devices":        len(devices),
		"graphicsFamily": graphics,
		"presentFamily":  present,
	}).Info("physical device selected")

	return sel, nil
}

// Device is the logical device bound to the selected physical device.
type Device struct {
	drv            driver.Driver
	device         vk.Device
	physicalDevice vk.PhysicalDevice
	indices        QueueFamilyIndices
	extensions     []string

	graphicsQueue vk.Queue
	presentQueue  vk.Queue
}

// CreateDevice creates the logical device with one queue, at priority 1.0,
// for each distinct family in the selection, and the swapchain extension
// enabled along with any extensions given.
func CreateDevice(drv driver.Driver, sel Selection, extensions []string) (*Device, error) {
	required := gfx.SafeStrings(append([]string{vk.KhrSwapchainExtensionName}, extensions...))

	unique := sel.Indices.Unique()
	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, len(unique))
	for _, family := range unique {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(required)),
		PpEnabledExtensionNames: required,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
	}

	device, err := drv.CreateDevice(sel.PhysicalDevice, &dci)
	if err != nil {
		return nil, gfx.E(gfx.Initialization, "vk.CreateDevice()", err)
	}

	d := &Device{
		drv:            drv,
		device:         device,
		physicalDevice: sel.PhysicalDevice,
		indices:        sel.Indices,
		extensions:     required,
		graphicsQueue:  drv.DeviceQueue(device, sel.Indices.Graphics, 0),
		presentQueue:   drv.DeviceQueue(device, sel.Indices.Present, 0),
	}

	log.WithFields(log.Fields{
		"queues":     len(queueInfos),
		"extensions": len(required),
	}).Info("logical device created")

	return d, nil
}

// Handle returns the logical device handle. It is shared read-only with
// every component that creates resources on it.
func (d *Device) Handle() vk.Device {
	return d.device
}

// PhysicalDevice returns the physical device the logical device runs on.
func (d *Device) PhysicalDevice() vk.PhysicalDevice {
	return d.physicalDevice
}

// Indices returns the queue families the device was created with.
func (d *Device) Indices() QueueFamilyIndices {
	return d.indices
}

// Extensions returns the enabled device extensions.
func (d *Device) Extensions() []string {
	return d.extensions
}

// GraphicsQueue returns the first queue of the graphics family.
func (d *Device) GraphicsQueue() vk.Queue {
	return d.graphicsQueue
}

// PresentQueue returns the first queue of the present family.
func (d *Device) PresentQueue() vk.Queue {
	return d.presentQueue
}

// WaitIdle blocks until the device has finished all submitted work.
func (d *Device) WaitIdle() error {
	return d.drv.DeviceWaitIdle(d.device)
}

// Release destroys the device. Callers wait for it to idle first.
func (d *Device) Release() {
	d.drv.DestroyDevice(d.device)
}
