// Package device establishes the driver session: the instance, the chosen
// physical device with its graphics and present queue families, and the
// logical device created on top of them.
package device

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/driver"
)

// PhysicalDeviceInfo describes available physical properties of a rendering device
type PhysicalDeviceInfo struct {
	ID            int
	VendorID      int
	DriverVersion int
	Name          string
	Type          string
	Invalid       bool
	Extensions    []string
	Layers        []string
	Memory        uint64
	QueueFamilies []QueueFamilyInfo
}

// QueueFamilyInfo summarises one queue family of a physical device.
type QueueFamilyInfo struct {
	Index    uint32
	Queues   uint32
	Graphics bool
	Compute  bool
	Transfer bool
}

var deviceTypeNames = map[vk.PhysicalDeviceType]string{
	vk.PhysicalDeviceTypeOther:         "other",
	vk.PhysicalDeviceTypeIntegratedGpu: "integrated",
	vk.PhysicalDeviceTypeDiscreteGpu:   "discrete",
	vk.PhysicalDeviceTypeVirtualGpu:    "virtual",
	vk.PhysicalDeviceTypeCpu:           "cpu",
}

// Describe gathers the information the driver reports about pd. Query
// failures do not abort, the result is marked Invalid instead.
func Describe(drv driver.Driver, pd vk.PhysicalDevice) PhysicalDeviceInfo {
	var pdi PhysicalDeviceInfo

	if extensions, err := drv.DeviceExtensions(pd); err != nil {
		pdi.Invalid = true
	} else {
		pdi.Extensions = extensions
	}

	if layers, err := drv.DeviceLayers(pd); err != nil {
		pdi.Invalid = true
	} else {
		pdi.Layers = layers
	}

	memoryProperties := drv.PhysicalDeviceMemoryProperties(pd)
	for iMem := uint32(0); iMem < memoryProperties.MemoryHeapCount; iMem++ {
		pdi.Memory += uint64(memoryProperties.MemoryHeaps[iMem].Size)
	}

	properties := drv.PhysicalDeviceProperties(pd)
	pdi.ID = int(properties.DeviceID)
	pdi.VendorID = int(properties.VendorID)
	pdi.Name = vk.ToString(properties.DeviceName[:])
	pdi.DriverVersion = int(properties.DriverVersion)
	pdi.Type = deviceTypeNames[properties.DeviceType]

	for idx, family := range drv.QueueFamilyProperties(pd) {
		pdi.QueueFamilies = append(pdi.QueueFamilies, QueueFamilyInfo{
			Index:    uint32(idx),
			Queues:   family.QueueCount,
			Graphics: family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
			Compute:  family.QueueFlags&vk.QueueFlags(vk.QueueComputeBit) != 0,
			Transfer: family.QueueFlags&vk.QueueFlags(vk.QueueTransferBit) != 0,
		})
	}
	return pdi
}

// DescribeAll describes every physical device of instance.
func DescribeAll(drv driver.Driver, instance vk.Instance) ([]PhysicalDeviceInfo, error) {
	devices, err := drv.EnumeratePhysicalDevices(instance)
	if err != nil {
		return nil, err
	}
	pdi := make([]PhysicalDeviceInfo, len(devices))
	for idx, pd := range devices {
		pdi[idx] = Describe(drv, pd)
	}
	return pdi, nil
}
