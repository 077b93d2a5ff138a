package device

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/driver"
)

// QueueFamilyIndices are the queue families chosen on the physical device.
// Graphics and Present may name the same family.
type QueueFamilyIndices struct {
	Graphics uint32
	Present  uint32
}

// Shared reports whether graphics and presentation use one family.
func (q QueueFamilyIndices) Shared() bool {
	return q.Graphics == q.Present
}

// Unique returns the distinct family indices, graphics first.
func (q QueueFamilyIndices) Unique() []uint32 {
	if q.Shared() {
		return []uint32{q.Graphics}
	}
	return []uint32{q.Graphics, q.Present}
}

// Contains reports whether family is one of the chosen families.
func (q QueueFamilyIndices) Contains(family uint32) bool {
	return family == q.Graphics || family == q.Present
}

// QueueSelector decides whether a queue family satisfies a capability.
type QueueSelector func(index uint32, family vk.QueueFamilyProperties) (bool, error)

// GraphicsCapable selects families that can execute graphics commands.
func GraphicsCapable(index uint32, family vk.QueueFamilyProperties) (bool, error) {
	return family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0, nil
}

// PresentCapable selects families of pd able to present to surface.
func PresentCapable(drv driver.Driver, pd vk.PhysicalDevice, surface vk.Surface) QueueSelector {
	return func(index uint32, family vk.QueueFamilyProperties) (bool, error) {
		return drv.SurfaceSupport(pd, index, surface)
	}
}

// FirstQueueFamily scans families in enumeration order and returns the
// index of the first one accepted by sel.
//
// This is not an optimal policy: a family supporting both graphics and
// presentation is not preferred over an earlier one supporting only the
// capability asked for, so graphics and present may end up split even
// when a combined family exists.
func FirstQueueFamily(families []vk.QueueFamilyProperties, sel QueueSelector) (uint32, bool, error) {
	for idx, family := range families {
		ok, err := sel(uint32(idx), family)
		if err != nil {
			return 0, false, err
		}
		if ok {
			return uint32(idx), true, nil
		}
	}
	return 0, false, nil
}
