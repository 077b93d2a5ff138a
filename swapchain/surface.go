// Package swapchain binds the window surface to the device and negotiates
// the chain of presentable images with their views.
package swapchain

import (
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/driver"
	"github.com/devblok/vkboot/gfx"
)

// Surface is the window's drawable target bound to an instance.
type Surface struct {
	drv      driver.Driver
	instance vk.Instance
	surface  vk.Surface
}

// CreateSurface asks the window to create a surface under instance.
func CreateSurface(drv driver.Driver, win gfx.Window, instance vk.Instance) (*Surface, error) {
	surface, err := win.CreateSurface(instance)
	if err != nil {
		return nil, gfx.E(gfx.SurfaceCreation, "window.CreateSurface()", err)
	}
	log.Debug("surface created")
	return &Surface{
		drv:      drv,
		instance: instance,
		surface:  surface,
	}, nil
}

// Handle returns the surface handle.
func (s *Surface) Handle() vk.Surface {
	return s.surface
}

// Capabilities queries what the surface supports on pd.
func (s *Surface) Capabilities(pd vk.PhysicalDevice) (vk.SurfaceCapabilities, error) {
	caps, err := s.drv.SurfaceCapabilities(pd, s.surface)
	if err != nil {
		return caps, gfx.E(gfx.SwapchainCreation, "vk.GetPhysicalDeviceSurfaceCapabilities()", err)
	}
	return caps, nil
}

// Formats queries the format and colour space pairs the surface supports on pd.
func (s *Surface) Formats(pd vk.PhysicalDevice) ([]vk.SurfaceFormat, error) {
	formats, err := s.drv.SurfaceFormats(pd, s.surface)
	if err != nil {
		return nil, gfx.E(gfx.SwapchainCreation, "vk.GetPhysicalDeviceSurfaceFormats()", err)
	}
	return formats, nil
}

// Release destroys the surface.
func (s *Surface) Release() {
	s.drv.DestroySurface(s.instance, s.surface)
}
