package swapchain

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/device"
	"github.com/devblok/vkboot/driver"
	"github.com/devblok/vkboot/gfx"
)

// Query reads the surface capabilities and formats for dev's physical
// device and negotiates a Spec for the requested extent.
func Query(surface *Surface, dev *device.Device, requested vk.Extent2D) (Spec, error) {
	caps, err := surface.Capabilities(dev.PhysicalDevice())
	if err != nil {
		return Spec{}, err
	}
	formats, err := surface.Formats(dev.PhysicalDevice())
	if err != nil {
		return Spec{}, err
	}
	return Negotiate(caps, formats, requested, dev.Indices())
}

// Chain owns the swapchain, its images and one view per image.
type Chain struct {
	drv       driver.Driver
	device    vk.Device
	swapchain vk.Swapchain
	spec      Spec
	images    []vk.Image
	views     []vk.ImageView
}

// New creates the swapchain described by spec on surface, then one 2D
// colour view per image the driver hands back. The driver decides the
// final image count. On failure everything created here is destroyed
// before returning.
func New(drv driver.Driver, dev *device.Device, surface *Surface, spec Spec) (*Chain, error) {
	scci := vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		Surface:               surface.Handle(),
		MinImageCount:         spec.ImageCount,
		ImageFormat:           spec.Format,
		ImageColorSpace:       spec.ColorSpace,
		ImageExtent:           spec.Extent,
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      spec.SharingMode,
		QueueFamilyIndexCount: uint32(len(spec.QueueIndices)),
		PQueueFamilyIndices:   spec.QueueIndices,
		PreTransform:          spec.Transform,
		CompositeAlpha:        vk.CompositeAlphaOpaqueBit,
		PresentMode:           vk.PresentModeFifo,
		Clipped:               vk.True,
		OldSwapchain:          vk.NullSwapchain,
	}

	swapchain, err := drv.CreateSwapchain(dev.Handle(), &scci)
	if err != nil {
		return nil, gfx.E(gfx.SwapchainCreation, "vk.CreateSwapchain()", err)
	}

	c := &Chain{
		drv:       drv,
		device:    dev.Handle(),
		swapchain: swapchain,
		spec:      spec,
	}

	images, err := drv.SwapchainImages(c.device, swapchain)
	if err != nil {
		c.Release()
		return nil, gfx.E(gfx.SwapchainCreation, "vk.GetSwapchainImages()", err)
	}
	c.images = images

	for idx, image := range images {
		ivci := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   spec.Format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}

		view, err := drv.CreateImageView(c.device, &ivci)
		if err != nil {
			c.Release()
			return nil, gfx.E(gfx.ImageViewCreation, "vk.CreateImageView()", errors.Wrapf(err, "image %d", idx))
		}
		c.views = append(c.views, view)
	}

	log.WithFields(log.Fields{
		"format":  spec.Format,
		"extent":  []uint32{spec.Extent.Width, spec.Extent.Height},
		"images":  len(images),
		"sharing": spec.SharingMode,
	}).Info("swapchain created")

	return c, nil
}

// Format returns the image format of the chain.
func (c *Chain) Format() vk.Format {
	return c.spec.Format
}

// Extent returns the image extent of the chain.
func (c *Chain) Extent() vk.Extent2D {
	return c.spec.Extent
}

// Spec returns the parameters the chain was created with.
func (c *Chain) Spec() Spec {
	return c.spec
}

// Handle returns the swapchain handle.
func (c *Chain) Handle() vk.Swapchain {
	return c.swapchain
}

// Images returns the presentable images. They belong to the swapchain.
func (c *Chain) Images() []vk.Image {
	return c.images
}

// Views returns one view per image, in image order.
func (c *Chain) Views() []vk.ImageView {
	return c.views
}

// Release destroys the views in reverse order, then the swapchain.
func (c *Chain) Release() {
	for idx := len(c.views) - 1; idx >= 0; idx-- {
		c.drv.DestroyImageView(c.device, c.views[idx])
	}
	c.views = nil
	c.drv.DestroySwapchain(c.device, c.swapchain)
}
