package swapchain_test

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/device"
	"github.com/devblok/vkboot/driver/drivertest"
	"github.com/devblok/vkboot/gfx"
	"github.com/devblok/vkboot/swapchain"
)

func caps(min, max uint32) vk.SurfaceCapabilities {
	return vk.SurfaceCapabilities{
		MinImageCount:    min,
		MaxImageCount:    max,
		MinImageExtent:   vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent:   vk.Extent2D{Width: 4096, Height: 4096},
		CurrentTransform: vk.SurfaceTransformIdentityBit,
	}
}

func TestClampExtent(t *testing.T) {
	limits := vk.SurfaceCapabilities{
		MinImageExtent: vk.Extent2D{Width: 100, Height: 50},
		MaxImageExtent: vk.Extent2D{Width: 1920, Height: 1080},
	}
	tests := []struct {
		name      string
		requested vk.Extent2D
		expected  vk.Extent2D
	}{
		{"in range", vk.Extent2D{Width: 800, Height: 600}, vk.Extent2D{Width: 800, Height: 600}},
		{"at bounds", vk.Extent2D{Width: 100, Height: 1080}, vk.Extent2D{Width: 100, Height: 1080}},
		{"below", vk.Extent2D{Width: 10, Height: 0}, vk.Extent2D{Width: 100, Height: 50}},
		{"above", vk.Extent2D{Width: 4000, Height: 2000}, vk.Extent2D{Width: 1920, Height: 1080}},
		{"mixed", vk.Extent2D{Width: 2, Height: 9000}, vk.Extent2D{Width: 100, Height: 1080}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := qt.New(t)
			clamped := swapchain.ClampExtent(test.requested, limits)
			c.Assert(clamped, qt.Equals, test.expected)
			c.Assert(swapchain.ClampExtent(clamped, limits), qt.Equals, clamped)
		})
	}
}

func TestImageCount(t *testing.T) {
	tests := []struct {
		min, max, expected uint32
	}{
		{1, 0, 3},
		{2, 0, 3},
		{2, 2, 2},
		{3, 3, 3},
		{4, 0, 4},
		{2, 8, 3},
		{5, 8, 5},
	}
	for _, test := range tests {
		if count := swapchain.ImageCount(caps(test.min, test.max)); count != test.expected {
			t.Errorf("min %d max %d: expected %d images, got %d", test.min, test.max, test.expected, count)
		}
	}
}

func TestSharing(t *testing.T) {
	c := qt.New(t)

	mode, indices := swapchain.Sharing(device.QueueFamilyIndices{Graphics: 1, Present: 1})
	c.Assert(mode, qt.Equals, vk.SharingModeExclusive)
	c.Assert(indices, qt.HasLen, 0)

	mode, indices = swapchain.Sharing(device.QueueFamilyIndices{Graphics: 0, Present: 2})
	c.Assert(mode, qt.Equals, vk.SharingModeConcurrent)
	c.Assert(indices, qt.DeepEquals, []uint32{0, 2})
}

func TestNegotiate(t *testing.T) {
	c := qt.New(t)
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}

	spec, err := swapchain.Negotiate(caps(2, 0), formats, vk.Extent2D{Width: 800, Height: 600}, device.QueueFamilyIndices{})
	c.Assert(err, qt.IsNil)
	c.Assert(spec.ImageCount, qt.Equals, uint32(3))
	c.Assert(spec.Extent, qt.Equals, vk.Extent2D{Width: 800, Height: 600})
	c.Assert(spec.SharingMode, qt.Equals, vk.SharingModeExclusive)
	c.Assert(spec.Format, qt.Equals, vk.FormatB8g8r8a8Srgb)
	c.Assert(spec.Transform, qt.Equals, vk.SurfaceTransformIdentityBit)
}

func TestNegotiateWithoutFormats(t *testing.T) {
	_, err := swapchain.Negotiate(caps(2, 0), nil, vk.Extent2D{Width: 800, Height: 600}, device.QueueFamilyIndices{})
	if !gfx.Is(err, gfx.SwapchainCreation) {
		t.Fatalf("expected swapchain creation error, got %v", err)
	}
}

func newDevice(c *qt.C, drv *drivertest.Driver, indices device.QueueFamilyIndices) *device.Device {
	dev, err := device.CreateDevice(drv, device.Selection{Indices: indices}, nil)
	c.Assert(err, qt.IsNil)
	return dev
}

func newSurface(c *qt.C, drv *drivertest.Driver) *swapchain.Surface {
	surface, err := swapchain.CreateSurface(drv, drivertest.NewWindow(drv), nil)
	c.Assert(err, qt.IsNil)
	return surface
}

func TestCreateSurfaceRejected(t *testing.T) {
	drv := drivertest.New()
	win := drivertest.NewWindow(drv)
	win.SurfaceErr = errors.New("no display")

	_, err := swapchain.CreateSurface(drv, win, nil)
	if !gfx.Is(err, gfx.SurfaceCreation) {
		t.Fatalf("expected surface creation error, got %v", err)
	}
	if drv.Live("Surface") != 0 {
		t.Error("rejected surface counted as live")
	}
}

func TestChain(t *testing.T) {
	c := qt.New(t)
	drv := drivertest.New()
	dev := newDevice(c, drv, device.QueueFamilyIndices{})
	surface := newSurface(c, drv)

	spec, err := swapchain.Query(surface, dev, vk.Extent2D{Width: 800, Height: 600})
	c.Assert(err, qt.IsNil)

	chain, err := swapchain.New(drv, dev, surface, spec)
	c.Assert(err, qt.IsNil)
	c.Assert(chain.Images(), qt.HasLen, 3)
	c.Assert(chain.Views(), qt.HasLen, 3)
	c.Assert(chain.Format(), qt.Equals, vk.FormatB8g8r8a8Unorm)
	c.Assert(chain.Extent(), qt.Equals, vk.Extent2D{Width: 800, Height: 600})

	info := drv.SwapchainInfo
	c.Assert(info.MinImageCount, qt.Equals, uint32(3))
	c.Assert(info.ImageArrayLayers, qt.Equals, uint32(1))
	c.Assert(info.ImageUsage, qt.Equals, vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit))
	c.Assert(info.PresentMode, qt.Equals, vk.PresentModeFifo)
	c.Assert(info.CompositeAlpha, qt.Equals, vk.CompositeAlphaOpaqueBit)
	c.Assert(info.Clipped, qt.Equals, vk.Bool32(vk.True))
	c.Assert(info.ImageSharingMode, qt.Equals, vk.SharingModeExclusive)

	for _, view := range drv.ImageViewInfos {
		c.Assert(view.ViewType, qt.Equals, vk.ImageViewType2d)
		c.Assert(view.SubresourceRange.LevelCount, qt.Equals, uint32(1))
		c.Assert(view.SubresourceRange.LayerCount, qt.Equals, uint32(1))
	}

	chain.Release()
	c.Assert(drv.Live("ImageView"), qt.Equals, 0)
	c.Assert(drv.Live("Swapchain"), qt.Equals, 0)
	c.Assert(drv.Violations(), qt.HasLen, 0)
}

func TestChainConcurrentSharing(t *testing.T) {
	c := qt.New(t)
	drv := drivertest.New()
	dev := newDevice(c, drv, device.QueueFamilyIndices{Graphics: 0, Present: 1})
	surface := newSurface(c, drv)

	spec, err := swapchain.Query(surface, dev, vk.Extent2D{Width: 640, Height: 480})
	c.Assert(err, qt.IsNil)
	_, err = swapchain.New(drv, dev, surface, spec)
	c.Assert(err, qt.IsNil)
	c.Assert(drv.SwapchainInfo.ImageSharingMode, qt.Equals, vk.SharingModeConcurrent)
	c.Assert(drv.SwapchainInfo.QueueFamilyIndexCount, qt.Equals, uint32(2))
}

func TestChainDriverImageCount(t *testing.T) {
	c := qt.New(t)
	drv := drivertest.New()
	drv.SwapchainImageCount = 5
	dev := newDevice(c, drv, device.QueueFamilyIndices{})
	surface := newSurface(c, drv)

	spec, err := swapchain.Query(surface, dev, vk.Extent2D{Width: 800, Height: 600})
	c.Assert(err, qt.IsNil)
	chain, err := swapchain.New(drv, dev, surface, spec)
	c.Assert(err, qt.IsNil)
	c.Assert(chain.Images(), qt.HasLen, 5)
	c.Assert(chain.Views(), qt.HasLen, 5)
}

func TestChainSwapchainRejected(t *testing.T) {
	c := qt.New(t)
	drv := drivertest.New()
	drv.Fail("CreateSwapchain", 1, nil)
	dev := newDevice(c, drv, device.QueueFamilyIndices{})
	surface := newSurface(c, drv)

	spec, err := swapchain.Query(surface, dev, vk.Extent2D{Width: 800, Height: 600})
	c.Assert(err, qt.IsNil)
	_, err = swapchain.New(drv, dev, surface, spec)
	c.Assert(gfx.KindOf(err), qt.Equals, gfx.SwapchainCreation)
	c.Assert(drv.Count("DestroySwapchain"), qt.Equals, 0)
}

func TestChainViewRejected(t *testing.T) {
	c := qt.New(t)
	drv := drivertest.New()
	drv.Fail("CreateImageView", 3, nil)
	dev := newDevice(c, drv, device.QueueFamilyIndices{})
	surface := newSurface(c, drv)

	spec, err := swapchain.Query(surface, dev, vk.Extent2D{Width: 800, Height: 600})
	c.Assert(err, qt.IsNil)
	_, err = swapchain.New(drv, dev, surface, spec)
	c.Assert(gfx.KindOf(err), qt.Equals, gfx.ImageViewCreation)
	c.Assert(drv.Count("DestroyImageView"), qt.Equals, 2)
	c.Assert(drv.Live("ImageView"), qt.Equals, 0)
	c.Assert(drv.Live("Swapchain"), qt.Equals, 0)
	c.Assert(drv.Violations(), qt.HasLen, 0)
}

func TestQueryRejected(t *testing.T) {
	c := qt.New(t)
	drv := drivertest.New()
	drv.Fail("SurfaceCapabilities", 1, nil)
	dev := newDevice(c, drv, device.QueueFamilyIndices{})
	surface := newSurface(c, drv)

	_, err := swapchain.Query(surface, dev, vk.Extent2D{Width: 800, Height: 600})
	c.Assert(gfx.KindOf(err), qt.Equals, gfx.SwapchainCreation)
}
