package drivertest

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	vk "github.com/vulkan-go/vulkan"
)

func TestFail(t *testing.T) {
	c := qt.New(t)
	drv := New()
	drv.Fail("CreateFramebuffer", 2, nil)

	info := &vk.FramebufferCreateInfo{}
	_, err := drv.CreateFramebuffer(nil, info)
	c.Assert(err, qt.IsNil)
	_, err = drv.CreateFramebuffer(nil, info)
	c.Assert(err, qt.Equals, ErrRejected)
	_, err = drv.CreateFramebuffer(nil, info)
	c.Assert(err, qt.IsNil)

	c.Assert(drv.Count("CreateFramebuffer"), qt.Equals, 3)
	c.Assert(drv.Live("Framebuffer"), qt.Equals, 2)
}

func TestFailWithError(t *testing.T) {
	c := qt.New(t)
	drv := New()
	custom := errors.New("device lost")
	drv.Fail("DeviceWaitIdle", 1, custom)
	c.Assert(drv.DeviceWaitIdle(nil), qt.Equals, custom)
}

func TestLeakedAndViolations(t *testing.T) {
	c := qt.New(t)
	drv := New()

	_, err := drv.CreateRenderPass(nil, &vk.RenderPassCreateInfo{})
	c.Assert(err, qt.IsNil)
	_, err = drv.CreateCommandPool(nil, &vk.CommandPoolCreateInfo{})
	c.Assert(err, qt.IsNil)
	c.Assert(drv.Leaked(), qt.DeepEquals, []string{"CommandPool=1", "RenderPass=1"})

	drv.DestroyRenderPass(nil, vk.NullRenderPass)
	drv.DestroyRenderPass(nil, vk.NullRenderPass)
	c.Assert(drv.Leaked(), qt.DeepEquals, []string{"CommandPool=1"})
	c.Assert(drv.Violations(), qt.DeepEquals, []string{"DestroyRenderPass"})
	c.Assert(drv.Calls(), qt.DeepEquals, []string{
		"CreateRenderPass", "CreateCommandPool", "DestroyRenderPass", "DestroyRenderPass",
	})
}

func TestSwapchainImages(t *testing.T) {
	c := qt.New(t)
	drv := New()
	_, err := drv.CreateSwapchain(nil, &vk.SwapchainCreateInfo{MinImageCount: 3})
	c.Assert(err, qt.IsNil)

	images, err := drv.SwapchainImages(nil, vk.NullSwapchain)
	c.Assert(err, qt.IsNil)
	c.Assert(images, qt.HasLen, 3)

	drv.SwapchainImageCount = 4
	images, err = drv.SwapchainImages(nil, vk.NullSwapchain)
	c.Assert(err, qt.IsNil)
	c.Assert(images, qt.HasLen, 4)
}

func TestWindow(t *testing.T) {
	c := qt.New(t)
	drv := New()
	win := NewWindow(drv)
	win.CloseAfter = 2

	_, err := win.CreateSurface(nil)
	c.Assert(err, qt.IsNil)
	c.Assert(drv.Live("Surface"), qt.Equals, 1)

	win.PollEvents()
	c.Assert(win.ShouldClose(), qt.IsFalse)
	win.PollEvents()
	c.Assert(win.ShouldClose(), qt.IsTrue)
	c.Assert(win.Polls(), qt.Equals, 2)
}
