package core_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/core"
	"github.com/devblok/vkboot/device"
	"github.com/devblok/vkboot/driver/drivertest"
	"github.com/devblok/vkboot/gfx"
	"github.com/devblok/vkboot/loader"
	"github.com/devblok/vkboot/pipeline"
)

func shaders() loader.Memory {
	return loader.Memory{
		pipeline.DefaultVertexShader:   make([]byte, 32),
		pipeline.DefaultFragmentShader: make([]byte, 16),
	}
}

func newBuilder(drv *drivertest.Driver) *core.Builder {
	return &core.Builder{
		Driver: drv,
		Window: drivertest.NewWindow(drv),
		Loader: shaders(),
		Config: core.DefaultConfiguration(),
	}
}

func destroyCalls(calls []string) []string {
	var destroys []string
	for _, call := range calls {
		if strings.HasPrefix(call, "Destroy") {
			destroys = append(destroys, call)
		}
	}
	return destroys
}

func TestBuildAndDestroy(t *testing.T) {
	c := qt.New(t)
	drv := drivertest.New()
	b := newBuilder(drv)

	ctx, err := b.Build()
	c.Assert(err, qt.IsNil)
	c.Assert(b.State(), qt.Equals, core.Running)
	c.Assert(ctx.State(), qt.Equals, core.Running)
	c.Assert(ctx.Resources(), qt.DeepEquals, []string{
		"instance", "surface", "device", "swapchain", "pipeline", "framebuffers", "command pool",
	})

	// the fake exposes a single family doing both
	c.Assert(ctx.Device().Indices(), qt.Equals, device.QueueFamilyIndices{})
	c.Assert(ctx.Chain().Images(), qt.HasLen, 3)
	c.Assert(ctx.Chain().Extent(), qt.Equals, vk.Extent2D{Width: 800, Height: 600})
	c.Assert(drv.SwapchainInfo.ImageSharingMode, qt.Equals, vk.SharingModeExclusive)
	c.Assert(ctx.Targets().Len(), qt.Equals, 3)
	c.Assert(ctx.Recorder().Buffers(), qt.HasLen, 3)
	c.Assert(drv.Live("ShaderModule"), qt.Equals, 0)

	built := len(drv.Calls())
	ctx.Destroy()
	c.Assert(ctx.State(), qt.Equals, core.Destroyed)
	c.Assert(drv.Leaked(), qt.HasLen, 0)
	c.Assert(drv.Violations(), qt.HasLen, 0)
	c.Assert(destroyCalls(drv.Calls()[built:]), qt.DeepEquals, []string{
		"DestroyCommandPool",
		"DestroyFramebuffer", "DestroyFramebuffer", "DestroyFramebuffer",
		"DestroyPipeline",
		"DestroyPipelineLayout",
		"DestroyRenderPass",
		"DestroyImageView", "DestroyImageView", "DestroyImageView",
		"DestroySwapchain",
		"DestroyDevice",
		"DestroySurface",
		"DestroyInstance",
	})
}

func TestDestroyTwice(t *testing.T) {
	c := qt.New(t)
	drv := drivertest.New()

	ctx, err := newBuilder(drv).Build()
	c.Assert(err, qt.IsNil)
	ctx.Destroy()
	calls := len(drv.Calls())
	ctx.Destroy()
	c.Assert(drv.Calls(), qt.HasLen, calls)
	c.Assert(drv.Violations(), qt.HasLen, 0)
}

func TestDestroyWithoutIdle(t *testing.T) {
	c := qt.New(t)
	drv := drivertest.New()
	drv.Fail("DeviceWaitIdle", 1, nil)

	ctx, err := newBuilder(drv).Build()
	c.Assert(err, qt.IsNil)
	ctx.Destroy()
	c.Assert(drv.Leaked(), qt.HasLen, 0)
	c.Assert(drv.Count("DeviceWaitIdle"), qt.Equals, 1)
}

func TestDestroyWaitsOnceBeforeRelease(t *testing.T) {
	c := qt.New(t)
	drv := drivertest.New()

	ctx, err := newBuilder(drv).Build()
	c.Assert(err, qt.IsNil)
	built := len(drv.Calls())
	ctx.Destroy()

	calls := drv.Calls()[built:]
	c.Assert(drv.Count("DeviceWaitIdle"), qt.Equals, 1)
	c.Assert(calls[0], qt.Equals, "DeviceWaitIdle")
}

func TestBuildFailures(t *testing.T) {
	tests := []struct {
		op    string
		nth   int
		kind  gfx.Kind
		state core.State
	}{
		{"CreateInstance", 1, gfx.Initialization, core.Uninitialized},
		{"CreateSurface", 1, gfx.SurfaceCreation, core.InstanceReady},
		{"EnumeratePhysicalDevices", 1, gfx.Initialization, core.SurfaceReady},
		{"SurfaceSupport", 1, gfx.Initialization, core.SurfaceReady},
		{"CreateDevice", 1, gfx.Initialization, core.SurfaceReady},
		{"SurfaceCapabilities", 1, gfx.SwapchainCreation, core.DeviceReady},
		{"SurfaceFormats", 1, gfx.SwapchainCreation, core.DeviceReady},
		{"CreateSwapchain", 1, gfx.SwapchainCreation, core.DeviceReady},
		{"SwapchainImages", 1, gfx.SwapchainCreation, core.DeviceReady},
		{"CreateImageView", 1, gfx.ImageViewCreation, core.DeviceReady},
		{"CreateImageView", 3, gfx.ImageViewCreation, core.DeviceReady},
		{"CreateRenderPass", 1, gfx.RenderPassCreation, core.SwapchainReady},
		{"CreateShaderModule", 1, gfx.ShaderCompilation, core.SwapchainReady},
		{"CreateShaderModule", 2, gfx.ShaderCompilation, core.SwapchainReady},
		{"CreatePipelineLayout", 1, gfx.PipelineLayoutCreation, core.SwapchainReady},
		{"CreateGraphicsPipeline", 1, gfx.PipelineCreation, core.SwapchainReady},
		{"CreateFramebuffer", 1, gfx.FramebufferCreation, core.PipelineReady},
		{"CreateFramebuffer", 3, gfx.FramebufferCreation, core.PipelineReady},
		{"CreateCommandPool", 1, gfx.CommandPoolCreation, core.FramebuffersReady},
		{"AllocateCommandBuffers", 1, gfx.CommandBufferRecording, core.FramebuffersReady},
		{"BeginCommandBuffer", 2, gfx.CommandBufferRecording, core.FramebuffersReady},
		{"EndCommandBuffer", 3, gfx.CommandBufferRecording, core.FramebuffersReady},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s#%d", test.op, test.nth), func(t *testing.T) {
			c := qt.New(t)
			drv := drivertest.New()
			drv.Fail(test.op, test.nth, nil)
			b := newBuilder(drv)

			ctx, err := b.Build()
			c.Assert(ctx, qt.IsNil)
			c.Assert(gfx.KindOf(err), qt.Equals, test.kind)
			c.Assert(errors.Is(err, drivertest.ErrRejected), qt.IsTrue)
			c.Assert(b.State(), qt.Equals, test.state)
			c.Assert(drv.Leaked(), qt.HasLen, 0)
			c.Assert(drv.Violations(), qt.HasLen, 0)
		})
	}
}

func TestBuildUnwindsInReverse(t *testing.T) {
	c := qt.New(t)
	drv := drivertest.New()
	drv.Fail("CreateRenderPass", 1, nil)

	_, err := newBuilder(drv).Build()
	c.Assert(gfx.KindOf(err), qt.Equals, gfx.RenderPassCreation)
	c.Assert(destroyCalls(drv.Calls()), qt.DeepEquals, []string{
		"DestroyImageView", "DestroyImageView", "DestroyImageView",
		"DestroySwapchain",
		"DestroyDevice",
		"DestroySurface",
		"DestroyInstance",
	})
}

func TestBuildWithoutDevices(t *testing.T) {
	c := qt.New(t)
	drv := drivertest.New()
	drv.Devices = 0

	_, err := newBuilder(drv).Build()
	c.Assert(gfx.KindOf(err), qt.Equals, gfx.NoDevice)
	c.Assert(drv.Count("CreateDevice"), qt.Equals, 0)
	c.Assert(drv.Leaked(), qt.HasLen, 0)
}

func TestBuildWithoutGraphics(t *testing.T) {
	c := qt.New(t)
	drv := drivertest.New()
	drv.QueueFamilies = []vk.QueueFamilyProperties{{
		QueueFlags: vk.QueueFlags(vk.QueueTransferBit),
		QueueCount: 1,
	}}

	_, err := newBuilder(drv).Build()
	c.Assert(gfx.KindOf(err), qt.Equals, gfx.UnsupportedDevice)
	c.Assert(drv.Count("CreateDevice"), qt.Equals, 0)
	c.Assert(drv.Leaked(), qt.HasLen, 0)
}

func TestBuildMissingShader(t *testing.T) {
	c := qt.New(t)
	drv := drivertest.New()
	b := newBuilder(drv)
	b.Loader = loader.Memory{}

	_, err := b.Build()
	c.Assert(gfx.KindOf(err), qt.Equals, gfx.FileNotFound)
	c.Assert(drv.Leaked(), qt.HasLen, 0)
}

func TestBuildWithoutCollaborators(t *testing.T) {
	c := qt.New(t)
	b := newBuilder(drivertest.New())
	b.Loader = nil

	_, err := b.Build()
	c.Assert(gfx.KindOf(err), qt.Equals, gfx.Initialization)
}

func TestCommandPoolUsesGraphicsFamily(t *testing.T) {
	c := qt.New(t)
	drv := drivertest.New()
	drv.QueueFamilies = []vk.QueueFamilyProperties{
		{QueueFlags: vk.QueueFlags(vk.QueueComputeBit), QueueCount: 1},
		{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit), QueueCount: 1},
	}
	drv.PresentFamilies = map[uint32]bool{0: true}

	ctx, err := newBuilder(drv).Build()
	c.Assert(err, qt.IsNil)
	defer ctx.Destroy()

	c.Assert(ctx.Device().Indices(), qt.Equals, device.QueueFamilyIndices{Graphics: 1, Present: 0})
	c.Assert(drv.CommandPoolInfo.QueueFamilyIndex, qt.Equals, uint32(1))
	c.Assert(drv.SwapchainInfo.ImageSharingMode, qt.Equals, vk.SharingModeConcurrent)
	c.Assert(drv.SwapchainInfo.PQueueFamilyIndices, qt.DeepEquals, []uint32{1, 0})
}

func TestCountsAreEqual(t *testing.T) {
	tests := []struct {
		min, max, driver uint32
		expected         int
	}{
		{1, 0, 0, 3},
		{2, 0, 0, 3},
		{2, 2, 0, 2},
		{3, 3, 0, 3},
		{4, 0, 0, 4},
		{4, 6, 0, 4},
		{2, 8, 0, 3},
		{2, 0, 5, 5},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("min%d_max%d_driver%d", test.min, test.max, test.driver), func(t *testing.T) {
			c := qt.New(t)
			drv := drivertest.New()
			drv.Capabilities.MinImageCount = test.min
			drv.Capabilities.MaxImageCount = test.max
			drv.SwapchainImageCount = test.driver

			ctx, err := newBuilder(drv).Build()
			c.Assert(err, qt.IsNil)
			defer ctx.Destroy()

			c.Assert(ctx.Chain().Images(), qt.HasLen, test.expected)
			c.Assert(ctx.Chain().Views(), qt.HasLen, test.expected)
			c.Assert(ctx.Targets().Framebuffers(), qt.HasLen, test.expected)
			c.Assert(ctx.Recorder().Buffers(), qt.HasLen, test.expected)
			c.Assert(drv.Draws, qt.HasLen, test.expected)
		})
	}
}

func TestExtentIsClamped(t *testing.T) {
	c := qt.New(t)
	drv := drivertest.New()
	drv.Capabilities.MaxImageExtent = vk.Extent2D{Width: 640, Height: 480}

	ctx, err := newBuilder(drv).Build()
	c.Assert(err, qt.IsNil)
	defer ctx.Destroy()

	c.Assert(ctx.Chain().Extent(), qt.Equals, vk.Extent2D{Width: 640, Height: 480})
	c.Assert(drv.FramebufferInfos[0].Width, qt.Equals, uint32(640))
	c.Assert(drv.RenderPassBegins[0].RenderArea.Extent, qt.Equals, vk.Extent2D{Width: 640, Height: 480})
}

func TestDrawFrame(t *testing.T) {
	c := qt.New(t)
	drv := drivertest.New()
	b := newBuilder(drv)

	var frames []uint64
	b.FrameHook = func(ctx *core.Context, frame uint64) error {
		frames = append(frames, frame)
		if frame == 2 {
			return errors.New("present failed")
		}
		return nil
	}

	ctx, err := b.Build()
	c.Assert(err, qt.IsNil)
	c.Assert(ctx.DrawFrame(), qt.IsNil)
	c.Assert(ctx.DrawFrame(), qt.IsNil)
	c.Assert(ctx.DrawFrame(), qt.ErrorMatches, "present failed")
	c.Assert(frames, qt.DeepEquals, []uint64{0, 1, 2})
	c.Assert(ctx.Frames(), qt.Equals, uint64(3))

	ctx.Destroy()
	c.Assert(ctx.DrawFrame(), qt.ErrorMatches, ".*context is destroyed")
}

func TestDefaultDrawFrame(t *testing.T) {
	ctx, err := newBuilder(drivertest.New()).Build()
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Destroy()
	if err := ctx.DrawFrame(); err != nil {
		t.Error(err)
	}
}

func TestClearColor(t *testing.T) {
	c := qt.New(t)
	drv := drivertest.New()
	b := newBuilder(drv)
	b.Config.Renderer.ClearColor = mgl32.Vec4{0.5, 0.25, 0, 1}

	ctx, err := b.Build()
	c.Assert(err, qt.IsNil)
	defer ctx.Destroy()
	var expected vk.ClearValue
	expected.SetColor([]float32{0.5, 0.25, 0, 1})
	for _, begin := range drv.RenderPassBegins {
		c.Assert(begin.PClearValues, qt.DeepEquals, []vk.ClearValue{expected})
	}
}

func TestStateString(t *testing.T) {
	c := qt.New(t)
	c.Assert(core.Uninitialized.String(), qt.Equals, "uninitialized")
	c.Assert(core.FramebuffersReady.String(), qt.Equals, "framebuffers ready")
	c.Assert(core.Destroyed.String(), qt.Equals, "destroyed")
	c.Assert(core.State(42).String(), qt.Equals, "State(42)")
}

func TestDefaultConfiguration(t *testing.T) {
	c := qt.New(t)
	cfg := core.DefaultConfiguration()
	c.Assert(cfg.Renderer.Extent(), qt.Equals, vk.Extent2D{Width: 800, Height: 600})
	c.Assert(cfg.Renderer.Shaders, qt.Equals, pipeline.Shaders{Vertex: "shaders/vert.spv", Fragment: "shaders/frag.spv"})
	c.Assert(cfg.Renderer.ClearColor, qt.Equals, mgl32.Vec4{0, 0, 0, 1})
	c.Assert(cfg.Instance.DebugMode, qt.IsFalse)
	c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 60)
	c.Assert(cfg.Window.Backend, qt.Equals, "sdl")
}

func TestTime(t *testing.T) {
	c := qt.New(t)

	fps := core.NewTime(core.TimeConfiguration{FramesPerSecond: 50})
	defer fps.Stop()
	c.Assert(fps.Fps(), qt.Equals, 50)
	c.Assert(fps.Interval(), qt.Equals, 20*time.Millisecond)

	unlimited := core.NewTime(core.TimeConfiguration{})
	defer unlimited.Stop()
	c.Assert(unlimited.Interval(), qt.Equals, time.Nanosecond)
	select {
	case <-unlimited.FpsTicker().C:
	case <-time.After(time.Second):
		c.Fatal("ticker did not tick")
	}
}
