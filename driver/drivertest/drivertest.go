// Package drivertest provides a recording driver.Driver and gfx.Window
// for exercising the bootstrap sequence without a GPU.
package drivertest

import (
	"fmt"
	"sort"
	"sync"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/driver"
)

// ErrRejected is the error injected by Fail when none is given.
var ErrRejected = vk.Error(vk.ErrorInitializationFailed)

type failure struct {
	nth int
	err error
}

// Draw is a recorded draw command.
type Draw struct {
	VertexCount, InstanceCount, FirstVertex, FirstInstance uint32
}

// Driver is a fake driver. Queries answer from the exported fields,
// creation calls are counted, logged and can be made to fail. Handles
// it returns are all null, so assertions work on the call log and on
// the per-kind counters of live objects.
type Driver struct {
	// Devices is the number of physical devices enumerated.
	Devices int
	// QueueFamilies reported for every physical device.
	QueueFamilies []vk.QueueFamilyProperties
	// PresentFamilies lists the families that support presentation.
	// When nil every family does.
	PresentFamilies map[uint32]bool
	Capabilities    vk.SurfaceCapabilities
	Formats         []vk.SurfaceFormat
	// SwapchainImageCount overrides the number of images the swapchain
	// reports. When zero the requested minimum is honoured.
	SwapchainImageCount uint32

	DeviceName string
	Extensions []string
	Layers     []string
	HeapSizes  []vk.DeviceSize

	// Captured create infos.
	InstanceInfo       vk.InstanceCreateInfo
	DeviceInfo         vk.DeviceCreateInfo
	SwapchainInfo      vk.SwapchainCreateInfo
	ImageViewInfos     []vk.ImageViewCreateInfo
	RenderPassInfo     vk.RenderPassCreateInfo
	ShaderModuleInfos  []vk.ShaderModuleCreateInfo
	PipelineLayoutInfo vk.PipelineLayoutCreateInfo
	PipelineInfo       vk.GraphicsPipelineCreateInfo
	FramebufferInfos   []vk.FramebufferCreateInfo
	CommandPoolInfo    vk.CommandPoolCreateInfo
	AllocateInfo       vk.CommandBufferAllocateInfo
	CommandBeginInfos  []vk.CommandBufferBeginInfo
	RenderPassBegins   []vk.RenderPassBeginInfo
	Draws              []Draw
	QueueRequests      [][2]uint32

	mutex      sync.Mutex
	calls      []string
	counts     map[string]int
	live       map[string]int
	failures   map[string]failure
	violations []string
}

var _ driver.Driver = (*Driver)(nil)

// New returns a fake with one physical device exposing a single queue
// family that supports graphics and presentation, and a surface that
// accepts any extent up to 4096x4096 with at least two images.
func New() *Driver {
	return &Driver{
		Devices: 1,
		QueueFamilies: []vk.QueueFamilyProperties{{
			QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit | vk.QueueTransferBit),
			QueueCount: 1,
		}},
		Capabilities: vk.SurfaceCapabilities{
			MinImageCount:       2,
			MaxImageCount:       0,
			CurrentExtent:       vk.Extent2D{Width: 800, Height: 600},
			MinImageExtent:      vk.Extent2D{Width: 1, Height: 1},
			MaxImageExtent:      vk.Extent2D{Width: 4096, Height: 4096},
			MaxImageArrayLayers: 1,
			SupportedTransforms: vk.SurfaceTransformFlags(vk.SurfaceTransformIdentityBit),
			CurrentTransform:    vk.SurfaceTransformIdentityBit,
		},
		Formats: []vk.SurfaceFormat{
			{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
			{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		},
		DeviceName: "Fake GPU",
		Extensions: []string{vk.KhrSwapchainExtensionName},
		HeapSizes:  []vk.DeviceSize{1 << 30},
	}
}

// Fail makes the nth (counting from 1) call of op fail with err.
// A nil err injects ErrRejected.
func (d *Driver) Fail(op string, nth int, err error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if err == nil {
		err = ErrRejected
	}
	if d.failures == nil {
		d.failures = make(map[string]failure)
	}
	d.failures[op] = failure{nth: nth, err: err}
}

// Calls returns every call made so far, in order.
func (d *Driver) Calls() []string {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]string(nil), d.calls...)
}

// Count returns how many times op was called.
func (d *Driver) Count(op string) int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.counts[op]
}

// Live returns the number of objects of kind created and not yet destroyed.
func (d *Driver) Live(kind string) int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.live[kind]
}

// Leaked lists the kinds that still have live objects, sorted.
func (d *Driver) Leaked() []string {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	var kinds []string
	for kind, n := range d.live {
		if n != 0 {
			kinds = append(kinds, fmt.Sprintf("%s=%d", kind, n))
		}
	}
	sort.Strings(kinds)
	return kinds
}

// Violations lists destructions of objects that were not live.
func (d *Driver) Violations() []string {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]string(nil), d.violations...)
}

func (d *Driver) call(op string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.counts == nil {
		d.counts = make(map[string]int)
	}
	d.counts[op]++
	d.calls = append(d.calls, op)
	if f, ok := d.failures[op]; ok && f.nth == d.counts[op] {
		return f.err
	}
	return nil
}

func (d *Driver) create(op, kind string, n int) error {
	if err := d.call(op); err != nil {
		return err
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.live == nil {
		d.live = make(map[string]int)
	}
	d.live[kind] += n
	return nil
}

func (d *Driver) destroy(op, kind string) {
	d.call(op)
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.live[kind] <= 0 {
		d.violations = append(d.violations, op)
		return
	}
	d.live[kind]--
}

// CreateInstance implements interface
func (d *Driver) CreateInstance(info *vk.InstanceCreateInfo) (vk.Instance, error) {
	d.InstanceInfo = *info
	return nil, d.create("CreateInstance", "Instance", 1)
}

// DestroyInstance implements interface
func (d *Driver) DestroyInstance(instance vk.Instance) {
	d.destroy("DestroyInstance", "Instance")
}

// EnumeratePhysicalDevices implements interface
func (d *Driver) EnumeratePhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	if err := d.call("EnumeratePhysicalDevices"); err != nil {
		return nil, err
	}
	return make([]vk.PhysicalDevice, d.Devices), nil
}

// PhysicalDeviceProperties implements interface
func (d *Driver) PhysicalDeviceProperties(pd vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	d.call("PhysicalDeviceProperties")
	properties := vk.PhysicalDeviceProperties{
		DeviceID:      0x1234,
		VendorID:      0x10de,
		DriverVersion: vk.MakeVersion(1, 2, 3),
		DeviceType:    vk.PhysicalDeviceTypeDiscreteGpu,
	}
	copy(properties.DeviceName[:], d.DeviceName)
	return properties
}

// PhysicalDeviceMemoryProperties implements interface
func (d *Driver) PhysicalDeviceMemoryProperties(pd vk.PhysicalDevice) vk.PhysicalDeviceMemoryProperties {
	d.call("PhysicalDeviceMemoryProperties")
	var properties vk.PhysicalDeviceMemoryProperties
	for idx, size := range d.HeapSizes {
		properties.MemoryHeaps[idx].Size = size
	}
	properties.MemoryHeapCount = uint32(len(d.HeapSizes))
	return properties
}

// DeviceExtensions implements interface
func (d *Driver) DeviceExtensions(pd vk.PhysicalDevice) ([]string, error) {
	if err := d.call("DeviceExtensions"); err != nil {
		return nil, err
	}
	return d.Extensions, nil
}

// DeviceLayers implements interface
func (d *Driver) DeviceLayers(pd vk.PhysicalDevice) ([]string, error) {
	if err := d.call("DeviceLayers"); err != nil {
		return nil, err
	}
	return d.Layers, nil
}

// QueueFamilyProperties implements interface
func (d *Driver) QueueFamilyProperties(pd vk.PhysicalDevice) []vk.QueueFamilyProperties {
	d.call("QueueFamilyProperties")
	return d.QueueFamilies
}

// SurfaceSupport implements interface
func (d *Driver) SurfaceSupport(pd vk.PhysicalDevice, family uint32, surface vk.Surface) (bool, error) {
	if err := d.call("SurfaceSupport"); err != nil {
		return false, err
	}
	if d.PresentFamilies == nil {
		return true, nil
	}
	return d.PresentFamilies[family], nil
}

// SurfaceCapabilities implements interface
func (d *Driver) SurfaceCapabilities(pd vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, error) {
	if err := d.call("SurfaceCapabilities"); err != nil {
		return vk.SurfaceCapabilities{}, err
	}
	return d.Capabilities, nil
}

// SurfaceFormats implements interface
func (d *Driver) SurfaceFormats(pd vk.PhysicalDevice, surface vk.Surface) ([]vk.SurfaceFormat, error) {
	if err := d.call("SurfaceFormats"); err != nil {
		return nil, err
	}
	return d.Formats, nil
}

// DestroySurface implements interface
func (d *Driver) DestroySurface(instance vk.Instance, surface vk.Surface) {
	d.destroy("DestroySurface", "Surface")
}

// CreateDevice implements interface
func (d *Driver) CreateDevice(pd vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, error) {
	d.DeviceInfo = *info
	return nil, d.create("CreateDevice", "Device", 1)
}

// DeviceQueue implements interface
func (d *Driver) DeviceQueue(device vk.Device, family, index uint32) vk.Queue {
	d.call("DeviceQueue")
	d.QueueRequests = append(d.QueueRequests, [2]uint32{family, index})
	return nil
}

// DeviceWaitIdle implements interface
func (d *Driver) DeviceWaitIdle(device vk.Device) error {
	return d.call("DeviceWaitIdle")
}

// DestroyDevice implements interface
func (d *Driver) DestroyDevice(device vk.Device) {
	d.destroy("DestroyDevice", "Device")
}

// CreateSwapchain implements interface
func (d *Driver) CreateSwapchain(device vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	d.SwapchainInfo = *info
	return vk.NullSwapchain, d.create("CreateSwapchain", "Swapchain", 1)
}

// SwapchainImages implements interface
func (d *Driver) SwapchainImages(device vk.Device, swapchain vk.Swapchain) ([]vk.Image, error) {
	if err := d.call("SwapchainImages"); err != nil {
		return nil, err
	}
	count := d.SwapchainImageCount
	if count == 0 {
		count = d.SwapchainInfo.MinImageCount
	}
	return make([]vk.Image, count), nil
}

// DestroySwapchain implements interface
func (d *Driver) DestroySwapchain(device vk.Device, swapchain vk.Swapchain) {
	d.destroy("DestroySwapchain", "Swapchain")
}

// CreateImageView implements interface
func (d *Driver) CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	d.ImageViewInfos = append(d.ImageViewInfos, *info)
	return vk.NullImageView, d.create("CreateImageView", "ImageView", 1)
}

// DestroyImageView implements interface
func (d *Driver) DestroyImageView(device vk.Device, view vk.ImageView) {
	d.destroy("DestroyImageView", "ImageView")
}

// CreateRenderPass implements interface
func (d *Driver) CreateRenderPass(device vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	d.RenderPassInfo = *info
	return vk.NullRenderPass, d.create("CreateRenderPass", "RenderPass", 1)
}

// DestroyRenderPass implements interface
func (d *Driver) DestroyRenderPass(device vk.Device, renderPass vk.RenderPass) {
	d.destroy("DestroyRenderPass", "RenderPass")
}

// CreateShaderModule implements interface
func (d *Driver) CreateShaderModule(device vk.Device, info *vk.ShaderModuleCreateInfo) (vk.ShaderModule, error) {
	d.ShaderModuleInfos = append(d.ShaderModuleInfos, *info)
	return vk.NullShaderModule, d.create("CreateShaderModule", "ShaderModule", 1)
}

// DestroyShaderModule implements interface
func (d *Driver) DestroyShaderModule(device vk.Device, module vk.ShaderModule) {
	d.destroy("DestroyShaderModule", "ShaderModule")
}

// CreatePipelineLayout implements interface
func (d *Driver) CreatePipelineLayout(device vk.Device, info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error) {
	d.PipelineLayoutInfo = *info
	return vk.NullPipelineLayout, d.create("CreatePipelineLayout", "PipelineLayout", 1)
}

// DestroyPipelineLayout implements interface
func (d *Driver) DestroyPipelineLayout(device vk.Device, layout vk.PipelineLayout) {
	d.destroy("DestroyPipelineLayout", "PipelineLayout")
}

// CreateGraphicsPipeline implements interface
func (d *Driver) CreateGraphicsPipeline(device vk.Device, info vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error) {
	d.PipelineInfo = info
	return vk.NullPipeline, d.create("CreateGraphicsPipeline", "Pipeline", 1)
}

// DestroyPipeline implements interface
func (d *Driver) DestroyPipeline(device vk.Device, pipeline vk.Pipeline) {
	d.destroy("DestroyPipeline", "Pipeline")
}

// CreateFramebuffer implements interface
func (d *Driver) CreateFramebuffer(device vk.Device, info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	d.FramebufferInfos = append(d.FramebufferInfos, *info)
	return vk.NullFramebuffer, d.create("CreateFramebuffer", "Framebuffer", 1)
}

// DestroyFramebuffer implements interface
func (d *Driver) DestroyFramebuffer(device vk.Device, framebuffer vk.Framebuffer) {
	d.destroy("DestroyFramebuffer", "Framebuffer")
}

// CreateCommandPool implements interface
func (d *Driver) CreateCommandPool(device vk.Device, info *vk.CommandPoolCreateInfo) (vk.CommandPool, error) {
	d.CommandPoolInfo = *info
	return vk.NullCommandPool, d.create("CreateCommandPool", "CommandPool", 1)
}

// DestroyCommandPool implements interface
func (d *Driver) DestroyCommandPool(device vk.Device, pool vk.CommandPool) {
	d.destroy("DestroyCommandPool", "CommandPool")
}

// AllocateCommandBuffers implements interface
func (d *Driver) AllocateCommandBuffers(device vk.Device, info *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, error) {
	d.AllocateInfo = *info
	if err := d.call("AllocateCommandBuffers"); err != nil {
		return nil, err
	}
	return make([]vk.CommandBuffer, info.CommandBufferCount), nil
}

// BeginCommandBuffer implements interface
func (d *Driver) BeginCommandBuffer(cb vk.CommandBuffer, info *vk.CommandBufferBeginInfo) error {
	d.CommandBeginInfos = append(d.CommandBeginInfos, *info)
	return d.call("BeginCommandBuffer")
}

// CmdBeginRenderPass implements interface
func (d *Driver) CmdBeginRenderPass(cb vk.CommandBuffer, info *vk.RenderPassBeginInfo) {
	d.RenderPassBegins = append(d.RenderPassBegins, *info)
	d.call("CmdBeginRenderPass")
}

// CmdBindPipeline implements interface
func (d *Driver) CmdBindPipeline(cb vk.CommandBuffer, pipeline vk.Pipeline) {
	d.call("CmdBindPipeline")
}

// CmdDraw implements interface
func (d *Driver) CmdDraw(cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	d.Draws = append(d.Draws, Draw{vertexCount, instanceCount, firstVertex, firstInstance})
	d.call("CmdDraw")
}

// CmdEndRenderPass implements interface
func (d *Driver) CmdEndRenderPass(cb vk.CommandBuffer) {
	d.call("CmdEndRenderPass")
}

// EndCommandBuffer implements interface
func (d *Driver) EndCommandBuffer(cb vk.CommandBuffer) error {
	return d.call("EndCommandBuffer")
}

// Window is a fake window collaborator. Surfaces it creates are counted
// as live objects of its Driver.
type Window struct {
	Driver     *Driver
	Extensions []string
	// SurfaceErr, when set, is returned by CreateSurface.
	SurfaceErr error
	// CloseAfter makes ShouldClose report true after that many polls.
	CloseAfter int

	polls     int
	destroyed bool
}

// NewWindow returns a window bound to d requesting the usual
// platform surface extensions.
func NewWindow(d *Driver) *Window {
	return &Window{
		Driver:     d,
		Extensions: []string{"VK_KHR_surface", "VK_KHR_xcb_surface"},
		CloseAfter: 1,
	}
}

// RequiredInstanceExtensions implements interface
func (w *Window) RequiredInstanceExtensions() []string {
	return w.Extensions
}

// CreateSurface implements interface
func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	if w.SurfaceErr != nil {
		w.Driver.call("CreateSurface")
		return vk.NullSurface, w.SurfaceErr
	}
	return vk.NullSurface, w.Driver.create("CreateSurface", "Surface", 1)
}

// ProcAddr implements interface
func (w *Window) ProcAddr() unsafe.Pointer {
	return nil
}

// ShouldClose implements interface
func (w *Window) ShouldClose() bool {
	return w.destroyed || w.polls >= w.CloseAfter
}

// PollEvents implements interface
func (w *Window) PollEvents() {
	w.polls++
}

// Polls returns the number of PollEvents calls.
func (w *Window) Polls() int {
	return w.polls
}

// Destroy implements interface
func (w *Window) Destroy() {
	w.destroyed = true
}
