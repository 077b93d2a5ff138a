package driver

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// NewVulkan loads the Vulkan entry points and returns a Driver backed by
// them. procAddr is the vkGetInstanceProcAddr provided by the window
// library; when nil the system loader is used, which suits headless use.
func NewVulkan(procAddr unsafe.Pointer) (*Vulkan, error) {
	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.Wrap(err, "vk.SetDefaultGetInstanceProcAddr()")
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "vk.Init()")
	}
	return &Vulkan{}, nil
}

// Vulkan calls straight into github.com/vulkan-go/vulkan.
type Vulkan struct{}

var _ Driver = (*Vulkan)(nil)

// CreateInstance implements interface
func (Vulkan) CreateInstance(info *vk.InstanceCreateInfo) (vk.Instance, error) {
	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(info, nil, &instance)); err != nil {
		return nil, err
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, errors.Wrap(err, "vk.InitInstance()")
	}
	return instance, nil
}

// DestroyInstance implements interface
func (Vulkan) DestroyInstance(instance vk.Instance) {
	vk.DestroyInstance(instance, nil)
}

// EnumeratePhysicalDevices implements interface
func (Vulkan) EnumeratePhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)); err != nil {
		return nil, err
	}
	devices := make([]vk.PhysicalDevice, deviceCount)
	if deviceCount == 0 {
		return devices, nil
	}
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, devices)); err != nil {
		return nil, err
	}
	return devices[:deviceCount], nil
}

// PhysicalDeviceProperties implements interface
func (Vulkan) PhysicalDeviceProperties(pd vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &properties)
	properties.Deref()
	return properties
}

// PhysicalDeviceMemoryProperties implements interface
func (Vulkan) PhysicalDeviceMemoryProperties(pd vk.PhysicalDevice) vk.PhysicalDeviceMemoryProperties {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(pd, &memoryProperties)
	memoryProperties.Deref()
	for idx := uint32(0); idx < memoryProperties.MemoryHeapCount; idx++ {
		memoryProperties.MemoryHeaps[idx].Deref()
	}
	return memoryProperties
}

// DeviceExtensions implements interface
func (Vulkan) DeviceExtensions(pd vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &count, nil)); err != nil {
		return nil, err
	}
	properties := make([]vk.ExtensionProperties, count)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &count, properties)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, ext := range properties[:count] {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// DeviceLayers implements interface
func (Vulkan) DeviceLayers(pd vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(pd, &count, nil)); err != nil {
		return nil, err
	}
	properties := make([]vk.LayerProperties, count)
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(pd, &count, properties)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, layer := range properties[:count] {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

// QueueFamilyProperties implements interface
func (Vulkan) QueueFamilyProperties(pd vk.PhysicalDevice) []vk.QueueFamilyProperties {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, families)
	for idx := range families {
		families[idx].Deref()
	}
	return families
}

// SurfaceSupport implements interface
func (Vulkan) SurfaceSupport(pd vk.PhysicalDevice, family uint32, surface vk.Surface) (bool, error) {
	var supported vk.Bool32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceSupport(pd, family, surface, &supported)); err != nil {
		return false, err
	}
	return supported.B(), nil
}

// SurfaceCapabilities implements interface
func (Vulkan) SurfaceCapabilities(pd vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, error) {
	var capabilities vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(pd, surface, &capabilities)); err != nil {
		return capabilities, err
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()
	return capabilities, nil
}

// SurfaceFormats implements interface
func (Vulkan) SurfaceFormats(pd vk.PhysicalDevice, surface vk.Surface) ([]vk.SurfaceFormat, error) {
	var count uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &count, nil)); err != nil {
		return nil, err
	}
	formats := make([]vk.SurfaceFormat, count)
	if count == 0 {
		return formats, nil
	}
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &count, formats)); err != nil {
		return nil, err
	}
	for idx := range formats {
		formats[idx].Deref()
	}
	return formats[:count], nil
}

// DestroySurface implements interface
func (Vulkan) DestroySurface(instance vk.Instance, surface vk.Surface) {
	vk.DestroySurface(instance, surface, nil)
}

// CreateDevice implements interface
func (Vulkan) CreateDevice(pd vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, error) {
	var device vk.Device
	if err := vk.Error(vk.CreateDevice(pd, info, nil, &device)); err != nil {
		return nil, err
	}
	return device, nil
}

// DeviceQueue implements interface
func (Vulkan) DeviceQueue(device vk.Device, family, index uint32) vk.Queue {
	var queue vk.Queue
	vk.GetDeviceQueue(device, family, index, &queue)
	return queue
}

// DeviceWaitIdle implements interface
func (Vulkan) DeviceWaitIdle(device vk.Device) error {
	return vk.Error(vk.DeviceWaitIdle(device))
}

// DestroyDevice implements interface
func (Vulkan) DestroyDevice(device vk.Device) {
	vk.DestroyDevice(device, nil)
}

// CreateSwapchain implements interface
func (Vulkan) CreateSwapchain(device vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	var swapchain vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(device, info, nil, &swapchain)); err != nil {
		return vk.NullSwapchain, err
	}
	return swapchain, nil
}

// SwapchainImages implements interface
func (Vulkan) SwapchainImages(device vk.Device, swapchain vk.Swapchain) ([]vk.Image, error) {
	var count uint32
	if err := vk.Error(vk.GetSwapchainImages(device, swapchain, &count, nil)); err != nil {
		return nil, err
	}
	images := make([]vk.Image, count)
	if err := vk.Error(vk.GetSwapchainImages(device, swapchain, &count, images)); err != nil {
		return nil, err
	}
	return images[:count], nil
}

// DestroySwapchain implements interface
func (Vulkan) DestroySwapchain(device vk.Device, swapchain vk.Swapchain) {
	vk.DestroySwapchain(device, swapchain, nil)
}

// CreateImageView implements interface
func (Vulkan) CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(device, info, nil, &view)); err != nil {
		return vk.NullImageView, err
	}
	return view, nil
}

// DestroyImageView implements interface
func (Vulkan) DestroyImageView(device vk.Device, view vk.ImageView) {
	vk.DestroyImageView(device, view, nil)
}

// CreateRenderPass implements interface
func (Vulkan) CreateRenderPass(device vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	var renderPass vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(device, info, nil, &renderPass)); err != nil {
		return vk.NullRenderPass, err
	}
	return renderPass, nil
}

// DestroyRenderPass implements interface
func (Vulkan) DestroyRenderPass(device vk.Device, renderPass vk.RenderPass) {
	vk.DestroyRenderPass(device, renderPass, nil)
}

// CreateShaderModule implements interface
func (Vulkan) CreateShaderModule(device vk.Device, info *vk.ShaderModuleCreateInfo) (vk.ShaderModule, error) {
	var module vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(device, info, nil, &module)); err != nil {
		return vk.NullShaderModule, err
	}
	return module, nil
}

// DestroyShaderModule implements interface
func (Vulkan) DestroyShaderModule(device vk.Device, module vk.ShaderModule) {
	vk.DestroyShaderModule(device, module, nil)
}

// CreatePipelineLayout implements interface
func (Vulkan) CreatePipelineLayout(device vk.Device, info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error) {
	var layout vk.PipelineLayout
	if err := vk.Error(vk.CreatePipelineLayout(device, info, nil, &layout)); err != nil {
		return vk.NullPipelineLayout, err
	}
	return layout, nil
}

// DestroyPipelineLayout implements interface
func (Vulkan) DestroyPipelineLayout(device vk.Device, layout vk.PipelineLayout) {
	vk.DestroyPipelineLayout(device, layout, nil)
}

// CreateGraphicsPipeline implements interface
func (Vulkan) CreateGraphicsPipeline(device vk.Device, info vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error) {
	pipelines := make([]vk.Pipeline, 1)
	gpci := []vk.GraphicsPipelineCreateInfo{info}
	if err := vk.Error(vk.CreateGraphicsPipelines(device, vk.PipelineCache(vk.NullHandle), 1, gpci, nil, pipelines)); err != nil {
		return vk.NullPipeline, err
	}
	return pipelines[0], nil
}

// DestroyPipeline implements interface
func (Vulkan) DestroyPipeline(device vk.Device, pipeline vk.Pipeline) {
	vk.DestroyPipeline(device, pipeline, nil)
}

// CreateFramebuffer implements interface
func (Vulkan) CreateFramebuffer(device vk.Device, info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	var framebuffer vk.Framebuffer
	if err := vk.Error(vk.CreateFramebuffer(device, info, nil, &framebuffer)); err != nil {
		return vk.NullFramebuffer, err
	}
	return framebuffer, nil
}

// DestroyFramebuffer implements interface
func (Vulkan) DestroyFramebuffer(device vk.Device, framebuffer vk.Framebuffer) {
	vk.DestroyFramebuffer(device, framebuffer, nil)
}

// CreateCommandPool implements interface
func (Vulkan) CreateCommandPool(device vk.Device, info *vk.CommandPoolCreateInfo) (vk.CommandPool, error) {
	var pool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(device, info, nil, &pool)); err != nil {
		return vk.NullCommandPool, err
	}
	return pool, nil
}

// DestroyCommandPool implements interface
func (Vulkan) DestroyCommandPool(device vk.Device, pool vk.CommandPool) {
	vk.DestroyCommandPool(device, pool, nil)
}

// AllocateCommandBuffers implements interface
func (Vulkan) AllocateCommandBuffers(device vk.Device, info *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, error) {
	buffers := make([]vk.CommandBuffer, info.CommandBufferCount)
	if err := vk.Error(vk.AllocateCommandBuffers(device, info, buffers)); err != nil {
		return nil, err
	}
	return buffers, nil
}

// BeginCommandBuffer implements interface
func (Vulkan) BeginCommandBuffer(cb vk.CommandBuffer, info *vk.CommandBufferBeginInfo) error {
	return vk.Error(vk.BeginCommandBuffer(cb, info))
}

// CmdBeginRenderPass implements interface
func (Vulkan) CmdBeginRenderPass(cb vk.CommandBuffer, info *vk.RenderPassBeginInfo) {
	vk.CmdBeginRenderPass(cb, info, vk.SubpassContentsInline)
}

// CmdBindPipeline implements interface
func (Vulkan) CmdBindPipeline(cb vk.CommandBuffer, pipeline vk.Pipeline) {
	vk.CmdBindPipeline(cb, vk.PipelineBindPointGraphics, pipeline)
}

// CmdDraw implements interface
func (Vulkan) CmdDraw(cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(cb, vertexCount, instanceCount, firstVertex, firstInstance)
}

// CmdEndRenderPass implements interface
func (Vulkan) CmdEndRenderPass(cb vk.CommandBuffer) {
	vk.CmdEndRenderPass(cb)
}

// EndCommandBuffer implements interface
func (Vulkan) EndCommandBuffer(cb vk.CommandBuffer) error {
	return vk.Error(vk.EndCommandBuffer(cb))
}
