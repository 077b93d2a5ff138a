package frame

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/driver"
	"github.com/devblok/vkboot/gfx"
)

// Triangle is the draw every command buffer records: three vertices
// produced by the vertex shader, one instance.
var Triangle = Draw{VertexCount: 3, InstanceCount: 1}

// Draw describes a non-indexed draw.
type Draw struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

// RecorderConfiguration is what the command buffers are recorded with.
type RecorderConfiguration struct {
	// GraphicsFamily is the queue family the buffers will be submitted
	// to. It must support graphics.
	GraphicsFamily uint32
	RenderPass     vk.RenderPass
	Pipeline       vk.Pipeline
	ClearColor     mgl32.Vec4
}

// Recorder owns the command pool and one primary command buffer per
// framebuffer, each recorded once.
type Recorder struct {
	drv     driver.Driver
	device  vk.Device
	pool    vk.CommandPool
	buffers []vk.CommandBuffer
}

// NewRecorder creates a command pool on the graphics family and records a
// clear and a triangle into one command buffer per framebuffer of
// targets. On failure the pool is destroyed, which frees its buffers.
func NewRecorder(drv driver.Driver, device vk.Device, targets *Targets, cfg RecorderConfiguration) (*Recorder, error) {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: cfg.GraphicsFamily,
	}

	pool, err := drv.CreateCommandPool(device, &cpci)
	if err != nil {
		return nil, gfx.E(gfx.CommandPoolCreation, "vk.CreateCommandPool()", err)
	}

	r := &Recorder{
		drv:    drv,
		device: device,
		pool:   pool,
	}

	if err := r.record(targets, cfg); err != nil {
		r.Release()
		return nil, err
	}

	log.WithFields(log.Fields{
		"buffers":     len(r.buffers),
		"queueFamily": cfg.GraphicsFamily,
	}).Info("command buffers recorded")
	return r, nil
}

func (r *Recorder) record(targets *Targets, cfg RecorderConfiguration) error {
	framebuffers := targets.Framebuffers()
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        r.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(len(framebuffers)),
	}

	buffers, err := r.drv.AllocateCommandBuffers(r.device, &cbai)
	if err != nil {
		return gfx.E(gfx.CommandBufferRecording, "vk.AllocateCommandBuffers()", err)
	}

	for idx, commandBuffer := range buffers {
		cbbi := vk.CommandBufferBeginInfo{
			SType: vk.StructureTypeCommandBufferBeginInfo,
			Flags: 0,
		}
		if err := r.drv.BeginCommandBuffer(commandBuffer, &cbbi); err != nil {
			return gfx.E(gfx.CommandBufferRecording, "vk.BeginCommandBuffer()", errors.Wrapf(err, "buffer %d", idx))
		}

		clearValues := make([]vk.ClearValue, 1)
		clearValues[0].SetColor(cfg.ClearColor[:])

		rpbi := vk.RenderPassBeginInfo{
			SType:       vk.StructureTypeRenderPassBeginInfo,
			RenderPass:  cfg.RenderPass,
			Framebuffer: framebuffers[idx],
			RenderArea: vk.Rect2D{
				Offset: vk.Offset2D{
					X: 0, Y: 0,
				},
				Extent: targets.Extent(),
			},
			ClearValueCount: uint32(len(clearValues)),
			PClearValues:    clearValues,
		}
		r.drv.CmdBeginRenderPass(commandBuffer, &rpbi)
		r.drv.CmdBindPipeline(commandBuffer, cfg.Pipeline)
		r.drv.CmdDraw(commandBuffer, Triangle.VertexCount, Triangle.InstanceCount, Triangle.FirstVertex, Triangle.FirstInstance)
		r.drv.CmdEndRenderPass(commandBuffer)

		if err := r.drv.EndCommandBuffer(commandBuffer); err != nil {
			return gfx.E(gfx.CommandBufferRecording, "vk.EndCommandBuffer()", errors.Wrapf(err, "buffer %d", idx))
		}
	}
	r.buffers = buffers
	return nil
}

// Pool returns the command pool.
func (r *Recorder) Pool() vk.CommandPool {
	return r.pool
}

// Buffers returns the recorded command buffers in framebuffer order.
func (r *Recorder) Buffers() []vk.CommandBuffer {
	return r.buffers
}

// Release destroys the pool, freeing its command buffers with it.
func (r *Recorder) Release() {
	r.drv.DestroyCommandPool(r.device, r.pool)
	r.buffers = nil
}
