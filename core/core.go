// Package core assembles the rendering context: it runs the cold start
// sequence from instance to recorded command buffers and tears it down in
// exact reverse order.
package core

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkboot/device"
	"github.com/devblok/vkboot/driver"
	"github.com/devblok/vkboot/frame"
	"github.com/devblok/vkboot/gfx"
	"github.com/devblok/vkboot/pipeline"
	"github.com/devblok/vkboot/swapchain"
)

// State is how far the context got through the cold start sequence.
// The surface comes before the device, because present support of the
// queue families is queried against it.
type State int

// Cold start states, in order.
const (
	Uninitialized State = iota
	InstanceReady
	SurfaceReady
	DeviceReady
	SwapchainReady
	PipelineReady
	FramebuffersReady
	Running
	Destroyed
)

var stateNames = [...]string{
	Uninitialized:     "uninitialized",
	InstanceReady:     "instance ready",
	SurfaceReady:      "surface ready",
	DeviceReady:       "device ready",
	SwapchainReady:    "swapchain ready",
	PipelineReady:     "pipeline ready",
	FramebuffersReady: "framebuffers ready",
	Running:           "running",
	Destroyed:         "destroyed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// FrameHook is called once per frame of a running context. It is where
// image acquisition, submission and presentation go; the default does
// nothing.
type FrameHook func(ctx *Context, frame uint64) error

// NoFrameHook is the default FrameHook.
func NoFrameHook(*Context, uint64) error {
	return nil
}

// Builder runs the cold start sequence. Every stage only sees the results
// of the stages before it, and the Context is only handed out once all of
// them succeeded.
type Builder struct {
	Driver driver.Driver
	Window gfx.Window
	Loader gfx.ByteLoader
	Config Configuration

	// FrameHook defaults to NoFrameHook.
	FrameHook FrameHook

	state State
}

// State returns the last state the builder reached.
func (b *Builder) State() State {
	return b.state
}

func (b *Builder) advance(state State) {
	b.state = state
	log.WithField("state", state).Debug("cold start advanced")
}

// Build creates every resource in order. When a stage fails, all that was
// created before it is released, last first, before the error is returned.
func (b *Builder) Build() (*Context, error) {
	const op = "core.Builder.Build()"
	b.state = Uninitialized

	switch {
	case b.Driver == nil:
		return nil, gfx.Errorf(gfx.Initialization, op, "no driver")
	case b.Window == nil:
		return nil, gfx.Errorf(gfx.Initialization, op, "no window")
	case b.Loader == nil:
		return nil, gfx.Errorf(gfx.Initialization, op, "no shader loader")
	}

	hook := b.FrameHook
	if hook == nil {
		hook = NoFrameHook
	}
	ctx := &Context{
		drv:  b.Driver,
		hook: hook,
	}

	if err := b.build(ctx); err != nil {
		ctx.releases.Release()
		return nil, err
	}

	ctx.state = Running
	b.advance(Running)
	log.WithFields(log.Fields{
		"device":  ctx.selection.Name,
		"images":  len(ctx.chain.Images()),
		"buffers": len(ctx.recorder.Buffers()),
	}).Info("rendering context running")
	return ctx, nil
}

func (b *Builder) build(ctx *Context) error {
	drv, cfg := b.Driver, b.Config

	instance, err := device.CreateInstance(drv, b.Window, cfg.Instance)
	if err != nil {
		return err
	}
	ctx.instance = instance
	ctx.releases.PushReleasable("instance", instance)
	b.advance(InstanceReady)

	surface, err := swapchain.CreateSurface(drv, b.Window, instance.Handle())
	if err != nil {
		return err
	}
	ctx.surface = surface
	ctx.releases.PushReleasable("surface", surface)
	b.advance(SurfaceReady)

	selection, err := device.SelectPhysicalDevice(drv, instance.Handle(), surface.Handle())
	if err != nil {
		return err
	}
	ctx.selection = selection

	dev, err := device.CreateDevice(drv, selection, cfg.Renderer.DeviceExtensions)
	if err != nil {
		return err
	}
	ctx.device = dev
	ctx.releases.PushReleasable("device", dev)
	b.advance(DeviceReady)

	spec, err := swapchain.Query(surface, dev, cfg.Renderer.Extent())
	if err != nil {
		return err
	}
	chain, err := swapchain.New(drv, dev, surface, spec)
	if err != nil {
		return err
	}
	ctx.chain = chain
	ctx.releases.PushReleasable("swapchain", chain)
	b.advance(SwapchainReady)

	pl, err := pipeline.New(drv, dev.Handle(), b.Loader, chain.Format(), chain.Extent(), cfg.Renderer.Shaders)
	if err != nil {
		return err
	}
	ctx.pipeline = pl
	ctx.releases.PushReleasable("pipeline", pl)
	b.advance(PipelineReady)

	targets, err := frame.NewTargets(drv, dev.Handle(), pl.RenderPass(), chain.Views(), chain.Extent())
	if err != nil {
		return err
	}
	ctx.targets = targets
	ctx.releases.PushReleasable("framebuffers", targets)
	b.advance(FramebuffersReady)

	recorder, err := frame.NewRecorder(drv, dev.Handle(), targets, frame.RecorderConfiguration{
		GraphicsFamily: dev.Indices().Graphics,
		RenderPass:     pl.RenderPass(),
		Pipeline:       pl.Handle(),
		ClearColor:     cfg.Renderer.ClearColor,
	})
	if err != nil {
		return err
	}
	ctx.recorder = recorder
	ctx.releases.PushReleasable("command pool", recorder)

	return checkCounts(chain, targets, recorder)
}

// checkCounts verifies there is exactly one view, framebuffer and command
// buffer per swapchain image.
func checkCounts(chain *swapchain.Chain, targets *frame.Targets, recorder *frame.Recorder) error {
	images := len(chain.Images())
	if len(chain.Views()) != images || targets.Len() != images || len(recorder.Buffers()) != images {
		return gfx.Errorf(gfx.Other, "core.checkCounts()", "images %d, views %d, framebuffers %d, command buffers %d",
			images, len(chain.Views()), targets.Len(), len(recorder.Buffers()))
	}
	return nil
}

// Context holds every resource of a running renderer. Its parts are
// fixed once built; only Destroy changes it.
type Context struct {
	drv       driver.Driver
	instance  *device.Instance
	surface   *swapchain.Surface
	selection device.Selection
	device    *device.Device
	chain     *swapchain.Chain
	pipeline  *pipeline.Pipeline
	targets   *frame.Targets
	recorder  *frame.Recorder

	hook   FrameHook
	frames uint64

	mutex    sync.Mutex
	state    State
	releases gfx.Stack
}

// State returns Running until the context is destroyed.
func (c *Context) State() State {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state
}

// Instance returns the driver instance.
func (c *Context) Instance() *device.Instance {
	return c.instance
}

// Surface returns the window surface.
func (c *Context) Surface() *swapchain.Surface {
	return c.surface
}

// Selection returns the chosen physical device and queue families.
func (c *Context) Selection() device.Selection {
	return c.selection
}

// Device returns the logical device.
func (c *Context) Device() *device.Device {
	return c.device
}

// Chain returns the swapchain with its images and views.
func (c *Context) Chain() *swapchain.Chain {
	return c.chain
}

// Pipeline returns the graphics pipeline and its render pass.
func (c *Context) Pipeline() *pipeline.Pipeline {
	return c.pipeline
}

// Targets returns the framebuffers.
func (c *Context) Targets() *frame.Targets {
	return c.targets
}

// Recorder returns the command pool and recorded command buffers.
func (c *Context) Recorder() *frame.Recorder {
	return c.recorder
}

// Resources names the owned resources in creation order.
func (c *Context) Resources() []string {
	return c.releases.Names()
}

// Frames returns the number of frames drawn.
func (c *Context) Frames() uint64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.frames
}

// DrawFrame runs the frame hook once.
func (c *Context) DrawFrame() error {
	c.mutex.Lock()
	if c.state != Running {
		state := c.state
		c.mutex.Unlock()
		return gfx.Errorf(gfx.Other, "core.Context.DrawFrame()", "context is %s", state)
	}
	n := c.frames
	c.frames++
	c.mutex.Unlock()

	return c.hook(c, n)
}

// Destroy waits for the device to finish its work and releases every
// resource, last created first. Calling it again does nothing.
func (c *Context) Destroy() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.state == Destroyed {
		return
	}

	if err := c.device.WaitIdle(); err != nil {
		log.WithError(err).Warn("device did not idle before teardown")
	}
	c.releases.Release()
	c.state = Destroyed
	log.Info("rendering context destroyed")
}
